// AngelaMos | 2026
// repository_test.go

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/mystery-message/internal/core"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestRepositoryFindByHashMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM refresh_tokens`).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByHash(context.Background(), "abc")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryMarkAsUsedOnlyOnce(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE refresh_tokens`).
		WithArgs("t1", "t2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE refresh_tokens`).
		WithArgs("t1", "t3").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.MarkAsUsed(context.Background(), "t1", "t2"))
	err := repo.MarkAsUsed(context.Background(), "t1", "t3")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryDeleteExpired(t *testing.T) {
	repo, mock := newMockRepo(t)
	cutoff := time.Now().Add(-24 * time.Hour)

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE expires_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.DeleteExpired(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
