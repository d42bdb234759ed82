// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/mystery-message/internal/config"
	"github.com/carterperez-dev/mystery-message/internal/core"
)

type serviceFixture struct {
	svc    *Service
	repo   *memRepo
	codes  *memCodes
	mailer *recordingMailer
}

var testHasher = func() *core.PasswordHasher {
	h, err := core.NewPasswordHasher(config.SecurityConfig{
		Argon2Memory:     1024,
		Argon2Time:       1,
		Argon2Threads:    1,
		Argon2KeyLength:  32,
		Argon2SaltLength: 16,
	})
	if err != nil {
		panic(err)
	}
	return h
}()

func newFixture(users ...*User) *serviceFixture {
	f := &serviceFixture{
		repo:   newMemRepo(users...),
		codes:  newMemCodes(),
		mailer: &recordingMailer{},
	}
	f.svc = NewService(f.repo, f.codes, f.mailer, ServiceConfig{MaxAttempts: 3, Hasher: testHasher})
	return f
}

func verifiedUser(id, username, email string) *User {
	return &User{
		ID:                  id,
		Username:            username,
		Email:               email,
		IsVerified:          true,
		IsAcceptingMessages: true,
	}
}

func TestRegisterCreatesUnverifiedUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	u, err := f.svc.Register(ctx, "  alice ", "Alice@Example.com", "hunter22")
	require.NoError(t, err)

	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.False(t, u.IsVerified)
	assert.True(t, u.IsAcceptingMessages)
	assert.NotEqual(t, "hunter22", u.PasswordHash)

	code := f.codes.code("alice")
	require.Len(t, code, 6)
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "alice@example.com", f.mailer.sent[0].To)
	assert.Contains(t, f.mailer.sent[0].HTML, code)
}

func TestRegisterRejectsVerifiedUsername(t *testing.T) {
	f := newFixture(verifiedUser("u1", "alice", "alice@example.com"))

	_, err := f.svc.Register(context.Background(), "alice", "other@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.Empty(t, f.mailer.sent)
}

func TestRegisterRejectsVerifiedEmail(t *testing.T) {
	f := newFixture(verifiedUser("u1", "alice", "alice@example.com"))

	_, err := f.svc.Register(context.Background(), "alice2", "alice@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterReclaimsUnverifiedEmail(t *testing.T) {
	f := newFixture(&User{
		ID:                  "u1",
		Username:            "alcie",
		Email:               "alice@example.com",
		PasswordHash:        "old",
		IsAcceptingMessages: true,
	})
	ctx := context.Background()
	require.NoError(t, f.codes.Save(ctx, "alcie", "111111"))

	u, err := f.svc.Register(ctx, "alice", "alice@example.com", "hunter22")
	require.NoError(t, err)

	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "alice", u.Username)

	stored, err := f.repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Username)
	assert.NotEqual(t, "old", stored.PasswordHash)

	assert.Empty(t, f.codes.code("alcie"))
	assert.Len(t, f.codes.code("alice"), 6)
}

func TestReclaimedAccountSurvivesStaleSweep(t *testing.T) {
	longAgo := time.Now().Add(-48 * time.Hour)
	f := newFixture(
		&User{ID: "u1", Username: "alcie", Email: "alice@example.com", CreatedAt: longAgo, UpdatedAt: longAgo},
		&User{ID: "u2", Username: "ghost", Email: "ghost@example.com", CreatedAt: longAgo, UpdatedAt: longAgo},
	)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "alice", "alice@example.com", "hunter22")
	require.NoError(t, err)

	n, err := f.repo.DeleteStaleUnverified(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.repo.GetByID(ctx, "u1")
	assert.NoError(t, err)
	_, err = f.repo.GetByID(ctx, "u2")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRegisterUnverifiedUsernameClash(t *testing.T) {
	f := newFixture(&User{ID: "u1", Username: "alice", Email: "first@example.com"})

	_, err := f.svc.Register(context.Background(), "alice", "second@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegisterMailFailure(t *testing.T) {
	f := newFixture()
	f.mailer.err = errors.New("smtp down")

	_, err := f.svc.Register(context.Background(), "alice", "alice@example.com", "hunter22")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send verification email")
}

func TestVerifyCode(t *testing.T) {
	ctx := context.Background()

	t.Run("correct code verifies once", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Register(ctx, "alice", "alice@example.com", "hunter22")
		require.NoError(t, err)
		code := f.codes.code("alice")

		require.NoError(t, f.svc.VerifyCode(ctx, "alice", code))

		u, err := f.repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, u.IsVerified)
		assert.Empty(t, f.codes.code("alice"))

		assert.ErrorIs(t, f.svc.VerifyCode(ctx, "alice", code), ErrAlreadyVerified)
	})

	t.Run("wrong code counts attempts then expires", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Register(ctx, "alice", "alice@example.com", "hunter22")
		require.NoError(t, err)
		code := f.codes.code("alice")

		for range 3 {
			assert.ErrorIs(t, f.svc.VerifyCode(ctx, "alice", "000000x"), ErrCodeInvalid)
		}

		assert.ErrorIs(t, f.svc.VerifyCode(ctx, "alice", code), ErrCodeExpired)
		assert.Empty(t, f.codes.code("alice"))
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newFixture()
		assert.ErrorIs(t, f.svc.VerifyCode(ctx, "ghost", "123456"), core.ErrNotFound)
	})

	t.Run("missing code", func(t *testing.T) {
		f := newFixture(&User{ID: "u1", Username: "alice", Email: "a@b.co"})
		assert.ErrorIs(t, f.svc.VerifyCode(ctx, "alice", "123456"), ErrCodeExpired)
	})
}

func TestIsUsernameAvailable(t *testing.T) {
	f := newFixture(
		verifiedUser("u1", "alice", "alice@example.com"),
		&User{ID: "u2", Username: "bob", Email: "bob@example.com"},
	)
	ctx := context.Background()

	available, err := f.svc.IsUsernameAvailable(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, available)

	available, err = f.svc.IsUsernameAvailable(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, available, "unverified holders do not reserve a name")

	available, err = f.svc.IsUsernameAvailable(ctx, "carol")
	require.NoError(t, err)
	assert.True(t, available)

	_, err = f.svc.IsUsernameAvailable(ctx, "no spaces")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestAcceptanceFlag(t *testing.T) {
	f := newFixture(verifiedUser("u1", "alice", "alice@example.com"))
	ctx := context.Background()

	_, err := f.svc.GetAcceptanceFlag(ctx, "")
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	_, err = f.svc.SetAcceptanceFlag(ctx, "", false)
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	_, err = f.svc.GetAcceptanceFlag(ctx, "gone")
	assert.ErrorIs(t, err, core.ErrNotFound)

	accepting, err := f.svc.GetAcceptanceFlag(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, accepting)

	updated, err := f.svc.SetAcceptanceFlag(ctx, "u1", false)
	require.NoError(t, err)
	assert.False(t, updated.IsAcceptingMessages)

	accepting, err = f.svc.GetAcceptanceFlag(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, accepting)
}

func TestUserProviderMethods(t *testing.T) {
	f := newFixture(verifiedUser("u1", "alice", "alice@example.com"))
	ctx := context.Background()

	info, err := f.svc.GetByIdentifier(ctx, " alice@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "u1", info.ID)
	assert.True(t, info.IsVerified)

	require.NoError(t, f.svc.IncrementTokenVersion(ctx, "u1"))
	info, err = f.svc.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, info.TokenVersion)
}
