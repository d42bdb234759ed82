// AngelaMos | 2026
// service_test.go

package message

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/mystery-message/internal/core"
	"github.com/carterperez-dev/mystery-message/internal/metrics"
	"github.com/carterperez-dev/mystery-message/internal/user"
)

const (
	aliceID = "0c6b6a4e-3f0e-4d6e-9a57-8c1b2d3e4f50"
	bobID   = "5e7d9c1a-2b3c-4d5e-8f90-a1b2c3d4e5f6"
)

type serviceFixture struct {
	svc     *Service
	msgs    *memMessages
	users   *memUsers
	metrics *metrics.Metrics
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		msgs: newMemMessages(),
		users: newMemUsers(
			&user.User{ID: aliceID, Username: "alice", IsVerified: true, IsAcceptingMessages: true},
			&user.User{ID: bobID, Username: "bob", IsVerified: true, IsAcceptingMessages: true},
		),
		metrics: metrics.New(),
	}
	f.svc = NewService(f.msgs, f.users, f.metrics, nil)
	return f
}

func intakeCount(t *testing.T, m *metrics.Metrics, outcome string) float64 {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != "mystery_message_messages_submitted_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" && label.GetValue() == outcome {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func contents(msgs []Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Content)
	}
	return out
}

func TestAliceScenario(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, "alice", "hello")
	require.NoError(t, err)

	msgs, err := f.svc.List(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, contents(msgs))

	f.users.setAccepting(aliceID, false)
	_, err = f.svc.Submit(ctx, "alice", "are you there?")
	assert.ErrorIs(t, err, ErrIntakeClosed)

	f.users.setAccepting(aliceID, true)
	_, err = f.svc.Submit(ctx, "alice", "hi")
	require.NoError(t, err)

	msgs, err = f.svc.List(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, []string{"hi", "hello"}, contents(msgs))
}

func TestSubmitRespectsLiveFlag(t *testing.T) {
	for _, accepting := range []bool{true, false} {
		f := newServiceFixture()
		f.users.setAccepting(aliceID, accepting)

		id, err := f.svc.Submit(context.Background(), "alice", "ping")
		if accepting {
			require.NoError(t, err)
			assert.True(t, core.IsUUID(id))
			assert.Equal(t, 1, f.msgs.len())
		} else {
			assert.ErrorIs(t, err, ErrIntakeClosed)
			assert.Empty(t, id)
			assert.Equal(t, 0, f.msgs.len())
		}
	}
}

func TestSubmitRejections(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, "ghost", "hello")
	assert.ErrorIs(t, err, ErrRecipientNotFound)

	_, err = f.svc.Submit(ctx, "alice", "   \n\t ")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	assert.Equal(t, 0, f.msgs.len())
	assert.Equal(t, 1.0, intakeCount(t, f.metrics, metrics.OutcomeRecipientNotFound))
	assert.Equal(t, 1.0, intakeCount(t, f.metrics, metrics.OutcomeInvalid))
}

func TestSubmitStoresContentVerbatim(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, " alice ", "  hello there  ")
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, "alice", "\n\t")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	msgs, err := f.svc.List(ctx, aliceID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "  hello there  ", msgs[0].Content)
	assert.Equal(t, aliceID, msgs[0].UserID)
}

func TestSubmitStoreFailure(t *testing.T) {
	f := newServiceFixture()
	f.msgs.fail = errors.New("connection reset")

	_, err := f.svc.Submit(context.Background(), "alice", "hello")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrIntakeClosed)
	assert.Equal(t, 1.0, intakeCount(t, f.metrics, metrics.OutcomeError))
}

func TestListOrdering(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	stamps := []time.Time{base, base.Add(time.Minute), base.Add(time.Minute), base.Add(-time.Hour)}
	i := 0
	f.msgs.now = func() time.Time {
		ts := stamps[i]
		i++
		return ts
	}

	for _, c := range []string{"first", "second", "third", "oldest"} {
		_, err := f.svc.Submit(ctx, "alice", c)
		require.NoError(t, err)
	}

	msgs, err := f.svc.List(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "second", "first", "oldest"}, contents(msgs))
}

func TestListEmptyAndUnknown(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	msgs, err := f.svc.List(ctx, bobID)
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)

	_, err = f.svc.List(ctx, "5f5f5f5f-0000-4000-8000-000000000000")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.svc.List(ctx, "")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestDeleteIsOwnerScoped(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	keep, err := f.svc.Submit(ctx, "alice", "keep")
	require.NoError(t, err)
	drop, err := f.svc.Submit(ctx, "alice", "drop")
	require.NoError(t, err)
	bobs, err := f.svc.Submit(ctx, "bob", "for bob")
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(ctx, bobID, drop), core.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, aliceID, bobs), core.ErrNotFound)

	require.NoError(t, f.svc.Delete(ctx, aliceID, drop))
	assert.ErrorIs(t, f.svc.Delete(ctx, aliceID, drop), core.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, aliceID, "3b0c9a61-7c1e-4b7a-9d0f-1e2d3c4b5a69"), core.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, "", keep), core.ErrUnauthorized)

	msgs, err := f.svc.List(ctx, aliceID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, keep, msgs[0].ID)

	msgs, err = f.svc.List(ctx, bobID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, bobs, msgs[0].ID)
	assert.Equal(t, "for bob", msgs[0].Content)
}
