// AngelaMos | 2026
// fakes_test.go

package message

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/carterperez-dev/mystery-message/internal/core"
	"github.com/carterperez-dev/mystery-message/internal/user"
)

type memMessages struct {
	mu   sync.Mutex
	seq  int64
	msgs []Message
	now  func() time.Time
	fail error
}

func newMemMessages() *memMessages {
	return &memMessages{now: time.Now}
}

func (m *memMessages) Append(_ context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.seq++
	msg.Seq = m.seq
	msg.CreatedAt = m.now()
	m.msgs = append(m.msgs, *msg)
	return nil
}

func (m *memMessages) ListByUser(_ context.Context, userID string) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Message{}
	for _, msg := range m.msgs {
		if msg.UserID == userID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Seq > out[j].Seq
	})
	return out, nil
}

func (m *memMessages) DeleteForUser(_ context.Context, userID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, msg := range m.msgs {
		if msg.ID == messageID && msg.UserID == userID {
			m.msgs = append(m.msgs[:i], m.msgs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete message: %w", core.ErrNotFound)
}

func (m *memMessages) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.msgs)), nil
}

func (m *memMessages) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.msgs)
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func newMemUsers(users ...*user.User) *memUsers {
	m := &memUsers{users: map[string]*user.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, fmt.Errorf("get user by username: %w", core.ErrNotFound)
}

func (m *memUsers) setAccepting(id string, accepting bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].IsAcceptingMessages = accepting
}
