// AngelaMos | 2026
// fakes_test.go

package user

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/carterperez-dev/mystery-message/internal/core"
	"github.com/carterperez-dev/mystery-message/internal/mail"
)

type memRepo struct {
	mu    sync.Mutex
	users map[string]*User
	fail  error
}

func newMemRepo(users ...*User) *memRepo {
	r := &memRepo{users: map[string]*User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memRepo) find(match func(*User) bool) *User {
	for _, u := range r.users {
		if match(u) {
			c := *u
			return &c
		}
	}
	return nil
}

func (r *memRepo) Create(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	c := *user
	r.users[user.ID] = &c
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.find(func(u *User) bool { return u.ID == id }); u != nil {
		return u, nil
	}
	return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
}

func (r *memRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.find(func(u *User) bool { return u.Username == username }); u != nil {
		return u, nil
	}
	return nil, fmt.Errorf("get user by username: %w", core.ErrNotFound)
}

func (r *memRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.find(func(u *User) bool { return u.Email == email }); u != nil {
		return u, nil
	}
	return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
}

func (r *memRepo) GetByIdentifier(_ context.Context, identifier string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.find(func(u *User) bool {
		return u.Username == identifier || u.Email == identifier
	}); u != nil {
		return u, nil
	}
	return nil, fmt.Errorf("get user by identifier: %w", core.ErrNotFound)
}

func (r *memRepo) ExistsVerifiedByUsername(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return false, r.fail
	}
	return r.find(func(u *User) bool {
		return u.Username == username && u.IsVerified
	}) != nil, nil
}

func (r *memRepo) ReclaimUnverified(_ context.Context, id, username, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID != id && u.Username == username {
			return fmt.Errorf("reclaim user: %w", core.ErrDuplicateKey)
		}
	}
	u, ok := r.users[id]
	if !ok || u.IsVerified {
		return fmt.Errorf("reclaim user: %w", core.ErrNotFound)
	}
	u.Username = username
	u.PasswordHash = hash
	u.UpdatedAt = time.Now()
	return nil
}

func (r *memRepo) MarkVerified(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("mark verified: %w", core.ErrNotFound)
	}
	u.IsVerified = true
	return nil
}

func (r *memRepo) SetAcceptingMessages(_ context.Context, id string, accepting bool) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("set accepting messages: %w", core.ErrNotFound)
	}
	u.IsAcceptingMessages = accepting
	c := *u
	return &c, nil
}

func (r *memRepo) UpdatePassword(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}
	u.PasswordHash = hash
	return nil
}

func (r *memRepo) IncrementTokenVersion(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("increment token version: %w", core.ErrNotFound)
	}
	u.TokenVersion++
	return nil
}

func (r *memRepo) DeleteStaleUnverified(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, u := range r.users {
		if !u.IsVerified && u.UpdatedAt.Before(before) {
			delete(r.users, id)
			n++
		}
	}
	return n, nil
}

func (r *memRepo) Stats(context.Context) (*Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s Stats
	for _, u := range r.users {
		s.Total++
		if u.IsVerified {
			s.Verified++
		}
		if u.IsAcceptingMessages {
			s.Accepting++
		}
	}
	return &s, nil
}

type memCodes struct {
	mu    sync.Mutex
	codes map[string]*PendingCode
}

func newMemCodes() *memCodes {
	return &memCodes{codes: map[string]*PendingCode{}}
}

func (c *memCodes) Save(_ context.Context, username, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[username] = &PendingCode{Code: code}
	return nil
}

func (c *memCodes) Load(_ context.Context, username string) (*PendingCode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.codes[username]
	if !ok {
		return nil, ErrCodeExpired
	}
	cp := *p
	return &cp, nil
}

func (c *memCodes) IncrementAttempts(_ context.Context, username string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.codes[username]
	if !ok {
		return 0, ErrCodeExpired
	}
	p.Attempts++
	return p.Attempts, nil
}

func (c *memCodes) Delete(_ context.Context, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.codes, username)
	return nil
}

func (c *memCodes) code(username string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.codes[username]; ok {
		return p.Code
	}
	return ""
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}
