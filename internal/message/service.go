// AngelaMos | 2026
// service.go

package message

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/mystery-message/internal/core"
	"github.com/carterperez-dev/mystery-message/internal/metrics"
	"github.com/carterperez-dev/mystery-message/internal/user"
)

var (
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrIntakeClosed      = errors.New("user is not accepting messages")
)

// UserLookup resolves inbox owners. user.Repository satisfies it.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
	GetByUsername(ctx context.Context, username string) (*user.User, error)
}

type Service struct {
	repo    Repository
	users   UserLookup
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(
	repo Repository,
	users UserLookup,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		repo:    repo,
		users:   users,
		metrics: m,
		logger:  logger,
	}
}

// Submit drops an anonymous message into username's inbox. Content that is
// only whitespace is refused; anything else is stored exactly as sent. The
// recipient's stored acceptance flag decides, never a cached copy of it.
func (s *Service) Submit(
	ctx context.Context,
	username, content string,
) (string, error) {
	if strings.TrimSpace(content) == "" {
		s.reject(ctx, metrics.OutcomeInvalid, username)
		return "", fmt.Errorf("submit message: %w", core.ErrInvalidInput)
	}

	recipient, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.reject(ctx, metrics.OutcomeRecipientNotFound, username)
			return "", ErrRecipientNotFound
		}
		s.metrics.RecordIntake(metrics.OutcomeError)
		return "", fmt.Errorf("submit message: %w", err)
	}

	if !recipient.IsAcceptingMessages {
		s.reject(ctx, metrics.OutcomeIntakeClosed, username)
		return "", ErrIntakeClosed
	}

	msg := &Message{
		ID:      uuid.New().String(),
		UserID:  recipient.ID,
		Content: content,
	}
	if err := s.repo.Append(ctx, msg); err != nil {
		s.metrics.RecordIntake(metrics.OutcomeError)
		return "", err
	}

	s.metrics.RecordIntake(metrics.OutcomeAccepted)
	return msg.ID, nil
}

func (s *Service) reject(ctx context.Context, outcome, username string) {
	s.metrics.RecordIntake(outcome)
	core.AddSpanEvent(ctx, "message.rejected",
		attribute.String("outcome", outcome),
		attribute.String("recipient", username),
	)
	s.logger.DebugContext(ctx, "message rejected",
		"outcome", outcome,
		"recipient", username,
	)
}

// List returns the caller's inbox, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Message, error) {
	if userID == "" {
		return nil, fmt.Errorf("list messages: %w", core.ErrUnauthorized)
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	return s.repo.ListByUser(ctx, userID)
}

// Delete removes one of the caller's messages. Ids belonging to someone
// else are reported as not found.
func (s *Service) Delete(ctx context.Context, userID, messageID string) error {
	if userID == "" {
		return fmt.Errorf("delete message: %w", core.ErrUnauthorized)
	}

	if err := s.repo.DeleteForUser(ctx, userID, messageID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "message deleted",
		"user_id", userID,
		"message_id", messageID,
	)
	return nil
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
