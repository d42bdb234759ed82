// AngelaMos | 2026
// service.go

package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carterperez-dev/mystery-message/internal/metrics"
)

var (
	ErrSuggestionsDisabled = errors.New("message suggestions are not configured")
	ErrUpstream            = errors.New("suggestion provider failed")
)

const separator = "||"

type Service struct {
	generator Generator
	timeout   time.Duration
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewService accepts a nil generator; every call then reports
// ErrSuggestionsDisabled.
func NewService(
	generator Generator,
	timeout time.Duration,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		generator: generator,
		timeout:   timeout,
		metrics:   m,
		logger:    logger,
	}
}

func (s *Service) Enabled() bool {
	return s.generator != nil
}

// Suggest returns the raw completion and the questions parsed from it.
func (s *Service) Suggest(ctx context.Context) (string, []string, error) {
	if s.generator == nil {
		s.metrics.RecordSuggestion(metrics.OutcomeDisabled)
		return "", nil, ErrSuggestionsDisabled
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := s.generator.Generate(ctx)
	if err != nil {
		s.metrics.RecordSuggestion(metrics.OutcomeError)
		s.logger.WarnContext(ctx, "suggestion generation failed", "error", err)
		return "", nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	questions := SplitQuestions(raw)
	if len(questions) == 0 {
		s.metrics.RecordSuggestion(metrics.OutcomeError)
		return "", nil, fmt.Errorf("%w: %w", ErrUpstream, errEmptyCompletion)
	}

	s.metrics.RecordSuggestion(metrics.OutcomeOK)
	return raw, questions, nil
}

// SplitQuestions splits a "||" separated completion, dropping blanks and
// stray quotes the model sometimes wraps the string in.
func SplitQuestions(raw string) []string {
	parts := strings.Split(raw, separator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `'"`)
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
