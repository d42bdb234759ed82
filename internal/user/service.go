// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/mystery-message/internal/auth"
	"github.com/carterperez-dev/mystery-message/internal/core"
	"github.com/carterperez-dev/mystery-message/internal/mail"
)

const verificationCodeDigits = 6

var (
	ErrUsernameTaken   = errors.New("username is already taken")
	ErrEmailTaken      = errors.New("a user already exists with this email")
	ErrAlreadyVerified = errors.New("account is already verified")
	ErrCodeExpired     = errors.New("verification code has expired")
	ErrCodeInvalid     = errors.New("incorrect verification code")
)

type ServiceConfig struct {
	MaxAttempts int
	Hasher      *core.PasswordHasher
	Logger      *slog.Logger
}

type Service struct {
	repo        Repository
	codes       CodeStore
	mailer      mail.Mailer
	hasher      *core.PasswordHasher
	maxAttempts int
	logger      *slog.Logger
}

func NewService(
	repo Repository,
	codes CodeStore,
	mailer mail.Mailer,
	cfg ServiceConfig,
) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 5
	}

	return &Service{
		repo:        repo,
		codes:       codes,
		mailer:      mailer,
		hasher:      cfg.Hasher,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Register creates an unverified account, or reclaims one that was never
// verified for the same email, and sends it a fresh verification code.
func (s *Service) Register(
	ctx context.Context,
	username, email, password string,
) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	taken, err := s.repo.ExistsVerifiedByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.IsVerified:
		return nil, ErrEmailTaken

	case err == nil:
		previous := existing.Username
		if err := s.repo.ReclaimUnverified(ctx, existing.ID, username, passwordHash); err != nil {
			return nil, mapWriteError("reclaim user", err)
		}
		if previous != username {
			//nolint:errcheck // stale code expires on its own
			_ = s.codes.Delete(ctx, previous)
		}
		existing.Username = username
		existing.PasswordHash = passwordHash

	case errors.Is(err, core.ErrNotFound):
		existing = &User{
			ID:                  uuid.New().String(),
			Username:            username,
			Email:               email,
			PasswordHash:        passwordHash,
			IsVerified:          false,
			IsAcceptingMessages: true,
		}
		if err := s.repo.Create(ctx, existing); err != nil {
			return nil, mapWriteError("create user", err)
		}

	default:
		return nil, fmt.Errorf("register: %w", err)
	}

	if err := s.issueCode(ctx, existing); err != nil {
		return nil, err
	}

	return existing, nil
}

func (s *Service) issueCode(ctx context.Context, u *User) error {
	code, err := core.GenerateVerificationCode(verificationCodeDigits)
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}

	if err := s.codes.Save(ctx, u.Username, code); err != nil {
		return err
	}

	msg, err := mail.VerificationEmail(u.Email, u.Username, code)
	if err != nil {
		return err
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}

	s.logger.InfoContext(ctx, "verification code issued",
		"user_id", u.ID,
		"username", u.Username,
	)
	return nil
}

// VerifyCode confirms a pending sign-up. Codes are single use and are
// discarded once too many wrong guesses have been made.
func (s *Service) VerifyCode(ctx context.Context, username, code string) error {
	username = strings.TrimSpace(username)

	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	if u.IsVerified {
		return ErrAlreadyVerified
	}

	pending, err := s.codes.Load(ctx, username)
	if err != nil {
		return err
	}

	if pending.Attempts >= s.maxAttempts {
		//nolint:errcheck // the code is unusable either way
		_ = s.codes.Delete(ctx, username)
		return ErrCodeExpired
	}

	if !core.ConstantTimeEqual(pending.Code, strings.TrimSpace(code)) {
		if _, err := s.codes.IncrementAttempts(ctx, username); err != nil {
			if errors.Is(err, ErrCodeExpired) {
				return ErrCodeExpired
			}
			s.logger.WarnContext(ctx, "failed to count verification attempt",
				"username", username,
				"error", err,
			)
		}
		return ErrCodeInvalid
	}

	if err := s.repo.MarkVerified(ctx, u.ID); err != nil {
		return err
	}

	//nolint:errcheck // verified accounts never read the code again
	_ = s.codes.Delete(ctx, username)
	return nil
}

// IsUsernameAvailable reports whether no verified account holds username.
func (s *Service) IsUsernameAvailable(
	ctx context.Context,
	username string,
) (bool, error) {
	if !core.ValidUsername(username) {
		return false, fmt.Errorf("check username: %w", core.ErrInvalidInput)
	}

	taken, err := s.repo.ExistsVerifiedByUsername(ctx, username)
	if err != nil {
		return false, err
	}

	return !taken, nil
}

func (s *Service) GetAcceptanceFlag(
	ctx context.Context,
	userID string,
) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("get acceptance flag: %w", core.ErrUnauthorized)
	}

	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}

	return u.IsAcceptingMessages, nil
}

func (s *Service) SetAcceptanceFlag(
	ctx context.Context,
	userID string,
	accepting bool,
) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("set acceptance flag: %w", core.ErrUnauthorized)
	}

	return s.repo.SetAcceptingMessages(ctx, userID, accepting)
}

func (s *Service) GetByIdentifier(
	ctx context.Context,
	identifier string,
) (*auth.UserInfo, error) {
	u, err := s.repo.GetByIdentifier(ctx, strings.TrimSpace(identifier))
	if err != nil {
		return nil, err
	}

	return toUserInfo(u), nil
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(u), nil
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func mapWriteError(op string, err error) error {
	if errors.Is(err, core.ErrDuplicateKey) {
		return ErrUsernameTaken
	}
	return fmt.Errorf("%s: %w", op, err)
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:                  u.ID,
		Username:            u.Username,
		Email:               u.Email,
		PasswordHash:        u.PasswordHash,
		IsVerified:          u.IsVerified,
		IsAcceptingMessages: u.IsAcceptingMessages,
		TokenVersion:        u.TokenVersion,
		CreatedAt:           u.CreatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)
