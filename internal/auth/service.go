// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/mystery-message/internal/core"
	"github.com/carterperez-dev/mystery-message/internal/middleware"
)

var (
	ErrUnknownIdentity = errors.New("no user found with this username or email")
	ErrNotVerified     = errors.New("account is not verified")
	ErrBadCredential   = errors.New("incorrect password")
	ErrTokenReuse      = errors.New("token reuse detected")
)

type UserProvider interface {
	GetByIdentifier(ctx context.Context, identifier string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	IncrementTokenVersion(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type Service struct {
	repo       Repository
	jwt        *JWTManager
	users      UserProvider
	hasher     *core.PasswordHasher
	denylist   Denylist
	profileURL func(username string) string
	logger     *slog.Logger
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	users UserProvider,
	hasher *core.PasswordHasher,
	denylist Denylist,
	profileURL func(username string) string,
) *Service {
	return &Service{
		repo:       repo,
		jwt:        jwt,
		users:      users,
		hasher:     hasher,
		denylist:   denylist,
		profileURL: profileURL,
		logger:     slog.Default(),
	}
}

// SignIn checks the password before the verification flag so an account's
// verification state is only disclosed to someone holding its password.
func (s *Service) SignIn(
	ctx context.Context,
	req SignInRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	user, err := s.users.GetByIdentifier(ctx, req.Identifier)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = s.hasher.VerifyTimingSafe(req.Password, nil)
			return nil, ErrUnknownIdentity
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := s.hasher.VerifyTimingSafe(
		req.Password,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrBadCredential
	}

	if !user.IsVerified {
		return nil, ErrNotVerified
	}

	if newHash != "" {
		if err := s.users.UpdatePassword(ctx, user.ID, newHash); err != nil {
			s.logger.WarnContext(ctx, "password rehash failed",
				"user_id", user.ID,
				"error", err,
			)
		}
	}

	return s.issueTokens(ctx, user, userAgent, ipAddress, "", nil)
}

// Refresh rotates a refresh token. Presenting a token that was already
// rotated revokes every token descended from the same sign-in.
func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*AuthResponse, error) {
	storedToken, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if storedToken.IsUsed {
		if err := s.repo.RevokeByFamilyID(ctx, storedToken.FamilyID); err != nil {
			s.logger.ErrorContext(ctx, "revoke token family failed",
				"family_id", storedToken.FamilyID,
				"error", err,
			)
		}
		return nil, ErrTokenReuse
	}

	if !storedToken.IsValid(time.Now()) {
		if storedToken.IsRevoked() {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.users.GetByID(ctx, storedToken.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return s.issueTokens(
		ctx,
		user,
		userAgent,
		ipAddress,
		storedToken.FamilyID,
		&storedToken.ID,
	)
}

// SignOut ends the calling session: the presented refresh token, if any, is
// revoked and the access token is denied until it expires.
func (s *Service) SignOut(
	ctx context.Context,
	session *middleware.SessionIdentity,
	refreshToken string,
) error {
	if session == nil {
		return fmt.Errorf("sign out: %w", core.ErrUnauthorized)
	}

	if refreshToken != "" {
		storedToken, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
		switch {
		case errors.Is(err, core.ErrNotFound):
		case err != nil:
			return fmt.Errorf("find token: %w", err)
		case storedToken.UserID != session.UserID:
			return fmt.Errorf("sign out: %w", core.ErrForbidden)
		default:
			if err := s.repo.RevokeByID(ctx, storedToken.ID); err != nil &&
				!errors.Is(err, core.ErrNotFound) {
				return fmt.Errorf("revoke token: %w", err)
			}
		}
	}

	if err := s.denylist.Deny(ctx, session.TokenID, session.ExpiresAt); err != nil {
		return err
	}

	return nil
}

// SignOutAll invalidates every session of the user by bumping the token
// version that access tokens are checked against.
func (s *Service) SignOutAll(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("sign out all: %w", core.ErrUnauthorized)
	}

	if err := s.repo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	if err := s.users.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	return nil
}

// VerifyAccessToken is the request authenticator: a valid signature is not
// enough, the token must also not be denied or predate a sign-out-all.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.SessionIdentity, error) {
	session, err := s.jwt.ParseAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	denied, err := s.denylist.IsDenied(ctx, session.TokenID)
	if err != nil {
		return nil, err
	}
	if denied {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if session.TokenVersion < user.TokenVersion {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return session, nil
}

// SessionUser renders the profile snapshot carried by the session.
func (s *Service) SessionUser(session *middleware.SessionIdentity) SessionUser {
	return SessionUser{
		ID:                  session.UserID,
		Username:            session.Username,
		Email:               session.Email,
		IsVerified:          session.IsVerified,
		IsAcceptingMessages: session.IsAcceptingMessages,
		ProfileURL:          s.profile(session.Username),
	}
}

func (s *Service) profile(username string) string {
	if s.profileURL == nil {
		return ""
	}
	return s.profileURL(username)
}

func (s *Service) issueTokens(
	ctx context.Context,
	user *UserInfo,
	userAgent, ipAddress, familyID string,
	oldTokenID *string,
) (*AuthResponse, error) {
	accessToken, expiresAt, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID:              user.ID,
		Username:            user.Username,
		Email:               user.Email,
		IsVerified:          user.IsVerified,
		IsAcceptingMessages: user.IsAcceptingMessages,
		TokenVersion:        user.TokenVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refreshData, err := s.jwt.CreateRefreshToken(familyID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	newTokenID := uuid.New().String()

	if oldTokenID != nil {
		if err := s.repo.MarkAsUsed(ctx, *oldTokenID, newTokenID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return nil, ErrTokenReuse
			}
			return nil, fmt.Errorf("rotate refresh token: %w", err)
		}
	}

	if err := s.repo.Create(ctx, &RefreshToken{
		ID:        newTokenID,
		UserID:    user.ID,
		TokenHash: refreshData.Hash,
		FamilyID:  refreshData.FamilyID,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &AuthResponse{
		Success: true,
		User: SessionUser{
			ID:                  user.ID,
			Username:            user.Username,
			Email:               user.Email,
			IsVerified:          user.IsVerified,
			IsAcceptingMessages: user.IsAcceptingMessages,
			ProfileURL:          s.profile(user.Username),
		},
		Tokens: TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshData.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(s.jwt.AccessTokenTTL() / time.Second),
			ExpiresAt:    expiresAt,
		},
	}, nil
}
