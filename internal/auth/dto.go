// AngelaMos | 2026
// dto.go

package auth

import (
	"time"
)

type SignInRequest struct {
	Identifier string `json:"identifier" validate:"required,max=255"`
	Password   string `json:"password"   validate:"required,max=128"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenType    string    `json:"tokenType"`
	ExpiresIn    int       `json:"expiresIn"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type SessionUser struct {
	ID                  string `json:"_id"`
	Username            string `json:"username"`
	Email               string `json:"email,omitempty"`
	IsVerified          bool   `json:"isVerified"`
	IsAcceptingMessages bool   `json:"isAcceptingMessages"`
	ProfileURL          string `json:"profileUrl"`
}

type AuthResponse struct {
	Success bool          `json:"success"`
	User    SessionUser   `json:"user"`
	Tokens  TokenResponse `json:"tokens"`
}

type SessionResponse struct {
	Success bool        `json:"success"`
	User    SessionUser `json:"user"`
}
