// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type SignUpRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type VerifyCodeRequest struct {
	Username string `json:"username" validate:"required,username"`
	Code     string `json:"code"     validate:"required,len=6,numeric"`
}

type AcceptMessagesRequest struct {
	AcceptMessages *bool `json:"acceptMessages" validate:"required"`
}

type UserResponse struct {
	ID                  string    `json:"_id"`
	Username            string    `json:"username"`
	Email               string    `json:"email"`
	IsVerified          bool      `json:"isVerified"`
	IsAcceptingMessages bool      `json:"isAcceptingMessages"`
	CreatedAt           time.Time `json:"createdAt"`
}

type AcceptanceResponse struct {
	Success             bool `json:"success"`
	IsAcceptingMessages bool `json:"isAcceptingMessages"`
}

type UpdatedUserResponse struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	UpdatedUser UserResponse `json:"updatedUser"`
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:                  u.ID,
		Username:            u.Username,
		Email:               u.Email,
		IsVerified:          u.IsVerified,
		IsAcceptingMessages: u.IsAcceptingMessages,
		CreatedAt:           u.CreatedAt,
	}
}
