// AngelaMos | 2026
// dto.go

package message

import (
	"time"
)

type SendMessageRequest struct {
	Username string `json:"username" validate:"required,max=20"`
	Content  string `json:"content"  validate:"required"`
}

type MessageResponse struct {
	ID        string    `json:"_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type SendMessageResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
}

type ListMessagesResponse struct {
	Success  bool              `json:"success"`
	Messages []MessageResponse `json:"messages"`
}

func ToMessageResponse(m Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func ToMessageResponses(msgs []Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ToMessageResponse(m))
	}
	return out
}
