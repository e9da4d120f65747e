package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role pengirim pesan
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Message is one transcript entry. Never edited after it is appended.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMessage(role Role, content string, at time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: at,
	}
}

// Greeting opens every new transcript.
const Greeting = "Hi! I'm your AI security assistant. I can help you understand phishing attacks, explain security best practices, or answer any questions about online safety. How can I help you today?"
