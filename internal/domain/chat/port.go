package chat

import "context"

// Responder port, answers one user question.
type Responder interface {
	Respond(ctx context.Context, question string) (string, error)
}
