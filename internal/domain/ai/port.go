package ai

import "context"

// Client answers a security question in free text.
type Client interface {
	Answer(ctx context.Context, question string) (string, error)
}
