package ai

import "context"

// Completer sends one prompt to a text-completion endpoint and returns the raw completion.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
