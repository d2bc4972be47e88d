package llm

import "context"

// Completer produces a chat completion from a fixed system instruction and a
// single user turn. The returned text is the model's raw output.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
