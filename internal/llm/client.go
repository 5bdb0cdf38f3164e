package llm

import (
	"context"
)

// LanguageModel is the minimal generation surface the assessment service
// needs from a provider.
type LanguageModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
