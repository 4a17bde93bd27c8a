// Package llm defines the text-generation capability consumed by the
// query enhancement engine.
package llm

import "context"

// TextGenerator produces a completion for a prompt. Implementations wrap an
// external inference engine; the core never re-implements one.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}
