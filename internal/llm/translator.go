// Package llm translates canonical purchase order text into the internal
// PO numbering scheme using a local language model.
package llm

import "context"

// Translator turns canonical document text into a raw model completion.
// Implementations promise nothing about the shape of the completion; callers
// must treat it as untrusted text until it passes validation.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}
