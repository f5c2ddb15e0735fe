// Package oracle provides the external judgment oracle: a collaborator that
// reads an assembled market summary and answers with a free-form verdict.
package oracle

import "context"

// Oracle is the interface for judgment backends.
type Oracle interface {
	// Judge sends the market summary and returns the raw reply text.
	// The caller is responsible for normalizing and validating the reply.
	Judge(ctx context.Context, prompt string) (string, error)
}
