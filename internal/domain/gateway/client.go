package gateway

import (
	"context"
	"strings"
)

// Result reports the outcome of one delivery attempt.
type Result struct {
	Success   bool
	MessageID string
	Error     string
}

// Client transmits a text message to a recipient identifier. Implementations
// own authentication, provider request shaping and any permitted retries.
// This keeps the reminder and ingestion logic decoupled from the concrete
// messaging provider.
type Client interface {
	Send(ctx context.Context, recipientID, text string) (Result, error)
}

// NormalizeRecipient strips a leading plus and all non-digit characters from
// a recipient identifier before provider dispatch.
func NormalizeRecipient(id string) string {
	var b strings.Builder
	for _, r := range id {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
