package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts LLM providers for section compliance review.
type Client interface {
	ReviewSection(ctx context.Context, input ReviewInput) (json.RawMessage, error)
}

// ReviewInput captures the inputs needed to review one document section.
type ReviewInput struct {
	SectionTitle   string
	SectionContent string
	SectionLevel   int
	DocumentName   string
	PromptVersion  string
}

type fixJSONKey struct{}

// WithFixJSON returns a context signaling a fix-JSON retry with the given raw output.
func WithFixJSON(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, fixJSONKey{}, raw)
}

// FixJSONFromContext returns the raw JSON to repair, if any.
func FixJSONFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(fixJSONKey{})
	raw, ok := val.(string)
	return raw, ok
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// ReviewSection returns ErrNotImplemented.
func (PlaceholderClient) ReviewSection(ctx context.Context, input ReviewInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotImplemented
}
