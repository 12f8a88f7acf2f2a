// Package outfmt selects between human text and machine JSON output and
// applies an optional jq transform to JSON results.
package outfmt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Mode is the output format selected for a command invocation.
type Mode string

// Supported output modes.
const (
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

// errInvalidMode rejects unknown --output values.
var errInvalidMode = errors.New("invalid output mode (expected text|json)")

// Parse converts a user-supplied mode string. The empty string means text.
func Parse(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeText, "":
		return ModeText, nil
	case ModeJSON:
		return ModeJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", errInvalidMode, s)
	}
}

type modeKey struct{}

type jqKey struct{}

// WithMode attaches the output mode to the context.
func WithMode(ctx context.Context, mode Mode) context.Context {
	return context.WithValue(ctx, modeKey{}, mode)
}

// FromContext returns the mode attached by WithMode, defaulting to text.
func FromContext(ctx context.Context) Mode {
	if m, ok := ctx.Value(modeKey{}).(Mode); ok {
		return m
	}

	return ModeText
}

// IsJSON reports whether the invocation asked for JSON output.
func IsJSON(ctx context.Context) bool {
	return FromContext(ctx) == ModeJSON
}

// WithJQ attaches a jq expression applied by WriteJSON. An empty expression
// is a no-op.
func WithJQ(ctx context.Context, expression string) context.Context {
	if expression == "" {
		return ctx
	}

	return context.WithValue(ctx, jqKey{}, expression)
}

// JQFromContext returns the jq expression attached by WithJQ, or "".
func JQFromContext(ctx context.Context) string {
	if expr, ok := ctx.Value(jqKey{}).(string); ok {
		return expr
	}

	return ""
}

// WriteJSON encodes v as indented JSON. When a jq expression is present in
// the context the encoded value is piped through it and the raw jq output is
// written instead.
func WriteJSON(ctx context.Context, w io.Writer, v any) error {
	if expr := JQFromContext(ctx); expr != "" {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal for jq: %w", err)
		}

		out, err := ApplyJQ(raw, expr)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(w, string(out))

		return err
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
