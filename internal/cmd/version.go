package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ColtonShawProctor/template-filler/internal/outfmt"
)

// Build metadata injected via -ldflags.
var (
	version = "0.3.0-dev"
	commit  = ""
	date    = ""
)

// VersionString renders the human-readable version line.
func VersionString() string {
	v := strings.TrimSpace(version)

	metadata := make([]string, 0, 2)
	if c := strings.TrimSpace(commit); c != "" {
		metadata = append(metadata, c)
	}
	if d := strings.TrimSpace(date); d != "" {
		metadata = append(metadata, d)
	}

	if len(metadata) == 0 {
		return "tfill " + v
	}
	return fmt.Sprintf("tfill %s (%s)", v, strings.Join(metadata, " "))
}

// VersionCmd prints the version.
type VersionCmd struct{}

// Run executes the version command.
func (c *VersionCmd) Run(ctx context.Context) error {
	if outfmt.IsJSON(ctx) {
		return outfmt.WriteJSON(ctx, os.Stdout, map[string]any{
			"version": strings.TrimSpace(version),
			"commit":  strings.TrimSpace(commit),
			"date":    strings.TrimSpace(date),
		})
	}
	fmt.Fprintln(os.Stdout, VersionString())
	return nil
}
