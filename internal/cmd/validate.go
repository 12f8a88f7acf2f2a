package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ColtonShawProctor/template-filler/internal/docx"
	"github.com/ColtonShawProctor/template-filler/internal/outfmt"
	"github.com/ColtonShawProctor/template-filler/internal/ui"
)

// errInvalidDocument signals validation failures without repeating them.
var errInvalidDocument = errors.New("document is not valid")

// ValidateCmd checks a DOCX file for structural problems.
type ValidateCmd struct {
	File string `arg:"" help:"DOCX file path"`
}

// Run executes the validate command.
func (c *ValidateCmd) Run(ctx context.Context) error {
	data, err := os.ReadFile(c.File) //nolint:gosec // user-provided document path
	if err != nil {
		return fmt.Errorf("read %s: %w", c.File, err)
	}

	result := docx.Validate(data)

	if outfmt.IsJSON(ctx) {
		if err := outfmt.WriteJSON(ctx, os.Stdout, result); err != nil {
			return err
		}
	} else if u := ui.FromContext(ctx); u != nil {
		if result.Valid {
			u.Out().Printf("%s is valid", c.File)
		}

		for _, e := range result.Errors {
			u.Err().Printf("error\t%s", e)
		}

		for _, w := range result.Warnings {
			u.Err().Printf("warning\t%s", w)
		}
	}

	if !result.Valid {
		return errInvalidDocument
	}

	return nil
}
