package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/ColtonShawProctor/template-filler/internal/docx"
	"github.com/ColtonShawProctor/template-filler/internal/outfmt"
	"github.com/ColtonShawProctor/template-filler/internal/ui"
)

// CatCmd extracts the text content of a DOCX file.
type CatCmd struct {
	File string `arg:"" help:"DOCX file path"`
}

// Run executes the cat command.
func (c *CatCmd) Run(ctx context.Context) error {
	a, err := docx.OpenFile(c.File)
	if err != nil {
		return err
	}

	text, err := docx.ExtractText(a)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}

	if outfmt.IsJSON(ctx) {
		return outfmt.WriteJSON(ctx, os.Stdout, map[string]string{"text": text})
	}

	if u := ui.FromContext(ctx); u != nil {
		u.Out().Print(text)
	}

	return nil
}
