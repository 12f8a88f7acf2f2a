package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/ColtonShawProctor/template-filler/internal/docx"
	"github.com/ColtonShawProctor/template-filler/internal/outfmt"
	"github.com/ColtonShawProctor/template-filler/internal/ui"
)

// InspectCmd lists a template's placeholders and document properties.
type InspectCmd struct {
	Template string `arg:"" help:"Template file path or installed template name"`
}

// Run executes the inspect command.
func (c *InspectCmd) Run(ctx context.Context) error {
	a, err := docx.OpenFile(resolveTemplateArg(c.Template))
	if err != nil {
		return err
	}

	info, err := docx.Inspect(a)
	if err != nil {
		return err
	}

	if outfmt.IsJSON(ctx) {
		return outfmt.WriteJSON(ctx, os.Stdout, info)
	}

	u := ui.FromContext(ctx)
	if u == nil {
		return nil
	}

	if len(info.Placeholders.Text) > 0 {
		u.Out().Printf("text\t%s", strings.Join(info.Placeholders.Text, " "))
	}

	if len(info.Placeholders.Images) > 0 {
		u.Out().Printf("images\t%s", strings.Join(info.Placeholders.Images, " "))
	}

	meta := info.Metadata
	if meta.Title != "" {
		u.Out().Printf("title\t%s", meta.Title)
	}
	if meta.Author != "" {
		u.Out().Printf("author\t%s", meta.Author)
	}
	if meta.Created != "" {
		u.Out().Printf("created\t%s", meta.Created)
	}
	if meta.Modified != "" {
		u.Out().Printf("modified\t%s", meta.Modified)
	}
	if meta.Pages > 0 {
		u.Out().Printf("pages\t%d", meta.Pages)
	}

	return nil
}
