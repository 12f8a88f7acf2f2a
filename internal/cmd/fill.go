package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ColtonShawProctor/template-filler/internal/config"
	"github.com/ColtonShawProctor/template-filler/internal/docx"
	"github.com/ColtonShawProctor/template-filler/internal/input"
	"github.com/ColtonShawProctor/template-filler/internal/outfmt"
	"github.com/ColtonShawProctor/template-filler/internal/ui"
)

// FillCmd fills one template and writes the result.
type FillCmd struct {
	Template string `help:"Template file path or installed template name" short:"t" required:""`
	Values   string `help:"JSON file mapping placeholder names to text values (values may use file:// refs)"`
	Images   string `help:"JSON file mapping image tokens to base64 payloads (values may use fileb:// refs)"`
	Out      string `help:"Output DOCX path" short:"o" required:""`
}

// Run executes the fill command.
func (c *FillCmd) Run(ctx context.Context) error {
	if c.Values == "" && c.Images == "" {
		return usagef("at least one of --values or --images is required")
	}

	result, err := runFill(c.Template, c.Values, c.Images, c.Out)
	if err != nil {
		return err
	}

	return reportFill(ctx, c.Out, result)
}

// runFill loads the input mappings, fills the template, and writes the
// output atomically. It is shared by fill and watch.
func runFill(template, valuesPath, imagesPath, out string) (*docx.Result, error) {
	values, err := loadMapping(valuesPath)
	if err != nil {
		return nil, err
	}

	images, err := loadMapping(imagesPath)
	if err != nil {
		return nil, err
	}

	a, err := docx.OpenFile(resolveTemplateArg(template))
	if err != nil {
		return nil, err
	}

	result, err := docx.Fill(a, values, images)
	if err != nil {
		return nil, err
	}

	if err := a.WriteFile(out); err != nil {
		return nil, err
	}

	return result, nil
}

// reportFill prints the fill summary.
func reportFill(ctx context.Context, out string, result *docx.Result) error {
	if outfmt.IsJSON(ctx) {
		return outfmt.WriteJSON(ctx, os.Stdout, map[string]any{
			"output":       out,
			"replacements": result.Replacements,
			"images":       result.ImagesPlaced,
			"unresolved":   result.Unresolved,
		})
	}

	u := ui.FromContext(ctx)
	if u == nil {
		return nil
	}

	u.Out().Printf("wrote %s (%d replacements, %d images)", out, result.Replacements, result.ImagesPlaced)

	if len(result.Unresolved) > 0 {
		u.Err().Printf("unresolved: %s", strings.Join(result.Unresolved, ", "))
	}

	return nil
}

// loadMapping reads a JSON object of string keys and values and resolves
// file:// and fileb:// references in the values. An empty path yields nil.
func loadMapping(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // user-provided input path
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return input.ResolveMap(m)
}

// resolveTemplateArg maps an installed template name to its stored path,
// passing file paths through unchanged.
func resolveTemplateArg(template string) string {
	templatesDir, err := config.TemplatesDir()
	if err != nil {
		return template
	}

	return docx.ResolveTemplatePath(templatesDir, template)
}
