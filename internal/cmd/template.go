package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/ColtonShawProctor/template-filler/internal/config"
	"github.com/ColtonShawProctor/template-filler/internal/docx"
	"github.com/ColtonShawProctor/template-filler/internal/outfmt"
	"github.com/ColtonShawProctor/template-filler/internal/ui"
)

// TemplateCmd manages the local template store.
type TemplateCmd struct {
	Ls           TemplateLsCmd           `cmd:"" aliases:"list" help:"List installed templates"`
	Add          TemplateAddCmd          `cmd:"" help:"Install a DOCX file as a named template"`
	Rm           TemplateRmCmd           `cmd:"" aliases:"remove" help:"Remove an installed template"`
	Placeholders TemplatePlaceholdersCmd `cmd:"" help:"List the placeholders of an installed template"`
}

// TemplateLsCmd lists installed templates.
type TemplateLsCmd struct {
	Placeholders bool `help:"Include each template's placeholder inventory" short:"p"`
}

// Run executes the template ls command.
func (c *TemplateLsCmd) Run(ctx context.Context) error {
	templatesDir, err := config.TemplatesDir()
	if err != nil {
		return err
	}

	infos, err := docx.ListTemplateInfos(templatesDir, c.Placeholders || outfmt.IsJSON(ctx))
	if err != nil {
		return err
	}

	if outfmt.IsJSON(ctx) {
		return outfmt.WriteJSON(ctx, os.Stdout, infos)
	}

	u := ui.FromContext(ctx)
	if u == nil {
		return nil
	}

	for _, info := range infos {
		if c.Placeholders && info.Placeholders != nil {
			tokens := append(append([]string{}, info.Placeholders.Text...), info.Placeholders.Images...)
			u.Out().Printf("%s\t%s", info.Name, strings.Join(tokens, " "))
		} else {
			u.Out().Println(info.Name)
		}
	}

	return nil
}

// TemplateAddCmd installs a template.
type TemplateAddCmd struct {
	Name string `arg:"" help:"Template name"`
	File string `arg:"" help:"Source DOCX file"`
}

// Run executes the template add command.
func (c *TemplateAddCmd) Run(ctx context.Context) error {
	templatesDir, err := config.EnsureTemplatesDir()
	if err != nil {
		return err
	}

	if err := docx.AddTemplate(templatesDir, c.Name, c.File); err != nil {
		return err
	}

	if u := ui.FromContext(ctx); u != nil && !outfmt.IsJSON(ctx) {
		u.Out().Printf("installed %s", c.Name)
	}

	return nil
}

// TemplateRmCmd removes an installed template.
type TemplateRmCmd struct {
	Name string `arg:"" help:"Template name"`
}

// Run executes the template rm command.
func (c *TemplateRmCmd) Run(ctx context.Context) error {
	templatesDir, err := config.TemplatesDir()
	if err != nil {
		return err
	}

	if err := docx.RemoveTemplate(templatesDir, c.Name); err != nil {
		return err
	}

	if u := ui.FromContext(ctx); u != nil && !outfmt.IsJSON(ctx) {
		u.Out().Printf("removed %s", c.Name)
	}

	return nil
}

// TemplatePlaceholdersCmd lists the placeholders of one installed template.
type TemplatePlaceholdersCmd struct {
	Name string `arg:"" help:"Template name or DOCX file path"`
}

// Run executes the template placeholders command.
func (c *TemplatePlaceholdersCmd) Run(ctx context.Context) error {
	templatesDir, err := config.TemplatesDir()
	if err != nil {
		return err
	}

	ph, err := docx.TemplatePlaceholders(templatesDir, c.Name)
	if err != nil {
		return err
	}

	if outfmt.IsJSON(ctx) {
		return outfmt.WriteJSON(ctx, os.Stdout, ph)
	}

	u := ui.FromContext(ctx)
	if u == nil {
		return nil
	}

	for _, name := range ph.Text {
		u.Out().Printf("text\t%s", name)
	}

	for _, name := range ph.Images {
		u.Out().Printf("image\t%s", name)
	}

	return nil
}
