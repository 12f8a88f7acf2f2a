// Package cmd implements the tfill command line interface.
package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ColtonShawProctor/template-filler/internal/outfmt"
	"github.com/ColtonShawProctor/template-filler/internal/ui"
)

// RootFlags are global flags bound to every command.
type RootFlags struct {
	JSON    bool   `help:"Output JSON to stdout (best for scripting)" short:"j"`
	JQ      string `name:"jq" help:"Apply jq expression to JSON output"`
	Color   string `help:"Color output: auto|always|never" default:"${color}" enum:"auto,always,never"`
	Verbose bool   `help:"Enable verbose logging" short:"v"`
}

// CLI is the full command tree.
type CLI struct {
	RootFlags `embed:""`

	Version kong.VersionFlag `help:"Print version and exit"`

	Fill       FillCmd     `cmd:"" help:"Fill a template's {{PLACEHOLDER}} tokens with values and images"`
	Inspect    InspectCmd  `cmd:"" help:"List a template's placeholders and document properties"`
	Validate   ValidateCmd `cmd:"" help:"Check a DOCX file for structural problems"`
	Cat        CatCmd      `cmd:"" help:"Extract document text as markdown"`
	Template   TemplateCmd `cmd:"" aliases:"tpl" help:"Manage installed templates"`
	Watch      WatchCmd    `cmd:"" help:"Re-fill whenever the template or inputs change"`
	VersionCmd VersionCmd  `cmd:"" name:"version" help:"Print version"`
}

type exitPanic struct{ code int }

// Execute parses args and runs the selected command.
func Execute(args []string) (err error) {
	parser, cli, err := newParser()
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			if ep, ok := r.(exitPanic); ok {
				if ep.code == 0 {
					err = nil
					return
				}
				err = &ExitError{Code: ep.code, Err: errors.New("exited")}
				return
			}
			panic(r)
		}
	}()

	kctx, err := parser.Parse(args)
	if err != nil {
		return wrapParseError(err)
	}

	// --jq implies JSON output so there is something to pipe through it.
	if cli.JQ != "" {
		cli.JSON = true
	}

	logLevel := slog.LevelWarn
	if cli.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	ctx := context.Background()

	mode := outfmt.ModeText
	if cli.JSON {
		mode = outfmt.ModeJSON
	}
	ctx = outfmt.WithMode(ctx, mode)
	ctx = outfmt.WithJQ(ctx, cli.JQ)

	uiColor := cli.Color
	if cli.JSON {
		uiColor = "never"
	}

	u, err := ui.New(ui.Options{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Color:  uiColor,
	})
	if err != nil {
		return newUsageError(err)
	}
	ctx = ui.WithUI(ctx, u)

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.Bind(&cli.RootFlags)

	err = kctx.Run()
	if err == nil || ExitCode(err) == 0 {
		return nil
	}

	if msg := strings.TrimSpace(err.Error()); msg != "" {
		u.Err().Error(msg)
	}

	return err
}

func newParser() (*kong.Kong, *CLI, error) {
	vars := kong.Vars{
		"color":   envOr("TFILL_COLOR", "auto"),
		"version": VersionString(),
	}

	cli := &CLI{}
	parser, err := kong.New(
		cli,
		kong.Name("tfill"),
		kong.Description("Fill DOCX templates: substitute {{PLACEHOLDER}} text and embed images while preserving formatting"),
		kong.Vars(vars),
		kong.Writers(os.Stdout, os.Stderr),
		kong.Exit(func(code int) { panic(exitPanic{code: code}) }),
	)
	if err != nil {
		return nil, nil, err
	}
	return parser, cli, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func wrapParseError(err error) error {
	if err == nil {
		return nil
	}
	var parseErr *kong.ParseError
	if errors.As(err, &parseErr) {
		return &ExitError{Code: 2, Err: parseErr}
	}
	return err
}
