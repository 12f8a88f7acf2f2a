package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ColtonShawProctor/template-filler/internal/ui"
)

// watchDebounce is how long to wait after the last change before re-filling.
// Editors and exporters often write a file in several bursts.
const watchDebounce = 300 * time.Millisecond

// WatchCmd re-runs the fill whenever the template or an input file changes.
type WatchCmd struct {
	Template string `help:"Template file path or installed template name" short:"t" required:""`
	Values   string `help:"JSON file mapping placeholder names to text values"`
	Images   string `help:"JSON file mapping image tokens to base64 payloads"`
	Out      string `help:"Output DOCX path" short:"o" required:""`
}

// Run executes the watch command. It blocks until interrupted.
func (c *WatchCmd) Run(ctx context.Context) error {
	if c.Values == "" && c.Images == "" {
		return usagef("at least one of --values or --images is required")
	}

	watched := make(map[string]bool)
	for _, p := range []string{resolveTemplateArg(c.Template), c.Values, c.Images} {
		if p == "" {
			continue
		}

		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}

		watched[abs] = true
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the parent directories: editors typically replace files via
	// rename, which drops a watch placed on the file itself.
	dirs := make(map[string]bool)
	for p := range watched {
		dirs[filepath.Dir(p)] = true
	}

	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	u := ui.FromContext(ctx)

	// Initial fill so the output exists before the first change.
	c.fillOnce(ctx, u)

	var timer *time.Timer

	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if u != nil {
				u.Err().Println("stopped")
			}

			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			abs, err := filepath.Abs(event.Name)
			if err != nil || !watched[abs] {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			// Restart the debounce window on every relevant event.
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(watchDebounce)
			}

		case <-timerC:
			c.fillOnce(ctx, u)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			if u != nil {
				u.Err().Error(err.Error())
			}
		}
	}
}

// fillOnce runs one fill and reports the outcome without stopping the loop
// on failure; a broken intermediate save should not kill the watch.
func (c *WatchCmd) fillOnce(ctx context.Context, u *ui.UI) {
	result, err := runFill(c.Template, c.Values, c.Images, c.Out)
	if err != nil {
		if u != nil && !errors.Is(err, context.Canceled) {
			u.Err().Error(err.Error())
		}

		return
	}

	if u != nil {
		u.Out().Printf("%s  wrote %s (%d replacements, %d images)",
			time.Now().Format("15:04:05"), c.Out, result.Replacements, result.ImagesPlaced)
	}

	_ = os.Stdout.Sync()
}
