package notify

import (
	"context"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// Desktop shows native desktop notifications through the platform command line tools:
// osascript or terminal-notifier on macOS and notify-send elsewhere.
type Desktop struct {
	Subtitle string
	Sound    string

	goos string
	run  func(ctx context.Context, name string, args ...string) error
}

// NewDesktop creates a desktop notifier for the current platform
func NewDesktop(subtitle string) *Desktop {
	return &Desktop{
		Subtitle: subtitle,
		Sound:    "Glass",
		goos:     runtime.GOOS,
		run:      runCommand,
	}
}

// Notify tries each command available for the platform until one succeeds
func (d *Desktop) Notify(ctx context.Context, title, message string) error {
	var failures []string
	for _, c := range d.commands(title, message) {
		err := d.run(ctx, c[0], c[1:]...)
		if err == nil {
			return nil
		}
		failures = append(failures, c[0]+": "+err.Error())
	}
	return errors.Errorf("desktop notification failed: %s", strings.Join(failures, "; "))
}

func (d *Desktop) commands(title, message string) [][]string {
	if d.goos == "darwin" {
		script := `display notification "` + appleScriptQuote(message) + `" with title "` + appleScriptQuote(title) + `"`
		if d.Subtitle != "" {
			script += ` subtitle "` + appleScriptQuote(d.Subtitle) + `"`
		}
		if d.Sound != "" {
			script += ` sound name "` + appleScriptQuote(d.Sound) + `"`
		}

		notifier := []string{"terminal-notifier", "-title", title, "-message", message}
		if d.Subtitle != "" {
			notifier = append(notifier, "-subtitle", d.Subtitle)
		}
		if d.Sound != "" {
			notifier = append(notifier, "-sound", d.Sound)
		}
		return [][]string{{"osascript", "-e", script}, notifier}
	}

	body := message
	if d.Subtitle != "" {
		body = d.Subtitle + "\n" + message
	}
	return [][]string{{"notify-send", "--app-name=crypto-monitor", title, body}}
}

func appleScriptQuote(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return errors.Wrap(err, msg)
		}
		return err
	}
	return nil
}
