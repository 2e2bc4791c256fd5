package ui

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

// PagerOptions controls pager behavior
type PagerOptions struct {
	// NoPager disables the pager for this command (--no-pager)
	NoPager bool
}

// shouldUsePager is false when NoPager or PM_NO_PAGER is set, or when
// stdout is not a terminal.
func shouldUsePager(opts PagerOptions) bool {
	if opts.NoPager || os.Getenv("PM_NO_PAGER") != "" {
		return false
	}
	return IsTerminal()
}

// getPagerCommand checks PM_PAGER, then PAGER, and defaults to "less".
func getPagerCommand() string {
	if pager := os.Getenv("PM_PAGER"); pager != "" {
		return pager
	}
	if pager := os.Getenv("PAGER"); pager != "" {
		return pager
	}
	return "less"
}

func getTerminalHeight() int {
	fd := int(os.Stdout.Fd()) // #nosec G115 -- fd fits in int
	if !term.IsTerminal(fd) {
		return 0
	}
	_, height, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return height
}

func contentHeight(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(content, "\n") + 1
}

// ToPager pipes content to a pager when stdout is a terminal and the
// content does not fit on one screen. Otherwise it writes to w.
func ToPager(w io.Writer, content string, opts PagerOptions) error {
	if !shouldUsePager(opts) {
		_, err := fmt.Fprint(w, content)
		return err
	}

	termHeight := getTerminalHeight()
	if termHeight > 0 && contentHeight(content) <= termHeight-1 {
		_, err := fmt.Fprint(w, content)
		return err
	}

	parts := strings.Fields(getPagerCommand())
	if len(parts) == 0 {
		_, err := fmt.Fprint(w, content)
		return err
	}

	cmd := exec.Command(parts[0], parts[1:]...) // #nosec G204 -- pager command is user-configured
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	// -R keeps colors, -F quits when the content fits, -X keeps the screen.
	cmd.Env = os.Environ()
	if os.Getenv("LESS") == "" {
		cmd.Env = append(cmd.Env, "LESS=-RFX")
	}
	return cmd.Run()
}
