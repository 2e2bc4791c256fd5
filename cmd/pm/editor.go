package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/nootmuskaat/pm/internal/config"
	"github.com/nootmuskaat/pm/internal/engine"
)

const defaultEditor = "vi"

// editorCommand picks the editor for modify.
// Priority: $VISUAL > $EDITOR > config editor (PM_EDITOR) > vi.
func editorCommand() string {
	for _, candidate := range []string{os.Getenv("VISUAL"), os.Getenv("EDITOR"), config.GetString("editor")} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return defaultEditor
}

// externalEditor runs an editor program on a temporary file.
type externalEditor struct {
	command string
}

func newExternalEditor(command string) *externalEditor {
	return &externalEditor{command: command}
}

// Edit writes text to a temp file, runs the editor on it and returns the
// file's contents once the editor exits.
func (e *externalEditor) Edit(ctx context.Context, text string) (string, error) {
	parts := strings.Fields(e.command)
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: empty editor command", engine.ErrEditorFailed)
	}

	f, err := os.CreateTemp("", "pm-edit-*.txt")
	if err != nil {
		return "", fmt.Errorf("%w: %v", engine.ErrEditorFailed, err)
	}
	path := f.Name()
	defer func() { _ = os.Remove(path) }()

	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("%w: %v", engine.ErrEditorFailed, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", engine.ErrEditorFailed, err)
	}

	args := append(parts[1:], path)
	cmd := exec.CommandContext(ctx, parts[0], args...) // #nosec G204 -- editor command is user-configured
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s: %v", engine.ErrEditorFailed, parts[0], err)
	}

	// #nosec G304 -- path is the temp file created above
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", engine.ErrEditorFailed, err)
	}
	return string(data), nil
}
