package screen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ArgsFunc builds the program and arguments that write a PNG to out.
type ArgsFunc func(out string) (prog string, args []string)

// CommandStrategy runs a native utility that writes the capture to a temp
// file, then reads it back. The temp file is removed whether or not the read
// succeeds.
type CommandStrategy struct {
	name    string
	tempDir string
	args    ArgsFunc
}

// NewCommandStrategy creates a temp-file command strategy.
func NewCommandStrategy(name, tempDir string, args ArgsFunc) *CommandStrategy {
	return &CommandStrategy{name: name, tempDir: tempDir, args: args}
}

func (c *CommandStrategy) Name() string { return c.name }

func (c *CommandStrategy) Capture(ctx context.Context) ([]byte, error) {
	out := tempPath(c.tempDir)
	defer removeTemp(out)

	prog, args := c.args(out)
	if _, err := exec.LookPath(prog); err != nil {
		return nil, fmt.Errorf("%s not available: %w", prog, err)
	}

	cmd := exec.CommandContext(ctx, prog, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", prog, err, strings.TrimSpace(stderr.String()))
	}
	return readTemp(out)
}

func tempPath(dir string) string {
	return filepath.Join(dir, "temp-"+uuid.NewString()+".png")
}

func readTemp(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("capture file not written: %s", filepath.Base(path))
	}
	if err != nil {
		return nil, fmt.Errorf("read capture file: %w", err)
	}
	return data, nil
}

func removeTemp(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to delete temp capture", "path", path, "error", err)
	}
}
