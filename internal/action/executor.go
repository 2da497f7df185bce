package action

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pleimann/camel-touch/internal/utils"
)

// KeyWriter is the interface for writing key sequences
type KeyWriter interface {
	WriteKey(key KeyPress) error
}

// ErrNoKeyWriter is returned when an action has keys but nothing receives them
var ErrNoKeyWriter = errors.New("no TUI is running to receive keys")

// Executor executes actions
type Executor struct {
	writer KeyWriter
	shell  string
}

// NewExecutor creates a new action executor. writer may be nil when no TUI
// is wrapped; actions with keys then fail.
func NewExecutor(writer KeyWriter) *Executor {
	return &Executor{writer: writer, shell: "sh"}
}

// Execute writes the action's keys in order, then runs its command
func (e *Executor) Execute(ctx context.Context, a Action) error {
	if err := e.writeKeys(a.Keys); err != nil {
		return err
	}
	if a.Command != "" {
		return e.run(ctx, a.Command)
	}
	return nil
}

func (e *Executor) writeKeys(keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if e.writer == nil {
		return ErrNoKeyWriter
	}

	// Parse everything first so a typo does not leave a half-typed sequence
	presses := make([]KeyPress, 0, len(keys))
	for _, keyStr := range keys {
		key, err := ParseKey(keyStr)
		if err != nil {
			return fmt.Errorf("invalid key %q: %w", keyStr, err)
		}
		presses = append(presses, key)
	}

	for i, key := range presses {
		if err := e.writer.WriteKey(key); err != nil {
			return fmt.Errorf("failed to write key %q: %w", keys[i], err)
		}
	}
	return nil
}

func (e *Executor) run(ctx context.Context, command string) error {
	cmd := exec.CommandContext(ctx, e.shell, "-c", command)
	out, err := cmd.CombinedOutput()
	if s := strings.TrimSpace(string(out)); s != "" {
		utils.Verbose("command %q: %s", command, s)
	}
	if err != nil {
		return fmt.Errorf("command %q failed: %w", command, err)
	}
	return nil
}
