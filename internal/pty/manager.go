package pty

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
	"golang.org/x/term"

	"github.com/pleimann/camel-touch/internal/action"
	"github.com/pleimann/camel-touch/internal/utils"
)

// Manager manages a PTY and the TUI process running in it
type Manager struct {
	command    string
	args       []string
	workingDir string

	stdin  *os.File  // Forwarded to the TUI when set
	stdout io.Writer // Receives the TUI's output when set

	mu         sync.Mutex
	ptmx       *os.File
	cmd        *exec.Cmd
	rawState   *term.State
	stopResize func()

	done    chan struct{}
	waitErr error

	recent *RingBuffer
}

// NewManager creates a new PTY manager
func NewManager(command string, args []string, workingDir string) (*Manager, error) {
	if command == "" {
		return nil, fmt.Errorf("command is required")
	}

	return &Manager{
		command:    command,
		args:       args,
		workingDir: workingDir,
		recent:     NewRingBuffer(4096),
	}, nil
}

// Attach connects the user's terminal to the TUI. It must be called before
// Start. When stdin is a terminal it is put in raw mode while the TUI runs.
func (m *Manager) Attach(stdin *os.File, stdout io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stdin = stdin
	m.stdout = stdout
}

// Start starts the TUI process in a PTY
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cmd != nil {
		return fmt.Errorf("PTY already started")
	}

	cmd := exec.CommandContext(ctx, m.command, m.args...)
	if m.workingDir != "" {
		cmd.Dir = m.workingDir
	}
	cmd.Env = os.Environ()

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("failed to start PTY: %w", err)
	}

	m.ptmx = ptmx
	m.cmd = cmd
	m.done = make(chan struct{})

	if m.stdin != nil && term.IsTerminal(int(m.stdin.Fd())) {
		m.stopResize = watchResize(m.stdin, ptmx)

		state, err := term.MakeRaw(int(m.stdin.Fd()))
		if err != nil {
			utils.Warn("failed to set raw mode: %v", err)
		} else {
			m.rawState = state
		}
	}
	if m.stdin != nil {
		go m.forwardInput(m.stdin, ptmx)
	}

	go m.readOutput(ptmx)

	go func() {
		err := cmd.Wait()
		m.mu.Lock()
		m.waitErr = err
		m.mu.Unlock()
		close(m.done)
		utils.Verbose("TUI process exited: %v", err)
	}()

	utils.Verbose("started %s %v in PTY", m.command, m.args)
	return nil
}

// Stop stops the TUI process, restores the terminal and closes the PTY
func (m *Manager) Stop() {
	m.mu.Lock()
	cmd, done := m.cmd, m.done
	m.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		select {
		case <-done:
		default:
			cmd.Process.Signal(os.Interrupt)
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				cmd.Process.Kill()
				<-done
			}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopResize != nil {
		m.stopResize()
		m.stopResize = nil
	}
	if m.rawState != nil {
		term.Restore(int(m.stdin.Fd()), m.rawState)
		m.rawState = nil
	}
	if m.ptmx != nil {
		m.ptmx.Close()
		m.ptmx = nil
	}
}

// Done is closed when the TUI process exits. It is nil before Start.
func (m *Manager) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// Err returns the process exit error once Done is closed
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waitErr
}

func (m *Manager) forwardInput(in io.Reader, ptmx *os.File) {
	if _, err := io.Copy(ptmx, in); err != nil && !errors.Is(err, os.ErrClosed) {
		utils.Verbose("stdin forwarding stopped: %v", err)
	}
}

// readOutput copies PTY output to the recent buffer and the attached stdout
func (m *Manager) readOutput(ptmx *os.File) {
	m.mu.Lock()
	var w io.Writer = m.recent
	if m.stdout != nil {
		w = io.MultiWriter(m.recent, m.stdout)
	}
	m.mu.Unlock()

	// Reads fail with EIO once the child side closes
	io.Copy(w, ptmx)
}

// WriteKey writes a key press to the PTY
func (m *Manager) WriteKey(key action.KeyPress) error {
	data := key.ToBytes()
	if len(data) == 0 {
		return fmt.Errorf("could not convert key %s to bytes", key)
	}
	return m.write(data)
}

func (m *Manager) write(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ptmx == nil {
		return fmt.Errorf("PTY not started")
	}
	_, err := m.ptmx.Write(data)
	return err
}

// RecentOutput returns the last few KB of TUI output
func (m *Manager) RecentOutput() string {
	return m.recent.String()
}

// IsRunning returns whether the TUI process is running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()

	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}
