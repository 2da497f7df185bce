//go:build !windows

package pty

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/creack/pty"

	"github.com/pleimann/camel-touch/internal/utils"
)

// watchResize copies the terminal size to the PTY now and on every SIGWINCH
func watchResize(tty, ptmx *os.File) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGWINCH)
	ch <- syscall.SIGWINCH

	go func() {
		for range ch {
			if err := pty.InheritSize(tty, ptmx); err != nil {
				utils.Verbose("failed to resize PTY: %v", err)
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(ch)
	}
}
