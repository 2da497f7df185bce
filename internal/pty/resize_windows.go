//go:build windows

package pty

import "os"

func watchResize(tty, ptmx *os.File) func() {
	return func() {}
}
