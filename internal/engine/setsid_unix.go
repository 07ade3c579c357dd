//go:build !windows

package engine

import "syscall"

// sessionAttr puts the engine in its own session, detached from the
// controlling terminal.
func sessionAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
