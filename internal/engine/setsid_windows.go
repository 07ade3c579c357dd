//go:build windows

package engine

import "syscall"

// sessionAttr returns an empty SysProcAttr; Windows has no Setsid.
func sessionAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{}
}
