//go:build !windows

package lockfile

import (
	"os"
	"syscall"
)

// processAlive probes pid with signal 0, which delivers nothing but
// reports whether the process exists.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
