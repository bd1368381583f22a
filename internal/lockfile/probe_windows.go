//go:build windows

package lockfile

import "os"

// processAlive has no cheap probe on Windows; FindProcess succeeding
// is the best available signal, so staleness falls back to the age
// bound.
func processAlive(pid int) bool {
	_, err := os.FindProcess(pid)
	return err == nil
}
