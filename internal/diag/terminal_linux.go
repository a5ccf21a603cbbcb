//go:build linux

package diag

import (
	"os"

	"golang.org/x/sys/unix"
)

// isTerminal: TCGETS 成功即为终端。
func isTerminal(f *os.File) bool {
	_, err := unix.IoctlGetTermios(int(f.Fd()), unix.TCGETS)
	return err == nil
}
