//go:build !linux

package diag

import "os"

// isTerminal: 字符设备近似判定。
func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
