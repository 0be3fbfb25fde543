//go:build !windows

package output

import "os"

// enableANSI reports color support for a Unix terminal, which always
// understands ANSI escape sequences
func enableANSI(_ *os.File) bool {
	return true
}
