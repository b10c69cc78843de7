//go:build !darwin && !linux && !windows
// +build !darwin,!linux,!windows

package logger

import "os"

func GetTerminalInfo(*os.File) TerminalInfo {
	return TerminalInfo{}
}
