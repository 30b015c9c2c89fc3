//go:build windows

package main

import (
	"golang.org/x/sys/windows"
)

// Switch the console to UTF-8 and enable ANSI escape processing so the
// banner renders on Windows 10+ terminals. Redirected output is unaffected.
func init() {
	const cpUTF8 = 65001
	_ = windows.SetConsoleOutputCP(cpUTF8)
	_ = windows.SetConsoleCP(cpUTF8)

	if h, err := windows.GetStdHandle(windows.STD_ERROR_HANDLE); err == nil {
		var mode uint32
		if windows.GetConsoleMode(h, &mode) == nil {
			_ = windows.SetConsoleMode(h, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING)
		}
	}
}
