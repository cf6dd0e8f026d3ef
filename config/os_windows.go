//go:build windows

package config

import (
	"os"
	"strings"

	"golang.org/x/sys/windows"
	"golang.org/x/term"
)

const reservedChars = `<>":/\|?*` + string(os.PathListSeparator)

// device names which could not be used as file names regardless of extension
var deviceNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true, "COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true, "LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// platformName drops trailing dots and spaces which Windows strips silently
// and escapes device names.
func platformName(name string) string {
	name = strings.TrimRight(name, ". ")
	base, _, _ := strings.Cut(name, ".")
	if deviceNames[strings.ToUpper(base)] {
		return "_" + name
	}
	return name
}

// EnableColorOutput turns on VT100 sequence processing for console stream.
// Consoles before Windows 10 do not support it.
func EnableColorOutput(stream *os.File) bool {
	if windows.RtlGetVersion().MajorVersion < 10 || !term.IsTerminal(int(stream.Fd())) {
		return false
	}
	h := windows.Handle(stream.Fd())
	var mode uint32
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		return false
	}
	return windows.SetConsoleMode(h, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING) == nil
}
