package config

import (
	"strings"
	"unicode"
)

const badFileName = "_bad_file_name_"

// CleanFileName turns book title or expanded output template segment into a
// single path element. Path separators, characters reserved by the platform
// and control characters are dropped, leading dots are removed so results
// are never hidden.
func CleanFileName(in string) string {
	out := strings.Map(func(sym rune) rune {
		if unicode.IsControl(sym) || strings.ContainsRune(reservedChars, sym) {
			return -1
		}
		return sym
	}, in)
	out = platformName(strings.TrimLeft(out, "."))
	if len(out) == 0 {
		return badFileName
	}
	return out
}
