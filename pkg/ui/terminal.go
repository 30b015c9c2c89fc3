package ui

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/term"
)

var (
	unicodeOnce sync.Once
	unicodeOK   bool
)

// UnicodeTerminal reports whether stderr can render Unicode glyphs. It is
// false when stderr is not a terminal, when TERM is "dumb", and on Windows
// consoles other than Windows Terminal.
func UnicodeTerminal() bool {
	unicodeOnce.Do(func() {
		if os.Getenv("TERM") == "dumb" {
			return
		}
		if !term.IsTerminal(int(os.Stderr.Fd())) {
			return
		}
		if runtime.GOOS == "windows" {
			// Windows Terminal sets WT_SESSION; legacy conhost does not.
			unicodeOK = os.Getenv("WT_SESSION") != ""
			return
		}
		unicodeOK = true
	})
	return unicodeOK
}

// Icon returns unicode when the terminal supports it, ascii otherwise:
// ui.Icon("✔", "[+]")
func Icon(unicode, ascii string) string {
	if UnicodeTerminal() {
		return unicode
	}
	return ascii
}

// SanitizeString strips symbols the terminal cannot render. Latin text
// is kept. On Unicode terminals s is returned unchanged.
func SanitizeString(s string) string {
	if UnicodeTerminal() {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r < 0x80:
			b.WriteByte(s[i])
		case isVariationSelector(r):
		case isSafeForLegacy(r):
			b.WriteRune(r)
		}
		i += size
	}
	return b.String()
}

// Fprintf writes to w and sanitizes the result for the current terminal.
func Fprintf(w io.Writer, format string, args ...any) {
	fmt.Fprint(w, SanitizeString(fmt.Sprintf(format, args...)))
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// isVariationSelector matches U+FE00 to U+FE0F.
func isVariationSelector(r rune) bool {
	return r >= 0xFE00 && r <= 0xFE0F
}

// isSafeForLegacy returns true for Latin-1 and other Latin script runes,
// which legacy Windows console fonts render.
func isSafeForLegacy(r rune) bool {
	return r <= 0xFF || unicode.Is(unicode.Latin, r)
}
