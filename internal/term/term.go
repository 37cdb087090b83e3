// Package term holds the color state shared by supermin's console output:
// the log level labels, the startup banner and the --analyze flags.
//
// The color variables are empty strings until [Configure] enables them, so
// callers can concatenate them unconditionally; [Paint] does the same for a
// single span of text.
package term

import (
	"os"
	"strings"

	xterm "golang.org/x/term"

	"github.com/backmassage/supermin/internal/config"
)

// ANSI color codes. Empty when colors are disabled.
var (
	Red     = ""
	Green   = ""
	Yellow  = ""
	Blue    = ""
	Cyan    = ""
	Magenta = ""
	NC      = "" // Reset sequence.
)

// palette lists every color variable with its bright ANSI sequence.
var palette = []struct {
	v   *string
	seq string
}{
	{&Red, "\033[1;91m"},
	{&Green, "\033[1;92m"},
	{&Yellow, "\033[1;93m"},
	{&Blue, "\033[1;94m"},
	{&Cyan, "\033[1;96m"},
	{&Magenta, "\033[1;95m"},
	{&NC, "\033[0m"},
}

// Configure resolves mode against the environment and sets the color
// variables. [logging.NewLogger] calls it once at startup.
func Configure(mode config.ColorMode) {
	on := resolve(mode)
	for _, c := range palette {
		*c.v = ""
		if on {
			*c.v = c.seq
		}
	}
}

// Enabled reports whether ANSI colors are currently active.
func Enabled() bool { return NC != "" }

// Paint wraps s in color and a reset. With colors off, or an empty color,
// s comes back unchanged.
func Paint(color, s string) string {
	if color == "" || NC == "" {
		return s
	}
	return color + s + NC
}

// resolve: always and never are final; auto needs a TTY on stdout, no
// NO_COLOR (https://no-color.org) and a TERM other than "dumb".
func resolve(mode config.ColorMode) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return IsTerminal(os.Stdout) &&
			os.Getenv("NO_COLOR") == "" &&
			strings.ToLower(os.Getenv("TERM")) != "dumb"
	}
}

// IsTerminal reports whether f is attached to a TTY.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return xterm.IsTerminal(int(f.Fd()))
}
