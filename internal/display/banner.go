package display

import (
	"fmt"
	"io"

	"github.com/backmassage/supermin/internal/term"
)

// PrintBanner writes the ASCII art banner to w; uses Magenta if colors are
// enabled.
func PrintBanner(w io.Writer) {
	if term.Magenta != "" {
		fmt.Fprint(w, term.Magenta)
	}
	fmt.Fprint(w, `                            _
 ___ _   _ _ __   ___ _ __ _ __ ___ (_)_ __
/ __| | | | '_ \ / _ \ '__| '_ `+"`"+` _ \| | '_ \
\__ \ |_| | |_) |  __/ |  | | | | | | | | | |
|___/\__,_| .__/ \___|_|  |_| |_| |_|_|_| |_|
          |_|
`)
	if term.Magenta != "" {
		fmt.Fprintln(w, term.NC)
	}
}
