package compress

import (
	"errors"
	"io"

	"github.com/tdewolff/parse/v2"
	cssparse "github.com/tdewolff/parse/v2/css"
)

var (
	errUnclosedBlock = errors.New("unexpected end of stylesheet inside a block")
	errStylesheet    = errors.New("unreadable token in stylesheet")
)

// syntaxCheckers run before the minifier for media types whose minifier
// repairs broken input instead of rejecting it.
var syntaxCheckers = map[string]func([]byte) error{
	MediaCSS: checkStylesheet,
}

// checkStylesheet walks src with the CSS grammar parser and reports the
// first parse error. A ruleset or at-rule block still open at end of input
// is an error too: the parser closes it silently.
func checkStylesheet(src []byte) error {
	p := cssparse.NewParser(parse.NewInputBytes(src), false)
	for {
		gt, tt, _ := p.Next()
		switch gt {
		case cssparse.ErrorGrammar:
			if p.HasParseError() {
				return p.Err()
			}
			switch err := p.Err(); err {
			case io.EOF:
				return nil
			case nil:
				return errStylesheet
			default:
				return err
			}
		case cssparse.EndRulesetGrammar, cssparse.EndAtRuleGrammar:
			if tt == cssparse.ErrorToken {
				return errUnclosedBlock
			}
		}
	}
}
