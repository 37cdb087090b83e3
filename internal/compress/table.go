package compress

import "github.com/backmassage/supermin/internal/config"

// Options configures [DefaultTable].
type Options struct {
	Quantizer    Quantizer
	AtomicImages bool
	Precompress  []config.Algorithm
}

// DefaultTable builds the standard extension table. Text outputs get
// sidecars when opts.Precompress is non-empty.
func DefaultTable(opts Options) *Table {
	m := NewMinifier()
	side := func(h Handler) Handler { return WithSidecars(h, opts.Precompress) }

	t := NewTable(Copier{})
	t.Register(side(NewTextMinifier("script", MediaJS, m)), ".js")
	t.Register(side(NewTextMinifier("style", MediaCSS, m)), ".css")
	t.Register(side(NewTextMinifier("vector", MediaSVG, m)), ".svg")
	t.Register(side(NewMarkupMinifier(m)), ".html")
	t.Register(side(NewDataCanonicalizer(m)), ".json")
	t.Register(AudioStripper{}, ".mp3", ".ogg")
	t.Register(NewImageQuantizer(opts.Quantizer, opts.AtomicImages), ".png")
	return t
}
