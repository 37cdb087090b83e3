package compress

import (
	"context"
	"os"
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/json"
	"github.com/tdewolff/minify/v2/svg"
)

// Media types passed to the minifier registry.
const (
	MediaJS   = "application/javascript"
	MediaCSS  = "text/css"
	MediaHTML = "text/html"
	MediaJSON = "application/json"
	MediaSVG  = "image/svg+xml"
)

// NewMinifier returns a registry with every transform supermin uses. The
// markup minifier resolves embedded <style> and <script> blocks through the
// same registry.
func NewMinifier() *minify.M {
	m := minify.New()
	m.AddFunc(MediaCSS, css.Minify)
	m.AddFuncRegexp(regexp.MustCompile(`^(application|text)/(x-)?(java|ecma)script$`), js.Minify)
	m.AddFuncRegexp(regexp.MustCompile(`[/+]json$`), json.Minify)
	m.AddFunc(MediaSVG, svg.Minify)
	m.Add(MediaHTML, &html.Minifier{
		KeepDocumentTags:    true,
		KeepEndTags:         true,
		KeepDefaultAttrVals: true,
	})
	return m
}

// TextMinifier handles scripts, stylesheets and vector graphics. When the
// transform fails the source is copied verbatim and the fault is reported
// through the Result.
type TextMinifier struct {
	name      string
	mediaType string
	m         *minify.M
}

// NewTextMinifier creates a handler that minifies mediaType through m.
func NewTextMinifier(name, mediaType string, m *minify.M) *TextMinifier {
	return &TextMinifier{name: name, mediaType: mediaType, m: m}
}

func (h *TextMinifier) Name() string { return h.name }

func (h *TextMinifier) Compress(_ context.Context, task Task) (Result, error) {
	src, err := os.ReadFile(task.InputPath)
	if err != nil {
		return Result{Status: Failed}, newFault(ErrFilesystem, task.InputPath, err)
	}

	var out []byte
	merr := h.checkSyntax(src)
	if merr == nil {
		out, merr = h.m.Bytes(h.mediaType, src)
	}
	if merr != nil {
		n, err := copyFile(task.InputPath, task.OutputPath)
		if err != nil {
			return Result{Status: Failed}, newFault(ErrFilesystem, task.OutputPath, err)
		}
		return Result{
			Status: Copied,
			Bytes:  n,
			Fault:  newFault(ErrMinify, task.InputPath, merr),
			Tag:    TagSkipError,
		}, nil
	}

	n, err := writeFile(task.OutputPath, out)
	if err != nil {
		return Result{Status: Failed}, newFault(ErrFilesystem, task.OutputPath, err)
	}
	return Result{Status: Compressed, Bytes: n, Tag: TagOK}, nil
}

func (h *TextMinifier) checkSyntax(src []byte) error {
	if check, ok := syntaxCheckers[h.mediaType]; ok {
		return check(src)
	}
	return nil
}

// MarkupMinifier handles HTML documents. It has no fallback: a transform
// error is returned as an ErrMarkup fault.
type MarkupMinifier struct {
	m *minify.M
}

// NewMarkupMinifier creates the HTML handler.
func NewMarkupMinifier(m *minify.M) *MarkupMinifier {
	return &MarkupMinifier{m: m}
}

func (h *MarkupMinifier) Name() string { return "markup" }

func (h *MarkupMinifier) Compress(_ context.Context, task Task) (Result, error) {
	src, err := os.ReadFile(task.InputPath)
	if err != nil {
		return Result{Status: Failed}, newFault(ErrFilesystem, task.InputPath, err)
	}
	out, err := h.m.Bytes(MediaHTML, src)
	if err != nil {
		return Result{Status: Failed}, newFault(ErrMarkup, task.InputPath, err)
	}
	n, err := writeFile(task.OutputPath, out)
	if err != nil {
		return Result{Status: Failed}, newFault(ErrFilesystem, task.OutputPath, err)
	}
	return Result{Status: Compressed, Bytes: n, Tag: TagOK}, nil
}
