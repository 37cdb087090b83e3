package compress

import (
	"bytes"
	"context"
	stdjson "encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tdewolff/minify/v2"

	"github.com/backmassage/supermin/internal/config"
	"github.com/backmassage/supermin/internal/precompress"
)

// newTask writes content to in/name and returns a task mirrored into out.
func newTask(t *testing.T, name string, content []byte) Task {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "in", name)
	out := filepath.Join(dir, "out", name)
	for _, p := range []string{in, out} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(in, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return NewTask(in, out)
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// --- Table ---

func TestDefaultTable_Routing(t *testing.T) {
	table := DefaultTable(Options{})
	tests := []struct {
		ext  string
		want string
	}{
		{".js", "script"},
		{".JS", "script"},
		{".css", "style"},
		{".svg", "vector"},
		{".html", "markup"},
		{".json", "data"},
		{".mp3", "audio"},
		{".OGG", "audio"},
		{".png", "image"},
		{".jpg", "copy"},
		{".htm", "copy"},
		{"", "copy"},
	}
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := table.Lookup(tt.ext).Name(); got != tt.want {
				t.Errorf("Lookup(%q) = %s, want %s", tt.ext, got, tt.want)
			}
		})
	}
}

func TestStreamsOutput(t *testing.T) {
	table := DefaultTable(Options{})
	if !StreamsOutput(table.Lookup(".png")) {
		t.Error("image handler should stream its output")
	}
	if StreamsOutput(table.Lookup(".js")) {
		t.Error("script handler should not stream its output")
	}
}

func TestNewTask_Ext(t *testing.T) {
	task := NewTask("/a/Hero.PNG", "/b/Hero.PNG")
	if task.Ext != ".png" {
		t.Errorf("Ext = %q", task.Ext)
	}
}

// --- Text minifiers ---

func TestTextMinifier_Script(t *testing.T) {
	src := []byte("// comment\nfunction add(first, second) {\n    return first + second;\n}\n")
	task := newTask(t, "app.js", src)
	h := NewTextMinifier("script", MediaJS, NewMinifier())

	res, err := h.Compress(context.Background(), task)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if res.Status != Compressed || res.Tag != TagOK {
		t.Errorf("result = %+v", res)
	}
	out := readFile(t, task.OutputPath)
	if len(out) >= len(src) {
		t.Errorf("minified %d bytes into %d", len(src), len(out))
	}
	if bytes.Contains(out, []byte("comment")) {
		t.Errorf("comment survived: %q", out)
	}
}

func TestTextMinifier_InvalidScriptCopiesVerbatim(t *testing.T) {
	src := []byte("function broken( {\n  return ;;; }}}\n")
	task := newTask(t, "broken.js", src)
	h := NewTextMinifier("script", MediaJS, NewMinifier())

	res, err := h.Compress(context.Background(), task)
	if err != nil {
		t.Fatalf("Compress should recover, got %v", err)
	}
	if res.Tag != TagSkipError || res.Status != Copied {
		t.Errorf("result = %+v", res)
	}
	if !errors.Is(res.Fault, ErrMinify) {
		t.Errorf("Fault = %v, want ErrMinify", res.Fault)
	}
	if got := readFile(t, task.OutputPath); !bytes.Equal(got, src) {
		t.Errorf("output = %q, want verbatim source", got)
	}
}

func TestTextMinifier_StyleFailureCopiesVerbatim(t *testing.T) {
	m := minify.New()
	m.AddFunc(MediaCSS, func(*minify.M, io.Writer, io.Reader, map[string]string) error {
		return errors.New("unexpected token")
	})
	src := []byte("body { color: red }")
	task := newTask(t, "site.css", src)

	res, err := NewTextMinifier("style", MediaCSS, m).Compress(context.Background(), task)
	if err != nil {
		t.Fatal(err)
	}
	if res.Tag != TagSkipError {
		t.Errorf("Tag = %q", res.Tag)
	}
	if got := readFile(t, task.OutputPath); !bytes.Equal(got, src) {
		t.Errorf("output = %q", got)
	}
}

func TestTextMinifier_MalformedStyleCopiesVerbatim(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unclosed block", "a { color: red"},
		{"stray braces", "}}} body {{ color : : red ;"},
		{"unclosed function", "p { width: calc(1px + ; }"},
		{"unclosed media block", "@media screen { a { color: red; }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := newTask(t, "broken.css", []byte(tt.src))
			res, err := NewTextMinifier("style", MediaCSS, NewMinifier()).Compress(context.Background(), task)
			if err != nil {
				t.Fatal(err)
			}
			if res.Status != Copied || res.Tag != TagSkipError {
				t.Errorf("result = %+v, want copied with %s", res, TagSkipError)
			}
			if !errors.Is(res.Fault, ErrMinify) {
				t.Errorf("Fault = %v, want ErrMinify", res.Fault)
			}
			if got := readFile(t, task.OutputPath); string(got) != tt.src {
				t.Errorf("output = %q, want verbatim %q", got, tt.src)
			}
		})
	}
}

func TestCheckStylesheet_Valid(t *testing.T) {
	for _, src := range []string{
		"",
		"/* banner */\nbody { margin: 0 }",
		"a{color:red}b{color:blue;}",
		"@import url(\"base.css\");\n:root { --gap: 4px }",
		"@media (max-width: 600px) { a { color: red } }",
		"@font-face { font-family: pixel; src: url(pixel.ttf) }",
		"p { width: calc(100% - 2px) }",
	} {
		if err := checkStylesheet([]byte(src)); err != nil {
			t.Errorf("checkStylesheet(%q) = %v", src, err)
		}
	}
}

func TestTextMinifier_Style(t *testing.T) {
	task := newTask(t, "site.css", []byte("body {\n    color : #ff0000 ;\n    margin: 0px;\n}\n"))
	res, err := NewTextMinifier("style", MediaCSS, NewMinifier()).Compress(context.Background(), task)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != Compressed {
		t.Errorf("Status = %v", res.Status)
	}
	got := readFile(t, task.OutputPath)
	if bytes.ContainsAny(got, " \n") || !bytes.Contains(got, []byte("margin:0")) {
		t.Errorf("output = %q", got)
	}
}

func TestTextMinifier_MissingSource(t *testing.T) {
	task := NewTask(filepath.Join(t.TempDir(), "gone.js"), filepath.Join(t.TempDir(), "gone.js"))
	_, err := NewTextMinifier("script", MediaJS, NewMinifier()).Compress(context.Background(), task)
	if !errors.Is(err, ErrFilesystem) {
		t.Errorf("err = %v, want ErrFilesystem", err)
	}
}

// --- Markup ---

func TestMarkupMinifier(t *testing.T) {
	src := []byte(`<!DOCTYPE html>
<html>
  <head>
    <!-- dropped -->
    <style> body { color : red ; } </style>
  </head>
  <body>
    <p>  Hello   &eacute;  </p>
    <script> var answer = 40 + 2 ; </script>
  </body>
</html>
`)
	task := newTask(t, "index.html", src)
	res, err := NewMarkupMinifier(NewMinifier()).Compress(context.Background(), task)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != Compressed {
		t.Errorf("Status = %v", res.Status)
	}
	out := readFile(t, task.OutputPath)
	if len(out) >= len(src) {
		t.Errorf("markup not reduced: %d → %d", len(src), len(out))
	}
	for _, gone := range []string{"dropped", "color : red", "40 + 2"} {
		if bytes.Contains(out, []byte(gone)) {
			t.Errorf("output still contains %q: %s", gone, out)
		}
	}
}

func TestMarkupMinifier_ErrorAborts(t *testing.T) {
	m := minify.New()
	m.AddFunc(MediaHTML, func(*minify.M, io.Writer, io.Reader, map[string]string) error {
		return errors.New("bad markup")
	})
	task := newTask(t, "index.html", []byte("<p>"))
	_, err := NewMarkupMinifier(m).Compress(context.Background(), task)
	if !errors.Is(err, ErrMarkup) {
		t.Errorf("err = %v, want ErrMarkup", err)
	}
}

// --- Data ---

func TestDataCanonicalizer(t *testing.T) {
	src := []byte("{\n  \"zeta\": 1.50,\n  \"alpha\": [ 1, 2, { \"k\": \"v w\" } ],\n  \"big\": 1e3\n}\n")
	task := newTask(t, "level.json", src)
	res, err := NewDataCanonicalizer(NewMinifier()).Compress(context.Background(), task)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != Compressed {
		t.Errorf("Status = %v", res.Status)
	}
	out := readFile(t, task.OutputPath)
	if bytes.ContainsAny(out, "\n\t") {
		t.Errorf("whitespace left in %q", out)
	}
	if bytes.Index(out, []byte("zeta")) > bytes.Index(out, []byte("alpha")) {
		t.Errorf("key order changed: %s", out)
	}

	var want, got any
	if err := stdjson.Unmarshal(src, &want); err != nil {
		t.Fatal(err)
	}
	if err := stdjson.Unmarshal(out, &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Errorf("content changed: %v → %v", want, got)
	}
}

func TestDataCanonicalizer_MalformedAborts(t *testing.T) {
	for _, src := range []string{`{"a": }`, `{"a": 1,}`, `[1, 2`, ``} {
		t.Run(src, func(t *testing.T) {
			task := newTask(t, "bad.json", []byte(src))
			_, err := NewDataCanonicalizer(NewMinifier()).Compress(context.Background(), task)
			if !errors.Is(err, ErrParse) {
				t.Errorf("err = %v, want ErrParse", err)
			}
			var fault *Fault
			if !errors.As(err, &fault) || fault.Path != task.InputPath {
				t.Errorf("fault path = %+v", fault)
			}
		})
	}
}

// --- Audio / copy ---

func TestAudioStripper(t *testing.T) {
	task := newTask(t, "theme.mp3", bytes.Repeat([]byte{0xff}, 4096))
	if err := os.WriteFile(task.OutputPath, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := AudioStripper{}.Compress(context.Background(), task)
	if err != nil {
		t.Fatal(err)
	}
	if res.Tag != TagOK {
		t.Errorf("Tag = %q", res.Tag)
	}
	fi, err := os.Stat(task.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() != 0 {
		t.Errorf("placeholder size = %d, want 0", fi.Size())
	}
}

func TestCopier(t *testing.T) {
	src := []byte("opaque bytes \x00\x01")
	task := newTask(t, "atlas.bin", src)
	res, err := Copier{}.Compress(context.Background(), task)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != Copied || res.Tag != TagCopy || res.Bytes != int64(len(src)) {
		t.Errorf("result = %+v", res)
	}
	if got := readFile(t, task.OutputPath); !bytes.Equal(got, src) {
		t.Errorf("output = %q", got)
	}
}

// --- Sidecars ---

func TestWithSidecars(t *testing.T) {
	task := newTask(t, "app.js", []byte("var a = 1 ;\nvar b = 2 ;\n"))
	algos := []config.Algorithm{config.AlgorithmGzip, config.AlgorithmBrotli}
	h := WithSidecars(NewTextMinifier("script", MediaJS, NewMinifier()), algos)

	if _, err := h.Compress(context.Background(), task); err != nil {
		t.Fatal(err)
	}
	for _, algo := range algos {
		if _, err := os.Stat(precompress.SidecarPath(task.OutputPath, algo)); err != nil {
			t.Errorf("%s sidecar missing: %v", algo, err)
		}
	}
	if h.Name() != "script" {
		t.Errorf("Name = %q", h.Name())
	}
}

func TestWithSidecars_NoAlgorithms(t *testing.T) {
	h := Copier{}
	if WithSidecars(h, nil) != Handler(h) {
		t.Error("expected handler unchanged")
	}
}
