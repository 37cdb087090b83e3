package pngquant

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Exit statuses pngquant uses for "declined to write".
const (
	exitNotSmaller     = 98
	exitQualityTooLow  = 99
	maxStderrInMessage = 200
)

// Sentinel reasons carried by [Error].
var (
	ErrNotSmaller    = errors.New("quantized image would not be smaller")
	ErrQualityTooLow = errors.New("quantized image quality too low")
	ErrCorruptInput  = errors.New("input is not a readable PNG")
	ErrFailed        = errors.New("pngquant failed")
)

// Pre-compiled regexes for classifying pngquant stderr. Checked in order;
// the first match wins.
var (
	reCorruptInput = regexp.MustCompile(
		`(?i)not a PNG file|PNG read error|libpng error|CRC error|` +
			`incorrect header check|file is not a PNG|read error`)
)

// Error describes a non-zero pngquant exit.
type Error struct {
	Code   int
	Stderr string
	Reason error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("pngquant exited with status %d: %v", e.Code, e.Reason)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		if len(s) > maxStderrInMessage {
			s = s[:maxStderrInMessage] + "…"
		}
		msg += ": " + s
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Reason }

// classifyExit maps an exit status and captured stderr to an Error.
func classifyExit(code int, stderr string) *Error {
	e := &Error{Code: code, Stderr: stderr}
	switch {
	case code == exitNotSmaller:
		e.Reason = ErrNotSmaller
	case code == exitQualityTooLow:
		e.Reason = ErrQualityTooLow
	case reCorruptInput.MatchString(stderr):
		e.Reason = ErrCorruptInput
	default:
		e.Reason = ErrFailed
	}
	return e
}

// Declined reports whether err is a clean "nothing written" outcome rather
// than a fault.
func Declined(err error) bool {
	return errors.Is(err, ErrNotSmaller) || errors.Is(err, ErrQualityTooLow)
}
