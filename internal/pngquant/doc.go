// Package pngquant builds and executes pngquant commands that quantize a PNG
// streamed on stdin and write the result to stdout.
//
// The command shape is fixed apart from the palette size and the binary:
//
//	pngquant --skip-if-larger --force --nofs <colors> -
//
// Exit statuses 98 (result would be larger) and 99 (quality too low) are
// clean "nothing written" outcomes and map to [ErrNotSmaller] and
// [ErrQualityTooLow]; any other failure is a stream fault for the caller.
package pngquant
