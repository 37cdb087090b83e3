// Package compress holds the per-file-type compressors and the
// extension-keyed table the pipeline dispatches through.
//
// Handlers:
//
//	.js .css .svg  → tdewolff minifier, verbatim copy when minification fails
//	.html          → markup minifier, errors abort the run
//	.json          → data canonicalizer, malformed input aborts the run
//	.mp3 .ogg      → zero-byte placeholder
//	.png           → pngquant streaming filter with a size-safety fallback
//	anything else  → pass-through copy
//
// Every handler returns a [Result] for recovered outcomes and an error only
// for faults the run must not survive.
package compress
