// Package pipeline orchestrates file discovery, per-file compression, and
// batch summary reporting.
//
// Run discovers every regular file under the input root, checks that the
// image quantizer is available when a PNG is present, and then processes
// the files strictly one after another: each file's handler returns before
// the next file starts. Origin sizes are summed before the first task and
// compressed sizes after the last; the summary reports both in megabytes.
//
// Watch keeps a Runner alive after the initial pass and feeds changed files
// through the same sequential loop. Analyze reports the input tree by
// handler without writing anything.
package pipeline
