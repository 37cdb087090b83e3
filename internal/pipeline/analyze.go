package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/backmassage/supermin/internal/config"
	"github.com/backmassage/supermin/internal/display"
	"github.com/backmassage/supermin/internal/logging"
	"github.com/backmassage/supermin/internal/term"
)

// asset is one discovered file as seen by the analysis report.
type asset struct {
	Rel     string
	Ext     string
	Handler string
	Size    int64
}

// handlerRow aggregates the assets routed to one handler.
type handlerRow struct {
	Handler string
	Exts    []string
	Files   int
	Bytes   int64
}

// Analyze discovers the input tree and prints, per handler, how many files
// and bytes it would process, followed by files whose size is a statistical
// outlier for their handler. Nothing is written to the output directory.
func Analyze(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	r, err := NewRunner(cfg, log)
	if err != nil {
		return err
	}
	return r.Analyze(ctx, os.Stdout)
}

// Analyze writes the report tables to w.
func (r *Runner) Analyze(ctx context.Context, w io.Writer) error {
	files, err := r.discover()
	if err != nil {
		return fmt.Errorf("file discovery failed: %w", err)
	}
	if len(files) == 0 {
		r.log.Warn("No files found in %s", r.resolver.InputRoot())
		return nil
	}

	total := len(files)
	r.log.Info("Analyzing %d files in %s …", total, r.resolver.InputRoot())

	isTTY := w == os.Stdout && term.IsTerminal(os.Stdout)
	var assets []asset
	var skipped int
	for i, path := range files {
		if ctx.Err() != nil {
			if isTTY {
				clearProgress(w)
			}
			r.log.Warn("Interrupted")
			return nil
		}
		printProgress(w, isTTY, i+1, total, skipped, filepath.Base(path))

		a, err := r.inspect(path)
		if err != nil {
			skipped++
			if isTTY {
				clearProgress(w)
			}
			r.log.Warn("Skip (stat failed): %s", filepath.Base(path))
			continue
		}
		assets = append(assets, a)
	}
	if isTTY {
		clearProgress(w)
	}

	rows := summarize(assets)
	printAnalysisTable(w, rows)
	flagged := flagLargeAssets(assets)
	printLargeAssets(w, flagged)
	r.logAnalysisSummary(assets, flagged)
	return nil
}

func (r *Runner) inspect(path string) (asset, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return asset{}, err
	}
	rel, err := r.resolver.Rel(path)
	if err != nil {
		return asset{}, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	return asset{
		Rel:     filepath.ToSlash(rel),
		Ext:     ext,
		Handler: r.table.Lookup(ext).Name(),
		Size:    fi.Size(),
	}, nil
}

// summarize groups assets by handler, largest byte total first.
func summarize(assets []asset) []handlerRow {
	byHandler := make(map[string]*handlerRow)
	exts := make(map[string]map[string]bool)
	for _, a := range assets {
		row, ok := byHandler[a.Handler]
		if !ok {
			row = &handlerRow{Handler: a.Handler}
			byHandler[a.Handler] = row
			exts[a.Handler] = make(map[string]bool)
		}
		row.Files++
		row.Bytes += a.Size
		ext := a.Ext
		if ext == "" {
			ext = "(none)"
		}
		if !exts[a.Handler][ext] {
			exts[a.Handler][ext] = true
			row.Exts = append(row.Exts, ext)
		}
	}

	rows := make([]handlerRow, 0, len(byHandler))
	for _, row := range byHandler {
		sort.Strings(row.Exts)
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Bytes != rows[j].Bytes {
			return rows[i].Bytes > rows[j].Bytes
		}
		return rows[i].Handler < rows[j].Handler
	})
	return rows
}

// flaggedAsset is an asset whose size is an outlier within its handler.
type flaggedAsset struct {
	asset
	class string // "outlier" or "extreme"
}

// flagLargeAssets classifies every asset against the IQR bounds of its
// handler's sizes, largest first.
func flagLargeAssets(assets []asset) []flaggedAsset {
	sizes := make(map[string][]float64)
	for _, a := range assets {
		sizes[a.Handler] = append(sizes[a.Handler], float64(a.Size))
	}
	bounds := make(map[string]iqrBounds, len(sizes))
	for h, vals := range sizes {
		bounds[h] = computeStats(vals)
	}

	var flagged []flaggedAsset
	for _, a := range assets {
		b := bounds[a.Handler]
		if class := b.classify(float64(a.Size)); class != "" {
			flagged = append(flagged, flaggedAsset{asset: a, class: class})
		}
	}
	sort.Slice(flagged, func(i, j int) bool { return flagged[i].Size > flagged[j].Size })
	return flagged
}

// iqrBounds holds the IQR-based thresholds for outlier classification.
type iqrBounds struct {
	q1, q3    float64
	outlierHi float64 // Q3 + 1.5*IQR
	extremeHi float64 // Q3 + 3.0*IQR
	valid     bool
}

func computeStats(vals []float64) iqrBounds {
	if len(vals) < 4 {
		return iqrBounds{}
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	q1 := percentile(sorted, 25)
	q3 := percentile(sorted, 75)
	iqr := q3 - q1

	return iqrBounds{
		q1:        q1,
		q3:        q3,
		outlierHi: q3 + 1.5*iqr,
		extremeHi: q3 + 3.0*iqr,
		valid:     iqr > 0,
	}
}

// classify returns "" (normal), "outlier", or "extreme" for a size. Only
// unusually large files are flagged.
func (b *iqrBounds) classify(v float64) string {
	if !b.valid || v <= 0 {
		return ""
	}
	if v > b.extremeHi {
		return "extreme"
	}
	if v > b.outlierHi {
		return "outlier"
	}
	return ""
}

func printAnalysisTable(w io.Writer, rows []handlerRow) {
	var totalBytes int64
	for _, r := range rows {
		totalBytes += r.Bytes
	}

	hW, eW, fW, sW := len("Handler"), len("Extensions"), len("Files"), len("Size")
	for _, r := range rows {
		hW = max(hW, len(r.Handler))
		eW = max(eW, len(strings.Join(r.Exts, " ")))
		fW = max(fW, len(fmt.Sprint(r.Files)))
		sW = max(sW, len(display.FormatBytes(r.Bytes)))
	}
	if eW > 40 {
		eW = 40
	}

	header := fmt.Sprintf("  %-*s  %-*s  %*s  %*s  %6s", hW, "Handler", eW, "Extensions", fW, "Files", sW, "Size", "Share")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, "  "+strings.Repeat("─", len(header)-2))

	for _, r := range rows {
		exts := strings.Join(r.Exts, " ")
		if len(exts) > eW {
			exts = exts[:eW-1] + "…"
		}
		share := 0.0
		if totalBytes > 0 {
			share = float64(r.Bytes) * 100 / float64(totalBytes)
		}
		fmt.Fprintf(w, "  %-*s  %-*s  %*d  %*s  %5.1f%%\n",
			hW, r.Handler, eW, exts, fW, r.Files, sW, display.FormatBytes(r.Bytes), share)
	}
	fmt.Fprintln(w)
}

func printLargeAssets(w io.Writer, flagged []flaggedAsset) {
	if len(flagged) == 0 {
		return
	}
	nameW, hW := len("File"), len("Handler")
	for _, f := range flagged {
		nameW = max(nameW, len(f.Rel))
		hW = max(hW, len(f.Handler))
	}
	if nameW > 50 {
		nameW = 50
	}

	fmt.Fprintf(w, "  %-*s  %-*s  %s\n", nameW, "File", hW, "Handler", "Size")
	fmt.Fprintln(w, "  "+strings.Repeat("─", nameW+hW+14))
	for _, f := range flagged {
		name := f.Rel
		if len(name) > nameW {
			name = "…" + name[len(name)-nameW+1:]
		}
		// Pad the plain text first, then wrap in ANSI color, so escape
		// bytes do not count toward the column width.
		size := colorPad(display.FormatBytes(f.Size), 10, f.class)
		fmt.Fprintf(w, "  %-*s  %-*s  %s %s\n", nameW, name, hW, f.Handler, size, formatFlag(f.class))
	}
	fmt.Fprintln(w)
}

func (r *Runner) logAnalysisSummary(assets []asset, flagged []flaggedAsset) {
	var total int64
	for _, a := range assets {
		total += a.Size
	}
	var outliers, extremes int
	for _, f := range flagged {
		switch f.class {
		case "extreme":
			extremes++
		case "outlier":
			outliers++
		}
	}

	r.log.Info("Analyzed %d files, %s total (%s)", len(assets), display.FormatBytes(total), display.FormatMegabytes(total))
	if outliers > 0 {
		r.log.Warn("  %d large asset(s) flagged [*]", outliers)
	}
	if extremes > 0 {
		r.log.Error("  %d very large asset(s) flagged [!]", extremes)
	}
	if outliers == 0 && extremes == 0 {
		r.log.Success("  No unusually large assets")
	}
}

func formatFlag(flag string) string {
	switch flag {
	case "extreme":
		return term.Paint(term.Red, "[!]")
	case "outlier":
		return term.Paint(term.Yellow, "[*]")
	default:
		return ""
	}
}

func colorPad(s string, width int, class string) string {
	padded := fmt.Sprintf("%-*s", width, s)
	switch class {
	case "extreme":
		return term.Paint(term.Red, padded)
	case "outlier":
		return term.Paint(term.Yellow, padded)
	default:
		return padded
	}
}

// printProgress shows a live scan counter. On a TTY it writes an inline
// \r-overwritten line; otherwise it is a no-op.
func printProgress(w io.Writer, isTTY bool, current, total, skipped int, name string) {
	if !isTTY {
		return
	}
	pct := current * 100 / total
	status := fmt.Sprintf("  Scanning [%d/%d] %d%% ", current, total, pct)
	if skipped > 0 {
		status += fmt.Sprintf("(%d skipped) ", skipped)
	}

	maxName := 40
	if len(name) > maxName {
		name = name[:maxName-1] + "…"
	}
	status += name

	// Pad to 80 chars to overwrite previous longer lines, then \r.
	if len(status) < 80 {
		status += strings.Repeat(" ", 80-len(status))
	}
	fmt.Fprintf(w, "\r%s", status)
}

// clearProgress erases the inline progress line on a TTY.
func clearProgress(w io.Writer) {
	fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", 80))
}

// percentile computes the p-th percentile using linear interpolation.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p / 100) * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi || hi >= len(sorted) {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
