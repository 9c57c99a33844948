package assetman

import (
	"fmt"
	"io"
)

// Progress receives byte-count updates as a transfer proceeds.  Report
// is called from the download loop between chunks and must not block
// meaningfully.  Updates for a single transfer arrive in increasing
// received order.
type Progress interface {
	Report(received, total int64, path string)
}

// nopProgress discards updates; the default sink.
type nopProgress struct{}

func (nopProgress) Report(received, total int64, path string) {}

// Reporter writes a human-readable status line per update, suitable
// for a terminal.
type Reporter struct {
	Out io.Writer
}

func (r *Reporter) Report(received, total int64, path string) {
	percent := 0.0
	if total > 0 {
		percent = float64(received) / float64(total) * 100
	}
	fmt.Fprintf(r.Out, "\r%s: %s / %s [%.1f%%]", path, formatBytes(received), formatBytes(total), percent)
	if received >= total {
		fmt.Fprintln(r.Out)
	}
}

func formatBytes(b int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(kb))
	}
	return fmt.Sprintf("%d B", b)
}
