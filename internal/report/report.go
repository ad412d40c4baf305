// Package report writes the Markdown list a scan prints and reads it back to
// rebuild the cache.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/brogergvhs/genrescrape/internal/scan"
)

const footerLayout = "January 02 2006 15:04:05 MST"

// Writer prints a report. The first write error is kept and every later
// call becomes a no-op.
type Writer struct {
	w   io.Writer
	err error
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) printf(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
}

func (w *Writer) Header(lo, hi int) {
	w.printf("# Genres %d–%d\n\n", lo, hi)
}

func (w *Writer) Entry(r scan.Result) {
	w.printf("%s\n", FormatLine(r.Number, r.Title, r.URL))
}

// Footer closes the report with the time the scan started, in UTC.
func (w *Writer) Footer(started time.Time) {
	w.printf("\n_Generated on %s_\n", started.UTC().Format(footerLayout))
}

func (w *Writer) Err() error {
	return w.err
}

func FormatLine(number int, title, url string) string {
	return fmt.Sprintf("* %s ([#%d](%s))", title, number, url)
}
