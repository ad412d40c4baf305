package ui

import (
	"io"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// ScanProgress draws a single bar over the scanned genre range.
type ScanProgress struct {
	p   *mpb.Progress
	bar *mpb.Bar

	found atomic.Int64
	done  atomic.Bool
}

func NewScanProgress(w io.Writer, total int) *ScanProgress {
	p := mpb.New(
		mpb.WithWidth(52),
		mpb.WithOutput(w),
		mpb.WithRefreshRate(120*time.Millisecond),
	)

	sp := &ScanProgress{p: p}
	sp.bar = p.New(
		int64(total),
		mpb.BarStyle().Rbound("]"),
		mpb.PrependDecorators(
			decor.Name("genres  "),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncWidth),
			decor.CountersNoUnit(" | %d/%d", decor.WCSyncWidth),
			decor.Any(func(_ decor.Statistics) string {
				return " | found " + strconv.FormatInt(sp.found.Load(), 10)
			}),
			decor.Elapsed(decor.ET_STYLE_GO, decor.WCSyncSpace),
		),
	)

	return sp
}

// Step marks one genre number as handled.
func (sp *ScanProgress) Step(found bool) {
	if sp.done.Load() {
		return
	}
	if found {
		sp.found.Add(1)
	}
	sp.bar.Increment()
}

// Close stops the bar where it is, even when the scan ended early.
func (sp *ScanProgress) Close() {
	if sp.done.Swap(true) {
		return
	}

	sp.bar.Abort(false)
	sp.p.Wait()
}
