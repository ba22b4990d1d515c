// Package progress renders lint progress on stderr.
package progress

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
)

// Tracker wraps a progress bar. A nil bar makes every method a no-op, which
// is how quiet and non-terminal runs are handled.
type Tracker struct {
	bar   *progressbar.ProgressBar
	label string
	w     io.Writer
}

// New creates a progress bar over total files written to w. When enabled is
// false the tracker draws nothing.
func New(label string, total int, w io.Writer, enabled bool) *Tracker {
	t := &Tracker{label: label, w: w}
	if !enabled {
		return t
	}
	t.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return t
}

// Tick advances by one file. Safe for concurrent use.
func (t *Tracker) Tick() {
	if t.bar != nil {
		_ = t.bar.Add(1)
	}
}

// Finish clears the bar.
func (t *Tracker) Finish() {
	if t.bar == nil {
		return
	}
	_ = t.bar.Finish()
	_ = t.bar.Clear()
}

// FinishError clears the bar and prints err.
func (t *Tracker) FinishError(err error) {
	t.Finish()
	if t.w != nil {
		fmt.Fprintf(t.w, "  %s error: %v\n", t.label, err)
	}
}
