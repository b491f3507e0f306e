package pipeline

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Progress reports extraction of individual files. Done may be called
// from several goroutines.
type Progress interface {
	Start(total int)
	Done()
	Finish()
}

// NopProgress reports nothing.
type NopProgress struct{}

func (NopProgress) Start(int) {}
func (NopProgress) Done()     {}
func (NopProgress) Finish()   {}

// BarProgress draws a progress bar on w, normally stderr so it never mixes
// with the console report on stdout.
type BarProgress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func NewBarProgress(w io.Writer) *BarProgress {
	return &BarProgress{w: w}
}

func (p *BarProgress) Start(total int) {
	if total == 0 {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription("Extracting files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *BarProgress) Done() {
	if p.bar != nil {
		p.bar.Add(1)
	}
}

func (p *BarProgress) Finish() {
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
}
