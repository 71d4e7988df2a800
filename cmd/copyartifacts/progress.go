package main

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"copyartifacts/internal/artifact"
)

// progress counts finished transfers on an interactive terminal. The total is
// unknown until every tree is resolved, so it renders as a spinner.
type progress struct {
	bar *progressbar.ProgressBar
}

func newProgress(w io.Writer, enabled bool) *progress {
	if !enabled {
		return &progress{}
	}
	return &progress{bar: progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("transferring artifacts"),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)}
}

// observe is called from concurrent tree workers; the bar locks internally.
func (p *progress) observe(artifact.Outcome) {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *progress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
