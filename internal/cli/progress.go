package cli

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/hyperjump/helpsearch/internal/indexer"
)

// IngestProgress renders directory ingest progress as a terminal bar.
type IngestProgress struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

// NewIngestProgress returns a reporter writing to out, or nil when disabled.
// IndexDirectory treats a nil reporter as no progress.
func NewIngestProgress(enabled bool, out io.Writer) indexer.ProgressReporter {
	if !enabled {
		return nil
	}
	return &IngestProgress{out: out}
}

func (p *IngestProgress) Start(total int) {
	if total <= 0 {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription("ingesting"),
		progressbar.OptionSetWidth(32),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (p *IngestProgress) Increment() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Add(1)
}

func (p *IngestProgress) Finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
}

// DefaultProgressEnabled reports whether stderr is a terminal.
func DefaultProgressEnabled() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
