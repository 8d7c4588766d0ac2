package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ProgressDisplay renders asset localization as a single updating line.
// In verbose mode every node gets its own line instead.
type ProgressDisplay struct {
	mu        sync.Mutex
	label     string
	total     int
	localized int
	skipped   int
	failed    int
	bytes     int64
	startTime time.Time
	verbose   bool
}

// NewProgressDisplay creates a display labelled with the node type
func NewProgressDisplay(label string, verbose bool) *ProgressDisplay {
	return &ProgressDisplay{
		label:     label,
		startTime: time.Now(),
		verbose:   verbose,
	}
}

// Begin sets the number of nodes to localize
func (p *ProgressDisplay) Begin(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.startTime = time.Now()
	if !p.verbose {
		p.printProgress()
	}
}

// Localized records a downloaded or cached asset
func (p *ProgressDisplay) Localized(nodeID string, size int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.localized++
	p.bytes += size
	if p.verbose {
		fmt.Fprintf(Output, "%s %s • %s\n", Green("✓"), nodeID, FormatBytes(size))
		return
	}
	p.printProgress()
}

// Failed records a failed download
func (p *ProgressDisplay) Failed(nodeID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failed++
	if p.verbose {
		fmt.Fprintf(Output, "%s %s • %v\n", Red("✗"), nodeID, err)
		return
	}
	p.printProgress()
}

// Skipped records a download abandoned after a fatal failure
func (p *ProgressDisplay) Skipped(nodeID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.skipped++
	if p.verbose {
		fmt.Fprintf(Output, "%s %s • skipped\n", Yellow("-"), nodeID)
		return
	}
	p.printProgress()
}

// Done finishes the progress line
func (p *ProgressDisplay) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.verbose && p.total > 0 {
		fmt.Fprintln(Output)
	}
}

// Counts returns localized, failed and skipped totals
func (p *ProgressDisplay) Counts() (localized, failed, skipped int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.localized, p.failed, p.skipped
}

// Bar renders a fixed-width bar for done out of total
func Bar(done, total, width int) string {
	filled := 0
	if total > 0 {
		filled = done * width / total
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
}

func (p *ProgressDisplay) printProgress() {
	done := p.localized + p.failed + p.skipped
	elapsed := time.Since(p.startTime)

	line := fmt.Sprintf("%s [%s] %d/%d • %s • %s",
		Cyan(p.label),
		Bar(done, p.total, 20),
		done,
		p.total,
		FormatBytes(p.bytes),
		FormatDuration(elapsed),
	)
	if p.failed > 0 {
		line += " • " + Red(fmt.Sprintf("%d failed", p.failed))
	}

	fmt.Fprintf(Output, "\r%s\r%s", strings.Repeat(" ", 100), line)
}
