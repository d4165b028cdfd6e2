package ui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/jonathang/tickfixer-go/internal/state"
)

const (
	uiRefreshInterval = 500 * time.Millisecond
	panelWidth        = 46
	intervalStepMs    = 10
)

// SnapshotSource yields the current combined status for rendering.
type SnapshotSource interface {
	GetSnapshot() state.Snapshot
}

// Controls are the operator actions reachable from the keyboard.
type Controls interface {
	TogglePause()
	ResetTracker()
	AdjustIntervalMs(delta int)
}

// UI renders a TUI view of tick quality and keepalive status.
type UI struct {
	source   SnapshotSource
	controls Controls
}

// New returns a UI instance.
func New(source SnapshotSource, controls Controls) *UI {
	return &UI{source: source, controls: controls}
}

// Run blocks until the context is cancelled or the user quits.
func (u *UI) Run(ctx context.Context) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	screen.HideCursor()
	defer screen.Fini()

	eventCh := make(chan tcell.Event, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case eventCh <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(uiRefreshInterval)
	defer ticker.Stop()

	u.render(screen, u.source.GetSnapshot())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-eventCh:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if quit := u.handleKey(ev); quit {
					return context.Canceled
				}
				u.render(screen, u.source.GetSnapshot())
			case *tcell.EventResize:
				screen.Sync()
			}
		case <-ticker.C:
			u.render(screen, u.source.GetSnapshot())
		}
	}
}

func (u *UI) handleKey(ev *tcell.EventKey) (quit bool) {
	if ev.Key() == tcell.KeyCtrlC {
		return true
	}
	switch ev.Rune() {
	case 'q':
		return true
	case 'p':
		u.controls.TogglePause()
	case 'r':
		u.controls.ResetTracker()
	case '+', '=':
		u.controls.AdjustIntervalMs(intervalStepMs)
	case '-':
		u.controls.AdjustIntervalMs(-intervalStepMs)
	}
	return false
}

func (u *UI) render(screen tcell.Screen, snapshot state.Snapshot) {
	screen.Clear()
	width, height := screen.Size()
	if width < 24 || height < 10 {
		screen.Show()
		return
	}

	now := time.Now().Format("2006-01-02 15:04:05")
	header := fmt.Sprintf(" tickfixer  %s", now)
	drawText(screen, 0, 0, width, header, tcell.StyleDefault.Bold(true))
	drawText(screen, 0, 1, width, " q quit | p pause | r reset | +/- interval",
		tcell.StyleDefault.Foreground(tcell.ColorGray))

	boxWidth := panelWidth
	if boxWidth > width {
		boxWidth = width
	}
	drawBox(screen, 0, 2, boxWidth, 9)
	drawText(screen, 2, 2, boxWidth-4, " Tick Fixer ", tcell.StyleDefault.Bold(true))

	y := 3
	if snapshot.Waiting {
		drawStatusLine(screen, y, boxWidth, "Status", "Warming up...",
			tcell.StyleDefault.Foreground(tcell.ColorYellow))
		y++
	} else {
		drawStatusLine(screen, y, boxWidth, "Tick Quality", fmt.Sprintf("%.1f%%", snapshot.Quality),
			tcell.StyleDefault.Foreground(qualityColor(snapshot.Quality)))
		y++
		drawStatusLine(screen, y, boxWidth, "", buildQualityBar(snapshot.Quality, boxWidth-18),
			tcell.StyleDefault.Foreground(qualityColor(snapshot.Quality)))
		y++
		drawStatusLine(screen, y, boxWidth, "Avg Tick", fmt.Sprintf("%.0fms", snapshot.AverageMs),
			tcell.StyleDefault)
		y++
		jitterStyle := tcell.StyleDefault
		if snapshot.JitterMs > 30 {
			jitterStyle = jitterStyle.Foreground(tcell.ColorOrange)
		}
		drawStatusLine(screen, y, boxWidth, "Jitter", fmt.Sprintf("%.1fms", snapshot.JitterMs), jitterStyle)
		y++
		if snapshot.LastDeltaMs >= 0 {
			deltaStyle := tcell.StyleDefault.Foreground(tcell.ColorRed)
			if goodDelta(snapshot.LastDeltaMs, snapshot.ThresholdMs) {
				deltaStyle = tcell.StyleDefault.Foreground(tcell.ColorGreen)
			}
			drawStatusLine(screen, y, boxWidth, "Last Tick", fmt.Sprintf("%dms", snapshot.LastDeltaMs), deltaStyle)
			y++
		}
		drawStatusLine(screen, y, boxWidth, "Samples",
			fmt.Sprintf("%d/%d", snapshot.SampleCount, snapshot.SampleSize), tcell.StyleDefault)
		y++
	}

	drawStatusLine(screen, y, boxWidth, "Keepalive", formatKeepalive(snapshot), keepaliveStyle(snapshot.Keepalive))
	y++
	drawStatusLine(screen, y, boxWidth, "Packets",
		fmt.Sprintf("sent=%d errors=%d", snapshot.TotalSent, snapshot.TotalErrors), tcell.StyleDefault)

	screen.Show()
}

func drawStatusLine(screen tcell.Screen, y, boxWidth int, label, value string, valueStyle tcell.Style) {
	drawText(screen, 2, y, 13, label, tcell.StyleDefault)
	drawText(screen, 15, y, boxWidth-17, value, valueStyle)
}

// qualityColor bands the quality percentage the way players read it: green
// is fine, red means the connection is hurting gameplay.
func qualityColor(quality float64) tcell.Color {
	switch {
	case quality >= 95:
		return tcell.ColorGreen
	case quality >= 80:
		return tcell.ColorYellow
	case quality >= 60:
		return tcell.ColorOrange
	default:
		return tcell.ColorRed
	}
}

func keepaliveStyle(s state.KeepaliveState) tcell.Style {
	switch s {
	case state.KeepaliveActive:
		return tcell.StyleDefault.Foreground(tcell.ColorGreen)
	case state.KeepalivePaused:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow)
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorGray)
	}
}

func formatKeepalive(snapshot state.Snapshot) string {
	if snapshot.Keepalive == state.KeepaliveOff {
		return string(state.KeepaliveOff)
	}
	return fmt.Sprintf("%s %s @%dms", snapshot.Keepalive, snapshot.Target, snapshot.IntervalMs)
}

func goodDelta(deltaMs int64, thresholdMs int) bool {
	diff := deltaMs - 600
	if diff < 0 {
		diff = -diff
	}
	return diff <= int64(thresholdMs)
}

func buildQualityBar(quality float64, width int) string {
	if width <= 0 {
		return ""
	}
	units := int(math.Round(quality / 100.0 * float64(width)))
	if units > width {
		units = width
	}
	if units < 0 {
		units = 0
	}
	return strings.Repeat("#", units) + strings.Repeat(" ", width-units)
}

func drawText(screen tcell.Screen, x, y, maxWidth int, text string, style tcell.Style) {
	col := x
	for _, r := range text {
		if col >= x+maxWidth {
			break
		}
		screen.SetContent(col, y, r, nil, style)
		col++
	}
}

func drawBox(screen tcell.Screen, x, y, width, height int) {
	if width < 2 || height < 2 {
		return
	}
	style := tcell.StyleDefault
	for col := x + 1; col < x+width-1; col++ {
		screen.SetContent(col, y, tcell.RuneHLine, nil, style)
		screen.SetContent(col, y+height-1, tcell.RuneHLine, nil, style)
	}
	for row := y + 1; row < y+height-1; row++ {
		screen.SetContent(x, row, tcell.RuneVLine, nil, style)
		screen.SetContent(x+width-1, row, tcell.RuneVLine, nil, style)
	}
	screen.SetContent(x, y, tcell.RuneULCorner, nil, style)
	screen.SetContent(x+width-1, y, tcell.RuneURCorner, nil, style)
	screen.SetContent(x, y+height-1, tcell.RuneLLCorner, nil, style)
	screen.SetContent(x+width-1, y+height-1, tcell.RuneLRCorner, nil, style)
}
