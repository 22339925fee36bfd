package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/gitexplorer/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugOverlay renders the debug panel showing sync and search stats and
// recent events. Returns empty string if ring is nil.
func debugOverlay(ring *otel.RingBuffer, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Session Stats"))
	lines = append(lines, fmt.Sprintf("  Auth:       %d sign-ins, %d changes, %d errors",
		stats[otel.KindAuthSignIn], stats[otel.KindAuthChanged], stats[otel.KindAuthError]))
	lines = append(lines, fmt.Sprintf("  Sync:       %d snapshots, %d stale, %d errors",
		stats[otel.KindSyncSnapshot], stats[otel.KindSyncStale], stats[otel.KindSyncError]))
	lines = append(lines, fmt.Sprintf("  Searches:   %d started, %d complete, %d stale, %d errors",
		stats[otel.KindSearchStart], stats[otel.KindSearchComplete], stats[otel.KindSearchStale], stats[otel.KindSearchError]))
	lines = append(lines, fmt.Sprintf("  Writes:     %d bookmarks, %d notes, %d errors",
		stats[otel.KindBookmarkSet]+stats[otel.KindBookmarkDelete], stats[otel.KindNoteSaved],
		stats[otel.KindBookmarkError]+stats[otel.KindNoteError]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		ageStr := formatAge(time.Since(e.Time))

		line := fmt.Sprintf("  %6s  %-18s", ageStr, string(e.Kind))
		if e.Msg != "" {
			line += "  " + truncateWidth(e.Msg, 40)
		}
		if e.Repo != "" {
			line += "  repo:" + e.Repo
		}
		if e.Gen != 0 {
			line += fmt.Sprintf("  gen:%d", e.Gen)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateWidth(e.Err, 30)
		}
		lines = append(lines, line)
	}

	// Subtract chrome added by DebugPanel border/padding.
	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 84
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("?") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
