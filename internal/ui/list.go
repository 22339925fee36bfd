package ui

import (
	"fmt"
	"strings"

	"github.com/abelbrown/gitexplorer/internal/model"
	"github.com/abelbrown/gitexplorer/internal/state"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Placeholder copy shown in place of missing data.
const (
	NoDescription   = "No transmission data available."
	UnknownLanguage = "UNKNOWN"
	EmptyBookmarks  = "NO_SAVED_DATA_FOUND"
	EmptyResults    = "SEARCH_YIELDED_ZERO_RESULTS"
)

// Column widths of the repository list.
const (
	langColWidth  = 12
	countColWidth = 8
)

// RenderTabs renders the view switcher with the bookmark count on the saved tab.
func RenderTabs(view model.View, bookmarks int, width int) string {
	discover := TabInactive.Render("DISCOVER")
	saved := TabInactive.Render("SAVED_REPOS " + TabBadge.Render(fmt.Sprintf("[%d]", bookmarks)))
	if view == model.ViewBookmarks {
		saved = TabActive.Render("SAVED_REPOS " + fmt.Sprintf("[%d]", bookmarks))
	} else {
		discover = TabActive.Render("DISCOVER")
	}
	return lipgloss.NewStyle().Width(width).Render(discover + " " + saved)
}

// RenderFilterBar renders the query input with the active sort and language.
func RenderFilterBar(input string, f model.Filters, width int) string {
	prompt := FilterBarPrompt.Render("/")
	lang := f.Language
	if lang == "" {
		lang = "any"
	}
	meta := FilterBarCount.Render(fmt.Sprintf("  sort:%s  lang:%s", f.Sort, lang))

	content := prompt + input + meta
	padding := width - lipgloss.Width(content) - 2 // -2 for bar padding
	if padding < 0 {
		padding = 0
	}
	return FilterBar.Width(width).Render(content + strings.Repeat(" ", padding))
}

// RenderList renders the repositories, keeping the cursor on screen.
// loadingLine replaces an empty list while a search is in flight.
func RenderList(repos []model.Repository, s state.State, cursor, width, height int, loadingLine string) string {
	if len(repos) == 0 {
		switch {
		case s.UI.Loading && loadingLine != "":
			return EmptyStyle.Render(loadingLine)
		case s.Filters.View == model.ViewBookmarks:
			return EmptyStyle.Render(EmptyBookmarks)
		default:
			return EmptyStyle.Render(EmptyResults)
		}
	}

	if height < 1 {
		height = 1
	}
	offset := calcScrollOffset(len(repos), cursor, height)

	var b strings.Builder
	for i := offset; i < len(repos) && i < offset+height; i++ {
		r := repos[i]
		b.WriteString(renderRepoLine(r, s.IsBookmarked(r.Key()), i == cursor, width))
		b.WriteString("\n")
	}
	return b.String()
}

// calcScrollOffset returns the first visible index such that cursor fits in
// a window of height lines.
func calcScrollOffset(total, cursor, height int) int {
	if total == 0 || cursor < 0 {
		return 0
	}
	if cursor >= total {
		cursor = total - 1
	}
	if cursor >= height {
		return cursor - height + 1
	}
	return 0
}

// renderRepoLine renders one list row: saved mark, name, language, stars, forks.
func renderRepoLine(r model.Repository, saved, selected bool, width int) string {
	mark := " "
	if saved {
		mark = "*"
	}

	lang := runewidth.FillRight(truncateWidth(r.LanguageOr(UnknownLanguage), langColWidth), langColWidth)
	stars := fmt.Sprintf("★ %s", formatCount(r.StargazersCount))
	forks := fmt.Sprintf("⑂ %s", formatCount(r.ForksCount))

	nameWidth := width - langColWidth - 2*countColWidth - 8
	if nameWidth < 16 {
		nameWidth = 16
	}
	name := runewidth.FillRight(truncateWidth(r.FullName, nameWidth), nameWidth)

	stars = runewidth.FillLeft(stars, countColWidth)
	forks = runewidth.FillLeft(forks, countColWidth)

	if selected {
		plain := fmt.Sprintf("%s %s %s %s %s", mark, name, lang, stars, forks)
		return SelectedItem.Width(width).Render(plain)
	}

	markText := mark
	if saved {
		markText = BookmarkMark.Render(mark)
	}
	return NormalItem.Render(fmt.Sprintf("%s %s %s %s %s", markText, name,
		MetaItem.Render(lang),
		StarCount.Render(stars),
		MetaItem.Render(forks)))
}

// formatCount abbreviates large counts: 950, 1.2k, 3.4m.
func formatCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fm", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// truncateWidth shortens s to at most n terminal cells, ending in "…" when cut.
func truncateWidth(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return runewidth.Truncate(s, n, "…")
}

// RenderStatusBar renders the bottom status bar with identity, position and key hints.
func RenderStatusBar(s state.State, cursor, total int, detail bool, width int) string {
	var left string
	switch {
	case s.UI.Loading:
		left = " Loading... "
	case total > 0:
		left = fmt.Sprintf(" %d/%d ", cursor+1, total)
	default:
		left = " 0/0 "
	}
	if s.Session == nil {
		left += StatusBarText.Render("AUTHENTICATING ")
	} else {
		left += StatusBarText.Render("UID:" + truncateWidth(s.Session.UID, 10) + " ")
	}

	var keys []string
	if detail {
		keys = []string{
			StatusBarKey.Render("ctrl+s") + StatusBarText.Render(":save"),
			StatusBarKey.Render("ctrl+b") + StatusBarText.Render(":bookmark"),
			StatusBarKey.Render("Esc") + StatusBarText.Render(":close"),
		}
	} else {
		keys = []string{
			StatusBarKey.Render("j/k") + StatusBarText.Render(":nav"),
			StatusBarKey.Render("Enter") + StatusBarText.Render(":open"),
			StatusBarKey.Render("/") + StatusBarText.Render(":search"),
			StatusBarKey.Render("s") + StatusBarText.Render(":sort"),
			StatusBarKey.Render("l") + StatusBarText.Render(":lang"),
			StatusBarKey.Render("b") + StatusBarText.Render(":bookmark"),
			StatusBarKey.Render("Tab") + StatusBarText.Render(":view"),
			StatusBarKey.Render("?") + StatusBarText.Render(":debug"),
			StatusBarKey.Render("q") + StatusBarText.Render(":quit"),
		}
	}
	keyHints := strings.Join(keys, " ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(keyHints)
	if padding < 0 {
		padding = 0
	}
	return StatusBar.Width(width).Render(left + strings.Repeat(" ", padding) + keyHints)
}
