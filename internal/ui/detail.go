package ui

import (
	"fmt"
	"strings"

	"github.com/abelbrown/gitexplorer/internal/model"
	"github.com/abelbrown/gitexplorer/internal/state"
)

// Note editor badges.
const (
	BadgeUploading = "UPLOADING"
	BadgeIdle      = "LOCAL_SYNC_ACTIVE"
)

// renderDetail renders the detail view of r with the note editor below it.
func renderDetail(r model.Repository, s state.State, editor string, width int) string {
	saved := ""
	if s.IsBookmarked(r.Key()) {
		saved = "  " + BookmarkMark.Render("[SAVED]")
	}

	badge := SyncedBadge.Render(BadgeIdle)
	if s.UI.Syncing {
		badge = SyncingBadge.Render(BadgeUploading)
	}

	lines := []string{
		DetailTitle.Render(r.FullName) + saved,
		"",
		r.DescriptionOr(NoDescription),
		"",
		DetailLabel.Render("url       ") + r.HTMLURL,
		DetailLabel.Render("owner     ") + r.Owner.Login,
		DetailLabel.Render("language  ") + r.LanguageOr(UnknownLanguage),
		fmt.Sprintf("%s%d  %s%d  %s%d  %s%d",
			DetailLabel.Render("stars "), r.StargazersCount,
			DetailLabel.Render("forks "), r.ForksCount,
			DetailLabel.Render("issues "), r.OpenIssuesCount,
			DetailLabel.Render("watchers "), r.WatchersCount),
		"",
		DetailLabel.Render("NOTES ") + badge,
		editor,
	}
	if n, ok := s.Notes[r.Key()]; ok {
		if t := n.Updated(); !t.IsZero() {
			lines = append(lines, DetailLabel.Render("last saved "+t.Local().Format("2006-01-02 15:04")))
		}
	}

	panelWidth := width - 2
	if panelWidth < 20 {
		panelWidth = 20
	}
	return DetailPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}
