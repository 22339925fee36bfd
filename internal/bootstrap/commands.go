package bootstrap

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/gitexplorer/internal/gateway"
	"github.com/abelbrown/gitexplorer/internal/model"
	"github.com/abelbrown/gitexplorer/internal/search"
	"github.com/abelbrown/gitexplorer/internal/ui"
)

// writeTimeout bounds one bookmark or note write.
const writeTimeout = 10 * time.Second

// searchCmd adapts the search client to the UI's command shape.
func searchCmd(ctx context.Context, client *search.Client) func(uint64, model.Filters) tea.Cmd {
	return func(gen uint64, f model.Filters) tea.Cmd {
		return func() tea.Msg {
			repos, err := client.Search(ctx, f)
			return ui.SearchCompleted{Gen: gen, Repos: repos, Err: err}
		}
	}
}

func setBookmarkCmd(ctx context.Context, gw *gateway.Gateway) func(*model.Session, model.Repository) tea.Cmd {
	return func(sess *model.Session, repo model.Repository) tea.Cmd {
		return func() tea.Msg {
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			defer cancel()
			if err := gw.SetBookmark(wctx, sess, repo); err != nil {
				return ui.BookmarkWriteFailed{Key: repo.Key(), Err: err}
			}
			return ui.BookmarkWritten{Key: repo.Key()}
		}
	}
}

func deleteBookmarkCmd(ctx context.Context, gw *gateway.Gateway) func(*model.Session, string) tea.Cmd {
	return func(sess *model.Session, key string) tea.Cmd {
		return func() tea.Msg {
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			defer cancel()
			if err := gw.DeleteBookmark(wctx, sess, key); err != nil {
				return ui.BookmarkWriteFailed{Key: key, Err: err}
			}
			return ui.BookmarkWritten{Key: key, Deleted: true}
		}
	}
}

func saveNoteCmd(ctx context.Context, gw *gateway.Gateway) func(uint64, *model.Session, string, string, time.Time) tea.Cmd {
	return func(gen uint64, sess *model.Session, key, content string, at time.Time) tea.Cmd {
		return func() tea.Msg {
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			defer cancel()
			if err := gw.SaveNote(wctx, sess, key, content, at); err != nil {
				return ui.NoteSaveFailed{Gen: gen, Err: err}
			}
			return ui.NoteSaved{Gen: gen}
		}
	}
}
