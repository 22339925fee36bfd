// Package model provides the domain types shared by every layer of gitexplorer.
//
// Repository mirrors the GitHub search API record. Its JSON field names are the
// API's own, so a bookmark document is the search result stored verbatim.
package model

import (
	"sort"
	"strconv"
)

// PageSize is the fixed number of results requested per search.
const PageSize = 12

// Owner is the account a repository belongs to.
type Owner struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// Repository is an immutable snapshot of a search result.
type Repository struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	FullName        string  `json:"full_name"`
	Description     *string `json:"description"`
	Owner           Owner   `json:"owner"`
	StargazersCount int     `json:"stargazers_count"`
	ForksCount      int     `json:"forks_count"`
	OpenIssuesCount int     `json:"open_issues_count"`
	WatchersCount   int     `json:"watchers_count"`
	Language        *string `json:"language"`
	HTMLURL         string  `json:"html_url"`
}

// Key returns the repository id as the string used for bookmark and note documents.
func (r Repository) Key() string {
	return strconv.FormatInt(r.ID, 10)
}

// DescriptionOr returns the description, or fallback when it is null or empty.
func (r Repository) DescriptionOr(fallback string) string {
	if r.Description == nil || *r.Description == "" {
		return fallback
	}
	return *r.Description
}

// LanguageOr returns the primary language, or fallback when it is null or empty.
func (r Repository) LanguageOr(fallback string) string {
	if r.Language == nil || *r.Language == "" {
		return fallback
	}
	return *r.Language
}

// Bookmarks is the local mirror of the bookmark collection, keyed by Repository.Key.
type Bookmarks map[string]Repository

// Has reports whether key is bookmarked. Safe on a nil map.
func (b Bookmarks) Has(key string) bool {
	_, ok := b[key]
	return ok
}

// Ordered returns the bookmarked repositories sorted by full name, then id.
// Map iteration order is random, so the bookmarks view needs a stable order.
func (b Bookmarks) Ordered() []Repository {
	out := make([]Repository, 0, len(b))
	for _, r := range b {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].ID < out[j].ID
	})
	return out
}
