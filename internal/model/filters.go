package model

// SortKey orders search results.
type SortKey string

const (
	SortStars   SortKey = "stars"
	SortForks   SortKey = "forks"
	SortUpdated SortKey = "updated"
)

// SortKeys lists the sort keys in the order the UI cycles through them.
var SortKeys = []SortKey{SortStars, SortForks, SortUpdated}

// Valid reports whether s is a known sort key.
func (s SortKey) Valid() bool {
	for _, k := range SortKeys {
		if s == k {
			return true
		}
	}
	return false
}

// View selects what the main list shows.
type View string

const (
	ViewDiscover  View = "discover"
	ViewBookmarks View = "bookmarks"
)

// Languages are the language filter presets. The empty string means any language.
var Languages = []string{"", "javascript", "typescript", "python", "rust", "go"}

// Filters is the authoritative search and view selection.
type Filters struct {
	Query    string
	Sort     SortKey
	Language string
	View     View
}

// DefaultFilters returns the filters the app starts with.
func DefaultFilters() Filters {
	return Filters{
		Query:    "react",
		Sort:     SortStars,
		Language: "",
		View:     ViewDiscover,
	}
}

// NextSort returns the sort key after s, wrapping around.
func NextSort(s SortKey) SortKey {
	for i, k := range SortKeys {
		if k == s {
			return SortKeys[(i+1)%len(SortKeys)]
		}
	}
	return SortKeys[0]
}

// NextLanguage returns the language preset after lang, wrapping around.
// Unknown values restart at "any".
func NextLanguage(lang string) string {
	for i, l := range Languages {
		if l == lang {
			return Languages[(i+1)%len(Languages)]
		}
	}
	return Languages[0]
}
