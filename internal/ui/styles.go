package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorWarning   = lipgloss.Color("214") // Amber
	colorStar      = lipgloss.Color("220") // Gold
)

// SelectedItem style for the currently highlighted repository.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// NormalItem style for unselected repositories.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// MetaItem style for counts and secondary columns.
var MetaItem = lipgloss.NewStyle().
	Foreground(colorSecondary)

// StarCount style for the star column.
var StarCount = lipgloss.NewStyle().
	Foreground(colorStar)

// LanguageBadge style for the language column.
var LanguageBadge = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// BookmarkMark style for the saved marker in the list.
var BookmarkMark = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// TabActive style for the selected view tab.
var TabActive = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 2)

// TabInactive style for the other view tab.
var TabInactive = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Background(lipgloss.Color("236")).
	Padding(0, 2)

// TabBadge style for the bookmark count on the saved tab.
var TabBadge = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true).
	Padding(0, 1)

// EmptyStyle for the placeholder shown when the list is empty.
var EmptyStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// FilterBar style for the filter input bar.
var FilterBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("240")).
	Padding(0, 1)

// FilterBarPrompt style for the "/" prompt.
var FilterBarPrompt = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// FilterBarText style for the filter input text.
var FilterBarText = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255"))

// FilterBarCount style for the sort and language labels.
var FilterBarCount = lipgloss.NewStyle().
	Foreground(colorSecondary)

// DetailPanel frames the repository detail view.
var DetailPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DetailTitle style for the repository full name.
var DetailTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// DetailLabel style for field labels in the detail view.
var DetailLabel = lipgloss.NewStyle().
	Foreground(colorMuted)

// SyncingBadge style while a note write is in flight or being held.
var SyncingBadge = lipgloss.NewStyle().
	Foreground(lipgloss.Color("0")).
	Background(colorWarning).
	Bold(true).
	Padding(0, 1)

// SyncedBadge style when the note is idle.
var SyncedBadge = lipgloss.NewStyle().
	Foreground(lipgloss.Color("0")).
	Background(colorSuccess).
	Padding(0, 1)

// DebugPanel frames the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder()).
	BorderForeground(colorMuted).
	Padding(1, 1)

// DebugHeaderStyle for section headers in the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)
