package tui

import (
	"notes-tui/internal/mutate"
	"notes-tui/internal/session"
)

// inputMode says where keystrokes go: the outline, or the filter/search dialog.
type inputMode int

const (
	modeBrowsing inputMode = iota
	modeFiltering
	modeSearching
)

// followMode says whether moving the cursor also shows the note under it.
type followMode int

const (
	following followMode = iota
	notFollowing
)

func (f followMode) toggled() followMode {
	if f == following {
		return notFollowing
	}
	return following
}

type uiState struct {
	input  inputMode
	follow followMode
}

type uiEvent int

const (
	evOpenFilter uiEvent = iota
	evOpenSearch
	evInputChanged
	evInputSubmitted
	evInputCancelled
	evHighlight
	evSelect
	evToggleFollow
)

type effect int

const (
	effNone effect = iota
	effOpenDialog
	effCloseDialog
	effApplyFilter
	effApplySearch
	effShowNote
	// effShowAndSync shows the note and, under auto-sync, schedules a send
	// to the preview.
	effShowAndSync
)

type transition struct {
	next   uiState
	effect effect
}

// transitions is the whole dispatcher state machine. Events missing from a
// state's row are ignored in that state.
var transitions = buildTransitions()

func buildTransitions() map[uiState]map[uiEvent]transition {
	t := map[uiState]map[uiEvent]transition{}
	for _, f := range []followMode{following, notFollowing} {
		browse := uiState{modeBrowsing, f}
		filter := uiState{modeFiltering, f}
		search := uiState{modeSearching, f}

		onHighlight, onSelect := effShowAndSync, effNone
		if f == notFollowing {
			onHighlight, onSelect = effNone, effShowNote
		}

		t[browse] = map[uiEvent]transition{
			evOpenFilter:   {filter, effOpenDialog},
			evOpenSearch:   {search, effOpenDialog},
			evHighlight:    {browse, onHighlight},
			evSelect:       {browse, onSelect},
			evToggleFollow: {uiState{modeBrowsing, f.toggled()}, effNone},
		}
		t[filter] = map[uiEvent]transition{
			evInputChanged:   {filter, effApplyFilter},
			evInputSubmitted: {browse, effCloseDialog},
			evInputCancelled: {browse, effCloseDialog},
			evHighlight:      {filter, onHighlight},
		}
		t[search] = map[uiEvent]transition{
			evInputChanged:   {search, effApplySearch},
			evInputSubmitted: {browse, effCloseDialog},
			evInputCancelled: {browse, effCloseDialog},
			evHighlight:      {search, onHighlight},
		}
	}
	return t
}

func step(s uiState, ev uiEvent) (transition, bool) {
	tr, ok := transitions[s][ev]
	return tr, ok
}

// AppState is shared by every tab for the life of the program.
type AppState struct {
	Tabs        *session.Manager
	Marks       *mutate.MarkSet
	UI          uiState
	AutoSyncGUI bool
}

func (s *AppState) Following() bool { return s.UI.follow == following }

// DialogMode reports which dialog is open, or modeBrowsing when none is.
func (s *AppState) DialogMode() inputMode { return s.UI.input }
