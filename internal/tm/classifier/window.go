// Package classifier assigns a semantic label to every move that mentions
// an analyzed card. The cascade inspects the focal move plus a window of
// neighboring moves and is a pure function of its inputs: identical
// (card, window) pairs always produce the identical label.
package classifier

import (
	"github.com/tfm-insights/card-tracker/internal/tm"
	"github.com/tfm-insights/card-tracker/internal/tm/patterns"
)

// WidenOffsets are the backward offset groups appended to a window when
// the cascade cannot yet decide between the generic draw labels. Groups
// are applied one at a time until the label settles.
var WidenOffsets = [][]int{
	{3, 4},
	{5, 6},
	{7, 8, 9},
}

// Window is the classifier's view of one focal move: its description and
// action tag first, then the preceding moves newest-first, plus a short
// lookahead used to detect takebacks and duplicate buys. Building a
// window never mutates the move list.
type Window struct {
	// Descriptions[0] / ActionTypes[0] are the focal move; the rest are
	// prior moves in reverse order.
	Descriptions []string
	ActionTypes  []string

	// Lookahead, already scrubbed of confusable card names.
	NextDescription  string
	Next2Description string
	NextPlayerID     string

	Generation int
}

// Focal returns the focal move's description.
func (w *Window) Focal() string {
	if len(w.Descriptions) == 0 {
		return ""
	}
	return w.Descriptions[0]
}

// FocalAction returns the focal move's action tag.
func (w *Window) FocalAction() string {
	if len(w.ActionTypes) == 0 {
		return ""
	}
	return w.ActionTypes[0]
}

// BuildWindow assembles the window for the move at index i: focal move,
// the two preceding moves, and the next two moves' descriptions cleaned
// for card. i must be a valid index into moves.
func BuildWindow(moves []tm.Move, i int, card string) *Window {
	w := &Window{
		Descriptions: make([]string, 0, 3),
		ActionTypes:  make([]string, 0, 3),
		Generation:   moves[i].Generation(),
	}

	for off := 0; off <= 2; off++ {
		j := i - off
		if j < 0 {
			w.Descriptions = append(w.Descriptions, "")
			w.ActionTypes = append(w.ActionTypes, "")
			continue
		}
		w.Descriptions = append(w.Descriptions, moves[j].Description)
		w.ActionTypes = append(w.ActionTypes, moves[j].ActionType)
	}

	if i+1 < len(moves) {
		w.NextDescription = patterns.StripConfusables(moves[i+1].Description, card)
		w.NextPlayerID = moves[i+1].PlayerID
	}
	if i+2 < len(moves) {
		w.Next2Description = patterns.StripConfusables(moves[i+2].Description, card)
	}

	return w
}

// Extend appends the moves at the given backward offsets from i to the
// window. Offsets that fall before the start of the game are skipped.
func (w *Window) Extend(moves []tm.Move, i int, offsets []int) {
	for _, off := range offsets {
		j := i - off
		if j < 0 {
			continue
		}
		w.Descriptions = append(w.Descriptions, moves[j].Description)
		w.ActionTypes = append(w.ActionTypes, moves[j].ActionType)
	}
}

// anyContains reports whether any description in the window contains the
// phrase.
func (w *Window) anyContains(phrase string) bool {
	for _, d := range w.Descriptions {
		if d != "" && contains(d, phrase) {
			return true
		}
	}
	return false
}

// anyContainsWithAction reports whether any window position both contains
// the phrase and carries the given action tag.
func (w *Window) anyContainsWithAction(phrase, action string) bool {
	for i, d := range w.Descriptions {
		if d == "" || !contains(d, phrase) {
			continue
		}
		if i < len(w.ActionTypes) && w.ActionTypes[i] == action {
			return true
		}
	}
	return false
}

// headContainsWithAction is anyContainsWithAction restricted to the first
// n window positions (focal plus n-1 predecessors).
func (w *Window) headContainsWithAction(phrase, action string, n int) bool {
	for i, d := range w.Descriptions {
		if i >= n {
			break
		}
		if d == "" || !contains(d, phrase) {
			continue
		}
		if i < len(w.ActionTypes) && w.ActionTypes[i] == action {
			return true
		}
	}
	return false
}

// hasActionType reports whether any window position carries the tag.
func (w *Window) hasActionType(action string) bool {
	for _, a := range w.ActionTypes {
		if a == action {
			return true
		}
	}
	return false
}
