package classifier

import (
	"strings"

	"github.com/tfm-insights/card-tracker/internal/tm"
	"github.com/tfm-insights/card-tracker/internal/tm/patterns"
)

// SlotUnknown marks a draft move with no pass anchor before it.
const SlotUnknown = 0

// DraftResolution is the outcome of resolving a generic draft move to one
// of the four fixed draft rounds.
type DraftResolution struct {
	Slot          int    // 1..4, or SlotUnknown
	Label         string // draft_1..draft_4, or draft_unknown
	HasTakeback   bool   // a perspective takeback occurred between anchor and draft
	CorrectedFrom int    // raw slot before the parity correction, 0 when none applied
}

// ResolveDraftSlot derives the draft round for the draft move at
// draftIndex. It scans backward for the nearest pass move, counts
// draft-card moves (d) and the perspective player's takebacks (t) in
// between, starts from clamp(1+d-t, 1, 4), and then corrects the slot's
// parity: when the anchor pass move (cleaned) mentions the card only
// slots 1 and 3 are valid, otherwise only slots 2 and 4.
func ResolveDraftSlot(moves []tm.Move, draftIndex int, in Input) DraftResolution {
	anchor := -1
	for i := draftIndex - 1; i >= 0; i-- {
		if moves[i].ActionType == "pass" || strings.Contains(moves[i].Description, "pass") {
			anchor = i
			break
		}
	}
	if anchor == -1 {
		return DraftResolution{Slot: SlotUnknown, Label: "draft_unknown"}
	}

	anchorMentionsCard := !patterns.WrongAttribution(
		in.Card, moves[anchor].Description, in.PerspectiveName, in.OpponentName)

	draftCount := 0
	takebackCount := 0
	for i := anchor + 1; i < draftIndex; i++ {
		m := &moves[i]
		if m.ActionType == "draft_card" {
			draftCount++
		}
		if m.PlayerID == in.PerspectiveID && strings.Contains(m.Description, "takes back") {
			takebackCount++
		}
	}

	slot := 1 + draftCount - takebackCount
	if slot < 1 {
		slot = 1
	}
	if slot > 4 {
		slot = 4
	}

	res := DraftResolution{Slot: slot, HasTakeback: takebackCount > 0}

	if anchorMentionsCard {
		switch slot {
		case 2:
			res.Slot, res.CorrectedFrom = 1, 2
		case 4:
			res.Slot, res.CorrectedFrom = 3, 4
		}
	} else {
		switch slot {
		case 1:
			res.Slot, res.CorrectedFrom = 2, 1
		case 3:
			// Two "draft" mentions in the focal description indicate the
			// later of the two even slots.
			if strings.Count(strings.ToLower(moves[draftIndex].Description), "draft") > 1 {
				res.Slot = 4
			} else {
				res.Slot = 2
			}
			res.CorrectedFrom = 3
		}
	}

	res.Label = draftLabel(res.Slot)
	return res
}

func draftLabel(slot int) string {
	switch slot {
	case 1:
		return "draft_1"
	case 2:
		return "draft_2"
	case 3:
		return "draft_3"
	case 4:
		return "draft_4"
	}
	return "draft_unknown"
}
