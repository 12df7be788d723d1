package classifier

import (
	"testing"

	"github.com/tfm-insights/card-tracker/internal/tm"
)

func TestResolveDraftSlot(t *testing.T) {
	in := testInput()

	tests := []struct {
		name            string
		moves           []tm.Move
		draftIndex      int
		wantSlot        int
		wantLabel       string
		wantTakeback    bool
		wantCorrectedFr int
	}{
		{
			name: "no pass anchor",
			moves: []tm.Move{
				{Description: "Alice plays card Birds", ActionType: "play_card"},
				{Description: "You draft Acquired Company", ActionType: "draft_card"},
			},
			draftIndex: 1,
			wantSlot:   SlotUnknown,
			wantLabel:  "draft_unknown",
		},
		{
			name: "first slot after anchor mentioning the card",
			moves: []tm.Move{
				{Description: "Alice passes | hand: Acquired Company, Birds", ActionType: "pass"},
				{Description: "You draft Acquired Company", ActionType: "draft_card"},
			},
			draftIndex: 1,
			wantSlot:   1,
			wantLabel:  "draft_1",
		},
		{
			name: "even slot corrected down when anchor mentions the card",
			moves: []tm.Move{
				{Description: "Alice passes | hand: Acquired Company, Birds", ActionType: "pass"},
				{Description: "You draft Birds", ActionType: "draft_card"},
				{Description: "You draft Acquired Company", ActionType: "draft_card"},
			},
			draftIndex:      2,
			wantSlot:        1,
			wantLabel:       "draft_1",
			wantCorrectedFr: 2,
		},
		{
			name: "first slot corrected up when anchor omits the card",
			moves: []tm.Move{
				{Description: "Alice passes", ActionType: "pass"},
				{Description: "You draft Acquired Company", ActionType: "draft_card"},
			},
			draftIndex:      1,
			wantSlot:        2,
			wantLabel:       "draft_2",
			wantCorrectedFr: 1,
		},
		{
			name: "third raw slot with a single draft mention resolves to two",
			moves: []tm.Move{
				{Description: "Alice passes", ActionType: "pass"},
				{Description: "You draft Birds", ActionType: "draft_card"},
				{Description: "You draft Comet", ActionType: "draft_card"},
				{Description: "You draft Acquired Company", ActionType: "draft_card"},
			},
			draftIndex:      3,
			wantSlot:        2,
			wantLabel:       "draft_2",
			wantCorrectedFr: 3,
		},
		{
			name: "third raw slot with two draft mentions resolves to four",
			moves: []tm.Move{
				{Description: "Alice passes", ActionType: "pass"},
				{Description: "You draft Birds", ActionType: "draft_card"},
				{Description: "You draft Comet", ActionType: "draft_card"},
				{Description: "You draft Acquired Company | Bob drafts a card", ActionType: "draft_card"},
			},
			draftIndex:      3,
			wantSlot:        4,
			wantLabel:       "draft_4",
			wantCorrectedFr: 3,
		},
		{
			name: "takeback between anchor and draft",
			moves: []tm.Move{
				{Description: "Alice passes", ActionType: "pass"},
				{Description: "You draft Birds", ActionType: "draft_card"},
				{Description: "Alice takes back their move", PlayerID: "p1"},
				{Description: "You draft Acquired Company", ActionType: "draft_card"},
			},
			draftIndex:      3,
			wantSlot:        2,
			wantLabel:       "draft_2",
			wantTakeback:    true,
			wantCorrectedFr: 1,
		},
		{
			name: "fourth slot when anchor omits the card",
			moves: []tm.Move{
				{Description: "Alice passes", ActionType: "pass"},
				{Description: "You draft Birds", ActionType: "draft_card"},
				{Description: "You draft Comet", ActionType: "draft_card"},
				{Description: "You draft Moss", ActionType: "draft_card"},
				{Description: "You draft Acquired Company", ActionType: "draft_card"},
			},
			draftIndex: 4,
			wantSlot:   4,
			wantLabel:  "draft_4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveDraftSlot(tt.moves, tt.draftIndex, in)
			if got.Slot != tt.wantSlot {
				t.Errorf("Slot = %d, want %d", got.Slot, tt.wantSlot)
			}
			if got.Label != tt.wantLabel {
				t.Errorf("Label = %q, want %q", got.Label, tt.wantLabel)
			}
			if got.HasTakeback != tt.wantTakeback {
				t.Errorf("HasTakeback = %v, want %v", got.HasTakeback, tt.wantTakeback)
			}
			if got.CorrectedFrom != tt.wantCorrectedFr {
				t.Errorf("CorrectedFrom = %d, want %d", got.CorrectedFrom, tt.wantCorrectedFr)
			}
		})
	}
}
