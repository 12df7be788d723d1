package stats

import (
	"testing"

	"github.com/tfm-insights/card-tracker/internal/tm"
)

func eloData(rank, change int) *tm.EloData {
	return &tm.EloData{
		GameRank:       tm.EloPoints{Value: rank, OK: true},
		GameRankChange: tm.EloPoints{Value: change, OK: true},
	}
}

func wonGame(replayID string) *tm.Game {
	return &tm.Game{
		ReplayID:          replayID,
		PlayerPerspective: "p1",
		Winner:            "Alice",
		PreludeOn:         true,
		Players: map[string]*tm.Player{
			"p1": {PlayerName: "Alice", Corporation: "Tharsis Republic", EloData: eloData(500, 7)},
			"p2": {PlayerName: "Bob", Corporation: "Helion", EloData: eloData(480, -7)},
		},
	}
}

func TestAccumulatorRecordAndFinalize(t *testing.T) {
	a := NewAccumulator("Acquired Company")

	// Game 1: drafted in slot 2, bought after the draft, played for 3.
	a.Record(&GameEvents{
		ReplayID:      "r1",
		PerspectiveID: "p1",
		Game:          wonGame("r1"),
		Moves: []tm.ClassifiedMove{
			{MoveType: "draft_2", MoveNumber: 10, Generation: 2},
			{MoveType: "draw_draft_buy", MoveNumber: 12, Generation: 2},
			{MoveType: "play", MoveNumber: 30, Generation: 4, Paid: []int{3}},
		},
		LastDrawLabel:      "draw_draft_buy",
		LastDrawGeneration: 2,
		Played:             true,
		PlayedGeneration:   4,
		PlayCount:          1,
		DraftMoves:         []DraftMove{{Label: "draft_2", MoveNumber: 10, Generation: 2}},
		BuyMoves:           []BuyMove{{MoveNumber: 12, Generation: 2}},
	})

	// Game 2: the card never shows up beyond an incidental mention.
	a.Record(&GameEvents{
		ReplayID:      "r2",
		PerspectiveID: "p1",
		Game:          wonGame("r2"),
		Moves: []tm.ClassifiedMove{
			{MoveType: "other_scoring", MoveNumber: 50, Generation: 6},
		},
	})

	if a.TotalGamesAnalyzed != 2 {
		t.Errorf("TotalGamesAnalyzed = %d, want 2", a.TotalGamesAnalyzed)
	}
	if a.TotalGamesWithCard != 1 {
		t.Errorf("TotalGamesWithCard = %d, want 1", a.TotalGamesWithCard)
	}
	if a.SeenMethods["draft_2"] != 1 {
		t.Errorf("SeenMethods[draft_2] = %d, want 1", a.SeenMethods["draft_2"])
	}
	if a.OtherStats["other_scoring"] != 1 {
		t.Errorf("OtherStats[other_scoring] = %d, want 1", a.OtherStats["other_scoring"])
	}
	if a.DrawMethods["draw_draft_buy"] != 1 || a.DrawnCount != 1 {
		t.Errorf("draw counting = (%v, %d), want draw_draft_buy once",
			a.DrawMethods, a.DrawnCount)
	}
	if a.DrawnByGeneration[2] != 1 || a.DrawAndBuy[2] != 1 {
		t.Errorf("generation histograms = %v / %v, want gen 2 once each",
			a.DrawnByGeneration, a.DrawAndBuy)
	}
	if a.DraftBuys[2] != 1 {
		t.Errorf("DraftBuys[2] = %d, want 1", a.DraftBuys[2])
	}
	if a.WinCount != 1 || a.WinsWhenBought != 1 || a.WinsWhenPlayed != 1 {
		t.Errorf("wins = %d/%d/%d, want 1/1/1",
			a.WinCount, a.WinsWhenBought, a.WinsWhenPlayed)
	}
	if a.EloGains["7 to 8"] != 1 {
		t.Errorf("EloGains[7 to 8] = %d, want 1", a.EloGains["7 to 8"])
	}

	r := a.Finalize()

	if r.WinRateByCase.Overall != 100 {
		t.Errorf("WinRateByCase.Overall = %v, want 100", r.WinRateByCase.Overall)
	}
	if r.EloMetricsByCase.Overall.AverageEloGain != 7 {
		t.Errorf("AverageEloGain = %v, want 7", r.EloMetricsByCase.Overall.AverageEloGain)
	}
	if r.EloMetricsByCase.Overall.AverageElo != 500 {
		t.Errorf("AverageElo = %v, want 500", r.EloMetricsByCase.Overall.AverageElo)
	}
	if r.PaymentDistribution["(3,)"] != 1 {
		t.Errorf("PaymentDistribution = %v, want (3,) once", r.PaymentDistribution)
	}
	if r.DrawnAndPlayedByGen["(2,4)"] != 1 {
		t.Errorf("DrawnAndPlayedByGen = %v, want (2,4) once", r.DrawnAndPlayedByGen)
	}
	if r.DraftBuy.BuyToDraft2Rate != 1 {
		t.Errorf("BuyToDraft2Rate = %v, want 1", r.DraftBuy.BuyToDraft2Rate)
	}
	if r.PlayRates.PlayToBuyDuringGameRate != 1 {
		t.Errorf("PlayToBuyDuringGameRate = %v, want 1", r.PlayRates.PlayToBuyDuringGameRate)
	}
	if r.PlayerCorporations["Tharsis Republic"] != 1 {
		t.Errorf("PlayerCorporations = %v, want Tharsis Republic once", r.PlayerCorporations)
	}
	if r.PreludeStats.GamesWith != 1 {
		t.Errorf("PreludeStats.GamesWith = %d, want 1", r.PreludeStats.GamesWith)
	}

	if a.Finalize() != r {
		t.Error("Finalize must be idempotent and return the same report")
	}
}

func TestAccumulatorLastDrawWins(t *testing.T) {
	a := NewAccumulator("Birds")

	// Two draws in one game: only the final one counts.
	a.Record(&GameEvents{
		ReplayID:      "r1",
		PerspectiveID: "p1",
		Moves: []tm.ClassifiedMove{
			{MoveType: "draw_placement", MoveNumber: 20, Generation: 3},
			{MoveType: "draw_ai_central", MoveNumber: 44, Generation: 5},
		},
		LastDrawLabel:      "draw_ai_central",
		LastDrawGeneration: 5,
	})

	if a.DrawnCount != 1 {
		t.Errorf("DrawnCount = %d, want 1", a.DrawnCount)
	}
	if a.DrawMethods["draw_ai_central"] != 1 || a.DrawMethods["draw_placement"] != 0 {
		t.Errorf("DrawMethods = %v, want only draw_ai_central", a.DrawMethods)
	}
	if a.DrawnByGeneration[5] != 1 || a.DrawnByGeneration[3] != 0 {
		t.Errorf("DrawnByGeneration = %v, want only gen 5", a.DrawnByGeneration)
	}
	if a.DrawFree[5] != 1 {
		t.Errorf("DrawFree = %v, want gen 5 once", a.DrawFree)
	}
	if len(a.MultipleDrawsGames) != 1 {
		t.Errorf("MultipleDrawsGames = %v, want the game flagged", a.MultipleDrawsGames)
	}

	r := a.Finalize()
	if r.DrawnNotPlayedByGen[5] != 1 {
		t.Errorf("DrawnNotPlayedByGen = %v, want gen 5 once", r.DrawnNotPlayedByGen)
	}
}

func TestAccumulatorKeptInHand(t *testing.T) {
	a := NewAccumulator("Birds")

	a.Record(&GameEvents{
		ReplayID:           "r1",
		PerspectiveID:      "p1",
		KeptInHand:         true,
		CardInStartingHand: true,
		Moves: []tm.ClassifiedMove{
			{MoveType: "draw_start", MoveNumber: 2, Generation: 1},
			{MoveType: "play", MoveNumber: 8, Generation: 1},
		},
		LastDrawLabel:      "draw_start",
		LastDrawGeneration: 1,
		Played:             true,
		PlayedGeneration:   1,
		PlayCount:          1,
	})
	a.Record(&GameEvents{
		ReplayID:           "r2",
		PerspectiveID:      "p1",
		KeptInHand:         true,
		CardInStartingHand: true,
		Moves: []tm.ClassifiedMove{
			{MoveType: "draw_start", MoveNumber: 2, Generation: 1},
		},
		LastDrawLabel:      "draw_start",
		LastDrawGeneration: 1,
	})

	if a.KeptInStartingHand != 2 || a.KeptAndPlayed != 1 || a.KeptButNotPlayed != 1 {
		t.Errorf("kept counters = %d/%d/%d, want 2/1/1",
			a.KeptInStartingHand, a.KeptAndPlayed, a.KeptButNotPlayed)
	}
	if a.SeenMethods["starting_hand"] != 2 {
		t.Errorf("SeenMethods[starting_hand] = %d, want 2", a.SeenMethods["starting_hand"])
	}

	r := a.Finalize()
	if r.StartingHand.PlayToKeepRate != 0.5 {
		t.Errorf("PlayToKeepRate = %v, want 0.5", r.StartingHand.PlayToKeepRate)
	}
	if r.StartingHand.KeepRate != 1 {
		t.Errorf("KeepRate = %v, want 1", r.StartingHand.KeepRate)
	}
}

func TestFinalizeEmptyAccumulator(t *testing.T) {
	r := NewAccumulator("Birds").Finalize()

	if r.WinRateByCase.Overall != 0 {
		t.Errorf("WinRateByCase.Overall = %v, want 0", r.WinRateByCase.Overall)
	}
	if r.StartingHand.PlayToKeepRate != 0 || r.StartingHand.KeepRate != 0 {
		t.Errorf("starting hand rates = %v, want zeros", r.StartingHand)
	}
	if r.DraftBuy.BuyToDraftRate != 0 {
		t.Errorf("BuyToDraftRate = %v, want 0", r.DraftBuy.BuyToDraftRate)
	}
	if r.PlayRates.PlayToDrawForFreeRate != 0 {
		t.Errorf("PlayToDrawForFreeRate = %v, want 0", r.PlayRates.PlayToDrawForFreeRate)
	}
	if r.MultiplePlaysReplayIDs == nil || r.PlayedButNotDrawnIDs == nil {
		t.Error("audit slices must be empty, not nil")
	}
}

func TestRoundingHelpers(t *testing.T) {
	if got := rate(1, 3); got != 0.3333 {
		t.Errorf("rate(1,3) = %v, want 0.3333", got)
	}
	if got := pct(1, 3); got != 33.3333 {
		t.Errorf("pct(1,3) = %v, want 33.3333", got)
	}
	if got := rate(5, 0); got != 0 {
		t.Errorf("rate(5,0) = %v, want 0", got)
	}
	if got := paymentKey(nil); got != "()" {
		t.Errorf("paymentKey(nil) = %q, want ()", got)
	}
	if got := paymentKey([]int{3}); got != "(3,)" {
		t.Errorf("paymentKey = %q, want (3,)", got)
	}
	if got := paymentKey([]int{3, 5}); got != "(3, 5)" {
		t.Errorf("paymentKey = %q, want (3, 5)", got)
	}
	if got := genPairKey(false, 0, 7); got != "(None,7)" {
		t.Errorf("genPairKey = %q, want (None,7)", got)
	}
	if got := genPairKey(true, 2, 7); got != "(2,7)" {
		t.Errorf("genPairKey = %q, want (2,7)", got)
	}
}

func TestAccumulatorContextRouting(t *testing.T) {
	a := NewAccumulator("Acquired Company")
	takeback := true

	a.Record(&GameEvents{
		ReplayID:      "r1",
		PerspectiveID: "p1",
		Game:          wonGame("r1"),
		Moves: []tm.ClassifiedMove{
			{MoveType: "draft_2", MoveNumber: 10, Generation: 2},
		},
		Contexts: []MoveContext{
			{ReplayID: "r1", MoveType: "draft_2"},
			{ReplayID: "r1", MoveType: "draft_1", HasTakeback: &takeback},
			{ReplayID: "r1", MoveType: "draw_draft_buy"},
			{ReplayID: "r1", MoveType: "draw_ai_central"},
			{ReplayID: "r1", MoveType: "other_scoring"},
			{ReplayID: "r1", MoveType: "other_scoring", WidenedWindow: true},
		},
	})

	if got := len(a.DraftNoTakebackContext["r1"]); got != 1 {
		t.Errorf("DraftNoTakebackContext = %d entries, want 1", got)
	}
	if got := len(a.DraftTakebackContext["r1"]); got != 1 {
		t.Errorf("DraftTakebackContext = %d entries, want 1", got)
	}
	if got := len(a.DrawDraftBuyContext["r1"]); got != 1 {
		t.Errorf("DrawDraftBuyContext = %d entries, want 1", got)
	}
	if got := len(a.OtherContext["r1"]); got != 1 {
		t.Errorf("OtherContext = %d entries, want 1", got)
	}
	// A widened window keeps the move in the draw context even when the
	// refined label is other_*.
	if got := len(a.DrawContext["r1"]); got != 2 {
		t.Errorf("DrawContext = %d entries, want 2", got)
	}
	for _, ctx := range a.DrawContext["r1"] {
		if ctx.MoveType != "draw_ai_central" && !ctx.WidenedWindow {
			t.Errorf("unexpected draw context entry %q", ctx.MoveType)
		}
	}
}
