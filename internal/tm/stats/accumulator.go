// Package stats folds classified card events, game by game, into one
// per-card statistics accumulator and finalizes it into the card's
// report. One accumulator is owned by exactly one card analysis; separate
// cards can be folded concurrently as long as each has its own
// accumulator.
package stats

import (
	"strings"

	"github.com/tfm-insights/card-tracker/internal/tm"
	"github.com/tfm-insights/card-tracker/internal/tm/patterns"
)

// DraftMove records one resolved draft move within a game, used for
// draft-to-buy relationship counting.
type DraftMove struct {
	Label      string
	MoveNumber int
	Generation int
}

// BuyMove records one draft-buy move within a game.
type BuyMove struct {
	MoveNumber int
	Generation int
}

// MoveSnapshot is a description/action-tag pair captured for audit
// context output.
type MoveSnapshot struct {
	Description string `json:"description"`
	ActionType  string `json:"action_type"`
}

// MoveContext is the audit capture retained for draft, generic-draw,
// draft-buy and other moves: the focal move plus the four moves before it.
type MoveContext struct {
	ReplayID      string       `json:"replay_id"`
	MoveNumber    int          `json:"move_number"`
	Generation    int          `json:"generation"`
	MoveType      string       `json:"move_type"`
	DraftType     string       `json:"draft_type,omitempty"`
	HasTakeback   *bool        `json:"has_takeback,omitempty"`
	IncorrectSlot int          `json:"incorrect_draft,omitempty"`
	WidenedWindow bool         `json:"additional_draw_decider,omitempty"`
	Current       MoveSnapshot `json:"current_move"`
	Prev          MoveSnapshot `json:"prev_move"`
	Prev2         MoveSnapshot `json:"prev_prev_move"`
	Prev3         MoveSnapshot `json:"prev_3_move"`
	Prev4         MoveSnapshot `json:"prev_4_move"`
}

// GameEvents is one walked game's contribution to the accumulator: the
// finalized classified move list plus the per-game derived state the
// walker tracked.
type GameEvents struct {
	ReplayID      string
	PerspectiveID string
	Game          *tm.Game

	Moves []tm.ClassifiedMove

	KeptInHand         bool
	CardInStartingHand bool

	// Last-draw-wins: only the final draw of the game counts.
	LastDrawLabel      string
	LastDrawGeneration int

	Played           bool
	PlayedGeneration int
	PlayCount        int

	DraftMoves []DraftMove
	BuyMoves   []BuyMove
	Contexts   []MoveContext
}

// Accumulator is the mutable per-card statistics object. Created empty,
// mutated once per game via Record, finalized exactly once via Finalize.
type Accumulator struct {
	CardName string

	TotalGamesAnalyzed int
	TotalGamesWithCard int

	KeptInStartingHand int
	KeptAndPlayed      int
	KeptButNotPlayed   int

	DrawnCount  int
	PlayedCount int

	DrawnByGeneration  map[int]int
	PlayedByGeneration map[int]int

	DrawMethods map[string]int
	SeenMethods map[string]int
	OtherStats  map[string]int

	DrawFree   map[int]int // free draws by generation
	DrawAndBuy map[int]int // buy draws by generation
	DrawForTwo map[int]int // Restricted Area draws by generation

	DrawnAndPlayedByGen []string // "(drawnGen,playedGen)" pairs
	DrawnNotPlayedByGen []int

	PaymentAmounts [][]int

	WinCount int
	EloGains EloHistogram

	EloValues []int // rating change per game
	GameRanks []int // rating at game start per game

	Corporations map[string]int

	GamesWithPrelude    int
	GamesWithoutPrelude int
	WinsWithPrelude     int
	WinsWithoutPrelude  int

	TotalGamesWhenSeen   int
	TotalGamesWhenDrawn  int
	TotalGamesWhenBought int
	TotalGamesWhenPlayed int

	WinsWhenSeen   int
	WinsWhenDrawn  int
	WinsWhenBought int
	WinsWhenPlayed int

	EloValuesWhenSeen   []int
	EloValuesWhenDrawn  []int
	EloValuesWhenBought []int
	EloValuesWhenPlayed []int

	GameRanksWhenSeen   []int
	GameRanksWhenDrawn  []int
	GameRanksWhenBought []int
	GameRanksWhenPlayed []int

	DraftBuys [5]int // index 1..4: buys following draft_N

	PlaysWhenBought        int
	PlaysWhenBoughtOverall int
	PlaysWhenDrawnFree     int

	MultipleDrawsGames      map[string][]tm.ClassifiedMove
	MultiplePlaysReplayIDs  []string
	SeenMoreThanOnceGames   map[string][]tm.ClassifiedMove
	PlayedButNotDrawnIDs    []string
	BuyWithoutDraftReplayID []string

	GameMovesByCard map[string][]tm.ClassifiedMove

	DraftTakebackContext   map[string][]MoveContext
	DraftNoTakebackContext map[string][]MoveContext
	DrawContext            map[string][]MoveContext
	DrawDraftBuyContext    map[string][]MoveContext
	OtherContext           map[string][]MoveContext

	report *Report // set by Finalize; latches idempotence
}

// NewAccumulator creates an empty accumulator for one card.
func NewAccumulator(card string) *Accumulator {
	return &Accumulator{
		CardName:               card,
		DrawnByGeneration:      map[int]int{},
		PlayedByGeneration:     map[int]int{},
		DrawMethods:            map[string]int{},
		SeenMethods:            map[string]int{},
		OtherStats:             map[string]int{},
		DrawFree:               map[int]int{},
		DrawAndBuy:             map[int]int{},
		DrawForTwo:             map[int]int{},
		EloGains:               NewEloHistogram(),
		Corporations:           map[string]int{},
		MultipleDrawsGames:     map[string][]tm.ClassifiedMove{},
		SeenMoreThanOnceGames:  map[string][]tm.ClassifiedMove{},
		GameMovesByCard:        map[string][]tm.ClassifiedMove{},
		DraftTakebackContext:   map[string][]MoveContext{},
		DraftNoTakebackContext: map[string][]MoveContext{},
		DrawContext:            map[string][]MoveContext{},
		DrawDraftBuyContext:    map[string][]MoveContext{},
		OtherContext:           map[string][]MoveContext{},
	}
}

func isDrawLabel(label string) bool { return strings.HasPrefix(label, "draw") }

func isOtherLabel(label string) bool { return strings.HasPrefix(label, "other") }

// isSeenLabel reports whether the label records the card being seen
// without being drawn: drafts, reveals, research drafts, mechanism offers.
func isSeenLabel(label string) bool {
	return label != "" && label != "play" && !isDrawLabel(label) && !isOtherLabel(label)
}

// Record folds one walked game into the accumulator.
func (a *Accumulator) Record(ev *GameEvents) {
	a.TotalGamesAnalyzed++

	if ev.KeptInHand {
		a.KeptInStartingHand++
	}
	if ev.CardInStartingHand {
		a.SeenMethods["starting_hand"]++
	}

	for _, m := range ev.Moves {
		switch {
		case m.MoveType == "play" || isDrawLabel(m.MoveType):
			// Plays and draws are counted once per game below.
		case isOtherLabel(m.MoveType):
			a.OtherStats[m.MoveType]++
		default:
			a.SeenMethods[m.MoveType]++
		}
	}

	if ev.Played {
		a.PlayedByGeneration[ev.PlayedGeneration]++
		a.PlayedCount++
	}
	if ev.PlayCount > 1 {
		a.MultiplePlaysReplayIDs = append(a.MultiplePlaysReplayIDs, ev.ReplayID)
	}

	if ev.KeptInHand && ev.Played {
		a.KeptAndPlayed++
		a.DrawnAndPlayedByGen = append(a.DrawnAndPlayedByGen,
			genPairKey(ev.LastDrawLabel != "", ev.LastDrawGeneration, ev.PlayedGeneration))
	} else if ev.KeptInHand {
		a.KeptButNotPlayed++
	}

	a.recordPayments(ev)
	a.recordLastDraw(ev)
	a.recordDraftBuyRelationships(ev)
	a.recordAuditCaptures(ev)
	a.recordContexts(ev)

	seen, drawn, bought, played := a.recordGameFlags(ev)
	if a.gameHasCard(ev) {
		a.TotalGamesWithCard++
		a.GameMovesByCard[ev.ReplayID+"_"+ev.PerspectiveID] = ev.Moves
		a.recordOutcome(ev, seen, drawn, bought, played)
	}

	// Drawn/played generation pairing for the per-game outcome.
	switch {
	case ev.LastDrawLabel != "" && ev.Played:
		a.DrawnAndPlayedByGen = append(a.DrawnAndPlayedByGen,
			genPairKey(true, ev.LastDrawGeneration, ev.PlayedGeneration))
	case ev.LastDrawLabel != "":
		a.DrawnNotPlayedByGen = append(a.DrawnNotPlayedByGen, ev.LastDrawGeneration)
	case ev.Played:
		// Played without any recorded draw: kept for audit.
		a.DrawnAndPlayedByGen = append(a.DrawnAndPlayedByGen,
			genPairKey(true, 0, ev.PlayedGeneration))
		a.PlayedButNotDrawnIDs = append(a.PlayedButNotDrawnIDs, ev.ReplayID)
	}
}

func (a *Accumulator) recordPayments(ev *GameEvents) {
	for _, m := range ev.Moves {
		if m.MoveType == "play" {
			if m.Paid == nil {
				a.PaymentAmounts = append(a.PaymentAmounts, []int{})
			} else {
				a.PaymentAmounts = append(a.PaymentAmounts, m.Paid)
			}
		}
	}
}

// recordLastDraw applies last-draw-wins: only the game's final draw
// counts toward drawn_count and the generation histograms.
func (a *Accumulator) recordLastDraw(ev *GameEvents) {
	if ev.LastDrawLabel == "" {
		return
	}
	a.DrawMethods[ev.LastDrawLabel]++
	a.DrawnByGeneration[ev.LastDrawGeneration]++
	a.DrawnCount++

	if patterns.IsFreeDrawMethod(ev.LastDrawLabel) {
		a.DrawFree[ev.LastDrawGeneration]++
	}
	if patterns.IsBuyMethod(ev.LastDrawLabel) {
		a.DrawAndBuy[ev.LastDrawGeneration]++
	}
	if ev.LastDrawLabel == "draw_restricted_area" {
		a.DrawForTwo[ev.LastDrawGeneration]++
	}
}

func (a *Accumulator) recordDraftBuyRelationships(ev *GameEvents) {
	if len(ev.BuyMoves) > 0 && len(ev.DraftMoves) == 0 {
		a.BuyWithoutDraftReplayID = append(a.BuyWithoutDraftReplayID, ev.ReplayID)
	}
	for _, d := range ev.DraftMoves {
		slot := draftSlotOf(d.Label)
		if slot == 0 {
			continue
		}
		for _, b := range ev.BuyMoves {
			if b.MoveNumber > d.MoveNumber {
				a.DraftBuys[slot]++
				break // only the first buy after this draft
			}
		}
	}
}

func draftSlotOf(label string) int {
	switch label {
	case "draft_1":
		return 1
	case "draft_2":
		return 2
	case "draft_3":
		return 3
	case "draft_4":
		return 4
	}
	return 0
}

func (a *Accumulator) recordAuditCaptures(ev *GameEvents) {
	drawCount := 0
	seenCount := 0
	for _, m := range ev.Moves {
		if isDrawLabel(m.MoveType) {
			drawCount++
		}
		if isSeenLabel(m.MoveType) && m.MoveType != "research_draft_drafted" {
			seenCount++
		}
	}
	if ev.CardInStartingHand {
		seenCount++
	}
	if drawCount > 1 {
		a.MultipleDrawsGames[ev.ReplayID] = ev.Moves
	}
	if seenCount > 1 {
		a.SeenMoreThanOnceGames[ev.ReplayID] = ev.Moves
	}
}

func (a *Accumulator) recordContexts(ev *GameEvents) {
	for _, ctx := range ev.Contexts {
		switch {
		case strings.HasPrefix(ctx.MoveType, "draft"):
			if ctx.HasTakeback != nil && *ctx.HasTakeback {
				a.DraftTakebackContext[ev.ReplayID] = append(a.DraftTakebackContext[ev.ReplayID], ctx)
			} else {
				a.DraftNoTakebackContext[ev.ReplayID] = append(a.DraftNoTakebackContext[ev.ReplayID], ctx)
			}
		case ctx.MoveType == "draw_draft_buy":
			a.DrawDraftBuyContext[ev.ReplayID] = append(a.DrawDraftBuyContext[ev.ReplayID], ctx)
		case ctx.WidenedWindow:
			// Widened-window moves stay in the draw context even when
			// refinement settled on an other_* label.
			a.DrawContext[ev.ReplayID] = append(a.DrawContext[ev.ReplayID], ctx)
		case isOtherLabel(ctx.MoveType):
			a.OtherContext[ev.ReplayID] = append(a.OtherContext[ev.ReplayID], ctx)
		default:
			a.DrawContext[ev.ReplayID] = append(a.DrawContext[ev.ReplayID], ctx)
		}
	}
}

// gameHasCard reports whether any classified move concerned the card in a
// non-incidental way.
func (a *Accumulator) gameHasCard(ev *GameEvents) bool {
	for _, m := range ev.Moves {
		if !isOtherLabel(m.MoveType) {
			return true
		}
	}
	return false
}

// recordGameFlags derives and counts the per-game cases used by the
// win-rate and play-rate breakdowns.
func (a *Accumulator) recordGameFlags(ev *GameEvents) (seen, drawn, bought, played bool) {
	drawnFree := false
	for _, m := range ev.Moves {
		l := m.MoveType
		if isDrawLabel(l) {
			drawn = true
			seen = true
			if !patterns.IsBuyMethod(l) && l != "draw_start" {
				drawnFree = true
			}
			if patterns.IsBuyMethod(l) {
				bought = true
			}
		}
		if isSeenLabel(l) && !strings.HasPrefix(l, "reveal") {
			seen = true
		}
		if l == "play" {
			played = true
		}
	}
	if ev.CardInStartingHand {
		seen = true
	}

	if !a.gameHasCard(ev) {
		return seen, drawn, bought, played
	}

	if seen {
		a.TotalGamesWhenSeen++
	}
	if drawn {
		a.TotalGamesWhenDrawn++
	}
	if bought {
		a.TotalGamesWhenBought++
	}
	if played {
		a.TotalGamesWhenPlayed++
	}

	if bought && played {
		a.PlaysWhenBought++
	}
	if (bought || ev.KeptInHand) && played {
		a.PlaysWhenBoughtOverall++
	}
	if drawnFree && played {
		a.PlaysWhenDrawnFree++
	}
	return seen, drawn, bought, played
}

// recordOutcome folds the game result and rating data for the
// perspective player.
func (a *Accumulator) recordOutcome(ev *GameEvents, seen, drawn, bought, played bool) {
	g := ev.Game
	if g == nil {
		return
	}

	if g.PreludeOn {
		a.GamesWithPrelude++
	} else {
		a.GamesWithoutPrelude++
	}

	p := g.PerspectivePlayer()
	if p == nil {
		return
	}

	corp := p.Corporation
	if corp == "" {
		corp = "unknown"
	}
	a.Corporations[corp]++

	won := p.PlayerName != "" && p.PlayerName == g.Winner
	if won {
		a.WinCount++
		if seen {
			a.WinsWhenSeen++
		}
		if drawn {
			a.WinsWhenDrawn++
		}
		if bought {
			a.WinsWhenBought++
		}
		if played {
			a.WinsWhenPlayed++
		}
		if g.PreludeOn {
			a.WinsWithPrelude++
		} else {
			a.WinsWithoutPrelude++
		}
	}

	if p.EloData == nil {
		return
	}
	change := p.EloData.GameRankChange.Value
	rank := p.EloData.GameRank.Value

	a.EloGains.Add(change)
	a.EloValues = append(a.EloValues, change)
	a.GameRanks = append(a.GameRanks, rank)

	if seen {
		a.EloValuesWhenSeen = append(a.EloValuesWhenSeen, change)
		a.GameRanksWhenSeen = append(a.GameRanksWhenSeen, rank)
	}
	if drawn {
		a.EloValuesWhenDrawn = append(a.EloValuesWhenDrawn, change)
		a.GameRanksWhenDrawn = append(a.GameRanksWhenDrawn, rank)
	}
	if bought {
		a.EloValuesWhenBought = append(a.EloValuesWhenBought, change)
		a.GameRanksWhenBought = append(a.GameRanksWhenBought, rank)
	}
	if played {
		a.EloValuesWhenPlayed = append(a.EloValuesWhenPlayed, change)
		a.GameRanksWhenPlayed = append(a.GameRanksWhenPlayed, rank)
	}
}
