package analyzer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tfm-insights/card-tracker/internal/tm"
	"github.com/tfm-insights/card-tracker/internal/tm/classifier"
	"github.com/tfm-insights/card-tracker/internal/tm/stats"
)

var paymentRe = regexp.MustCompile(`pays (\d+)`)

// walkGame classifies every move of one game that mentions the card and
// derives the game-level events the accumulator folds. Returns nil when
// the game has no usable perspective or no moves.
func walkGame(g *tm.Game, card string) (*stats.GameEvents, []string) {
	if g == nil || len(g.Moves) == 0 || g.PlayerPerspective == "" {
		return nil, nil
	}

	perspectiveName, opponentName := g.PlayerNames()
	in := classifier.Input{
		Card:            card,
		PerspectiveID:   g.PlayerPerspective,
		PerspectiveName: perspectiveName,
		OpponentName:    opponentName,
	}

	ev := &stats.GameEvents{
		ReplayID:           g.ReplayID,
		PerspectiveID:      g.PlayerPerspective,
		Game:               g,
		KeptInHand:         keptInStartingHand(g.Moves, g.PlayerPerspective, card),
		CardInStartingHand: cardInStartingHand(g, card),
	}

	var warnings []string
	for i := range g.Moves {
		move := &g.Moves[i]
		if !strings.Contains(move.Description, card) {
			continue
		}
		if skipForeignMove(move, in) {
			continue
		}

		w := classifier.BuildWindow(g.Moves, i, card)
		res := classifier.Classify(in, w)
		warnings = append(warnings, res.Warnings...)
		if res.Label == classifier.LabelSkip {
			continue
		}

		moveType := res.Label
		generation := move.Generation()

		// Ambiguous generic draws get progressively wider windows until
		// a rule settles.
		widened := false
		if moveType == classifier.LabelDraw || moveType == classifier.LabelDrawPlacement {
			widened = true
			for _, offsets := range classifier.WidenOffsets {
				w.Extend(g.Moves, i, offsets)
				res = classifier.Classify(in, w)
				warnings = append(warnings, res.Warnings...)
				moveType = res.Label
				if !classifier.Ambiguous(moveType) {
					break
				}
			}
		}

		hasTakeback := false
		correctedFrom := 0
		if moveType == classifier.LabelDraft {
			dr := classifier.ResolveDraftSlot(g.Moves, i, in)
			moveType = dr.Label
			hasTakeback = dr.HasTakeback
			correctedFrom = dr.CorrectedFrom
			ev.DraftMoves = append(ev.DraftMoves, stats.DraftMove{
				Label:      moveType,
				MoveNumber: move.MoveNumber,
				Generation: generation,
			})
		}

		if moveType == "draw_draft_buy" {
			ev.BuyMoves = append(ev.BuyMoves, stats.BuyMove{
				MoveNumber: move.MoveNumber,
				Generation: generation,
			})
		}

		// Last-draw-wins: remember the game's final draw before any play
		// override below replaces the label.
		if strings.HasPrefix(moveType, "draw") {
			ev.LastDrawLabel = moveType
			ev.LastDrawGeneration = generation
		}

		var paid []int
		if isPlay(move, in, w, ev.Played) {
			ev.Played = true
			ev.PlayedGeneration = generation
			ev.PlayCount++
			moveType = "play"
			paid = parsePayments(move.Description)
		}

		if moveType == classifier.LabelOther {
			moveType = classifier.ClassifyOther(move.Description, move.ActionType,
				w.NextDescription, w.Next2Description, card, opponentName)
		}

		captureContext(ev, g.Moves, i, moveType, hasTakeback, correctedFrom, widened)

		cm := tm.ClassifiedMove{
			Description: move.Description,
			Generation:  generation,
			MoveNumber:  move.MoveNumber,
			ActionType:  move.ActionType,
			MoveType:    moveType,
		}
		if moveType == "play" {
			cm.Paid = paid
		}
		ev.Moves = append(ev.Moves, cm)
	}

	warnings = append(warnings, reclassifyResearchDrafts(ev)...)
	warnings = append(warnings, demoteCloseDrafts(ev)...)
	return ev, warnings
}

// skipForeignMove filters out moves that mention the card but belong to
// the opponent without involving the perspective player. Pass moves are
// always kept since they anchor draft resolution.
func skipForeignMove(move *tm.Move, in classifier.Input) bool {
	if move.PlayerID == in.PerspectiveID || move.ActionType == "pass" {
		return false
	}
	for _, verb := range []string{"draws", "plays", "keeps"} {
		if strings.Contains(move.Description, fmt.Sprintf("%s %s %s", in.PerspectiveName, verb, in.Card)) {
			return false
		}
	}
	return !strings.Contains(move.Description, "You ")
}

// isPlay reports whether the focal move is the perspective player's first
// play of the card. Eccentric Sponsor proxies the card it sponsors.
func isPlay(move *tm.Move, in classifier.Input, w *classifier.Window, alreadyPlayed bool) bool {
	if alreadyPlayed || move.ActionType != "play_card" {
		return false
	}
	if move.CardPlayed != in.Card && move.CardPlayed != "Eccentric Sponsor" {
		return false
	}
	if strings.Contains(w.NextDescription, "undoes") {
		return false
	}
	return !strings.Contains(move.Description, fmt.Sprintf("%s plays card %s", in.OpponentName, in.Card))
}

func parsePayments(description string) []int {
	matches := paymentRe.FindAllStringSubmatch(description, -1)
	paid := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		paid = append(paid, n)
	}
	return paid
}

// keptInStartingHand scans the opening moves for the perspective player
// buying the card during the starting choice. A later "plays" before any
// choice ends the scan.
func keptInStartingHand(moves []tm.Move, perspectiveID, card string) bool {
	kept := false
	for i := range moves {
		move := &moves[i]
		if move.PlayerID != perspectiveID {
			continue
		}
		if strings.Contains(move.Description, "You choose") {
			buy := fmt.Sprintf("You buy %s", card)
			kept = strings.Contains(move.Description, buy+" |") ||
				strings.HasSuffix(move.Description, buy)
		}
		if strings.Contains(move.Description, "plays") {
			break
		}
	}
	return kept
}

// cardInStartingHand reports whether the card was offered in any player's
// recorded opening project cards. Exact title match only.
func cardInStartingHand(g *tm.Game, card string) bool {
	for _, p := range g.Players {
		if p == nil || p.StartingHand == nil {
			continue
		}
		for _, c := range p.StartingHand.ProjectCards {
			if c == card {
				return true
			}
		}
	}
	return false
}

// captureContext retains the focal move plus its four predecessors for
// draft moves, generic and widened draws, draft buys, and unrefined other
// moves.
func captureContext(ev *stats.GameEvents, moves []tm.Move, i int, moveType string, hasTakeback bool, correctedFrom int, widened bool) {
	interesting := strings.HasPrefix(moveType, "draft") ||
		moveType == classifier.LabelDraw ||
		moveType == classifier.LabelDrawPrelude ||
		moveType == classifier.LabelDrawPlacement ||
		moveType == "draw_draft_buy" ||
		moveType == classifier.LabelOther ||
		widened
	if !interesting {
		return
	}

	ctx := stats.MoveContext{
		ReplayID:      ev.ReplayID,
		MoveNumber:    moves[i].MoveNumber,
		Generation:    moves[i].Generation(),
		MoveType:      moveType,
		WidenedWindow: widened,
		Current:       snapshot(moves, i),
		Prev:          snapshot(moves, i-1),
		Prev2:         snapshot(moves, i-2),
		Prev3:         snapshot(moves, i-3),
		Prev4:         snapshot(moves, i-4),
	}
	if strings.HasPrefix(moveType, "draft") {
		ctx.DraftType = moveType
		tb := hasTakeback
		ctx.HasTakeback = &tb
		ctx.IncorrectSlot = correctedFrom
	}
	ev.Contexts = append(ev.Contexts, ctx)
}

func snapshot(moves []tm.Move, i int) stats.MoveSnapshot {
	if i < 0 || i >= len(moves) {
		return stats.MoveSnapshot{}
	}
	return stats.MoveSnapshot{
		Description: moves[i].Description,
		ActionType:  moves[i].ActionType,
	}
}

// reclassifyResearchDrafts resolves the game's research_draft moves once
// the full move list is known: drafted when the game also holds a draft_1
// or draft_3 move, not drafted otherwise.
func reclassifyResearchDrafts(ev *stats.GameEvents) []string {
	hasResearchDraft := false
	hasDraft1or3 := false
	for _, m := range ev.Moves {
		switch m.MoveType {
		case classifier.LabelResearchDraft:
			hasResearchDraft = true
		case "draft_1", "draft_3":
			hasDraft1or3 = true
		}
	}
	if !hasResearchDraft {
		return nil
	}

	resolved := "research_draft_not_drafted"
	if hasDraft1or3 {
		resolved = "research_draft_drafted"
	}
	for i := range ev.Moves {
		if ev.Moves[i].MoveType == classifier.LabelResearchDraft {
			ev.Moves[i].MoveType = resolved
		}
	}
	return nil
}

// demoteCloseDrafts handles a takeback artifact: when a game carries
// exactly two draft moves fewer than 30 moves apart, the earlier one was
// undone and is demoted to other_takeback_draft.
func demoteCloseDrafts(ev *stats.GameEvents) []string {
	var draftIdx []int
	for i, m := range ev.Moves {
		if strings.HasPrefix(m.MoveType, "draft") {
			draftIdx = append(draftIdx, i)
		}
	}
	if len(draftIdx) != 2 {
		return nil
	}

	warnings := []string{fmt.Sprintf("found 2 draft moves in game %s", ev.ReplayID)}
	a, b := draftIdx[0], draftIdx[1]
	dist := ev.Moves[b].MoveNumber - ev.Moves[a].MoveNumber
	if dist < 0 {
		dist = -dist
	}
	if dist >= 30 {
		return warnings
	}

	earlier := a
	if ev.Moves[b].MoveNumber < ev.Moves[a].MoveNumber {
		earlier = b
	}
	ev.Moves[earlier].MoveType = "other_takeback_draft"
	warnings = append(warnings, fmt.Sprintf("demoted draft move %d to other_takeback_draft in game %s",
		ev.Moves[earlier].MoveNumber, ev.ReplayID))
	return warnings
}
