package stats

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tfm-insights/card-tracker/internal/tm"
	"github.com/tfm-insights/card-tracker/internal/tm/patterns"
)

// WinCountByCase breaks the win count down by how the card entered the
// perspective player's game.
type WinCountByCase struct {
	Overall    int `json:"overall"`
	WhenSeen   int `json:"when_seen"`
	WhenDrawn  int `json:"when_drawn"`
	WhenBought int `json:"when_bought_during_game"`
	WhenPlayed int `json:"when_played"`
}

// WinRateByCase holds the percentage win rates for the same cases.
type WinRateByCase struct {
	Overall    float64 `json:"overall"`
	WhenSeen   float64 `json:"when_seen"`
	WhenDrawn  float64 `json:"when_drawn"`
	WhenBought float64 `json:"when_bought_during_game"`
	WhenPlayed float64 `json:"when_played"`
}

// EloMetrics pairs the average rating change with the average rating at
// game start for one case.
type EloMetrics struct {
	AverageEloGain float64 `json:"average_elo_gain"`
	AverageElo     float64 `json:"average_elo"`
}

// EloMetricsByCase holds rating metrics per entry case.
type EloMetricsByCase struct {
	Overall    EloMetrics `json:"overall"`
	WhenSeen   EloMetrics `json:"when_seen"`
	WhenDrawn  EloMetrics `json:"when_drawn"`
	WhenBought EloMetrics `json:"when_bought_during_game"`
	WhenPlayed EloMetrics `json:"when_played"`
}

// PreludeStats splits game counts and win rates by whether the prelude
// expansion was active.
type PreludeStats struct {
	GamesWith      int     `json:"games_with_prelude"`
	GamesWithout   int     `json:"games_without_prelude"`
	WinRateWith    float64 `json:"win_rate_with_prelude"`
	WinRateWithout float64 `json:"win_rate_without_prelude"`
}

// StartingHandStats covers the card's fate when offered in the opening
// hand.
type StartingHandStats struct {
	KeptInStartingHand int     `json:"kept_in_starting_hand"`
	KeptAndPlayed      int     `json:"kept_and_played"`
	KeptButNotPlayed   int     `json:"kept_but_not_played"`
	PlayToKeepRate     float64 `json:"play_to_keep_rate"`
	KeepRate           float64 `json:"keep_rate"`
}

// DraftBuyStats relates draft slots to subsequent research-phase buys.
type DraftBuyStats struct {
	Draft1Buys      int     `json:"draft_1_buys"`
	Draft2Buys      int     `json:"draft_2_buys"`
	Draft3Buys      int     `json:"draft_3_buys"`
	Draft4Buys      int     `json:"draft_4_buys"`
	BuyToDraftRate  float64 `json:"buy_to_draft_rate"`
	BuyToDraft1Rate float64 `json:"buy_to_draft_1_rate"`
	BuyToDraft2Rate float64 `json:"buy_to_draft_2_rate"`
	BuyToDraft3Rate float64 `json:"buy_to_draft_3_rate"`
	BuyToDraft4Rate float64 `json:"buy_to_draft_4_rate"`
}

// PlayRateStats relates plays to the acquisition paths that preceded them.
type PlayRateStats struct {
	PlayToBuyDuringGameRate float64 `json:"play_to_buy_during_game_rate"`
	PlayToBuyOverallRate    float64 `json:"play_to_buy_overall_rate"`
	PlayToDrawForFreeRate   float64 `json:"play_to_draw_for_free_rate"`
	PlayPerOptionRate       float64 `json:"play_per_option_rate"`
	PlayPerCardInHandRate   float64 `json:"play_per_card_in_hand_rate"`
	PlaysWhenBought         int     `json:"plays_when_bought_during_game"`
	PlaysWhenBoughtOverall  int     `json:"plays_when_bought_overall"`
	PlaysWhenDrawnFree      int     `json:"plays_when_drawn_for_free"`
}

// Report is the finalized per-card analysis. Field order matches the
// JSON layout consumers expect, statistics first and raw captures last.
type Report struct {
	CardName           string `json:"card_name"`
	TotalGamesAnalyzed int    `json:"total_games_analyzed"`
	TotalGamesWithCard int    `json:"total_games_with_card"`
	SeenCount          int    `json:"seen_count"`
	DrawnCount         int    `json:"drawn_count"`
	PlayedCount        int    `json:"played_count"`

	WinCountByCase   WinCountByCase    `json:"win_count_by_case"`
	WinRateByCase    WinRateByCase     `json:"win_rate_by_case"`
	EloMetricsByCase EloMetricsByCase  `json:"elo_metrics_by_case"`
	PreludeStats     PreludeStats      `json:"prelude_stats"`
	StartingHand     StartingHandStats `json:"starting_hand_stats"`
	DraftBuy         DraftBuyStats     `json:"draft_buy_stats"`
	PlayRates        PlayRateStats     `json:"play_rate_stats"`

	KeepRates           map[string]float64 `json:"keep_rates"`
	DrawMethods         map[string]int     `json:"draw_methods"`
	SeenMethods         map[string]int     `json:"seen_methods"`
	PaymentDistribution map[string]int     `json:"payment_distribution"`
	OtherStats          map[string]int     `json:"other_stats"`
	EloGains            EloHistogram       `json:"elo_gains"`

	DrawnByGeneration   map[int]int    `json:"drawn_by_generation"`
	PlayedByGeneration  map[int]int    `json:"played_by_generation"`
	DrawFree            map[int]int    `json:"draw_free"`
	DrawAndBuy          map[int]int    `json:"draw_and_buy"`
	DrawForTwo          map[int]int    `json:"draw_for_2"`
	DrawnAndPlayedByGen map[string]int `json:"drawn_and_played_by_gen"`
	DrawnNotPlayedByGen map[int]int    `json:"drawn_not_played_by_gen"`

	PlayerCorporations map[string]int `json:"player_corporations"`

	MultipleDrawsReplayIDs []string                      `json:"multiple_draws_replay_ids"`
	MultiplePlaysReplayIDs []string                      `json:"multiple_plays_replay_ids"`
	MultipleDrawsGames     map[string][]tm.ClassifiedMove `json:"multiple_draws_games"`
	SeenMoreThanOnceGames  map[string][]tm.ClassifiedMove `json:"moves_card_seen_more_than_once"`
	PlayedButNotDrawnIDs   []string                      `json:"played_but_not_drawn_ids"`

	// The context captures and per-game move lists are written to their
	// own files by the export layer, hence omitempty.
	DraftTakebackContext   map[string][]MoveContext `json:"draft_takeback_context,omitempty"`
	DraftNoTakebackContext map[string][]MoveContext `json:"draft_no_takebacks_context,omitempty"`
	DrawContext            map[string][]MoveContext `json:"draw_context,omitempty"`
	DrawDraftBuyContext    map[string][]MoveContext `json:"draw_draft_buy_context,omitempty"`
	OtherContext           map[string][]MoveContext `json:"other_context,omitempty"`

	GameMovesByCard             map[string][]tm.ClassifiedMove `json:"game_moves_by_card,omitempty"`
	DraftBuyWithoutDraftGameIDs []string                       `json:"draw_draft_buy_without_draft_ids"`
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}

// rate divides with round-to-4-decimals; zero denominator yields 0.
func rate(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return round4(float64(n) / float64(d))
}

// pct is rate expressed as a percentage.
func pct(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return round4(float64(n) / float64(d) * 100)
}

func meanInt(vs []int) float64 {
	if len(vs) == 0 {
		return 0
	}
	sum := 0
	for _, v := range vs {
		sum += v
	}
	return round4(float64(sum) / float64(len(vs)))
}

func genPairKey(hasDraw bool, drawnGen, playedGen int) string {
	if !hasDraw {
		return fmt.Sprintf("(None,%d)", playedGen)
	}
	return fmt.Sprintf("(%d,%d)", drawnGen, playedGen)
}

// paymentKey formats one play's payment amounts the way the payment
// distribution is keyed: "()", "(3,)", "(3, 5)". A single payment
// carries a trailing comma.
func paymentKey(paid []int) string {
	if len(paid) == 0 {
		return "()"
	}
	if len(paid) == 1 {
		return "(" + strconv.Itoa(paid[0]) + ",)"
	}
	parts := make([]string, len(paid))
	for i, p := range paid {
		parts[i] = strconv.Itoa(p)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Finalize computes every derived rate and returns the finished report.
// It is idempotent; repeat calls return the same report.
func (a *Accumulator) Finalize() *Report {
	if a.report != nil {
		return a.report
	}

	r := &Report{
		CardName:           a.CardName,
		TotalGamesAnalyzed: a.TotalGamesAnalyzed,
		TotalGamesWithCard: a.TotalGamesWithCard,
		SeenCount:          a.TotalGamesWhenSeen,
		DrawnCount:         a.DrawnCount,
		PlayedCount:        a.PlayedCount,

		KeepRates:           map[string]float64{},
		DrawMethods:         a.DrawMethods,
		SeenMethods:         a.SeenMethods,
		PaymentDistribution: map[string]int{},
		OtherStats:          a.OtherStats,
		EloGains:            a.EloGains,

		DrawnByGeneration:   a.DrawnByGeneration,
		PlayedByGeneration:  a.PlayedByGeneration,
		DrawFree:            a.DrawFree,
		DrawAndBuy:          a.DrawAndBuy,
		DrawForTwo:          a.DrawForTwo,
		DrawnAndPlayedByGen: map[string]int{},
		DrawnNotPlayedByGen: map[int]int{},

		PlayerCorporations: a.Corporations,

		MultipleDrawsReplayIDs: keysOf(a.MultipleDrawsGames),
		MultiplePlaysReplayIDs: emptyIfNil(a.MultiplePlaysReplayIDs),
		MultipleDrawsGames:     a.MultipleDrawsGames,
		SeenMoreThanOnceGames:  a.SeenMoreThanOnceGames,
		PlayedButNotDrawnIDs:   emptyIfNil(a.PlayedButNotDrawnIDs),

		DraftTakebackContext:   a.DraftTakebackContext,
		DraftNoTakebackContext: a.DraftNoTakebackContext,
		DrawContext:            a.DrawContext,
		DrawDraftBuyContext:    a.DrawDraftBuyContext,
		OtherContext:           a.OtherContext,

		GameMovesByCard:             a.GameMovesByCard,
		DraftBuyWithoutDraftGameIDs: emptyIfNil(a.BuyWithoutDraftReplayID),
	}

	for _, key := range a.DrawnAndPlayedByGen {
		r.DrawnAndPlayedByGen[key]++
	}
	for _, gen := range a.DrawnNotPlayedByGen {
		r.DrawnNotPlayedByGen[gen]++
	}
	for _, paid := range a.PaymentAmounts {
		r.PaymentDistribution[paymentKey(paid)]++
	}

	r.WinCountByCase = WinCountByCase{
		Overall:    a.WinCount,
		WhenSeen:   a.WinsWhenSeen,
		WhenDrawn:  a.WinsWhenDrawn,
		WhenBought: a.WinsWhenBought,
		WhenPlayed: a.WinsWhenPlayed,
	}

	if a.TotalGamesAnalyzed > 0 {
		r.WinRateByCase = WinRateByCase{
			Overall:    pct(a.WinCount, a.TotalGamesWithCard),
			WhenSeen:   pct(a.WinsWhenSeen, a.TotalGamesWhenSeen),
			WhenDrawn:  pct(a.WinsWhenDrawn, a.TotalGamesWhenDrawn),
			WhenBought: pct(a.WinsWhenBought, a.TotalGamesWhenBought),
			WhenPlayed: pct(a.WinsWhenPlayed, a.TotalGamesWhenPlayed),
		}
		r.EloMetricsByCase = EloMetricsByCase{
			Overall:    EloMetrics{meanInt(a.EloValues), meanInt(a.GameRanks)},
			WhenSeen:   EloMetrics{meanInt(a.EloValuesWhenSeen), meanInt(a.GameRanksWhenSeen)},
			WhenDrawn:  EloMetrics{meanInt(a.EloValuesWhenDrawn), meanInt(a.GameRanksWhenDrawn)},
			WhenBought: EloMetrics{meanInt(a.EloValuesWhenBought), meanInt(a.GameRanksWhenBought)},
			WhenPlayed: EloMetrics{meanInt(a.EloValuesWhenPlayed), meanInt(a.GameRanksWhenPlayed)},
		}
	}

	r.PreludeStats = PreludeStats{
		GamesWith:      a.GamesWithPrelude,
		GamesWithout:   a.GamesWithoutPrelude,
		WinRateWith:    pct(a.WinsWithPrelude, a.GamesWithPrelude),
		WinRateWithout: pct(a.WinsWithoutPrelude, a.GamesWithoutPrelude),
	}

	r.StartingHand = StartingHandStats{
		KeptInStartingHand: a.KeptInStartingHand,
		KeptAndPlayed:      a.KeptAndPlayed,
		KeptButNotPlayed:   a.KeptButNotPlayed,
		PlayToKeepRate:     rate(a.KeptAndPlayed, a.KeptInStartingHand),
		KeepRate:           rate(a.KeptInStartingHand, a.SeenMethods["starting_hand"]),
	}

	totalDrafts := a.SeenMethods["draft_1"] + a.SeenMethods["draft_2"] +
		a.SeenMethods["draft_3"] + a.SeenMethods["draft_4"]
	r.DraftBuy = DraftBuyStats{
		Draft1Buys:      a.DraftBuys[1],
		Draft2Buys:      a.DraftBuys[2],
		Draft3Buys:      a.DraftBuys[3],
		Draft4Buys:      a.DraftBuys[4],
		BuyToDraftRate:  rate(a.DrawMethods["draw_draft_buy"], totalDrafts),
		BuyToDraft1Rate: rate(a.DraftBuys[1], a.SeenMethods["draft_1"]),
		BuyToDraft2Rate: rate(a.DraftBuys[2], a.SeenMethods["draft_2"]),
		BuyToDraft3Rate: rate(a.DraftBuys[3], a.SeenMethods["draft_3"]),
		BuyToDraft4Rate: rate(a.DraftBuys[4], a.SeenMethods["draft_4"]),
	}

	freeDrawGames := 0
	for method, count := range a.DrawMethods {
		if !patterns.IsBuyMethod(method) && method != "draw_start" {
			freeDrawGames += count
		}
	}
	r.PlayRates = PlayRateStats{
		PlayToBuyDuringGameRate: rate(a.PlaysWhenBought, a.TotalGamesWhenBought),
		PlayToBuyOverallRate:    rate(a.PlaysWhenBoughtOverall, a.TotalGamesWhenBought+a.KeptInStartingHand),
		PlayToDrawForFreeRate:   rate(a.PlaysWhenDrawnFree, freeDrawGames),
		PlayPerOptionRate:       rate(a.TotalGamesWhenPlayed, a.TotalGamesWhenSeen),
		PlayPerCardInHandRate:   rate(a.TotalGamesWhenPlayed, a.TotalGamesWhenDrawn),
		PlaysWhenBought:         a.PlaysWhenBought,
		PlaysWhenBoughtOverall:  a.PlaysWhenBoughtOverall,
		PlaysWhenDrawnFree:      a.PlaysWhenDrawnFree,
	}

	r.KeepRates["business_contacts_keep_rate"] = rate(a.DrawMethods["draw_business_contacts_keep"], a.SeenMethods["business_contacts_draw"])
	r.KeepRates["business_network_buy_rate"] = rate(a.DrawMethods["draw_business_network_buy"], a.SeenMethods["business_network_draw"])
	r.KeepRates["invention_contest_keep_rate"] = rate(a.DrawMethods["draw_invention_contest_keep"], a.SeenMethods["invention_contest_draw"])
	r.KeepRates["inventors_guild_buy_rate"] = rate(a.DrawMethods["draw_inventors_guild_buy"], a.SeenMethods["inventors_guild_draw"])

	researchDraftTotal := a.SeenMethods["research_draft_drafted"] + a.SeenMethods["research_draft_not_drafted"]
	r.KeepRates["draft_1_rate"] = rate(a.SeenMethods["draft_1"], researchDraftTotal)
	r.KeepRates["draft_3_rate"] = rate(a.SeenMethods["draft_3"], researchDraftTotal)

	cardBuys := a.DrawMethods["draw_business_network_buy"] + a.DrawMethods["draw_inventors_guild_buy"]
	cardDraws := a.SeenMethods["business_network_draw"] + a.SeenMethods["inventors_guild_draw"]
	r.KeepRates["card_buy_through_card_rate"] = rate(cardBuys, cardDraws)

	a.report = r
	return r
}

func keysOf(m map[string][]tm.ClassifiedMove) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	return ks
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
