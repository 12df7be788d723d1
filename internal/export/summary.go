package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/tfm-insights/card-tracker/internal/tm/stats"
)

// valueField maps one values-CSV column to its report accessor.
type valueField struct {
	header string
	get    func(r *stats.Report) any
}

// valueFields is the single source of truth for the values CSV layout.
var valueFields = []valueField{
	{"card_name", func(r *stats.Report) any { return r.CardName }},
	{"total_games_analyzed", func(r *stats.Report) any { return r.TotalGamesAnalyzed }},
	{"total_games_with_card", func(r *stats.Report) any { return r.TotalGamesWithCard }},
	{"games_with_prelude", func(r *stats.Report) any { return r.PreludeStats.GamesWith }},
	{"drawn_count", func(r *stats.Report) any { return r.DrawnCount }},
	{"played_count", func(r *stats.Report) any { return r.PlayedCount }},

	{"win_rate_overall", func(r *stats.Report) any { return r.WinRateByCase.Overall }},
	{"elo_gain_overall", func(r *stats.Report) any { return r.EloMetricsByCase.Overall.AverageEloGain }},
	{"win_rate_when_seen", func(r *stats.Report) any { return r.WinRateByCase.WhenSeen }},
	{"elo_gain_when_seen", func(r *stats.Report) any { return r.EloMetricsByCase.WhenSeen.AverageEloGain }},
	{"win_rate_when_drawn", func(r *stats.Report) any { return r.WinRateByCase.WhenDrawn }},
	{"elo_gain_when_drawn", func(r *stats.Report) any { return r.EloMetricsByCase.WhenDrawn.AverageEloGain }},
	{"win_rate_when_bought_during_game", func(r *stats.Report) any { return r.WinRateByCase.WhenBought }},
	{"elo_gain_when_bought_during_game", func(r *stats.Report) any { return r.EloMetricsByCase.WhenBought.AverageEloGain }},
	{"win_rate_when_played", func(r *stats.Report) any { return r.WinRateByCase.WhenPlayed }},
	{"elo_gain_when_played", func(r *stats.Report) any { return r.EloMetricsByCase.WhenPlayed.AverageEloGain }},

	{"win_count_overall", func(r *stats.Report) any { return r.WinCountByCase.Overall }},
	{"win_count_when_seen", func(r *stats.Report) any { return r.WinCountByCase.WhenSeen }},
	{"win_count_when_drawn", func(r *stats.Report) any { return r.WinCountByCase.WhenDrawn }},
	{"win_count_when_bought_during_game", func(r *stats.Report) any { return r.WinCountByCase.WhenBought }},
	{"win_count_when_played", func(r *stats.Report) any { return r.WinCountByCase.WhenPlayed }},

	{"avg_elo_overall", func(r *stats.Report) any { return r.EloMetricsByCase.Overall.AverageElo }},
	{"avg_elo_when_seen", func(r *stats.Report) any { return r.EloMetricsByCase.WhenSeen.AverageElo }},
	{"avg_elo_when_drawn", func(r *stats.Report) any { return r.EloMetricsByCase.WhenDrawn.AverageElo }},
	{"avg_elo_when_bought_during_game", func(r *stats.Report) any { return r.EloMetricsByCase.WhenBought.AverageElo }},
	{"avg_elo_when_played", func(r *stats.Report) any { return r.EloMetricsByCase.WhenPlayed.AverageElo }},

	{"play_to_keep_rate", func(r *stats.Report) any { return r.StartingHand.PlayToKeepRate }},
	{"keep_rate", func(r *stats.Report) any { return r.StartingHand.KeepRate }},
	{"kept_in_starting_hand", func(r *stats.Report) any { return r.StartingHand.KeptInStartingHand }},
	{"kept_and_played", func(r *stats.Report) any { return r.StartingHand.KeptAndPlayed }},
	{"kept_but_not_played", func(r *stats.Report) any { return r.StartingHand.KeptButNotPlayed }},

	{"buy_to_draft_rate", func(r *stats.Report) any { return r.DraftBuy.BuyToDraftRate }},
	{"buy_to_draft_1_rate", func(r *stats.Report) any { return r.DraftBuy.BuyToDraft1Rate }},
	{"buy_to_draft_2_rate", func(r *stats.Report) any { return r.DraftBuy.BuyToDraft2Rate }},
	{"buy_to_draft_3_rate", func(r *stats.Report) any { return r.DraftBuy.BuyToDraft3Rate }},
	{"buy_to_draft_4_rate", func(r *stats.Report) any { return r.DraftBuy.BuyToDraft4Rate }},
	{"draft_1_buys", func(r *stats.Report) any { return r.DraftBuy.Draft1Buys }},
	{"draft_2_buys", func(r *stats.Report) any { return r.DraftBuy.Draft2Buys }},
	{"draft_3_buys", func(r *stats.Report) any { return r.DraftBuy.Draft3Buys }},
	{"draft_4_buys", func(r *stats.Report) any { return r.DraftBuy.Draft4Buys }},

	{"play_to_buy_during_game_rate", func(r *stats.Report) any { return r.PlayRates.PlayToBuyDuringGameRate }},
	{"play_to_buy_overall_rate", func(r *stats.Report) any { return r.PlayRates.PlayToBuyOverallRate }},
	{"play_to_draw_for_free_rate", func(r *stats.Report) any { return r.PlayRates.PlayToDrawForFreeRate }},
	{"play_per_option_rate", func(r *stats.Report) any { return r.PlayRates.PlayPerOptionRate }},
	{"play_per_card_in_hand_rate", func(r *stats.Report) any { return r.PlayRates.PlayPerCardInHandRate }},
	{"plays_when_bought_during_game", func(r *stats.Report) any { return r.PlayRates.PlaysWhenBought }},
	{"plays_when_bought_overall", func(r *stats.Report) any { return r.PlayRates.PlaysWhenBoughtOverall }},
	{"plays_when_drawn_for_free", func(r *stats.Report) any { return r.PlayRates.PlaysWhenDrawnFree }},

	{"business_contacts_keep_rate", keepRate("business_contacts_keep_rate")},
	{"business_network_buy_rate", keepRate("business_network_buy_rate")},
	{"invention_contest_keep_rate", keepRate("invention_contest_keep_rate")},
	{"inventors_guild_buy_rate", keepRate("inventors_guild_buy_rate")},
	{"draft_1_rate", keepRate("draft_1_rate")},
	{"draft_3_rate", keepRate("draft_3_rate")},
	{"card_buy_through_card_rate", keepRate("card_buy_through_card_rate")},
}

func keepRate(key string) func(r *stats.Report) any {
	return func(r *stats.Report) any { return r.KeepRates[key] }
}

// SummaryFiles names the three CSVs a summary build produces.
type SummaryFiles struct {
	Values       string
	Dicts        string
	Interactions string
}

// BuildSummaryCSVs reads every per-card analysis file under analysisDir
// and writes three cross-card summaries next to them:
//
//	<prefix>_values.csv        scalar statistics, one row per card
//	<prefix>_dicts.csv         histogram columns as ordered JSON objects
//	<prefix>_interactions.csv  one column per draw/seen/other label
func BuildSummaryCSVs(analysisDir, prefix string) (*SummaryFiles, error) {
	reports, failed, err := LoadCardReports(analysisDir)
	if err != nil {
		return nil, err
	}
	for _, path := range failed {
		fmt.Fprintf(os.Stderr, "skipping unreadable analysis file %s\n", path)
	}
	if len(reports) == 0 {
		return nil, fmt.Errorf("no card analysis files found in %s", analysisDir)
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].CardName < reports[j].CardName })

	files := &SummaryFiles{
		Values:       filepath.Join(analysisDir, prefix+"_values.csv"),
		Dicts:        filepath.Join(analysisDir, prefix+"_dicts.csv"),
		Interactions: filepath.Join(analysisDir, prefix+"_interactions.csv"),
	}

	if err := writeValuesCSV(files.Values, reports); err != nil {
		return nil, err
	}
	if err := writeDictsCSV(files.Dicts, reports); err != nil {
		return nil, err
	}
	if err := writeInteractionsCSV(files.Interactions, reports); err != nil {
		return nil, err
	}
	return files, nil
}

func writeValuesCSV(path string, reports []*stats.Report) error {
	headers := make([]string, len(valueFields))
	for i, f := range valueFields {
		headers[i] = f.header
	}

	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		row := make([]string, len(valueFields))
		for i, f := range valueFields {
			row[i] = formatCell(f.get(r))
		}
		rows = append(rows, row)
	}
	return writeCSV(path, headers, rows)
}

func writeInteractionsCSV(path string, reports []*stats.Report) error {
	drawCols := uniqueKeys(reports, func(r *stats.Report) map[string]int { return r.DrawMethods })
	seenCols := uniqueKeys(reports, func(r *stats.Report) map[string]int { return r.SeenMethods })
	otherCols := uniqueKeys(reports, func(r *stats.Report) map[string]int { return r.OtherStats })

	headers := []string{"card_name", "total_games_analyzed", "total_games_with_card"}
	headers = append(headers, drawCols...)
	headers = append(headers, seenCols...)
	headers = append(headers, otherCols...)

	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		row := []string{
			r.CardName,
			strconv.Itoa(r.TotalGamesAnalyzed),
			strconv.Itoa(r.TotalGamesWithCard),
		}
		for _, c := range drawCols {
			row = append(row, strconv.Itoa(r.DrawMethods[c]))
		}
		for _, c := range seenCols {
			row = append(row, strconv.Itoa(r.SeenMethods[c]))
		}
		for _, c := range otherCols {
			row = append(row, strconv.Itoa(r.OtherStats[c]))
		}
		rows = append(rows, row)
	}
	return writeCSV(path, headers, rows)
}

func writeDictsCSV(path string, reports []*stats.Report) error {
	headers := []string{
		"card_name",
		"elo_gains_dict",
		"drawn_by_generation_dict",
		"played_by_generation_dict",
		"draw_free_dict",
		"draw_and_buy_dict",
		"draw_for_2_dict",
		"drawn_and_played_by_gen_dict",
		"drawn_not_played_by_gen_dict",
		"player_corporations_dict",
		"payment_distribution_dict",
	}

	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		eloJSON, err := r.EloGains.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encode elo gains for %s: %w", r.CardName, err)
		}
		rows = append(rows, []string{
			r.CardName,
			string(eloJSON),
			intDictJSON(r.DrawnByGeneration),
			intDictJSON(r.PlayedByGeneration),
			intDictJSON(r.DrawFree),
			intDictJSON(r.DrawAndBuy),
			intDictJSON(r.DrawForTwo),
			genPairDictJSON(r.DrawnAndPlayedByGen),
			intDictJSON(r.DrawnNotPlayedByGen),
			stringDictJSON(r.PlayerCorporations),
			paymentDictJSON(r.PaymentDistribution),
		})
	}
	return writeCSV(path, headers, rows)
}

func writeCSV(path string, headers []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", filepath.Base(path), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", filepath.Base(path), err)
	}
	return nil
}

func formatCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func uniqueKeys(reports []*stats.Report, pick func(r *stats.Report) map[string]int) []string {
	set := map[string]struct{}{}
	for _, r := range reports {
		for k := range pick(r) {
			set[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// orderedJSON builds a JSON object with the given key order preserved.
func orderedJSON(keys []string, value func(key string) int) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Quote(k))
		b.WriteString(": ")
		b.WriteString(strconv.Itoa(value(k)))
	}
	b.WriteByte('}')
	return b.String()
}

func intDictJSON(m map[int]int) string {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	strKeys := make([]string, len(keys))
	for i, k := range keys {
		strKeys[i] = strconv.Itoa(k)
	}
	return orderedJSON(strKeys, func(key string) int {
		n, _ := strconv.Atoi(key)
		return m[n]
	})
}

func stringDictJSON(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return orderedJSON(keys, func(key string) int { return m[key] })
}

// genPairDictJSON orders "(drawn,played)" keys by drawn then played
// generation, with unknown-drawn pairs last.
func genPairDictJSON(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		di, pi := parseGenPair(keys[i])
		dj, pj := parseGenPair(keys[j])
		if di != dj {
			return di < dj
		}
		return pi < pj
	})
	return orderedJSON(keys, func(key string) int { return m[key] })
}

func parseGenPair(key string) (drawn, played int) {
	parts := strings.SplitN(strings.Trim(key, "()"), ",", 2)
	if len(parts) != 2 {
		return 999, 0
	}
	drawn = parseGenPart(parts[0])
	played = parseGenPart(parts[1])
	if drawn == 0 {
		drawn = 999 // unknown draws sort last
	}
	return drawn, played
}

func parseGenPart(s string) int {
	s = strings.TrimSpace(s)
	if s == "None" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// paymentDictJSON orders "(a, b)" payment keys by total paid, then by the
// first amount.
func paymentDictJSON(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		si, fi := paymentSortKey(keys[i])
		sj, fj := paymentSortKey(keys[j])
		if si != sj {
			return si < sj
		}
		return fi < fj
	})
	return orderedJSON(keys, func(key string) int { return m[key] })
}

func paymentSortKey(key string) (sum, first int) {
	inner := strings.Trim(key, "()")
	if inner == "" {
		return 0, 0
	}
	for i, part := range strings.Split(inner, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		sum += n
		if i == 0 {
			first = n
		}
	}
	return sum, first
}
