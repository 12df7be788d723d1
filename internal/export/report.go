// Package export writes finished card reports to disk: a statistics file
// per card, the per-game move lists and audit context split into their
// own files, and cross-card CSV summaries.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tfm-insights/card-tracker/internal/tm/stats"
)

// contextFile groups the audit captures written next to the main report.
type contextFile struct {
	DraftTakebackContext   map[string][]stats.MoveContext `json:"draft_takeback_context"`
	DraftNoTakebackContext map[string][]stats.MoveContext `json:"draft_no_takebacks_context"`
	DrawContext            map[string][]stats.MoveContext `json:"draw_context"`
	DrawDraftBuyContext    map[string][]stats.MoveContext `json:"draw_draft_buy_context"`
	OtherContext           map[string][]stats.MoveContext `json:"other_context"`
}

func (f *contextFile) empty() bool {
	return len(f.DraftTakebackContext) == 0 &&
		len(f.DraftNoTakebackContext) == 0 &&
		len(f.DrawContext) == 0 &&
		len(f.DrawDraftBuyContext) == 0 &&
		len(f.OtherContext) == 0
}

// fileStem turns a card title into the token used in output file names.
func fileStem(card string) string {
	s := strings.ReplaceAll(card, " ", "_")
	return strings.ReplaceAll(s, `"`, "")
}

// WriteCardReport writes one card's report under outputDir:
//
//	card_analysis_<card>.json   statistics only
//	game_moves_<card>.json      per-game classified move lists
//	context/context_<card>.json audit captures
//
// The moves and context files are skipped when they would be empty.
func WriteCardReport(report *stats.Report, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	contextDir := filepath.Join(outputDir, "context")
	if err := os.MkdirAll(contextDir, 0o755); err != nil {
		return fmt.Errorf("create context directory: %w", err)
	}

	stem := fileStem(report.CardName)

	moves := report.GameMovesByCard
	ctx := contextFile{
		DraftTakebackContext:   report.DraftTakebackContext,
		DraftNoTakebackContext: report.DraftNoTakebackContext,
		DrawContext:            report.DrawContext,
		DrawDraftBuyContext:    report.DrawDraftBuyContext,
		OtherContext:           report.OtherContext,
	}

	// The statistics file carries everything except the bulky captures.
	trimmed := *report
	trimmed.GameMovesByCard = nil
	trimmed.DraftTakebackContext = nil
	trimmed.DraftNoTakebackContext = nil
	trimmed.DrawContext = nil
	trimmed.DrawDraftBuyContext = nil
	trimmed.OtherContext = nil

	mainPath := filepath.Join(outputDir, fmt.Sprintf("card_analysis_%s.json", stem))
	if err := writeJSON(mainPath, &trimmed); err != nil {
		return err
	}

	if len(moves) > 0 {
		movesPath := filepath.Join(outputDir, fmt.Sprintf("game_moves_%s.json", stem))
		if err := writeJSON(movesPath, moves); err != nil {
			return err
		}
	}

	if !ctx.empty() {
		ctxPath := filepath.Join(contextDir, fmt.Sprintf("context_%s.json", stem))
		if err := writeJSON(ctxPath, &ctx); err != nil {
			return err
		}
	}

	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadCardReports reads every card_analysis_*.json file under
// analysisDir. Files that fail to decode are returned in failed rather
// than aborting the load.
func LoadCardReports(analysisDir string) (reports []*stats.Report, failed []string, err error) {
	matches, err := filepath.Glob(filepath.Join(analysisDir, "card_analysis_*.json"))
	if err != nil {
		return nil, nil, fmt.Errorf("list reports in %s: %w", analysisDir, err)
	}

	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			failed = append(failed, path)
			continue
		}
		var r stats.Report
		if err := json.Unmarshal(data, &r); err != nil {
			failed = append(failed, path)
			continue
		}
		reports = append(reports, &r)
	}
	return reports, failed, nil
}
