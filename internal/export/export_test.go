package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tfm-insights/card-tracker/internal/tm"
	"github.com/tfm-insights/card-tracker/internal/tm/stats"
)

func sampleReport(card string) *stats.Report {
	acc := stats.NewAccumulator(card)
	acc.Record(&stats.GameEvents{
		ReplayID:      "r1",
		PerspectiveID: "p1",
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
		Contexts: []stats.MoveContext{
			{ReplayID: "r1", MoveNumber: 12, MoveType: "draw_draft_buy"},
		},
	})
	return acc.Finalize()
}

func TestFileStem(t *testing.T) {
	tests := []struct {
		card string
		want string
	}{
		{"Birds", "Birds"},
		{"Acquired Company", "Acquired_Company"},
		{`Inventors' Guild`, `Inventors'_Guild`},
	}
	for _, tt := range tests {
		if got := fileStem(tt.card); got != tt.want {
			t.Errorf("fileStem(%q) = %q, want %q", tt.card, got, tt.want)
		}
	}
}

func TestWriteCardReportAndLoad(t *testing.T) {
	dir := t.TempDir()
	report := sampleReport("Acquired Company")

	if err := WriteCardReport(report, dir); err != nil {
		t.Fatalf("WriteCardReport() error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "card_analysis_Acquired_Company.json")); err != nil {
		t.Errorf("missing statistics file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "game_moves_Acquired_Company.json")); err != nil {
		t.Errorf("missing game moves file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "context", "context_Acquired_Company.json")); err != nil {
		t.Errorf("missing context file: %v", err)
	}

	// The statistics file must not repeat the bulky captures.
	data, err := os.ReadFile(filepath.Join(dir, "card_analysis_Acquired_Company.json"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "game_moves_by_card") {
		t.Error("statistics file should not embed the per-game move lists")
	}

	reports, failed, err := LoadCardReports(dir)
	if err != nil {
		t.Fatalf("LoadCardReports() error: %v", err)
	}
	if len(failed) != 0 {
		t.Errorf("failed = %v, want none", failed)
	}
	if len(reports) != 1 || reports[0].CardName != "Acquired Company" {
		t.Fatalf("reports = %+v, want one for Acquired Company", reports)
	}
	if reports[0].DrawnCount != report.DrawnCount {
		t.Errorf("reloaded DrawnCount = %d, want %d", reports[0].DrawnCount, report.DrawnCount)
	}
}

func TestWriteCardReportSkipsEmptyExtras(t *testing.T) {
	dir := t.TempDir()
	report := stats.NewAccumulator("Birds").Finalize()

	if err := WriteCardReport(report, dir); err != nil {
		t.Fatalf("WriteCardReport() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "game_moves_Birds.json")); !os.IsNotExist(err) {
		t.Error("empty move lists should not produce a file")
	}
	if _, err := os.Stat(filepath.Join(dir, "context", "context_Birds.json")); !os.IsNotExist(err) {
		t.Error("empty captures should not produce a file")
	}
}

func TestBuildSummaryCSVs(t *testing.T) {
	dir := t.TempDir()
	for _, card := range []string{"Birds", "Acquired Company"} {
		if err := WriteCardReport(sampleReport(card), dir); err != nil {
			t.Fatal(err)
		}
	}

	files, err := BuildSummaryCSVs(dir, "card_summary")
	if err != nil {
		t.Fatalf("BuildSummaryCSVs() error: %v", err)
	}

	f, err := os.Open(files.Values)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	if len(rows) != 3 {
		t.Fatalf("values CSV has %d rows, want header plus 2 cards", len(rows))
	}
	if rows[0][0] != "card_name" {
		t.Errorf("first column = %q, want card_name", rows[0][0])
	}
	// Rows are sorted by card name.
	if rows[1][0] != "Acquired Company" || rows[2][0] != "Birds" {
		t.Errorf("row order = %q, %q, want Acquired Company then Birds", rows[1][0], rows[2][0])
	}

	for _, path := range []string{files.Dicts, files.Interactions} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing summary file %s: %v", path, err)
		}
	}
}

func TestBuildSummaryCSVsEmptyDir(t *testing.T) {
	if _, err := BuildSummaryCSVs(t.TempDir(), "card_summary"); err == nil {
		t.Error("expected an error when no analysis files exist")
	}
}

func TestDictJSONOrdering(t *testing.T) {
	got := intDictJSON(map[int]int{3: 1, 1: 2, 10: 3})
	want := `{"1": 2, "3": 1, "10": 3}`
	if got != want {
		t.Errorf("intDictJSON = %s, want %s", got, want)
	}

	got = genPairDictJSON(map[string]int{"(None,5)": 1, "(2,4)": 2, "(1,9)": 3})
	want = `{"(1,9)": 3, "(2,4)": 2, "(None,5)": 1}`
	if got != want {
		t.Errorf("genPairDictJSON = %s, want %s", got, want)
	}

	got = paymentDictJSON(map[string]int{"(3, 5)": 1, "()": 2, "(6,)": 3})
	want = `{"()": 2, "(6,)": 3, "(3, 5)": 1}`
	if got != want {
		t.Errorf("paymentDictJSON = %s, want %s", got, want)
	}
}
