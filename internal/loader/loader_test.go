package loader

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/tfm-insights/card-tracker/internal/config"
	"github.com/tfm-insights/card-tracker/internal/tm"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func standardFilter() config.FilterConfig {
	return config.FilterConfig{
		RequiredMap:         "Tharsis",
		RequiredPlayerCount: 2,
		ColoniesMustBeOff:   true,
		CorporateEraOn:      true,
		DraftMustBeOn:       true,
		PreludeMustBeOn:     true,
		RequireStartingHand: true,
	}
}

func matchingGame(replayID string) *tm.Game {
	return &tm.Game{
		ReplayID:          replayID,
		PlayerPerspective: "p1",
		Map:               "Tharsis",
		PreludeOn:         true,
		ColoniesOn:        false,
		CorporateEraOn:    true,
		DraftOn:           true,
		Players: map[string]*tm.Player{
			"p1": {PlayerName: "Alice", StartingHand: &tm.StartingHand{ProjectCards: []string{"Birds"}}},
			"p2": {PlayerName: "Bob"},
		},
	}
}

func writeGame(t *testing.T, dir, name string, g *tm.Game) string {
	t.Helper()
	data, err := json.Marshal(g)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*tm.Game)
		want   bool
	}{
		{
			name:   "standard game matches",
			mutate: func(*tm.Game) {},
			want:   true,
		},
		{
			name:   "wrong map",
			mutate: func(g *tm.Game) { g.Map = "Hellas" },
		},
		{
			name:   "colonies on",
			mutate: func(g *tm.Game) { g.ColoniesOn = true },
		},
		{
			name:   "corporate era off",
			mutate: func(g *tm.Game) { g.CorporateEraOn = false },
		},
		{
			name:   "draft off",
			mutate: func(g *tm.Game) { g.DraftOn = false },
		},
		{
			name:   "prelude off",
			mutate: func(g *tm.Game) { g.PreludeOn = false },
		},
		{
			name:   "three players",
			mutate: func(g *tm.Game) { g.Players["p3"] = &tm.Player{PlayerName: "Carol"} },
		},
		{
			name: "no starting hand recorded",
			mutate: func(g *tm.Game) {
				for _, p := range g.Players {
					p.StartingHand = nil
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ld := New(t.TempDir(), standardFilter(), WithLogger(quietLogger()))
			g := matchingGame("r1")
			tt.mutate(g)
			if got := ld.matches(g); got != tt.want {
				t.Errorf("matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchesEloThreshold(t *testing.T) {
	filter := standardFilter()
	filter.RequireEloThreshold = true
	filter.EloThreshold = 300
	ld := New(t.TempDir(), filter, WithLogger(quietLogger()))

	g := matchingGame("r1")
	if ld.matches(g) {
		t.Error("players without rating data should fail the threshold")
	}

	for _, p := range g.Players {
		p.EloData = &tm.EloData{GameRank: tm.EloPoints{Value: 350, OK: true}}
	}
	if !ld.matches(g) {
		t.Error("all players above threshold should match")
	}

	g.Players["p2"].EloData.GameRank.Value = 200
	if ld.matches(g) {
		t.Error("one player below threshold should fail")
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writeGame(t, dir, "game_r1.json", matchingGame("r1"))

	rejected := matchingGame("r2")
	rejected.Map = "Hellas"
	writeGame(t, dir, "game_r2.json", rejected)

	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644); err != nil {
		t.Fatal(err)
	}

	ld := New(dir, standardFilter(), WithLogger(quietLogger()))
	res, err := ld.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}

	if res.FilesFound != 3 {
		t.Errorf("FilesFound = %d, want 3", res.FilesFound)
	}
	if res.FilesFailed != 1 {
		t.Errorf("FilesFailed = %d, want 1", res.FilesFailed)
	}
	if len(res.Games) != 1 || res.Games[0].ReplayID != "r1" {
		t.Fatalf("Games = %+v, want only r1", res.Games)
	}
	if res.Games[0].SourcePath == "" {
		t.Error("kept games should record their source path")
	}
}

func TestScanReplayIDFilter(t *testing.T) {
	dir := t.TempDir()
	writeGame(t, dir, "game_r1.json", matchingGame("r1"))
	writeGame(t, dir, "game_r2.json", matchingGame("r2"))

	ld := New(dir, standardFilter(), WithLogger(quietLogger()))
	ld.ReplayIDFilter = "r2"

	res, err := ld.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(res.Games) != 1 || res.Games[0].ReplayID != "r2" {
		t.Errorf("Games = %+v, want only r2", res.Games)
	}

	ld.ReplayIDFilter = "does-not-exist"
	if _, err := ld.Scan(context.Background()); err == nil {
		t.Error("expected an error when no file matches the replay ID")
	}
}

func TestDirectoryHash(t *testing.T) {
	dir := t.TempDir()
	path := writeGame(t, dir, "game_r1.json", matchingGame("r1"))

	ld := New(dir, standardFilter(), WithLogger(quietLogger()))
	h1, err := ld.DirectoryHash()
	if err != nil {
		t.Fatalf("DirectoryHash() error: %v", err)
	}

	h2, err := ld.DirectoryHash()
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Error("hash must be stable without changes")
	}

	writeGame(t, dir, "game_r2.json", matchingGame("r2"))
	h3, err := ld.DirectoryHash()
	if err != nil {
		t.Fatal(err)
	}
	if h3 == h1 {
		t.Error("adding a file must change the hash")
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	h4, err := ld.DirectoryHash()
	if err != nil {
		t.Fatal(err)
	}
	if h4 == h3 {
		t.Error("removing a file must change the hash")
	}
}
