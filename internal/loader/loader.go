// Package loader finds exported game JSON files under a data directory,
// decodes them, and keeps only the games matching the configured filter
// criteria.
package loader

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/tfm-insights/card-tracker/internal/config"
	"github.com/tfm-insights/card-tracker/internal/tm"
)

// Loader scans one data directory.
type Loader struct {
	dir      string
	filter   config.FilterConfig
	logger   *log.Logger
	progress bool

	// ReplayIDFilter, when set, restricts the scan to files whose name
	// contains the replay ID and to the game with that exact ID.
	ReplayIDFilter string
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger routes scan diagnostics to the given logger.
func WithLogger(l *log.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// WithProgress toggles the scan progress bar.
func WithProgress(show bool) Option {
	return func(ld *Loader) { ld.progress = show }
}

// New creates a Loader over dir with the given filter criteria.
func New(dir string, filter config.FilterConfig, opts ...Option) *Loader {
	ld := &Loader{dir: dir, filter: filter, logger: log.Default()}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// ScanResult reports what a scan saw besides the games it kept.
type ScanResult struct {
	Games       []*tm.Game
	FilesFound  int
	FilesFailed int
}

// Scan walks the data directory recursively, decodes every *.json file,
// and returns the games matching the filter. Files that fail to decode
// are logged and skipped.
func (ld *Loader) Scan(ctx context.Context) (*ScanResult, error) {
	files, err := ld.listFiles()
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", ld.dir, err)
	}
	if ld.ReplayIDFilter != "" && len(files) == 0 {
		return nil, fmt.Errorf("scan %s: no files found for replay ID %q", ld.dir, ld.ReplayIDFilter)
	}

	var bar *progressbar.ProgressBar
	if ld.progress {
		bar = progressbar.Default(int64(len(files)), "Loading and filtering games")
	}

	res := &ScanResult{FilesFound: len(files)}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if bar != nil {
			bar.Add(1)
		}

		game, err := decodeGame(path)
		if err != nil {
			res.FilesFailed++
			ld.logger.Printf("skipping %s: %v", path, err)
			continue
		}
		if ld.matches(game) {
			game.SourcePath = path
			res.Games = append(res.Games, game)
		}
	}

	ld.logger.Printf("loaded %d files, kept %d games, %d failed",
		len(files)-res.FilesFailed, len(res.Games), res.FilesFailed)
	return res, nil
}

// listFiles returns every *.json path under the data directory, sorted.
// With a replay ID filter set only matching file names are returned.
func (ld *Loader) listFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(ld.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		if ld.ReplayIDFilter != "" && !strings.Contains(d.Name(), ld.ReplayIDFilter) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func decodeGame(path string) (*tm.Game, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read game file: %w", err)
	}
	var game tm.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, fmt.Errorf("parse game file: %w", err)
	}
	return &game, nil
}

// matches applies the configured criteria to one decoded game.
func (ld *Loader) matches(g *tm.Game) bool {
	if ld.ReplayIDFilter != "" && g.ReplayID != ld.ReplayIDFilter {
		return false
	}
	if g.Map != ld.filter.RequiredMap {
		return false
	}
	if g.ColoniesOn == ld.filter.ColoniesMustBeOff {
		return false
	}
	if g.CorporateEraOn != ld.filter.CorporateEraOn {
		return false
	}
	if g.DraftOn != ld.filter.DraftMustBeOn {
		return false
	}
	if ld.filter.PreludeMustBeOn && !g.PreludeOn {
		return false
	}

	playerCount := 0
	for _, p := range g.Players {
		if p != nil {
			playerCount++
		}
	}
	if playerCount != ld.filter.RequiredPlayerCount {
		return false
	}

	if ld.filter.RequireStartingHand {
		hasHand := false
		for _, p := range g.Players {
			if p != nil && p.StartingHand != nil {
				hasHand = true
				break
			}
		}
		if !hasHand {
			return false
		}
	}

	if ld.filter.RequireEloThreshold {
		for _, p := range g.Players {
			if p == nil || p.EloData == nil || p.EloData.GameRank.Value < ld.filter.EloThreshold {
				return false
			}
		}
	}

	return true
}

// DirectoryHash fingerprints the data directory from the paths and
// modification times of its JSON files. Cached game batches are keyed by
// this hash so any file change invalidates them.
func (ld *Loader) DirectoryHash() (string, error) {
	var lines []string
	err := filepath.WalkDir(ld.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		lines = append(lines, fmt.Sprintf("%s:%d", path, info.ModTime().UnixNano()))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", ld.dir, err)
	}

	sort.Strings(lines)
	h := md5.New()
	for _, line := range lines {
		h.Write([]byte(line))
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
