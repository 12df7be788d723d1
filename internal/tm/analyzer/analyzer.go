// Package analyzer walks parsed game logs and produces per-card reports.
// It owns the per-game walk (classify every move that mentions the card,
// resolve draft slots, detect the play) and the fan-out across cards.
package analyzer

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/tfm-insights/card-tracker/internal/tm"
	"github.com/tfm-insights/card-tracker/internal/tm/stats"
)

// Analyzer runs card analyses over a fixed set of games. The game slice
// is shared and never mutated, so one Analyzer serves concurrent
// AnalyzeCard calls.
type Analyzer struct {
	games    []*tm.Game
	logger   *log.Logger
	progress bool
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger routes walk warnings to the given logger.
func WithLogger(l *log.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithProgress toggles the per-card progress bar.
func WithProgress(show bool) Option {
	return func(a *Analyzer) { a.progress = show }
}

// New creates an Analyzer over the given games.
func New(games []*tm.Game, opts ...Option) *Analyzer {
	a := &Analyzer{games: games, logger: log.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeCard walks every game and returns the finalized report for one
// card. A malformed game is logged and skipped rather than aborting the
// whole run.
func (a *Analyzer) AnalyzeCard(ctx context.Context, card string) (*stats.Report, error) {
	if len(a.games) == 0 {
		return nil, fmt.Errorf("analyze %q: no games loaded", card)
	}

	var bar *progressbar.ProgressBar
	if a.progress {
		bar = progressbar.Default(int64(len(a.games)), fmt.Sprintf("Analyzing %s", card))
	}

	acc := stats.NewAccumulator(card)
	for _, g := range a.games {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("analyze %q: %w", card, err)
		}
		a.analyzeGame(acc, g, card)
		if bar != nil {
			bar.Add(1)
		}
	}
	return acc.Finalize(), nil
}

// analyzeGame walks one game and folds it into the accumulator. A panic
// while walking a corrupt game is recovered so the remaining games still
// count.
func (a *Analyzer) analyzeGame(acc *stats.Accumulator, g *tm.Game, card string) {
	defer func() {
		if r := recover(); r != nil {
			id := "unknown"
			if g != nil {
				id = g.ReplayID
			}
			a.logger.Printf("WARNING: skipping game %s for card %q: %v", id, card, r)
		}
	}()

	ev, warnings := walkGame(g, card)
	for _, w := range warnings {
		a.logger.Printf("WARNING: card %q game %s: %s", card, g.ReplayID, w)
	}
	if ev == nil {
		return
	}
	acc.Record(ev)
}

// AnalyzeCards runs AnalyzeCard for each card across a worker pool and
// returns the reports keyed by card name. The first context error stops
// the fan-out; per-card failures are collected, not fatal.
func (a *Analyzer) AnalyzeCards(ctx context.Context, cards []string, workers int) (map[string]*stats.Report, error) {
	if workers < 1 {
		workers = 1
	}

	type result struct {
		card   string
		report *stats.Report
		err    error
	}

	jobs := make(chan string)
	results := make(chan result)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for card := range jobs {
				report, err := a.AnalyzeCard(ctx, card)
				results <- result{card: card, report: report, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, card := range cards {
			select {
			case jobs <- card:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	reports := make(map[string]*stats.Report, len(cards))
	var firstErr error
	for r := range results {
		if r.err != nil {
			a.logger.Printf("card %q failed: %v", r.card, r.err)
			if firstErr == nil {
				firstErr = fmt.Errorf("card %q: %w", r.card, r.err)
			}
			continue
		}
		reports[r.card] = r.report
	}
	if err := ctx.Err(); err != nil {
		return reports, err
	}
	return reports, firstErr
}
