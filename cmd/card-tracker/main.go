// Command card-tracker analyzes Terraforming Mars replay exports and
// writes per-card reports: how a card was drafted, drawn, bought, and
// played across every recorded game, and how games went when it was.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/tfm-insights/card-tracker/internal/charts"
	"github.com/tfm-insights/card-tracker/internal/config"
	"github.com/tfm-insights/card-tracker/internal/export"
	"github.com/tfm-insights/card-tracker/internal/loader"
	"github.com/tfm-insights/card-tracker/internal/storage"
	"github.com/tfm-insights/card-tracker/internal/tm"
	"github.com/tfm-insights/card-tracker/internal/tm/analyzer"
	"github.com/tfm-insights/card-tracker/internal/version"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file (default ~/.card-tracker/config.toml)")
		dataDir     = flag.String("data", "", "game data directory (overrides config)")
		cardsFlag   = flag.String("cards", "", "comma-separated card names to analyze")
		replayID    = flag.String("replay-id", "", "analyze only the game with this replay ID")
		outputDir   = flag.String("out", "", "output directory (overrides config)")
		workers     = flag.Int("workers", 0, "concurrent card analyses (0 = config, then NumCPU)")
		noCache     = flag.Bool("no-cache", false, "bypass the game cache")
		watch       = flag.Bool("watch", false, "re-run analysis when the data directory changes")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetVersion())
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *dataDir != "" {
		cfg.Data.Directory = *dataDir
	}
	if *outputDir != "" {
		cfg.Output.Directory = *outputDir
	}
	if *workers > 0 {
		cfg.Analysis.Workers = *workers
	}
	if *noCache || *replayID != "" {
		cfg.Cache.Enabled = false
	}
	if *watch {
		cfg.Data.Watch = true
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if cfg.Data.Directory == "" {
		log.Fatal("No data directory configured; pass -data or set data.directory in the config")
	}

	cards := selectCards(cfg, *cardsFlag)
	if len(cards) == 0 {
		log.Fatal("No cards to analyze; pass -cards or set analysis.cards in the config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, cards, *replayID); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Println("Interrupted")
			return
		}
		log.Fatalf("Analysis failed: %v", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func selectCards(cfg *config.Config, cardsFlag string) []string {
	if cardsFlag != "" {
		var cards []string
		for _, c := range strings.Split(cardsFlag, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cards = append(cards, c)
			}
		}
		return cards
	}
	if len(cfg.Analysis.Cards) > 0 {
		return cfg.Analysis.Cards
	}
	if cfg.Analysis.DefaultCard != "" {
		return []string{cfg.Analysis.DefaultCard}
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, cards []string, replayID string) error {
	for {
		if err := runOnce(ctx, cfg, cards, replayID); err != nil {
			return err
		}
		if !cfg.Data.Watch {
			return nil
		}

		log.Println("Watching data directory for changes...")
		interval, _ := cfg.GetPollInterval()
		w := loader.NewWatcher(cfg.Data.Directory, interval)

		watchCtx, cancel := context.WithCancel(ctx)
		errCh := make(chan error, 1)
		go func() { errCh <- w.Run(watchCtx) }()

		select {
		case <-ctx.Done():
			cancel()
			<-errCh
			return ctx.Err()
		case <-w.Changes():
			cancel()
			<-errCh
			log.Println("Data directory changed, re-running analysis")
		case err := <-errCh:
			cancel()
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("watch data directory: %w", err)
			}
			return nil
		}
	}
}

func runOnce(ctx context.Context, cfg *config.Config, cards []string, replayID string) error {
	games, err := loadGames(ctx, cfg, replayID)
	if err != nil {
		return err
	}
	if len(games) == 0 {
		return fmt.Errorf("no games matched the filter criteria in %s", cfg.Data.Directory)
	}
	log.Printf("Analyzing %d cards across %d games", len(cards), len(games))

	workers := cfg.Analysis.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(cards) {
		workers = len(cards)
	}

	a := analyzer.New(games,
		analyzer.WithProgress(cfg.Analysis.Progress && workers == 1),
	)
	reports, err := a.AnalyzeCards(ctx, cards, workers)
	if err != nil && len(reports) == 0 {
		return err
	}
	if err != nil {
		log.Printf("Some cards failed: %v", err)
	}

	chartsDir := filepath.Join(cfg.Output.Directory, "charts")
	if cfg.Output.Charts {
		if err := os.MkdirAll(chartsDir, 0o755); err != nil {
			return fmt.Errorf("create charts directory: %w", err)
		}
	}

	for _, card := range cards {
		report, ok := reports[card]
		if !ok {
			continue
		}
		if err := export.WriteCardReport(report, cfg.Output.Directory); err != nil {
			return fmt.Errorf("write report for %q: %w", card, err)
		}
		log.Printf("Report written for %q (%d games with card)", card, report.TotalGamesWithCard)

		if cfg.Output.Charts {
			if _, err := charts.RenderCardCharts(report, chartsDir); err != nil {
				log.Printf("Charts for %q failed: %v", card, err)
			}
		}
	}
	return nil
}

// loadGames returns the filtered game batch, from the cache when the
// data directory fingerprint still matches.
func loadGames(ctx context.Context, cfg *config.Config, replayID string) ([]*tm.Game, error) {
	ld := loader.New(cfg.Data.Directory, cfg.Filter,
		loader.WithProgress(cfg.Analysis.Progress))
	ld.ReplayIDFilter = replayID

	if !cfg.Cache.Enabled {
		res, err := ld.Scan(ctx)
		if err != nil {
			return nil, err
		}
		return res.Games, nil
	}

	cachePath := cfg.Cache.Path
	if cachePath == "" {
		var err error
		if cachePath, err = storage.DefaultPath(); err != nil {
			return nil, err
		}
	}

	dbCfg := storage.DefaultConfig(cachePath)
	dbCfg.AutoMigrate = true
	db, err := storage.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open game cache: %w", err)
	}
	defer db.Close()

	cache := storage.NewGameCache(db)
	if ttl, err := cfg.GetCacheTTL(); err == nil {
		if n, err := cache.Prune(ctx, ttl); err == nil && n > 0 {
			log.Printf("Pruned %d stale cache batches", n)
		}
	}

	hash, err := ld.DirectoryHash()
	if err != nil {
		return nil, err
	}

	if games, err := cache.LoadBatch(ctx, hash); err == nil {
		log.Printf("Loaded %d games from cache", len(games))
		return games, nil
	} else if !errors.Is(err, storage.ErrCacheMiss) {
		log.Printf("Cache read failed, rescanning: %v", err)
	}

	res, err := ld.Scan(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Games) > 0 {
		if err := cache.SaveBatch(ctx, hash, res.Games); err != nil {
			log.Printf("Cache write failed: %v", err)
		}
	}
	return res.Games, nil
}
