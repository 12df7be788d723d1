// Command summary-builder collects the per-card analysis files an
// earlier card-tracker run produced and builds three cross-card CSV
// summaries: scalar values, histogram dictionaries, and per-label
// interaction counts.
package main

import (
	"flag"
	"log"

	"github.com/tfm-insights/card-tracker/internal/config"
	"github.com/tfm-insights/card-tracker/internal/export"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file (default ~/.card-tracker/config.toml)")
		analysisDir = flag.String("dir", "", "directory with card_analysis_*.json files (overrides config)")
		prefix      = flag.String("prefix", "", "output file name prefix (overrides config)")
	)
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFrom(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dir := cfg.Output.Directory
	if *analysisDir != "" {
		dir = *analysisDir
	}
	pfx := cfg.Output.SummaryPrefix
	if *prefix != "" {
		pfx = *prefix
	}

	files, err := export.BuildSummaryCSVs(dir, pfx)
	if err != nil {
		log.Fatalf("Failed to build summaries: %v", err)
	}

	log.Printf("Values summary written to: %s", files.Values)
	log.Printf("Dicts summary written to: %s", files.Dicts)
	log.Printf("Interactions summary written to: %s", files.Interactions)
}
