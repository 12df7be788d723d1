package charts

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/tfm-insights/card-tracker/internal/tm/stats"
)

// RenderCardCharts writes the standard chart set for one card report
// under outputDir and returns the paths it created.
func RenderCardCharts(report *stats.Report, outputDir string) ([]string, error) {
	stem := strings.ReplaceAll(strings.ReplaceAll(report.CardName, " ", "_"), `"`, "")

	genPath := filepath.Join(outputDir, fmt.Sprintf("generations_%s.html", stem))
	if err := renderGenerationChart(report, genPath); err != nil {
		return nil, err
	}

	eloPath := filepath.Join(outputDir, fmt.Sprintf("elo_gains_%s.html", stem))
	if err := renderEloChart(report, eloPath); err != nil {
		return nil, err
	}

	return []string{genPath, eloPath}, nil
}

// renderGenerationChart plots drawn, played, free-draw and buy-draw
// counts per generation side by side.
func renderGenerationChart(report *stats.Report, outputPath string) error {
	gens := generationAxis(
		report.DrawnByGeneration,
		report.PlayedByGeneration,
		report.DrawFree,
		report.DrawAndBuy,
	)
	if len(gens) == 0 {
		return nil
	}

	labels := make([]string, len(gens))
	for i, g := range gens {
		labels[i] = strconv.Itoa(g)
	}

	series := []SeriesData{
		{Name: "Drawn", Points: genSeries(gens, report.DrawnByGeneration)},
		{Name: "Played", Points: genSeries(gens, report.PlayedByGeneration)},
		{Name: "Drawn free", Points: genSeries(gens, report.DrawFree)},
		{Name: "Bought", Points: genSeries(gens, report.DrawAndBuy)},
	}

	config := DefaultChartConfig()
	config.Title = fmt.Sprintf("%s by generation", report.CardName)
	config.XAxisLabel = "Generation"
	config.YAxisLabel = "Games"
	return RenderBarChart(labels, series, config, outputPath)
}

// renderEloChart plots the rating-change histogram in bucket order.
func renderEloChart(report *stats.Report, outputPath string) error {
	labels := stats.EloBucketLabels()
	points := make([]float64, len(labels))
	for i, label := range labels {
		points[i] = float64(report.EloGains[label])
	}

	config := DefaultChartConfig()
	config.Title = fmt.Sprintf("%s rating changes", report.CardName)
	config.XAxisLabel = "Rating change"
	config.YAxisLabel = "Games"
	config.ShowLegend = false
	return RenderBarChart(labels, []SeriesData{{Name: "Games", Points: points}}, config, outputPath)
}

func generationAxis(maps ...map[int]int) []int {
	set := map[int]struct{}{}
	for _, m := range maps {
		for g := range m {
			set[g] = struct{}{}
		}
	}
	gens := make([]int, 0, len(set))
	for g := range set {
		gens = append(gens, g)
	}
	sort.Ints(gens)
	return gens
}

func genSeries(gens []int, m map[int]int) []float64 {
	points := make([]float64, len(gens))
	for i, g := range gens {
		points[i] = float64(m[g])
	}
	return points
}
