// Command validate checks a daily-record table before it is scored: calendar
// coverage, per-season completeness of the scored fields, and whether every
// configured baseline can be fitted. It reads the same environment
// configuration as the scorer (DATA_PATH, SCORED_FIELDS, BASELINES,
// DATA_FIRST_YEAR, DATA_END_YEAR).
//
// Usage:
//
//	go run ./cmd/validate -daily data/hko_data.csv -min-coverage 0.8
package main

import (
	"flag"
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/couchcryptid/seasonal-forecast-skill/internal/adapter/csvfile"
	"github.com/couchcryptid/seasonal-forecast-skill/internal/climatology"
	"github.com/couchcryptid/seasonal-forecast-skill/internal/config"
	"github.com/couchcryptid/seasonal-forecast-skill/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	daily := flag.String("daily", "", "path to the daily-record CSV (default: DATA_PATH)")
	minCoverage := flag.Float64("min-coverage", 0.8, "minimum fraction of days with a value per field and season")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}
	if *daily != "" {
		cfg.DataPath = *daily
	}

	if code := run(cfg, *minCoverage); code != 0 {
		os.Exit(code)
	}
}

func run(cfg *config.Config, minCoverage float64) int {
	fmt.Println("=== Daily Record Validation ===")
	fmt.Println()

	f, err := os.Open(cfg.DataPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open daily records: %v\n", err)
		return 1
	}
	records, err := csvfile.ReadDaily(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse %s: %v\n", cfg.DataPath, err)
		return 1
	}
	store := climatology.NewRecordStore(records)

	phases := []*phase{
		validateCalendar(records, cfg.FirstYear, cfg.EndYear),
		validateSeasonCoverage(store, cfg, minCoverage),
		validateBaselines(store, cfg),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	first, last := store.YearSpan()
	fmt.Println()
	fmt.Printf("Records: %d daily rows, calendar years %d-%d\n", store.Len(), first, last)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Printf("  ... and %d more\n", len(p.errors)-20)
				break
			}
			fmt.Printf("  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}

// validateCalendar checks that each calendar day a season year in
// [firstYear, endYear) needs appears exactly once.
func validateCalendar(records []domain.DailyRecord, firstYear, endYear int) *phase {
	p := &phase{name: "Calendar coverage"}

	seen := map[time.Time]int{}
	for _, r := range records {
		d := time.Date(r.Year, time.Month(r.Month), r.Day, 0, 0, 0, 0, time.UTC)
		if d.Day() != r.Day {
			p.errorf("invalid date %04d-%02d-%02d", r.Year, r.Month, r.Day)
			continue
		}
		seen[d]++
	}
	for _, d := range slices.SortedFunc(maps.Keys(seen), time.Time.Compare) {
		if n := seen[d]; n > 1 {
			p.errorf("%s appears %d times", d.Format(time.DateOnly), n)
		}
	}

	// Season years [firstYear, endYear) span March of firstYear to February of endYear.
	start := time.Date(firstYear, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(endYear, time.March, 1, 0, 0, 0, 0, time.UTC)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if seen[d] == 0 {
			p.errorf("missing %s", d.Format(time.DateOnly))
		}
	}
	return p
}

// validateSeasonCoverage checks every (field, season, year) has values on at
// least minCoverage of its days.
func validateSeasonCoverage(store *climatology.RecordStore, cfg *config.Config, minCoverage float64) *phase {
	p := &phase{name: fmt.Sprintf("Season coverage (>= %.0f%%)", minCoverage*100)}

	ex := climatology.NewExtractor(store, cfg.FirstYear, cfg.EndYear)
	for _, year := range ex.Years() {
		for _, season := range domain.Seasons {
			days, err := ex.Extract(season, year)
			if err != nil {
				p.errorf("%d:%s: %v", year, season, err)
				continue
			}
			if len(days) == 0 {
				p.errorf("%d:%s: no records", year, season)
				continue
			}
			for _, field := range cfg.ScoredFields {
				present := 0
				for _, d := range days {
					if _, ok := d.Value(field); ok {
						present++
					}
				}
				if cov := float64(present) / float64(len(days)); cov < minCoverage {
					p.errorf("%d:%s %s: %d of %d days (%.0f%%)", year, season, field, present, len(days), cov*100)
				}
			}
		}
	}
	return p
}

// validateBaselines builds the climatology the scorer would build.
func validateBaselines(store *climatology.RecordStore, cfg *config.Config) *phase {
	p := &phase{name: "Baseline fits"}

	_, err := climatology.NewBuilder(store, climatology.Options{
		FirstYear: cfg.FirstYear,
		EndYear:   cfg.EndYear,
		Fields:    cfg.ScoredFields,
		Baselines: cfg.Baselines,
	}).Build()
	if err != nil {
		p.errorf("%v", err)
	}
	return p
}
