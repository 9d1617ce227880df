// Command genmock writes a synthetic daily-record table in the HKO extract
// layout and a matching forecast-call file. Output is fully determined by the
// seed, so fixtures can be regenerated byte for byte.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -daily-out data/hko_data.csv \
//	  -forecast-out data/forecast.csv \
//	  -seed 42
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/seasonal-forecast-skill/internal/domain"
	"github.com/couchcryptid/seasonal-forecast-skill/internal/scoring"
)

// Monthly climate of the synthetic station: mean temperature (°C), daily
// rainfall (mm) and daily sunshine (h), January first.
var (
	monthTemp = [12]float64{16.3, 16.8, 19.1, 22.6, 25.9, 27.9, 28.8, 28.6, 27.7, 25.5, 21.8, 17.9}
	monthRain = [12]float64{0.8, 1.9, 2.0, 5.0, 9.9, 15.6, 12.4, 13.9, 10.6, 3.9, 1.2, 0.9}
	monthSun  = [12]float64{4.4, 3.2, 3.1, 3.7, 4.8, 5.0, 7.1, 6.6, 6.2, 6.6, 5.8, 5.2}
)

var header = []string{"day", "slp", "maxtemp", "avgtemp", "mintemp", "dewtemp", "rh", "cld", "rf", "sunhr", "avgws", "month", "year"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dailyOut := flag.String("daily-out", "", "output path for the daily-record CSV")
	forecastOut := flag.String("forecast-out", "", "output path for the forecast-call CSV")
	firstYear := flag.Int("first-year", 1980, "first calendar year to generate")
	lastYear := flag.Int("last-year", 2021, "last calendar year to generate (inclusive)")
	windowFlag := flag.String("window", "2016:spring-2020:winter", "evaluation window for the forecast file")
	seed := flag.Uint64("seed", 42, "random seed")
	missing := flag.Float64("missing", 0.01, "fraction of cells written as ***")
	flag.Parse()

	if *dailyOut == "" || *forecastOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -daily-out, -forecast-out")
	}
	if *lastYear < *firstYear {
		return fmt.Errorf("-last-year %d precedes -first-year %d", *lastYear, *firstYear)
	}
	window, err := domain.ParseWindow(*windowFlag)
	if err != nil {
		return fmt.Errorf("invalid -window: %w", err)
	}

	rng := scoring.NewSeededRand(*seed)
	g := &generator{rng: rng, missing: *missing, anomalies: map[domain.Instance][2]float64{}}

	rows := g.daily(*firstYear, *lastYear)
	if err := writeCSV(*dailyOut, header, rows); err != nil {
		return fmt.Errorf("writing daily records: %w", err)
	}
	log.Printf("wrote %d daily records: %s", len(rows), *dailyOut)

	calls := g.forecast(window.Instances())
	if err := writeCSV(*forecastOut, []string{"year", "season", "field", "call"}, calls); err != nil {
		return fmt.Errorf("writing forecast calls: %w", err)
	}
	log.Printf("wrote %d forecast calls: %s", len(calls), *forecastOut)
	return nil
}

type generator struct {
	rng     *rand.Rand
	missing float64
	// Per season-year temperature and rainfall anomalies, in standard units.
	anomalies map[domain.Instance][2]float64
}

func (g *generator) anomaly(year, month int) [2]float64 {
	inst, err := domain.SeasonYear(year, month)
	if err != nil {
		panic(err)
	}
	a, ok := g.anomalies[inst]
	if !ok {
		// Slow warming trend on top of interannual noise.
		trend := float64(inst.Year-2000) * 0.03
		a = [2]float64{trend + g.rng.NormFloat64(), g.rng.NormFloat64()}
		g.anomalies[inst] = a
	}
	return a
}

func (g *generator) daily(firstYear, lastYear int) [][]string {
	var rows [][]string
	for year := firstYear; year <= lastYear; year++ {
		for month := 1; month <= 12; month++ {
			a := g.anomaly(year, month)
			days := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
			for day := 1; day <= days; day++ {
				rows = append(rows, g.day(year, month, day, a))
			}
		}
	}
	return rows
}

func (g *generator) day(year, month, day int, a [2]float64) []string {
	m := month - 1
	avg := monthTemp[m] + 0.6*a[0] + 1.2*g.rng.NormFloat64()
	spread := 2.5 + 0.5*g.rng.Float64()
	rh := math.Min(99, 78+6*g.rng.NormFloat64())

	rain := 0.0
	if g.rng.Float64() < 0.35 {
		rain = g.rng.ExpFloat64() * monthRain[m] * math.Exp(0.4*a[1]) / 0.35
	}
	rf := strconv.FormatFloat(rain, 'f', 1, 64)
	switch {
	case rain == 0 && g.rng.Float64() < 0.15:
		rf = "Trace"
	case rain == 0:
		rf = "0.0"
	}

	return []string{
		strconv.Itoa(day),
		g.cell(1012+4*g.rng.NormFloat64(), 1),
		g.cell(avg+spread, 1),
		g.cell(avg, 1),
		g.cell(avg-spread, 1),
		g.cell(avg-(100-rh)/5, 1),
		g.cell(rh, 0),
		g.cell(math.Max(0, math.Min(100, 70+15*g.rng.NormFloat64())), 0),
		rf,
		g.cell(math.Max(0, monthSun[m]+2*g.rng.NormFloat64()), 1),
		g.cell(math.Max(0, 22+6*g.rng.NormFloat64()), 1),
		strconv.Itoa(month),
		strconv.Itoa(year),
	}
}

// cell formats v or, with probability g.missing, the HKO unavailable marker.
func (g *generator) cell(v float64, prec int) string {
	if g.rng.Float64() < g.missing {
		return "***"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// forecast issues a call per instance that leans toward the generated anomaly,
// right about two times in three.
func (g *generator) forecast(instances []domain.Instance) [][]string {
	var rows [][]string
	for _, inst := range instances {
		a, ok := g.anomalies[inst]
		if !ok {
			a = [2]float64{g.rng.NormFloat64(), g.rng.NormFloat64()}
		}
		for i, field := range []domain.Field{domain.FieldAvgTemp, domain.FieldRainfall} {
			call := domain.CallBelow
			if a[i]+0.8*g.rng.NormFloat64() > 0 {
				call = domain.CallAbove
			}
			rows = append(rows, []string{strconv.Itoa(inst.Year), inst.Season.String(), string(field), call.String()})
		}
	}
	return rows
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}
