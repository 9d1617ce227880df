package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/seasonal-forecast-skill/internal/domain"
)

// ForecastSource loads issued forecast calls from a CSV file with the header
// year,season,field,call[,outcome].
// It implements pipeline.CallSource.
type ForecastSource struct {
	Path string
}

type forecastKey struct {
	field    domain.Field
	instance domain.Instance
}

type forecastRow struct {
	call       domain.Call
	outcome    domain.Outcome
	hasOutcome bool
}

// LoadCalls reads the file and aligns it with instances for every field.
func (s ForecastSource) LoadCalls(_ context.Context, fields []domain.Field, instances []domain.Instance) (domain.ForecastSet, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open forecast calls: %w", err)
	}
	defer f.Close()

	set, err := ReadForecast(f, fields, instances)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return set, nil
}

// ReadForecast parses forecast rows and returns one call vector per field,
// ordered like instances. A missing (field, instance) row is an error. Outcomes
// are kept only when every aligned row carries one.
func ReadForecast(r io.Reader, fields []domain.Field, instances []domain.Instance) (domain.ForecastSet, error) {
	rows, err := readForecastRows(r)
	if err != nil {
		return nil, err
	}

	set := make(domain.ForecastSet, len(fields))
	for _, f := range fields {
		ff := domain.FieldForecast{
			Calls:    make([]domain.Call, len(instances)),
			Outcomes: make([]domain.Outcome, len(instances)),
		}
		allOutcomes := true
		for i, inst := range instances {
			row, ok := rows[forecastKey{f, inst}]
			if !ok {
				return nil, domain.NewStageError("align forecast", f, inst.Season, inst.Year, errors.New("no forecast call"))
			}
			ff.Calls[i] = row.call
			ff.Outcomes[i] = row.outcome
			allOutcomes = allOutcomes && row.hasOutcome
		}
		if !allOutcomes {
			ff.Outcomes = nil
		}
		set[f] = ff
	}
	return set, nil
}

func readForecastRows(r io.Reader) (map[forecastKey]forecastRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"year", "season", "field", "call"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("header missing %q column", required)
		}
	}
	outcomeCol, hasOutcomeCol := cols["outcome"]

	rows := map[forecastKey]forecastRow{}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		year, err := strconv.Atoi(strings.TrimSpace(cell(row, cols["year"])))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid year: %w", line, err)
		}
		season, err := domain.ParseSeason(cell(row, cols["season"]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		field, err := domain.ParseField(strings.TrimSpace(cell(row, cols["field"])))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		call, err := domain.ParseCall(cell(row, cols["call"]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		fr := forecastRow{call: call}
		if hasOutcomeCol {
			if raw := strings.TrimSpace(cell(row, outcomeCol)); raw != "" {
				o, err := domain.ParseOutcome(raw)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				fr.outcome, fr.hasOutcome = o, true
			}
		}

		key := forecastKey{field, domain.Instance{Year: year, Season: season}}
		if _, dup := rows[key]; dup {
			return nil, fmt.Errorf("line %d: duplicate forecast for %s %s", line, field, key.instance)
		}
		rows[key] = fr
	}
}
