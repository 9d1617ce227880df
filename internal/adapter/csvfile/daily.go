// Package csvfile reads the flat CSV tables produced by the upstream collector:
// the daily observation extract and the issued seasonal forecast calls.
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

// HKO sentinels.
const (
	unavailable = "***"
	trace       = "trace"
)

// DailySource loads daily records from a CSV file.
// It implements pipeline.RecordSource.
type DailySource struct {
	Path string
}

// LoadRecords opens and parses the file.
func (s DailySource) LoadRecords(_ context.Context) ([]domain.DailyRecord, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open daily records: %w", err)
	}
	defer f.Close()

	records, err := ReadDaily(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return records, nil
}

// ReadDaily parses a daily table. The header must name year, month and day;
// every other column that names a known field is read, the rest are ignored.
func ReadDaily(r io.Reader) ([]domain.DailyRecord, error) {
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
	fieldCols := map[domain.Field]int{}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		cols[name] = i
		if f, err := domain.ParseField(name); err == nil {
			fieldCols[f] = i
		}
	}
	for _, required := range []string{"year", "month", "day"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("header missing %q column", required)
		}
	}

	var out []domain.DailyRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec, err := parseDailyRow(row, cols, fieldCols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
}

func parseDailyRow(row []string, cols map[string]int, fieldCols map[domain.Field]int) (domain.DailyRecord, error) {
	var date [3]int
	for i, name := range []string{"year", "month", "day"} {
		v, err := strconv.Atoi(strings.TrimSpace(cell(row, cols[name])))
		if err != nil {
			return domain.DailyRecord{}, fmt.Errorf("invalid %s: %w", name, err)
		}
		date[i] = v
	}
	if date[1] < 1 || date[1] > 12 {
		return domain.DailyRecord{}, fmt.Errorf("%w: month %d", domain.ErrOutOfRange, date[1])
	}

	rec := domain.DailyRecord{Year: date[0], Month: date[1], Day: date[2], Values: make(map[domain.Field]float64, len(fieldCols))}
	for f, i := range fieldCols {
		v, ok, err := parseValue(cell(row, i))
		if err != nil {
			return domain.DailyRecord{}, fmt.Errorf("invalid %s: %w", f, err)
		}
		if ok {
			rec.Values[f] = v
		}
	}
	return rec, nil
}

// parseValue reads one element. Unavailable or empty cells report ok=false.
func parseValue(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || s == unavailable:
		return 0, false, nil
	case strings.EqualFold(s, trace):
		return 0, true, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
