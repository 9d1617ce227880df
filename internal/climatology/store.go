// Package climatology turns a daily record table into seasonal aggregates and
// fits climatological normals over baseline periods.
//
// Construction is explicit and ordered: a RecordStore is built from the loaded
// records, a Builder derives the aggregate caches from it, then fits the
// normals from those caches. Everything is read-only once built.
package climatology

import (
	"github.com/couchcryptid/seasonal-forecast-skill/internal/domain"
)

type yearMonth struct {
	year  int
	month int
}

// RecordStore holds the daily observation table indexed by calendar month.
type RecordStore struct {
	records []domain.DailyRecord
	byMonth map[yearMonth][]int
	first   int
	last    int
}

// NewRecordStore indexes records by (year, month). Input order is preserved
// within each month so repeated extractions return identical slices.
func NewRecordStore(records []domain.DailyRecord) *RecordStore {
	s := &RecordStore{
		records: records,
		byMonth: make(map[yearMonth][]int),
	}
	for i, r := range records {
		key := yearMonth{r.Year, r.Month}
		s.byMonth[key] = append(s.byMonth[key], i)
		if i == 0 || r.Year < s.first {
			s.first = r.Year
		}
		if i == 0 || r.Year > s.last {
			s.last = r.Year
		}
	}
	return s
}

// Len returns the number of daily records.
func (s *RecordStore) Len() int { return len(s.records) }

// YearSpan returns the first and last calendar year present. Both are zero for
// an empty store.
func (s *RecordStore) YearSpan() (first, last int) { return s.first, s.last }

// Month returns the records of one calendar month in input order.
func (s *RecordStore) Month(year, month int) []domain.DailyRecord {
	idx := s.byMonth[yearMonth{year, month}]
	out := make([]domain.DailyRecord, len(idx))
	for i, j := range idx {
		out[i] = s.records[j]
	}
	return out
}
