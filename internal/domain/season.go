package domain

import (
	"fmt"
	"strings"
)

// Season is a meteorological season. Its integer value is the season index
// used when ordering evaluation instances.
type Season int

const (
	Spring Season = iota
	Summer
	Autumn
	Winter
)

// Seasons lists every season in index order.
var Seasons = []Season{Spring, Summer, Autumn, Winter}

var seasonNames = [...]string{"spring", "summer", "autumn", "winter"}

func (s Season) String() string {
	if !s.Valid() {
		return fmt.Sprintf("season(%d)", int(s))
	}
	return seasonNames[s]
}

// Valid reports whether s is one of the four seasons.
func (s Season) Valid() bool {
	return s >= Spring && s <= Winter
}

// ParseSeason converts a case-insensitive season name.
func ParseSeason(name string) (Season, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, sn := range seasonNames {
		if sn == n {
			return Season(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSeason, name)
}

// seasonMonth assigns a calendar month to a season and shifts its calendar
// year onto the season year.
type seasonMonth struct {
	season     Season
	yearOffset int
}

// monthTable is indexed by calendar month (1-12). Jan/Feb belong to the winter
// that started the previous December.
var monthTable = [13]seasonMonth{
	1:  {Winter, -1},
	2:  {Winter, -1},
	3:  {Spring, 0},
	4:  {Spring, 0},
	5:  {Spring, 0},
	6:  {Summer, 0},
	7:  {Summer, 0},
	8:  {Summer, 0},
	9:  {Autumn, 0},
	10: {Autumn, 0},
	11: {Autumn, 0},
	12: {Winter, 0},
}

// SeasonOfMonth returns the season a calendar month belongs to and the offset
// to add to the calendar year to get the season year.
func SeasonOfMonth(month int) (Season, int, error) {
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("%w: month %d", ErrOutOfRange, month)
	}
	m := monthTable[month]
	return m.season, m.yearOffset, nil
}

// SeasonYear places a calendar (year, month) into its season instance.
func SeasonYear(year, month int) (Instance, error) {
	s, off, err := SeasonOfMonth(month)
	if err != nil {
		return Instance{}, err
	}
	return Instance{Year: year + off, Season: s}, nil
}

// MonthSpan is one calendar month of a season instance.
type MonthSpan struct {
	Year  int
	Month int
}

// Months returns the calendar months of the season in chronological order.
func (s Season) Months() []int {
	switch s {
	case Spring:
		return []int{3, 4, 5}
	case Summer:
		return []int{6, 7, 8}
	case Autumn:
		return []int{9, 10, 11}
	case Winter:
		return []int{12, 1, 2}
	default:
		return nil
	}
}

// Span returns the calendar (year, month) pairs covered by the season of the
// given season year.
func (s Season) Span(year int) []MonthSpan {
	months := s.Months()
	out := make([]MonthSpan, 0, len(months))
	for _, m := range months {
		out = append(out, MonthSpan{Year: year - monthTable[m].yearOffset, Month: m})
	}
	return out
}

func (s Season) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSeason, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Season) UnmarshalText(b []byte) error {
	v, err := ParseSeason(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
