package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Instance is one season of one season year, e.g. the winter of 2020.
type Instance struct {
	Year   int    `json:"year"`
	Season Season `json:"season"`
}

func (i Instance) String() string {
	return fmt.Sprintf("%d:%s", i.Year, i.Season)
}

// Before reports whether i precedes o in (year, season index) order.
func (i Instance) Before(o Instance) bool {
	if i.Year != o.Year {
		return i.Year < o.Year
	}
	return i.Season < o.Season
}

// next returns the instance that follows i.
func (i Instance) next() Instance {
	if i.Season == Winter {
		return Instance{Year: i.Year + 1, Season: Spring}
	}
	return Instance{Year: i.Year, Season: i.Season + 1}
}

// ParseInstance reads "<year>:<season>", e.g. "2016:spring".
func ParseInstance(s string) (Instance, error) {
	yearStr, seasonStr, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Instance{}, fmt.Errorf("instance %q: want <year>:<season>", s)
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return Instance{}, fmt.Errorf("instance %q: invalid year: %w", s, err)
	}
	season, err := ParseSeason(seasonStr)
	if err != nil {
		return Instance{}, fmt.Errorf("instance %q: %w", s, err)
	}
	return Instance{Year: year, Season: season}, nil
}

// Window is an inclusive range of evaluation instances.
type Window struct {
	Start Instance `json:"start"`
	End   Instance `json:"end"`
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// ParseWindow reads "<year>:<season>-<year>:<season>".
func ParseWindow(s string) (Window, error) {
	startStr, endStr, ok := strings.Cut(s, "-")
	if !ok {
		return Window{}, fmt.Errorf("window %q: want <start>-<end>", s)
	}
	start, err := ParseInstance(startStr)
	if err != nil {
		return Window{}, err
	}
	end, err := ParseInstance(endStr)
	if err != nil {
		return Window{}, err
	}
	w := Window{Start: start, End: end}
	if end.Before(start) {
		return Window{}, fmt.Errorf("window %q: end precedes start", s)
	}
	return w, nil
}

// Instances lists every instance from Start to End inclusive in (year, season
// index) order.
func (w Window) Instances() []Instance {
	if w.End.Before(w.Start) {
		return nil
	}
	var out []Instance
	for cur := w.Start; ; cur = cur.next() {
		out = append(out, cur)
		if cur == w.End {
			return out
		}
	}
}
