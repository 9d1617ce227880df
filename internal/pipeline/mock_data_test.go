package pipeline_test

import (
	"context"

	"github.com/couchcryptid/seasonal-forecast-skill/internal/domain"
)

// syntheticRecords returns three days per month for calendar years 1980-2021.
// Each season year Y carries an anomaly of (Y%4)*2-3, so the 1991-2021 and
// 1981-2011 baselines both center on zero. Season years 2016, 2017, 2018 and
// 2019 come out below, near, near and above normal.
//
// sunhr repeats the anomaly up to 2015 and stays flat afterwards, which keeps
// every evaluation instance from 2016 inside the near-normal band.
func syntheticRecords() []domain.DailyRecord {
	var out []domain.DailyRecord
	for year := 1980; year <= 2021; year++ {
		for month := 1; month <= 12; month++ {
			seasonYear := year
			if month <= 2 {
				seasonYear--
			}
			anomaly := float64((seasonYear%4)*2 - 3)
			sun := 5.0
			if seasonYear < 2016 {
				sun += anomaly
			}
			for day := 1; day <= 3; day++ {
				out = append(out, domain.DailyRecord{
					Year:  year,
					Month: month,
					Day:   day,
					Values: map[domain.Field]float64{
						domain.FieldAvgTemp:  20 + anomaly + float64(month)*0.1,
						domain.FieldRainfall: 100 + 30*anomaly,
						domain.FieldSunshine: sun,
					},
				})
			}
		}
	}
	return out
}

type fakeRecords struct {
	records []domain.DailyRecord
	err     error
}

func (f *fakeRecords) LoadRecords(_ context.Context) ([]domain.DailyRecord, error) {
	return f.records, f.err
}

// fakeCalls issues the same call for every field and instance.
type fakeCalls struct {
	call     domain.Call
	outcomes []domain.Outcome
	err      error
}

func (f *fakeCalls) LoadCalls(_ context.Context, fields []domain.Field, instances []domain.Instance) (domain.ForecastSet, error) {
	if f.err != nil {
		return nil, f.err
	}
	set := domain.ForecastSet{}
	for _, field := range fields {
		calls := make([]domain.Call, len(instances))
		for i := range calls {
			calls[i] = f.call
		}
		set[field] = domain.FieldForecast{Calls: calls, Outcomes: f.outcomes}
	}
	return set, nil
}

type fakePublisher struct {
	name      string
	failTimes int
	attempts  int
	published []domain.Report
}

func (f *fakePublisher) Name() string { return f.name }

func (f *fakePublisher) Publish(_ context.Context, r domain.Report) error {
	f.attempts++
	if f.failTimes < 0 || f.attempts <= f.failTimes {
		return errSinkDown
	}
	f.published = append(f.published, r)
	return nil
}
