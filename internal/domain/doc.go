// Package domain models daily station observations and the categorical
// seasonal forecasts scored against them.
//
// # Data Source
//
// Daily records originate from the Hong Kong Observatory (HKO) daily extract,
// one row per day with the columns year, month, day and a set of numeric
// elements. The upstream collector fetches the per-year extracts and writes a
// flat CSV; this service treats that table as an already-available input.
//
// # HKO Data Conventions
//
// Elements (column name → reduction used for a seasonal aggregate):
//
//	avgtemp  mean daily temperature (°C)      mean
//	maxtemp  absolute daily maximum (°C)      mean
//	mintemp  absolute daily minimum (°C)      mean
//	dewtemp  mean dew point (°C)              mean
//	rh       mean relative humidity (%)       mean
//	slp      mean pressure (hPa)              mean
//	cld      mean cloud amount (%)            mean
//	avgws    mean wind speed (km/h)           mean
//	rf       total rainfall (mm)              sum
//	sunhr    total bright sunshine (hours)    sum
//
// Unknown values:
//
//	"***" is the HKO sentinel for unavailable data; empty cells are treated the
//	same way. Both leave the element missing for that day.
//	"Trace" marks rainfall below 0.05 mm and is read as 0.
//
// # Seasons
//
// Meteorological seasons are fixed sets of calendar months:
//
//	spring  Mar Apr May
//	summer  Jun Jul Aug
//	autumn  Sep Oct Nov
//	winter  Dec Jan Feb
//
// The winter of year Y is Dec(Y) + Jan/Feb(Y+1). Every month maps to exactly
// one season through a fixed table together with a year offset, so January
// 1991 belongs to the winter of 1990. See [SeasonOfMonth].
//
// # Categories
//
// A seasonal aggregate is classified against its climatological normal with a
// standardized anomaly Z. Outcomes are three-way (below, near, above normal);
// forecast calls are binary (below-leaning or above-leaning).
package domain
