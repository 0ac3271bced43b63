/*
Copyright © 2019 the FieldNBalance authors.
This file is part of FieldNBalance.

FieldNBalance is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

FieldNBalance is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with FieldNBalance.  If not, see <http://www.gnu.org/licenses/>.
*/

package nbalance

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
)

// GapPolicy specifies how missing days in input weather data are handled.
type GapPolicy int

const (
	// GapFail causes a DataGapError to be returned for a missing day.
	GapFail GapPolicy = iota

	// GapZero fills missing days with zeros.
	GapZero

	// GapInterpolate fills missing days by linear interpolation between
	// the nearest available days, or by copying the nearest available
	// day at the ends of the record.
	GapInterpolate
)

var gapPolicyNames = map[string]GapPolicy{
	"fail":        GapFail,
	"zero":        GapZero,
	"interpolate": GapInterpolate,
}

// ParseGapPolicy returns the gap policy with the given name, which must be
// one of "fail", "zero" or "interpolate".
func ParseGapPolicy(s string) (GapPolicy, error) {
	p, ok := gapPolicyNames[s]
	if !ok {
		return GapFail, ConfigurationError{Item: "gap policy", Key: s}
	}
	return p, nil
}

func (p GapPolicy) String() string {
	for k, v := range gapPolicyNames {
		if v == p {
			return k
		}
	}
	return fmt.Sprintf("GapPolicy(%d)", int(p))
}

// WeatherRecord holds the weather on one day.
type WeatherRecord struct {
	Date time.Time
	Temp float64 // mean air temperature [°C]
	Rain float64 // [mm]
	PET  float64 // potential evapotranspiration [mm]
}

// Weather is a contiguous daily weather series.
type Weather struct {
	Start           time.Time
	Temp, Rain, PET []float64
}

// NewWeather creates a contiguous weather series covering start through
// end from records, which need not be sorted or complete. Missing days are
// handled according to policy.
func NewWeather(records []WeatherRecord, start, end time.Time, policy GapPolicy) (*Weather, error) {
	start, end = Day(start), Day(end)
	n := daysBetween(start, end) + 1
	if n <= 0 {
		return nil, fmt.Errorf("nbalance: weather end %s is before start %s",
			end.Format(DateFormat), start.Format(DateFormat))
	}
	sorted := make([]WeatherRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	w := &Weather{
		Start: start,
		Temp:  make([]float64, n),
		Rain:  make([]float64, n),
		PET:   make([]float64, n),
	}
	have := make([]bool, n)
	for _, r := range sorted {
		i := daysBetween(start, r.Date)
		if i < 0 || i >= n {
			continue
		}
		w.Temp[i], w.Rain[i], w.PET[i] = r.Temp, r.Rain, r.PET
		have[i] = true
	}
	for i, ok := range have {
		if ok {
			continue
		}
		switch policy {
		case GapZero:
		case GapInterpolate:
			if err := w.interpolate(i, sorted); err != nil {
				return nil, err
			}
		default:
			return nil, DataGapError{Series: "weather", Date: addDays(start, i)}
		}
	}
	return w, nil
}

// interpolate fills day i of w from the nearest records on either side.
func (w *Weather) interpolate(i int, sorted []WeatherRecord) error {
	d := addDays(w.Start, i)
	if len(sorted) == 0 {
		return DataGapError{Series: "weather", Date: d}
	}
	j := sort.Search(len(sorted), func(k int) bool { return !sorted[k].Date.Before(d) })
	switch {
	case j == 0:
		w.Temp[i], w.Rain[i], w.PET[i] = sorted[0].Temp, sorted[0].Rain, sorted[0].PET
	case j == len(sorted):
		l := sorted[len(sorted)-1]
		w.Temp[i], w.Rain[i], w.PET[i] = l.Temp, l.Rain, l.PET
	default:
		a, b := sorted[j-1], sorted[j]
		f := float64(daysBetween(a.Date, d)) / float64(daysBetween(a.Date, b.Date))
		w.Temp[i] = a.Temp + f*(b.Temp-a.Temp)
		w.Rain[i] = a.Rain + f*(b.Rain-a.Rain)
		w.PET[i] = a.PET + f*(b.PET-a.PET)
	}
	return nil
}

// Len returns the number of days in the series.
func (w *Weather) Len() int { return len(w.Temp) }

// End returns the last day in the series.
func (w *Weather) End() time.Time { return addDays(w.Start, w.Len()-1) }

// index returns the position of d in the series.
func (w *Weather) index(d time.Time) (int, error) {
	i := daysBetween(w.Start, d)
	if i < 0 || i >= w.Len() {
		return -1, DataGapError{Series: "weather", Date: Day(d)}
	}
	return i, nil
}

// Covers returns an error if the series does not include every day from
// start through end.
func (w *Weather) Covers(start, end time.Time) error {
	if _, err := w.index(start); err != nil {
		return err
	}
	_, err := w.index(end)
	return err
}

// ThermalTime returns the daily thermal time [°C d] for a day with the
// given mean temperature, using a base temperature of 0 °C.
func ThermalTime(temp float64) float64 {
	return math.Max(0, temp)
}

// AccumulatedTt returns accumulated thermal time for every day from start
// through end, counting from zero on start.
func (w *Weather) AccumulatedTt(start, end time.Time) ([]float64, error) {
	i0, err := w.index(start)
	if err != nil {
		return nil, err
	}
	i1, err := w.index(end)
	if err != nil {
		return nil, err
	}
	if i1 < i0 {
		return nil, fmt.Errorf("nbalance: thermal time end %s is before start %s",
			end.Format(DateFormat), start.Format(DateFormat))
	}
	tt := make([]float64, i1-i0+1)
	for i := i0 + 1; i <= i1; i++ {
		tt[i-i0] = ThermalTime(w.Temp[i])
	}
	return floats.CumSum(tt, tt), nil
}
