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
	"time"
)

// Ledger holds the daily output of a simulation. Each series has one
// value per day in Dates.
type Ledger struct {
	Dates []time.Time

	SoilMineralN []float64 // soil mineral N at the end of the day [kg/ha]
	UptakeN      []float64 // crop N uptake [kg/ha/d]
	ResidueN     []float64 // net residue mineralisation [kg/ha/d]
	SOMN         []float64 // soil organic matter mineralisation [kg/ha/d]
	FertiliserN  []float64 // fertiliser N reaching the soil [kg/ha/d]
	CropN        []float64 // N in the standing crop [kg/ha]
	ProductN     []float64 // N removed from the field at harvest [kg/ha]
	LostN        []float64 // N leached [kg/ha/d]
	RSWC         []float64 // relative soil water content
	Drainage     []float64 // [mm/d]
	Irrigation   []float64 // [mm/d]
	Cover        []float64 // green cover [fraction]

	// Recalibration is the change in soil mineral N made to match a
	// soil test [kg/ha].
	Recalibration []float64

	// Recommended is the recommended fertiliser application [kg N/ha],
	// before accounting for application efficiency.
	Recommended []float64
}

// SeriesNames are the names of the series in a ledger, in output order.
var SeriesNames = []string{"SoilMineralN", "UptakeN", "ResidueN", "SOMN",
	"FertiliserN", "CropN", "ProductN", "LostN", "RSWC", "Drainage",
	"Irrigation", "Cover", "Recalibration", "Recommended"}

// NewLedger creates an empty ledger covering start through end.
func NewLedger(start, end time.Time) *Ledger {
	dates := dateRange(start, end)
	n := len(dates)
	l := &Ledger{Dates: dates}
	for _, s := range l.series() {
		*s = make([]float64, n)
	}
	return l
}

func (l *Ledger) series() map[string]*[]float64 {
	return map[string]*[]float64{
		"SoilMineralN":  &l.SoilMineralN,
		"UptakeN":       &l.UptakeN,
		"ResidueN":      &l.ResidueN,
		"SOMN":          &l.SOMN,
		"FertiliserN":   &l.FertiliserN,
		"CropN":         &l.CropN,
		"ProductN":      &l.ProductN,
		"LostN":         &l.LostN,
		"RSWC":          &l.RSWC,
		"Drainage":      &l.Drainage,
		"Irrigation":    &l.Irrigation,
		"Cover":         &l.Cover,
		"Recalibration": &l.Recalibration,
		"Recommended":   &l.Recommended,
	}
}

// Len returns the number of days in the ledger.
func (l *Ledger) Len() int { return len(l.Dates) }

// Index returns the position of day d in the ledger.
func (l *Ledger) Index(d time.Time) (int, bool) {
	if len(l.Dates) == 0 {
		return -1, false
	}
	i := daysBetween(l.Dates[0], d)
	if i < 0 || i >= len(l.Dates) {
		return -1, false
	}
	return i, true
}

// Series returns the named series.
func (l *Ledger) Series(name string) ([]float64, error) {
	s, ok := l.series()[name]
	if !ok {
		return nil, fmt.Errorf("nbalance: undefined series '%s'", name)
	}
	return *s, nil
}

// Mineralisation returns the total mineralisation on day i.
func (l *Ledger) Mineralisation(i int) float64 {
	return l.ResidueN[i] + l.SOMN[i]
}

// BalanceResidual returns the difference between the soil mineral N on
// day i and the value implied by the previous day's N and day i's fluxes.
// It is zero when N mass is conserved.
func (l *Ledger) BalanceResidual(i int) float64 {
	if i == 0 {
		return 0
	}
	expected := l.SoilMineralN[i-1] + l.Mineralisation(i) + l.FertiliserN[i] -
		l.UptakeN[i] - l.LostN[i] + l.Recalibration[i]
	return l.SoilMineralN[i] - expected
}
