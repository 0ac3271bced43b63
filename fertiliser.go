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
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Application is a fertiliser N application [kg N/ha].
type Application struct {
	Date   time.Time
	Amount float64
}

// nextEvent returns the first day after d in events, or limit if there
// are none before limit.
func nextEvent(events map[time.Time]float64, d, limit time.Time) time.Time {
	dates := make([]time.Time, 0, len(events))
	for e := range events {
		if e.After(d) && e.Before(limit) {
			dates = append(dates, e)
		}
	}
	if len(dates) == 0 {
		return limit
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates[0]
}

// recommend returns the fertiliser N that should be applied to the current
// crop on day d, or zero if none is needed.
//
// Soil mineral N is projected forward to the next scheduled application,
// soil test or harvest using today's mineralisation rate and the crop's
// demand. If the projection falls below the trigger level, the
// recommendation is the larger of the amount needed to keep the pool at the
// trigger level until then, and the remaining shortfall to harvest shared
// between the remaining splits. Amounts are divided by the application
// efficiency.
func (s *Simulation) recommend(d time.Time) float64 {
	cur := s.Phases[Current]
	if s.splitsLeft <= 0 || cur == nil || !cur.Config.contains(d) {
		return 0
	}
	j, ok := cur.Crop.index(d)
	if !ok {
		return 0
	}
	harvest := Day(cur.Config.HarvestDate)
	horizon := nextEvent(s.Applications, d, harvest)
	if t := nextEvent(s.Tests, d, harvest); t.Before(horizon) {
		horizon = t
	}
	rate := s.Ledger.Mineralisation(s.Day)
	trigger := s.Field.Trigger

	jh, _ := cur.Crop.index(horizon)
	demand := floats.Sum(cur.Crop.Uptake[j : jh+1])
	projected := s.n + rate*float64(daysBetween(d, horizon)) - demand
	if projected >= trigger {
		return 0
	}

	seasonDemand := floats.Sum(cur.Crop.Uptake[j:])
	seasonSupply := s.n + rate*float64(daysBetween(d, harvest))
	shared := (seasonDemand + trigger - seasonSupply) / float64(s.splitsLeft)
	amount := math.Max(trigger-projected, shared)
	if amount <= 0 {
		return 0
	}
	return amount / s.Field.Efficiency
}
