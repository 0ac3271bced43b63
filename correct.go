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

// PhaseResult is the driver's record of one crop phase. Its residue and
// uptake totals start from the crop's unconstrained growth and are reduced
// by any uptake corrections.
type PhaseResult struct {
	Phase  Phase
	Config CropConfig
	Crop   *CropType

	// Residues returned to the soil at harvest [kg N/ha].
	ResRoot, ResStover, ResFieldLoss float64

	// TotalUptake is the crop N taken up from the soil [kg/ha].
	TotalUptake float64

	// ProductN is the N removed with the crop at harvest [kg/ha].
	ProductN float64

	// Corrections lists the uptake corrections applied to the phase.
	Corrections []Patch
}

func newPhaseResult(p Phase, cfg CropConfig, c *CropType) *PhaseResult {
	return &PhaseResult{
		Phase:        p,
		Config:       cfg,
		Crop:         c,
		ResRoot:      c.ResRoot,
		ResStover:    c.ResStover,
		ResFieldLoss: c.ResFieldLoss,
		TotalUptake:  c.TotalN,
		ProductN:     c.TotalN,
	}
}

// Patch describes the correction made to a crop phase when the crop's N
// demand on a day exceeds the soil mineral N available.
type Patch struct {
	Phase    Phase
	Date     time.Time // the day of the shortage
	Shortage float64   // [kg N/ha]

	// Cumulative crop N is reduced by Shortage from Date through CropNTo.
	CropNTo time.Time

	// ProductNDate is the day harvested N is recorded.
	ProductNDate time.Time

	// Changes to the phase totals [kg N/ha].
	ResRoot, ResStover, ResFieldLoss float64
	TotalUptake, ProductN            float64
}

// Correct returns the patch that reduces the crop growing on date so that
// its uptake that day is reduced by shortage. The reduction of residue
// returns is shared between plant fractions in proportion to their
// nitrogen harvest indices.
func Correct(phases []*PhaseResult, date time.Time, shortage float64) (Patch, error) {
	date = Day(date)
	for _, ph := range phases {
		if ph == nil || !ph.Config.contains(date) {
			continue
		}
		nhi := ph.Crop.NHI
		harvest := Day(ph.Config.HarvestDate)
		return Patch{
			Phase:        ph.Phase,
			Date:         date,
			Shortage:     shortage,
			CropNTo:      harvest,
			ProductNDate: addDays(harvest, 1),
			ResRoot:      -nhi.Root * shortage,
			ResStover:    -nhi.Stover * shortage,
			ResFieldLoss: -nhi.FieldLoss * shortage,
			TotalUptake:  -shortage,
			ProductN:     -shortage,
		}, nil
	}
	return Patch{}, fmt.Errorf("nbalance: no crop is growing on %s to correct a %g kg/ha shortage",
		date.Format(DateFormat), shortage)
}

// Apply applies the correction c to the phase.
func (p *PhaseResult) Apply(c Patch) error {
	if c.Phase != p.Phase {
		return fmt.Errorf("nbalance: applying %s crop correction to %s crop", c.Phase, p.Phase)
	}
	i0, ok := p.Crop.index(c.Date)
	if !ok {
		return fmt.Errorf("nbalance: correction date %s is outside %s crop",
			c.Date.Format(DateFormat), p.Phase)
	}
	i1, ok := p.Crop.index(c.CropNTo)
	if !ok {
		i1 = len(p.Crop.Dates) - 1
	}
	p.Crop.Uptake[i0] -= c.Shortage
	for i := i0; i <= i1; i++ {
		p.Crop.TotalCropN[i] -= c.Shortage
	}
	p.ResRoot += c.ResRoot
	p.ResStover += c.ResStover
	p.ResFieldLoss += c.ResFieldLoss
	p.TotalUptake += c.TotalUptake
	p.ProductN += c.ProductN
	p.Corrections = append(p.Corrections, c)
	return nil
}
