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
	"io"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// Number of days simulated before the prior crop is established and
// after the following crop is harvested.
const (
	leadDays  = 1
	trailDays = 2
)

// MassBalanceTolerance is the largest acceptable daily N mass balance
// residual [kg/ha].
const MassBalanceTolerance = 1e-6

// Run simulates the field described by in and returns the result.
// If log is nil, the standard logrus logger is used.
func Run(in *Inputs, table *CoefficientTable, stages StageTable, log logrus.FieldLogger) (*Result, error) {
	s := &Simulation{
		Inputs:       in,
		InitFuncs:    []DayManipulator{Setup(table, stages)},
		RunFuncs:     DefaultRunFuncs(),
		CleanupFuncs: []DayManipulator{CheckMassBalance(MassBalanceTolerance)},
		Log:          log,
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	if err := s.Run(); err != nil {
		return nil, err
	}
	if err := s.Cleanup(); err != nil {
		return nil, err
	}
	return s.Result(), nil
}

// DefaultRunFuncs returns the daily steps of the field simulation, in the
// order they must be run.
func DefaultRunFuncs() []DayManipulator {
	return []DayManipulator{
		Transition(),
		WaterBalance(),
		Mineralise(),
		Recalibrate(),
		Fertilise(),
		Leach(),
		TakeUp(),
		Harvest(),
		NextDay(),
	}
}

// normalizeEvents returns a copy of e with every date truncated to a day.
// Values on the same day are summed.
func normalizeEvents(e map[time.Time]float64) map[time.Time]float64 {
	o := make(map[time.Time]float64, len(e))
	for d, v := range e {
		o[Day(d)] += v
	}
	return o
}

// checkPhaseOrder makes sure the crops follow one another without
// overlapping.
func checkPhaseOrder(crops [NumPhases]CropConfig) error {
	for i, c := range crops {
		p := Phase(i)
		if c.EstablishDate.IsZero() || c.HarvestDate.IsZero() {
			return ConfigurationError{Item: "crop dates", Key: c.Name, Msg: fmt.Sprintf("%s crop dates are not set", p)}
		}
		if Day(c.EstablishDate).After(Day(c.HarvestDate)) {
			return ConfigurationError{Item: "establishment date", Key: c.Name, Date: Day(c.EstablishDate),
				Msg: fmt.Sprintf("%s crop is established after it is harvested", p)}
		}
		if i > 0 && !Day(c.EstablishDate).After(Day(crops[i-1].HarvestDate)) {
			return ConfigurationError{Item: "establishment date", Key: c.Name, Date: Day(c.EstablishDate),
				Msg: fmt.Sprintf("%s crop is established before the %s crop is harvested", p, Phase(i-1))}
		}
	}
	return nil
}

// SimulationPeriod returns the first and last days simulated for the
// given crops: the day before the prior crop is established through two
// days after the following crop is harvested.
func SimulationPeriod(crops [NumPhases]CropConfig) (start, end time.Time) {
	return addDays(crops[Prior].EstablishDate, -leadDays), addDays(crops[Following].HarvestDate, trailDays)
}

// residueSources gives the N concentration of each residue type.
func residueSources(p CropParams) map[ResidueType]float64 {
	return map[ResidueType]float64{
		RootResidue:      p.RootNPct,
		StoverResidue:    p.StoverNPct,
		FieldLossResidue: p.ProductNPct,
	}
}

// Setup returns a function that checks the inputs, simulates the growth
// of each crop and prepares the ledger.
func Setup(table *CoefficientTable, stages StageTable) DayManipulator {
	return func(s *Simulation) error {
		if s.Inputs == nil || s.Weather == nil || s.Field == nil {
			return fmt.Errorf("nbalance: simulation inputs are incomplete")
		}
		if err := checkPhaseOrder(s.Crops); err != nil {
			return err
		}
		start, end := SimulationPeriod(s.Crops)
		if err := s.Weather.Covers(start, end); err != nil {
			return err
		}
		s.Tests = normalizeEvents(s.Tests)
		s.Applications = normalizeEvents(s.Applications)

		var err error
		for i, cfg := range s.Crops {
			p, err := table.Lookup(cfg.Name)
			if err != nil {
				return err
			}
			if Phase(i) != Following {
				// Residues of the following crop are not decomposed
				// within the simulation.
				for t, conc := range residueSources(p) {
					if !(conc > 0) {
						return ConfigurationError{Item: "residue N concentration", Key: fmt.Sprint(conc),
							Msg: fmt.Sprintf("%s crop %s has no %s N concentration", Phase(i), p.Name, t)}
					}
				}
			}
			c, err := Grow(cfg, p, stages, s.Weather)
			if err != nil {
				return fmt.Errorf("nbalance: growing %s crop: %w", Phase(i), err)
			}
			s.Phases[i] = newPhaseResult(Phase(i), cfg, c)
		}

		if s.water, err = NewSoilWater(s.Field.AWC, s.Field.Irrigate); err != nil {
			return err
		}
		s.Ledger = NewLedger(start, end)
		s.Ledger.SoilMineralN[0] = s.InitialN
		s.Ledger.RSWC[0] = s.water.RSWC()
		s.splitsLeft = s.Field.Splits
		s.residues = nil
		s.Recommendations = nil
		s.State = Prior
		s.Day = 1
		s.Done = s.Ledger.Len() < 2
		return nil
	}
}

// Transition moves the field to the next crop phase after each harvest,
// finds the crop growing today and starts the day's N account.
func Transition() DayManipulator {
	return func(s *Simulation) error {
		d := s.Date()
		for s.State < NumPhases && d.After(Day(s.Phases[s.State].Config.HarvestDate)) {
			s.State++
			if s.State < NumPhases {
				s.log().WithFields(logrus.Fields{
					"date":  d.Format(DateFormat),
					"phase": s.State.String(),
					"crop":  s.Phases[s.State].Config.Name,
				}).Info("entering crop phase")
			}
		}
		s.active = nil
		for _, p := range s.Phases {
			if p.Config.contains(d) {
				s.active = p
			}
		}
		s.n = s.Ledger.SoilMineralN[s.Day-1]
		return nil
	}
}

// WaterBalance advances the soil water balance.
func WaterBalance() DayManipulator {
	return func(s *Simulation) error {
		d, i := s.Date(), s.Day
		wi, err := s.Weather.index(d)
		if err != nil {
			return err
		}
		capture, cover := s.Field.PrePlantCapture, 0.0
		if s.active != nil {
			capture = s.Field.InCropCapture
			j, _ := s.active.Crop.index(d)
			cover = s.active.Crop.Cover[j]
		}
		w, err := s.water.Step(d, s.Weather.Rain[wi], s.Weather.PET[wi], capture, cover, s.active != nil)
		if err != nil {
			return err
		}
		s.waterDay = w
		s.Ledger.RSWC[i] = w.RSWC
		s.Ledger.Drainage[i] = w.Drainage
		s.Ledger.Irrigation[i] = w.Irrigation
		s.Ledger.Cover[i] = cover
		return nil
	}
}

// Mineralise adds soil organic matter and residue mineralisation to the
// soil mineral N pool.
func Mineralise() DayManipulator {
	return func(s *Simulation) error {
		d, i := s.Date(), s.Day
		wi, err := s.Weather.index(d)
		if err != nil {
			return err
		}
		temp, rswc := s.Weather.Temp[wi], s.Ledger.RSWC[i]
		som := SOMMineralisation(s.Field.PMNkgha, temp, rswc)
		var res float64
		for _, r := range s.residues {
			res += r.Step(d, temp, rswc)
		}
		s.Ledger.SOMN[i] = som
		s.Ledger.ResidueN[i] = res
		s.n += som + res
		return nil
	}
}

// Fertilise adds scheduled fertiliser and any recommended application.
func Fertilise() DayManipulator {
	return func(s *Simulation) error {
		d, i := s.Date(), s.Day
		eff := s.Field.Efficiency
		fert := s.Applications[d] * eff
		s.n += fert
		if rec := s.recommend(d); rec > 0 {
			s.splitsLeft--
			s.Recommendations = append(s.Recommendations, Application{Date: d, Amount: rec})
			s.Ledger.Recommended[i] = rec
			fert += rec * eff
			s.n += rec * eff
			s.log().WithFields(logrus.Fields{
				"date":   d.Format(DateFormat),
				"amount": rec,
				"splits": s.splitsLeft,
			}).Info("fertiliser recommended")
		}
		s.Ledger.FertiliserN[i] = fert
		return nil
	}
}

// Leach removes the N carried below the root zone by drainage.
func Leach() DayManipulator {
	return func(s *Simulation) error {
		lost := Leaching(s.n, s.waterDay.Drainage, s.water.AWC)
		s.Ledger.LostN[s.Day] = lost
		s.n -= lost
		return nil
	}
}

// Recalibrate resets the soil mineral N to the measured value on days with
// a soil test. The test measures the soil before that day's fertiliser, so
// Recalibrate runs before Fertilise.
func Recalibrate() DayManipulator {
	return func(s *Simulation) error {
		d := s.Date()
		test, ok := s.Tests[d]
		if !ok {
			return nil
		}
		adj := test - s.n
		s.Ledger.Recalibration[s.Day] = adj
		s.n = test
		s.log().WithFields(logrus.Fields{
			"date":       d.Format(DateFormat),
			"test":       test,
			"adjustment": adj,
		}).Debug("soil N recalibrated to test")
		return nil
	}
}

// TakeUp removes the crop's N demand from the soil. If the soil does not
// hold enough mineral N, the crop is corrected so that it only takes up
// what is available.
func TakeUp() DayManipulator {
	return func(s *Simulation) error {
		d, i := s.Date(), s.Day
		var uptake, cropN float64
		if p := s.active; p != nil {
			j, _ := p.Crop.index(d)
			demand := p.Crop.Uptake[j]
			if available := math.Max(0, s.n); demand > available {
				shortage := demand - available
				patch, err := Correct(s.Phases[:], d, shortage)
				if err != nil {
					return err
				}
				if err := s.Phases[patch.Phase].Apply(patch); err != nil {
					return err
				}
				s.log().WithFields(logrus.Fields{
					"date":     d.Format(DateFormat),
					"phase":    patch.Phase.String(),
					"shortage": shortage,
				}).Debug("crop N uptake limited by soil supply")
			}
			uptake = p.Crop.Uptake[j]
			cropN = p.Crop.TotalCropN[j]
		}
		s.n -= uptake
		s.Ledger.UptakeN[i] = uptake
		s.Ledger.CropN[i] = cropN
		s.Ledger.SoilMineralN[i] = s.n
		return nil
	}
}

// Harvest returns crop residues to the soil on harvest days and records
// the N removed from the field the day after harvest.
func Harvest() DayManipulator {
	return func(s *Simulation) error {
		d, i := s.Date(), s.Day
		for _, p := range s.Phases {
			harvest := Day(p.Config.HarvestDate)
			if d.Equal(addDays(harvest, 1)) {
				s.Ledger.ProductN[i] = p.ProductN
			}
			if !d.Equal(harvest) || p.Phase == Following {
				continue
			}
			amounts := map[ResidueType]float64{
				RootResidue:      p.ResRoot,
				StoverResidue:    p.ResStover,
				FieldLossResidue: p.ResFieldLoss,
			}
			for _, t := range []ResidueType{RootResidue, StoverResidue, FieldLossResidue} {
				r, err := NewResidue(t, amounts[t], residueSources(p.Crop.Params)[t], harvest)
				if err != nil {
					return err
				}
				s.residues = append(s.residues, r)
			}
		}
		return nil
	}
}

// NextDay moves the simulation to the next day, setting Done after the
// last day.
func NextDay() DayManipulator {
	return func(s *Simulation) error {
		s.Day++
		if s.Day >= s.Ledger.Len() {
			s.Done = true
		}
		return nil
	}
}

// CheckMassBalance returns a function that checks that soil mineral N is
// conserved on every day to within tolerance.
func CheckMassBalance(tolerance float64) DayManipulator {
	return func(s *Simulation) error {
		for i := 1; i < s.Ledger.Len(); i++ {
			if r := s.Ledger.BalanceResidual(i); math.Abs(r) > tolerance {
				return fmt.Errorf("nbalance: N mass balance error of %g kg/ha on %s",
					r, s.Ledger.Dates[i].Format(DateFormat))
			}
		}
		return nil
	}
}

// Log writes a status line for each simulated day to w. It should be
// placed before NextDay in the run functions.
func Log(w io.Writer) DayManipulator {
	return func(s *Simulation) error {
		i := s.Day
		l := s.Ledger
		_, err := fmt.Fprintf(w, "%s  phase=%-9s  N=%7.2f  uptake=%6.2f  min=%6.3f  fert=%6.2f  lost=%6.3f  RSWC=%4.2f\n",
			l.Dates[i].Format(DateFormat), s.State, l.SoilMineralN[i], l.UptakeN[i],
			l.Mineralisation(i), l.FertiliserN[i], l.LostN[i], l.RSWC[i])
		return err
	}
}
