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
	"time"
)

// ResidueType is a kind of crop residue.
type ResidueType int

// The residue types returned to the soil at harvest.
const (
	RootResidue ResidueType = iota
	StoverResidue
	FieldLossResidue
)

func (r ResidueType) String() string {
	switch r {
	case RootResidue:
		return "root"
	case StoverResidue:
		return "stover"
	case FieldLossResidue:
		return "field loss"
	default:
		return "unknown"
	}
}

// rateCurve gives a decomposition rate constant [1/d] as a function of
// C:N ratio: k = a + (b-a)·exp(-c·CNR).
type rateCurve struct{ a, b, c float64 }

func (r rateCurve) k(cnr float64) float64 {
	return r.a + (r.b-r.a)*math.Exp(-r.c*cnr)
}

// Mineralisation (Km) and immobilisation (Ki) rate curves for each
// residue type.
var residueKinetics = map[ResidueType]struct{ m, i rateCurve }{
	StoverResidue:    {m: rateCurve{0.02, 0.08, 0.04}, i: rateCurve{0.03, 0.10, 0.04}},
	RootResidue:      {m: rateCurve{0.01, 0.05, 0.04}, i: rateCurve{0.02, 0.065, 0.04}},
	FieldLossResidue: {m: rateCurve{0.03, 0.12, 0.04}, i: rateCurve{0.04, 0.14, 0.04}},
}

// Residue is one cohort of decomposing crop residue.
type Residue struct {
	Type ResidueType

	// Added is the day the residue was returned to the soil. It only
	// contributes mineralisation on later days.
	Added time.Time

	Amount float64 // N returned [kg/ha]
	NConc  float64 // N concentration of the residue [%]
	CNR    float64 // carbon to nitrogen ratio

	ANm, ANi float64 // mineralisable and immobilisable N [kg/ha]
	Km, Ki   float64 // rate constants [1/d]

	// sigma is the accumulated temperature and water response.
	sigma float64
	value float64
}

// NewResidue creates a residue cohort of the given type containing amount
// kg N/ha at an N concentration of nConc percent, added on the given day.
func NewResidue(t ResidueType, amount, nConc float64, added time.Time) (*Residue, error) {
	if !(nConc > 0) {
		return nil, ConfigurationError{Item: "residue N concentration", Key: fmt.Sprint(nConc),
			Date: Day(added), Msg: fmt.Sprintf("%s residue N concentration must be positive", t)}
	}
	kin, ok := residueKinetics[t]
	if !ok {
		return nil, ConfigurationError{Item: "residue type", Key: t.String()}
	}
	r := &Residue{
		Type:   t,
		Added:  Day(added),
		Amount: amount,
		NConc:  nConc,
	}
	r.CNR = 40 / nConc
	r.ANm = amount * 0.81614
	r.ANi = amount * (0.048701 + r.CNR*0.0243475)
	r.Km = kin.m.k(r.CNR)
	r.Ki = kin.i.k(r.CNR)
	return r, nil
}

// ResidueTempFactor is the temperature response of residue decomposition.
func ResidueTempFactor(temp float64) float64 {
	return math.Pow(2, (temp-30)/10)
}

// ResidueWaterFactor is the soil water response of residue decomposition.
func ResidueWaterFactor(rswc float64) float64 {
	return math.Max(0, math.Min(1, 2*rswc))
}

// NetMineralisation returns the cumulative net N mineralised [kg/ha] after
// an accumulated temperature and water response of sigma.
func (r *Residue) NetMineralisation(sigma float64) float64 {
	return r.ANm*(1-math.Exp(-r.Km*sigma)) - r.ANi*(1-math.Exp(-r.Ki*sigma))
}

// Step advances the cohort to day d with the given temperature and
// relative soil water content, and returns the increase in cumulative net
// mineralisation. Days on or before the addition date contribute nothing.
func (r *Residue) Step(d time.Time, temp, rswc float64) float64 {
	if !Day(d).After(r.Added) {
		return 0
	}
	r.sigma += ResidueTempFactor(temp) * ResidueWaterFactor(rswc)
	v := r.NetMineralisation(r.sigma)
	delta := v - r.value
	r.value = v
	return delta
}

// Value returns the cumulative net mineralisation to date [kg/ha].
func (r *Residue) Value() float64 { return r.value }
