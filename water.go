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

// waterTolerance is the largest acceptable daily water balance residual [mm].
const waterTolerance = 1e-9

// Bare soil evaporation as a fraction of potential evapotranspiration.
const bareSoilET = 0.2

// SoilWater is a single-bucket soil water balance. Storage is bounded by
// the available water capacity; water in excess of capacity drains.
type SoilWater struct {
	AWC float64 // capacity [mm]
	Sto float64 // current storage [mm]

	Irrigate IrrigationRule
}

// NewSoilWater returns a full soil water bucket with the given capacity [mm].
func NewSoilWater(awc float64, irr IrrigationRule) (*SoilWater, error) {
	if !(awc > 0) {
		return nil, ConfigurationError{Item: "available water capacity", Key: fmt.Sprint(awc), Msg: "must be positive"}
	}
	return &SoilWater{AWC: awc, Sto: awc, Irrigate: irr}, nil
}

// WaterDay holds the water fluxes on one day [mm].
type WaterDay struct {
	Infiltration, AET, Irrigation, Drainage float64
	RSWC                                    float64
}

// overflow adds p to storage and returns the amount by which storage
// would exceed capacity (a positive value) or fall below zero (a negative
// value). Storage is clamped to [0, AWC].
func (s *SoilWater) overflow(p float64) float64 {
	s.Sto += p
	switch {
	case s.Sto < 0:
		d := s.Sto
		s.Sto = 0
		return d
	case s.Sto > s.AWC:
		d := s.Sto - s.AWC
		s.Sto = s.AWC
		return d
	default:
		return 0
	}
}

// RSWC returns the relative soil water content.
func (s *SoilWater) RSWC() float64 { return s.Sto / s.AWC }

// Step advances the water balance by one day. rain and pet are in mm,
// capture is the fraction of rain that enters the soil, cover is the
// green cover fraction and inCrop is whether a crop is present, which is
// required for irrigation.
func (s *SoilWater) Step(d time.Time, rain, pet, capture, cover float64, inCrop bool) (WaterDay, error) {
	var w WaterDay
	prev := s.Sto

	w.Infiltration = math.Max(0, rain) * capture
	s.Sto += w.Infiltration

	w.AET = math.Min(s.Sto, math.Max(0, pet)*(bareSoilET+(1-bareSoilET)*cover))
	s.Sto -= w.AET

	if inCrop && s.Irrigate.Refill > 0 && s.RSWC() < s.Irrigate.Trigger {
		w.Irrigation = math.Max(0, s.Irrigate.Refill*s.AWC-s.Sto)
		s.Sto += w.Irrigation
	}

	if excess := s.overflow(0); excess > 0 {
		w.Drainage = excess
	}
	w.RSWC = s.RSWC()

	residual := prev + w.Infiltration + w.Irrigation - w.AET - w.Drainage - s.Sto
	if math.Abs(residual) > waterTolerance {
		return w, fmt.Errorf("nbalance: water balance error of %g mm on %s", residual, d.Format(DateFormat))
	}
	return w, nil
}

// Leaching returns the N lost to drainage [kg/ha] from a soil holding n
// kg/ha mineral N when drainage mm drains from a bucket with capacity awc.
func Leaching(n, drainage, awc float64) float64 {
	if n <= 0 || drainage <= 0 {
		return 0
	}
	return n * drainage / (awc + drainage)
}
