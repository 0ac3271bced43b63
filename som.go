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

import "math"

// pmnDays converts potentially mineralisable N to a daily rate at
// reference conditions.
const pmnDays = 98.0

// SOMTempFactor is the Lloyd-Taylor temperature response of soil organic
// matter mineralisation.
func SOMTempFactor(temp float64) float64 {
	tk := temp + 273.15 - 227.13
	if tk <= 0 {
		return 0
	}
	return 0.3124 * math.Exp(308.56*(1/56.02-1/tk))
}

// SOMWaterFactor is the soil water response of soil organic matter
// mineralisation, after Qiu, Beare and Curtin.
func SOMWaterFactor(rswc float64) float64 {
	return math.Min(1, 0.57*rswc*rswc+0.15*rswc+0.33)
}

// SOMMineralisation returns the N mineralised from soil organic matter
// [kg/ha/d] from a soil with pmn kg/ha potentially mineralisable N.
func SOMMineralisation(pmn, temp, rswc float64) float64 {
	return pmn / pmnDays * SOMTempFactor(temp) * SOMWaterFactor(rswc)
}
