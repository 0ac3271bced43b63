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

// Package nbalance is a daily soil mineral nitrogen balance model for a
// single field carrying a sequence of three crops (prior, current and
// following). It couples crop N uptake, crop residue decomposition,
// soil organic matter mineralisation and a soil water balance into one
// day-stepped nitrogen ledger, and recommends fertiliser applications
// for the current crop.
//
// All quantities of nitrogen are in kg N/ha, water is in mm and
// temperature is in °C unless otherwise noted.
package nbalance

// Version gives the version number.
const Version = "0.3.0"

// Phase identifies one of the three crops in a rotation.
type Phase int

// The crop phases, in the order they occur in the field.
const (
	Prior Phase = iota
	Current
	Following
)

// NumPhases is the number of crop phases in a simulation.
const NumPhases = 3

func (p Phase) String() string {
	switch p {
	case Prior:
		return "prior"
	case Current:
		return "current"
	case Following:
		return "following"
	case NumPhases:
		return "fallow"
	default:
		return "unknown"
	}
}
