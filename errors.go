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

// ConfigurationError is returned when an input refers to something that
// the model does not know about (for example a crop name that is not in
// the coefficient table), or when an input value makes a calculation
// impossible. Configuration errors are fatal for a simulation.
type ConfigurationError struct {
	// Item is the kind of thing that is misconfigured, e.g. "crop" or
	// "texture".
	Item string

	// Key is the offending identifier or value.
	Key string

	// Date is set when the problem is tied to a specific day.
	Date time.Time

	// Msg optionally describes the problem in more detail.
	Msg string
}

func (e ConfigurationError) Error() string {
	s := fmt.Sprintf("nbalance: invalid %s '%s'", e.Item, e.Key)
	if !e.Date.IsZero() {
		s += " on " + e.Date.Format(DateFormat)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

// DataGapError is returned when a required date is missing from an input
// time series.
type DataGapError struct {
	Series string
	Date   time.Time
}

func (e DataGapError) Error() string {
	return fmt.Sprintf("nbalance: %s data missing for %s", e.Series, e.Date.Format(DateFormat))
}
