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
	"time"
)

// DateFormat is the layout used for reading and writing dates.
const DateFormat = "2006-01-02"

// Day returns t truncated to midnight UTC on the same calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a date in DateFormat.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}

// addDays returns the day n days after t.
func addDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// daysBetween returns the number of days from a to b.
func daysBetween(a, b time.Time) int {
	return int(math.Round(Day(b).Sub(Day(a)).Hours() / 24))
}

// dateRange returns every day from start through end, inclusive.
func dateRange(start, end time.Time) []time.Time {
	n := daysBetween(start, end) + 1
	if n < 0 {
		n = 0
	}
	o := make([]time.Time, n)
	for i := range o {
		o[i] = addDays(start, i)
	}
	return o
}
