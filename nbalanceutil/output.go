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

package nbalanceutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/fieldnbalance/nbalance"
)

// WriteLedgerCSV writes the daily ledger to w as CSV, one row per day.
// The ledger series are followed by the derived outputs in extra, sorted
// by name.
func WriteLedgerCSV(w io.Writer, l *nbalance.Ledger, extra map[string][]float64) error {
	extraNames := make([]string, 0, len(extra))
	for k, v := range extra {
		if len(v) != l.Len() {
			return fmt.Errorf("nbalanceutil: output %s has %d values but the ledger has %d days", k, len(v), l.Len())
		}
		extraNames = append(extraNames, k)
	}
	sort.Strings(extraNames)

	header := append([]string{"Date"}, nbalance.SeriesNames...)
	header = append(header, extraNames...)
	columns := make([][]float64, 0, len(header)-1)
	for _, n := range nbalance.SeriesNames {
		s, err := l.Series(n)
		if err != nil {
			return err
		}
		columns = append(columns, s)
	}
	for _, n := range extraNames {
		columns = append(columns, extra[n])
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("nbalanceutil: writing ledger: %v", err)
	}
	row := make([]string, len(header))
	for i, d := range l.Dates {
		row[0] = d.Format(nbalance.DateFormat)
		for j, c := range columns {
			row[j+1] = strconv.FormatFloat(c[i], 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("nbalanceutil: writing ledger: %v", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("nbalanceutil: writing ledger: %v", err)
	}
	return nil
}

// ReadLedgerCSV reads a file written by WriteLedgerCSV, returning the
// dates and every numeric column by name.
func ReadLedgerCSV(r io.Reader) ([]time.Time, map[string][]float64, error) {
	header, col, recs, err := readCSV(r, "ledger", "Date")
	if err != nil {
		return nil, nil, err
	}
	dates := make([]time.Time, len(recs))
	series := make(map[string][]float64, len(header)-1)
	for _, h := range header {
		if h != "Date" {
			series[h] = make([]float64, len(recs))
		}
	}
	for i, rec := range recs {
		if len(rec) != len(header) {
			return nil, nil, fmt.Errorf("nbalanceutil: ledger row %d has %d columns; want %d", i+1, len(rec), len(header))
		}
		if dates[i], err = nbalance.ParseDate(rec[col["Date"]]); err != nil {
			return nil, nil, fmt.Errorf("nbalanceutil: ledger row %d: %v", i+1, err)
		}
		for j, h := range header {
			if h == "Date" {
				continue
			}
			if series[h][i], err = parseFloat(rec[j], "ledger", i+1, h); err != nil {
				return nil, nil, err
			}
		}
	}
	return dates, series, nil
}
