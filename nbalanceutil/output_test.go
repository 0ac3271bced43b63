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
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/fieldnbalance/nbalance"
)

// testLedger returns a short ledger with values in every series.
func testLedger() *nbalance.Ledger {
	l := nbalance.NewLedger(date("2019-03-01"), date("2019-03-10"))
	for i := range l.Dates {
		l.SoilMineralN[i] = 40 + float64(i)/3
		l.CropN[i] = float64(i * i)
		l.SOMN[i] = 0.1447
		l.RSWC[i] = math.Min(1, 0.5+float64(i)/10)
	}
	l.ProductN[9] = 123.4
	return l
}

func TestLedgerCSV(t *testing.T) {
	l := testLedger()
	extra := map[string][]float64{"Double": make([]float64, l.Len())}
	for i, v := range l.SoilMineralN {
		extra["Double"][i] = 2 * v
	}
	var buf bytes.Buffer
	if err := WriteLedgerCSV(&buf, l, extra); err != nil {
		t.Fatal(err)
	}
	header := strings.SplitN(buf.String(), "\n", 2)[0]
	wantHeader := "Date," + strings.Join(nbalance.SeriesNames, ",") + ",Double"
	if header != wantHeader {
		t.Errorf("header: got %s, want %s", header, wantHeader)
	}

	dates, series, err := ReadLedgerCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(dates) != l.Len() || !dates[3].Equal(l.Dates[3]) {
		t.Errorf("dates: got %v", dates)
	}
	for _, n := range nbalance.SeriesNames {
		want, _ := l.Series(n)
		for i, v := range want {
			if series[n][i] != v {
				t.Errorf("%s[%d]: got %g, want %g", n, i, series[n][i], v)
			}
		}
	}
	if series["Double"][5] != extra["Double"][5] {
		t.Errorf("Double: got %g, want %g", series["Double"][5], extra["Double"][5])
	}
}

func TestLedgerCSVErrors(t *testing.T) {
	l := testLedger()
	if err := WriteLedgerCSV(&bytes.Buffer{}, l, map[string][]float64{"Short": {1, 2}}); err == nil {
		t.Error("expected an error for a short output series")
	}
	if _, _, err := ReadLedgerCSV(strings.NewReader("Date,SoilMineralN\n2019-03-01\n")); err == nil {
		t.Error("expected an error for a short row")
	}
	if _, _, err := ReadLedgerCSV(strings.NewReader("SoilMineralN\n40\n")); err == nil {
		t.Error("expected an error for a missing Date column")
	}
}

func TestPlotSeries(t *testing.T) {
	l := testLedger()
	series := ledgerSeries(l, map[string][]float64{"Extra": l.CropN})
	var buf bytes.Buffer
	if err := PlotSeries(&buf, l.Dates, series, []string{"SoilMineralN", "CropN", "Extra"}); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("output is not a PNG image")
	}

	if err := PlotSeries(&buf, l.Dates, series, nil); err == nil {
		t.Error("expected an error for no variables")
	}
	if err := PlotSeries(&buf, l.Dates, series, []string{"Nitrate"}); err == nil {
		t.Error("expected an error for an undefined variable")
	}
	if err := PlotSeries(&buf, l.Dates[:2], series, []string{"CropN"}); err == nil {
		t.Error("expected an error for mismatched lengths")
	}
}
