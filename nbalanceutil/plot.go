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
	"fmt"
	"io"
	"time"

	"github.com/fieldnbalance/nbalance"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Plot dimensions.
const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// PlotSeries writes a PNG line plot of the named series against date to w.
func PlotSeries(w io.Writer, dates []time.Time, series map[string][]float64, names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("nbalanceutil: no variables specified for plotting")
	}
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = "Soil mineral N balance"
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "kg N/ha"
	p.X.Tick.Marker = plot.TimeTicks{Format: nbalance.DateFormat}
	p.Legend.Top = true

	lines := make([]interface{}, 0, 2*len(names))
	for _, n := range names {
		s, ok := series[n]
		if !ok {
			return fmt.Errorf("nbalanceutil: plotting undefined variable '%s'", n)
		}
		if len(s) != len(dates) {
			return fmt.Errorf("nbalanceutil: variable %s has %d values for %d dates", n, len(s), len(dates))
		}
		xy := make(plotter.XYs, len(s))
		for i, v := range s {
			xy[i].X = float64(dates[i].Unix())
			xy[i].Y = v
		}
		lines = append(lines, n, xy)
	}
	if err = plotutil.AddLines(p, lines...); err != nil {
		return err
	}

	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// ledgerSeries returns the ledger series and derived outputs by name.
func ledgerSeries(l *nbalance.Ledger, extra map[string][]float64) map[string][]float64 {
	o := make(map[string][]float64, len(nbalance.SeriesNames)+len(extra))
	for _, n := range nbalance.SeriesNames {
		o[n], _ = l.Series(n)
	}
	for k, v := range extra {
		o[k] = v
	}
	return o
}
