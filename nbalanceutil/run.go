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
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fieldnbalance/nbalance"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
)

// Run loads the inputs named in cfg, runs the simulation and writes the
// daily ledger, derived outputs and, optionally, a plot.
func Run(ctx context.Context, cfg *viper.Viper) error {
	log, closeLog, err := newLogger(cfg.GetString("LogLevel"), os.ExpandEnv(cfg.GetString("LogFile")))
	if err != nil {
		return err
	}
	defer closeLog()
	msgs := logMessages(log)
	defer close(msgs)

	outVars, err := GetStringMapString("OutputVariables", cfg)
	if err != nil {
		return err
	}
	o, err := nbalance.NewOutputter(checkOutputVars(outVars), nil)
	if err != nil {
		return err
	}
	outputFile, err := checkOutputFile(ctx, "OutputFile", cfg.GetString("OutputFile"))
	if err != nil {
		return err
	}
	plotFile := cfg.GetString("PlotFile")
	if plotFile != "" {
		if plotFile, err = checkOutputFile(ctx, "PlotFile", plotFile); err != nil {
			return err
		}
	}

	in, table, err := Inputs(ctx, cfg, msgs)
	if err != nil {
		return err
	}
	res, err := nbalance.Run(in, table, nbalance.DefaultStages(), log)
	if err != nil {
		return err
	}
	extra, err := o.Results(res.Ledger)
	if err != nil {
		return err
	}

	up := new(uploader)
	if err = writeFile(up.maybeUpload(outputFile), func(w io.Writer) error {
		return WriteLedgerCSV(w, res.Ledger, extra)
	}); err != nil {
		return err
	}
	if plotFile != "" {
		names := expandStringSlice(cfg.GetStringSlice("PlotVariables"))
		series := ledgerSeries(res.Ledger, extra)
		if err = writeFile(up.maybeUpload(plotFile), func(w io.Writer) error {
			return PlotSeries(w, res.Ledger.Dates, series, names)
		}); err != nil {
			return err
		}
	}
	if err = up.upload(ctx); err != nil {
		return err
	}

	logResult(log, res)
	return nil
}

// logResult logs the fertiliser recommendations and the N removed by
// each crop.
func logResult(log logrus.FieldLogger, res *nbalance.Result) {
	for _, a := range res.Recommendations {
		log.WithFields(logrus.Fields{
			"date":   a.Date.Format(nbalance.DateFormat),
			"amount": fmt.Sprintf("%.1f", a.Amount),
		}).Info("fertiliser recommendation (kg N/ha)")
	}
	if len(res.Recommendations) == 0 {
		log.Info("no fertiliser recommended")
	}
	for _, p := range res.Phases {
		if p == nil {
			continue
		}
		log.WithFields(logrus.Fields{
			"phase":       p.Phase,
			"crop":        p.Config.Name,
			"uptake":      fmt.Sprintf("%.1f", p.TotalUptake),
			"product":     fmt.Sprintf("%.1f", p.ProductN),
			"corrections": len(p.Corrections),
		}).Info("crop N (kg N/ha)")
	}
}

// writeFile creates the named file and writes to it using f.
func writeFile(name string, f func(io.Writer) error) error {
	if name == "" {
		return fmt.Errorf("nbalanceutil: invalid output file name")
	}
	w, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("nbalanceutil: creating output file: %v", err)
	}
	if err = f(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// Plot writes a PNG plot of variables from the ledger file named in cfg.
func Plot(ctx context.Context, cfg *viper.Viper) error {
	ledgerFile := os.ExpandEnv(cfg.GetString("LedgerFile"))
	if ledgerFile == "" {
		return fmt.Errorf("nbalanceutil: you need to specify a LedgerFile to plot")
	}
	plotFile, err := checkOutputFile(ctx, "PlotFile", cfg.GetString("PlotFile"))
	if err != nil {
		return err
	}
	f, err := os.Open(maybeDownload(ctx, ledgerFile, nil))
	if err != nil {
		return fmt.Errorf("nbalanceutil: opening ledger file: %v", err)
	}
	defer f.Close()
	dates, series, err := ReadLedgerCSV(f)
	if err != nil {
		return err
	}
	up := new(uploader)
	names := expandStringSlice(cfg.GetStringSlice("PlotVariables"))
	if err = writeFile(up.maybeUpload(plotFile), func(w io.Writer) error {
		return PlotSeries(w, dates, series, names)
	}); err != nil {
		return err
	}
	return up.upload(ctx)
}

// WriteCoefficients writes the crop coefficient table to w as aligned
// text columns.
func WriteCoefficients(w io.Writer, t *nbalance.CoefficientTable) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "Name\tYield\tUnits\tType\tHI\tMoisture %\tRoot depth (mm)\tRoot N %\tStover N %\tProduct N %")
	for _, p := range t.Rows() {
		fmt.Fprintf(tw, "%s\t%g\t%s\t%s\t%g\t%g\t%g\t%g\t%g\t%g\n",
			p.Name, p.TypicalYield, p.TypicalYieldUnits, p.YieldType, p.TypicalHI,
			p.MoisturePct, p.MaxRootDepth, p.RootNPct, p.StoverNPct, p.ProductNPct)
	}
	return tw.Flush()
}
