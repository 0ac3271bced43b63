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
	"io/ioutil"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/fieldnbalance/nbalance"
)

const testOutput = "../cmd/nbalance/testdata/output_nbalance"

func removeTestOutput() {
	for _, ext := range []string{".csv", ".png", ".log", "_replot.png"} {
		os.Remove(testOutput + ext)
	}
}

func TestRunCmd(t *testing.T) {
	os.Setenv("NBALANCE_ROOT_DIR", "..")
	defer removeTestOutput()
	Cfg.Set("config", "../cmd/nbalance/testdata/config.toml")
	Root.SetArgs([]string{"run"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(testOutput + ".csv")
	if err != nil {
		t.Fatal(err)
	}
	dates, series, err := ReadLedgerCSV(f)
	f.Close()
	if err != nil {
		t.Fatal(err)
	}
	if !dates[0].Equal(date("2019-02-28")) || !dates[len(dates)-1].Equal(date("2020-12-22")) {
		t.Errorf("ledger covers %v to %v", dates[0], dates[len(dates)-1])
	}
	for _, n := range append(nbalance.SeriesNames, "Supply", "NetSupply") {
		found := false
		for k := range series {
			if strings.EqualFold(k, n) {
				found = true
			}
		}
		if !found {
			t.Errorf("output is missing %s", n)
		}
	}
	i := 0
	for ; !dates[i].Equal(date("2019-10-15")); i++ {
	}
	// The test measures the soil before the day's fertiliser, leaching and uptake.
	v := series["SoilMineralN"][i] + series["UptakeN"][i] + series["LostN"][i] - series["FertiliserN"][i]
	if math.Abs(v-60) > 1.e-8 {
		t.Errorf("soil mineral N on test date: got %g, want 60", v)
	}

	for _, ext := range []string{".png", ".log"} {
		if _, err := os.Stat(testOutput + ext); err != nil {
			t.Errorf("missing output: %v", err)
		}
	}
	b, err := ioutil.ReadFile(testOutput + ".log")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "entering crop phase") {
		t.Error("log file does not contain the phase transitions")
	}

	Root.SetArgs([]string{"plot", "--LedgerFile=" + testOutput + ".csv",
		"--PlotFile=" + testOutput + "_replot.png", "--PlotVariables=SoilMineralN,UptakeN"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	png, err := ioutil.ReadFile(testOutput + "_replot.png")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("plot is not a PNG image")
	}
}

func TestCoefficientsCmd(t *testing.T) {
	var buf bytes.Buffer
	Root.SetOutput(&buf)
	defer Root.SetOutput(nil)
	Root.SetArgs([]string{"coefficients", "--Coefficients=../cmd/nbalance/testdata/coefficients.csv"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, crop := range []string{"Wheat", "Potato", "Oats Forage", "Lettuce", "Maize Grain"} {
		if !strings.Contains(out, crop) {
			t.Errorf("output does not list %s:\n%s", crop, out)
		}
	}
	if n := strings.Count(out, "\n"); n != 6 {
		t.Errorf("got %d lines, want 6", n)
	}
}

func TestVersionCmd(t *testing.T) {
	var buf bytes.Buffer
	Root.SetOutput(&buf)
	defer Root.SetOutput(nil)
	Root.SetArgs([]string{"version"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if want := "nbalance v" + nbalance.Version; !strings.Contains(buf.String(), want) {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
