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
	"errors"
	"math"
	"testing"
)

// 100 kg/ha of stover N at 2% N, 30 days after incorporation at a constant
// 15 °C and 0.6 relative soil water content.
func TestResidueStover(t *testing.T) {
	added := date("2019-06-15")
	r, err := NewResidue(StoverResidue, 100, 2, added)
	if err != nil {
		t.Fatal(err)
	}
	if r.CNR != 20 {
		t.Errorf("CNR: have %g, want 20", r.CNR)
	}
	if absDifferent(r.ANm, 81.614, testTolerance) {
		t.Errorf("ANm: have %g", r.ANm)
	}
	if absDifferent(r.ANi, 100*(0.048701+20*0.0243475), testTolerance) {
		t.Errorf("ANi: have %g", r.ANi)
	}
	km := 0.02 + 0.06*math.Exp(-0.8)
	ki := 0.03 + 0.07*math.Exp(-0.8)
	if absDifferent(r.Km, km, testTolerance) || absDifferent(r.Ki, ki, testTolerance) {
		t.Errorf("Km %g, Ki %g", r.Km, r.Ki)
	}

	var total float64
	for i := 1; i <= 30; i++ {
		total += r.Step(addDays(added, i), 15, 0.6)
	}
	sigma := 30 * math.Pow(2, -1.5)
	want := r.ANm*(1-math.Exp(-km*sigma)) - r.ANi*(1-math.Exp(-ki*sigma))
	if absDifferent(total, want, 1.e-9) {
		t.Errorf("have %g, want %g", total, want)
	}
	if absDifferent(r.Value(), total, 1.e-9) {
		t.Errorf("value %g should equal the sum of daily increments %g", r.Value(), total)
	}
}

func TestResidueNotBeforeAdded(t *testing.T) {
	added := date("2019-06-15")
	r, err := NewResidue(RootResidue, 50, 1, added)
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range []string{"2019-06-10", "2019-06-14", "2019-06-15"} {
		if v := r.Step(date(d), 20, 1); v != 0 {
			t.Errorf("%s: have %g, want 0", d, v)
		}
	}
	if r.Step(date("2019-06-16"), 20, 1) == 0 {
		t.Error("residue should start decomposing the day after it is added")
	}
}

func TestResidueCumulative(t *testing.T) {
	for _, typ := range []ResidueType{RootResidue, StoverResidue, FieldLossResidue} {
		for _, conc := range []float64{0.5, 1, 2, 4} {
			r, err := NewResidue(typ, 80, conc, date("2019-01-01"))
			if err != nil {
				t.Fatal(err)
			}
			limit := r.ANm - r.ANi
			for sigma := 1.0; sigma < 5000; sigma *= 1.5 {
				v := r.NetMineralisation(sigma)
				if math.Abs(v) > math.Abs(limit)+math.Max(r.ANm, r.ANi) {
					t.Errorf("%s %g%%: value %g at sigma %g is unbounded", typ, conc, v, sigma)
				}
			}
			if absDifferent(r.NetMineralisation(1e6), limit, 1.e-6) {
				t.Errorf("%s %g%%: should approach %g, got %g", typ, conc, limit, r.NetMineralisation(1e6))
			}
		}
	}
}

// High-N residue mineralises monotonically.
func TestResidueMonotonic(t *testing.T) {
	r, err := NewResidue(FieldLossResidue, 60, 4, date("2019-01-01"))
	if err != nil {
		t.Fatal(err)
	}
	prev := 0.0
	for sigma := 0.5; sigma < 500; sigma += 0.5 {
		v := r.NetMineralisation(sigma)
		if v < prev {
			t.Fatalf("sigma %g: %g < %g", sigma, v, prev)
		}
		prev = v
	}
}

func TestResidueZeroN(t *testing.T) {
	_, err := NewResidue(StoverResidue, 10, 0, date("2019-01-01"))
	var cfgErr ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestResidueFactors(t *testing.T) {
	if ResidueTempFactor(30) != 1 || ResidueTempFactor(20) != 0.5 {
		t.Error("temperature factor should double every 10 °C")
	}
	for r, want := range map[float64]float64{0: 0, 0.25: 0.5, 0.5: 1, 0.9: 1} {
		if have := ResidueWaterFactor(r); have != want {
			t.Errorf("RSWC %g: have %g, want %g", r, have, want)
		}
	}
}
