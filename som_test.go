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
	"testing"
)

// A field with 10 mg/kg PMN, bulk density 1.2 and a 30 cm sampling depth
// at 20 °C and half of its available water capacity.
func TestSOMMineralisation(t *testing.T) {
	pmn, err := PMNkgPerHa(10, 1.2, 30)
	if err != nil {
		t.Fatal(err)
	}
	have := SOMMineralisation(pmn, 20, 0.5)
	want := 36.0 / 98 * SOMTempFactor(20) * 0.5475
	if absDifferent(have, want, testTolerance) {
		t.Errorf("have %g, want %g", have, want)
	}
	if different(have, 0.1447, 1.e-3) {
		t.Errorf("have %g, want about 0.1447", have)
	}
}

func TestSOMWaterFactor(t *testing.T) {
	for _, r := range []float64{0, 0.25, 0.5, 0.75, 1, 1.2, 2} {
		f := SOMWaterFactor(r)
		if f > 1 || f < 0.33 {
			t.Errorf("RSWC %g: factor %g out of range", r, f)
		}
	}
	if SOMWaterFactor(2) != 1 {
		t.Error("saturated factor should be 1")
	}
}

func TestSOMTempFactor(t *testing.T) {
	prev := SOMTempFactor(0)
	for temp := 1.0; temp <= 35; temp++ {
		f := SOMTempFactor(temp)
		if f <= prev {
			t.Errorf("%g °C: factor %g should be larger than %g", temp, f, prev)
		}
		prev = f
	}
	if SOMTempFactor(-50) != 0 {
		t.Error("factor should be zero at very low temperatures")
	}
}

func ExampleSOMMineralisation() {
	pmn, _ := PMNkgPerHa(10, 1.2, 30)
	fmt.Printf("%.1f kg/ha PMN, %.4f kg/ha/d", pmn, SOMMineralisation(pmn, 20, 0.5))
	// Output: 36.0 kg/ha PMN, 0.1447 kg/ha/d
}
