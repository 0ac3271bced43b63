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
	"reflect"
	"testing"

	"github.com/Knetic/govaluate"
)

func testLedger() *Ledger {
	l := NewLedger(date("2019-01-01"), date("2019-01-03"))
	l.SoilMineralN = []float64{40, 38, 41}
	l.UptakeN = []float64{0, 3, 1}
	l.ResidueN = []float64{0, -0.5, 0.5}
	l.SOMN = []float64{0, 1.5, 1.5}
	l.FertiliserN = []float64{0, 0, 2}
	l.CropN = []float64{0, 30, 45}
	return l
}

func TestOutputter(t *testing.T) {
	o, err := NewOutputter(map[string]string{
		"NetSupply":  "Supply - UptakeN",
		"Supply":     "ResidueN + SOMN + FertiliserN",
		"Peak":       "max(SoilMineralN, CropN)",
		"Total":      "sum(SoilMineralN, CropN, 5)",
		"Doubled":    "double(Supply)",
		"Growth":     "exp(0) * CropN",
		"SoilOrCrop": "min(SoilMineralN, CropN)",
	}, map[string]govaluate.ExpressionFunction{
		"double": func(args ...interface{}) (interface{}, error) {
			return args[0].(float64) * 2, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	r, err := o.Results(testLedger())
	if err != nil {
		t.Fatal(err)
	}
	want := map[string][]float64{
		"NetSupply":  {0, -2, 3},
		"Supply":     {0, 1, 4},
		"Peak":       {40, 38, 45},
		"Total":      {45, 73, 91},
		"Doubled":    {0, 2, 8},
		"Growth":     {0, 30, 45},
		"SoilOrCrop": {0, 30, 41},
	}
	for name, w := range want {
		for i, v := range w {
			if absDifferent(r[name][i], v, testTolerance) {
				t.Errorf("%s[%d]: have %g, want %g", name, i, r[name][i], v)
			}
		}
	}
	names := []string{"Doubled", "Growth", "NetSupply", "Peak", "SoilOrCrop", "Supply", "Total"}
	if !reflect.DeepEqual(o.Names(), names) {
		t.Errorf("names: %v", o.Names())
	}
}

func TestOutputterErrors(t *testing.T) {
	t.Run("cycle", func(t *testing.T) {
		_, err := NewOutputter(map[string]string{"a": "b + 1", "b": "a * 2"}, nil)
		if err == nil {
			t.Error("expected an error")
		}
	})
	t.Run("syntax", func(t *testing.T) {
		_, err := NewOutputter(map[string]string{"a": "SOMN +"}, nil)
		if err == nil {
			t.Error("expected an error")
		}
	})
	t.Run("undefined", func(t *testing.T) {
		o, err := NewOutputter(map[string]string{"a": "Nitrate * 2"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := o.Results(testLedger()); err == nil {
			t.Error("expected an error")
		}
	})
	t.Run("arguments", func(t *testing.T) {
		o, err := NewOutputter(map[string]string{"a": "exp(SOMN, CropN)"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := o.Results(testLedger()); err == nil {
			t.Error("expected an error")
		}
	})
}
