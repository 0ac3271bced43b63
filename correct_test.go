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
	"testing"
	"time"
)

func testPhases(t *testing.T) []*PhaseResult {
	var phases []*PhaseResult
	for i, cfg := range testCropConfigs() {
		phases = append(phases, newPhaseResult(Phase(i), cfg, growTestCrop(t, cfg.Name, cfg)))
	}
	return phases
}

// A crop demanding 200 kg/ha on a day when only 50 kg/ha is available.
func TestCorrectShortage(t *testing.T) {
	phases := testPhases(t)
	cur := phases[Current]
	d := addDays(cur.Config.EstablishDate, 100)
	j, ok := cur.Crop.index(d)
	if !ok {
		t.Fatal("date outside crop")
	}
	cur.Crop.Uptake[j] = 200
	before := append([]float64{}, cur.Crop.TotalCropN...)
	res := cur.ResRoot + cur.ResStover + cur.ResFieldLoss
	uptake, product := cur.TotalUptake, cur.ProductN

	const available = 50.
	patch, err := Correct(phases, d, cur.Crop.Uptake[j]-available)
	if err != nil {
		t.Fatal(err)
	}
	if patch.Phase != Current {
		t.Fatalf("shortage assigned to %s crop", patch.Phase)
	}
	if !patch.ProductNDate.Equal(addDays(cur.Config.HarvestDate, 1)) {
		t.Errorf("product N date %v", patch.ProductNDate)
	}
	if err := cur.Apply(patch); err != nil {
		t.Fatal(err)
	}

	if cur.Crop.Uptake[j] != available {
		t.Errorf("uptake: have %g, want %g", cur.Crop.Uptake[j], available)
	}
	for k := range before {
		want := before[k]
		if k >= j {
			want -= 150
		}
		if absDifferent(cur.Crop.TotalCropN[k], want, testTolerance) {
			t.Errorf("day %d: crop N %g, want %g", k, cur.Crop.TotalCropN[k], want)
		}
	}
	nhi := cur.Crop.NHI
	resReduction := res - (cur.ResRoot + cur.ResStover + cur.ResFieldLoss)
	if absDifferent(resReduction, 150*(1-nhi.Product), testTolerance) {
		t.Errorf("residue reduction %g", resReduction)
	}
	if absDifferent(resReduction+150*nhi.Product, 150, testTolerance) {
		t.Errorf("residue and product reductions should sum to 150")
	}
	if absDifferent(uptake-cur.TotalUptake, 150, testTolerance) {
		t.Errorf("total uptake reduced by %g", uptake-cur.TotalUptake)
	}
	if absDifferent(product-cur.ProductN, 150, testTolerance) {
		t.Errorf("product N reduced by %g", product-cur.ProductN)
	}
	if len(cur.Corrections) != 1 {
		t.Errorf("%d corrections recorded", len(cur.Corrections))
	}
	for _, p := range []*PhaseResult{phases[Prior], phases[Following]} {
		if len(p.Corrections) != 0 {
			t.Errorf("%s crop should not be corrected", p.Phase)
		}
	}
}

// Multiple corrections to a phase give the same result in any order.
func TestCorrectOrderIndependence(t *testing.T) {
	type shortage struct {
		offset int
		amount float64
	}
	shortages := []shortage{{10, 3}, {60, 12.5}, {90, 0.7}, {120, 25}}

	run := func(order []int) *PhaseResult {
		phases := testPhases(t)
		cur := phases[Current]
		for _, i := range order {
			s := shortages[i]
			patch, err := Correct(phases, addDays(cur.Config.EstablishDate, s.offset), s.amount)
			if err != nil {
				t.Fatal(err)
			}
			if err := cur.Apply(patch); err != nil {
				t.Fatal(err)
			}
		}
		return cur
	}
	a := run([]int{0, 1, 2, 3})
	b := run([]int{3, 1, 0, 2})
	for k := range a.Crop.TotalCropN {
		if absDifferent(a.Crop.TotalCropN[k], b.Crop.TotalCropN[k], testTolerance) {
			t.Fatalf("day %d: %g != %g", k, a.Crop.TotalCropN[k], b.Crop.TotalCropN[k])
		}
		if absDifferent(a.Crop.Uptake[k], b.Crop.Uptake[k], testTolerance) {
			t.Fatalf("day %d: uptake %g != %g", k, a.Crop.Uptake[k], b.Crop.Uptake[k])
		}
	}
	for name, v := range map[string][2]float64{
		"root":    {a.ResRoot, b.ResRoot},
		"stover":  {a.ResStover, b.ResStover},
		"loss":    {a.ResFieldLoss, b.ResFieldLoss},
		"uptake":  {a.TotalUptake, b.TotalUptake},
		"product": {a.ProductN, b.ProductN},
	} {
		if absDifferent(v[0], v[1], testTolerance) {
			t.Errorf("%s: %g != %g", name, v[0], v[1])
		}
	}
	if absDifferent(a.TotalUptake, a.Crop.TotalN-41.2, testTolerance) {
		t.Errorf("total uptake %g", a.TotalUptake)
	}
}

func TestCorrectErrors(t *testing.T) {
	phases := testPhases(t)
	if _, err := Correct(phases, date("2019-07-15"), 10); err == nil {
		t.Error("expected an error for a date with no crop")
	}
	patch, err := Correct(phases, date("2020-05-01"), 10)
	if err != nil {
		t.Fatal(err)
	}
	if err := phases[Current].Apply(patch); err == nil {
		t.Error("expected an error applying a following crop patch to the current crop")
	}
	patch.Phase = Current
	patch.Date = time.Time{}
	if err := phases[Current].Apply(patch); err == nil {
		t.Error("expected an error for a patch dated outside the crop")
	}
}
