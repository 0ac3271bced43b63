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
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// CropParams holds the calibration constants for one crop.
type CropParams struct {
	Name              string
	TypicalYield      float64 // in TypicalYieldUnits
	TypicalYieldUnits string  // "t/ha" or "kg/ha"
	YieldType         string  // e.g. "Fresh weight" or "Standing DM"
	DressingLossPct   float64 // %
	FieldLossPct      float64 // %
	TypicalHI         float64 // harvest index [fraction]
	HIRange           float64 // change in HI between zero and typical yield [fraction]
	MoisturePct       float64 // product moisture content [%]
	PRoot             float64 // root biomass as a fraction of above ground biomass
	MaxRootDepth      float64 // [mm]
	CoverRate         float64 // maximum green cover [fraction]
	RootNPct          float64 // [%]
	StoverNPct        float64 // [%]
	ProductNPct       float64 // [%]
}

// StandingDM is the yield type for crops whose yield is reported as total
// standing dry matter rather than product.
const StandingDM = "Standing DM"

// yieldUnits converts yields to kg/ha.
var yieldUnits = map[string]float64{
	"t/ha":  1000,
	"kg/ha": 1,
}

// yieldFactor returns the factor for converting the crop's yield units to kg/ha.
func (p CropParams) yieldFactor() (float64, error) {
	f, ok := yieldUnits[p.TypicalYieldUnits]
	if !ok {
		return 0, ConfigurationError{Item: "yield units", Key: p.TypicalYieldUnits,
			Msg: fmt.Sprintf("for crop %s", p.Name)}
	}
	return f, nil
}

// CoefficientTable is a read-only collection of crop coefficients indexed
// by crop name. It is safe for concurrent use once created.
type CoefficientTable struct {
	rows  []CropParams
	index map[string]int
}

// NewCoefficientTable creates a coefficient table from the given rows.
func NewCoefficientTable(rows []CropParams) (*CoefficientTable, error) {
	t := &CoefficientTable{
		rows:  make([]CropParams, len(rows)),
		index: make(map[string]int, len(rows)),
	}
	copy(t.rows, rows)
	for i, r := range t.rows {
		if r.Name == "" {
			return nil, ConfigurationError{Item: "crop", Key: "", Msg: fmt.Sprintf("coefficient row %d has no name", i)}
		}
		if _, ok := t.index[r.Name]; ok {
			return nil, ConfigurationError{Item: "crop", Key: r.Name, Msg: "duplicate coefficient row"}
		}
		t.index[r.Name] = i
	}
	return t, nil
}

// Lookup returns the coefficients for the named crop.
func (t *CoefficientTable) Lookup(name string) (CropParams, error) {
	i, ok := t.index[name]
	if !ok {
		return CropParams{}, ConfigurationError{Item: "crop", Key: name, Msg: "not in coefficient table"}
	}
	return t.rows[i], nil
}

// Rows returns a copy of all of the rows in the table, in the order they
// were loaded.
func (t *CoefficientTable) Rows() []CropParams {
	o := make([]CropParams, len(t.rows))
	copy(o, t.rows)
	return o
}

// Names returns the sorted crop names in the table.
func (t *CoefficientTable) Names() []string {
	o := make([]string, 0, len(t.index))
	for n := range t.index {
		o = append(o, n)
	}
	sort.Strings(o)
	return o
}

// CoefficientColumns are the column headers of a crop coefficient file.
var CoefficientColumns = []string{"Name", "TypicalYield", "TypicalYieldUnits",
	"YieldType", "TypicalDressingLoss%", "TypicalFieldLoss%", "TypicalHI",
	"HIRange", "Moisture%", "PRoot", "MaxRD", "ACover", "RootN%", "StoverN%",
	"ProductN%"}

// ParseCoefficientRecords converts string records to crop coefficients.
// header gives the column names of each record; columns may be in any order
// and extra columns are ignored.
func ParseCoefficientRecords(header []string, records [][]string) ([]CropParams, error) {
	col := make(map[string]int)
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, c := range CoefficientColumns {
		if _, ok := col[c]; !ok {
			return nil, fmt.Errorf("nbalance: crop coefficients missing column '%s'", c)
		}
	}
	rows := make([]CropParams, 0, len(records))
	for i, rec := range records {
		if len(rec) == 0 || strings.TrimSpace(strings.Join(rec, "")) == "" {
			continue // blank line
		}
		get := func(c string) string {
			j := col[c]
			if j >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[j])
		}
		var err error
		num := func(c string) float64 {
			if err != nil {
				return 0
			}
			s := get(c)
			if s == "" {
				return 0
			}
			var v float64
			v, err = strconv.ParseFloat(s, 64)
			if err != nil {
				err = fmt.Errorf("nbalance: crop coefficients row %d column %s: %v", i+1, c, err)
			}
			return v
		}
		p := CropParams{
			Name:              get("Name"),
			TypicalYield:      num("TypicalYield"),
			TypicalYieldUnits: get("TypicalYieldUnits"),
			YieldType:         get("YieldType"),
			DressingLossPct:   num("TypicalDressingLoss%"),
			FieldLossPct:      num("TypicalFieldLoss%"),
			TypicalHI:         num("TypicalHI"),
			HIRange:           num("HIRange"),
			MoisturePct:       num("Moisture%"),
			PRoot:             num("PRoot"),
			MaxRootDepth:      num("MaxRD"),
			CoverRate:         num("ACover"),
			RootNPct:          num("RootN%"),
			StoverNPct:        num("StoverN%"),
			ProductNPct:       num("ProductN%"),
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, p)
	}
	return rows, nil
}

// ReadCoefficientsCSV reads a crop coefficient table from CSV data whose
// first line is a header containing CoefficientColumns.
func ReadCoefficientsCSV(r io.Reader) (*CoefficientTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("nbalance: reading crop coefficients: %v", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("nbalance: crop coefficient file is empty")
	}
	rows, err := ParseCoefficientRecords(recs[0], recs[1:])
	if err != nil {
		return nil, err
	}
	return NewCoefficientTable(rows)
}
