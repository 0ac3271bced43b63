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

	"github.com/ctessum/unit"
)

// referenceDepth is the soil sampling depth that the sample depth
// factors are relative to [cm].
const referenceDepth = 30.0

// IrrigationRule specifies when irrigation is applied and how much water
// it adds, as fractions of available water capacity.
type IrrigationRule struct {
	Trigger, Refill float64
}

// SoilTables holds the lookup tables used to derive field properties
// from descriptive soil inputs.
type SoilTables struct {
	// BulkDensity is the bulk density of each soil texture [g/cm³].
	BulkDensity map[string]float64

	// CategoryFactor adjusts texture bulk density for the soil category.
	CategoryFactor map[string]float64

	// AWC is the available water capacity of each soil texture [% v/v].
	AWC map[string]float64

	// SampleDepthFactor relates each sampling depth to the 30 cm
	// reference depth.
	SampleDepthFactor map[string]float64

	// RainCapture is the fraction of rainfall that enters the soil
	// for each descriptive rainfall condition.
	RainCapture map[string]float64

	// Irrigation gives the irrigation rule for each irrigation level.
	Irrigation map[string]IrrigationRule
}

// DefaultSoilTables returns the standard soil lookup tables.
func DefaultSoilTables() *SoilTables {
	return &SoilTables{
		BulkDensity: map[string]float64{
			"Sand":       1.50,
			"Loamy Sand": 1.45,
			"Sandy Loam": 1.40,
			"Loam":       1.30,
			"Silt Loam":  1.20,
			"Clay Loam":  1.25,
			"Silty Clay": 1.15,
			"Clay":       1.10,
		},
		CategoryFactor: map[string]float64{
			"Sedimentary": 1.0,
			"Volcanic":    0.80,
			"Pumice":      0.70,
			"Organic":     0.45,
		},
		AWC: map[string]float64{
			"Sand":       8,
			"Loamy Sand": 12,
			"Sandy Loam": 16,
			"Loam":       20,
			"Silt Loam":  22,
			"Clay Loam":  18,
			"Silty Clay": 17,
			"Clay":       15,
		},
		SampleDepthFactor: map[string]float64{
			"0-15cm": 0.5,
			"0-30cm": 1,
			"0-60cm": 2,
			"0-90cm": 3,
		},
		RainCapture: map[string]float64{
			"Very Wet": 1.0,
			"Wet":      0.9,
			"Typical":  0.8,
			"Dry":      0.65,
			"Very Dry": 0.5,
		},
		Irrigation: map[string]IrrigationRule{
			"None":   {},
			"Low":    {Trigger: 0.3, Refill: 0.6},
			"Medium": {Trigger: 0.5, Refill: 0.8},
			"High":   {Trigger: 0.7, Refill: 0.95},
		},
	}
}

// FieldInputs are the raw, descriptive properties of a field.
type FieldInputs struct {
	Texture     string
	Category    string
	Rocks       float64 // stone content [fraction]
	SampleDepth string  // e.g. "0-30cm"
	PMN         float64 // potentially mineralisable N [mg/kg]

	Trigger    float64 // soil mineral N below which fertiliser is recommended [kg/ha]
	Efficiency float64 // fertiliser use efficiency [fraction]
	Splits     int     // number of fertiliser applications allowed

	PrePlantRain string // rainfall capture condition before planting
	InCropRain   string // rainfall capture condition while a crop is present
	Irrigation   string // irrigation level
}

// FieldConfig holds the physical and chemical properties of a field.
// All fields are derived from FieldInputs by NewFieldConfig.
type FieldConfig struct {
	FieldInputs

	BulkDensity       float64 // [g/cm³]
	SampleDepthFactor float64
	Depth             float64 // effective soil depth [cm]
	AWC               float64 // available water capacity [mm]
	PMNkgha           float64 // potentially mineralisable N [kg/ha]

	PrePlantCapture, InCropCapture float64
	Irrigate                       IrrigationRule
}

func lookup(table map[string]float64, item, key string) (float64, error) {
	v, ok := table[key]
	if !ok {
		return 0, ConfigurationError{Item: item, Key: key}
	}
	return v, nil
}

// NewFieldConfig derives a field configuration from its descriptive inputs.
func NewFieldConfig(in FieldInputs, t *SoilTables) (*FieldConfig, error) {
	f := &FieldConfig{FieldInputs: in}
	bd, err := lookup(t.BulkDensity, "texture", in.Texture)
	if err != nil {
		return nil, err
	}
	cf, err := lookup(t.CategoryFactor, "soil category", in.Category)
	if err != nil {
		return nil, err
	}
	f.BulkDensity = bd * cf
	awc, err := lookup(t.AWC, "texture", in.Texture)
	if err != nil {
		return nil, err
	}
	if f.SampleDepthFactor, err = lookup(t.SampleDepthFactor, "sample depth", in.SampleDepth); err != nil {
		return nil, err
	}
	if f.PrePlantCapture, err = lookup(t.RainCapture, "rainfall condition", in.PrePlantRain); err != nil {
		return nil, err
	}
	if f.InCropCapture, err = lookup(t.RainCapture, "rainfall condition", in.InCropRain); err != nil {
		return nil, err
	}
	irr, ok := t.Irrigation[in.Irrigation]
	if !ok {
		return nil, ConfigurationError{Item: "irrigation", Key: in.Irrigation}
	}
	f.Irrigate = irr

	if in.Rocks < 0 || in.Rocks >= 1 {
		return nil, ConfigurationError{Item: "rock fraction", Key: fmt.Sprint(in.Rocks), Msg: "must be in [0, 1)"}
	}
	if in.Efficiency <= 0 || in.Efficiency > 1 {
		return nil, ConfigurationError{Item: "fertiliser efficiency", Key: fmt.Sprint(in.Efficiency), Msg: "must be in (0, 1]"}
	}
	if in.Splits < 0 {
		return nil, ConfigurationError{Item: "fertiliser splits", Key: fmt.Sprint(in.Splits), Msg: "must not be negative"}
	}
	if in.PMN < 0 {
		return nil, ConfigurationError{Item: "PMN", Key: fmt.Sprint(in.PMN), Msg: "must not be negative"}
	}

	f.Depth = referenceDepth * f.SampleDepthFactor
	if f.AWC, err = availableWater(unit.New(awc/100*(1-in.Rocks), unit.Dimless), centimeters(f.Depth)); err != nil {
		return nil, err
	}
	if f.PMNkgha, err = PMNkgPerHa(in.PMN, f.BulkDensity, f.Depth); err != nil {
		return nil, err
	}
	return f, nil
}

// availableWater calculates the available water capacity [mm] of a soil
// layer of the given depth holding awc (a volume fraction) of plant
// available water.
func availableWater(awc, depth *unit.Unit) (float64, error) {
	w := unit.Mul(depth, awc)
	if err := w.Check(unit.Meter); err != nil {
		return 0, fmt.Errorf("nbalance: available water capacity: %v", err)
	}
	return w.Value() * 1000, nil
}

// PMNPerArea converts potentially mineralisable N from a mass fraction of
// soil to an areal mass [kg/m²] for a soil layer with the given bulk
// density and depth.
func PMNPerArea(pmn, bulkDensity, depth *unit.Unit) (*unit.Unit, error) {
	mass := unit.Mul(pmn, bulkDensity, depth)
	if err := mass.Check(unit.Dimensions{unit.MassDim: 1, unit.LengthDim: -2}); err != nil {
		return nil, fmt.Errorf("nbalance: converting PMN: %v", err)
	}
	return mass, nil
}

// PMNkgPerHa converts potentially mineralisable N from a concentration
// [mg N / kg soil] to an areal mass [kg N / ha] for a soil layer with the
// given bulk density [g/cm³] and depth [cm].
func PMNkgPerHa(pmn, bulkDensity, depth float64) (float64, error) {
	mass, err := PMNPerArea(
		unit.New(pmn*1e-6, unit.Dimless),                   // kg N / kg soil
		unit.New(bulkDensity*1000, unit.KilogramPerMeter3), // kg soil / m³
		centimeters(depth),
	)
	if err != nil {
		return 0, err
	}
	const m2PerHa = 1e4
	return mass.Value() * m2PerHa, nil
}

func centimeters(v float64) *unit.Unit { return unit.New(v/100, unit.Meter) }
