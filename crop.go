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
	"math"
	"time"
)

// StageTable gives the time at which each named phenological stage
// occurs, as a proportion of the thermal time from sowing to maturity.
type StageTable map[string]float64

// DefaultStages returns the standard phenological stage table.
func DefaultStages() StageTable {
	return StageTable{
		"Seed":              0,
		"Emergence":         0.027,
		"Seedling":          0.1,
		"Vegetative":        0.5,
		"EarlyReproductive": 0.65,
		"MidReproductive":   0.75,
		"LateReproductive":  0.85,
		"Maturity":          1.0,
		"Late":              1.27,
	}
}

// Shape constants for the growth curves, as proportions of the thermal
// time to maturity.
const (
	biomassMidpoint = 0.5
	biomassSlope    = 0.1
	coverMidpoint   = 0.25
	coverSlope      = 0.05
	coverFull       = 0.5  // cover scaler reaches 1
	senescence      = 0.75 // cover starts to decline
	coverEnd        = 1.27 // cover reaches 0
	rootFull        = 0.5  // roots reach maximum depth

	minHI = 0.01
	maxHI = 0.99
)

// CropConfig describes one crop in the rotation.
type CropConfig struct {
	// Name is the crop name in the coefficient table.
	Name string

	EstablishDate, HarvestDate   time.Time
	EstablishStage, HarvestStage string

	// FieldYield is the saleable yield in the crop's table yield units.
	FieldYield float64

	// MoisturePct is the moisture content of the product [%].
	MoisturePct float64

	// FieldLossPct and DressingLossPct are the percentages of the total
	// product that are left in the field or removed during dressing.
	FieldLossPct, DressingLossPct float64
}

// contains returns whether d falls between establishment and harvest,
// inclusive.
func (c *CropConfig) contains(d time.Time) bool {
	d = Day(d)
	return !d.Before(Day(c.EstablishDate)) && !d.After(Day(c.HarvestDate))
}

// NHI holds the share of total crop N in each plant fraction at harvest.
type NHI struct {
	Root, Stover, Product, FieldLoss float64
}

// CropType holds the simulated growth of one crop.
type CropType struct {
	Params CropParams

	// Thermal time anchors [°C d].
	TtEstab, TtHarv, TtMat float64

	// Logistic curve parameters [°C d].
	BiomassXo, BiomassB float64
	CoverXo, CoverB     float64

	// StageCorrection scales the biomass curve so that it equals 1
	// on the harvest day.
	StageCorrection float64

	// Harvest index line and value at the field yield.
	HIa, HIb, HI float64

	// Harvest state dry matter [kg/ha].
	ProductDM, TotalProductDM, FieldLossDM, DressingDM, StoverDM, RootDM float64

	// Harvest state N [kg/ha].
	ProductN, FieldLossN, DressingN, StoverN, RootN, TotalN float64

	// NHI holds the nitrogen harvest index of each fraction.
	// Dressing losses are counted with stover.
	NHI NHI

	// Residues returned to the soil at harvest [kg N/ha].
	ResRoot, ResStover, ResFieldLoss float64

	// Dates holds each day from establishment to harvest. The
	// remaining slices are indexed the same way.
	Dates []time.Time

	Age       []float64 // crop age [°C d]
	Cover     []float64 // green cover [fraction]
	RootDepth []float64 // [mm]

	// Standing crop N in each fraction [kg/ha].
	RootNSeries, StoverNSeries, ProductNSeries, FieldLossNSeries, DressingNSeries []float64

	// TotalCropN is the cumulative crop N and Uptake is its daily
	// increment, counting from zero the day before establishment.
	TotalCropN, Uptake []float64
}

// index returns the position of d within the crop's daily series.
func (c *CropType) index(d time.Time) (int, bool) {
	if len(c.Dates) == 0 {
		return -1, false
	}
	i := daysBetween(c.Dates[0], d)
	if i < 0 || i >= len(c.Dates) {
		return -1, false
	}
	return i, true
}

// logistic is a sigmoid curve with the given midpoint and slope.
func logistic(x, xo, b float64) float64 {
	return 1 / (1 + math.Exp(-(x-xo)/b))
}

// biomassScaler returns the scaled biomass fraction at crop age tt.
func (c *CropType) biomassScaler(tt float64) float64 {
	return logistic(tt, c.BiomassXo, c.BiomassB) * c.StageCorrection
}

// coverScaler returns the green cover scaler at crop age tt.
func (c *CropType) coverScaler(tt float64) float64 {
	switch {
	case tt < coverFull*c.TtMat:
		full := logistic(coverFull*c.TtMat, c.CoverXo, c.CoverB)
		return math.Min(1, logistic(tt, c.CoverXo, c.CoverB)/full)
	case tt < senescence*c.TtMat:
		return 1
	default:
		return math.Max(0, (coverEnd*c.TtMat-tt)/((coverEnd-senescence)*c.TtMat))
	}
}

// rootScaler returns the root depth scaler at crop age tt.
func (c *CropType) rootScaler(tt float64) float64 {
	return math.Max(0, math.Min(1, tt/(rootFull*c.TtMat)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Grow simulates the growth of the crop described by cfg using the given
// coefficients, stage table and weather.
func Grow(cfg CropConfig, p CropParams, stages StageTable, w *Weather) (*CropType, error) {
	estab, harv := Day(cfg.EstablishDate), Day(cfg.HarvestDate)
	if !harv.After(estab) {
		return nil, ConfigurationError{Item: "harvest date", Key: harv.Format(DateFormat),
			Msg: fmt.Sprintf("%s crop must be harvested after it is established", p.Name)}
	}
	pEstab, ok := stages[cfg.EstablishStage]
	if !ok {
		return nil, ConfigurationError{Item: "establishment stage", Key: cfg.EstablishStage}
	}
	pHarv, ok := stages[cfg.HarvestStage]
	if !ok {
		return nil, ConfigurationError{Item: "harvest stage", Key: cfg.HarvestStage}
	}
	if pHarv <= pEstab {
		return nil, ConfigurationError{Item: "harvest stage", Key: cfg.HarvestStage,
			Msg: fmt.Sprintf("must be later than establishment stage %s", cfg.EstablishStage)}
	}
	accTt, err := w.AccumulatedTt(estab, harv)
	if err != nil {
		return nil, err
	}
	c := &CropType{Params: p}
	c.TtHarv = accTt[len(accTt)-1]
	if c.TtHarv <= 0 {
		return nil, ConfigurationError{Item: "crop", Key: p.Name, Date: harv,
			Msg: "no thermal time accumulated between establishment and harvest"}
	}
	c.TtMat = c.TtHarv / (pHarv - pEstab)
	c.TtEstab = c.TtMat * pEstab
	c.BiomassXo = biomassMidpoint * c.TtMat
	c.BiomassB = biomassSlope * c.TtMat
	c.CoverXo = coverMidpoint * c.TtMat
	c.CoverB = coverSlope * c.TtMat
	c.StageCorrection = 1 / logistic(c.TtEstab+c.TtHarv, c.BiomassXo, c.BiomassB)

	if err := c.harvestState(cfg); err != nil {
		return nil, err
	}

	n := len(accTt)
	c.Dates = dateRange(estab, harv)
	c.Age = make([]float64, n)
	c.Cover = make([]float64, n)
	c.RootDepth = make([]float64, n)
	c.RootNSeries = make([]float64, n)
	c.StoverNSeries = make([]float64, n)
	c.ProductNSeries = make([]float64, n)
	c.FieldLossNSeries = make([]float64, n)
	c.DressingNSeries = make([]float64, n)
	c.TotalCropN = make([]float64, n)
	c.Uptake = make([]float64, n)
	for i, tt := range accTt {
		age := c.TtEstab + tt
		c.Age[i] = age
		c.Cover[i] = clamp(p.CoverRate*c.coverScaler(age), 0, 1)
		c.RootDepth[i] = p.MaxRootDepth * c.rootScaler(age)
		s := c.biomassScaler(age)
		c.RootNSeries[i] = c.RootN * s
		c.StoverNSeries[i] = c.StoverN * s
		c.ProductNSeries[i] = c.ProductN * s
		c.FieldLossNSeries[i] = c.FieldLossN * s
		c.DressingNSeries[i] = c.DressingN * s
		c.TotalCropN[i] = c.TotalN * s
		if i == 0 {
			c.Uptake[i] = c.TotalCropN[i]
		} else {
			c.Uptake[i] = c.TotalCropN[i] - c.TotalCropN[i-1]
		}
	}
	c.TotalCropN[n-1] = c.TotalN // remove rounding in the stage correction
	c.Uptake[n-1] = c.TotalN
	if n > 1 {
		c.Uptake[n-1] -= c.TotalCropN[n-2]
	}
	return c, nil
}

// harvestState calculates dry matter and N in each plant fraction at
// harvest.
func (c *CropType) harvestState(cfg CropConfig) error {
	p := c.Params
	if p.TypicalYield <= 0 {
		return ConfigurationError{Item: "typical yield", Key: fmt.Sprint(p.TypicalYield),
			Msg: fmt.Sprintf("for crop %s", p.Name)}
	}
	if cfg.FieldYield < 0 {
		return ConfigurationError{Item: "field yield", Key: fmt.Sprint(cfg.FieldYield),
			Msg: fmt.Sprintf("for crop %s", p.Name)}
	}
	lossPct := cfg.FieldLossPct + cfg.DressingLossPct
	if cfg.FieldLossPct < 0 || cfg.DressingLossPct < 0 || lossPct >= 100 {
		return ConfigurationError{Item: "loss percentage", Key: fmt.Sprint(lossPct),
			Msg: fmt.Sprintf("field and dressing losses for %s must be non-negative and sum to less than 100", p.Name)}
	}
	if cfg.MoisturePct < 0 || cfg.MoisturePct >= 100 {
		return ConfigurationError{Item: "moisture percentage", Key: fmt.Sprint(cfg.MoisturePct),
			Msg: fmt.Sprintf("for crop %s", p.Name)}
	}
	factor, err := p.yieldFactor()
	if err != nil {
		return err
	}

	c.HIa = p.TypicalHI - p.HIRange
	c.HIb = p.HIRange / p.TypicalYield
	c.HI = clamp(c.HIa+c.HIb*cfg.FieldYield, minHI, maxHI)

	fresh := cfg.FieldYield * factor
	if p.YieldType == StandingDM {
		fresh *= c.HI
	}
	totalFresh := fresh / (1 - lossPct/100)
	dm := 1 - cfg.MoisturePct/100

	c.ProductDM = fresh * dm
	c.TotalProductDM = totalFresh * dm
	c.FieldLossDM = totalFresh * cfg.FieldLossPct / 100 * dm
	c.DressingDM = totalFresh * cfg.DressingLossPct / 100 * dm
	c.StoverDM = c.TotalProductDM/c.HI - c.TotalProductDM
	c.RootDM = (c.TotalProductDM + c.StoverDM) * p.PRoot

	c.ProductN = c.ProductDM * p.ProductNPct / 100
	c.FieldLossN = c.FieldLossDM * p.ProductNPct / 100
	c.DressingN = c.DressingDM * p.StoverNPct / 100
	c.StoverN = c.StoverDM * p.StoverNPct / 100
	c.RootN = c.RootDM * p.RootNPct / 100
	c.TotalN = c.ProductN + c.FieldLossN + c.DressingN + c.StoverN + c.RootN

	if c.TotalN > 0 {
		c.NHI = NHI{
			Root:      c.RootN / c.TotalN,
			Stover:    (c.StoverN + c.DressingN) / c.TotalN,
			Product:   c.ProductN / c.TotalN,
			FieldLoss: c.FieldLossN / c.TotalN,
		}
	}
	c.ResRoot = c.RootN
	c.ResStover = c.StoverN + c.DressingN
	c.ResFieldLoss = c.FieldLossN
	return nil
}
