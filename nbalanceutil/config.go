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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fieldnbalance/nbalance"
	"github.com/lnashier/viper"
	"github.com/spf13/cast"
)

// Scenario describes a field and its crop rotation. It is read from a
// TOML file.
type Scenario struct {
	// InitialN is the soil mineral N on the day before the prior crop
	// is established [kg/ha].
	InitialN float64

	Field      FieldScenario
	Fertiliser FertiliserScenario

	Prior, Current, Following CropScenario
}

// FieldScenario holds the soil and management conditions of the field.
type FieldScenario struct {
	Texture      string
	Category     string
	Rocks        float64
	SampleDepth  string
	PMN          float64
	PrePlantRain string
	InCropRain   string
	Irrigation   string
}

// FertiliserScenario controls fertiliser recommendations for the
// current crop.
type FertiliserScenario struct {
	Trigger    float64
	Efficiency float64
	Splits     int
}

// CropScenario describes one crop. Dates are formatted as YYYY-MM-DD.
// MoisturePct, FieldLossPct and DressingLossPct default to the values
// in the crop coefficient table when they are not set.
type CropScenario struct {
	Name                         string
	EstablishDate, HarvestDate   string
	EstablishStage, HarvestStage string
	FieldYield                   float64

	MoisturePct, FieldLossPct, DressingLossPct *float64
}

// LoadScenario reads a scenario from TOML data and expands any
// environment variables in its text fields.
func LoadScenario(r io.Reader) (*Scenario, error) {
	s := new(Scenario)
	if _, err := toml.DecodeReader(r, s); err != nil {
		return nil, fmt.Errorf("nbalanceutil: problem reading scenario file: %v", err)
	}
	expandEnv(reflect.ValueOf(s).Elem())
	return s, nil
}

// expandEnv expands the environment variables in v.
func expandEnv(v reflect.Value) {
	if !v.CanSet() {
		return
	}
	switch v.Kind() {
	case reflect.String:
		v.SetString(os.ExpandEnv(v.String()))
	case reflect.Ptr:
		if !v.IsNil() {
			expandEnv(v.Elem())
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			expandEnv(v.Field(i))
		}
	}
}

// FieldInputs returns the field description for nbalance.NewFieldConfig.
func (s *Scenario) FieldInputs() nbalance.FieldInputs {
	return nbalance.FieldInputs{
		Texture:      s.Field.Texture,
		Category:     s.Field.Category,
		Rocks:        s.Field.Rocks,
		SampleDepth:  s.Field.SampleDepth,
		PMN:          s.Field.PMN,
		Trigger:      s.Fertiliser.Trigger,
		Efficiency:   s.Fertiliser.Efficiency,
		Splits:       s.Fertiliser.Splits,
		PrePlantRain: s.Field.PrePlantRain,
		InCropRain:   s.Field.InCropRain,
		Irrigation:   s.Field.Irrigation,
	}
}

// CropConfigs returns the prior, current and following crops, filling
// in unset values from table.
func (s *Scenario) CropConfigs(table *nbalance.CoefficientTable) ([nbalance.NumPhases]nbalance.CropConfig, error) {
	var o [nbalance.NumPhases]nbalance.CropConfig
	for i, c := range []CropScenario{s.Prior, s.Current, s.Following} {
		p := nbalance.Phase(i)
		cfg, err := c.cropConfig(table)
		if err != nil {
			return o, fmt.Errorf("nbalanceutil: %s crop: %v", p, err)
		}
		o[p] = cfg
	}
	return o, nil
}

func (c CropScenario) cropConfig(table *nbalance.CoefficientTable) (nbalance.CropConfig, error) {
	params, err := table.Lookup(c.Name)
	if err != nil {
		return nbalance.CropConfig{}, err
	}
	establish, err := nbalance.ParseDate(c.EstablishDate)
	if err != nil {
		return nbalance.CropConfig{}, fmt.Errorf("EstablishDate: %v", err)
	}
	harvest, err := nbalance.ParseDate(c.HarvestDate)
	if err != nil {
		return nbalance.CropConfig{}, fmt.Errorf("HarvestDate: %v", err)
	}
	orDefault := func(v *float64, def float64) float64 {
		if v == nil {
			return def
		}
		return *v
	}
	return nbalance.CropConfig{
		Name:            c.Name,
		EstablishDate:   establish,
		HarvestDate:     harvest,
		EstablishStage:  c.EstablishStage,
		HarvestStage:    c.HarvestStage,
		FieldYield:      c.FieldYield,
		MoisturePct:     orDefault(c.MoisturePct, params.MoisturePct),
		FieldLossPct:    orDefault(c.FieldLossPct, params.FieldLossPct),
		DressingLossPct: orDefault(c.DressingLossPct, params.DressingLossPct),
	}, nil
}

// overrideFertiliser replaces the scenario's fertiliser settings with any
// non-negative values set in cfg.
func (s *Scenario) overrideFertiliser(cfg *viper.Viper) {
	if v := cfg.GetFloat64("Fertiliser.Trigger"); v >= 0 {
		s.Fertiliser.Trigger = v
	}
	if v := cfg.GetFloat64("Fertiliser.Efficiency"); v >= 0 {
		s.Fertiliser.Efficiency = v
	}
	if v := cfg.GetInt("Fertiliser.Splits"); v >= 0 {
		s.Fertiliser.Splits = v
	}
	if v := cfg.GetFloat64("InitialN"); v >= 0 {
		s.InitialN = v
	}
}

// loadScenarioFile reads the scenario from a local, remote or blob file.
func loadScenarioFile(ctx context.Context, path string, c chan string) (*Scenario, error) {
	path = os.ExpandEnv(path)
	if path == "" {
		return nil, fmt.Errorf("nbalanceutil: you need to specify a Scenario file")
	}
	f, err := os.Open(maybeDownload(ctx, path, c))
	if err != nil {
		return nil, fmt.Errorf("nbalanceutil: opening scenario file: %v", err)
	}
	defer f.Close()
	return LoadScenario(f)
}

// Inputs loads the scenario, crop coefficients and data files named in
// cfg and returns the simulation inputs and coefficient table.
func Inputs(ctx context.Context, cfg *viper.Viper, c chan string) (*nbalance.Inputs, *nbalance.CoefficientTable, error) {
	s, err := loadScenarioFile(ctx, cfg.GetString("Scenario"), c)
	if err != nil {
		return nil, nil, err
	}
	s.overrideFertiliser(cfg)

	coefFile := os.ExpandEnv(cfg.GetString("Coefficients"))
	if coefFile == "" {
		return nil, nil, fmt.Errorf("nbalanceutil: you need to specify a Coefficients file")
	}
	table, err := LoadCoefficients(maybeDownload(ctx, coefFile, c), os.ExpandEnv(cfg.GetString("CoefficientSheet")))
	if err != nil {
		return nil, nil, err
	}
	crops, err := s.CropConfigs(table)
	if err != nil {
		return nil, nil, err
	}
	field, err := nbalance.NewFieldConfig(s.FieldInputs(), nbalance.DefaultSoilTables())
	if err != nil {
		return nil, nil, err
	}

	policy, err := nbalance.ParseGapPolicy(cfg.GetString("GapPolicy"))
	if err != nil {
		return nil, nil, err
	}
	weatherFile := os.ExpandEnv(cfg.GetString("Weather"))
	if weatherFile == "" {
		return nil, nil, fmt.Errorf("nbalanceutil: you need to specify a Weather file")
	}
	start, end := nbalance.SimulationPeriod(crops)
	weather, err := loadWeather(maybeDownload(ctx, weatherFile, c), start, end, policy)
	if err != nil {
		return nil, nil, err
	}

	tests, err := loadEvents(maybeDownload(ctx, os.ExpandEnv(cfg.GetString("Tests")), c))
	if err != nil {
		return nil, nil, err
	}
	applications, err := loadEvents(maybeDownload(ctx, os.ExpandEnv(cfg.GetString("Applications")), c))
	if err != nil {
		return nil, nil, err
	}

	return &nbalance.Inputs{
		Weather:      weather,
		Tests:        tests,
		Applications: applications,
		Field:        field,
		Crops:        crops,
		InitialN:     s.InitialN,
	}, table, nil
}

// checkOutputVars removes end lines and expands environment
// variables in the output variables.
func checkOutputVars(vars map[string]string) map[string]string {
	o := make(map[string]string, len(vars))
	for k, v := range vars {
		v = strings.Replace(v, "\r\n", " ", -1)
		v = strings.Replace(v, "\n", " ", -1)
		o[os.ExpandEnv(k)] = os.ExpandEnv(v)
	}
	return o
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expands any environment variables.
func checkOutputFile(ctx context.Context, name, f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`nbalanceutil: you need to specify the %s configuration variable (for example: %s="nbalance.csv")`, name, name)
	}
	f = os.ExpandEnv(f)
	if IsBlob(f) {
		u, err := url.Parse(f)
		if err != nil {
			return f, err
		}
		if _, err = OpenBucket(ctx, u.Scheme+"://"+u.Host); err != nil {
			return f, fmt.Errorf("nbalanceutil: error when checking %s location: %v", name, err)
		}
		return f, nil
	}
	if _, err := os.Stat(filepath.Dir(f)); err != nil {
		return f, fmt.Errorf("nbalanceutil: the %s directory doesn't exist: %v", name, err)
	}
	return f, nil
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		o := make(map[string]string)
		if v == "" {
			return o, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("nbalanceutil: parsing %s: %v", varName, err)
		}
		return o, nil
	case nil:
		return map[string]string{}, nil
	default:
		return nil, fmt.Errorf("nbalanceutil: invalid type for variable %s: %#v", varName, i)
	}
}
