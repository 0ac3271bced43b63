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
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/fieldnbalance/nbalance"
	"github.com/kr/pretty"
	"github.com/lnashier/viper"
)

func float(v float64) *float64 { return &v }

func testScenario(t *testing.T) *Scenario {
	f, err := os.Open("../cmd/nbalance/testdata/scenario.toml")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	s, err := LoadScenario(f)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLoadScenario(t *testing.T) {
	s := testScenario(t)
	want := &Scenario{
		InitialN: 40,
		Field: FieldScenario{
			Texture:      "Silt Loam",
			Category:     "Sedimentary",
			SampleDepth:  "0-30cm",
			PMN:          30,
			PrePlantRain: "Typical",
			InCropRain:   "Typical",
			Irrigation:   "None",
		},
		Fertiliser: FertiliserScenario{Trigger: 50, Efficiency: 0.8, Splits: 3},
		Prior: CropScenario{
			Name:           "Oats Forage",
			EstablishDate:  "2019-03-01",
			HarvestDate:    "2019-06-15",
			EstablishStage: "Seed",
			HarvestStage:   "Vegetative",
			FieldYield:     10,
		},
		Current: CropScenario{
			Name:           "Potato",
			EstablishDate:  "2019-09-01",
			HarvestDate:    "2020-01-31",
			EstablishStage: "Seed",
			HarvestStage:   "Maturity",
			FieldYield:     60,
			MoisturePct:    float(80),
		},
		Following: CropScenario{
			Name:           "Wheat",
			EstablishDate:  "2020-04-01",
			HarvestDate:    "2020-12-20",
			EstablishStage: "Seed",
			HarvestStage:   "Maturity",
			FieldYield:     10,
			FieldLossPct:   float(2),
		},
	}
	if diff := pretty.Diff(s, want); len(diff) != 0 {
		t.Errorf("scenario differs:\n%s", strings.Join(diff, "\n"))
	}
}

func TestLoadScenarioExpandEnv(t *testing.T) {
	os.Setenv("NBALANCE_TEST_TEXTURE", "Clay Loam")
	defer os.Unsetenv("NBALANCE_TEST_TEXTURE")
	s, err := LoadScenario(strings.NewReader("[Field]\nTexture = \"${NBALANCE_TEST_TEXTURE}\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if s.Field.Texture != "Clay Loam" {
		t.Errorf("got texture %q", s.Field.Texture)
	}
	if _, err = LoadScenario(strings.NewReader("[Field\n")); err == nil {
		t.Error("expected an error for invalid TOML")
	}
}

func TestCropConfigs(t *testing.T) {
	table, err := LoadCoefficients("../cmd/nbalance/testdata/coefficients.csv", "")
	if err != nil {
		t.Fatal(err)
	}
	s := testScenario(t)
	crops, err := s.CropConfigs(table)
	if err != nil {
		t.Fatal(err)
	}
	want := [nbalance.NumPhases]nbalance.CropConfig{
		{
			Name: "Oats Forage", EstablishDate: date("2019-03-01"), HarvestDate: date("2019-06-15"),
			EstablishStage: "Seed", HarvestStage: "Vegetative", FieldYield: 10,
			MoisturePct: 0, FieldLossPct: 5, DressingLossPct: 0,
		},
		{
			Name: "Potato", EstablishDate: date("2019-09-01"), HarvestDate: date("2020-01-31"),
			EstablishStage: "Seed", HarvestStage: "Maturity", FieldYield: 60,
			MoisturePct: 80, FieldLossPct: 5, DressingLossPct: 5,
		},
		{
			Name: "Wheat", EstablishDate: date("2020-04-01"), HarvestDate: date("2020-12-20"),
			EstablishStage: "Seed", HarvestStage: "Maturity", FieldYield: 10,
			MoisturePct: 14, FieldLossPct: 2, DressingLossPct: 0,
		},
	}
	if !reflect.DeepEqual(crops, want) {
		t.Errorf("crops differ:\n%s", strings.Join(pretty.Diff(crops, want), "\n"))
	}

	s.Following.Name = "Kumara"
	if _, err = s.CropConfigs(table); err == nil || !strings.Contains(err.Error(), "following") {
		t.Errorf("expected an error naming the following crop, got %v", err)
	}
	s.Following.Name = "Wheat"
	s.Current.HarvestDate = "31/01/2020"
	if _, err = s.CropConfigs(table); err == nil || !strings.Contains(err.Error(), "HarvestDate") {
		t.Errorf("expected a HarvestDate error, got %v", err)
	}
}

func TestOverrideFertiliser(t *testing.T) {
	s := testScenario(t)
	cfg := viper.New()
	cfg.Set("Fertiliser.Trigger", 70.0)
	cfg.Set("Fertiliser.Efficiency", -1.0)
	cfg.Set("Fertiliser.Splits", 1)
	cfg.Set("InitialN", -1.0)
	s.overrideFertiliser(cfg)
	want := FertiliserScenario{Trigger: 70, Efficiency: 0.8, Splits: 1}
	if s.Fertiliser != want {
		t.Errorf("got %+v, want %+v", s.Fertiliser, want)
	}
	if s.InitialN != 40 {
		t.Errorf("InitialN changed to %g", s.InitialN)
	}
	in := s.FieldInputs()
	if in.Trigger != 70 || in.Splits != 1 || in.Texture != "Silt Loam" || in.PMN != 30 {
		t.Errorf("field inputs: %+v", in)
	}
}

func TestGetStringMapString(t *testing.T) {
	cfg := viper.New()
	want := map[string]string{"supply": "ResidueN + SOMN"}
	for name, v := range map[string]interface{}{
		"map":       want,
		"interface": map[string]interface{}{"supply": "ResidueN + SOMN"},
		"json":      `{"supply": "ResidueN + SOMN"}`,
	} {
		t.Run(name, func(t *testing.T) {
			cfg.Set("OutputVariables", v)
			got, err := GetStringMapString("OutputVariables", cfg)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}
	cfg.Set("OutputVariables", "")
	if got, err := GetStringMapString("OutputVariables", cfg); err != nil || len(got) != 0 {
		t.Errorf("empty: got %v, %v", got, err)
	}
	cfg.Set("OutputVariables", "{bad json")
	if _, err := GetStringMapString("OutputVariables", cfg); err == nil {
		t.Error("expected an error for bad json")
	}
	cfg.Set("OutputVariables", 7)
	if _, err := GetStringMapString("OutputVariables", cfg); err == nil {
		t.Error("expected an error for an invalid type")
	}
}

func TestCheckOutputVars(t *testing.T) {
	os.Setenv("NBALANCE_TEST_VAR", "SOMN")
	defer os.Unsetenv("NBALANCE_TEST_VAR")
	got := checkOutputVars(map[string]string{"Supply": "ResidueN +\r\n$NBALANCE_TEST_VAR"})
	if got["Supply"] != "ResidueN + SOMN" {
		t.Errorf("got %q", got["Supply"])
	}
}

func TestCheckOutputFile(t *testing.T) {
	if _, err := checkOutputFile(context.Background(), "OutputFile", ""); err == nil {
		t.Error("expected an error for an empty file name")
	}
	if _, err := checkOutputFile(context.Background(), "OutputFile", "missing_dir/out.csv"); err == nil {
		t.Error("expected an error for a missing directory")
	}
	if f, err := checkOutputFile(context.Background(), "OutputFile", "out.csv"); err != nil || f != "out.csv" {
		t.Errorf("got %s, %v", f, err)
	}
}
