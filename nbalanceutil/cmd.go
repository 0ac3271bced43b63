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

// Package nbalanceutil contains the command-line interface and the input
// and output handling for the nbalance field nitrogen model.
package nbalanceutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fieldnbalance/nbalance"
	"github.com/lnashier/viper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to nbalance.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Scenario",
			usage: `
              Scenario is the path to the TOML file describing the field
              and its prior, current and following crops. It can contain
              environment variables.`,
			shorthand:  "s",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Coefficients",
			usage: `
              Coefficients is the path to the crop coefficient table. Files
              ending in .xlsx are read as Excel workbooks, and all other
              files as CSV. Paths starting with 'http://', 'https://' or
              'file://' are downloaded before use.`,
			shorthand:  "c",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), coefficientsCmd.Flags()},
		},
		{
			name: "CoefficientSheet",
			usage: `
              CoefficientSheet is the name of the worksheet holding the crop
              coefficients when Coefficients is an Excel workbook.`,
			defaultVal: "CropCoefficients",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), coefficientsCmd.Flags()},
		},
		{
			name: "Weather",
			usage: `
              Weather is the path to a CSV file of daily weather with the
              columns Date, Temp (°C), Rain (mm) and PET (mm). It must cover
              the whole simulation period unless GapPolicy allows gaps.`,
			shorthand:  "w",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Tests",
			usage: `
              Tests is the path to a CSV file of measured soil mineral N,
              with a date column followed by a value column (kg N/ha).
              It is optional.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Applications",
			usage: `
              Applications is the path to a CSV file of scheduled fertiliser
              applications, with a date column followed by an amount
              column (kg N/ha). It is optional.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "GapPolicy",
			usage: `
              GapPolicy specifies how missing weather days are handled.
              Options are 'fail', 'zero' and 'interpolate'.`,
			defaultVal: "fail",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "InitialN",
			usage: `
              InitialN is the soil mineral N (kg N/ha) on the day before the
              prior crop is established. Negative values mean that the
              value in the Scenario file is used.`,
			defaultVal: -1.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Fertiliser.Trigger",
			usage: `
              Fertiliser.Trigger is the soil mineral N (kg N/ha) below which
              fertiliser is recommended. Negative values mean that the
              value in the Scenario file is used.`,
			defaultVal: -1.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Fertiliser.Efficiency",
			usage: `
              Fertiliser.Efficiency is the fraction of applied fertiliser N
              that reaches the soil mineral N pool. Negative values mean that
              the value in the Scenario file is used.`,
			defaultVal: -1.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Fertiliser.Splits",
			usage: `
              Fertiliser.Splits is the number of fertiliser applications that
              may be recommended for the current crop. Negative values mean
              that the value in the Scenario file is used.`,
			defaultVal: -1,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the CSV file where the daily ledger
              and OutputVariables should be written. Paths starting with
              'file://' are written to blob storage.`,
			shorthand:  "o",
			defaultVal: "nbalance.csv",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies derived daily outputs as a map of
              names to expressions. The expressions can use the ledger
              variables (for example SoilMineralN, UptakeN, ResidueN, SOMN)
              and the functions exp, max, min and sum.`,
			defaultVal: map[string]string{
				"Mineralisation": "ResidueN + SOMN",
				"NetSupply":      "ResidueN + SOMN + FertiliserN - LostN",
			},
			flagsets: []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "PlotFile",
			usage: `
              PlotFile is the path to a PNG file where a plot of
              PlotVariables should be written. No plot is made by the run
              command if it is empty.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), plotCmd.Flags()},
		},
		{
			name: "PlotVariables",
			usage: `
              PlotVariables lists the ledger or output variables to plot.`,
			defaultVal: []string{"SoilMineralN", "CropN"},
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), plotCmd.Flags()},
		},
		{
			name: "LedgerFile",
			usage: `
              LedgerFile is the path to a ledger CSV file written by the run
              command, for plotting.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to a file where log messages are written
              in addition to standard error.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of log messages to show:
              'debug', 'info', 'warning' or 'error'.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("NBALANCE")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(coefficientsCmd)
	Root.AddCommand(plotCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("nbalance: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "nbalance",
	Short: "A daily soil mineral nitrogen balance model.",
	Long: `nbalance simulates the soil mineral nitrogen balance of a field through
a prior, current and following crop, and recommends fertiliser applications for
the current crop. Use the subcommands specified below to access the model
functionality.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'NBALANCE_var' where 'var' is
the name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of nbalance.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("nbalance v%s\n", nbalance.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd runs a simulation.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the model.",
	Long: `run simulates the soil mineral N balance for the field and crops in the
Scenario file and writes the daily results to OutputFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Run(context.Background(), Cfg)
	},
	DisableAutoGenTag: true,
}

var coefficientsCmd = &cobra.Command{
	Use:   "coefficients",
	Short: "Print the crop coefficient table.",
	Long: `coefficients reads the crop coefficient table in the Coefficients file
and prints the crops it contains.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := os.ExpandEnv(Cfg.GetString("Coefficients"))
		if f == "" {
			return fmt.Errorf("nbalance: you need to specify a Coefficients file")
		}
		t, err := LoadCoefficients(maybeDownload(context.Background(), f, nil), os.ExpandEnv(Cfg.GetString("CoefficientSheet")))
		if err != nil {
			return err
		}
		return WriteCoefficients(cmd.OutOrStdout(), t)
	},
	DisableAutoGenTag: true,
}

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Plot results from a ledger file.",
	Long: `plot reads the ledger CSV file written by the run command and plots
PlotVariables to PlotFile as a PNG image.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Plot(context.Background(), Cfg)
	},
	DisableAutoGenTag: true,
}
