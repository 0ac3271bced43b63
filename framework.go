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
	"time"

	"github.com/sirupsen/logrus"
)

// Inputs holds the external data needed for a simulation. All data
// are loaded before the simulation starts.
type Inputs struct {
	Weather *Weather

	// Tests holds measured soil mineral N [kg/ha] by date.
	Tests map[time.Time]float64

	// Applications holds scheduled fertiliser N applications [kg/ha] by date.
	Applications map[time.Time]float64

	Field *FieldConfig

	// Crops holds the prior, current and following crops.
	Crops [NumPhases]CropConfig

	// InitialN is the soil mineral N on the day before the prior
	// crop is established [kg/ha].
	InitialN float64
}

// Simulation holds the state of a field simulation.
type Simulation struct {
	*Inputs

	// InitFuncs are run once before the daily loop starts.
	InitFuncs []DayManipulator

	// RunFuncs are run in order on every simulated day.
	RunFuncs []DayManipulator

	// CleanupFuncs are run once after the last day.
	CleanupFuncs []DayManipulator

	// Log receives status messages. If nil, the standard logrus
	// logger is used.
	Log logrus.FieldLogger

	Ledger *Ledger
	Phases [NumPhases]*PhaseResult

	Recommendations []Application

	// Day is the ledger index of the day being simulated.
	Day int

	// State is the crop phase the field is in. It moves to the next
	// phase the day after each harvest and equals NumPhases after the
	// following crop has been harvested.
	State Phase

	// Done is set when the last day has been simulated.
	Done bool

	water      *SoilWater
	residues   []*Residue
	splitsLeft int

	// Per-day working values.
	n        float64 // available soil mineral N [kg/ha]
	waterDay WaterDay
	active   *PhaseResult
}

// DayManipulator is a function that operates on a simulation.
type DayManipulator func(s *Simulation) error

// Date returns the day being simulated.
func (s *Simulation) Date() time.Time { return s.Ledger.Dates[s.Day] }

func (s *Simulation) log() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

// Init initializes the simulation by running s.InitFuncs.
func (s *Simulation) Init() error {
	for _, f := range s.InitFuncs {
		if err := f(s); err != nil {
			return err
		}
	}
	return nil
}

// Run carries out the simulation by running s.RunFuncs for each day until
// s.Done is true.
func (s *Simulation) Run() error {
	if s.Ledger == nil {
		return fmt.Errorf("nbalance: simulation has not been initialized")
	}
	for !s.Done {
		for _, f := range s.RunFuncs {
			if err := f(s); err != nil {
				return err
			}
		}
	}
	return nil
}

// Cleanup finishes the simulation by running s.CleanupFuncs.
func (s *Simulation) Cleanup() error {
	for _, f := range s.CleanupFuncs {
		if err := f(s); err != nil {
			return err
		}
	}
	return nil
}

// Result is the output of a simulation.
type Result struct {
	Ledger          *Ledger
	Phases          [NumPhases]*PhaseResult
	Recommendations []Application
}

// Result returns the output of the simulation.
func (s *Simulation) Result() *Result {
	return &Result{
		Ledger:          s.Ledger,
		Phases:          s.Phases,
		Recommendations: s.Recommendations,
	}
}
