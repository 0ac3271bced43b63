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
	"sort"

	"github.com/Knetic/govaluate"
	"gonum.org/v1/gonum/floats"
)

// Outputter calculates derived daily output variables from a simulation
// ledger.
//
// outputVariables maps the names of the variables to expressions that
// define how they should be calculated. The expressions can use the
// ledger series (see SeriesNames), other output variables, and functions.
type Outputter struct {
	outputVariables map[string]string
	outputFunctions map[string]govaluate.ExpressionFunction
	expressions     map[string]*govaluate.EvaluableExpression
	order           []string
}

// NewOutputter initializes a new Outputter and adds a set of default
// output functions. Default functions include:
//
// 'exp(x)' which applies the exponential function e^x.
//
// 'max(x, y, ...)' and 'min(x, y, ...)' which return the largest and
// smallest of their arguments.
//
// 'sum(x, y, ...)' which sums its arguments.
func NewOutputter(outputVariables map[string]string, outputFunctions map[string]govaluate.ExpressionFunction) (*Outputter, error) {
	funcs := map[string]govaluate.ExpressionFunction{
		"exp": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("nbalance: got %d arguments for function 'exp', but needs 1", len(arg))
			}
			x, err := toFloat(arg[0])
			if err != nil {
				return nil, err
			}
			return math.Exp(x), nil
		},
		"max": reduceFunc("max", floats.Max),
		"min": reduceFunc("min", floats.Min),
		"sum": reduceFunc("sum", floats.Sum),
	}
	for k, v := range outputFunctions {
		funcs[k] = v
	}

	o := &Outputter{
		outputVariables: make(map[string]string, len(outputVariables)),
		outputFunctions: funcs,
		expressions:     make(map[string]*govaluate.EvaluableExpression, len(outputVariables)),
	}
	for k, v := range outputVariables {
		o.outputVariables[k] = v
		expr, err := govaluate.NewEvaluableExpressionWithFunctions(v, funcs)
		if err != nil {
			return nil, fmt.Errorf("nbalance: output variable %s: %v", k, err)
		}
		o.expressions[k] = expr
	}
	if err := o.sortVariables(); err != nil {
		return nil, err
	}
	return o, nil
}

func toFloat(v interface{}) (float64, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("nbalance: %v (%T) is not a number", v, v)
	}
	return f, nil
}

// reduceFunc makes an expression function that applies f to its arguments.
func reduceFunc(name string, f func([]float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("nbalance: function '%s' needs at least 1 argument", name)
		}
		v := make([]float64, len(args))
		for i, a := range args {
			x, err := toFloat(a)
			if err != nil {
				return nil, err
			}
			v[i] = x
		}
		return f(v), nil
	}
}

// dependencies returns the other output variables that the named
// variable's expression refers to.
func (o *Outputter) dependencies(name string) []string {
	var deps []string
	for _, v := range o.expressions[name].Vars() {
		if _, ok := o.expressions[v]; ok && v != name {
			deps = append(deps, v)
		}
	}
	return deps
}

// sortVariables finds an order in which the output variables can be
// calculated so that each is calculated after the variables it uses.
func (o *Outputter) sortVariables() error {
	names := make([]string, 0, len(o.expressions))
	for k := range o.expressions {
		names = append(names, k)
	}
	sort.Strings(names)

	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[string]int, len(names))
	var visit func(n string) error
	visit = func(n string) error {
		switch state[n] {
		case visited:
			return nil
		case visiting:
			return fmt.Errorf("nbalance: output variable '%s' is defined in terms of itself", n)
		}
		state[n] = visiting
		for _, d := range o.dependencies(n) {
			if err := visit(d); err != nil {
				return err
			}
		}
		state[n] = visited
		o.order = append(o.order, n)
		return nil
	}
	for _, n := range names {
		if err := visit(n); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the sorted names of the output variables.
func (o *Outputter) Names() []string {
	names := make([]string, 0, len(o.outputVariables))
	for k := range o.outputVariables {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// checkModelVars checks whether the variables required to calculate the
// output variables are available.
func (o *Outputter) checkModelVars(l *Ledger) error {
	for name, expr := range o.expressions {
		for _, v := range expr.Vars() {
			if _, ok := o.expressions[v]; ok && v != name {
				continue
			}
			if _, err := l.Series(v); err != nil {
				return fmt.Errorf("nbalance: output variable %s: undefined variable name '%s'", name, v)
			}
		}
	}
	return nil
}

// Results calculates the output variables for every day in the ledger.
func (o *Outputter) Results(l *Ledger) (map[string][]float64, error) {
	if err := o.checkModelVars(l); err != nil {
		return nil, err
	}
	series := make(map[string][]float64, len(SeriesNames))
	for _, n := range SeriesNames {
		s, err := l.Series(n)
		if err != nil {
			return nil, err
		}
		series[n] = s
	}
	out := make(map[string][]float64, len(o.order))
	for _, n := range o.order {
		out[n] = make([]float64, l.Len())
	}
	params := make(map[string]interface{}, len(series)+len(out))
	for i := 0; i < l.Len(); i++ {
		for k, v := range series {
			params[k] = v[i]
		}
		for _, n := range o.order {
			r, err := o.expressions[n].Evaluate(params)
			if err != nil {
				return nil, fmt.Errorf("nbalance: calculating %s on %s: %v", n, l.Dates[i].Format(DateFormat), err)
			}
			v, err := toFloat(r)
			if err != nil {
				return nil, fmt.Errorf("nbalance: calculating %s: %v", n, err)
			}
			out[n][i] = v
			params[n] = v
		}
	}
	return out, nil
}
