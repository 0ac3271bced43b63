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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fieldnbalance/nbalance"
)

// readCSV reads all records from r and returns the header row and a
// column index.
func readCSV(r io.Reader, name string, columns ...string) (header []string, col map[string]int, recs [][]string, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	all, err := cr.ReadAll()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("nbalanceutil: reading %s: %v", name, err)
	}
	if len(all) == 0 {
		return nil, nil, nil, fmt.Errorf("nbalanceutil: %s file is empty", name)
	}
	header = all[0]
	col = make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, c := range columns {
		if _, ok := col[c]; !ok {
			return nil, nil, nil, fmt.Errorf("nbalanceutil: %s file is missing column '%s'", name, c)
		}
	}
	return header, col, all[1:], nil
}

func parseFloat(s, name string, row int, column string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("nbalanceutil: %s row %d column %s: %v", name, row, column, err)
	}
	return v, nil
}

// ReadWeatherCSV reads daily weather records from CSV data with the
// columns Date, Temp, Rain and PET.
func ReadWeatherCSV(r io.Reader) ([]nbalance.WeatherRecord, error) {
	_, col, recs, err := readCSV(r, "weather", "Date", "Temp", "Rain", "PET")
	if err != nil {
		return nil, err
	}
	o := make([]nbalance.WeatherRecord, 0, len(recs))
	for i, rec := range recs {
		if len(rec) <= col["PET"] || len(rec) <= col["Date"] {
			return nil, fmt.Errorf("nbalanceutil: weather row %d is incomplete", i+1)
		}
		d, err := nbalance.ParseDate(strings.TrimSpace(rec[col["Date"]]))
		if err != nil {
			return nil, fmt.Errorf("nbalanceutil: weather row %d: %v", i+1, err)
		}
		w := nbalance.WeatherRecord{Date: d}
		for _, f := range []struct {
			name string
			v    *float64
		}{{"Temp", &w.Temp}, {"Rain", &w.Rain}, {"PET", &w.PET}} {
			if *f.v, err = parseFloat(rec[col[f.name]], "weather", i+1, f.name); err != nil {
				return nil, err
			}
		}
		o = append(o, w)
	}
	return o, nil
}

// ReadEventsCSV reads dated values, such as soil tests or fertiliser
// applications, from CSV data. The first column holds the date and the
// second the value. Values on the same date are summed.
func ReadEventsCSV(r io.Reader) (map[time.Time]float64, error) {
	header, _, recs, err := readCSV(r, "event")
	if err != nil {
		return nil, err
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("nbalanceutil: event file needs a date and a value column")
	}
	o := make(map[time.Time]float64, len(recs))
	for i, rec := range recs {
		if len(rec) < 2 {
			return nil, fmt.Errorf("nbalanceutil: event row %d is incomplete", i+1)
		}
		d, err := nbalance.ParseDate(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("nbalanceutil: event row %d: %v", i+1, err)
		}
		v, err := parseFloat(rec[1], "event", i+1, header[1])
		if err != nil {
			return nil, err
		}
		o[d] += v
	}
	return o, nil
}

// LoadCoefficients reads the crop coefficient table from fileName, which
// may be a CSV file or, if it has the extension .xlsx, the given sheet of
// an Excel workbook.
func LoadCoefficients(fileName, sheet string) (*nbalance.CoefficientTable, error) {
	if strings.ToLower(filepath.Ext(fileName)) == ".xlsx" {
		return ReadCoefficientsXLSX(fileName, sheet)
	}
	f, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("nbalanceutil: opening crop coefficients: %v", err)
	}
	defer f.Close()
	return nbalance.ReadCoefficientsCSV(f)
}

// loadEvents reads an event file, returning an empty set if fileName is
// empty.
func loadEvents(fileName string) (map[time.Time]float64, error) {
	if fileName == "" {
		return map[time.Time]float64{}, nil
	}
	f, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("nbalanceutil: opening event file: %v", err)
	}
	defer f.Close()
	return ReadEventsCSV(f)
}

// loadWeather reads a weather file and creates a weather series covering
// start through end.
func loadWeather(fileName string, start, end time.Time, policy nbalance.GapPolicy) (*nbalance.Weather, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("nbalanceutil: opening weather file: %v", err)
	}
	defer f.Close()
	recs, err := ReadWeatherCSV(f)
	if err != nil {
		return nil, err
	}
	return nbalance.NewWeather(recs, start, end, policy)
}
