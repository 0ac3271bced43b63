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
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/fieldnbalance/nbalance"
	"github.com/tealeg/xlsx"
)

// excelCache holds previously opened Microsoft Excel files
// to avoid reading the same file multiple times.
var excelCache *requestcache.Cache

var loadExcelCacheOnce sync.Once

// loadExcelFile loads a Microsoft Excel file from disk, utilizing
// a cache to avoid loading the same file more than once.
func loadExcelFile(fileName string) (*xlsx.File, error) {
	loadExcelCacheOnce.Do(func() {
		excelCache = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
			f, err := xlsx.OpenFile(req.(string))
			if err != nil {
				return nil, fmt.Errorf("nbalanceutil: opening xlsx file: %v", err)
			}
			return f, nil
		}, runtime.GOMAXPROCS(-1), requestcache.Memory(100))
	})
	r := excelCache.NewRequest(context.Background(), fileName, fileName)
	fI, err := r.Result()
	if err != nil {
		return nil, err
	}
	return fI.(*xlsx.File), nil
}

// sheetRecords returns the text in every cell of the named sheet.
func sheetRecords(fileName, sheet string) ([][]string, error) {
	f, err := loadExcelFile(fileName)
	if err != nil {
		return nil, err
	}
	s, ok := f.Sheet[sheet]
	if !ok {
		return nil, fmt.Errorf("nbalanceutil: reading %s: no sheet %s", fileName, sheet)
	}
	o := make([][]string, s.MaxRow)
	for j := range o {
		o[j] = make([]string, s.MaxCol)
		for i := range o[j] {
			o[j][i] = strings.TrimSpace(s.Cell(j, i).Value)
		}
	}
	return o, nil
}

// ReadCoefficientsXLSX reads a crop coefficient table from the named sheet
// of a Microsoft Excel workbook. The first row of the sheet must hold the
// column names in nbalance.CoefficientColumns.
func ReadCoefficientsXLSX(fileName, sheet string) (*nbalance.CoefficientTable, error) {
	recs, err := sheetRecords(fileName, sheet)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("nbalanceutil: crop coefficient sheet %s is empty", sheet)
	}
	rows, err := nbalance.ParseCoefficientRecords(recs[0], recs[1:])
	if err != nil {
		return nil, err
	}
	return nbalance.NewCoefficientTable(rows)
}
