// Copyright 2025-2026
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataframe

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// New creates an empty dataframe with the requested columns
func New(colNames ...string) *DataFrame {
	vals := make([][]float64, len(colNames))
	for idx := range vals {
		vals[idx] = []float64{}
	}
	return &DataFrame{
		Dates:    []time.Time{},
		ColNames: colNames,
		Vals:     vals,
	}
}

// Len returns the number of rows in the dataframe
func (df *DataFrame) Len() int {
	return len(df.Dates)
}

// ColCount returns the number of columns in the dataframe
func (df *DataFrame) ColCount() int {
	return len(df.ColNames)
}

// ColIndex returns the index of the specified column; -1 if the column
// doesn't exist
func (df *DataFrame) ColIndex(colName string) int {
	for idx, val := range df.ColNames {
		if colName == val {
			return idx
		}
	}
	return -1
}

// Copy creates a deep copy of the dataframe
func (df *DataFrame) Copy() *DataFrame {
	df2 := &DataFrame{
		Dates:    make([]time.Time, len(df.Dates)),
		ColNames: make([]string, len(df.ColNames)),
		Vals:     make([][]float64, len(df.Vals)),
	}
	copy(df2.Dates, df.Dates)
	copy(df2.ColNames, df.ColNames)
	for idx := range df.Vals {
		df2.Vals[idx] = make([]float64, len(df.Vals[idx]))
		copy(df2.Vals[idx], df.Vals[idx])
	}
	return df2
}

// AddColumn appends a new column to the dataframe. vals must have the same
// length as the date index.
func (df *DataFrame) AddColumn(colName string, vals []float64) error {
	if len(vals) != df.Len() {
		return ErrDateIndexNotAligned
	}
	if df.ColIndex(colName) != -1 {
		return fmt.Errorf("%w: %s already present", ErrDateIndexNotAligned, colName)
	}
	df.ColNames = append(df.ColNames, colName)
	df.Vals = append(df.Vals, vals)
	return nil
}

// RowIndex returns the row index of the given date; -1 if the date is not in
// the index
func (df *DataFrame) RowIndex(date time.Time) int {
	idx := sort.Search(len(df.Dates), func(i int) bool {
		return !df.Dates[i].Before(date)
	})
	if idx < len(df.Dates) && df.Dates[idx].Equal(date) {
		return idx
	}
	return -1
}

// ValueAt returns the value for (date, colName); NaN when either the date or
// column is absent
func (df *DataFrame) ValueAt(date time.Time, colName string) float64 {
	colIdx := df.ColIndex(colName)
	rowIdx := df.RowIndex(date)
	if colIdx == -1 || rowIdx == -1 {
		return math.NaN()
	}
	return df.Vals[colIdx][rowIdx]
}

// SetValue upserts a single cell, creating the row and/or column as needed.
// Rows are kept in ascending date order.
func (df *DataFrame) SetValue(date time.Time, colName string, val float64) {
	colIdx := df.ColIndex(colName)
	if colIdx == -1 {
		colIdx = len(df.ColNames)
		df.ColNames = append(df.ColNames, colName)
		blank := make([]float64, df.Len())
		for idx := range blank {
			blank[idx] = math.NaN()
		}
		df.Vals = append(df.Vals, blank)
	}

	rowIdx := df.RowIndex(date)
	if rowIdx == -1 {
		rowIdx = df.insertRow(date)
	}

	df.Vals[colIdx][rowIdx] = val
}

// insertRow adds a NaN-filled row for date preserving sort order and returns
// its index
func (df *DataFrame) insertRow(date time.Time) int {
	idx := sort.Search(len(df.Dates), func(i int) bool {
		return !df.Dates[i].Before(date)
	})

	df.Dates = append(df.Dates, time.Time{})
	copy(df.Dates[idx+1:], df.Dates[idx:])
	df.Dates[idx] = date

	for colIdx := range df.Vals {
		df.Vals[colIdx] = append(df.Vals[colIdx], math.NaN())
		copy(df.Vals[colIdx][idx+1:], df.Vals[colIdx][idx:])
		df.Vals[colIdx][idx] = math.NaN()
	}

	return idx
}

// Merge combines other into df. Columns and dates are unioned; where both
// frames hold a value for the same (date, column) cell the value from other
// wins.
func (df *DataFrame) Merge(other *DataFrame) *DataFrame {
	res := df.Copy()
	for otherColIdx, colName := range other.ColNames {
		for otherRowIdx, date := range other.Dates {
			val := other.Vals[otherColIdx][otherRowIdx]
			if math.IsNaN(val) {
				// don't clobber existing values with NaN
				if res.ColIndex(colName) == -1 || res.RowIndex(date) == -1 {
					res.SetValue(date, colName, val)
				}
				continue
			}
			res.SetValue(date, colName, val)
		}
	}
	return res
}

// Before returns a copy of the dataframe filtered to rows on or before date
func (df *DataFrame) Before(date time.Time) *DataFrame {
	idx := sort.Search(len(df.Dates), func(i int) bool {
		return df.Dates[i].After(date)
	})

	res := &DataFrame{
		Dates:    df.Dates[:idx],
		ColNames: df.ColNames,
		Vals:     make([][]float64, len(df.Vals)),
	}
	for colIdx := range df.Vals {
		res.Vals[colIdx] = df.Vals[colIdx][:idx]
	}
	return res
}

// After returns a copy of the dataframe filtered to rows strictly after date
func (df *DataFrame) After(date time.Time) *DataFrame {
	idx := sort.Search(len(df.Dates), func(i int) bool {
		return df.Dates[i].After(date)
	})

	res := &DataFrame{
		Dates:    df.Dates[idx:],
		ColNames: df.ColNames,
		Vals:     make([][]float64, len(df.Vals)),
	}
	for colIdx := range df.Vals {
		res.Vals[colIdx] = df.Vals[colIdx][idx:]
	}
	return res
}

// Round rounds every value in the dataframe to the given number of decimal
// places
func (df *DataFrame) Round(places int) *DataFrame {
	shift := math.Pow(10, float64(places))
	for colIdx := range df.Vals {
		for rowIdx, val := range df.Vals[colIdx] {
			if !math.IsNaN(val) {
				df.Vals[colIdx][rowIdx] = math.Round(val*shift) / shift
			}
		}
	}
	return df
}

// Reindex conforms the dataframe onto a new date index. Dates present in the
// new index but missing from df are filled with NaN; dates missing from the
// new index are dropped.
func (df *DataFrame) Reindex(dates []time.Time) *DataFrame {
	res := &DataFrame{
		Dates:    make([]time.Time, len(dates)),
		ColNames: df.ColNames,
		Vals:     make([][]float64, len(df.Vals)),
	}
	copy(res.Dates, dates)

	for colIdx := range df.Vals {
		res.Vals[colIdx] = make([]float64, len(dates))
		for rowIdx, date := range dates {
			oldIdx := df.RowIndex(date)
			if oldIdx == -1 {
				res.Vals[colIdx][rowIdx] = math.NaN()
			} else {
				res.Vals[colIdx][rowIdx] = df.Vals[colIdx][oldIdx]
			}
		}
	}
	return res
}

// ForwardFill replaces NaN cells with the last non-NaN value in the same
// column; leading NaNs are replaced with leading
func (df *DataFrame) ForwardFill(leading float64) *DataFrame {
	for colIdx := range df.Vals {
		last := leading
		for rowIdx, val := range df.Vals[colIdx] {
			if math.IsNaN(val) {
				df.Vals[colIdx][rowIdx] = last
			} else {
				last = val
			}
		}
	}
	return df
}

// Series returns the named column with NaN observations dropped
func (df *DataFrame) Series(colName string) (*Series, error) {
	colIdx := df.ColIndex(colName)
	if colIdx == -1 {
		return nil, ErrColumnNotFound
	}

	series := &Series{
		Name:  colName,
		Dates: make([]time.Time, 0, df.Len()),
		Vals:  make([]float64, 0, df.Len()),
	}

	for rowIdx, val := range df.Vals[colIdx] {
		if !math.IsNaN(val) {
			series.Dates = append(series.Dates, df.Dates[rowIdx])
			series.Vals = append(series.Vals, val)
		}
	}

	return series, nil
}

// String prints the dataframe in a nicely formatted table
func (df *DataFrame) String() string {
	s := &strings.Builder{}

	tableCols := append([]string{"Date"}, df.ColNames...)
	table := tablewriter.NewWriter(s)
	table.SetHeader(tableCols)
	footer := make([]string, len(tableCols))
	footer[0] = "Num Rows"
	if len(footer) > 1 {
		footer[1] = fmt.Sprintf("%d", df.Len())
	}
	table.SetFooter(footer)
	table.SetBorder(false)

	for rowIdx, date := range df.Dates {
		row := make([]string, 0, len(df.Vals)+1)
		row = append(row, date.Format("2006-01-02"))
		for colIdx := range df.Vals {
			row = append(row, fmt.Sprintf("%.2f", df.Vals[colIdx][rowIdx]))
		}
		table.Append(row)
	}

	table.Render()
	return s.String()
}
