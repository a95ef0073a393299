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
	"math"

	"gonum.org/v1/gonum/floats"
)

// MinMax returns the smallest and largest valid values of the named column.
// NaN observations are skipped; both results are NaN when the column is empty
// or missing.
func (df *DataFrame) MinMax(colName string) (float64, float64) {
	colIdx := df.ColIndex(colName)
	if colIdx == -1 {
		return math.NaN(), math.NaN()
	}

	valid := make([]float64, 0, len(df.Vals[colIdx]))
	for _, val := range df.Vals[colIdx] {
		if !math.IsNaN(val) {
			valid = append(valid, val)
		}
	}

	if len(valid) == 0 {
		return math.NaN(), math.NaN()
	}

	return floats.Min(valid), floats.Max(valid)
}

// PctChange computes the percent change between successive valid observations
// of each column and returns a new dataframe; the first row of each column is
// NaN
func (df *DataFrame) PctChange() *DataFrame {
	res := df.Copy()
	for colIdx := range res.Vals {
		prev := math.NaN()
		for rowIdx, val := range df.Vals[colIdx] {
			if math.IsNaN(val) {
				res.Vals[colIdx][rowIdx] = math.NaN()
				continue
			}
			if math.IsNaN(prev) || prev == 0 {
				res.Vals[colIdx][rowIdx] = math.NaN()
			} else {
				res.Vals[colIdx][rowIdx] = (val - prev) / prev
			}
			prev = val
		}
	}
	return res
}
