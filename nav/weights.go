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

package nav

import (
	"sort"
	"time"

	"github.com/wrap-vault/wrapnav/dataframe"
)

// WeightEntry is the target allocation of one constituent within one
// portfolio as of one effective date. Entries are immutable inputs; an entry
// stays effective until a later entry for the same constituent supersedes it.
type WeightEntry struct {
	Date      time.Time
	Portfolio string
	Code      string
	Label     string
	WeightPct float64
}

// WeightTable is the (date x constituent code) weight matrix of a single
// portfolio, forward-filled over the calculation window
type WeightTable struct {
	frame *dataframe.DataFrame
}

// BuildWeightTable pivots the entries of one portfolio into a weight matrix.
// The date index is the union of the entry effective dates and calcDates;
// gaps are forward-filled and leading gaps become zero (constituent not yet
// held).
func BuildWeightTable(entries []*WeightEntry, portfolio string, calcDates []time.Time) *WeightTable {
	pivot := dataframe.New()
	dateSet := make(map[time.Time]bool)

	for _, entry := range entries {
		if entry.Portfolio != portfolio {
			continue
		}
		pivot.SetValue(entry.Date, entry.Code, entry.WeightPct)
		dateSet[entry.Date] = true
	}

	for _, d := range calcDates {
		dateSet[d] = true
	}

	fullIdx := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		fullIdx = append(fullIdx, d)
	}
	sort.Slice(fullIdx, func(i, j int) bool { return fullIdx[i].Before(fullIdx[j]) })

	pivot = pivot.Reindex(fullIdx).ForwardFill(0)

	return &WeightTable{frame: pivot}
}

// Codes returns the distinct constituent codes across all entries
func Codes(entries []*WeightEntry) []string {
	seen := make(map[string]bool)
	codes := []string{}
	for _, entry := range entries {
		if !seen[entry.Code] {
			seen[entry.Code] = true
			codes = append(codes, entry.Code)
		}
	}
	sort.Strings(codes)
	return codes
}

// Portfolios returns the distinct portfolio names across all entries
func Portfolios(entries []*WeightEntry) []string {
	seen := make(map[string]bool)
	names := []string{}
	for _, entry := range entries {
		if !seen[entry.Portfolio] {
			seen[entry.Portfolio] = true
			names = append(names, entry.Portfolio)
		}
	}
	sort.Strings(names)
	return names
}

// Len returns the number of rows in the weight matrix
func (wt *WeightTable) Len() int {
	return wt.frame.Len()
}

// EffectiveWeights returns the weight vector at the latest date strictly
// before d. Settlement lags one day, so yesterday's close weights apply to
// today's return -- never same-day. ok is false when no weight row predates
// d.
func (wt *WeightTable) EffectiveWeights(d time.Time) (map[string]float64, bool) {
	idx := sort.Search(len(wt.frame.Dates), func(i int) bool {
		return !wt.frame.Dates[i].Before(d)
	})
	if idx == 0 {
		return nil, false
	}

	effIdx := idx - 1
	weights := make(map[string]float64, wt.frame.ColCount())
	for colIdx, code := range wt.frame.ColNames {
		weights[code] = wt.frame.Vals[colIdx][effIdx]
	}
	return weights, true
}
