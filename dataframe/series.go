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
	"sort"
	"time"
)

// Series is a single named column of valid (non-NaN) observations in
// ascending date order
type Series struct {
	Name  string
	Dates []time.Time
	Vals  []float64
}

// Len returns the number of observations in the series
func (s *Series) Len() int {
	return len(s.Dates)
}

// Last returns the most recent observation; NaN when the series is empty
func (s *Series) Last() (time.Time, float64) {
	if len(s.Dates) == 0 {
		return time.Time{}, math.NaN()
	}
	return s.Dates[len(s.Dates)-1], s.Vals[len(s.Vals)-1]
}

// Prev returns the observation immediately preceding the last one; NaN when
// the series has fewer than two observations
func (s *Series) Prev() (time.Time, float64) {
	if len(s.Dates) < 2 {
		return time.Time{}, math.NaN()
	}
	return s.Dates[len(s.Dates)-2], s.Vals[len(s.Vals)-2]
}

// OnOrBefore returns the most recent observation with date <= target; NaN
// when the series does not extend that far back
func (s *Series) OnOrBefore(target time.Time) (time.Time, float64) {
	idx := sort.Search(len(s.Dates), func(i int) bool {
		return s.Dates[i].After(target)
	})
	if idx == 0 {
		return time.Time{}, math.NaN()
	}
	return s.Dates[idx-1], s.Vals[idx-1]
}

// OnOrAfter returns the earliest observation with date >= target; NaN when no
// such observation exists
func (s *Series) OnOrAfter(target time.Time) (time.Time, float64) {
	idx := sort.Search(len(s.Dates), func(i int) bool {
		return !s.Dates[i].Before(target)
	})
	if idx == len(s.Dates) {
		return time.Time{}, math.NaN()
	}
	return s.Dates[idx], s.Vals[idx]
}
