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

package store

import (
	"sort"

	"github.com/wrap-vault/wrapnav/returns"
)

// ReturnsTable is the persisted snapshot history: one row per as-of date,
// one column per series/horizon pair plus the leading date column. Cells are
// kept as their formatted strings so reparsing a workbook never loses the
// original rendering.
type ReturnsTable struct {
	Header []string
	Rows   [][]string
}

func NewReturnsTable() *ReturnsTable {
	return &ReturnsTable{Header: []string{colDate}}
}

// Upsert folds a snapshot into the table. An existing row for the same
// as-of date is replaced wholesale, so re-running a day is idempotent. New
// series/horizon columns are appended to the header and older rows padded
// with blanks.
func (t *ReturnsTable) Upsert(snap *returns.Snapshot) {
	if len(t.Header) == 0 {
		t.Header = []string{colDate}
	}

	colIdx := map[string]int{}
	for idx, name := range t.Header {
		colIdx[name] = idx
	}

	for _, series := range snap.Series {
		for _, horizon := range returns.Horizons {
			key := returns.CellKey(series, horizon)
			if _, ok := colIdx[key]; !ok {
				colIdx[key] = len(t.Header)
				t.Header = append(t.Header, key)
			}
		}
	}

	for idx := range t.Rows {
		for len(t.Rows[idx]) < len(t.Header) {
			t.Rows[idx] = append(t.Rows[idx], "")
		}
	}

	dateStr := snap.AsOf.Format("2006-01-02")
	row := make([]string, len(t.Header))
	row[0] = dateStr
	for key, val := range snap.Values {
		if idx, ok := colIdx[key]; ok {
			row[idx] = returns.FormatPct(val)
		}
	}

	replaced := false
	for idx := range t.Rows {
		if t.Rows[idx][0] == dateStr {
			t.Rows[idx] = row
			replaced = true
		}
	}
	if !replaced {
		t.Rows = append(t.Rows, row)
	}

	sort.SliceStable(t.Rows, func(i, j int) bool {
		return t.Rows[i][0] < t.Rows[j][0]
	})
}

// Latest returns the most recent row as a column name to cell map, or nil
// when the table is empty.
func (t *ReturnsTable) Latest() map[string]string {
	if len(t.Rows) == 0 {
		return nil
	}
	row := t.Rows[len(t.Rows)-1]
	latest := map[string]string{}
	for idx, name := range t.Header {
		if idx < len(row) {
			latest[name] = row[idx]
		}
	}
	return latest
}
