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

package notify

import (
	"errors"
	"fmt"
	"math"
	"time"

	charts "github.com/vicanso/go-charts/v2"
	"github.com/wrap-vault/wrapnav/dataframe"
)

var ErrNotEnoughPoints = errors.New("not enough data points to chart")

// RenderChart draws the trailing window of the index history as a PNG line
// chart, one line per series, values rebased to 100 at the left edge so
// portfolios and benchmarks share a scale.
func RenderChart(df *dataframe.DataFrame, window time.Duration) ([]byte, error) {
	if df.Len() < 2 {
		return nil, ErrNotEnoughPoints
	}

	cutoff := df.Dates[len(df.Dates)-1].Add(-window)
	trailing := df.After(cutoff)
	if trailing.Len() < 2 {
		trailing = df
	}

	xLabels := make([]string, 0, trailing.Len())
	for _, d := range trailing.Dates {
		xLabels = append(xLabels, d.Format("01/02"))
	}

	rebasedFrame := trailing.Copy()
	values := [][]float64{}
	names := []string{}
	for colIdx, name := range rebasedFrame.ColNames {
		rebased, ok := rebase(rebasedFrame.Vals[colIdx])
		if !ok {
			continue
		}
		rebasedFrame.Vals[colIdx] = rebased
		values = append(values, rebased)
		names = append(names, name)
	}
	if len(values) == 0 {
		return nil, ErrNotEnoughPoints
	}

	yMin, yMax := math.Inf(1), math.Inf(-1)
	for _, name := range names {
		lo, hi := rebasedFrame.MinMax(name)
		if lo < yMin {
			yMin = lo
		}
		if hi > yMax {
			yMax = hi
		}
	}

	pad := (yMax - yMin) * 0.05
	if pad == 0 {
		pad = 1
	}
	yMin -= pad
	yMax += pad

	splitNum := 6
	if len(xLabels) <= 30 {
		splitNum = len(xLabels) / 3
		if splitNum < 3 {
			splitNum = 3
		}
	}

	title := fmt.Sprintf("Wrap NAV • rebased 100 • %s ~ %s",
		trailing.Dates[0].Format("2006-01-02"),
		trailing.Dates[len(trailing.Dates)-1].Format("2006-01-02"))

	painter, err := charts.LineRender(values,
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			BoundaryGap: charts.FalseFlag(),
			SplitNumber: splitNum,
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

// rebase scales a series so its first valid point is 100; ok is false when
// no valid anchor exists
func rebase(vals []float64) ([]float64, bool) {
	var anchor float64
	found := false
	for _, v := range vals {
		if !math.IsNaN(v) && v != 0 {
			anchor = v
			found = true
			break
		}
	}
	if !found {
		return nil, false
	}

	rebased := make([]float64, len(vals))
	for idx, v := range vals {
		if math.IsNaN(v) {
			rebased[idx] = math.NaN()
			continue
		}
		rebased[idx] = v / anchor * 100
	}
	return rebased, true
}
