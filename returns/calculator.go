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

package returns

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wrap-vault/wrapnav/dataframe"
	"github.com/wrap-vault/wrapnav/nav"
)

// Horizon identifies one trailing return window
type Horizon string

const (
	OneDay     Horizon = "1D"
	OneWeek    Horizon = "1W"
	OneMonth   Horizon = "1M"
	ThreeMonth Horizon = "3M"
	SixMonth   Horizon = "6M"
	OneYear    Horizon = "1Y"
	YearToDate Horizon = "YTD"
)

// Horizons lists every tracked window in presentation order
var Horizons = []Horizon{OneDay, OneWeek, OneMonth, ThreeMonth, SixMonth, OneYear, YearToDate}

var (
	ErrEmptyFrame = errors.New("price frame holds no valid observations")
)

// Snapshot is the trailing return of every tracked series over every horizon
// as of one reference date. A NaN cell means insufficient history -- that is
// expected, not an error.
type Snapshot struct {
	AsOf time.Time

	// Series preserves the column order of the source frame
	Series []string

	// Values is keyed by "{series}_{horizon}"
	Values map[string]float64
}

// Calculator computes return snapshots from a completed price frame
type Calculator struct {
	cfg *nav.Config
}

// NewCalculator creates a return window calculator using cfg for per-series
// YTD policy
func NewCalculator(cfg *nav.Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Snapshot computes the trailing returns of every column in frame. The
// reference date is the most common last-valid date across columns rather
// than the maximum so a single stale or early-updated series cannot move the
// whole snapshot.
func (c *Calculator) Snapshot(frame *dataframe.DataFrame) (*Snapshot, error) {
	asOf, ok := modeLatestDate(frame)
	if !ok {
		return nil, ErrEmptyFrame
	}

	snap := &Snapshot{
		AsOf:   asOf,
		Series: append([]string{}, frame.ColNames...),
		Values: make(map[string]float64, len(frame.ColNames)*len(Horizons)),
	}

	for _, name := range frame.ColNames {
		series, err := frame.Series(name)
		if err != nil || series.Len() == 0 {
			for _, horizon := range Horizons {
				snap.Values[CellKey(name, horizon)] = math.NaN()
			}
			continue
		}

		latest, current := series.Last()
		log.Debug().Str("Series", name).Time("Latest", latest).Float64("Value", current).Msg("computing trailing returns")

		for _, horizon := range Horizons {
			snap.Values[CellKey(name, horizon)] = c.horizonReturn(series, name, latest, current, horizon)
		}
	}

	return snap, nil
}

// horizonReturn computes one cell of the snapshot; NaN when the series does
// not reach back to the horizon's target date
func (c *Calculator) horizonReturn(series *dataframe.Series, name string, latest time.Time, current float64, horizon Horizon) float64 {
	var past float64

	switch horizon {
	case OneDay:
		// previous observation regardless of calendar gap
		_, past = series.Prev()
	case OneWeek:
		_, past = series.OnOrBefore(latest.AddDate(0, 0, -7))
	case OneMonth:
		_, past = series.OnOrBefore(latest.AddDate(0, -1, 0))
	case ThreeMonth:
		_, past = series.OnOrBefore(latest.AddDate(0, -3, 0))
	case SixMonth:
		_, past = series.OnOrBefore(latest.AddDate(0, -6, 0))
	case OneYear:
		_, past = series.OnOrBefore(latest.AddDate(-1, 0, 0))
	case YearToDate:
		past = c.ytdBase(series, name, latest)
	}

	return pctChange(current, past)
}

// ytdBase resolves the year-to-date base value for a series using its
// configured strategy
func (c *Calculator) ytdBase(series *dataframe.Series, name string, latest time.Time) float64 {
	strategy, baseDate := c.cfg.YTDPolicy(name)

	if strategy == nav.YTDFixed {
		_, past := series.OnOrBefore(baseDate)
		return past
	}

	janFirst := time.Date(latest.Year(), time.January, 1, 0, 0, 0, 0, latest.Location())
	_, past := series.OnOrAfter(janFirst)
	return past
}

// pctChange computes the percentage change; NaN when the base is zero or
// either value is missing
func pctChange(current float64, past float64) float64 {
	if math.IsNaN(past) || past == 0 || math.IsNaN(current) {
		return math.NaN()
	}
	return (current - past) / past * 100
}

// modeLatestDate picks the most common last-valid date across the frame's
// columns; on a tie the more recent date wins
func modeLatestDate(frame *dataframe.DataFrame) (time.Time, bool) {
	counts := make(map[time.Time]int)
	for _, name := range frame.ColNames {
		series, err := frame.Series(name)
		if err != nil || series.Len() == 0 {
			continue
		}
		latest, _ := series.Last()
		counts[latest]++
	}

	var best time.Time
	bestCount := 0
	for date, count := range counts {
		if count > bestCount || (count == bestCount && date.After(best)) {
			best = date
			bestCount = count
		}
	}

	return best, bestCount > 0
}

// CellKey names a snapshot cell the way the returns sheet names its columns
func CellKey(series string, horizon Horizon) string {
	return fmt.Sprintf("%s_%s", series, horizon)
}

// FormatPct renders a return cell with one decimal place and a percent
// suffix; the empty string represents null
func FormatPct(val float64) string {
	if math.IsNaN(val) {
		return ""
	}
	return fmt.Sprintf("%.1f%%", val)
}
