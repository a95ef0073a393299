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
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wrap-vault/wrapnav/data"
	"github.com/wrap-vault/wrapnav/dataframe"
	"github.com/wrap-vault/wrapnav/observability/opentelemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrUpToDate       = errors.New("price history is already current")
	ErrNoProviderData = errors.New("no market data available for the calculation period")
	ErrNoWeights      = errors.New("no weight entries loaded")
)

// Engine extends portfolio price series forward by compounding daily weighted
// constituent returns
type Engine struct {
	manager *data.Manager
}

// NewEngine creates a compounding engine backed by the given data manager
func NewEngine(manager *data.Manager) *Engine {
	return &Engine{manager: manager}
}

// Update walks every configured portfolio forward from its last recorded
// index value through end and returns the merged price frame (prior history
// plus newly compounded values, market index closes joined in). The input
// frames are not modified; on error nothing is written anywhere.
//
// Returns ErrUpToDate when there is nothing to compute and ErrNoProviderData
// when the market-data provider had no data at all for the period.
func (e *Engine) Update(ctx context.Context, cfg *Config, prior *dataframe.DataFrame, weights []*WeightEntry, end time.Time) (*dataframe.DataFrame, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "nav.Update")
	defer span.End()

	if len(weights) == 0 {
		return nil, ErrNoWeights
	}

	isUpdate := prior.Len() > 0

	var startDate time.Time
	if isUpdate {
		startDate = prior.Dates[prior.Len()-1]
	} else {
		startDate = cfg.EarliestStart()
	}

	// a portfolio with no prior recorded value restarts from its own
	// configured start date; other portfolios are unaffected
	newPortfolios := []string{}
	for name := range cfg.Portfolios {
		if e.isNewPortfolio(prior, name) {
			newPortfolios = append(newPortfolios, name)
		}
	}
	sort.Strings(newPortfolios)

	if !startDate.Before(end) && len(newPortfolios) == 0 {
		return nil, ErrUpToDate
	}

	fetchStart := startDate
	for _, name := range newPortfolios {
		if pfStart := cfg.Portfolios[name].StartDate; pfStart.Before(fetchStart) {
			fetchStart = pfStart
		}
	}

	log.Info().Time("FetchStart", fetchStart).Time("End", end).Strs("NewPortfolios", newPortfolios).Msg("collecting constituent returns")

	codeMap := make(map[string]string)
	for _, code := range Codes(weights) {
		codeMap[code] = code
	}

	changes := e.manager.GetMetricFrame(ctx, codeMap, data.MetricChangePct, fetchStart)
	indices := e.manager.GetMetricFrame(ctx, cfg.Indexes, data.MetricClose, fetchStart)

	if changes.Len() == 0 && indices.Len() == 0 {
		span.SetStatus(codes.Error, "no provider data")
		return nil, ErrNoProviderData
	}

	// a constituent with no quote on a given day contributes zero change
	// for that day only
	fillNA(changes, 0)
	changes = changes.Before(end)
	indices = indices.Before(end)

	calcDates := afterDates(changes.Dates, startDate)
	if len(calcDates) == 0 && len(newPortfolios) == 0 {
		return nil, ErrUpToDate
	}

	result := dataframe.New()

	names := make([]string, 0, len(cfg.Portfolios))
	for name := range cfg.Portfolios {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		pf := cfg.Portfolios[name]
		if !hasEntries(weights, name) {
			log.Warn().Str("Portfolio", name).Msg("no weight entries for portfolio; skipping")
			continue
		}

		isNew := e.isNewPortfolio(prior, name)

		var pfCalcDates []time.Time
		currentIndex := pf.BasePrice
		if isNew {
			pfCalcDates = afterDates(changes.Dates, pf.StartDate)
		} else {
			pfCalcDates = calcDates
			if series, err := prior.Series(name); err == nil {
				if _, last := series.Last(); !math.IsNaN(last) {
					currentIndex = last
				}
			}
		}

		table := BuildWeightTable(weights, name, pfCalcDates)

		// brand-new series begin with an explicit seed point at T=0
		if isNew {
			result.SetValue(pf.StartDate, name, pf.BasePrice)
		}

		for _, d := range pfCalcDates {
			portReturn := dailyReturn(table, changes, d)
			currentIndex = currentIndex * (1 + portReturn)
			result.SetValue(d, name, currentIndex)
		}

		log.Info().Str("Portfolio", name).Bool("New", isNew).Int("Days", len(pfCalcDates)).Float64("IndexValue", currentIndex).Msg("compounded portfolio")
	}

	if result.Len() == 0 {
		return nil, ErrUpToDate
	}

	// market index closes ride along on the portfolio date index
	result = result.Merge(indices.Reindex(result.Dates))

	merged := prior.Merge(result).Round(2)
	return merged, nil
}

// dailyReturn computes the weighted portfolio return for one calculation
// date as a fraction (0.01 == +1%). Weights are percentages and constituent
// changes are daily percentage moves, so the weighted sum is scaled by
// 100 twice.
func dailyReturn(table *WeightTable, changes *dataframe.DataFrame, d time.Time) float64 {
	weights, ok := table.EffectiveWeights(d)
	if !ok {
		return 0
	}

	sum := 0.0
	overlap := false
	for code, weight := range weights {
		chg := changes.ValueAt(d, code)
		if math.IsNaN(chg) {
			continue
		}
		overlap = true
		sum += weight * chg
	}

	if !overlap {
		return 0
	}

	return sum / 100 / 100
}

// isNewPortfolio reports whether the portfolio has no valid observation in
// the prior frame
func (e *Engine) isNewPortfolio(prior *dataframe.DataFrame, name string) bool {
	series, err := prior.Series(name)
	if err != nil {
		return true
	}
	return series.Len() == 0
}

func hasEntries(weights []*WeightEntry, portfolio string) bool {
	for _, entry := range weights {
		if entry.Portfolio == portfolio {
			return true
		}
	}
	return false
}

// afterDates returns the subset of dates strictly after cutoff
func afterDates(dates []time.Time, cutoff time.Time) []time.Time {
	idx := sort.Search(len(dates), func(i int) bool {
		return dates[i].After(cutoff)
	})
	res := make([]time.Time, len(dates)-idx)
	copy(res, dates[idx:])
	return res
}

// fillNA replaces NaN cells with the given value in place
func fillNA(df *dataframe.DataFrame, val float64) {
	for colIdx := range df.Vals {
		for rowIdx, v := range df.Vals[colIdx] {
			if math.IsNaN(v) {
				df.Vals[colIdx][rowIdx] = val
			}
		}
	}
}
