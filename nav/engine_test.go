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

package nav_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wrap-vault/wrapnav/common"
	"github.com/wrap-vault/wrapnav/data"
	"github.com/wrap-vault/wrapnav/dataframe"
	"github.com/wrap-vault/wrapnav/nav"
)

// fakeProvider serves canned quotes keyed by instrument code
type fakeProvider struct {
	quotes map[string][]*data.Quote
}

func (f *fakeProvider) DataType() string {
	return "security"
}

func (f *fakeProvider) GetQuotes(_ context.Context, code string, begin time.Time) ([]*data.Quote, error) {
	res := []*data.Quote{}
	for _, q := range f.quotes[code] {
		if !q.Date.Before(begin) {
			res = append(res, q)
		}
	}
	return res, nil
}

func kst(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, common.GetTimezone())
}

var _ = Describe("Engine", func() {
	var (
		cfg     *nav.Config
		engine  *nav.Engine
		weights []*nav.WeightEntry
		ctx     context.Context
	)

	newEngine := func(quotes map[string][]*data.Quote) *nav.Engine {
		manager := data.NewManager()
		manager.RegisterDataProvider(&fakeProvider{quotes: quotes})
		return nav.NewEngine(manager)
	}

	BeforeEach(func() {
		ctx = context.Background()
		cfg = &nav.Config{
			Portfolios: map[string]*nav.PortfolioConfig{
				"Growth": {
					Name:        "Growth",
					BasePrice:   1000,
					StartDate:   kst(2025, 12, 30),
					YTDStrategy: nav.YTDCalendar,
				},
			},
			Indexes: map[string]string{},
		}

		weights = []*nav.WeightEntry{
			{Date: kst(2025, 12, 30), Portfolio: "Growth", Code: "000001", WeightPct: 50},
			{Date: kst(2025, 12, 30), Portfolio: "Growth", Code: "000002", WeightPct: 50},
		}

		engine = newEngine(map[string][]*data.Quote{
			"000001": {
				{Date: kst(2025, 12, 31), Close: 102, ChangePct: 2.0},
			},
			"000002": {
				{Date: kst(2025, 12, 31), Close: 99, ChangePct: -1.0},
				{Date: kst(2026, 1, 2), Close: 101.97, ChangePct: 3.0},
			},
		})
	})

	Describe("seeding a new portfolio", func() {
		It("writes the base price at the configured start date and compounds forward", func() {
			res, err := engine.Update(ctx, cfg, dataframe.New(), weights, kst(2026, 1, 2))
			Expect(err).To(BeNil())

			Expect(res.ValueAt(kst(2025, 12, 30), "Growth")).To(Equal(1000.0))
			// 1000 x (1 + (50x2.0 + 50x(-1.0))/100/100)
			Expect(res.ValueAt(kst(2025, 12, 31), "Growth")).To(BeNumerically("~", 1005.00, 0.005))
			// constituent without data contributes zero that day
			// 1005 x (1 + (50x0 + 50x3.0)/100/100)
			Expect(res.ValueAt(kst(2026, 1, 2), "Growth")).To(BeNumerically("~", 1020.08, 0.011))
		})

		It("produces strictly increasing dates covering every calculation date", func() {
			res, err := engine.Update(ctx, cfg, dataframe.New(), weights, kst(2026, 1, 2))
			Expect(err).To(BeNil())

			Expect(res.Dates).To(HaveLen(3))
			for idx := 1; idx < len(res.Dates); idx++ {
				Expect(res.Dates[idx].After(res.Dates[idx-1])).To(BeTrue())
			}
		})

		It("is deterministic", func() {
			res1, err := engine.Update(ctx, cfg, dataframe.New(), weights, kst(2026, 1, 2))
			Expect(err).To(BeNil())
			res2, err := engine.Update(ctx, cfg, dataframe.New(), weights, kst(2026, 1, 2))
			Expect(err).To(BeNil())

			Expect(res2.Dates).To(Equal(res1.Dates))
			Expect(res2.Vals).To(Equal(res1.Vals))
		})
	})

	Describe("updating an existing portfolio", func() {
		It("continues compounding from the last recorded value", func() {
			prior := dataframe.New()
			prior.SetValue(kst(2025, 12, 30), "Growth", 1000)
			prior.SetValue(kst(2025, 12, 31), "Growth", 1005)

			res, err := engine.Update(ctx, cfg, prior, weights, kst(2026, 1, 2))
			Expect(err).To(BeNil())

			Expect(res.ValueAt(kst(2025, 12, 31), "Growth")).To(Equal(1005.0))
			Expect(res.ValueAt(kst(2026, 1, 2), "Growth")).To(BeNumerically("~", 1020.08, 0.011))
		})

		It("reports up to date when the history already reaches the end date", func() {
			prior := dataframe.New()
			prior.SetValue(kst(2025, 12, 30), "Growth", 1000)
			prior.SetValue(kst(2026, 1, 2), "Growth", 1020.08)

			_, err := engine.Update(ctx, cfg, prior, weights, kst(2026, 1, 2))
			Expect(err).To(MatchError(nav.ErrUpToDate))
		})
	})

	Describe("weight handling", func() {
		It("contributes exactly zero for zero-weight constituents", func() {
			weights = []*nav.WeightEntry{
				{Date: kst(2025, 12, 30), Portfolio: "Growth", Code: "000001", WeightPct: 100},
				{Date: kst(2025, 12, 30), Portfolio: "Growth", Code: "000002", WeightPct: 0},
			}
			engine = newEngine(map[string][]*data.Quote{
				"000001": {{Date: kst(2025, 12, 31), ChangePct: 2.0}},
				"000002": {{Date: kst(2025, 12, 31), ChangePct: 50.0}},
			})

			res, err := engine.Update(ctx, cfg, dataframe.New(), weights, kst(2025, 12, 31))
			Expect(err).To(BeNil())
			// only the 100% constituent moves the index
			Expect(res.ValueAt(kst(2025, 12, 31), "Growth")).To(BeNumerically("~", 1020.00, 0.005))
		})

		It("applies yesterday's weights to today's return", func() {
			weights = []*nav.WeightEntry{
				{Date: kst(2025, 12, 30), Portfolio: "Growth", Code: "000001", WeightPct: 100},
				{Date: kst(2025, 12, 30), Portfolio: "Growth", Code: "000002", WeightPct: 0},
				// rebalance dated the calculation day must not apply same-day
				{Date: kst(2025, 12, 31), Portfolio: "Growth", Code: "000001", WeightPct: 0},
				{Date: kst(2025, 12, 31), Portfolio: "Growth", Code: "000002", WeightPct: 100},
			}
			engine = newEngine(map[string][]*data.Quote{
				"000001": {{Date: kst(2025, 12, 31), ChangePct: 2.0}},
				"000002": {{Date: kst(2025, 12, 31), ChangePct: 10.0}},
			})

			res, err := engine.Update(ctx, cfg, dataframe.New(), weights, kst(2025, 12, 31))
			Expect(err).To(BeNil())
			Expect(res.ValueAt(kst(2025, 12, 31), "Growth")).To(BeNumerically("~", 1020.00, 0.005))
		})
	})

	Describe("error conditions", func() {
		It("rejects an empty weight list", func() {
			_, err := engine.Update(ctx, cfg, dataframe.New(), nil, kst(2026, 1, 2))
			Expect(err).To(MatchError(nav.ErrNoWeights))
		})

		It("reports missing provider data", func() {
			engine = newEngine(map[string][]*data.Quote{})
			_, err := engine.Update(ctx, cfg, dataframe.New(), weights, kst(2026, 1, 2))
			Expect(err).To(MatchError(nav.ErrNoProviderData))
		})
	})

	Describe("index series", func() {
		It("joins market index closes on the portfolio date index", func() {
			cfg.Indexes = map[string]string{"KOSPI": "KS11"}
			engine = newEngine(map[string][]*data.Quote{
				"000001": {{Date: kst(2025, 12, 31), ChangePct: 2.0}},
				"000002": {{Date: kst(2025, 12, 31), ChangePct: -1.0}},
				"KS11": {
					{Date: kst(2025, 12, 31), Close: 2501.5},
					// index rows outside the portfolio window are dropped
					{Date: kst(2026, 1, 5), Close: 2600},
				},
			})

			res, err := engine.Update(ctx, cfg, dataframe.New(), weights, kst(2025, 12, 31))
			Expect(err).To(BeNil())
			Expect(res.ValueAt(kst(2025, 12, 31), "KOSPI")).To(Equal(2501.5))
			Expect(res.RowIndex(kst(2026, 1, 5))).To(Equal(-1))
		})
	})
})
