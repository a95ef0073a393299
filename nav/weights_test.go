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
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wrap-vault/wrapnav/nav"
)

var _ = Describe("WeightTable", func() {
	var entries []*nav.WeightEntry

	BeforeEach(func() {
		entries = []*nav.WeightEntry{
			{Date: kst(2025, 12, 30), Portfolio: "Growth", Code: "000001", WeightPct: 60},
			{Date: kst(2025, 12, 30), Portfolio: "Growth", Code: "000002", WeightPct: 40},
			{Date: kst(2026, 1, 2), Portfolio: "Growth", Code: "000001", WeightPct: 30},
			{Date: kst(2026, 1, 2), Portfolio: "Growth", Code: "000002", WeightPct: 70},
			{Date: kst(2025, 12, 30), Portfolio: "Stable", Code: "000003", WeightPct: 100},
		}
	})

	It("collects distinct codes and portfolios", func() {
		Expect(nav.Codes(entries)).To(Equal([]string{"000001", "000002", "000003"}))
		Expect(nav.Portfolios(entries)).To(Equal([]string{"Growth", "Stable"}))
	})

	Describe("EffectiveWeights", func() {
		var table *nav.WeightTable

		BeforeEach(func() {
			calcDates := []time.Time{
				kst(2025, 12, 31),
				kst(2026, 1, 2),
				kst(2026, 1, 5),
			}
			table = nav.BuildWeightTable(entries, "Growth", calcDates)
		})

		It("excludes entries from other portfolios", func() {
			weights, ok := table.EffectiveWeights(kst(2025, 12, 31))
			Expect(ok).To(BeTrue())
			Expect(weights).NotTo(HaveKey("000003"))
		})

		It("uses the latest weights strictly before the calculation date", func() {
			weights, ok := table.EffectiveWeights(kst(2025, 12, 31))
			Expect(ok).To(BeTrue())
			Expect(weights["000001"]).To(Equal(60.0))
			Expect(weights["000002"]).To(Equal(40.0))
		})

		It("excludes a rebalance dated the calculation day itself", func() {
			weights, ok := table.EffectiveWeights(kst(2026, 1, 2))
			Expect(ok).To(BeTrue())
			Expect(weights["000001"]).To(Equal(60.0))
		})

		It("applies a rebalance from the following day", func() {
			weights, ok := table.EffectiveWeights(kst(2026, 1, 5))
			Expect(ok).To(BeTrue())
			Expect(weights["000001"]).To(Equal(30.0))
			Expect(weights["000002"]).To(Equal(70.0))
		})

		It("reports no weights before the first entry", func() {
			_, ok := table.EffectiveWeights(kst(2025, 12, 30))
			Expect(ok).To(BeFalse())
		})
	})
})
