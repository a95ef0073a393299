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

package data_test

import (
	"context"
	"time"

	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wrap-vault/wrapnav/common"
	"github.com/wrap-vault/wrapnav/data"
)

const naverBody = `<?xml version="1.0" encoding="EUC-KR"?>
<protocol>
<chartdata symbol="test" count="3" timeframe="day" precision="0" origintime="20260102">
<item data="20260102|1000|1010|990|1000|15000" />
<item data="20260105|1000|1015|995|1010|18000" />
<item data="20260106|1010|1012|1001|1005|12000" />
</chartdata>
</protocol>`

var _ = Describe("Naver", func() {
	var (
		ctx   context.Context
		naver data.Provider
		begin time.Time
	)

	BeforeEach(func() {
		httpmock.Activate()
		ctx = context.Background()
		naver = data.NewNaver()
		begin = time.Date(2026, time.January, 5, 0, 0, 0, 0, common.GetTimezone())
	})

	AfterEach(func() {
		httpmock.DeactivateAndReset()
	})

	Describe("GetQuotes", func() {
		Context("with a normal daily candle response", func() {
			BeforeEach(func() {
				httpmock.RegisterResponder("GET",
					`=~sise\.nhn\?symbol=005930&`,
					httpmock.NewStringResponder(200, naverBody))
			})

			It("drops the warm-up days before begin", func() {
				quotes, err := naver.GetQuotes(ctx, "005930", begin)
				Expect(err).To(BeNil())
				Expect(quotes).To(HaveLen(2))
				Expect(quotes[0].Date.Year()).To(Equal(2026))
				Expect(quotes[0].Date.Month()).To(Equal(time.January))
				Expect(quotes[0].Date.Day()).To(Equal(5))
			})

			It("derives day-over-day change from closing prices", func() {
				quotes, err := naver.GetQuotes(ctx, "005930", begin)
				Expect(err).To(BeNil())
				Expect(quotes).To(HaveLen(2))

				Expect(quotes[0].Close).To(BeNumerically("~", 1010, 1e-9))
				Expect(quotes[0].ChangePct).To(BeNumerically("~", 1.0, 1e-9))

				Expect(quotes[1].Close).To(BeNumerically("~", 1005, 1e-9))
				Expect(quotes[1].ChangePct).To(BeNumerically("~", (1005.0-1010.0)/1010.0*100, 1e-9))
			})

			It("serves repeated requests from the cache", func() {
				_, err := naver.GetQuotes(ctx, "005930", begin)
				Expect(err).To(BeNil())
				firstCount := httpmock.GetTotalCallCount()

				quotes, err := naver.GetQuotes(ctx, "005930", begin)
				Expect(err).To(BeNil())
				Expect(quotes).To(HaveLen(2))
				Expect(httpmock.GetTotalCallCount()).To(Equal(firstCount))
			})
		})

		Context("with an index short code", func() {
			It("translates KS11 to the KOSPI fchart symbol", func() {
				httpmock.RegisterResponder("GET",
					`=~sise\.nhn\?symbol=KOSPI&`,
					httpmock.NewStringResponder(200, naverBody))

				quotes, err := naver.GetQuotes(ctx, "KS11", begin)
				Expect(err).To(BeNil())
				Expect(quotes).To(HaveLen(2))
			})
		})

		Context("when the endpoint returns an error status", func() {
			It("returns ErrProviderResponse", func() {
				httpmock.RegisterResponder("GET",
					`=~sise\.nhn\?symbol=999990&`,
					httpmock.NewStringResponder(500, "internal error"))

				_, err := naver.GetQuotes(ctx, "999990", begin)
				Expect(err).To(MatchError(data.ErrProviderResponse))
			})
		})

		Context("when the code is unknown", func() {
			It("returns no quotes and no error", func() {
				httpmock.RegisterResponder("GET",
					`=~sise\.nhn\?symbol=000001&`,
					httpmock.NewStringResponder(200, `<?xml version="1.0" encoding="EUC-KR"?><protocol></protocol>`))

				quotes, err := naver.GetQuotes(ctx, "000001", begin)
				Expect(err).To(BeNil())
				Expect(quotes).To(BeEmpty())
			})
		})
	})
})
