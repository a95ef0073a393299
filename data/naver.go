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

package data

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/wrap-vault/wrapnav/common"
	"github.com/wrap-vault/wrapnav/observability/opentelemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// naver retrieves daily candles from the fchart endpoint. The endpoint
// returns an XML document with one <item> element per trading day; the data
// attribute is date|open|high|low|close|volume.
type naver struct {
	client    *http.Client
	userAgent string
}

var naverAPI = "https://fchart.stock.naver.com"

var naverItemRe = regexp.MustCompile(`<item data="(\d+)\|([\d.]+)\|([\d.]+)\|([\d.]+)\|([\d.]+)\|(\d*)"`)

// index symbols use names on fchart rather than the short codes the weight
// sheet carries
var naverSymbolMap = map[string]string{
	"KS11": "KOSPI",
	"KQ11": "KOSDAQ",
}

// NewNaver creates a new Naver finance data provider
func NewNaver() *naver {
	return &naver{
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
	}
}

func (n *naver) DataType() string {
	return "security"
}

// GetQuotes returns daily quotes for code beginning at begin through the most
// recent trading day. The day-over-day percentage change is derived from
// closing prices; an extra two weeks of history before begin is requested so
// the first requested day has a valid change.
func (n *naver) GetQuotes(ctx context.Context, code string, begin time.Time) ([]*Quote, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "naver.GetQuotes")
	defer span.End()

	subLog := log.With().Str("Code", code).Time("Begin", begin).Logger()

	symbol := code
	if mapped, ok := naverSymbolMap[code]; ok {
		symbol = mapped
	}

	fetchBegin := begin.AddDate(0, 0, -14)
	now := time.Now().In(common.GetTimezone())
	count := int(now.Sub(fetchBegin).Hours()/24) + 2

	cacheKey := fmt.Sprintf("naver:%s:%s:%s", symbol, fetchBegin.Format("20060102"), now.Format("20060102"))
	if body, err := common.CacheGet(cacheKey); err == nil && len(body) > 0 {
		quotes := []*Quote{}
		if err := json.Unmarshal(body, &quotes); err == nil {
			return filterQuotes(quotes, begin), nil
		}
	}

	url := fmt.Sprintf("%s/sise.nhn?symbol=%s&timeframe=day&count=%d&requestType=0&startTime=%s&endTime=%s",
		naverAPI, symbol, count, fetchBegin.Format("20060102"), now.Format("20060102"))

	span.SetAttributes(
		attribute.KeyValue{
			Key:   "Url",
			Value: attribute.StringValue(url),
		},
		attribute.KeyValue{
			Key:   "Symbol",
			Value: attribute.StringValue(symbol),
		},
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		span.RecordError(err)
		msg := "naver http request failed"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Err(err).Msg(msg)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		span.SetAttributes(attribute.KeyValue{
			Key:   "StatusCode",
			Value: attribute.IntValue(resp.StatusCode),
		})
		msg := "naver returned invalid response code"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Int("HTTPResponseStatusCode", resp.StatusCode).Msg(msg)
		return nil, fmt.Errorf("%w: status code %d", ErrProviderResponse, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		msg := "could not read naver body"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Err(err).Msg(msg)
		return nil, err
	}

	quotes := parseNaverCandles(body)

	if cacheVal, err := json.Marshal(quotes); err == nil {
		if err := common.CacheSet(cacheKey, cacheVal); err != nil {
			subLog.Warn().Err(err).Msg("could not cache naver response")
		}
	}

	return filterQuotes(quotes, begin), nil
}

// parseNaverCandles extracts daily quotes from the fchart XML body and
// computes day-over-day percentage changes. Unknown codes yield an empty
// document, which parses to an empty quote list.
func parseNaverCandles(body []byte) []*Quote {
	matches := naverItemRe.FindAllStringSubmatch(string(body), -1)
	tz := common.GetTimezone()

	quotes := make([]*Quote, 0, len(matches))
	prevClose := 0.0
	for _, m := range matches {
		if len(m) < 7 {
			continue
		}

		tradeDate, err := time.ParseInLocation("20060102", m[1], tz)
		if err != nil {
			continue
		}

		closePrice, err := strconv.ParseFloat(m[5], 64)
		if err != nil {
			continue
		}

		quote := &Quote{
			Date:  tradeDate,
			Close: closePrice,
		}
		if prevClose != 0 {
			quote.ChangePct = (closePrice - prevClose) / prevClose * 100
		}
		prevClose = closePrice

		quotes = append(quotes, quote)
	}

	return quotes
}

// filterQuotes drops the warm-up quotes requested before begin
func filterQuotes(quotes []*Quote, begin time.Time) []*Quote {
	res := make([]*Quote, 0, len(quotes))
	for _, quote := range quotes {
		if !quote.Date.Before(begin) {
			res = append(res, quote)
		}
	}
	return res
}
