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
	"errors"
	"time"

	"github.com/wrap-vault/wrapnav/dataframe"
)

// Quote is one daily observation for an instrument. ChangePct is the
// single-day percentage change of the closing price (e.g. 1.5 for +1.5%).
type Quote struct {
	Date      time.Time
	Close     float64
	ChangePct float64
}

// Provider retrieves daily quotes for an instrument. An empty result for an
// unknown or de-listed code is not an error.
type Provider interface {
	DataType() string
	GetQuotes(ctx context.Context, code string, begin time.Time) ([]*Quote, error)
}

const (
	MetricClose     = "Close"
	MetricChangePct = "ChangePct"
)

var (
	ErrProviderResponse = errors.New("provider returned invalid response")
	ErrUnsupportedKind  = errors.New("specified kind is not supported")
)

// QuoteFrame converts a quote list into a single-column dataframe holding the
// requested metric
func QuoteFrame(quotes []*Quote, colName string, metric string) *dataframe.DataFrame {
	df := dataframe.New(colName)
	for _, quote := range quotes {
		switch metric {
		case MetricChangePct:
			df.SetValue(quote.Date, colName, quote.ChangePct)
		default:
			df.SetValue(quote.Date, colName, quote.Close)
		}
	}
	return df
}
