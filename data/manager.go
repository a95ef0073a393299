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
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wrap-vault/wrapnav/dataframe"
)

// Manager coordinates quote retrieval across providers and fans independent
// per-instrument requests out to goroutines
type Manager struct {
	providers map[string]Provider
}

// NewManager creates a data manager with the default provider set
func NewManager() *Manager {
	m := &Manager{
		providers: map[string]Provider{},
	}
	m.RegisterDataProvider(NewNaver())
	return m
}

// RegisterDataProvider adds a data provider to the system
func (m *Manager) RegisterDataProvider(p Provider) {
	m.providers[p.DataType()] = p
}

// GetQuotes retrieves quotes for a single instrument code
func (m *Manager) GetQuotes(ctx context.Context, code string, begin time.Time) ([]*Quote, error) {
	provider, ok := m.providers["security"]
	if !ok {
		return nil, ErrUnsupportedKind
	}
	return provider.GetQuotes(ctx, code, begin)
}

type quoteResult struct {
	Name   string
	Quotes []*Quote
	Err    error
}

// GetMetricFrame downloads quotes for every entry of codes simultaneously and
// assembles the requested metric into one dataframe with a column per map
// key. Instruments that fail or return no data are omitted from the frame.
func (m *Manager) GetMetricFrame(ctx context.Context, codes map[string]string, metric string, begin time.Time) *dataframe.DataFrame {
	ch := make(chan quoteResult)
	for name, code := range codes {
		go m.downloadWorker(ctx, ch, name, code, begin)
	}

	res := dataframe.New()
	for range codes {
		v := <-ch
		if v.Err != nil {
			log.Warn().Str("Series", v.Name).Err(v.Err).Msg("cannot download quotes")
			continue
		}
		if len(v.Quotes) == 0 {
			log.Info().Str("Series", v.Name).Msg("provider returned no quotes")
			continue
		}
		res = res.Merge(QuoteFrame(v.Quotes, v.Name, metric))
	}

	return res
}

func (m *Manager) downloadWorker(ctx context.Context, result chan<- quoteResult, name string, code string, begin time.Time) {
	quotes, err := m.GetQuotes(ctx, code, begin)
	result <- quoteResult{
		Name:   name,
		Quotes: quotes,
		Err:    err,
	}
}
