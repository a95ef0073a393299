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
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/wrap-vault/wrapnav/common"
)

// YTD base-date strategies. Fixed uses the configured ytd_base_date;
// Calendar uses the first observation on or after January 1 of the as-of
// year. Both appear in practice and neither is universally right, so the
// choice is per-portfolio configuration.
const (
	YTDFixed    = "fixed"
	YTDCalendar = "calendar"
)

var (
	ErrNoPortfolios  = errors.New("no portfolios configured")
	ErrBadStartDate  = errors.New("could not parse portfolio start_date")
	ErrBadYTDConfig  = errors.New("invalid ytd strategy")
	ErrBadBasePrice  = errors.New("base_price must be a positive value")
	ErrUnknownSeries = errors.New("series not present in configuration")
)

// PortfolioConfig holds the launch parameters of one wrap product
type PortfolioConfig struct {
	Name        string
	BasePrice   float64
	StartDate   time.Time
	YTDStrategy string
	YTDBaseDate time.Time
}

// Config is the explicit run context for a NAV calculation: every tracked
// portfolio plus the market indices carried alongside them
type Config struct {
	Portfolios map[string]*PortfolioConfig

	// Indexes maps display name (column name) to provider code,
	// e.g. KOSPI -> KS11
	Indexes map[string]string

	// per-index YTD policy; portfolios carry theirs in PortfolioConfig
	indexYTD map[string]ytdPolicy
}

type ytdPolicy struct {
	strategy string
	baseDate time.Time
}

// YTDPolicy returns the YTD strategy and fixed base date configured for the
// named series; series without explicit configuration use the calendar
// strategy
func (cfg *Config) YTDPolicy(series string) (string, time.Time) {
	if pf, ok := cfg.Portfolios[series]; ok {
		return pf.YTDStrategy, pf.YTDBaseDate
	}
	if policy, ok := cfg.indexYTD[series]; ok {
		return policy.strategy, policy.baseDate
	}
	return YTDCalendar, time.Time{}
}

// ConfigFromViper builds the run configuration from the [portfolio.*] and
// [index.*] tables of the config file
func ConfigFromViper() (*Config, error) {
	cfg := &Config{
		Portfolios: make(map[string]*PortfolioConfig),
		Indexes:    make(map[string]string),
		indexYTD:   make(map[string]ytdPolicy),
	}

	tz := common.GetTimezone()

	for name := range viper.GetStringMap("portfolio") {
		sub := viper.Sub(fmt.Sprintf("portfolio.%s", name))
		if sub == nil {
			continue
		}

		pf := &PortfolioConfig{
			// viper lowercases table keys; the name field preserves the
			// exact series name used as a workbook column
			Name:        sub.GetString("name"),
			BasePrice:   sub.GetFloat64("base_price"),
			YTDStrategy: sub.GetString("ytd"),
		}
		if pf.Name == "" {
			pf.Name = name
		}

		if pf.BasePrice <= 0 {
			return nil, fmt.Errorf("%w: portfolio %s", ErrBadBasePrice, name)
		}

		startDate, err := time.ParseInLocation("2006-01-02", sub.GetString("start_date"), tz)
		if err != nil {
			return nil, fmt.Errorf("%w: portfolio %s: %s", ErrBadStartDate, name, sub.GetString("start_date"))
		}
		pf.StartDate = startDate

		switch pf.YTDStrategy {
		case "":
			pf.YTDStrategy = YTDCalendar
		case YTDCalendar:
		case YTDFixed:
			baseDate, err := time.ParseInLocation("2006-01-02", sub.GetString("ytd_base_date"), tz)
			if err != nil {
				return nil, fmt.Errorf("%w: portfolio %s: fixed strategy requires ytd_base_date", ErrBadYTDConfig, name)
			}
			pf.YTDBaseDate = baseDate
		default:
			return nil, fmt.Errorf("%w: portfolio %s: %s", ErrBadYTDConfig, name, pf.YTDStrategy)
		}

		cfg.Portfolios[pf.Name] = pf
	}

	if len(cfg.Portfolios) == 0 {
		return nil, ErrNoPortfolios
	}

	for name := range viper.GetStringMap("index") {
		code := viper.GetString(fmt.Sprintf("index.%s.code", name))
		if code == "" {
			continue
		}
		display := viper.GetString(fmt.Sprintf("index.%s.name", name))
		if display == "" {
			display = name
		}
		cfg.Indexes[display] = code

		policy := ytdPolicy{strategy: viper.GetString(fmt.Sprintf("index.%s.ytd", name))}
		switch policy.strategy {
		case "":
			policy.strategy = YTDCalendar
		case YTDCalendar:
		case YTDFixed:
			baseDate, err := time.ParseInLocation("2006-01-02", viper.GetString(fmt.Sprintf("index.%s.ytd_base_date", name)), tz)
			if err != nil {
				return nil, fmt.Errorf("%w: index %s: fixed strategy requires ytd_base_date", ErrBadYTDConfig, name)
			}
			policy.baseDate = baseDate
		default:
			return nil, fmt.Errorf("%w: index %s: %s", ErrBadYTDConfig, name, policy.strategy)
		}
		cfg.indexYTD[display] = policy
	}

	return cfg, nil
}

// EarliestStart returns the earliest configured portfolio start date
func (cfg *Config) EarliestStart() time.Time {
	var earliest time.Time
	for _, pf := range cfg.Portfolios {
		if earliest.IsZero() || pf.StartDate.Before(earliest) {
			earliest = pf.StartDate
		}
	}
	return earliest
}
