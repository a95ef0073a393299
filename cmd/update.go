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

package cmd

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/wrap-vault/wrapnav/common"
	"github.com/wrap-vault/wrapnav/nav"
	"github.com/wrap-vault/wrapnav/observability/opentelemetry"
)

var ToDate string

func init() {
	updateCmd.Flags().StringVar(&ToDate, "date", "", "Date specified as YYYY-MM-dd to compute index values through (default: yesterday)")
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Extend the NAV history and return snapshots through a given date",
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		common.SetupCache()
		log.Info().Msg("initialized logging")

		ctx := context.Background()
		shutdown, err := opentelemetry.Setup()
		if err != nil {
			log.Fatal().Err(err).Msg("could not initialize tracing")
		}
		defer func() {
			if err := shutdown(ctx); err != nil {
				log.Error().Err(err).Msg("could not shutdown tracing")
			}
		}()

		through, err := throughDate(ToDate)
		if err != nil {
			log.Fatal().Err(err).Str("InputStr", ToDate).Msg("could not parse date - expected format 2006-01-02")
		}

		if _, _, err := runPipeline(ctx, through); err != nil {
			if errors.Is(err, nav.ErrUpToDate) {
				log.Info().Msg("index history is already up to date")
				return
			}
			log.Fatal().Err(err).Msg("nav update failed")
		}
	},
}
