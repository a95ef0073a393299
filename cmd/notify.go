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
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/wrap-vault/wrapnav/common"
	"github.com/wrap-vault/wrapnav/nav"
	"github.com/wrap-vault/wrapnav/notify"
	"github.com/wrap-vault/wrapnav/returns"
	"github.com/wrap-vault/wrapnav/store"
)

var notifyDryRun bool

func init() {
	notifyCmd.Flags().BoolVar(&notifyDryRun, "test", false, "Print the summary instead of sending it")
	rootCmd.AddCommand(notifyCmd)
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send the daily summary and chart to telegram",
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()

		cfg, err := nav.ConfigFromViper()
		if err != nil {
			log.Fatal().Err(err).Msg("invalid portfolio configuration")
		}

		wb, err := store.Open()
		if err != nil {
			log.Fatal().Err(err).Msg("could not open workbook")
		}

		df, err := wb.Prices()
		if err != nil {
			log.Fatal().Err(err).Msg("could not read price sheet")
		}

		snap, err := returns.NewCalculator(cfg).Snapshot(df)
		if err != nil {
			log.Fatal().Err(err).Msg("could not compute return snapshot")
		}

		if notifyDryRun {
			n := &notify.Notifier{}
			fmt.Println(n.Summary(df, snap))
			return
		}

		n, err := notify.New()
		if err != nil {
			log.Fatal().Err(err).Msg("could not create telegram notifier")
		}

		if err := n.SendSummary(df, snap); err != nil {
			log.Fatal().Err(err).Msg("could not send telegram summary")
		}
		if err := n.SendChart(df, 90*24*time.Hour); err != nil {
			log.Error().Err(err).Msg("could not send telegram chart")
		}
	},
}
