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
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/wrap-vault/wrapnav/common"
	"github.com/wrap-vault/wrapnav/nav"
	"github.com/wrap-vault/wrapnav/returns"
	"github.com/wrap-vault/wrapnav/store"
)

var writeReturns bool

func init() {
	returnsCmd.Flags().BoolVar(&writeReturns, "write", false, "Fold the snapshot into the workbook instead of only printing it")
	rootCmd.AddCommand(returnsCmd)
}

var returnsCmd = &cobra.Command{
	Use:   "returns",
	Short: "Compute trailing return snapshots from the stored index history",
	Long: `Compute 1D/1W/1M/3M/6M/1Y/YTD returns for every portfolio and benchmark
from the index history already in the workbook. No market data is fetched.`,
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

		calc := returns.NewCalculator(cfg)
		snap, err := calc.Snapshot(df)
		if err != nil {
			log.Fatal().Err(err).Msg("could not compute return snapshot")
		}

		printSnapshot(snap)

		if writeReturns {
			table, err := wb.Returns()
			if err != nil {
				log.Fatal().Err(err).Msg("could not read returns sheet")
			}
			table.Upsert(snap)
			wb.SetReturns(table)
			if err := wb.Save(); err != nil {
				log.Fatal().Err(err).Msg("could not save workbook")
			}
		}
	},
}

func printSnapshot(snap *returns.Snapshot) {
	table := tablewriter.NewWriter(os.Stdout)

	header := []string{snap.AsOf.Format("2006-01-02")}
	for _, horizon := range returns.Horizons {
		header = append(header, string(horizon))
	}
	table.SetHeader(header)

	for _, series := range snap.Series {
		row := []string{series}
		for _, horizon := range returns.Horizons {
			row = append(row, returns.FormatPct(snap.Values[returns.CellKey(series, horizon)]))
		}
		table.Append(row)
	}

	table.Render()
}
