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
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wrap-vault/wrapnav/common"
)

func init() {
	// Storage
	viper.BindEnv("storage.file", "WRAPNAV_FILE")
	rootCmd.PersistentFlags().String("storage-file", "Wrap_NAV.xlsx", "Path to the NAV workbook")
	viper.BindPFlag("storage.file", rootCmd.PersistentFlags().Lookup("storage-file"))

	// Database
	viper.BindEnv("database.url", "DATABASE_URL")
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string for the optional archive")
	viper.BindPFlag("database.url", rootCmd.PersistentFlags().Lookup("database-url"))

	// Telegram
	viper.BindEnv("telegram.token", "TELEGRAM_TOKEN")
	rootCmd.PersistentFlags().String("telegram-token", "", "Telegram bot token")
	viper.BindPFlag("telegram.token", rootCmd.PersistentFlags().Lookup("telegram-token"))

	viper.BindEnv("telegram.chat_id", "TELEGRAM_CHAT_ID")
	rootCmd.PersistentFlags().Int64("telegram-chat-id", 0, "Telegram chat to notify")
	viper.BindPFlag("telegram.chat_id", rootCmd.PersistentFlags().Lookup("telegram-chat-id"))

	// Logging configuration
	viper.BindEnv("log.level", "WRAPNAV_LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-level", "info", "Logging level")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.BindEnv("log.report_caller", "WRAPNAV_LOG_REPORT_CALLER")
	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller"))

	viper.BindEnv("log.output", "WRAPNAV_LOG_OUTPUT")
	rootCmd.PersistentFlags().String("log-output", "stdout", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output"))

	rootCmd.PersistentFlags().Bool("log-pretty", false, "Print logs in human readable form")
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))

	// OpenTelemetry
	viper.BindEnv("otlp.endpoint", "OTLP_ENDPOINT")
	rootCmd.PersistentFlags().String("otlp-endpoint", "", "OTLP trace collector endpoint, if blank don't export traces")
	viper.BindPFlag("otlp.endpoint", rootCmd.PersistentFlags().Lookup("otlp-endpoint"))
}

var rootCmd = &cobra.Command{
	Use:     "wrapnav",
	Version: common.CurrentVersion.String(),
	Short:   "wrapnav maintains daily NAV and return history for wrap account portfolios",
	Long: `wrapnav compounds daily portfolio index values from constituent weights
and market data, derives trailing return snapshots, and keeps the results in
an xlsx workbook that doubles as the manual data-entry surface.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
