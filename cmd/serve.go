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
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wrap-vault/wrapnav/common"
	"github.com/wrap-vault/wrapnav/middleware"
	"github.com/wrap-vault/wrapnav/nav"
	"github.com/wrap-vault/wrapnav/notify"
	"github.com/wrap-vault/wrapnav/observability/opentelemetry"
	"github.com/wrap-vault/wrapnav/router"
)

func init() {
	viper.BindEnv("server.port", "PORT")
	serveCmd.Flags().IntP("port", "p", 3000, "Port to run the dashboard server on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	serveCmd.Flags().String("update-at", "18:30", "Local wall-clock time to run the daily update")
	viper.BindPFlag("server.update_at", serveCmd.Flags().Lookup("update-at"))

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the wrapnav dashboard server",
	Long:  `Run an HTTP server that serves the NAV dashboard and JSON API, and refreshes the workbook on a daily schedule.`,
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		common.SetupCache()
		log.Info().Msg("initialized logging")

		shutdown, err := opentelemetry.Setup()
		if err != nil {
			log.Fatal().Err(err).Msg("could not initialize tracing")
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("could not shutdown tracing")
			}
		}()

		app := fiber.New(fiber.Config{
			JSONEncoder: json.Marshal,
			JSONDecoder: json.Unmarshal,
		})

		// shutdown cleanly on interrupt
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		go func() {
			sig := <-c // block until signal is read
			fmt.Printf("Received signal: '%s'; shutting down...\n", sig.String())
			if err := app.Shutdown(); err != nil {
				log.Fatal().Err(err).Msg("could not shutdown server")
			}
		}()

		corsConfig := cors.Config{
			AllowOrigins: "*",
			AllowHeaders: "*",
			AllowMethods: "GET,HEAD",
		}
		app.Use(cors.New(corsConfig))
		app.Use(middleware.NewLogger())

		router.SetupRoutes(app)

		// daily refresh after market close
		tz := common.GetTimezone()
		scheduler := gocron.NewScheduler(tz)
		scheduler.Every(1).Day().At(viper.GetString("server.update_at")).Do(scheduledUpdate)
		scheduler.StartAsync()

		if err := app.Listen(fmt.Sprintf(":%d", viper.GetInt("server.port"))); err != nil {
			log.Fatal().Err(err).Msg("server exited with error")
		}
	},
}

func scheduledUpdate() {
	ctx := context.Background()
	through := common.NormalizeDate(time.Now().In(common.GetTimezone()))

	df, snap, err := runPipeline(ctx, through)
	if err != nil {
		if errors.Is(err, nav.ErrUpToDate) {
			log.Info().Msg("index history is already up to date")
			return
		}
		log.Error().Err(err).Msg("scheduled nav update failed")
		return
	}

	n, err := notify.New()
	if err != nil {
		if errors.Is(err, notify.ErrNotConfigured) {
			return
		}
		log.Error().Err(err).Msg("could not create telegram notifier")
		return
	}
	if err := n.SendSummary(df, snap); err != nil {
		log.Error().Err(err).Msg("could not send telegram summary")
	}
	if err := n.SendChart(df, 90*24*time.Hour); err != nil {
		log.Error().Err(err).Msg("could not send telegram chart")
	}
}
