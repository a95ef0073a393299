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
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wrap-vault/wrapnav/common"
	"github.com/wrap-vault/wrapnav/data"
	"github.com/wrap-vault/wrapnav/database"
	"github.com/wrap-vault/wrapnav/dataframe"
	"github.com/wrap-vault/wrapnav/nav"
	"github.com/wrap-vault/wrapnav/returns"
	"github.com/wrap-vault/wrapnav/store"
)

// runPipeline executes one full update: load the workbook, extend the index
// history through the given date, fold a fresh return snapshot into the
// snapshot sheet, and save. The updated history and snapshot are returned
// for callers that notify.
func runPipeline(ctx context.Context, through time.Time) (*dataframe.DataFrame, *returns.Snapshot, error) {
	runID := uuid.New().String()
	logger := log.With().Str("RunID", runID).Logger()
	logger.Info().Time("Through", through).Msg("starting nav update")

	wb, err := store.Open()
	if err != nil {
		return nil, nil, err
	}

	cfg, err := nav.ConfigFromViper()
	if err != nil {
		return nil, nil, err
	}

	prior, err := wb.Prices()
	if err != nil {
		return nil, nil, err
	}

	entries, err := wb.Weights()
	if err != nil {
		return nil, nil, err
	}

	engine := nav.NewEngine(data.NewManager())
	updated, err := engine.Update(ctx, cfg, prior, entries, through)
	if err != nil {
		return nil, nil, err
	}

	calc := returns.NewCalculator(cfg)
	snap, err := calc.Snapshot(updated)
	if err != nil {
		return nil, nil, err
	}

	table, err := wb.Returns()
	if err != nil {
		return nil, nil, err
	}
	table.Upsert(snap)

	wb.SetPrices(updated)
	wb.SetReturns(table)
	if err := wb.Save(); err != nil {
		return nil, nil, err
	}

	if err := archive(ctx, updated, snap); err != nil {
		// the workbook is already saved; a failed archive loses nothing
		logger.Warn().Err(err).Msg("could not archive to database")
	}

	logger.Info().Time("AsOf", snap.AsOf).Int("Rows", updated.Len()).Msg("nav update complete")
	return updated, snap, nil
}

func archive(ctx context.Context, df *dataframe.DataFrame, snap *returns.Snapshot) error {
	if err := database.Connect(ctx); err != nil {
		if errors.Is(err, database.ErrNotConnected) {
			return nil
		}
		return err
	}
	defer database.Close()

	arch := store.NewArchive()
	if err := arch.ArchivePrices(ctx, df); err != nil {
		return err
	}
	return arch.ArchiveSnapshot(ctx, snap)
}

// throughDate resolves the --date flag; by default the run covers data
// through yesterday so partially traded sessions never enter the history.
func throughDate(flagVal string) (time.Time, error) {
	tz := common.GetTimezone()
	if flagVal == "" {
		return common.NormalizeDate(time.Now().In(tz).AddDate(0, 0, -1)), nil
	}
	dt, err := time.ParseInLocation("2006-01-02", flagVal, tz)
	if err != nil {
		return time.Time{}, err
	}
	return common.NormalizeDate(dt), nil
}
