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

package store

import (
	"context"
	"math"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog/log"
	"github.com/wrap-vault/wrapnav/database"
	"github.com/wrap-vault/wrapnav/dataframe"
	"github.com/wrap-vault/wrapnav/observability/opentelemetry"
	"github.com/wrap-vault/wrapnav/returns"
	"go.opentelemetry.io/otel"
)

// Archive mirrors computed values to postgres when a database is
// configured. The workbook stays the system of record; the archive exists
// for ad-hoc SQL and dashboards.
type Archive struct{}

func NewArchive() *Archive {
	return &Archive{}
}

// ArchivePrices upserts every non-null observation of the frame
func (a *Archive) ArchivePrices(ctx context.Context, df *dataframe.DataFrame) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "store.ArchivePrices")
	defer span.End()

	pool, err := database.Pool()
	if err != nil {
		return err
	}

	trx, err := pool.Begin(ctx)
	if err != nil {
		log.Error().Err(err).Msg("could not begin archive transaction")
		return err
	}

	if err := migrate(ctx, trx); err != nil {
		rollback(ctx, trx)
		return err
	}

	cnt := 0
	for colIdx, name := range df.ColNames {
		for rowIdx, date := range df.Dates {
			val := df.Vals[colIdx][rowIdx]
			if math.IsNaN(val) {
				continue
			}
			_, err := trx.Exec(ctx,
				`INSERT INTO nav_eod (event_date, series, value) VALUES ($1, $2, $3)
				 ON CONFLICT (event_date, series) DO UPDATE SET value = EXCLUDED.value`,
				date, name, val)
			if err != nil {
				rollback(ctx, trx)
				log.Error().Err(err).Str("Series", name).Time("Date", date).Msg("could not archive nav row")
				return err
			}
			cnt++
		}
	}

	if err := trx.Commit(ctx); err != nil {
		return err
	}

	log.Info().Int("Rows", cnt).Msg("archived nav history")
	return nil
}

// ArchiveSnapshot upserts one row per series/horizon cell of the snapshot
func (a *Archive) ArchiveSnapshot(ctx context.Context, snap *returns.Snapshot) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "store.ArchiveSnapshot")
	defer span.End()

	pool, err := database.Pool()
	if err != nil {
		return err
	}

	trx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}

	if err := migrate(ctx, trx); err != nil {
		rollback(ctx, trx)
		return err
	}

	for _, series := range snap.Series {
		for _, horizon := range returns.Horizons {
			val := snap.Values[returns.CellKey(series, horizon)]
			if math.IsNaN(val) {
				continue
			}
			_, err := trx.Exec(ctx,
				`INSERT INTO nav_returns (event_date, series, horizon, pct) VALUES ($1, $2, $3, $4)
				 ON CONFLICT (event_date, series, horizon) DO UPDATE SET pct = EXCLUDED.pct`,
				snap.AsOf, series, string(horizon), val)
			if err != nil {
				rollback(ctx, trx)
				return err
			}
		}
	}

	return trx.Commit(ctx)
}

func migrate(ctx context.Context, trx pgx.Tx) error {
	_, err := trx.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS nav_eod (
			event_date DATE NOT NULL,
			series TEXT NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (event_date, series)
		)`)
	if err != nil {
		return err
	}

	_, err = trx.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS nav_returns (
			event_date DATE NOT NULL,
			series TEXT NOT NULL,
			horizon TEXT NOT NULL,
			pct DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (event_date, series, horizon)
		)`)
	return err
}

func rollback(ctx context.Context, trx pgx.Tx) {
	if err := trx.Rollback(ctx); err != nil {
		log.Error().Err(err).Msg("could not rollback archive transaction")
	}
}
