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

package store_test

import (
	"context"
	"math"
	"time"

	"github.com/jackc/pgconn"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pashagolub/pgxmock"

	"github.com/wrap-vault/wrapnav/database"
	"github.com/wrap-vault/wrapnav/dataframe"
	"github.com/wrap-vault/wrapnav/returns"
	"github.com/wrap-vault/wrapnav/store"
)

var _ = Describe("Archive", func() {
	var (
		ctx     context.Context
		archive *store.Archive
		dbPool  pgxmock.PgxConnIface
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()

		dbPool, err = pgxmock.NewConn()
		Expect(err).To(BeNil())
		database.SetPool(dbPool)

		archive = store.NewArchive()
	})

	AfterEach(func() {
		dbPool.Close(context.Background())
	})

	expectMigrate := func() {
		// NOTE: pgconn.CommandTag is ignored
		dbPool.ExpectExec("CREATE TABLE IF NOT EXISTS nav_eod").
			WillReturnResult(pgconn.CommandTag("CREATE TABLE"))
		dbPool.ExpectExec("CREATE TABLE IF NOT EXISTS nav_returns").
			WillReturnResult(pgconn.CommandTag("CREATE TABLE"))
	}

	Describe("ArchivePrices", func() {
		It("upserts every observation and skips missing cells", func() {
			df := dataframe.New()
			day1 := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
			day2 := time.Date(2026, time.January, 6, 0, 0, 0, 0, time.UTC)
			df.SetValue(day1, "Wrap", 1000)
			df.SetValue(day2, "Wrap", 1005)
			df.SetValue(day2, "KOSPI", 2500)

			dbPool.ExpectBegin()
			expectMigrate()
			// day1 KOSPI is NaN so only three inserts happen
			for i := 0; i < 3; i++ {
				dbPool.ExpectExec("INSERT INTO nav_eod").
					WillReturnResult(pgconn.CommandTag("INSERT 0 1"))
			}
			dbPool.ExpectCommit()

			Expect(archive.ArchivePrices(ctx, df)).To(Succeed())
			Expect(dbPool.ExpectationsWereMet()).To(Succeed())
		})
	})

	Describe("ArchiveSnapshot", func() {
		It("upserts one row per non-null horizon cell", func() {
			snap := &returns.Snapshot{
				AsOf:   time.Date(2026, time.January, 6, 0, 0, 0, 0, time.UTC),
				Series: []string{"Wrap"},
				Values: map[string]float64{},
			}
			for _, horizon := range returns.Horizons {
				snap.Values[returns.CellKey("Wrap", horizon)] = math.NaN()
			}
			snap.Values[returns.CellKey("Wrap", returns.OneDay)] = 0.5
			snap.Values[returns.CellKey("Wrap", returns.YearToDate)] = 2.0

			dbPool.ExpectBegin()
			expectMigrate()
			for i := 0; i < 2; i++ {
				dbPool.ExpectExec("INSERT INTO nav_returns").
					WillReturnResult(pgconn.CommandTag("INSERT 0 1"))
			}
			dbPool.ExpectCommit()

			Expect(archive.ArchiveSnapshot(ctx, snap)).To(Succeed())
			Expect(dbPool.ExpectationsWereMet()).To(Succeed())
		})
	})

	Describe("when no database is configured", func() {
		It("returns ErrNotConnected", func() {
			database.SetPool(nil)

			err := archive.ArchivePrices(ctx, dataframe.New())
			Expect(err).To(MatchError(database.ErrNotConnected))
		})
	})
})
