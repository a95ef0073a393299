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

package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// PgxIface is the part of pgxpool.Pool the archive uses; tests substitute a
// pgxmock connection
type PgxIface interface {
	Begin(context.Context) (pgx.Tx, error)
}

var pool PgxIface

// ErrNotConnected indicates the archive database was used before Connect
var ErrNotConnected = errors.New("database is not connected")

// Connect establishes the connection pool configured by database.url. The
// archive database is optional; callers should skip archiving rather than
// fail when no url is configured.
func Connect(ctx context.Context) error {
	if pool != nil {
		return nil
	}

	dbURL := viper.GetString("database.url")
	if dbURL == "" {
		return ErrNotConnected
	}

	p, err := pgxpool.Connect(ctx, dbURL)
	if err != nil {
		log.Error().Err(err).Msg("could not connect to database")
		return err
	}

	if err := p.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("could not ping database")
		return err
	}

	pool = p
	log.Info().Msg("connected to archive database")
	return nil
}

// Pool returns the active database connection
func Pool() (PgxIface, error) {
	if pool == nil {
		return nil, ErrNotConnected
	}
	return pool, nil
}

// SetPool replaces the database connection; used by tests
func SetPool(myPool PgxIface) {
	pool = myPool
}

// Close tears down the pool if one is connected
func Close() {
	if p, ok := pool.(*pgxpool.Pool); ok {
		p.Close()
	}
	pool = nil
}
