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

package handler

import (
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/wrap-vault/wrapnav/store"
)

type PingResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"API is alive"`
	Time    string `json:"time" example:"2026-08-30T08:09:10.115924+09:00"`
}

type NavResponse struct {
	Dates  []string             `json:"dates"`
	Series map[string][]float64 `json:"series"`
}

type ReturnsResponse struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

func Ping(c *fiber.Ctx) error {
	now, err := time.Now().MarshalText()
	if err != nil {
		log.Error().Err(err).Msg("error while getting time in ping")
		return c.JSON(PingResponse{
			Status:  "error",
			Message: err.Error(),
		})
	}
	return c.JSON(PingResponse{
		Status:  "success",
		Message: "API is alive",
		Time:    string(now),
	})
}

// GetNav serves the full index history. NaN has no JSON encoding so missing
// observations are sent as zero-valued holes the client can detect via the
// date list.
func GetNav(c *fiber.Ctx) error {
	wb, err := store.Open()
	if err != nil {
		log.Error().Err(err).Msg("could not open workbook")
		return fiber.ErrInternalServerError
	}

	df, err := wb.Prices()
	if err != nil {
		log.Error().Err(err).Msg("could not read price sheet")
		return fiber.ErrInternalServerError
	}

	resp := NavResponse{
		Dates:  make([]string, 0, df.Len()),
		Series: map[string][]float64{},
	}
	for _, date := range df.Dates {
		resp.Dates = append(resp.Dates, date.Format("2006-01-02"))
	}
	for colIdx, name := range df.ColNames {
		vals := make([]float64, df.Len())
		for rowIdx, v := range df.Vals[colIdx] {
			if math.IsNaN(v) {
				vals[rowIdx] = 0
			} else {
				vals[rowIdx] = v
			}
		}
		resp.Series[name] = vals
	}

	return c.JSON(resp)
}

// GetReturns serves the persisted snapshot table
func GetReturns(c *fiber.Ctx) error {
	wb, err := store.Open()
	if err != nil {
		log.Error().Err(err).Msg("could not open workbook")
		return fiber.ErrInternalServerError
	}

	table, err := wb.Returns()
	if err != nil {
		log.Error().Err(err).Msg("could not read returns sheet")
		return fiber.ErrInternalServerError
	}

	return c.JSON(ReturnsResponse{
		Header: table.Header,
		Rows:   table.Rows,
	})
}
