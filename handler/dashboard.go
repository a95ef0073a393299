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
	"html/template"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/wrap-vault/wrapnav/notify"
	"github.com/wrap-vault/wrapnav/store"
)

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="utf-8">
<title>Wrap NAV</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: right; }
th { background: #f0f0f0; }
img { max-width: 100%; margin-top: 1.5em; }
</style>
</head>
<body>
<h1>Wrap NAV</h1>
<table>
<tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</table>
<img src="/v1/nav/chart.png" alt="NAV chart">
</body>
</html>`))

// Dashboard renders the snapshot table plus trailing chart as a single page
func Dashboard(c *fiber.Ctx) error {
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

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return dashboardTmpl.Execute(c.Response().BodyWriter(), table)
}

// GetNavChart serves the trailing three month chart as a PNG
func GetNavChart(c *fiber.Ctx) error {
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

	img, err := notify.RenderChart(df, 90*24*time.Hour)
	if err != nil {
		log.Error().Err(err).Msg("could not render chart")
		return fiber.ErrInternalServerError
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(img)
}
