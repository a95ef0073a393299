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

package notify

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/wrap-vault/wrapnav/dataframe"
	"github.com/wrap-vault/wrapnav/returns"
)

var ErrNotConfigured = errors.New("telegram token or chat_id not configured")

// Notifier pushes the daily summary and chart to a telegram chat
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// New builds a notifier from the [telegram] config section
func New() (*Notifier, error) {
	token := viper.GetString("telegram.token")
	chatID := viper.GetInt64("telegram.chat_id")
	if token == "" || chatID == 0 {
		return nil, ErrNotConfigured
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Info().Str("Account", api.Self.UserName).Msg("telegram bot authorized")
	return &Notifier{api: api, chatID: chatID}, nil
}

// SendSummary posts the text summary for a snapshot: latest index value plus
// 1D and YTD for every series.
func (n *Notifier) SendSummary(df *dataframe.DataFrame, snap *returns.Snapshot) error {
	msg := tgbotapi.NewMessage(n.chatID, n.Summary(df, snap))
	if _, err := n.api.Send(msg); err != nil {
		return err
	}
	return nil
}

// SendChart posts the trailing NAV chart as a photo
func (n *Notifier) SendChart(df *dataframe.DataFrame, window time.Duration) error {
	img, err := RenderChart(df, window)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("wrapnav_%s.png", time.Now().Format("20060102"))
	photo := tgbotapi.NewPhoto(n.chatID, tgbotapi.FileBytes{Name: name, Bytes: img})
	if _, err := n.api.Send(photo); err != nil {
		return err
	}
	return nil
}

// Summary formats the daily digest text
func (n *Notifier) Summary(df *dataframe.DataFrame, snap *returns.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Wrap NAV %s\n", snap.AsOf.Format("2006-01-02"))

	for _, series := range snap.Series {
		line := fmt.Sprintf("\n%s", series)

		if _, val := lastValid(df, series); !math.IsNaN(val) {
			line += fmt.Sprintf(": %.2f", val)
		}

		day := snap.Values[returns.CellKey(series, returns.OneDay)]
		ytd := snap.Values[returns.CellKey(series, returns.YearToDate)]
		parts := []string{}
		if !math.IsNaN(day) {
			parts = append(parts, fmt.Sprintf("1D %s", signedPct(day)))
		}
		if !math.IsNaN(ytd) {
			parts = append(parts, fmt.Sprintf("YTD %s", signedPct(ytd)))
		}
		if len(parts) > 0 {
			line += fmt.Sprintf(" (%s)", strings.Join(parts, ", "))
		}

		sb.WriteString(line)
	}

	return sb.String()
}

func signedPct(val float64) string {
	if val > 0 {
		return fmt.Sprintf("+%.1f%%", val)
	}
	return fmt.Sprintf("%.1f%%", val)
}

func lastValid(df *dataframe.DataFrame, colName string) (time.Time, float64) {
	series, err := df.Series(colName)
	if err != nil {
		return time.Time{}, math.NaN()
	}
	return series.Last()
}
