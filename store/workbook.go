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
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/tealeg/xlsx/v3"
	"github.com/wrap-vault/wrapnav/common"
	"github.com/wrap-vault/wrapnav/dataframe"
	"github.com/wrap-vault/wrapnav/nav"
)

var (
	ErrSheetMissing = errors.New("workbook sheet not found")
	ErrSchema       = errors.New("sheet does not match expected schema")
	ErrEmptySheet   = errors.New("sheet holds no data rows")
)

// expected weight sheet headers
const (
	colDate      = "날짜"
	colPortfolio = "상품명"
	colCode      = "코드"
	colLabel     = "종목명"
	colWeight    = "비중"
)

// Workbook wraps the xlsx file that is the system of record for price
// history, weights and return snapshots. Sheets replaced through the setters
// are staged in memory; nothing touches the file until Save.
type Workbook struct {
	path         string
	priceSheet   string
	weightSheet  string
	returnsSheet string

	file   *xlsx.File
	staged map[string]func(sh *xlsx.Sheet) error
}

// Open loads the workbook named in [storage] of the config file. A missing
// file or missing price sheet is fatal for the run.
func Open() (*Workbook, error) {
	wb := &Workbook{
		path:         viper.GetString("storage.file"),
		priceSheet:   viper.GetString("storage.price_sheet"),
		weightSheet:  viper.GetString("storage.weight_sheet"),
		returnsSheet: viper.GetString("storage.returns_sheet"),
		staged:       map[string]func(sh *xlsx.Sheet) error{},
	}

	if wb.path == "" {
		wb.path = "Wrap_NAV.xlsx"
	}
	if wb.priceSheet == "" {
		wb.priceSheet = "기준가"
	}
	if wb.weightSheet == "" {
		wb.weightSheet = "NEW"
	}
	if wb.returnsSheet == "" {
		wb.returnsSheet = "수익률"
	}

	file, err := xlsx.OpenFile(wb.path)
	if err != nil {
		return nil, fmt.Errorf("could not open workbook %s: %w", wb.path, err)
	}
	wb.file = file

	return wb, nil
}

// Prices reads the base-price sheet into a date-indexed frame. An existing
// but empty sheet yields an empty frame (first-ever run); a missing sheet is
// an error.
func (wb *Workbook) Prices() (*dataframe.DataFrame, error) {
	sheet, ok := wb.file.Sheet[wb.priceSheet]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSheetMissing, wb.priceSheet)
	}

	if sheet.MaxRow <= 1 {
		log.Info().Str("Sheet", wb.priceSheet).Msg("price sheet is empty; starting fresh")
		return dataframe.New(), nil
	}

	header, err := readRowStrings(sheet, 0)
	if err != nil {
		return nil, err
	}
	if len(header) < 1 || (header[0] != common.DateIdx && header[0] != "") {
		return nil, fmt.Errorf("%w: first column of %s must be %s", ErrSchema, wb.priceSheet, common.DateIdx)
	}

	colNames := []string{}
	for _, name := range header[1:] {
		// openpyxl leaves unnamed filler columns behind
		if name == "" || strings.HasPrefix(name, "Unnamed") {
			break
		}
		colNames = append(colNames, name)
	}

	df := dataframe.New(colNames...)
	for rowIdx := 1; rowIdx < sheet.MaxRow; rowIdx++ {
		date, ok, err := readDateCell(sheet, rowIdx, 0)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		for colOffset, name := range colNames {
			val, err := readFloatCell(sheet, rowIdx, colOffset+1)
			if err != nil {
				return nil, err
			}
			df.SetValue(date, name, val)
		}
	}

	return df, nil
}

// Weights reads the weight sheet into entry rows. Rows without a constituent
// code are skipped; codes are zero-padded to six digits.
func (wb *Workbook) Weights() ([]*nav.WeightEntry, error) {
	sheet, ok := wb.file.Sheet[wb.weightSheet]
	if !ok {
		// fall back to the first sheet, mirroring manual workbooks that
		// predate the NEW naming convention
		if len(wb.file.Sheets) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrSheetMissing, wb.weightSheet)
		}
		sheet = wb.file.Sheets[0]
		log.Warn().Str("Sheet", sheet.Name).Msg("weight sheet not found; using first sheet")
	}

	if sheet.MaxRow <= 1 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySheet, sheet.Name)
	}

	header, err := readRowStrings(sheet, 0)
	if err != nil {
		return nil, err
	}

	colIdx := map[string]int{}
	for idx, name := range header {
		colIdx[strings.TrimSpace(name)] = idx
	}
	for _, required := range []string{colDate, colPortfolio, colCode, colWeight} {
		if _, ok := colIdx[required]; !ok {
			return nil, fmt.Errorf("%w: %s is missing column %s", ErrSchema, sheet.Name, required)
		}
	}

	entries := []*nav.WeightEntry{}
	for rowIdx := 1; rowIdx < sheet.MaxRow; rowIdx++ {
		code, err := readStringCell(sheet, rowIdx, colIdx[colCode])
		if err != nil {
			return nil, err
		}
		code = strings.TrimSpace(code)
		if code == "" || strings.EqualFold(code, "nan") {
			continue
		}

		date, ok, err := readDateCell(sheet, rowIdx, colIdx[colDate])
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		portfolio, err := readStringCell(sheet, rowIdx, colIdx[colPortfolio])
		if err != nil {
			return nil, err
		}

		weight, err := readFloatCell(sheet, rowIdx, colIdx[colWeight])
		if err != nil {
			return nil, err
		}
		if math.IsNaN(weight) {
			weight = 0
		}

		entry := &nav.WeightEntry{
			Date:      date,
			Portfolio: strings.TrimSpace(portfolio),
			Code:      common.PadCode(code),
			WeightPct: weight,
		}
		if labelIdx, ok := colIdx[colLabel]; ok {
			if label, err := readStringCell(sheet, rowIdx, labelIdx); err == nil {
				entry.Label = strings.TrimSpace(label)
			}
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// Returns reads the persisted snapshot table; a missing sheet yields an
// empty table
func (wb *Workbook) Returns() (*ReturnsTable, error) {
	sheet, ok := wb.file.Sheet[wb.returnsSheet]
	if !ok || sheet.MaxRow == 0 {
		return NewReturnsTable(), nil
	}

	header, err := readRowStrings(sheet, 0)
	if err != nil {
		return nil, err
	}

	table := &ReturnsTable{Header: header}
	for rowIdx := 1; rowIdx < sheet.MaxRow; rowIdx++ {
		row, err := readRowStrings(sheet, rowIdx)
		if err != nil {
			return nil, err
		}
		if len(row) == 0 || row[0] == "" {
			continue
		}
		for len(row) < len(table.Header) {
			row = append(row, "")
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// SetPrices stages a replacement base-price sheet
func (wb *Workbook) SetPrices(df *dataframe.DataFrame) {
	wb.staged[wb.priceSheet] = func(sheet *xlsx.Sheet) error {
		header := sheet.AddRow()
		header.AddCell().SetString(common.DateIdx)
		for _, name := range df.ColNames {
			header.AddCell().SetString(name)
		}

		for rowIdx, date := range df.Dates {
			row := sheet.AddRow()
			// write real date cells so Excel recognizes the column as
			// dates rather than text
			row.AddCell().SetDate(date)
			for colIdx := range df.ColNames {
				val := df.Vals[colIdx][rowIdx]
				cell := row.AddCell()
				if math.IsNaN(val) {
					cell.SetString("")
				} else {
					cell.SetFloat(val)
				}
			}
		}
		return nil
	}
}

// SetReturns stages a replacement snapshot sheet
func (wb *Workbook) SetReturns(table *ReturnsTable) {
	wb.staged[wb.returnsSheet] = func(sheet *xlsx.Sheet) error {
		header := sheet.AddRow()
		for _, name := range table.Header {
			header.AddCell().SetString(name)
		}
		for _, rowVals := range table.Rows {
			row := sheet.AddRow()
			for _, val := range rowVals {
				row.AddCell().SetString(val)
			}
		}
		return nil
	}
}

// Save writes the workbook back to disk. The whole file is written to a
// temporary sibling and renamed over the original so an interrupted run can
// never leave a half-written workbook behind.
func (wb *Workbook) Save() error {
	out := xlsx.NewFile()

	written := map[string]bool{}
	for _, sheet := range wb.file.Sheets {
		dst, err := out.AddSheet(sheet.Name)
		if err != nil {
			return err
		}
		if builder, ok := wb.staged[sheet.Name]; ok {
			if err := builder(dst); err != nil {
				return err
			}
		} else if err := copySheetValues(sheet, dst); err != nil {
			return err
		}
		written[sheet.Name] = true
	}

	// staged sheets that don't exist yet are appended
	for name, builder := range wb.staged {
		if written[name] {
			continue
		}
		dst, err := out.AddSheet(name)
		if err != nil {
			return err
		}
		if err := builder(dst); err != nil {
			return err
		}
	}

	tmp := filepath.Join(filepath.Dir(wb.path), fmt.Sprintf(".%s.tmp", filepath.Base(wb.path)))
	if err := out.Save(tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, wb.path); err != nil {
		os.Remove(tmp)
		return err
	}

	log.Info().Str("File", wb.path).Msg("workbook saved")
	return nil
}

// copySheetValues copies cell values (not formatting or formulas) from src
// to dst
func copySheetValues(src *xlsx.Sheet, dst *xlsx.Sheet) error {
	for rowIdx := 0; rowIdx < src.MaxRow; rowIdx++ {
		row := dst.AddRow()
		for cellIdx := 0; cellIdx < src.MaxCol; cellIdx++ {
			cell, err := src.Cell(rowIdx, cellIdx)
			if err != nil {
				return err
			}
			out := row.AddCell()
			if cell.IsTime() {
				if t, err := cell.GetTime(false); err == nil {
					out.SetDate(t)
					continue
				}
			}
			if f, err := cell.Float(); err == nil && cell.Value != "" {
				out.SetFloat(f)
				continue
			}
			out.SetString(cell.Value)
		}
	}
	return nil
}

func readRowStrings(sheet *xlsx.Sheet, rowIdx int) ([]string, error) {
	vals := []string{}
	for cellIdx := 0; cellIdx < sheet.MaxCol; cellIdx++ {
		cell, err := sheet.Cell(rowIdx, cellIdx)
		if err != nil {
			return nil, err
		}
		vals = append(vals, cell.Value)
	}
	// drop trailing blanks
	for len(vals) > 0 && vals[len(vals)-1] == "" {
		vals = vals[:len(vals)-1]
	}
	return vals, nil
}

func readStringCell(sheet *xlsx.Sheet, rowIdx int, cellIdx int) (string, error) {
	cell, err := sheet.Cell(rowIdx, cellIdx)
	if err != nil {
		return "", err
	}
	return cell.Value, nil
}

// readFloatCell returns NaN for blank cells
func readFloatCell(sheet *xlsx.Sheet, rowIdx int, cellIdx int) (float64, error) {
	cell, err := sheet.Cell(rowIdx, cellIdx)
	if err != nil {
		return math.NaN(), err
	}
	if cell.Value == "" {
		return math.NaN(), nil
	}
	val, err := cell.Float()
	if err != nil {
		return math.NaN(), fmt.Errorf("%w: cell (%d,%d) is not numeric: %s", ErrSchema, rowIdx, cellIdx, cell.Value)
	}
	return val, nil
}

// readDateCell handles both native Excel date cells and ISO formatted
// strings; ok is false for blank cells
func readDateCell(sheet *xlsx.Sheet, rowIdx int, cellIdx int) (time.Time, bool, error) {
	cell, err := sheet.Cell(rowIdx, cellIdx)
	if err != nil {
		return time.Time{}, false, err
	}
	if cell.Value == "" {
		return time.Time{}, false, nil
	}

	if cell.IsTime() {
		t, err := cell.GetTime(false)
		if err == nil {
			return common.NormalizeDate(t), true, nil
		}
	}

	tz := common.GetTimezone()
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", "2006/01/02"} {
		if t, err := time.ParseInLocation(layout, cell.Value, tz); err == nil {
			return common.NormalizeDate(t), true, nil
		}
	}

	return time.Time{}, false, fmt.Errorf("%w: cell (%d,%d) is not a date: %s", ErrSchema, rowIdx, cellIdx, cell.Value)
}
