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
	"math"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"
	"github.com/tealeg/xlsx/v3"

	"github.com/wrap-vault/wrapnav/common"
	"github.com/wrap-vault/wrapnav/dataframe"
	"github.com/wrap-vault/wrapnav/store"
)

func kst(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, common.GetTimezone())
}

// writeFixture builds an xlsx file with a populated price sheet and weight
// sheet the way the spreadsheet looks after manual editing
func writeFixture(path string) {
	file := xlsx.NewFile()

	prices, err := file.AddSheet("기준가")
	Expect(err).To(BeNil())

	header := prices.AddRow()
	header.AddCell().SetString("Date")
	header.AddCell().SetString("Wrap")
	header.AddCell().SetString("KOSPI")

	row := prices.AddRow()
	row.AddCell().SetString("2026-01-05")
	row.AddCell().SetFloat(1000)
	row.AddCell().SetFloat(2500)

	row = prices.AddRow()
	row.AddCell().SetString("2026-01-06")
	row.AddCell().SetFloat(1005)
	row.AddCell().SetString("")

	weights, err := file.AddSheet("NEW")
	Expect(err).To(BeNil())

	header = weights.AddRow()
	header.AddCell().SetString("날짜")
	header.AddCell().SetString("상품명")
	header.AddCell().SetString("코드")
	header.AddCell().SetString("종목명")
	header.AddCell().SetString("비중")

	row = weights.AddRow()
	row.AddCell().SetDate(kst(2026, time.January, 2))
	row.AddCell().SetString("Wrap")
	row.AddCell().SetString("5930")
	row.AddCell().SetString("삼성전자")
	row.AddCell().SetFloat(30)

	row = weights.AddRow()
	row.AddCell().SetDate(kst(2026, time.January, 2))
	row.AddCell().SetString("Wrap")
	row.AddCell().SetString("035420")
	row.AddCell().SetString("NAVER")
	row.AddCell().SetFloat(70)

	// rows without a code are remarks, not holdings
	row = weights.AddRow()
	row.AddCell().SetDate(kst(2026, time.January, 2))
	row.AddCell().SetString("Wrap")
	row.AddCell().SetString("")
	row.AddCell().SetString("메모")
	row.AddCell().SetFloat(0)

	Expect(file.Save(path)).To(Succeed())
}

var _ = Describe("Workbook", func() {
	var (
		dir  string
		path string
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "wrapnav")
		Expect(err).To(BeNil())

		path = filepath.Join(dir, "Wrap_NAV.xlsx")
		writeFixture(path)

		viper.Set("storage.file", path)
	})

	AfterEach(func() {
		os.RemoveAll(dir)
		viper.Set("storage.file", "")
	})

	Describe("Prices", func() {
		It("reads the price sheet into a date-indexed frame", func() {
			wb, err := store.Open()
			Expect(err).To(BeNil())

			df, err := wb.Prices()
			Expect(err).To(BeNil())

			Expect(df.Len()).To(Equal(2))
			Expect(df.ColNames).To(Equal([]string{"Wrap", "KOSPI"}))
			Expect(df.ValueAt(kst(2026, time.January, 5), "Wrap")).To(BeNumerically("~", 1000, 1e-9))
			Expect(df.ValueAt(kst(2026, time.January, 6), "Wrap")).To(BeNumerically("~", 1005, 1e-9))
		})

		It("reads blank cells as missing values", func() {
			wb, err := store.Open()
			Expect(err).To(BeNil())

			df, err := wb.Prices()
			Expect(err).To(BeNil())
			Expect(math.IsNaN(df.ValueAt(kst(2026, time.January, 6), "KOSPI"))).To(BeTrue())
		})

		It("returns a fresh frame for a header-only sheet", func() {
			file := xlsx.NewFile()
			sheet, err := file.AddSheet("기준가")
			Expect(err).To(BeNil())
			header := sheet.AddRow()
			header.AddCell().SetString("Date")
			header.AddCell().SetString("Wrap")
			Expect(file.Save(path)).To(Succeed())

			wb, err := store.Open()
			Expect(err).To(BeNil())

			df, err := wb.Prices()
			Expect(err).To(BeNil())
			Expect(df.Len()).To(Equal(0))
		})

		It("fails when the price sheet is absent", func() {
			file := xlsx.NewFile()
			_, err := file.AddSheet("다른시트")
			Expect(err).To(BeNil())
			Expect(file.Save(path)).To(Succeed())

			wb, err := store.Open()
			Expect(err).To(BeNil())

			_, err = wb.Prices()
			Expect(err).To(MatchError(store.ErrSheetMissing))
		})
	})

	Describe("Weights", func() {
		It("reads holdings and zero-pads short codes", func() {
			wb, err := store.Open()
			Expect(err).To(BeNil())

			entries, err := wb.Weights()
			Expect(err).To(BeNil())
			Expect(entries).To(HaveLen(2))

			Expect(entries[0].Code).To(Equal("005930"))
			Expect(entries[0].Portfolio).To(Equal("Wrap"))
			Expect(entries[0].Label).To(Equal("삼성전자"))
			Expect(entries[0].WeightPct).To(BeNumerically("~", 30, 1e-9))
			Expect(entries[0].Date.Equal(kst(2026, time.January, 2))).To(BeTrue())

			Expect(entries[1].Code).To(Equal("035420"))
		})

		It("fails when a required column is missing", func() {
			file := xlsx.NewFile()
			_, err := file.AddSheet("기준가")
			Expect(err).To(BeNil())
			sheet, err := file.AddSheet("NEW")
			Expect(err).To(BeNil())
			header := sheet.AddRow()
			header.AddCell().SetString("날짜")
			header.AddCell().SetString("상품명")
			header.AddCell().SetString("코드")
			row := sheet.AddRow()
			row.AddCell().SetString("2026-01-02")
			row.AddCell().SetString("Wrap")
			row.AddCell().SetString("005930")
			Expect(file.Save(path)).To(Succeed())

			wb, err := store.Open()
			Expect(err).To(BeNil())

			_, err = wb.Weights()
			Expect(err).To(MatchError(store.ErrSchema))
		})

		It("falls back to the first sheet when NEW is absent", func() {
			file := xlsx.NewFile()
			sheet, err := file.AddSheet("OLD")
			Expect(err).To(BeNil())
			header := sheet.AddRow()
			for _, name := range []string{"날짜", "상품명", "코드", "종목명", "비중"} {
				header.AddCell().SetString(name)
			}
			row := sheet.AddRow()
			row.AddCell().SetString("2026-01-02")
			row.AddCell().SetString("Wrap")
			row.AddCell().SetString("005930")
			row.AddCell().SetString("삼성전자")
			row.AddCell().SetFloat(100)
			Expect(file.Save(path)).To(Succeed())

			wb, err := store.Open()
			Expect(err).To(BeNil())

			entries, err := wb.Weights()
			Expect(err).To(BeNil())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Code).To(Equal("005930"))
		})
	})

	Describe("Returns", func() {
		It("yields an empty table when the sheet does not exist", func() {
			wb, err := store.Open()
			Expect(err).To(BeNil())

			table, err := wb.Returns()
			Expect(err).To(BeNil())
			Expect(table.Rows).To(BeEmpty())
		})
	})

	Describe("Save", func() {
		It("round-trips staged price and return sheets", func() {
			wb, err := store.Open()
			Expect(err).To(BeNil())

			df := dataframe.New()
			df.SetValue(kst(2026, time.January, 5), "Wrap", 1000)
			df.SetValue(kst(2026, time.January, 6), "Wrap", 1005.5)
			wb.SetPrices(df)

			table := store.NewReturnsTable()
			table.Header = []string{"날짜", "Wrap_1D"}
			table.Rows = [][]string{{"2026-01-06", "0.5%"}}
			wb.SetReturns(table)

			Expect(wb.Save()).To(Succeed())

			wb2, err := store.Open()
			Expect(err).To(BeNil())

			df2, err := wb2.Prices()
			Expect(err).To(BeNil())
			Expect(df2.Len()).To(Equal(2))
			Expect(df2.ValueAt(kst(2026, time.January, 6), "Wrap")).To(BeNumerically("~", 1005.5, 1e-9))

			table2, err := wb2.Returns()
			Expect(err).To(BeNil())
			Expect(table2.Rows).To(HaveLen(1))
			Expect(table2.Rows[0][0]).To(Equal("2026-01-06"))
			Expect(table2.Rows[0][1]).To(Equal("0.5%"))
		})

		It("preserves untouched sheets", func() {
			wb, err := store.Open()
			Expect(err).To(BeNil())

			table := store.NewReturnsTable()
			table.Rows = [][]string{{"2026-01-06"}}
			wb.SetReturns(table)
			Expect(wb.Save()).To(Succeed())

			wb2, err := store.Open()
			Expect(err).To(BeNil())

			entries, err := wb2.Weights()
			Expect(err).To(BeNil())
			Expect(entries).To(HaveLen(2))

			df, err := wb2.Prices()
			Expect(err).To(BeNil())
			Expect(df.Len()).To(Equal(2))
		})
	})
})
