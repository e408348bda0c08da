package rawsource

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"leadcrm-engine/internal/domain"
	"leadcrm-engine/internal/table"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText returns b as UTF-8. Exports saved by spreadsheet tools on
// Windows arrive as Latin-1, so invalid UTF-8 is decoded as ISO-8859-1.
func DecodeText(b []byte) ([]byte, error) {
	b = bytes.TrimPrefix(b, utf8BOM)
	if utf8.Valid(b) {
		return b, nil
	}
	return charmap.ISO8859_1.NewDecoder().Bytes(b)
}

// ParseCSV reads a header row plus records. Ragged rows are allowed.
func ParseCSV(b []byte) (table.Table, error) {
	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	recs, err := r.ReadAll()
	if err != nil {
		return table.Table{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(recs) == 0 {
		return table.Table{}, errors.New("empty file")
	}
	return fromRows(recs), nil
}

func readCSV(path string) (table.Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return table.Table{}, err
	}
	b, err = DecodeText(b)
	if err != nil {
		return table.Table{}, fmt.Errorf("decode: %w", err)
	}
	return ParseCSV(b)
}

func readXLSX(path string) (table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return table.Table{}, err
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return table.Table{}, errors.New("no worksheet found")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return table.Table{}, err
	}
	if len(rows) == 0 {
		return table.Table{}, errors.New("worksheet is empty")
	}
	return fromRows(rows), nil
}

// readHTML turns a saved Maps results page into the same keyed columns the
// browser scraper produces: one row per result card, repeated classes
// numbered "W4Efsd", "W4Efsd 2", ...
func readHTML(path string) (table.Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return table.Table{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(b))
	if err != nil {
		return table.Table{}, fmt.Errorf("parse html: %w", err)
	}

	cards := doc.Find("div.Nv2PK")
	if cards.Length() == 0 {
		cards = doc.Find("a.hfpxzc").Parent()
	}
	if cards.Length() == 0 {
		return table.Table{}, errors.New("no result cards found")
	}

	var cols []string
	colIdx := map[string]int{}
	var recs []map[string]string

	add := func(rec map[string]string, key, val string) {
		if _, ok := colIdx[key]; !ok {
			colIdx[key] = len(cols)
			cols = append(cols, key)
		}
		rec[key] = val
	}

	cards.Each(func(_ int, card *goquery.Selection) {
		rec := map[string]string{}
		if a := card.Find("a.hfpxzc").First(); a.Length() > 0 {
			href, _ := a.Attr("href")
			add(rec, "hfpxzc href", href)
		}
		for _, class := range []string{"qBF1Pd", "MW4etd", "UY7F9", "ah5Ghc"} {
			if s := card.Find("." + class).First(); s.Length() > 0 {
				add(rec, class, s.Text())
			}
		}
		card.Find(".W4Efsd").Each(func(i int, s *goquery.Selection) {
			key := "W4Efsd"
			if i > 0 {
				key = fmt.Sprintf("W4Efsd %d", i+1)
			}
			add(rec, key, s.Text())
		})
		recs = append(recs, rec)
	})

	out := table.Table{Columns: cols}
	for _, rec := range recs {
		row := make([]string, len(cols))
		for k, v := range rec {
			row[colIdx[k]] = v
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func fromRows(rows [][]string) table.Table {
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	return table.Table{Columns: header, Rows: rows[1:]}
}

// CleanText collapses whitespace (including NBSP) to single spaces.
func CleanText(s string) string { return domain.CollapseSpace(s) }
