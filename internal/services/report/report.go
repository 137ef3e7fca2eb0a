// Package report renders a ResultTable as CSV or as an xlsx workbook.
// Undefined values are written as empty cells, never as zero.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"GlobalLiquidity/internal/domain/models"

	"github.com/xuri/excelize/v2"
)

const (
	DataSheet = "liquidity"
	MetaSheet = "meta"

	dateLayout = "2006-01-02"
)

func header() []string {
	return append([]string{"date"}, models.Columns...)
}

func format(v models.Value) string {
	if !v.OK {
		return ""
	}
	return strconv.FormatFloat(v.V, 'f', -1, 64)
}

// WriteCSV writes one line per row with a header line.
func WriteCSV(w io.Writer, t *models.ResultTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header()); err != nil {
		return err
	}
	for _, r := range t.Rows {
		rec := []string{r.Date.Format(dateLayout)}
		for _, col := range models.Columns {
			rec = append(rec, format(r.Get(col)))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the rows to the "liquidity" sheet and run metadata,
// failures and warnings to the "meta" sheet.
func WriteXLSX(w io.Writer, t *models.ResultTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DataSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRows(f, t); err != nil {
		return err
	}
	if err := writeMeta(f, t); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, t *models.ResultTable) error {
	head := header()
	row := make([]interface{}, len(head))
	for i, h := range head {
		row[i] = h
	}
	if err := f.SetSheetRow(DataSheet, "A1", &row); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range t.Rows {
		line := []interface{}{r.Date.Format(dateLayout)}
		for _, col := range models.Columns {
			if v := r.Get(col); v.OK {
				line = append(line, v.V)
			} else {
				line = append(line, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(DataSheet, cell, &line); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	return f.SetPanes(DataSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeMeta(f *excelize.File, t *models.ResultTable) error {
	if _, err := f.NewSheet(MetaSheet); err != nil {
		return fmt.Errorf("create meta sheet: %w", err)
	}
	meta := [][]interface{}{
		{"run_id", t.RunID},
		{"computed_at", t.ComputedAt.UTC().Format("2006-01-02T15:04:05Z")},
		{"lookback_years", t.LookbackYears},
		{"m2_shift_months", t.ShiftMonths},
		{"divisor", t.Divisor},
	}

	ids := make([]string, 0, len(t.Failures))
	for id := range t.Failures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		meta = append(meta, []interface{}{"failure", id, t.Failures[id]})
	}
	for _, w := range t.Warnings {
		meta = append(meta, []interface{}{"warning", w})
	}

	for i, line := range meta {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(MetaSheet, cell, &line); err != nil {
			return fmt.Errorf("write meta: %w", err)
		}
	}
	return nil
}
