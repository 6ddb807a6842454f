package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/esencia/internal/domain/materials"
)

const headerRow = 4

// SheetName is the name of the sheet holding page n (1-based).
func SheetName(n int) string { return fmt.Sprintf("Ventas %d", n) }

// WriteXLSX writes one sheet per page. The totals go under the last page.
func WriteXLSX(w io.Writer, rep Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	pages := rep.Pages
	if len(pages) == 0 {
		pages = []Page{{Number: 1}}
	}

	first := f.GetSheetName(f.GetActiveSheetIndex())
	for i, p := range pages {
		sheet := SheetName(p.Number)
		if i == 0 {
			if err := f.SetSheetName(first, sheet); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("new sheet %s: %w", sheet, err)
		}

		last, err := writePage(f, sheet, rep, p, len(pages))
		if err != nil {
			return err
		}
		if i == len(pages)-1 {
			if err := writeTotals(f, sheet, last+2, rep.Totals); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// writePage returns the last row written.
func writePage(f *excelize.File, sheet string, rep Report, p Page, pageCount int) (int, error) {
	title := []interface{}{rep.Title}
	if err := f.SetSheetRow(sheet, "A1", &title); err != nil {
		return 0, fmt.Errorf("%s title: %w", sheet, err)
	}
	meta := []interface{}{
		"Generado: " + rep.GeneratedAt.Format("02/01/2006 15:04"),
		fmt.Sprintf("Página %d de %d", p.Number, pageCount),
	}
	if err := f.SetSheetRow(sheet, "A2", &meta); err != nil {
		return 0, fmt.Errorf("%s meta: %w", sheet, err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := setRow(f, sheet, headerRow, header); err != nil {
		return 0, err
	}

	row := headerRow + 1
	for _, r := range p.Rows {
		price, _ := r.Price.Float64()
		profit, _ := r.Profit.Float64()
		excelRow := []interface{}{
			r.Date,
			r.Client,
			r.Product,
			r.Units,
			price,
			profit,
			FormatPercent(r.Margin),
		}
		if err := setRow(f, sheet, row, excelRow); err != nil {
			return 0, err
		}
		row++
	}
	if err := f.SetColWidth(sheet, "A", "G", 14); err != nil {
		return 0, fmt.Errorf("%s widths: %w", sheet, err)
	}
	return row - 1, nil
}

func writeTotals(f *excelize.File, sheet string, row int, t Totals) error {
	lines := [][]interface{}{
		{"Ventas", t.Count},
		{"Unidades", t.Units},
		{"Total vendido", FormatMoney(t.Sold)},
		{"Ganancia total", FormatMoney(t.Profit)},
		{"Margen", FormatPercent(t.Margin)},
	}
	for i, l := range lines {
		if err := setRow(f, sheet, row+i, l); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
	return nil
}

// PriceColumns is the layout of the material price sheet. Only precio is
// read back on import.
var PriceColumns = []string{"id", "nombre", "proveedor", "cantidadPorEnvase", "unidad", "precio"}

// WritePriceSheet exports the materials so prices can be edited offline.
func WritePriceSheet(w io.Writer, list []materials.Material) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	header := make([]interface{}, len(PriceColumns))
	for i, c := range PriceColumns {
		header[i] = c
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, m := range list {
		excelRow := []interface{}{m.ID, m.Name, m.Supplier, m.PackageSize, string(m.PackageUnit), m.Price}
		if err := setRow(f, sheet, i+2, excelRow); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// PriceUpdate is one edited row of a price sheet.
type PriceUpdate struct {
	MaterialID string  `json:"id"`
	Price      float64 `json:"precio"`
}

// ReadPriceSheet parses a sheet produced by WritePriceSheet. Rows with an
// empty id or an empty price are skipped; decimal commas are accepted.
func ReadPriceSheet(r io.Reader) ([]PriceUpdate, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 || len(rows[0]) < len(PriceColumns) {
		return nil, fmt.Errorf("expected %d columns (%s)", len(PriceColumns), strings.Join(PriceColumns, ", "))
	}

	priceCol := len(PriceColumns) - 1
	var out []PriceUpdate
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) <= priceCol {
			continue
		}
		id := strings.TrimSpace(row[0])
		raw := strings.TrimSpace(row[priceCol])
		if id == "" || raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("row %d: invalid price %q", i+1, raw)
		}
		out = append(out, PriceUpdate{MaterialID: id, Price: v})
	}
	return out, nil
}

// FileName is the download name of a report generated at t.
func FileName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", prefix, t.Format("20060102_150405"))
}
