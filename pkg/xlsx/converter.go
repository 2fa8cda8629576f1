package xlsx

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/ruslano69/penguinserve/pkg/dashboard"
	"github.com/ruslano69/penguinserve/pkg/penguins"
)

// DefaultSheet - имя листа, если не задано
const DefaultSheet = "Penguins"

// numFmts - формат Excel для форматов сетки
var numFmts = map[dashboard.Format]string{
	dashboard.FormatOneDec:  "0.0",
	dashboard.FormatNoDec:   "0",
	dashboard.FormatInteger: "0",
}

// Write - записывает отфильтрованную таблицу в XLSX
//
// Заголовки - подписи колонок сетки, числа пишутся числами с форматом
// колонки, отсутствующие значения - пустые ячейки.
//
// Example:
//
//	err := xlsx.Write(w, model.View, model.Grid.Columns, "Penguins")
func Write(w io.Writer, t *penguins.Table, cols []dashboard.Column, sheetName string) error {
	if t == nil {
		return fmt.Errorf("xlsx: nil table")
	}
	if len(cols) != len(t.Fields) {
		return fmt.Errorf("xlsx: %d columns for %d fields", len(cols), len(t.Fields))
	}

	f := excelize.NewFile()
	defer f.Close()

	if sheetName == "" {
		sheetName = DefaultSheet
	}

	// Create/rename sheet
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if sheetName != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("failed to drop default sheet: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	styles, err := columnStyles(f, cols)
	if err != nil {
		return err
	}

	for col, c := range cols {
		cell := columnName(col+1) + "1"
		if err := f.SetCellValue(sheetName, cell, c.Label); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for rowIdx, row := range t.Rows {
		for col, v := range row {
			if col >= len(cols) || !v.Valid {
				continue
			}
			cell := columnName(col+1) + strconv.Itoa(rowIdx+2)
			var value any = v.Text
			if cols[col].Numeric {
				value = v.Number
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("row %d: %w", rowIdx+1, err)
			}
			if style, ok := styles[col]; ok {
				if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
					return err
				}
			}
		}
	}

	for col, c := range cols {
		width := 12.0
		if len(c.Label)+2 > int(width) {
			width = float64(len(c.Label) + 2)
		}
		name := columnName(col + 1)
		if err := f.SetColWidth(sheetName, name, name, width); err != nil {
			return err
		}
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// columnStyles - стиль числового формата для каждой числовой колонки
func columnStyles(f *excelize.File, cols []dashboard.Column) (map[int]int, error) {
	byFmt := make(map[string]int)
	styles := make(map[int]int)
	for i, c := range cols {
		if !c.Numeric {
			continue
		}
		numFmt, ok := numFmts[c.Format]
		if !ok {
			numFmt = "General"
		}
		id, ok := byFmt[numFmt]
		if !ok {
			var err error
			id, err = f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
			if err != nil {
				return nil, fmt.Errorf("failed to create number style %q: %w", numFmt, err)
			}
			byFmt[numFmt] = id
		}
		styles[i] = id
	}
	return styles, nil
}

// columnName - convert column index to Excel column name (1 → A, 27 → AA)
func columnName(col int) string {
	name := ""
	for col > 0 {
		col--
		name = string(rune('A'+col%26)) + name
		col /= 26
	}
	return name
}
