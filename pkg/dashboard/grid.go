package dashboard

import (
	"fmt"
	"math"
	"strconv"

	"github.com/ruslano69/penguinserve/pkg/penguins"
)

// Format - способ отображения числовой колонки
type Format string

const (
	FormatText    Format = ""     // как есть
	FormatOneDec  Format = "%.1f" // длина и глубина клюва
	FormatNoDec   Format = "%.0f" // длина плавника
	FormatInteger Format = "%d"   // масса
)

// columnStyle - подпись и формат известной колонки
type columnStyle struct {
	label  string
	format Format
}

var columnStyles = map[string]columnStyle{
	penguins.ColSpecies:       {"Species", FormatText},
	penguins.ColIsland:        {"Island", FormatText},
	penguins.ColBillLength:    {"Bill Length (mm)", FormatOneDec},
	penguins.ColBillDepth:     {"Bill Depth (mm)", FormatOneDec},
	penguins.ColFlipperLength: {"Flipper Length (mm)", FormatNoDec},
	penguins.ColBodyMass:      {"Body Mass (g)", FormatInteger},
	penguins.ColSex:           {"Sex", FormatText},
}

// Column - колонка сетки
type Column struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Format  Format `json:"format,omitempty"`
	Numeric bool   `json:"numeric"`
}

// Grid - все строки и все колонки таблицы, отформатированные для показа
type Grid struct {
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// BuildGrid форматирует таблицу без изменения данных.
// Колонки без заданного стиля показываются под своим именем.
func BuildGrid(t *penguins.Table) Grid {
	cols := make([]Column, len(t.Fields))
	for i, f := range t.Fields {
		style, ok := columnStyles[f.Name]
		if !ok {
			style = columnStyle{label: f.Name}
		}
		cols[i] = Column{
			Name:    f.Name,
			Label:   style.label,
			Format:  style.format,
			Numeric: f.Kind == penguins.KindNumber,
		}
	}

	rows := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		cells := make([]string, len(cols))
		for i, v := range row {
			cells[i] = FormatValue(v, cols[i])
		}
		rows[r] = cells
	}
	return Grid{Columns: cols, Rows: rows}
}

// FormatValue форматирует одну ячейку; отсутствующее значение - пустая строка
func FormatValue(v penguins.Value, c Column) string {
	if !v.Valid {
		return ""
	}
	if !c.Numeric {
		return v.Text
	}
	switch c.Format {
	case FormatOneDec, FormatNoDec:
		return fmt.Sprintf(string(c.Format), v.Number)
	case FormatInteger:
		return strconv.FormatInt(int64(math.Round(v.Number)), 10)
	default:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
}
