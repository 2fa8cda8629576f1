package penguins

import (
	"fmt"
	"time"
)

// Имена колонок таблицы PENGUINS
const (
	ColSpecies       = "SPECIES"
	ColIsland        = "ISLAND"
	ColSex           = "SEX"
	ColBillLength    = "BILL_LENGTH_MM"
	ColBillDepth     = "BILL_DEPTH_MM"
	ColFlipperLength = "FLIPPER_LENGTH_MM"
	ColBodyMass      = "BODY_MASS_G"
)

// FieldKind - тип колонки после загрузки
type FieldKind string

const (
	KindText   FieldKind = "text"
	KindNumber FieldKind = "number"
)

// Field описывает одну колонку таблицы
type Field struct {
	Name string    `json:"name"`
	Kind FieldKind `json:"kind"`
}

// Value - ячейка таблицы. Valid=false означает NULL.
// Для KindNumber заполнено Number, для KindText - Text.
type Value struct {
	Text   string  `json:"t,omitempty"`
	Number float64 `json:"n,omitempty"`
	Valid  bool    `json:"v"`
}

// Text создает текстовое значение
func Text(s string) Value {
	return Value{Text: s, Valid: true}
}

// Number создает числовое значение
func Number(f float64) Value {
	return Value{Number: f, Valid: true}
}

// Null - отсутствующее значение
var Null = Value{}

// Row - строка таблицы; порядок значений совпадает с Table.Fields
type Row []Value

// Table - Observation Table: все колонки и все строки PENGUINS в памяти.
// После загрузки таблица не изменяется; фильтрация создает новую Table.
type Table struct {
	Fields   []Field   `json:"fields"`
	Rows     []Row     `json:"rows"`
	LoadedAt time.Time `json:"loaded_at"`
}

// ColumnError - в таблице нет ожидаемой колонки
type ColumnError struct {
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %q not found in table", e.Column)
}

// Column возвращает индекс колонки по имени
func (t *Table) Column(name string) (int, error) {
	for i, f := range t.Fields {
		if f.Name == name {
			return i, nil
		}
	}
	return -1, &ColumnError{Column: name}
}

// Len возвращает количество строк
func (t *Table) Len() int {
	return len(t.Rows)
}

// Subset возвращает новую таблицу из строк с указанными индексами.
// Строки не копируются: исходная таблица неизменяема.
func (t *Table) Subset(indices []int) *Table {
	rows := make([]Row, 0, len(indices))
	for _, i := range indices {
		rows = append(rows, t.Rows[i])
	}
	return &Table{
		Fields:   t.Fields,
		Rows:     rows,
		LoadedAt: t.LoadedAt,
	}
}
