package xlsx

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/ruslano69/penguinserve/pkg/dashboard"
	"github.com/ruslano69/penguinserve/pkg/penguins"
	"github.com/ruslano69/penguinserve/pkg/penguins/penguinstest"
)

func TestWrite(t *testing.T) {
	table := &penguins.Table{
		Fields: penguinstest.Fields(),
		Rows: []penguins.Row{
			penguinstest.Row("Adelie", "Torgersen", "MALE", 39.14, 18.7, 181, 3750),
			penguinstest.Row("Gentoo", "Biscoe", "", 46.1, 13.2, 211, 4500),
		},
	}
	cols := dashboard.BuildGrid(table).Columns

	var buf bytes.Buffer
	if err := Write(&buf, table, cols, ""); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != DefaultSheet {
		t.Fatalf("sheets = %v", sheets)
	}

	header := []string{"Species", "Island", "Bill Length (mm)", "Bill Depth (mm)", "Flipper Length (mm)", "Body Mass (g)", "Sex"}
	for i, want := range header {
		got, _ := f.GetCellValue(DefaultSheet, columnName(i+1)+"1")
		if got != want {
			t.Errorf("header %d = %q, want %q", i, got, want)
		}
	}

	cases := map[string]string{
		"A2": "Adelie",
		"C2": "39.14",
		"F2": "3750",
		"G2": "MALE",
		"A3": "Gentoo",
		"G3": "", // отсутствующий пол
	}
	for cell, want := range cases {
		got, err := f.GetCellValue(DefaultSheet, cell, excelize.Options{RawCellValue: true})
		if err != nil {
			t.Fatalf("GetCellValue %s: %v", cell, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}

	// форматированное значение следует формату колонки
	if got, _ := f.GetCellValue(DefaultSheet, "C2"); got != "39.1" {
		t.Errorf("formatted C2 = %q, want 39.1", got)
	}
}

func TestWrite_EmptyView(t *testing.T) {
	table := &penguins.Table{Fields: penguinstest.Fields()}
	var buf bytes.Buffer
	if err := Write(&buf, table, dashboard.BuildGrid(table).Columns, "Empty"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Empty")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected header only, got %d rows", len(rows))
	}
}

func TestWrite_ColumnMismatch(t *testing.T) {
	table := &penguins.Table{Fields: penguinstest.Fields()}
	if err := Write(&bytes.Buffer{}, table, nil, ""); err == nil {
		t.Error("expected error for missing column descriptions")
	}
	if err := Write(&bytes.Buffer{}, nil, nil, ""); err == nil {
		t.Error("expected error for nil table")
	}
}

func TestColumnName(t *testing.T) {
	tests := map[int]string{1: "A", 7: "G", 26: "Z", 27: "AA", 52: "AZ", 53: "BA"}
	for col, want := range tests {
		if got := columnName(col); got != want {
			t.Errorf("columnName(%d) = %q, want %q", col, got, want)
		}
	}
}
