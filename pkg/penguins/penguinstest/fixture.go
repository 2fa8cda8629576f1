// Package penguinstest строит детерминированные таблицы PENGUINS для тестов.
package penguinstest

import (
	"time"

	"github.com/ruslano69/penguinserve/pkg/penguins"
)

// Island/species layout of the Palmer dataset: 344 rows.
var layout = []struct {
	species string
	island  string
	count   int
}{
	{"Adelie", "Biscoe", 44},
	{"Adelie", "Dream", 56},
	{"Adelie", "Torgersen", 52},
	{"Chinstrap", "Dream", 68},
	{"Gentoo", "Biscoe", 124},
}

// Fields - колонки таблицы в порядке хранилища
func Fields() []penguins.Field {
	return []penguins.Field{
		{Name: penguins.ColSpecies, Kind: penguins.KindText},
		{Name: penguins.ColIsland, Kind: penguins.KindText},
		{Name: penguins.ColBillLength, Kind: penguins.KindNumber},
		{Name: penguins.ColBillDepth, Kind: penguins.KindNumber},
		{Name: penguins.ColFlipperLength, Kind: penguins.KindNumber},
		{Name: penguins.ColBodyMass, Kind: penguins.KindNumber},
		{Name: penguins.ColSex, Kind: penguins.KindText},
	}
}

// Palmer возвращает 344 строки: 3 вида, 3 острова, пол MALE/FEMALE
// чередуется, пропусков нет.
func Palmer() *penguins.Table {
	t := &penguins.Table{
		Fields:   Fields(),
		LoadedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	n := 0
	for _, l := range layout {
		for i := 0; i < l.count; i++ {
			sex := "MALE"
			if n%2 == 1 {
				sex = "FEMALE"
			}
			t.Rows = append(t.Rows, Row(l.species, l.island, sex,
				35+float64(n%20)*0.5, 15+float64(n%10)*0.3, 180+float64(n%40), 3000+float64(n%30)*50))
			n++
		}
	}
	return t
}

// Row собирает строку в порядке Fields()
func Row(species, island, sex string, billLength, billDepth, flipper, mass float64) penguins.Row {
	sexValue := penguins.Null
	if sex != "" {
		sexValue = penguins.Text(sex)
	}
	return penguins.Row{
		penguins.Text(species),
		penguins.Text(island),
		penguins.Number(billLength),
		penguins.Number(billDepth),
		penguins.Number(flipper),
		penguins.Number(mass),
		sexValue,
	}
}
