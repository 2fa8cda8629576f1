package dashboard

import (
	"sort"

	"github.com/ruslano69/penguinserve/pkg/penguins"
)

// Bar - одна категория столбчатой диаграммы
type Bar struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Point - точка диаграммы рассеяния
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series - точки одного вида
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Charts - данные трех диаграмм
type Charts struct {
	Species []Bar    `json:"species"`
	Islands []Bar    `json:"islands"`
	Scatter []Series `json:"scatter"` // x - длина плавника, y - масса
}

// Empty сообщает, что строить нечего
func (c Charts) Empty() bool {
	return len(c.Species) == 0 && len(c.Islands) == 0 && len(c.Scatter) == 0
}

// BuildCharts считает количество по видам и островам и собирает точки
// плавник/масса по видам. Строки без одного из измерений в рассеяние не входят.
func BuildCharts(t *penguins.Table) (Charts, error) {
	species, err := t.Column(penguins.ColSpecies)
	if err != nil {
		return Charts{}, err
	}
	island, err := t.Column(penguins.ColIsland)
	if err != nil {
		return Charts{}, err
	}
	flipper, err := t.Column(penguins.ColFlipperLength)
	if err != nil {
		return Charts{}, err
	}
	mass, err := t.Column(penguins.ColBodyMass)
	if err != nil {
		return Charts{}, err
	}

	return Charts{
		Species: countBy(t, species),
		Islands: countBy(t, island),
		Scatter: scatter(t, species, flipper, mass),
	}, nil
}

// countBy - количество строк по значению колонки, по возрастанию метки
func countBy(t *penguins.Table, col int) []Bar {
	counts := make(map[string]int)
	for _, row := range t.Rows {
		if v := row[col]; v.Valid {
			counts[v.Text]++
		}
	}
	bars := make([]Bar, 0, len(counts))
	for label, n := range counts {
		bars = append(bars, Bar{Label: label, Count: n})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Label < bars[j].Label })
	return bars
}

func scatter(t *penguins.Table, species, x, y int) []Series {
	groups := make(map[string][]Point)
	for _, row := range t.Rows {
		s, xv, yv := row[species], row[x], row[y]
		if !s.Valid || !xv.Valid || !yv.Valid {
			continue
		}
		groups[s.Text] = append(groups[s.Text], Point{X: xv.Number, Y: yv.Number})
	}

	series := make([]Series, 0, len(groups))
	for name, points := range groups {
		series = append(series, Series{Name: name, Points: points})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Name < series[j].Name })
	return series
}
