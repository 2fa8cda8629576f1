package dashboard

import (
	"encoding/json"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/ruslano69/penguinserve/pkg/penguins"
)

// Summary - четыре метрики над отфильтрованной таблицей
type Summary struct {
	Count        int
	Species      int
	Islands      int
	MeanBodyMass float64 // NaN, если нет ни одного значения
}

// Summarize считает метрики. Пустая таблица дает нули и NaN без ошибки.
// Среднее пропускает отсутствующие значения массы.
func Summarize(t *penguins.Table) (Summary, error) {
	species, err := t.Column(penguins.ColSpecies)
	if err != nil {
		return Summary{}, err
	}
	island, err := t.Column(penguins.ColIsland)
	if err != nil {
		return Summary{}, err
	}
	mass, err := t.Column(penguins.ColBodyMass)
	if err != nil {
		return Summary{}, err
	}

	speciesSeen := make(map[string]struct{})
	islandsSeen := make(map[string]struct{})
	var sum float64
	var n int

	for _, row := range t.Rows {
		if v := row[species]; v.Valid {
			speciesSeen[v.Text] = struct{}{}
		}
		if v := row[island]; v.Valid {
			islandsSeen[v.Text] = struct{}{}
		}
		if v := row[mass]; v.Valid {
			sum += v.Number
			n++
		}
	}

	mean := math.NaN()
	if n > 0 {
		mean = sum / float64(n)
	}

	return Summary{
		Count:        t.Len(),
		Species:      len(speciesSeen),
		Islands:      len(islandsSeen),
		MeanBodyMass: mean,
	}, nil
}

// CountLabel - "1,234"
func (s Summary) CountLabel() string {
	return humanize.Comma(int64(s.Count))
}

// MassLabel - "4,202g"; неопределенное среднее выводится как "NaN g"
func (s Summary) MassLabel() string {
	if math.IsNaN(s.MeanBodyMass) {
		return "NaN g"
	}
	return humanize.Comma(int64(math.Round(s.MeanBodyMass))) + "g"
}

// MarshalJSON кодирует NaN как null
func (s Summary) MarshalJSON() ([]byte, error) {
	var mean *float64
	if !math.IsNaN(s.MeanBodyMass) {
		m := s.MeanBodyMass
		mean = &m
	}
	return json.Marshal(struct {
		Count        int      `json:"count"`
		Species      int      `json:"species"`
		Islands      int      `json:"islands"`
		MeanBodyMass *float64 `json:"mean_body_mass_g"`
		CountLabel   string   `json:"count_label"`
		MassLabel    string   `json:"mass_label"`
	}{s.Count, s.Species, s.Islands, mean, s.CountLabel(), s.MassLabel()})
}
