package filter

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/ruslano69/penguinserve/pkg/penguins"
)

// Параметры формы фильтров
const (
	ParamSpecies = "species"
	ParamIsland  = "island"
	ParamSex     = "sex"

	// ParamApplied - маркер отправленной формы. Без него действует выбор
	// по умолчанию; с ним пустое измерение означает "ничего не выбрано".
	ParamApplied = "applied"
)

// Options - доступные значения фильтров, отсортированные и без повторов
type Options struct {
	Species []string `json:"species"`
	Islands []string `json:"islands"`
	Sexes   []string `json:"sexes"`
}

// DeriveOptions собирает значения фильтров из таблицы.
// Отсутствующий пол в варианты не попадает.
func DeriveOptions(t *penguins.Table) (Options, error) {
	cols, err := resolve(t)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Species: distinct(t, cols.species),
		Islands: distinct(t, cols.island),
		Sexes:   distinct(t, cols.sex),
	}, nil
}

// Default возвращает выбор "все варианты отмечены"
func (o Options) Default() Selection {
	return Selection{
		Species: NewSet(o.Species...),
		Islands: NewSet(o.Islands...),
		Sexes:   NewSet(o.Sexes...),
	}
}

// Selection - текущий выбор пользователя по трем измерениям
type Selection struct {
	Species Set `json:"species"`
	Islands Set `json:"islands"`
	Sexes   Set `json:"sexes"`
}

// ParseSelection читает выбор из параметров запроса
func ParseSelection(q url.Values, o Options) Selection {
	if _, ok := q[ParamApplied]; !ok {
		return o.Default()
	}
	return Selection{
		Species: NewSet(q[ParamSpecies]...),
		Islands: NewSet(q[ParamIsland]...),
		Sexes:   NewSet(q[ParamSex]...),
	}
}

// Query кодирует выбор обратно в параметры запроса (для ссылок экспорта)
func (s Selection) Query() url.Values {
	q := url.Values{}
	q.Set(ParamApplied, "1")
	for _, v := range s.Species.Sorted() {
		q.Add(ParamSpecies, v)
	}
	for _, v := range s.Islands.Sorted() {
		q.Add(ParamIsland, v)
	}
	for _, v := range s.Sexes.Sorted() {
		q.Add(ParamSex, v)
	}
	return q
}

// Apply возвращает строки, у которых species, island и sex входят в выбор.
// Пустое множество в любом измерении дает пустой результат без ошибки.
// Строка с отсутствующим значением не совпадает ни с одним множеством.
func Apply(t *penguins.Table, s Selection) (*penguins.Table, error) {
	cols, err := resolve(t)
	if err != nil {
		return nil, err
	}

	indices := make([]int, 0, len(t.Rows))
	for i, row := range t.Rows {
		if member(s.Species, row[cols.species]) &&
			member(s.Islands, row[cols.island]) &&
			member(s.Sexes, row[cols.sex]) {
			indices = append(indices, i)
		}
	}
	return t.Subset(indices), nil
}

type columns struct {
	species, island, sex int
}

func resolve(t *penguins.Table) (columns, error) {
	if t == nil {
		return columns{}, fmt.Errorf("filter: nil table")
	}
	var c columns
	var err error
	if c.species, err = t.Column(penguins.ColSpecies); err != nil {
		return columns{}, err
	}
	if c.island, err = t.Column(penguins.ColIsland); err != nil {
		return columns{}, err
	}
	if c.sex, err = t.Column(penguins.ColSex); err != nil {
		return columns{}, err
	}
	return c, nil
}

func member(set Set, v penguins.Value) bool {
	return v.Valid && set.Has(v.Text)
}

func distinct(t *penguins.Table, col int) []string {
	seen := make(map[string]struct{})
	for _, row := range t.Rows {
		if v := row[col]; v.Valid {
			seen[v.Text] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
