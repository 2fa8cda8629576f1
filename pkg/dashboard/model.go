package dashboard

import (
	"fmt"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ruslano69/penguinserve/pkg/filter"
	"github.com/ruslano69/penguinserve/pkg/penguins"
)

// RenderModel - все, что нужно странице, без привязки к HTML
type RenderModel struct {
	Options   filter.Options   `json:"options"`
	Selection filter.Selection `json:"selection"`
	Summary   Summary          `json:"summary"`
	Charts    Charts           `json:"charts"`
	Grid      Grid             `json:"grid"`
	Shown     int              `json:"shown"`
	Total     int              `json:"total"`
	LoadedAt  time.Time        `json:"loaded_at"`

	// View - отфильтрованная таблица для экспорта
	View *penguins.Table `json:"-"`
}

// ShowingLabel - "Showing 152 of 344 penguins"
func (m RenderModel) ShowingLabel() string {
	return fmt.Sprintf("Showing %s of %s penguins",
		humanize.Comma(int64(m.Shown)), humanize.Comma(int64(m.Total)))
}

// Build - чистая функция (таблица, выбор) -> RenderModel.
// Таблица не изменяется.
func Build(t *penguins.Table, sel filter.Selection) (RenderModel, error) {
	if t == nil {
		return RenderModel{}, fmt.Errorf("dashboard: no table")
	}
	options, err := filter.DeriveOptions(t)
	if err != nil {
		return RenderModel{}, err
	}
	return build(t, options, sel)
}

// BuildQuery разбирает выбор из параметров запроса и собирает модель
func BuildQuery(t *penguins.Table, q url.Values) (RenderModel, error) {
	if t == nil {
		return RenderModel{}, fmt.Errorf("dashboard: no table")
	}
	options, err := filter.DeriveOptions(t)
	if err != nil {
		return RenderModel{}, err
	}
	return build(t, options, filter.ParseSelection(q, options))
}

func build(t *penguins.Table, options filter.Options, sel filter.Selection) (RenderModel, error) {
	view, err := filter.Apply(t, sel)
	if err != nil {
		return RenderModel{}, err
	}

	summary, err := Summarize(view)
	if err != nil {
		return RenderModel{}, err
	}

	charts, err := BuildCharts(view)
	if err != nil {
		return RenderModel{}, err
	}

	return RenderModel{
		Options:   options,
		Selection: sel,
		Summary:   summary,
		Charts:    charts,
		Grid:      BuildGrid(view),
		Shown:     view.Len(),
		Total:     t.Len(),
		LoadedAt:  t.LoadedAt,
		View:      view,
	}, nil
}
