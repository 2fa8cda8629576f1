package main

import (
	"bytes"
	"fmt"
	"html"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ruslano69/penguinserve/pkg/dashboard"
)

const (
	barChartWidth  = 560
	barChartHeight = 320
	scatterWidth   = 1140
	scatterHeight  = 400
)

// speciesColors - цвета точек по видам; остальные берутся из палитры go-chart
var speciesColors = map[string]drawing.Color{
	"Adelie":    drawing.ColorFromHex("FF8C00"),
	"Chinstrap": drawing.ColorFromHex("A034F0"),
	"Gentoo":    drawing.ColorFromHex("159090"),
}

// barChartSVG рисует количество по категориям
func barChartSVG(title string, bars []dashboard.Bar) (string, error) {
	if len(bars) == 0 {
		return emptyChart(title, barChartWidth, barChartHeight), nil
	}

	values := make([]chart.Value, len(bars))
	maxCount := 0
	for i, b := range bars {
		values[i] = chart.Value{Label: b.Label, Value: float64(b.Count)}
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}

	c := chart.BarChart{
		Title:      title,
		Width:      barChartWidth,
		Height:     barChartHeight,
		BarWidth:   barWidth(len(bars)),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis: chart.YAxis{
			// диапазон от нуля, иначе go-chart не справится с одинаковыми значениями
			Range: &chart.ContinuousRange{Min: 0, Max: math.Ceil(float64(maxCount) * 1.1)},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Bars: values,
	}

	var buf bytes.Buffer
	if err := c.Render(chart.SVG, &buf); err != nil {
		return "", fmt.Errorf("render %q chart: %w", title, err)
	}
	return buf.String(), nil
}

func barWidth(n int) int {
	w := (barChartWidth - 80) / (n * 2)
	if w > 80 {
		return 80
	}
	if w < 8 {
		return 8
	}
	return w
}

// scatterSVG рисует длину плавника против массы, одна серия на вид
func scatterSVG(title string, groups []dashboard.Series) (string, error) {
	series := make([]chart.Series, 0, len(groups))
	xr, yr := newBounds(), newBounds()

	for i, g := range groups {
		if len(g.Points) == 0 {
			continue
		}
		xs := make([]float64, len(g.Points))
		ys := make([]float64, len(g.Points))
		for j, p := range g.Points {
			xs[j], ys[j] = p.X, p.Y
			xr.add(p.X)
			yr.add(p.Y)
		}
		color, ok := speciesColors[g.Name]
		if !ok {
			color = chart.GetDefaultColor(i)
		}
		series = append(series, chart.ContinuousSeries{
			Name:    g.Name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    3,
				DotColor:    color,
			},
		})
	}

	if len(series) == 0 {
		return emptyChart(title, scatterWidth, scatterHeight), nil
	}

	c := chart.Chart{
		Title:      title,
		Width:      scatterWidth,
		Height:     scatterHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "Flipper Length (mm)", Range: xr.padded()},
		YAxis:      chart.YAxis{Name: "Body Mass (g)", Range: yr.padded()},
		Series:     series,
	}
	c.Elements = []chart.Renderable{chart.Legend(&c)}

	var buf bytes.Buffer
	if err := c.Render(chart.SVG, &buf); err != nil {
		return "", fmt.Errorf("render %q chart: %w", title, err)
	}
	return buf.String(), nil
}

// bounds - минимум и максимум значений оси
type bounds struct {
	min, max float64
}

func newBounds() *bounds {
	return &bounds{min: math.Inf(1), max: math.Inf(-1)}
}

func (b *bounds) add(v float64) {
	b.min = math.Min(b.min, v)
	b.max = math.Max(b.max, v)
}

// padded - диапазон с отступом 5%; одна точка тоже дает ненулевой диапазон
func (b *bounds) padded() *chart.ContinuousRange {
	pad := (b.max - b.min) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(b.max)*0.05, 1)
	}
	return &chart.ContinuousRange{Min: b.min - pad, Max: b.max + pad}
}

// emptyChart - заглушка для пустой выборки
func emptyChart(title string, width, height int) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
		`<rect width="100%%" height="100%%" fill="#ffffff"/>`+
		`<text x="50%%" y="24" text-anchor="middle" font-family="sans-serif" font-size="14" fill="#333">%s</text>`+
		`<text x="50%%" y="50%%" text-anchor="middle" font-family="sans-serif" font-size="13" fill="#999">No data for the current selection</text>`+
		`</svg>`, width, height, width, height, html.EscapeString(title))
}
