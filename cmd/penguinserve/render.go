package main

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/ruslano69/penguinserve/pkg/dashboard"
	"github.com/ruslano69/penguinserve/pkg/filter"
	"github.com/ruslano69/penguinserve/pkg/warehouse"
)

// badge - подпись и цвета значка режима развертывания
type badge struct {
	label, color, background string
}

var badges = map[warehouse.Mode]badge{
	warehouse.ModeAWS:    {"&#x2601;&#xFE0F; AWS App Runner", "#FF9900", "#FFF8E7"},
	warehouse.ModeDocker: {"&#x1F433; Docker", "#2496ED", "#E7F5FF"},
	warehouse.ModeLocal:  {"&#x1F4BB; Local Dev", "#22C55E", "#E7FFF0"},
}

var unknownBadge = badge{"&#x1F527; Unknown", "#666", "#F5F5F5"}

const palmerURL = "https://allisonhorst.github.io/palmerpenguins/"

// ─────────────────────────────────────────────────────────────────────────────
// HTML rendering - dashboard page
// ─────────────────────────────────────────────────────────────────────────────

func (s *Server) renderDashboard(m dashboard.RenderModel) (string, error) {
	speciesSVG, err := barChartSVG("Species Distribution", m.Charts.Species)
	if err != nil {
		return "", err
	}
	islandSVG, err := barChartSVG("Penguins by Island", m.Charts.Islands)
	if err != nil {
		return "", err
	}
	scatter, err := scatterSVG("Body Mass vs Flipper Length", m.Charts.Scatter)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	writeHead(&b, s.cfg.Server.Name)
	b.WriteString(`<div class="layout">`)
	writeSidebar(&b, m)
	b.WriteString(`<main class="main">`)
	writeHeader(&b, s.svc.Mode())

	// Metrics
	b.WriteString(`<div class="metrics">`)
	writeMetric(&b, "Total Penguins", m.Summary.CountLabel())
	writeMetric(&b, "Species", strconv.Itoa(m.Summary.Species))
	writeMetric(&b, "Islands", strconv.Itoa(m.Summary.Islands))
	writeMetric(&b, "Avg Body Mass", m.Summary.MassLabel())
	b.WriteString(`</div><hr>`)

	// Charts
	b.WriteString(`<div class="charts">`)
	b.WriteString(`<div class="chart"><h4>&#x1F4CA; Species Distribution</h4>` + speciesSVG + `</div>`)
	b.WriteString(`<div class="chart"><h4>&#x1F3DD;&#xFE0F; Penguins by Island</h4>` + islandSVG + `</div>`)
	b.WriteString(`</div>`)
	b.WriteString(`<div class="chart wide"><h4>&#x1F4CF; Body Mass vs Flipper Length</h4>` + scatter + `</div><hr>`)

	// Data table
	writeGrid(&b, m)

	b.WriteString(`<hr>`)
	writeFooter(&b, s.svc.Mode())
	b.WriteString(`</main></div></body></html>`)

	return b.String(), nil
}

// renderError - страница отказа: заголовок, ошибка, чек-лист (только AWS), подсказка
func (s *Server) renderError(d dashboard.Diagnostics) string {
	var b strings.Builder
	writeHead(&b, s.cfg.Server.Name)
	b.WriteString(`<div class="layout"><main class="main">`)
	writeHeader(&b, s.svc.Mode())

	b.WriteString(`<div class="alert alert-error">` + html.EscapeString(d.Message) + `</div>`)
	if len(d.Checklist) > 0 {
		b.WriteString(`<div class="alert alert-warning"><strong>` + html.EscapeString(d.ChecklistTitle) + `</strong><ul>`)
		for _, item := range d.Checklist {
			b.WriteString(`<li>` + html.EscapeString(item) + `</li>`)
		}
		b.WriteString(`</ul></div>`)
	}
	b.WriteString(`<div class="alert alert-info">` + html.EscapeString(d.Hint) + `</div>`)

	b.WriteString(`</main></div></body></html>`)
	return b.String()
}

func writeHead(b *strings.Builder, title string) {
	b.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<link rel="icon" href="data:image/svg+xml,<svg xmlns=%22http://www.w3.org/2000/svg%22 viewBox=%220 0 100 100%22><text y=%22.9em%22 font-size=%2290%22>&#x1F427;</text></svg>">
<title>` + html.EscapeString(title) + `</title>
` + commonCSS() + `
</head>
<body>
`)
}

func writeHeader(b *strings.Builder, mode warehouse.Mode) {
	bd, ok := badges[mode]
	if !ok {
		bd = unknownBadge
	}
	b.WriteString(`<div class="hero">`)
	b.WriteString(fmt.Sprintf(`<span class="badge" style="background:%s;color:%s;">%s</span>`,
		bd.background, bd.color, bd.label))
	b.WriteString(`<h1>&#x1F427; Palmer Penguins Explorer</h1>`)
	b.WriteString(`<p>Explore penguin measurements from the Palmer Archipelago, Antarctica. ` +
		`Data includes three species: Adelie, Chinstrap, and Gentoo.</p>`)
	b.WriteString(`</div>`)
}

func writeSidebar(b *strings.Builder, m dashboard.RenderModel) {
	b.WriteString(`<aside class="sidebar">`)
	b.WriteString(`<h3>&#x1F50D; Filters</h3>`)
	b.WriteString(`<form method="GET" action="/">`)
	b.WriteString(`<input type="hidden" name="` + filter.ParamApplied + `" value="1">`)
	writeOptionGroup(b, "Species", filter.ParamSpecies, m.Options.Species, m.Selection.Species)
	writeOptionGroup(b, "Island", filter.ParamIsland, m.Options.Islands, m.Selection.Islands)
	writeOptionGroup(b, "Sex", filter.ParamSex, m.Options.Sexes, m.Selection.Sexes)
	b.WriteString(`<div class="actions">`)
	b.WriteString(`<button class="btn btn-primary" type="submit">Apply</button>`)
	b.WriteString(`<a class="btn btn-ghost" href="/">Reset</a>`)
	b.WriteString(`</div>`)
	b.WriteString(`</form><hr>`)
	b.WriteString(`<p class="showing"><strong>` + html.EscapeString(m.ShowingLabel()) + `</strong></p>`)
	b.WriteString(`<p class="export"><a href="/export.xlsx?` + html.EscapeString(m.Selection.Query().Encode()) + `">&#x2B07;&#xFE0F; Download XLSX</a></p>`)
	b.WriteString(`</aside>`)
}

func writeOptionGroup(b *strings.Builder, label, param string, options []string, selected filter.Set) {
	b.WriteString(`<fieldset class="options"><legend>` + html.EscapeString(label) + `</legend>`)
	for _, opt := range options {
		checked := ""
		if selected.Has(opt) {
			checked = " checked"
		}
		b.WriteString(`<label class="option"><input type="checkbox" name="` + param +
			`" value="` + html.EscapeString(opt) + `"` + checked + `> ` + html.EscapeString(opt) + `</label>`)
	}
	b.WriteString(`</fieldset>`)
}

func writeMetric(b *strings.Builder, label, value string) {
	b.WriteString(`<div class="metric">`)
	b.WriteString(`<span class="metric-label">` + html.EscapeString(label) + `</span>`)
	b.WriteString(`<span class="metric-value">` + html.EscapeString(value) + `</span>`)
	b.WriteString(`</div>`)
}

func writeGrid(b *strings.Builder, m dashboard.RenderModel) {
	b.WriteString(`<h4>&#x1F4CB; Data Table</h4>`)
	b.WriteString(`<div class="data-wrapper"><table class="data-table"><thead><tr>`)
	for _, c := range m.Grid.Columns {
		b.WriteString(`<th>` + html.EscapeString(c.Label) + `</th>`)
	}
	b.WriteString(`</tr></thead><tbody>`)
	for _, row := range m.Grid.Rows {
		b.WriteString(`<tr>`)
		for i, cell := range row {
			switch {
			case cell == "":
				b.WriteString(`<td class="null-val"></td>`)
			case i < len(m.Grid.Columns) && m.Grid.Columns[i].Numeric:
				b.WriteString(`<td class="num-val">` + html.EscapeString(cell) + `</td>`)
			default:
				b.WriteString(`<td>` + html.EscapeString(cell) + `</td>`)
			}
		}
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</tbody></table></div>`)
}

func writeFooter(b *strings.Builder, mode warehouse.Mode) {
	b.WriteString(`<div class="footer">&#x1F680; Running on <strong>` + html.EscapeString(string(mode)) +
		`</strong> | Data: <a href="` + palmerURL + `">Palmer Penguins</a></div>`)
}

// ─────────────────────────────────────────────────────────────────────────────
// Shared HTML helpers
// ─────────────────────────────────────────────────────────────────────────────

func commonCSS() string {
	return `<style>
  * { box-sizing:border-box; margin:0; padding:0; }
  body { font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Roboto,sans-serif; background:#ffffff; color:#31333f; min-height:100vh; }
  hr { border:none; border-top:1px solid #e6e6eb; margin:24px 0; }
  .layout  { display:flex; min-height:100vh; }
  .sidebar { width:300px; flex-shrink:0; background:#f0f2f6; padding:32px 20px; }
  .sidebar h3 { font-size:18px; margin-bottom:16px; }
  .main    { flex:1; padding:24px 48px; max-width:1400px; margin:0 auto; overflow-x:hidden; }
  .hero    { text-align:center; padding:16px 0 32px; }
  .hero h1 { font-size:48px; margin:16px 0 8px; }
  .hero p  { font-size:17px; color:#666; max-width:600px; margin:0 auto; }
  .badge   { padding:5px 13px; border-radius:16px; font-size:13px; font-weight:600; border:1px solid rgba(0,0,0,0.1); }
  .options { border:none; margin-bottom:16px; }
  .options legend { font-size:14px; font-weight:600; margin-bottom:6px; }
  .option  { display:block; font-size:14px; padding:3px 0; cursor:pointer; }
  .actions { display:flex; gap:8px; margin-top:8px; }
  .btn { padding:7px 16px; border-radius:6px; font-size:13px; font-weight:600; cursor:pointer; border:1px solid #d0d3da; text-decoration:none; }
  .btn-primary { background:#ff4b4b; color:#fff; border-color:#ff4b4b; }
  .btn-ghost   { background:#fff; color:#31333f; }
  .showing, .export { font-size:14px; margin-top:8px; }
  .export a { color:#0068c9; text-decoration:none; }
  .metrics { display:grid; grid-template-columns:repeat(4,1fr); gap:16px; }
  .metric  { display:flex; flex-direction:column; gap:4px; }
  .metric-label { font-size:14px; color:#555; }
  .metric-value { font-size:36px; font-weight:400; }
  .charts  { display:grid; grid-template-columns:1fr 1fr; gap:24px; }
  .chart h4, h4 { font-size:18px; margin:8px 0 12px; }
  .chart svg { max-width:100%; height:auto; }
  .chart.wide { margin-top:24px; }
  .data-wrapper { max-height:400px; overflow:auto; border:1px solid #e6e6eb; border-radius:6px; }
  .data-table { width:100%; border-collapse:collapse; font-size:14px; }
  .data-table th { position:sticky; top:0; background:#f8f9fb; text-align:left; padding:8px 12px; border-bottom:1px solid #e6e6eb; font-weight:600; white-space:nowrap; }
  .data-table td { padding:6px 12px; border-bottom:1px solid #f0f2f6; white-space:nowrap; }
  .data-table td.num-val { text-align:right; font-variant-numeric:tabular-nums; }
  .alert { padding:16px; border-radius:8px; margin-bottom:16px; font-size:15px; }
  .alert ul { margin:8px 0 0 20px; }
  .alert-error   { background:#ffebeb; color:#7d1a1a; }
  .alert-warning { background:#fffbe6; color:#7a5c00; }
  .alert-info    { background:#e8f1fb; color:#0b3e73; }
  .footer { font-size:13px; color:#808495; }
  .footer a { color:#0068c9; text-decoration:none; }
</style>`
}
