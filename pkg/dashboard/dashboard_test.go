package dashboard

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ruslano69/penguinserve/pkg/cache"
	"github.com/ruslano69/penguinserve/pkg/filter"
	"github.com/ruslano69/penguinserve/pkg/penguins"
	"github.com/ruslano69/penguinserve/pkg/penguins/penguinstest"
	"github.com/ruslano69/penguinserve/pkg/warehouse"
)

func TestSummarize(t *testing.T) {
	table := &penguins.Table{
		Fields: penguinstest.Fields(),
		Rows: []penguins.Row{
			penguinstest.Row("Adelie", "Dream", "MALE", 39.1, 18.7, 181, 3750),
			penguinstest.Row("Gentoo", "Biscoe", "FEMALE", 46.1, 13.2, 211, 4500),
			penguinstest.Row("Adelie", "Torgersen", "FEMALE", 39.5, 17.4, 186, 3800),
		},
	}
	// масса отсутствует - строка считается, но в среднее не входит
	missing := penguinstest.Row("Adelie", "Dream", "MALE", 40, 18, 190, 0)
	missing[5] = penguins.Null
	table.Rows = append(table.Rows, missing)

	s, err := Summarize(table)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.Count != 4 || s.Species != 2 || s.Islands != 3 {
		t.Errorf("unexpected summary %+v", s)
	}
	want := (3750.0 + 4500 + 3800) / 3
	if math.Abs(s.MeanBodyMass-want) > 1e-9 {
		t.Errorf("MeanBodyMass = %v, want %v", s.MeanBodyMass, want)
	}
	if s.MassLabel() != "4,017g" {
		t.Errorf("MassLabel = %q", s.MassLabel())
	}
}

func TestSummarize_Empty(t *testing.T) {
	s, err := Summarize(&penguins.Table{Fields: penguinstest.Fields()})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.Count != 0 || s.Species != 0 || s.Islands != 0 {
		t.Errorf("expected zero counts, got %+v", s)
	}
	if !math.IsNaN(s.MeanBodyMass) {
		t.Errorf("expected NaN mean, got %v", s.MeanBodyMass)
	}
	if s.MassLabel() != "NaN g" || s.CountLabel() != "0" {
		t.Errorf("labels: %q %q", s.CountLabel(), s.MassLabel())
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("NaN summary must marshal: %v", err)
	}
	if !strings.Contains(string(data), `"mean_body_mass_g":null`) {
		t.Errorf("unexpected JSON %s", data)
	}
}

func TestSummary_CountLabel(t *testing.T) {
	if got := (Summary{Count: 1234}).CountLabel(); got != "1,234" {
		t.Errorf("CountLabel = %q", got)
	}
}

func TestBuildCharts(t *testing.T) {
	table := &penguins.Table{
		Fields: penguinstest.Fields(),
		Rows: []penguins.Row{
			penguinstest.Row("Gentoo", "Biscoe", "MALE", 46, 14, 215, 5000),
			penguinstest.Row("Adelie", "Dream", "MALE", 39, 18, 181, 3750),
			penguinstest.Row("Adelie", "Biscoe", "FEMALE", 38, 17, 185, 3600),
		},
	}
	noFlipper := penguinstest.Row("Adelie", "Torgersen", "", 0, 0, 0, 3400)
	noFlipper[4] = penguins.Null
	table.Rows = append(table.Rows, noFlipper)

	c, err := BuildCharts(table)
	if err != nil {
		t.Fatalf("BuildCharts: %v", err)
	}

	wantSpecies := []Bar{{"Adelie", 3}, {"Gentoo", 1}}
	if len(c.Species) != 2 || c.Species[0] != wantSpecies[0] || c.Species[1] != wantSpecies[1] {
		t.Errorf("Species = %v", c.Species)
	}
	if len(c.Islands) != 3 || c.Islands[0] != (Bar{"Biscoe", 2}) {
		t.Errorf("Islands = %v", c.Islands)
	}

	if len(c.Scatter) != 2 || c.Scatter[0].Name != "Adelie" || c.Scatter[1].Name != "Gentoo" {
		t.Fatalf("Scatter = %+v", c.Scatter)
	}
	// строка без длины плавника отброшена
	if len(c.Scatter[0].Points) != 2 {
		t.Errorf("expected 2 Adelie points, got %d", len(c.Scatter[0].Points))
	}
	if c.Scatter[1].Points[0] != (Point{X: 215, Y: 5000}) {
		t.Errorf("unexpected Gentoo point %+v", c.Scatter[1].Points[0])
	}
}

func TestBuildCharts_Empty(t *testing.T) {
	c, err := BuildCharts(&penguins.Table{Fields: penguinstest.Fields()})
	if err != nil {
		t.Fatalf("BuildCharts: %v", err)
	}
	if !c.Empty() {
		t.Errorf("expected empty charts, got %+v", c)
	}
}

func TestBuildGrid(t *testing.T) {
	table := &penguins.Table{
		Fields: append(penguinstest.Fields(), penguins.Field{Name: "YEAR", Kind: penguins.KindNumber}),
		Rows: []penguins.Row{
			append(penguinstest.Row("Adelie", "Torgersen", "MALE", 39.14, 18.66, 181.4, 3750.4), penguins.Number(2007)),
			append(penguinstest.Row("Adelie", "Torgersen", "", 0, 0, 0, 0), penguins.Null),
		},
	}
	for i := 2; i <= 5; i++ {
		table.Rows[1][i] = penguins.Null
	}

	g := BuildGrid(table)
	if len(g.Columns) != 8 {
		t.Fatalf("expected 8 columns, got %d", len(g.Columns))
	}
	labels := []string{"Species", "Island", "Bill Length (mm)", "Bill Depth (mm)", "Flipper Length (mm)", "Body Mass (g)", "Sex", "YEAR"}
	for i, want := range labels {
		if g.Columns[i].Label != want {
			t.Errorf("column %d label = %q, want %q", i, g.Columns[i].Label, want)
		}
	}

	want := []string{"Adelie", "Torgersen", "39.1", "18.7", "181", "3750", "MALE", "2007"}
	for i, cell := range g.Rows[0] {
		if cell != want[i] {
			t.Errorf("cell %d = %q, want %q", i, cell, want[i])
		}
	}
	for i := 2; i < 8; i++ {
		if g.Rows[1][i] != "" {
			t.Errorf("null cell %d rendered as %q", i, g.Rows[1][i])
		}
	}
}

func TestBuild_DefaultAndAdelie(t *testing.T) {
	table := penguinstest.Palmer()

	m, err := BuildQuery(table, url.Values{})
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}
	if m.Shown != 344 || m.Total != 344 || m.Summary.Count != 344 {
		t.Errorf("default view: shown=%d total=%d count=%d", m.Shown, m.Total, m.Summary.Count)
	}
	if m.Summary.Species != 3 || m.Summary.Islands != 3 {
		t.Errorf("distinct counts: %+v", m.Summary)
	}

	sel := m.Options.Default()
	sel.Species = filter.NewSet("Adelie")
	adelie, err := Build(table, sel)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if adelie.Summary.Count != 152 || adelie.Shown != 152 || len(adelie.Grid.Rows) != 152 {
		t.Errorf("Adelie view: count=%d shown=%d grid=%d", adelie.Summary.Count, adelie.Shown, len(adelie.Grid.Rows))
	}
	if adelie.Summary.Species != 1 {
		t.Errorf("expected 1 species, got %d", adelie.Summary.Species)
	}
	if adelie.ShowingLabel() != "Showing 152 of 344 penguins" {
		t.Errorf("ShowingLabel = %q", adelie.ShowingLabel())
	}
	if table.Len() != 344 {
		t.Error("Build mutated the source table")
	}
}

func TestBuild_EmptyDimension(t *testing.T) {
	q, _ := url.ParseQuery("applied=1&species=Adelie&island=Dream")
	m, err := BuildQuery(penguinstest.Palmer(), q)
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}
	if m.Summary.Count != 0 || m.Summary.Species != 0 || m.Summary.Islands != 0 {
		t.Errorf("expected zero metrics, got %+v", m.Summary)
	}
	if !math.IsNaN(m.Summary.MeanBodyMass) {
		t.Error("expected NaN mean")
	}
	if _, err := json.Marshal(m); err != nil {
		t.Errorf("render model must marshal: %v", err)
	}
}

func TestBuild_MissingColumn(t *testing.T) {
	table := &penguins.Table{
		Fields: []penguins.Field{
			{Name: penguins.ColSpecies, Kind: penguins.KindText},
			{Name: penguins.ColIsland, Kind: penguins.KindText},
			{Name: penguins.ColSex, Kind: penguins.KindText},
		},
		Rows: []penguins.Row{{penguins.Text("Adelie"), penguins.Text("Dream"), penguins.Text("MALE")}},
	}
	_, err := BuildQuery(table, url.Values{})
	var colErr *penguins.ColumnError
	if !errors.As(err, &colErr) || colErr.Column != penguins.ColBodyMass {
		t.Errorf("expected missing BODY_MASS_G, got %v", err)
	}
}

func TestDiagnose(t *testing.T) {
	boom := errors.New("390100: incorrect username or password")

	aws := Diagnose(warehouse.ModeAWS, boom)
	if aws.Message != "Failed to load data: 390100: incorrect username or password" {
		t.Errorf("Message = %q", aws.Message)
	}
	if len(aws.Checklist) != 3 || aws.ChecklistTitle == "" {
		t.Errorf("AWS mode must carry the checklist: %+v", aws)
	}
	if aws.Hint != "Please check your database connection and try again." {
		t.Errorf("Hint = %q", aws.Hint)
	}

	for _, mode := range []warehouse.Mode{warehouse.ModeDocker, warehouse.ModeLocal, "STAGING"} {
		d := Diagnose(mode, boom)
		if len(d.Checklist) != 0 || d.ChecklistTitle != "" {
			t.Errorf("%s: unexpected checklist", mode)
		}
		if d.Hint == "" {
			t.Errorf("%s: hint is always shown", mode)
		}
	}
}

// fakeLoader отдает заранее заданную таблицу или ошибку
type fakeLoader struct {
	table       *penguins.Table
	err         error
	invalidated int
}

func (f *fakeLoader) Load(context.Context) (*penguins.Table, error) {
	return f.table, f.err
}

func (f *fakeLoader) Invalidate(context.Context) error {
	f.invalidated++
	return nil
}

func TestService_SimulatedConnectionFailure(t *testing.T) {
	boom := errors.New("dial tcp: lookup xy12345.snowflakecomputing.com: i/o timeout")
	conn := penguins.ConnectorFunc(func(context.Context) (*sql.DB, error) {
		return nil, boom
	})
	loader := penguins.NewLoader(conn, cache.New())

	for _, mode := range []warehouse.Mode{warehouse.ModeAWS, warehouse.ModeDocker} {
		svc := NewService(loader, mode)

		_, lerr := svc.View(context.Background(), url.Values{})
		if lerr == nil {
			t.Fatalf("%s: expected failure", mode)
		}
		if lerr.Stage != StageConnect {
			t.Errorf("%s: stage = %s, want connect", mode, lerr.Stage)
		}
		if !errors.Is(lerr, boom) {
			t.Errorf("%s: error chain lost: %v", mode, lerr)
		}

		d := svc.Diagnose(lerr)
		if !strings.HasPrefix(d.Message, "Failed to load data: dial tcp") {
			t.Errorf("%s: Message = %q", mode, d.Message)
		}
		if hasChecklist := len(d.Checklist) > 0; hasChecklist != (mode == warehouse.ModeAWS) {
			t.Errorf("%s: checklist shown = %v", mode, hasChecklist)
		}
	}
}

func TestService_QueryFailureIsLoadStage(t *testing.T) {
	svc := NewService(&fakeLoader{err: errors.New("SQL compilation error: table does not exist")}, warehouse.ModeLocal)

	res := svc.Load(context.Background())
	if res.OK() || res.Err == nil || res.Err.Stage != StageLoad {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestService_RenderFailure(t *testing.T) {
	table := &penguins.Table{
		Fields: []penguins.Field{{Name: penguins.ColSpecies, Kind: penguins.KindText}},
		Rows:   []penguins.Row{{penguins.Text("Adelie")}},
	}
	svc := NewService(&fakeLoader{table: table}, warehouse.ModeLocal)

	_, lerr := svc.View(context.Background(), url.Values{})
	if lerr == nil || lerr.Stage != StageRender {
		t.Fatalf("expected render failure, got %v", lerr)
	}
}

func TestService_MalformedRowDoesNotPanic(t *testing.T) {
	table := penguinstest.Palmer()
	table.Rows = append(table.Rows, penguins.Row{penguins.Text("Adelie")})
	svc := NewService(&fakeLoader{table: table}, warehouse.ModeLocal)

	_, lerr := svc.View(context.Background(), url.Values{})
	if lerr == nil || lerr.Stage != StageRender {
		t.Fatalf("expected render failure, got %v", lerr)
	}
}

func TestService_ViewAndInvalidate(t *testing.T) {
	loader := &fakeLoader{table: penguinstest.Palmer()}
	svc := NewService(loader, warehouse.ModeDocker)

	m, lerr := svc.View(context.Background(), url.Values{})
	if lerr != nil {
		t.Fatalf("View: %v", lerr)
	}
	if m.Total != 344 || m.View == nil || m.View.Len() != 344 {
		t.Errorf("unexpected model: total=%d", m.Total)
	}
	if svc.Mode() != warehouse.ModeDocker {
		t.Errorf("Mode = %s", svc.Mode())
	}
	if err := svc.Invalidate(context.Background()); err != nil || loader.invalidated != 1 {
		t.Errorf("Invalidate: err=%v calls=%d", err, loader.invalidated)
	}
}

func TestAsLoadError(t *testing.T) {
	if AsLoadError(nil, StageLoad) != nil {
		t.Error("nil error must stay nil")
	}
	inner := &LoadError{Stage: StageConnect, Err: errors.New("x")}
	if got := AsLoadError(inner, StageRender); got != inner {
		t.Error("existing *LoadError must be returned as is")
	}
}

// panicLoader падает внутри загрузки
type panicLoader struct{}

func (panicLoader) Load(context.Context) (*penguins.Table, error) {
	panic("runtime error: index out of range [7] with length 1")
}

func (panicLoader) Invalidate(context.Context) error { return nil }

func TestService_LoaderPanicIsContained(t *testing.T) {
	svc := NewService(panicLoader{}, warehouse.ModeAWS)

	_, lerr := svc.View(context.Background(), url.Values{})
	if lerr == nil || lerr.Stage != StageRender {
		t.Fatalf("expected render-stage failure, got %v", lerr)
	}
	if d := svc.Diagnose(lerr); !strings.Contains(d.Message, "index out of range") {
		t.Errorf("Message = %q", d.Message)
	}
}

func TestService_RenderFailedIsCounted(t *testing.T) {
	svc := NewService(&fakeLoader{table: penguinstest.Palmer()}, warehouse.ModeLocal)
	before := testutil.ToFloat64(loadFailures.WithLabelValues(string(StageRender)))

	lerr := svc.RenderFailed(errors.New("render \"Species Distribution\" chart: invalid data range"))
	if lerr == nil || lerr.Stage != StageRender {
		t.Fatalf("unexpected error %v", lerr)
	}
	if got := testutil.ToFloat64(loadFailures.WithLabelValues(string(StageRender))); got != before+1 {
		t.Errorf("render failures = %v, want %v", got, before+1)
	}
}

func TestBuildQuery_MatchesBuild(t *testing.T) {
	table := penguinstest.Palmer()
	q := url.Values{
		filter.ParamApplied: {"1"},
		filter.ParamSpecies: {"Gentoo"},
		filter.ParamIsland:  {"Biscoe"},
		filter.ParamSex:     {"MALE"},
	}

	got, err := BuildQuery(table, q)
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}
	options, err := filter.DeriveOptions(table)
	if err != nil {
		t.Fatalf("DeriveOptions: %v", err)
	}
	want, err := Build(table, filter.ParseSelection(q, options))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got.Shown != want.Shown || got.Shown != 62 {
		t.Errorf("Shown = %d, want %d (62)", got.Shown, want.Shown)
	}
	if len(got.Options.Species) != 3 || len(got.Options.Islands) != 3 || len(got.Options.Sexes) != 2 {
		t.Errorf("unexpected options %+v", got.Options)
	}
	if !got.Selection.Species.Has("Gentoo") || got.Selection.Species.Has("Adelie") {
		t.Errorf("unexpected selection %+v", got.Selection)
	}
}
