package dashboard

import (
	"context"
	"fmt"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/ruslano69/penguinserve/pkg/penguins"
	"github.com/ruslano69/penguinserve/pkg/warehouse"
)

var loadFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "penguinserve_dashboard_failures_total",
		Help: "Dashboard requests that ended on the error page, by pipeline stage",
	},
	[]string{"stage"},
)

// TableLoader - источник Observation Table (penguins.Loader)
type TableLoader interface {
	Load(ctx context.Context) (*penguins.Table, error)
	Invalidate(ctx context.Context) error
}

// Service - Orchestrator: загрузка, фильтрация, сборка RenderModel
// внутри одной границы отказа
type Service struct {
	loader TableLoader
	mode   warehouse.Mode
}

// NewService создает сервис для режима развертывания mode
func NewService(loader TableLoader, mode warehouse.Mode) *Service {
	return &Service{loader: loader, mode: mode}
}

// Mode возвращает режим развертывания (для подписи в футере)
func (s *Service) Mode() warehouse.Mode {
	return s.mode
}

// Load получает таблицу (подключение и таблица берутся из кеша)
func (s *Service) Load(ctx context.Context) Result {
	t, err := s.loader.Load(ctx)
	if err != nil {
		return Result{Err: s.fail(AsLoadError(err, StageLoad))}
	}
	return Result{Table: t}
}

// View - полный проход для одного запроса: загрузка и сборка модели.
// Любой отказ, включая панику в загрузчике или при сборке, возвращается
// как *LoadError.
func (s *Service) View(ctx context.Context, q url.Values) (model RenderModel, lerr *LoadError) {
	defer func() {
		if r := recover(); r != nil {
			model = RenderModel{}
			lerr = s.fail(&LoadError{Stage: StageRender, Err: fmt.Errorf("%v", r)})
		}
	}()

	res := s.Load(ctx)
	if res.Err != nil {
		return RenderModel{}, res.Err
	}

	model, err := BuildQuery(res.Table, q)
	if err != nil {
		return RenderModel{}, s.fail(AsLoadError(err, StageRender))
	}
	return model, nil
}

// RenderFailed регистрирует отказ вывода готовой модели (HTML, графики, XLSX)
func (s *Service) RenderFailed(err error) *LoadError {
	return s.fail(AsLoadError(err, StageRender))
}

// Diagnose - диагностика для текущего режима
func (s *Service) Diagnose(err error) Diagnostics {
	return Diagnose(s.mode, err)
}

// Invalidate сбрасывает кешированную таблицу
func (s *Service) Invalidate(ctx context.Context) error {
	return s.loader.Invalidate(ctx)
}

func (s *Service) fail(e *LoadError) *LoadError {
	loadFailures.WithLabelValues(string(e.Stage)).Inc()
	log.Error().
		Err(e.Err).
		Str("stage", string(e.Stage)).
		Str("mode", string(s.mode)).
		Msg("failed to load data")
	return e
}
