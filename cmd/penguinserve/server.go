package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/ruslano69/penguinserve/pkg/dashboard"
	"github.com/ruslano69/penguinserve/pkg/xlsx"
)

// warehouseProbe - то, что /readyz знает о подключении (warehouse.Provider)
type warehouseProbe interface {
	DB(ctx context.Context) (*sql.DB, error)
	Ping(ctx context.Context) error
}

// pinger - необязательная зависимость с проверкой доступности (Redis)
type pinger interface {
	Ping(ctx context.Context) error
}

// Server - HTTP сервер penguinserve
type Server struct {
	cfg       *ServeConfig
	svc       *dashboard.Service
	warehouse warehouseProbe
	mirror    pinger // nil - общий кеш не настроен
	startedAt time.Time
}

func newServer(cfg *ServeConfig, svc *dashboard.Service, wh warehouseProbe, mirror pinger) *Server {
	return &Server{
		cfg:       cfg,
		svc:       svc,
		warehouse: wh,
		mirror:    mirror,
		startedAt: time.Now(),
	}
}

// routes собирает chi router
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(zerologMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	r.Get("/", s.handleIndex)
	r.Get("/export.xlsx", s.handleExport)

	r.Route("/api", func(r chi.Router) {
		r.Get("/view", s.handleView)
		r.Post("/cache/invalidate", s.handleInvalidate)
	})

	r.Get("/healthz", handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// ─────────────────────────────────────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────────────────────────────────────

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	model, lerr := s.svc.View(r.Context(), r.URL.Query())
	if lerr == nil {
		page, err := s.renderDashboard(model)
		if err == nil {
			writeHTML(w, http.StatusOK, page)
			return
		}
		lerr = s.svc.RenderFailed(err)
	}
	writeHTML(w, http.StatusServiceUnavailable, s.renderError(s.svc.Diagnose(lerr)))
}

// viewResponse - JSON /api/view
type viewResponse struct {
	Mode  string                `json:"mode"`
	Model dashboard.RenderModel `json:"model"`
}

// errorResponse - JSON при отказе конвейера
type errorResponse struct {
	Error       string                `json:"error"`
	Stage       dashboard.Stage       `json:"stage"`
	Diagnostics dashboard.Diagnostics `json:"diagnostics"`
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	model, lerr := s.svc.View(r.Context(), r.URL.Query())
	if lerr != nil {
		s.writeLoadError(w, lerr)
		return
	}
	writeJSON(w, http.StatusOK, viewResponse{Mode: string(s.svc.Mode()), Model: model})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	model, lerr := s.svc.View(r.Context(), r.URL.Query())
	if lerr != nil {
		s.writeLoadError(w, lerr)
		return
	}

	var buf bytes.Buffer
	if err := xlsx.Write(&buf, model.View, model.Grid.Columns, xlsx.DefaultSheet); err != nil {
		s.writeLoadError(w, s.svc.RenderFailed(err))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="penguins.xlsx"`)
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Invalidate(r.Context()); err != nil {
		log.Warn().Err(err).Msg("cache invalidation incomplete")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	log.Info().Msg("table cache invalidated")
	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz устанавливает (или берет из кеша) подключение к хранилищу
// и пингует его; при настроенном Redis пингует и его.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks := map[string]string{"warehouse": "ok"}
	status := http.StatusOK

	if _, err := s.warehouse.DB(ctx); err != nil {
		checks["warehouse"] = err.Error()
		status = http.StatusServiceUnavailable
	} else if err := s.warehouse.Ping(ctx); err != nil {
		checks["warehouse"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	if s.mirror != nil {
		checks["redis"] = "ok"
		if err := s.mirror.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, checks)
}

func (s *Server) writeLoadError(w http.ResponseWriter, lerr *dashboard.LoadError) {
	writeJSON(w, http.StatusServiceUnavailable, errorResponse{
		Error:       lerr.Error(),
		Stage:       lerr.Stage,
		Diagnostics: s.svc.Diagnose(lerr),
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Response helpers
// ─────────────────────────────────────────────────────────────────────────────

func writeHTML(w http.ResponseWriter, status int, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprint(w, page)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
