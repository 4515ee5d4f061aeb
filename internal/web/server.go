// Package web serves the latest scan results and Heikin-Ashi charts over HTTP.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"HeikinSentinel/internal/model"
	"HeikinSentinel/internal/scheduler"
)

//go:embed templates/index.html
var templates embed.FS

var symbolPattern = regexp.MustCompile(`^[A-Z0-9\-\.]{1,16}$`)

// Scans is the part of the scheduler the server needs.
type Scans interface {
	Latest() *model.Batch
	Status() scheduler.Status
	RunNow() error
}

// Charts produces smoothed series on demand.
type Charts interface {
	Chart(ctx context.Context, symbol string) ([]model.SmoothedBar, error)
}

// Server is the HTTP front end.
type Server struct {
	scans  Scans
	charts Charts
	logger zerolog.Logger
	index  *template.Template
	mux    *http.ServeMux
}

// NewServer creates a Server and registers its routes.
func NewServer(scans Scans, charts Charts, logger zerolog.Logger) (*Server, error) {
	index, err := template.ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, err
	}
	s := &Server{scans: scans, charts: charts, logger: logger, index: index, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /api/results", s.handleResults)
	s.mux.HandleFunc("GET /api/chart/{symbol}", s.handleChart)
	s.mux.HandleFunc("POST /api/scan", s.handleScan)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	return s, nil
}

// Handler returns the routed handler wrapped with request logging.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		s.mux.ServeHTTP(rec, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info().Str("addr", addr).Msg("web server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info().Msg("web server stopped")
		return nil
	}
}

type indexData struct {
	Batch    *model.Batch
	Detected []model.SymbolResult
	Failed   []model.SymbolResult
	Status   scheduler.Status
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	data := indexData{Batch: s.scans.Latest(), Status: s.scans.Status()}
	if data.Batch != nil {
		data.Detected = data.Batch.Detected()
		data.Failed = data.Batch.Failed()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.index.Execute(w, data); err != nil {
		s.logger.Error().Err(err).Msg("render index")
	}
}

func (s *Server) handleResults(w http.ResponseWriter, _ *http.Request) {
	batch := s.scans.Latest()
	if batch == nil {
		s.writeError(w, http.StatusNotFound, "no scan has completed yet")
		return
	}
	s.writeJSON(w, http.StatusOK, batch)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(r.PathValue("symbol")))
	if !symbolPattern.MatchString(symbol) {
		s.writeError(w, http.StatusBadRequest, "invalid symbol")
		return
	}
	bars, err := s.charts.Chart(r.Context(), symbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("chart failed")
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, bars)
}

func (s *Server) handleScan(w http.ResponseWriter, _ *http.Request) {
	if err := s.scans.RunNow(); err != nil {
		if errors.Is(err, scheduler.ErrRunning) {
			s.writeJSON(w, http.StatusConflict, s.scans.Status())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, s.scans.Status())
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.scans.Status())
}

func statusFor(err error) int {
	switch model.KindOf(err) {
	case model.KindUpstream:
		return http.StatusBadGateway
	case model.KindInvalidInput, model.KindInsufficientData:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Int("status", status).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
