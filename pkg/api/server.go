// Package api exposes the prediction engine over HTTP for the bot
// command layer and dashboards.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openclaw/resinprophet/pkg/prophet"
	"github.com/openclaw/resinprophet/pkg/reports"
	"github.com/openclaw/resinprophet/pkg/store"
)

// Engine is the prediction surface the server fronts. *prophet.Prophet
// satisfies it; tests substitute mocks.
type Engine interface {
	RegisterCartridge(ctx context.Context, params prophet.RegisterCartridgeParams) (*store.Cartridge, error)
	Predict(ctx context.Context, cartridgeID, tenantID string) (*prophet.Prediction, error)
	AllPredictions(ctx context.Context, tenantID string) ([]*prophet.Prediction, error)
	Consume(ctx context.Context, cartridgeID string, volumeML float64, tenantID string) (bool, error)
}

// JobSink receives print-job updates from the external source of truth.
type JobSink interface {
	UpsertPrintJob(ctx context.Context, j *store.PrintJob) error
}

// Server encapsulates the HTTP API server.
type Server struct {
	engine Engine
	jobs   JobSink
	usage  reports.ReportStore
	server *http.Server
}

// NewServer creates a new API server instance.
func NewServer(engine Engine, jobs JobSink, usage reports.ReportStore, addr string) *Server {
	s := &Server{
		engine: engine,
		jobs:   jobs,
		usage:  usage,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/predictions", s.handleAllPredictions)
	mux.HandleFunc("GET /v1/predictions/{id}", s.handlePredict)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/alerts", s.handleAlerts)
	mux.HandleFunc("POST /v1/cartridges", s.handleRegister)
	mux.HandleFunc("POST /v1/consume", s.handleConsume)
	mux.HandleFunc("POST /v1/jobs", s.handleUpsertJob)
	mux.HandleFunc("GET /v1/usage.csv", s.handleUsageCSV)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Handler returns the server's HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving. It blocks until the server stops.
func (s *Server) Start() error {
	log.Printf("API server listening on %s", s.server.Addr)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAllPredictions(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}

	predictions, err := s.engine.AllPredictions(r.Context(), tenantID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"predictions": predictions})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}

	pred, err := s.engine.Predict(r.Context(), r.PathValue("id"), tenantID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.handleFormatted(w, r, reports.FormatStatus)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	s.handleFormatted(w, r, reports.FormatAlerts)
}

func (s *Server) handleFormatted(w http.ResponseWriter, r *http.Request, format func([]*prophet.Prediction) string) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}

	predictions, err := s.engine.AllPredictions(r.Context(), tenantID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": format(predictions)})
}

type registerRequest struct {
	CartridgeID     string  `json:"cartridge_id,omitempty"`
	MaterialCode    string  `json:"material_code"`
	MaterialName    string  `json:"material_name,omitempty"`
	TenantID        string  `json:"tenant_id"`
	PrinterID       string  `json:"printer_id,omitempty"`
	InitialVolumeML float64 `json:"initial_volume_ml,omitempty"`
	CurrentVolumeML float64 `json:"current_volume_ml,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.MaterialCode == "" || req.TenantID == "" {
		writeError(w, http.StatusBadRequest, "material_code and tenant_id are required")
		return
	}

	cartridge, err := s.engine.RegisterCartridge(r.Context(), prophet.RegisterCartridgeParams{
		CartridgeID:     req.CartridgeID,
		MaterialCode:    req.MaterialCode,
		MaterialName:    req.MaterialName,
		TenantID:        req.TenantID,
		PrinterID:       req.PrinterID,
		InitialVolumeML: req.InitialVolumeML,
		CurrentVolumeML: req.CurrentVolumeML,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"cartridge": cartridge,
		"text":      reports.FormatRegistration(cartridge),
	})
}

type consumeRequest struct {
	CartridgeID string  `json:"cartridge_id"`
	TenantID    string  `json:"tenant_id"`
	VolumeML    float64 `json:"volume_ml"`
}

func (s *Server) handleConsume(w http.ResponseWriter, r *http.Request) {
	var req consumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.CartridgeID == "" || req.TenantID == "" {
		writeError(w, http.StatusBadRequest, "cartridge_id and tenant_id are required")
		return
	}

	ok, err := s.engine.Consume(r.Context(), req.CartridgeID, req.VolumeML, req.TenantID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if !ok {
		// Missing and foreign cartridges are indistinguishable here.
		writeError(w, http.StatusNotFound, "cartridge not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleUpsertJob(w http.ResponseWriter, r *http.Request) {
	var job store.PrintJob
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if job.ID == "" || job.TenantID == "" || job.MaterialCode == "" {
		writeError(w, http.StatusBadRequest, "id, tenant_id and material_code are required")
		return
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	if err := s.jobs.UpsertPrintJob(r.Context(), &job); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleUsageCSV(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tenantID := q.Get("tenant_id")
	materialCode := q.Get("material_code")
	if tenantID == "" || materialCode == "" {
		writeError(w, http.StatusBadRequest, "tenant_id and material_code are required")
		return
	}

	windowDays := 30
	if v := q.Get("window_days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid window_days")
			return
		}
		windowDays = parsed
	}

	report := reports.NewUsageReport(s.usage)
	reader, err := report.Generate(r.Context(), reports.ReportParams{
		TenantID:     tenantID,
		MaterialCode: materialCode,
		WindowDays:   windowDays,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, reader); err != nil {
		log.Printf("Failed to stream usage report: %v", err)
	}
}

func writeEngineError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "cartridge not found")
		return
	}
	log.Printf("API request failed: %v", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
