package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mtlprog/carfinder/internal/domain"
	"github.com/mtlprog/carfinder/internal/scan"
)

const maxEvaluateBody = 1 << 20

// Handler provides HTTP endpoints for the scan API.
type Handler struct {
	scans     *scan.Service
	processor scan.BatchProcessor
}

// NewHandler creates a new API handler.
func NewHandler(scans *scan.Service, processor scan.BatchProcessor) *Handler {
	return &Handler{scans: scans, processor: processor}
}

type evaluateRequest struct {
	Listings []domain.Listing `json:"listings"`
}

// GetLatestScan handles GET /api/v1/scans/latest.
func (h *Handler) GetLatestScan(w http.ResponseWriter, r *http.Request) {
	run, err := h.scans.GetLatest(r.Context())
	if err != nil {
		if errors.Is(err, scan.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no scans found")
			return
		}
		slog.Error("failed to get latest scan", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// GetScanByID handles GET /api/v1/scans/{id}.
func (h *Handler) GetScanByID(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid scan id")
		return
	}

	run, err := h.scans.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, scan.ErrNotFound) {
			writeError(w, http.StatusNotFound, "scan not found")
			return
		}
		slog.Error("failed to get scan by id", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// ListScans handles GET /api/v1/scans.
func (h *Handler) ListScans(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			limit = n
		}
	}

	runs, err := h.scans.List(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list scans", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// RunScan handles POST /api/v1/scans/run.
func (h *Handler) RunScan(w http.ResponseWriter, r *http.Request) {
	run, err := h.scans.Run(r.Context())
	if err != nil {
		slog.Error("failed to run scan", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to run scan")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// Evaluate handles POST /api/v1/evaluate. Listings in the body are valued
// with the server's pipeline configuration; nothing is stored.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEvaluateBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Listings) == 0 {
		writeError(w, http.StatusBadRequest, "listings must not be empty")
		return
	}

	report, err := h.processor.ProcessBatch(r.Context(), req.Listings, h.scans.Config())
	if err != nil {
		slog.Error("failed to evaluate listings", "count", len(req.Listings), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to evaluate listings")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Healthz handles GET /api/v1/healthz.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
