// Package api exposes stored scans and on-demand evaluation over HTTP.
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/mtlprog/carfinder/internal/scan"
)

// NewServer creates an HTTP server with all routes configured.
// When adminAPIKey is set, triggering a scan requires it as a Bearer token.
func NewServer(port string, scans *scan.Service, processor scan.BatchProcessor, adminAPIKey string) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      newMux(NewHandler(scans, processor), adminAPIKey),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func newMux(handler *Handler, adminAPIKey string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/healthz", handler.Healthz)
	mux.HandleFunc("GET /api/v1/scans/latest", handler.GetLatestScan)
	mux.HandleFunc("GET /api/v1/scans/{id}", handler.GetScanByID)
	mux.HandleFunc("GET /api/v1/scans", handler.ListScans)
	mux.HandleFunc("POST /api/v1/evaluate", handler.Evaluate)

	runHandler := http.HandlerFunc(handler.RunScan)
	if adminAPIKey != "" {
		mux.Handle("POST /api/v1/scans/run", requireAuth(adminAPIKey, runHandler))
	} else {
		mux.Handle("POST /api/v1/scans/run", runHandler)
	}
	return mux
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
