package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mtlprog/carfinder/internal/domain"
	"github.com/mtlprog/carfinder/internal/mmr"
	"github.com/mtlprog/carfinder/internal/pipeline"
	"github.com/mtlprog/carfinder/internal/scan"
	"github.com/mtlprog/carfinder/internal/source"
)

type failingRepo struct {
	*scan.MemoryRepository
}

func (f *failingRepo) GetLatest(_ context.Context) (*scan.Run, error) {
	return nil, errors.New("connection refused")
}

type limitRecordingRepo struct {
	*scan.MemoryRepository
	lastListLimit int
}

func (r *limitRecordingRepo) List(ctx context.Context, limit int) ([]scan.Run, error) {
	r.lastListLimit = limit
	return r.MemoryRepository.List(ctx, limit)
}

func newTestHandler(t *testing.T, repo scan.Repository) (*Handler, *scan.Service) {
	t.Helper()
	processor := pipeline.NewService(mmr.NewStubClient(mmr.DefaultStubValue, "1"), 2, time.Second)
	fetcher := source.NewStatic("fixture", source.SampleListings())
	svc := scan.NewService(fetcher, processor, repo, pipeline.DefaultConfig())
	return NewHandler(svc, processor), svc
}

func TestGetLatestScanSuccess(t *testing.T) {
	handler, svc := newTestHandler(t, scan.NewMemoryRepository())
	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	second, err := svc.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scans/latest", nil)
	w := httptest.NewRecorder()
	handler.GetLatestScan(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var result scan.Run
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.ID != second.ID {
		t.Errorf("scan ID = %d, want %d", result.ID, second.ID)
	}
	if result.Total != 3 {
		t.Errorf("total = %d, want 3", result.Total)
	}
}

func TestGetLatestScanNotFound(t *testing.T) {
	handler, _ := newTestHandler(t, scan.NewMemoryRepository())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scans/latest", nil)
	w := httptest.NewRecorder()
	handler.GetLatestScan(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetLatestScanRepositoryError(t *testing.T) {
	handler, _ := newTestHandler(t, &failingRepo{scan.NewMemoryRepository()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scans/latest", nil)
	w := httptest.NewRecorder()
	handler.GetLatestScan(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "connection refused") {
		t.Error("internal error details leaked to client")
	}
}

func TestGetScanByID(t *testing.T) {
	handler, svc := newTestHandler(t, scan.NewMemoryRepository())
	run, err := svc.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		id   string
		want int
	}{
		{"found", "1", http.StatusOK},
		{"missing", "42", http.StatusNotFound},
		{"not a number", "abc", http.StatusBadRequest},
		{"zero", "0", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/scans/"+tt.id, nil)
			req.SetPathValue("id", tt.id)
			w := httptest.NewRecorder()
			handler.GetScanByID(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}

	if run.ID != 1 {
		t.Errorf("first run ID = %d, want 1", run.ID)
	}
}

func TestListScansLimit(t *testing.T) {
	tests := []struct {
		query     string
		wantLimit int
	}{
		{"", 30},
		{"?limit=10", 10},
		{"?limit=9999", 365},
		{"?limit=-5", 30},
		{"?limit=abc", 30},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			repo := &limitRecordingRepo{MemoryRepository: scan.NewMemoryRepository()}
			handler, _ := newTestHandler(t, repo)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/scans"+tt.query, nil)
			w := httptest.NewRecorder()
			handler.ListScans(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", w.Code)
			}
			if repo.lastListLimit != tt.wantLimit {
				t.Errorf("limit passed to repo = %d, want %d", repo.lastListLimit, tt.wantLimit)
			}
		})
	}
}

func TestListScansNewestFirst(t *testing.T) {
	handler, svc := newTestHandler(t, scan.NewMemoryRepository())
	for range 3 {
		if _, err := svc.Run(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scans?limit=2", nil)
	w := httptest.NewRecorder()
	handler.ListScans(w, req)

	var result []scan.Run
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result) != 2 {
		t.Fatalf("scan count = %d, want 2", len(result))
	}
	if result[0].ID != 3 || result[1].ID != 2 {
		t.Errorf("ids = %d,%d, want 3,2", result[0].ID, result[1].ID)
	}
}

func TestRunScan(t *testing.T) {
	handler, svc := newTestHandler(t, scan.NewMemoryRepository())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scans/run", nil)
	w := httptest.NewRecorder()
	handler.RunScan(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	latest, err := svc.GetLatest(context.Background())
	if err != nil {
		t.Fatalf("run not stored: %v", err)
	}
	if len(latest.Sources) != 1 || latest.Sources[0] != "fixture" {
		t.Errorf("sources = %v, want [fixture]", latest.Sources)
	}
}

func TestEvaluate(t *testing.T) {
	handler, svc := newTestHandler(t, scan.NewMemoryRepository())

	body := `{"listings":[
		{"source":"AutoTrader","title":"2021 Ford F-150","priceLocal":39000,"vin":"1FTFW1E53MFB12345"},
		{"source":"Kijiji","title":"2020 Honda CR-V","priceLocal":27000,"mileageKm":60000},
		{"source":"Kijiji","title":"broken","priceLocal":0}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluate", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.Evaluate(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var report domain.Report
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.Total != 3 || report.Dropped != 1 {
		t.Errorf("total/dropped = %d/%d, want 3/1", report.Total, report.Dropped)
	}
	if report.Confirmed != 1 || report.Estimated != 1 {
		t.Errorf("confirmed/estimated = %d/%d, want 1/1", report.Confirmed, report.Estimated)
	}

	if _, err := svc.GetLatest(context.Background()); !errors.Is(err, scan.ErrNotFound) {
		t.Errorf("evaluate must not store a scan, got err = %v", err)
	}
}

func TestEvaluateBadRequest(t *testing.T) {
	handler, _ := newTestHandler(t, scan.NewMemoryRepository())

	for _, body := range []string{`not json`, `{"listings":[]}`, `{}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluate", strings.NewReader(body))
		w := httptest.NewRecorder()
		handler.Evaluate(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}
