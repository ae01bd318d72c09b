package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rowvault/csvvault-backend/internal/uploads"
	"github.com/rowvault/csvvault-backend/pkg/config"
	"github.com/rowvault/csvvault-backend/pkg/enums"
	pkgerrors "github.com/rowvault/csvvault-backend/pkg/errors"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubUploadsService struct{}

func (stubUploadsService) Ingest(_ context.Context, filename string, _ []byte) (*uploads.IngestResult, error) {
	return &uploads.IngestResult{ID: 1, Filename: filename, RowCount: 0}, nil
}

func (stubUploadsService) GetFile(_ context.Context, id int64) (*uploads.Record, error) {
	if id == 1 {
		return &uploads.Record{ID: 1, Filename: "a.csv", Status: enums.UploadStatusCompleted}, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "file not found")
}

func (stubUploadsService) ListFiles(context.Context, int) ([]uploads.Record, error) {
	return []uploads.Record{}, nil
}

func newTestRouter() http.Handler {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	return NewRouter(cfg, nil, stubPinger{}, nil, stubPinger{}, stubUploadsService{}, nil)
}

func TestRouterRoutes(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{name: "index", method: http.MethodGet, path: "/", wantStatus: http.StatusOK},
		{name: "health live", method: http.MethodGet, path: "/health/live", wantStatus: http.StatusOK},
		{name: "health ready", method: http.MethodGet, path: "/health/ready", wantStatus: http.StatusOK},
		{name: "list files", method: http.MethodGet, path: "/files", wantStatus: http.StatusOK},
		{name: "get known file", method: http.MethodGet, path: "/files/1", wantStatus: http.StatusOK},
		{name: "get unknown file", method: http.MethodGet, path: "/files/2", wantStatus: http.StatusNotFound},
		{name: "unknown route", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound},
		{name: "upload requires multipart", method: http.MethodPost, path: "/upload", wantStatus: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tc.wantStatus {
				t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, tc.wantStatus, rec.Code)
			}
		})
	}
}

func TestRouterIndexServesHTML(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected html content type, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "No files uploaded yet") {
		t.Fatalf("expected empty-state page, got %s", rec.Body.String())
	}
}

func TestRouterSetsRequestIDHeader(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected generated request id header")
	}
}
