package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rowvault/csvvault-backend/internal/uploads"
	"github.com/rowvault/csvvault-backend/pkg/enums"
	pkgerrors "github.com/rowvault/csvvault-backend/pkg/errors"
	"github.com/rowvault/csvvault-backend/pkg/types"
)

type testUploadsService struct {
	ingestFn func(ctx context.Context, filename string, content []byte) (*uploads.IngestResult, error)
	getFn    func(ctx context.Context, id int64) (*uploads.Record, error)
	listFn   func(ctx context.Context, limit int) ([]uploads.Record, error)
}

func (s *testUploadsService) Ingest(ctx context.Context, filename string, content []byte) (*uploads.IngestResult, error) {
	if s.ingestFn != nil {
		return s.ingestFn(ctx, filename, content)
	}
	return nil, nil
}

func (s *testUploadsService) GetFile(ctx context.Context, id int64) (*uploads.Record, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return nil, nil
}

func (s *testUploadsService) ListFiles(ctx context.Context, limit int) ([]uploads.Record, error) {
	if s.listFn != nil {
		return s.listFn(ctx, limit)
	}
	return nil, nil
}

func multipartUpload(t *testing.T, filename, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeSuccess(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	data, ok := envelope.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected data %+v", envelope.Data)
	}
	return data
}

func TestUploadFileSuccess(t *testing.T) {
	svc := &testUploadsService{
		ingestFn: func(_ context.Context, filename string, content []byte) (*uploads.IngestResult, error) {
			if filename != "sales.csv" {
				t.Fatalf("unexpected filename %q", filename)
			}
			if string(content) != "a,b\n1,2\n" {
				t.Fatalf("unexpected content %q", content)
			}
			return &uploads.IngestResult{ID: 7, Filename: filename, RowCount: 1}, nil
		},
	}

	rec := httptest.NewRecorder()
	UploadFile(svc, 1<<20, nil)(rec, multipartUpload(t, "sales.csv", "a,b\n1,2\n"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := decodeSuccess(t, rec)
	if data["status"] != "success" || data["file_id"] != float64(7) || data["row_count"] != float64(1) {
		t.Fatalf("unexpected payload %+v", data)
	}
}

func TestUploadFileNonCSVReturns400(t *testing.T) {
	svc := &testUploadsService{
		ingestFn: func(_ context.Context, _ string, _ []byte) (*uploads.IngestResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "only .csv files are accepted")
		},
	}

	rec := httptest.NewRecorder()
	UploadFile(svc, 1<<20, nil)(rec, multipartUpload(t, "report.txt", "hello"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "only .csv files are accepted") {
		t.Fatalf("expected validation message, got %s", rec.Body.String())
	}
}

func TestUploadFileStorageFailureReturns503(t *testing.T) {
	svc := &testUploadsService{
		ingestFn: func(_ context.Context, _ string, _ []byte) (*uploads.IngestResult, error) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("dial tcp"), "storing uploaded file")
		},
	}

	rec := httptest.NewRecorder()
	UploadFile(svc, 1<<20, nil)(rec, multipartUpload(t, "sales.csv", "a,b\n1,2\n"))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestUploadFileMissingFieldReturns400(t *testing.T) {
	var called bool
	svc := &testUploadsService{
		ingestFn: func(_ context.Context, _ string, _ []byte) (*uploads.IngestResult, error) {
			called = true
			return nil, nil
		},
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("other", "value"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec := httptest.NewRecorder()
	UploadFile(svc, 1<<20, nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if called {
		t.Fatal("service must not be called without a file field")
	}
}

func TestUploadFileOversizeReturns400(t *testing.T) {
	svc := &testUploadsService{}

	rec := httptest.NewRecorder()
	UploadFile(svc, 16, nil)(rec, multipartUpload(t, "big.csv", strings.Repeat("x", 4096)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListFilesReturnsRecords(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := &testUploadsService{
		listFn: func(_ context.Context, limit int) ([]uploads.Record, error) {
			if limit != uploads.DefaultListLimit {
				t.Fatalf("expected default limit, got %d", limit)
			}
			return []uploads.Record{
				{ID: 2, Filename: "b.csv", UploadedAt: now, StorageKey: "k2", RowCount: 3, Status: enums.UploadStatusCompleted},
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	ListFiles(svc, nil)(rec, httptest.NewRequest(http.MethodGet, "/files", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`"id":2`, `"filename":"b.csv"`, `"storage_key":"k2"`, `"row_count":3`, `"status":"completed"`, `"uploaded_at":"2026-03-01T12:00:00Z"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in body %s", want, body)
		}
	}
}

func TestListFilesRejectsBadLimit(t *testing.T) {
	svc := &testUploadsService{}

	rec := httptest.NewRecorder()
	ListFiles(svc, nil)(rec, httptest.NewRequest(http.MethodGet, "/files?limit=abc", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func getFileRequest(id string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/files/"+id, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("fileID", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestGetFileFound(t *testing.T) {
	svc := &testUploadsService{
		getFn: func(_ context.Context, id int64) (*uploads.Record, error) {
			if id != 42 {
				t.Fatalf("unexpected id %d", id)
			}
			return &uploads.Record{ID: 42, Filename: "a.csv", Status: enums.UploadStatusProcessing}, nil
		},
	}

	rec := httptest.NewRecorder()
	GetFile(svc, nil)(rec, getFileRequest("42"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"processing"`) {
		t.Fatalf("expected processing record, got %s", rec.Body.String())
	}
}

func TestGetFileNotFound(t *testing.T) {
	svc := &testUploadsService{
		getFn: func(_ context.Context, _ int64) (*uploads.Record, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "file not found")
		},
	}

	rec := httptest.NewRecorder()
	GetFile(svc, nil)(rec, getFileRequest("99"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetFileInvalidIDReturns400(t *testing.T) {
	svc := &testUploadsService{}

	rec := httptest.NewRecorder()
	GetFile(svc, nil)(rec, getFileRequest("not-a-number"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
