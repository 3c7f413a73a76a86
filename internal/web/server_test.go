package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/colwise/colwise/internal/config"
	"github.com/colwise/colwise/internal/session"
)

func newTestServer(t *testing.T) (*Server, *session.Service) {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			RequestTimeout: time.Minute,
			CORSOrigins:    []string{"*"},
		},
		Upload: config.UploadConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			AutoDetect:    true,
			PreviewRows:   5,
		},
	}

	svc := session.NewService(session.Config{
		MaxFileSize:   cfg.Upload.MaxFileSize,
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWait:       cfg.Upload.MaxWaitTime,
		AutoDetect:    cfg.Upload.AutoDetect,
		PreviewRows:   cfg.Upload.PreviewRows,
	}, nil, nil)

	return NewServer(svc, nil, cfg), svc
}

func newUploadRequest(t *testing.T, name, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func uploadCSV(t *testing.T, srv *Server, name, content string) string {
	t.Helper()

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, newUploadRequest(t, name, content))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("upload status = %d, want %d: %s", rec.Code, http.StatusAccepted, rec.Body.String())
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if resp.ID == "" {
		t.Fatal("upload response has empty id")
	}
	return resp.ID
}

func TestUploadAndGetDataset(t *testing.T) {
	srv, svc := newTestServer(t)

	id := uploadCSV(t, srv, "people.csv", "name,age,active\nalice,30,true\nbob,25,false\n")
	if err := svc.Wait(id); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/datasets/"+id, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d: %s", rec.Code, rec.Body.String())
	}

	var snap session.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Phase != session.PhaseReady {
		t.Errorf("Phase = %q, want %q", snap.Phase, session.PhaseReady)
	}
	if len(snap.Columns) != 3 {
		t.Fatalf("Columns = %d, want 3", len(snap.Columns))
	}
	if got := snap.Columns[1].DetectedType; got != "integer" {
		t.Errorf("age column type = %q, want %q", got, "integer")
	}
	if snap.TotalRows != 2 {
		t.Errorf("TotalRows = %d, want 2", snap.TotalRows)
	}
}

func TestGetDatasetNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/datasets/nope", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Code != "SESS001" {
		t.Errorf("code = %q, want SESS001", body.Code)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "report.xlsx")
	fw.Write([]byte("not a spreadsheet"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
}

func TestConvertColumnAndExport(t *testing.T) {
	srv, svc := newTestServer(t)

	id := uploadCSV(t, srv, "amounts.csv", "label,amount\na,100\nb,200\n")
	if err := svc.Wait(id); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	body := strings.NewReader(`{"type":"integer"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/datasets/"+id+"/columns/1/convert", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("convert status = %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/datasets/"+id+"/export", nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	want := "label,amount\na,100\nb,200\n"
	if rec.Body.String() != want {
		t.Errorf("export body = %q, want %q", rec.Body.String(), want)
	}
}

func TestConvertColumnBadIndex(t *testing.T) {
	srv, svc := newTestServer(t)

	id := uploadCSV(t, srv, "one.csv", "x\n1\n")
	if err := svc.Wait(id); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/datasets/"+id+"/columns/abc/convert",
		strings.NewReader(`{"type":"integer"}`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestDeleteDataset(t *testing.T) {
	srv, svc := newTestServer(t)

	id := uploadCSV(t, srv, "tmp.csv", "a\n1\n")
	if err := svc.Wait(id); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/datasets/"+id, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/datasets/"+id, nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestListTypes(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/types", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Types []string `json:"types"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	found := false
	for _, typ := range resp.Types {
		if typ == "integer" {
			found = true
		}
	}
	if !found {
		t.Errorf("types list %v should contain integer", resp.Types)
	}
}

func TestHistoryDisabled(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAPIKeyAuthRequired(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.cfg.Security.RequireAPIKey = true
	srv.cfg.Security.APIKeys = []string{"secret-key"}

	req := httptest.NewRequest(http.MethodGet, "/api/types", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("without key: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/types", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("wrong key: status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/types", nil)
	req.Header.Set("X-API-Key", "secret-key")
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid key: status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestUploadRateLimit(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			RequestTimeout: time.Minute,
			CORSOrigins:    []string{"*"},
		},
		Upload: config.UploadConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			PreviewRows:   5,
		},
		Rate: config.RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 100,
			UploadLimit:       1,
		},
	}
	svc := session.NewService(session.Config{
		MaxFileSize:   cfg.Upload.MaxFileSize,
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWait:       cfg.Upload.MaxWaitTime,
		PreviewRows:   cfg.Upload.PreviewRows,
	}, nil, nil)
	srv := NewServer(svc, nil, cfg)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, newUploadRequest(t, "a.csv", "x\n1\n"))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("first upload status = %d, want %d: %s", rec.Code, http.StatusAccepted, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, newUploadRequest(t, "b.csv", "x\n2\n"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second upload status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Code != "RATE001" {
		t.Errorf("code = %q, want RATE001", body.Code)
	}

	// Other endpoints stay on the global limit.
	req := httptest.NewRequest(http.MethodGet, "/api/types", nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("types status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)

	if !rl.allow("1.2.3.4") {
		t.Error("first request should be allowed")
	}
	if !rl.allow("1.2.3.4") {
		t.Error("second request should be allowed")
	}
	if rl.allow("1.2.3.4") {
		t.Error("third request should be rejected")
	}
	if !rl.allow("5.6.7.8") {
		t.Error("other IP should be unaffected")
	}
}
