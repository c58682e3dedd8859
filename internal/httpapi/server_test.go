package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"ivdwatch.dev/ivdmon/internal/classify"
	"ivdwatch.dev/ivdmon/internal/config"
	"ivdwatch.dev/ivdmon/internal/db"
	"ivdwatch.dev/ivdmon/internal/directory"
	"ivdwatch.dev/ivdmon/internal/ingest"
	"ivdwatch.dev/ivdmon/internal/match"
)

func newTestServer(t *testing.T) (*Server, *ingest.Store) {
	t.Helper()

	cfg := &config.Config{
		Environment:  "local",
		LogLevel:     "silent",
		DatabasePath: filepath.Join(t.TempDir(), "ivd_monitor.db"),
	}
	pool, err := db.NewPool(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })

	dir, err := directory.Default()
	if err != nil {
		t.Fatalf("directory.Default: %v", err)
	}
	classifier, err := classify.New(nil)
	if err != nil {
		t.Fatalf("classify.New: %v", err)
	}
	store := ingest.NewStore(pool, match.New(dir, match.Config{}), classifier, zerolog.Nop())

	return NewServer(pool, dir, zerolog.Nop(), Options{}), store
}

func doRequest(t *testing.T, s *Server, target string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.newEcho().ServeHTTP(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec.Code, body
}

func seedRecord(t *testing.T, store *ingest.Store) {
	t.Helper()

	item := ingest.Item{
		Source:      "cninfo",
		URL:         "https://www.cninfo.com.cn/announcement/20260830-001",
		Title:       "迈瑞医疗2026年半年度报告",
		Summary:     "Company interim financial report with revenue details.",
		PublishDate: "2026-08-30",
		Region:      "CN",
	}
	if _, err := store.InsertRecord(context.Background(), item, 0); err != nil {
		t.Fatalf("seed record: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	server, _ := newTestServer(t)

	code, body := doRequest(t, server, "/api/v1/health")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body["status"] != "success" {
		t.Fatalf("body = %v", body)
	}
}

func TestRecordsEndpoint(t *testing.T) {
	t.Parallel()
	server, store := newTestServer(t)
	seedRecord(t, store)

	code, body := doRequest(t, server, "/api/v1/records?day=2026-08-30&category=financial_reports")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	data := body["data"].(map[string]any)
	items := data["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("items = %v", items)
	}

	code, _ = doRequest(t, server, "/api/v1/records")
	if code != http.StatusBadRequest {
		t.Fatalf("missing day should fail validation, got %d", code)
	}

	code, _ = doRequest(t, server, "/api/v1/records?day=tomorrow")
	if code != http.StatusBadRequest {
		t.Fatalf("malformed day should fail validation, got %d", code)
	}
}

func TestRecordDetailEndpoint(t *testing.T) {
	t.Parallel()
	server, store := newTestServer(t)
	seedRecord(t, store)

	code, body := doRequest(t, server, "/api/v1/records/1")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	data := body["data"].(map[string]any)
	if data["source"] != "cninfo" {
		t.Fatalf("record = %v", data)
	}

	code, _ = doRequest(t, server, "/api/v1/records/9999")
	if code != http.StatusNotFound {
		t.Fatalf("missing record should 404, got %d", code)
	}

	code, _ = doRequest(t, server, "/api/v1/records/zero")
	if code != http.StatusBadRequest {
		t.Fatalf("non-numeric id should fail validation, got %d", code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	t.Parallel()
	server, store := newTestServer(t)
	seedRecord(t, store)

	code, body := doRequest(t, server, "/api/v1/search?q=revenue")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	data := body["data"].(map[string]any)
	if len(data["items"].([]any)) != 1 {
		t.Fatalf("search items = %v", data["items"])
	}

	code, _ = doRequest(t, server, "/api/v1/search")
	if code != http.StatusBadRequest {
		t.Fatalf("missing q should fail validation, got %d", code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	server, store := newTestServer(t)

	ctx := context.Background()
	runID, err := store.StartRun(ctx, "cninfo", nil)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	seedRecordWithRun(t, store, runID)
	if err := store.CompleteRun(ctx, runID, ingest.RunStatusCompleted, nil); err != nil {
		t.Fatalf("CompleteRun: %v", err)
	}

	code, body := doRequest(t, server, "/api/v1/metrics")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	data := body["data"].(map[string]any)
	if data["total_runs"].(float64) != 1 {
		t.Fatalf("metrics = %v", data)
	}

	code, _ = doRequest(t, server, "/api/v1/metrics?from=lastweek")
	if code != http.StatusBadRequest {
		t.Fatalf("malformed from should fail validation, got %d", code)
	}
}

func seedRecordWithRun(t *testing.T, store *ingest.Store, runID int64) {
	t.Helper()

	item := ingest.Item{
		Source:      "cninfo",
		URL:         "https://www.cninfo.com.cn/announcement/20260830-001",
		Title:       "迈瑞医疗2026年半年度报告",
		PublishDate: "2026-08-30",
	}
	if _, err := store.InsertRecord(context.Background(), item, runID); err != nil {
		t.Fatalf("seed record: %v", err)
	}
}

func TestCompaniesAndCategoriesEndpoints(t *testing.T) {
	t.Parallel()
	server, _ := newTestServer(t)

	code, body := doRequest(t, server, "/api/v1/companies")
	if code != http.StatusOK {
		t.Fatalf("companies status = %d, want 200", code)
	}
	data := body["data"].(map[string]any)
	if len(data["items"].([]any)) == 0 {
		t.Fatalf("expected companies in the embedded dataset")
	}

	code, body = doRequest(t, server, "/api/v1/categories")
	if code != http.StatusOK {
		t.Fatalf("categories status = %d, want 200", code)
	}
	data = body["data"].(map[string]any)
	items := data["items"].([]any)
	if len(items) != len(classify.OrderedCategories) {
		t.Fatalf("categories = %v", items)
	}
	first := items[0].(map[string]any)
	if first["id"] != "nhsa_policy" {
		t.Fatalf("first category = %v", first)
	}
}
