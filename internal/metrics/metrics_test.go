package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInitAndHandler(t *testing.T) {
	Init("v1.0.0", "abc123", "2026-01-30", "sqlite")

	if testutil.CollectAndCount(AppInfo) == 0 {
		t.Fatal("AppInfo metric should be registered")
	}

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "eventcal_app_info") {
		t.Error("expected eventcal_app_info in exposition output")
	}
}

func TestHTTPMiddlewareStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"OK", http.StatusOK},
		{"Bad Request", http.StatusBadRequest},
		{"Not Found", http.StatusNotFound},
		{"Internal Server Error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			})

			wrapped := HTTPMiddleware(handler)
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()

			wrapped.ServeHTTP(rec, req)

			if rec.Code != tt.statusCode {
				t.Errorf("Expected status %d, got %d", tt.statusCode, rec.Code)
			}
		})
	}
}

type fakeStats struct {
	stats PoolStats
}

func (f fakeStats) Stats() PoolStats { return f.stats }

func TestDBCollector(t *testing.T) {
	collector := NewDBCollector(fakeStats{stats: PoolStats{Open: 4, InUse: 1, Idle: 3, MaxOpen: 10}})
	collector.collect()

	if got := testutil.ToFloat64(DBConnectionsOpen); got != 4 {
		t.Errorf("DBConnectionsOpen = %v, want 4", got)
	}
	if got := testutil.ToFloat64(DBConnectionsInUse); got != 1 {
		t.Errorf("DBConnectionsInUse = %v, want 1", got)
	}
	if got := testutil.ToFloat64(DBConnectionsIdle); got != 3 {
		t.Errorf("DBConnectionsIdle = %v, want 3", got)
	}
	if got := testutil.ToFloat64(DBConnectionsMaxOpen); got != 10 {
		t.Errorf("DBConnectionsMaxOpen = %v, want 10", got)
	}
}

func TestDBCollectorStartStops(t *testing.T) {
	collector := NewDBCollector(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		collector.Start(ctx, time.Hour)
		close(done)
	}()

	collector.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop")
	}
}

func TestRecordQuery(t *testing.T) {
	RecordQuery("test_select", time.Now(), nil)

	if testutil.CollectAndCount(DBQueryDuration) == 0 {
		t.Error("DBQueryDuration should have recorded at least one query")
	}

	before := testutil.ToFloat64(DBErrors.WithLabelValues("test_failed", "canceled"))
	RecordQuery("test_failed", time.Now(), context.Canceled)

	if got := testutil.ToFloat64(DBErrors.WithLabelValues("test_failed", "canceled")) - before; got != 1 {
		t.Errorf("expected one canceled error, got %v", got)
	}
}

func TestResponseWriterDefaults(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec}

	content := []byte("Hello, World!")
	_, _ = rw.Write(content)

	if rw.statusCode != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", rw.statusCode)
	}
	if rw.bytesWritten != len(content) {
		t.Errorf("Expected %d bytes written, got %d", len(content), rw.bytesWritten)
	}
}
