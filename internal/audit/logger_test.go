package audit

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func decodeAudit(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var wrapper map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &wrapper))
	require.Equal(t, "audit", wrapper["component"])
	entry, ok := wrapper["audit"].(map[string]any)
	require.True(t, ok, "no audit object in %s", buf.String())
	return entry
}

func TestLoggerLog(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))
	logger.now = func() time.Time { return time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC) }

	logger.Log(Entry{
		Action:     ActionEventCreate,
		Transport:  "mcp",
		ResourceID: "7",
		Status:     StatusSuccess,
		Details:    map[string]string{"date": "2024-01-15"},
	})

	entry := decodeAudit(t, &buf)
	require.Equal(t, ActionEventCreate, entry["action"])
	require.Equal(t, "mcp", entry["transport"])
	require.Equal(t, "7", entry["resource_id"])
	require.Equal(t, StatusSuccess, entry["status"])
	require.NotEmpty(t, entry["timestamp"])
	require.Equal(t, map[string]any{"date": "2024-01-15"}, entry["details"])
	require.NotContains(t, entry, "ip_address")
}

func TestLoggerLogFromRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))

	req := httptest.NewRequest("DELETE", "/event/3", nil)
	req.RemoteAddr = "192.0.2.10:51234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")

	logger.LogFromRequest(req, "req-1", ActionEventDelete, "3", StatusSuccess, nil)

	entry := decodeAudit(t, &buf)
	require.Equal(t, "http", entry["transport"])
	require.Equal(t, "192.0.2.10", entry["ip_address"])
	require.Equal(t, "req-1", entry["request_id"])
	require.NotContains(t, entry, "details")
}

func TestNilLoggerDiscards(t *testing.T) {
	var logger *Logger
	require.NotPanics(t, func() {
		logger.Log(Entry{Action: ActionEventCreate})
		logger.LogFromRequest(httptest.NewRequest("POST", "/event", nil), "", ActionEventCreate, "1", StatusSuccess, nil)
	})
}
