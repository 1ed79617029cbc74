// Package audit records changes to the calendar as structured log entries.
package audit

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	ActionEventCreate = "event.create"
	ActionEventDelete = "event.delete"

	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Entry is one audit record. It is logged under the "audit" key.
type Entry struct {
	Timestamp  time.Time         `json:"timestamp"`
	Action     string            `json:"action"`
	Transport  string            `json:"transport"`
	ResourceID string            `json:"resource_id,omitempty"`
	IPAddress  string            `json:"ip_address,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	Status     string            `json:"status"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e Entry) MarshalZerologObject(ev *zerolog.Event) {
	ev.Time("timestamp", e.Timestamp).
		Str("action", e.Action).
		Str("transport", e.Transport).
		Str("status", e.Status)
	if e.ResourceID != "" {
		ev.Str("resource_id", e.ResourceID)
	}
	if e.IPAddress != "" {
		ev.Str("ip_address", e.IPAddress)
	}
	if e.RequestID != "" {
		ev.Str("request_id", e.RequestID)
	}
	if len(e.Details) > 0 {
		details := zerolog.Dict()
		for key, value := range e.Details {
			details.Str(key, value)
		}
		ev.Dict("details", details)
	}
}

// Logger writes audit entries. A nil *Logger discards them.
type Logger struct {
	output zerolog.Logger
	now    func() time.Time
}

func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{
		output: logger.With().Str("component", "audit").Logger(),
		now:    time.Now,
	}
}

func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now().UTC()
	}
	l.output.Info().Object("audit", entry).Msg("audit")
}

// LogFromRequest logs an HTTP-originated action with the caller's address
// and request id.
func (l *Logger) LogFromRequest(r *http.Request, requestID, action, resourceID, status string, details map[string]string) {
	if l == nil {
		return
	}
	l.Log(Entry{
		Action:     action,
		Transport:  "http",
		ResourceID: resourceID,
		IPAddress:  remoteIP(r),
		RequestID:  requestID,
		Status:     status,
		Details:    details,
	})
}

// remoteIP is the peer address. Forwarding headers are not trusted here.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
