package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionHandler(t *testing.T) {
	tests := []struct {
		name                          string
		version, gitCommit, buildDate string
		want                          versionResponse
	}{
		{
			name:      "injected values",
			version:   "1.2.3",
			gitCommit: "abc123",
			buildDate: "2024-01-15T00:00:00Z",
			want:      versionResponse{Version: "1.2.3", GitCommit: "abc123", BuildDate: "2024-01-15T00:00:00Z"},
		},
		{
			name: "defaults",
			want: versionResponse{Version: "dev", GitCommit: "unknown", BuildDate: "unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := httptest.NewRecorder()
			VersionHandler(tt.version, tt.gitCommit, tt.buildDate).
				ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/version", nil))

			require.Equal(t, http.StatusOK, res.Code)
			var got versionResponse
			require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
			tt.want.GoVersion = runtime.Version()
			require.Equal(t, tt.want, got)
		})
	}
}
