package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftcars/autopilot/pkg/core"
)

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("http://localhost:5000/", "secret")
	assert.Equal(t, "http://localhost:5000", c.baseURL)
	assert.Equal(t, "secret", c.apiKey)
	assert.NotNil(t, c.httpClient)
}

func TestHealthcheck(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"ok", http.StatusOK, false},
		{"server error", http.StatusInternalServerError, true},
		{"not found", http.StatusNotFound, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/healthcheck", r.URL.Path)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			err := New(server.URL, "").Healthcheck(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHealthcheck_ServerDown(t *testing.T) {
	assert.Error(t, New("http://127.0.0.1:1", "").Healthcheck(context.Background()))
}

func TestUpload_Success(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Qualifier_20260301_120000_run-0001.json.gz")
	require.NoError(t, os.WriteFile(path, []byte("run data"), 0644))

	var form map[string]string
	var content []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UploadPath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		form = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			form[k] = v[0]
		}
		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		content, _ = io.ReadAll(f)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	meta := core.UploadMetadata{RunID: "run-0001", Mode: "vision", Tag: "Qualifier", RunDuration: 92.5}
	require.NoError(t, New(server.URL, "secret").Upload(context.Background(), path, meta))

	assert.Equal(t, "secret", form["secret"])
	assert.Equal(t, filepath.Base(path), form["filename"])
	assert.Equal(t, "run-0001", form["runId"])
	assert.Equal(t, "vision", form["mode"])
	assert.Equal(t, "Qualifier", form["tag"])
	assert.Equal(t, "92.500", form["runDuration"])
	assert.Equal(t, "run data", string(content))
}

func TestUpload_Rejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	err := New(server.URL, "wrong").Upload(context.Background(), path, core.UploadMetadata{})
	assert.ErrorContains(t, err, "403")
}

func TestUpload_MissingFile(t *testing.T) {
	err := New("http://127.0.0.1:1", "").Upload(context.Background(), "/nonexistent/run.json", core.UploadMetadata{})
	assert.ErrorContains(t, err, "failed to open file")
}
