package tika

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
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestExtractPath(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/tika", r.URL.Path)
		assert.Equal(t, "text/plain", r.Header.Get("Accept"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "raw bytes", string(body))
		_, _ = w.Write([]byte("Jane  Doe\r\nSkills:\tGo\n"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	text, err := c.ExtractPath(context.Background(), "resume.txt", writeTemp(t, "raw bytes"))
	require.NoError(t, err)
	// Intra-line whitespace collapses; line breaks survive for section parsing.
	assert.Equal(t, "Jane Doe\nSkills: Go", text)
}

func TestExtractPath_ServerError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.ExtractPath(context.Background(), "resume.pdf", writeTemp(t, "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tika status 422")
}

func TestExtractPath_DisallowedPath(t *testing.T) {
	t.Parallel()
	c := New("http://unused")
	_, err := c.ExtractPath(context.Background(), "x", "/etc/passwd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disallowed path")
}

func TestDetectContentType(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "application/pdf", detectContentType("cv.pdf", []byte("%PDF-1.7 stub")))
	assert.Equal(t, "text/plain; charset=utf-8", detectContentType("cv.txt", []byte("plain words here")))
}
