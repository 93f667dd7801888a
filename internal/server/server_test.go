package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devidw/rem/internal/assets"
	"github.com/devidw/rem/internal/catalog"
	"github.com/devidw/rem/internal/config"
	"github.com/devidw/rem/internal/document"
	"github.com/devidw/rem/internal/session"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cat, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cat.Close() })

	fs := memfs.New()
	docs, err := document.Open(fs, cat, 0, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = docs.Close() })

	sess, err := session.New(docs, zap.NewNop())
	require.NoError(t, err)

	cfg := &config.Config{
		Addr:          ":0",
		DataDir:       "unused",
		MaxAssetBytes: 1 << 20,
		EnableCORS:    false,
	}
	srv := New(cfg, docs, assets.New(fs, cat, cfg.MaxAssetBytes, zap.NewNop()), sess, zap.NewNop())

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDocumentRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	doc := `{"store":{"page:a":{"id":"page:a","typeName":"page","name":"a"}},"session":{}}`
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/document", bytes.NewReader([]byte(doc)))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/document")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "page:a")

	// The replaced snapshot is reflected in the page listing.
	resp, err = http.Get(ts.URL + "/api/pages")
	require.NoError(t, err)
	pages := decode[[]pageResponse](t, resp)
	var found bool
	for _, p := range pages {
		if p.Path == "/a" {
			found = true
		}
	}
	assert.True(t, found, "replaced snapshot should surface /a")
}

func TestPutDocument_Malformed(t *testing.T) {
	ts := newTestServer(t)
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/document", bytes.NewReader([]byte("nope")))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestPageLifecycle(t *testing.T) {
	ts := newTestServer(t)

	// Create.
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/pages", map[string]string{"parent": "/", "name": "a"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[pageResponse](t, resp)
	assert.Equal(t, "/a", created.Path)
	assert.True(t, created.Current)

	// Duplicate create conflicts.
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/pages", map[string]string{"parent": "/", "name": "a"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()

	// Child, then move the subtree.
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/pages", map[string]string{"parent": "/a", "name": "sub"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, http.MethodPatch, ts.URL+"/api/pages/"+created.ID, map[string]string{"path": "/x/y"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	move := decode[map[string]any](t, resp)
	assert.Equal(t, "/x/y", move["path"])
	assert.EqualValues(t, 1, move["rewritten"])

	// Delete the whole moved subtree.
	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/pages/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	del := decode[map[string]any](t, resp)
	assert.EqualValues(t, 2, del["removed"])
}

func TestRenameRootRefused(t *testing.T) {
	ts := newTestServer(t)
	resp := doJSON(t, http.MethodPatch, ts.URL+"/api/pages/page:root", map[string]string{"path": "/x"})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestDeleteRootRefused(t *testing.T) {
	ts := newTestServer(t)
	resp := doJSON(t, http.MethodDelete, ts.URL+"/api/pages/page:root", nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestPageNotFound(t *testing.T) {
	ts := newTestServer(t)
	resp := doJSON(t, http.MethodDelete, ts.URL+"/api/pages/page:missing", nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAssetUploadAndServe(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/assets?name=pic.png", "application/octet-stream",
		bytes.NewReader([]byte("png payload")))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	meta := decode[map[string]any](t, resp)
	assert.Equal(t, "image/png", meta["mime"])

	resp, err = http.Get(ts.URL + fmt.Sprint(meta["url"]))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "png payload", string(data))
}

func TestAssetNotFound(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/assets/nope")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCheckpointLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/pages", map[string]string{"parent": "/", "name": "keep"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/checkpoints", map[string]string{"note": "baseline"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cp := decode[map[string]any](t, resp)

	// Diverge.
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/pages", map[string]string{"parent": "/", "name": "extra"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	// Restore rolls /extra back out.
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/checkpoints/"+fmt.Sprint(cp["id"])+"/restore", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err := http.Get(ts.URL + "/api/pages")
	require.NoError(t, err)
	pages := decode[[]pageResponse](t, resp)
	var sawKeep, sawExtra bool
	for _, p := range pages {
		switch p.Path {
		case "/keep":
			sawKeep = true
		case "/extra":
			sawExtra = true
		}
	}
	assert.True(t, sawKeep)
	assert.False(t, sawExtra)
}
