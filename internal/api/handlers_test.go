package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdash/forget-me-not/internal/config"
	"github.com/opsdash/forget-me-not/internal/modules"
	"github.com/opsdash/forget-me-not/internal/service/exclusions"
	"github.com/opsdash/forget-me-not/internal/updatecheck"
)

// memStore is a minimal in-memory exclusions.Store.
type memStore struct{ modules []string }

func (m *memStore) Get(_ context.Context) ([]string, error) {
	return append([]string(nil), m.modules...), nil
}
func (m *memStore) Set(_ context.Context, mods []string) error {
	m.modules = append([]string(nil), mods...)
	return nil
}
func (m *memStore) Delete(_ context.Context) error {
	m.modules = nil
	return nil
}

// failStore returns a fixed error from every operation.
type failStore struct{ err error }

func (f *failStore) Get(_ context.Context) ([]string, error) { return nil, f.err }
func (f *failStore) Set(_ context.Context, _ []string) error { return f.err }
func (f *failStore) Delete(_ context.Context) error          { return f.err }

// fakeLister returns a fixed enabled-module set.
type fakeLister struct{ enabled []modules.Module }

func (f *fakeLister) Enabled(_ context.Context) ([]modules.Module, error) {
	return f.enabled, nil
}

// fakeProvider returns a fixed pending-update set.
type fakeProvider struct{ pending map[string]updatecheck.Project }

func (f *fakeProvider) PendingUpdates(_ context.Context) (map[string]updatecheck.Project, error) {
	return f.pending, nil
}

func setupTestServer(t *testing.T, store exclusions.Store) *Server {
	t.Helper()

	svc := exclusions.NewService(store)
	lister := &fakeLister{enabled: []modules.Module{
		{Name: "dashboard", Title: "Dashboard", Version: "2.1.0", Enabled: true},
		{Name: "metrics", Title: "Metrics", Version: "1.4.2", Enabled: true},
		{Name: "tracking", Title: "Tracking", Version: "3.0.0", Enabled: true},
	}}
	checker := updatecheck.NewChecker(&fakeProvider{pending: map[string]updatecheck.Project{
		"dashboard": {Name: "dashboard", InstalledVersion: "2.1.0", LatestVersion: "2.2.0"},
		"metrics":   {Name: "metrics", InstalledVersion: "1.4.2", LatestVersion: "1.5.0"},
	}}, svc)

	handlers := NewHandlers(svc, lister, checker)
	// No auth manager: the capability gate is covered in routes_test.go
	return NewServer(config.ServerConfig{Host: "localhost", Port: 8080}, handlers, nil)
}

func postForm(t *testing.T, srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	srv := setupTestServer(t, &memStore{})

	w := get(t, srv, "/health")

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestOverview_EmptyState(t *testing.T) {
	srv := setupTestServer(t, &memStore{})

	w := get(t, srv, PathOverview)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No modules are currently excluded")
}

func TestOverview_ListsExcludedWithRemoveControls(t *testing.T) {
	srv := setupTestServer(t, &memStore{modules: []string{"alpha", "beta"}})

	w := get(t, srv, PathOverview)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `data-module="alpha"`)
	assert.Contains(t, body, `data-module="beta"`)
}

func TestOverview_EscapesIdentifiers(t *testing.T) {
	srv := setupTestServer(t, &memStore{modules: []string{`<script>alert(1)</script>`}})

	w := get(t, srv, PathOverview)

	body := w.Body.String()
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestSelectForm_OmitsAlreadyExcluded(t *testing.T) {
	srv := setupTestServer(t, &memStore{modules: []string{"dashboard"}})

	w := get(t, srv, PathSelectForm)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.NotContains(t, body, `value="dashboard"`)
	assert.Contains(t, body, `value="metrics"`)
	assert.Contains(t, body, `value="tracking"`)
}

func TestSubmitSelection_AddsModulesAndRedirects(t *testing.T) {
	store := &memStore{}
	srv := setupTestServer(t, store)

	w := postForm(t, srv, PathSelectForm, url.Values{"modules": {"alpha", "beta"}})

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, PathOverview+"?notice=added", w.Header().Get("Location"))
	assert.ElementsMatch(t, []string{"alpha", "beta"}, store.modules)

	// Overview now lists exactly those two with remove controls
	overview := get(t, srv, PathOverview+"?notice=added")
	body := overview.Body.String()
	assert.Contains(t, body, `data-module="alpha"`)
	assert.Contains(t, body, `data-module="beta"`)
	assert.Contains(t, body, "no longer be checked")
}

func TestSubmitSelection_NothingSelected(t *testing.T) {
	store := &memStore{}
	srv := setupTestServer(t, store)

	w := postForm(t, srv, PathSelectForm, url.Values{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No modules selected")
	assert.Empty(t, store.modules)
}

func TestRemoveModule_Present(t *testing.T) {
	store := &memStore{modules: []string{"alpha"}}
	srv := setupTestServer(t, store)

	w := postForm(t, srv, PathRemoveModule, url.Values{"module": {"alpha"}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success"}`, w.Body.String())
	assert.Empty(t, store.modules)
}

func TestRemoveModule_Absent(t *testing.T) {
	store := &memStore{modules: []string{"alpha"}}
	srv := setupTestServer(t, store)

	w := postForm(t, srv, PathRemoveModule, url.Values{"module": {"beta"}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"error"}`, w.Body.String())
	// Stored set unchanged
	assert.Equal(t, []string{"alpha"}, store.modules)
}

func TestRemoveModule_MissingField(t *testing.T) {
	srv := setupTestServer(t, &memStore{modules: []string{"alpha"}})

	w := postForm(t, srv, PathRemoveModule, url.Values{})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"error"}`, w.Body.String())
}

func TestRemoveModule_StorageError(t *testing.T) {
	srv := setupTestServer(t, &failStore{err: errors.New("connection refused")})

	w := postForm(t, srv, PathRemoveModule, url.Values{"module": {"alpha"}})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status":"error"}`, w.Body.String())
}

func TestOverview_StorageError(t *testing.T) {
	srv := setupTestServer(t, &failStore{err: errors.New("connection refused")})

	w := get(t, srv, PathOverview)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	// No partial page rendered before the error surfaced
	assert.NotContains(t, w.Body.String(), "<table")
}

func TestRemoveModule_MalformedEncoding(t *testing.T) {
	srv := setupTestServer(t, &memStore{modules: []string{"alpha"}})

	// Invalid UTF-8 in the module field behaves as not-found
	w := postForm(t, srv, PathRemoveModule, url.Values{"module": {string([]byte{0xff, 0xfe})}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"error"}`, w.Body.String())
}

func TestGetUpdates_FiltersExcludedModules(t *testing.T) {
	srv := setupTestServer(t, &memStore{modules: []string{"dashboard"}})

	w := get(t, srv, PathUpdates)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.NotContains(t, body, `"dashboard"`)
	assert.Contains(t, body, `"metrics"`)
}
