package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func named(name string) HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(name))
	}
}

func serve(r *Router, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRouterExactAndWildcard(t *testing.T) {
	r := New()
	r.GET("/api/v1/reports", named("list"))
	r.POST("/api/v1/reports", named("create"))
	r.GET("/api/v1/reports/*/stages", named("stages"))
	r.GET("/api/v1/reports/*/files/*", named("file"))
	r.GET("/api/v1/reports/*", named("get"))

	tests := []struct {
		method string
		path   string
		status int
		body   string
	}{
		{http.MethodGet, "/api/v1/reports", http.StatusOK, "list"},
		{http.MethodPost, "/api/v1/reports", http.StatusOK, "create"},
		{http.MethodGet, "/api/v1/reports/abc/stages", http.StatusOK, "stages"},
		{http.MethodGet, "/api/v1/reports/abc/files/report.json", http.StatusOK, "file"},
		{http.MethodGet, "/api/v1/reports/abc", http.StatusOK, "get"},
		{http.MethodDelete, "/api/v1/reports", http.StatusMethodNotAllowed, ""},
		{http.MethodPost, "/api/v1/reports/abc", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/api/v2/nothing", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := serve(r, tt.method, tt.path)
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestRouterFirstRegisteredWildcardWins(t *testing.T) {
	// Both patterns match; repeated requests must always pick the first.
	r := New()
	r.GET("/datasets/*/options", named("options"))
	r.GET("/datasets/*", named("catch-all"))

	for i := 0; i < 50; i++ {
		assert.Equal(t, "options", serve(r, http.MethodGet, "/datasets/total/options").Body.String())
	}
}

func TestRouterMethodNotAllowedListsMethods(t *testing.T) {
	r := New()
	r.GET("/items", named("list"))
	r.POST("/items", named("create"))
	r.DELETE("/items/*/cache", named("drop"))

	rec := serve(r, http.MethodPut, "/items")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, POST", rec.Header().Get("Allow"))

	rec = serve(r, http.MethodGet, "/items/x/cache")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "DELETE", rec.Header().Get("Allow"))
}

func TestRouterHandle(t *testing.T) {
	r := New()
	r.Handle("/docs/*", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(req.URL.Path))
	}))

	rec := serve(r, http.MethodGet, "/docs/index.html")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/docs/index.html", rec.Body.String())
}

func TestMatchWildcardRoute(t *testing.T) {
	assert.True(t, matchWildcardRoute("/swagger/index.html", "/swagger/*"))
	assert.True(t, matchWildcardRoute("/swagger/a/b/c", "/swagger/*"))
	assert.True(t, matchWildcardRoute("/a/x/c", "/a/*/c"))
	assert.False(t, matchWildcardRoute("/a/x/d", "/a/*/c"))
	assert.False(t, matchWildcardRoute("/a/x/c/d", "/a/*/c"))
	assert.False(t, matchWildcardRoute("/b/x", "/a/*"))
	assert.True(t, matchWildcardRoute("/r/1/files/out.csv", "/r/*/files/*"))
	assert.False(t, matchWildcardRoute("/r/1/stages/out.csv", "/r/*/files/*"))
}

func TestStatusColor(t *testing.T) {
	assert.Equal(t, colorGreen, statusColor(http.StatusOK))
	assert.Equal(t, colorYellow, statusColor(http.StatusNotFound))
	assert.Equal(t, colorRed, statusColor(http.StatusInternalServerError))
}
