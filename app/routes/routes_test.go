package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"postpanel/app/cache"
	"postpanel/app/storage"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSetupRoutes(t *testing.T) {
	app := setupTestRouter(t)
	post := app.createPost(t, "first", false)
	id := fmt.Sprint(post.ID)

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
		expectedHeader string
	}{
		{name: "home redirects", method: "GET", path: "/", expectedStatus: http.StatusFound},
		{name: "index page", method: "GET", path: "/admin/posts", expectedStatus: http.StatusOK, expectedHeader: "text/html; charset=utf-8"},
		{name: "create page", method: "GET", path: "/admin/posts/create", expectedStatus: http.StatusOK, expectedHeader: "text/html; charset=utf-8"},
		{name: "edit page", method: "GET", path: "/admin/posts/" + id + "/edit", expectedStatus: http.StatusOK, expectedHeader: "text/html; charset=utf-8"},
		{name: "edit missing", method: "GET", path: "/admin/posts/999/edit", expectedStatus: http.StatusNotFound},
		{name: "authors manager", method: "GET", path: "/admin/posts/" + id + "/authors", expectedStatus: http.StatusOK, expectedHeader: "text/html; charset=utf-8"},
		{name: "api posts", method: "GET", path: "/api/posts", expectedStatus: http.StatusOK, expectedHeader: "application/json"},
		{name: "api single post", method: "GET", path: "/api/posts/" + id, expectedStatus: http.StatusOK, expectedHeader: "application/json"},
		{name: "api post authors", method: "GET", path: "/api/posts/" + id + "/authors", expectedStatus: http.StatusOK, expectedHeader: "application/json"},
		{name: "api categories", method: "GET", path: "/api/categories", expectedStatus: http.StatusOK, expectedHeader: "application/json"},
		{name: "api category options", method: "GET", path: "/api/categories/options", expectedStatus: http.StatusOK, expectedHeader: "application/json"},
		{name: "api authors", method: "GET", path: "/api/authors", expectedStatus: http.StatusOK, expectedHeader: "application/json"},
		{name: "api schema", method: "GET", path: "/api/resources/posts", expectedStatus: http.StatusOK, expectedHeader: "application/json"},
		{name: "invalid post ID", method: "GET", path: "/api/posts/invalid", expectedStatus: http.StatusNotFound, expectedHeader: "application/json"},
		{name: "missing post", method: "GET", path: "/api/posts/999", expectedStatus: http.StatusNotFound, expectedHeader: "application/json"},
		{name: "unknown storage file", method: "GET", path: "/storage/thumbnails/none.png", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := app.serve(req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedHeader != "" {
				assert.Equal(t, tt.expectedHeader, w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestStorageRoute(t *testing.T) {
	app := setupTestRouter(t)
	rel, err := app.disk.PutImage("thumbnails", strings.NewReader(string(pixel(t))))
	require.NoError(t, err)

	w := app.serve(httptest.NewRequest("GET", "/storage/"+rel, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, pixel(t), w.Body.Bytes())
}

func TestNewHandlerCORS(t *testing.T) {
	disk, err := storage.NewDisk(t.TempDir(), "/storage", 0)
	require.NoError(t, err)
	optionsCache, err := cache.NewMemoryOptionsCache(0)
	require.NoError(t, err)
	defer optionsCache.Close()
	handler, err := NewHandler(Dependencies{
		Store:       setupTestStore(t),
		Disk:        disk,
		Cache:       optionsCache,
		Sessions:    sessions.NewCookieStore([]byte("test-secret")),
		Logger:      zap.NewNop(),
		CORSOrigins: []string{"http://localhost:3000"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStartServer(t *testing.T) {
	router := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- StartServer(ctx, addr, router, zap.NewNop())
	}()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + addr + "/")
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var response map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	assert.Equal(t, "ok", response["status"])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
