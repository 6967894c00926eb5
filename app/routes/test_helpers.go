package routes

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"postpanel/app/cache"
	"postpanel/app/models"
	"postpanel/app/repositories"
	"postpanel/app/storage"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 1x1 transparent PNG.
const pixelPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

type testApp struct {
	router     *mux.Router
	store      *repositories.Store
	disk       *storage.Disk
	categories []*models.Category
	authors    []*models.Author
}

func setupTestStore(t *testing.T) *repositories.Store {
	store, err := repositories.OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// setupTestRouter builds the full router over an in-memory badger store seeded with
// two categories and two authors.
func setupTestRouter(t *testing.T) *testApp {
	t.Helper()
	store := setupTestStore(t)
	disk, err := storage.NewDisk(t.TempDir(), "/storage", 1<<20)
	require.NoError(t, err)
	optionsCache, err := cache.NewMemoryOptionsCache(0)
	require.NoError(t, err)
	t.Cleanup(optionsCache.Close)

	router, err := SetupRoutes(Dependencies{
		Store:       store,
		Disk:        disk,
		Cache:       optionsCache,
		Sessions:    sessions.NewCookieStore([]byte("test-secret")),
		Logger:      zap.NewNop(),
		PerPage:     repositories.DefaultPerPage,
		StoragePath: "/storage",
	})
	require.NoError(t, err)

	app := &testApp{router: router, store: store, disk: disk}
	ctx := context.Background()
	for _, c := range []*models.Category{
		{Name: "News", Slug: "news"},
		{Name: "Sports", Slug: "sports"},
	} {
		require.NoError(t, store.Categories.Create(ctx, c))
		app.categories = append(app.categories, c)
	}
	for _, a := range []*models.Author{
		{Name: "Alice", Email: "alice@example.com"},
		{Name: "Bob", Email: "bob@example.com"},
	} {
		require.NoError(t, store.Authors.Create(ctx, a))
		app.authors = append(app.authors, a)
	}
	return app
}

// createPost stores a post directly through the repository.
func (a *testApp) createPost(t *testing.T, title string, published bool) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:      title,
		Slug:       title,
		Color:      "#336699",
		CategoryID: a.categories[0].ID,
		Content:    "<p>" + title + "</p>",
		Thumbnail:  "thumbnails/existing.png",
		Tags:       []string{"go"},
		Published:  published,
	}
	require.NoError(t, a.store.Posts.Create(context.Background(), post))
	return post
}

func (a *testApp) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func pixel(t *testing.T) []byte {
	data, err := base64.StdEncoding.DecodeString(pixelPNG)
	require.NoError(t, err)
	return data
}

// multipartBody encodes fields and an optional thumbnail file.
func multipartBody(t *testing.T, fields map[string][]string, thumbnail []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, values := range fields {
		for _, v := range values {
			require.NoError(t, mw.WriteField(name, v))
		}
	}
	if thumbnail != nil {
		part, err := mw.CreateFormFile("thumbnail", "cover.png")
		require.NoError(t, err)
		_, err = part.Write(thumbnail)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

// withCookies copies the cookies set by a response onto the next request.
func withCookies(req *http.Request, from *httptest.ResponseRecorder) *http.Request {
	for _, c := range from.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func listAll() repositories.PostQuery {
	return repositories.PostQuery{PerPage: repositories.AllPerPage}
}
