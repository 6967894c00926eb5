package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"postpanel/app/cache"
	"postpanel/app/models"
	"postpanel/app/panel"
	"postpanel/app/repositories"
	"postpanel/app/repositories/mock"
	"postpanel/app/services"
	"postpanel/app/storage"
	"postpanel/app/views"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	router   *mux.Router
	store    *repositories.Store
	category *models.Category
	author   *models.Author
}

func setupTestPostController(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	store := mock.NewStore().Repositories()
	disk, err := storage.NewDisk(t.TempDir(), "/storage", 0)
	require.NoError(t, err)
	logger := zap.NewNop()
	resource := panel.PostResource()

	view, err := NewView(views.FS, sessions.NewCookieStore([]byte("secret")), disk, resource)
	require.NoError(t, err)

	optionsCache, err := cache.NewMemoryOptionsCache(0)
	require.NoError(t, err)
	t.Cleanup(optionsCache.Close)

	postService := services.NewPostService(store, disk, logger)
	categoryService := services.NewCategoryService(store.Categories, optionsCache, logger)
	authorService := services.NewAuthorService(store, logger)
	pc := NewPostController(postService, categoryService, authorService, resource, view, logger, 0)
	ac := NewAuthorController(authorService, postService, resource, view, logger)
	cc := NewCategoryController(categoryService, logger)

	router := mux.NewRouter()
	router.HandleFunc("/admin/posts", pc.Index).Methods("GET")
	router.HandleFunc("/admin/posts/create", pc.New).Methods("GET")
	router.HandleFunc("/admin/posts", pc.Create).Methods("POST")
	router.HandleFunc("/admin/posts/{record:[0-9]+}/edit", pc.Edit).Methods("GET")
	router.HandleFunc("/admin/posts/{record:[0-9]+}", pc.Update).Methods("POST")
	router.HandleFunc("/api/posts", pc.Index).Methods("GET")
	router.HandleFunc("/api/posts", pc.Create).Methods("POST")
	router.HandleFunc("/api/posts/{id:[0-9]+}", pc.Show).Methods("GET")
	router.HandleFunc("/api/posts/{id:[0-9]+}", pc.Update).Methods("PUT")
	router.HandleFunc("/api/posts/{id:[0-9]+}", pc.Delete).Methods("DELETE")
	router.HandleFunc("/api/posts/{id:[0-9]+}/authors", ac.Related).Methods("GET")
	router.HandleFunc("/api/categories", cc.Create).Methods("POST")
	router.HandleFunc("/api/authors", ac.Create).Methods("POST")

	env := &testEnv{
		router:   router,
		store:    store,
		category: &models.Category{Name: "News", Slug: "news"},
		author:   &models.Author{Name: "Alice"},
	}
	require.NoError(t, store.Categories.Create(ctx, env.category))
	require.NoError(t, store.Authors.Create(ctx, env.author))
	return env
}

func (e *testEnv) post(t *testing.T, title string) *models.Post {
	p := &models.Post{
		Title:      title,
		Slug:       title,
		Color:      "#000000",
		CategoryID: e.category.ID,
		Content:    "content",
		Thumbnail:  "thumbnails/a.png",
		Tags:       []string{"tag"},
	}
	require.NoError(t, e.store.Posts.Create(context.Background(), p))
	return p
}

func TestPostController(t *testing.T) {
	env := setupTestPostController(t)

	t.Run("create post", func(t *testing.T) {
		payload := `{
			"title": "Test Post",
			"slug": "test-post",
			"color": "#abcdef",
			"category_slug": "news",
			"content": "This is a test post content",
			"thumbnail": "thumbnails/test.png",
			"tags": ["one"]
		}`
		req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		env.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var response models.Post
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.NotZero(t, response.ID)
		assert.Equal(t, "Test Post", response.Title)
		assert.Equal(t, env.category.ID, response.CategoryID)
	})

	t.Run("get post", func(t *testing.T) {
		post := env.post(t, "shown")

		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var response models.Post
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "shown", response.Title)
		require.NotNil(t, response.Category)
		assert.Equal(t, "news", response.Category.Slug)
	})

	t.Run("update post", func(t *testing.T) {
		post := env.post(t, "old")

		req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/posts/%d", post.ID),
			strings.NewReader(`{"title":"new","published":true}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var response models.Post
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "new", response.Title)
		assert.Equal(t, "old", response.Slug)
		assert.True(t, response.Published)
	})

	t.Run("delete post", func(t *testing.T) {
		post := env.post(t, "gone")

		req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/posts/%d", post.ID), nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)

		_, err := env.store.Posts.GetByID(context.Background(), post.ID)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("list posts", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/posts?per_page=5", nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var response struct {
			Data     []models.Post `json:"data"`
			Total    int           `json:"total"`
			PerPage  int           `json:"per_page"`
			LastPage int           `json:"last_page"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 3, response.Total)
		assert.Equal(t, 5, response.PerPage)
		assert.Equal(t, 1, response.LastPage)
	})

	t.Run("related authors of missing post", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/posts/999/authors", nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
	})
}

func TestPostControllerPages(t *testing.T) {
	env := setupTestPostController(t)
	post := env.post(t, "paged")

	tests := []struct {
		name     string
		path     string
		status   int
		contains string
	}{
		{name: "index", path: "/admin/posts", status: http.StatusOK, contains: "paged"},
		{name: "index as json", path: "/admin/posts", status: http.StatusOK, contains: `"current_page":1`},
		{name: "create", path: "/admin/posts/create", status: http.StatusOK, contains: "Create Post"},
		{name: "edit", path: fmt.Sprintf("/admin/posts/%d/edit", post.ID), status: http.StatusOK, contains: "Edit Post"},
		{name: "edit missing", path: "/admin/posts/42/edit", status: http.StatusNotFound, contains: "Not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if strings.HasSuffix(tt.name, "as json") {
				req.Header.Set("Accept", "application/json")
			}
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
}

func TestPostControllerFormErrors(t *testing.T) {
	env := setupTestPostController(t)
	post := env.post(t, "existing")

	values := url.Values{
		"title":       {""},
		"slug":        {"still-here"},
		"color":       {"#000"},
		"category_id": {fmt.Sprint(env.category.ID)},
		"content":     {"body"},
		"tags":        {"a"},
	}
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/admin/posts/%d", post.ID), strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "The title field is required.")
	assert.Contains(t, body, "still-here")
	// the stored thumbnail is still previewed
	assert.Contains(t, body, "/storage/thumbnails/a.png")
}

func TestCategoryAndAuthorCreate(t *testing.T) {
	env := setupTestPostController(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{name: "category", path: "/api/categories", body: `{"name":"Tech","slug":"tech"}`, status: http.StatusCreated},
		{name: "category taken", path: "/api/categories", body: `{"name":"Tech","slug":"news"}`, status: http.StatusUnprocessableEntity},
		{name: "category malformed", path: "/api/categories", body: `[`, status: http.StatusBadRequest},
		{name: "author", path: "/api/authors", body: `{"name":"Bob","email":"bob@example.com"}`, status: http.StatusCreated},
		{name: "author bad email", path: "/api/authors", body: `{"name":"Bob","email":"bob"}`, status: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}
