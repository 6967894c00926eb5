package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"postpanel/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiPage struct {
	Data []struct {
		ID        int              `json:"id"`
		Title     string           `json:"title"`
		Slug      string           `json:"slug"`
		Published bool             `json:"published"`
		Category  *models.Category `json:"category"`
	} `json:"data"`
	Total       int `json:"total"`
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	LastPage    int `json:"last_page"`
}

type apiErrors struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAPIPostLifecycle(t *testing.T) {
	app := setupTestRouter(t)
	news := app.categories[0]
	alice := app.authors[0]

	// create
	payload := fmt.Sprintf(`{
		"title": "Hello API",
		"slug": "hello-api",
		"color": "#123abc",
		"category_id": %d,
		"content": "<p>body</p>",
		"thumbnail": "thumbnails/cover.png",
		"tags": ["go", "api"],
		"author_ids": [%d]
	}`, news.ID, alice.ID)
	w := app.serve(jsonRequest("POST", "/api/posts", payload))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var created models.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Hello API", created.Title)
	assert.Equal(t, []string{"go", "api"}, created.Tags)
	require.NotNil(t, created.Category)
	assert.Equal(t, "News", created.Category.Name)
	require.Len(t, created.Authors, 1)
	assert.Equal(t, "Alice", created.Authors[0].Name)
	id := fmt.Sprint(created.ID)

	// list
	w = app.serve(httptest.NewRequest("GET", "/api/posts", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var page apiPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, "hello-api", page.Data[0].Slug)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 1, page.LastPage)

	// partial update keeps the other fields
	w = app.serve(jsonRequest("PUT", "/api/posts/"+id, `{"title": "Renamed"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "hello-api", updated.Slug)
	assert.Equal(t, "thumbnails/cover.png", updated.Thumbnail)
	assert.Equal(t, []int{alice.ID}, updated.AuthorIDs())

	// publish toggle
	w = app.serve(jsonRequest("POST", "/api/posts/"+id+"/published", `{"published": true}`))
	require.Equal(t, http.StatusOK, w.Code)
	var toggled models.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &toggled))
	assert.True(t, toggled.Published)

	// delete
	w = app.serve(httptest.NewRequest("DELETE", "/api/posts/"+id, nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = app.serve(httptest.NewRequest("GET", "/api/posts/"+id, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.serve(httptest.NewRequest("DELETE", "/api/posts/"+id, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPIValidation(t *testing.T) {
	app := setupTestRouter(t)

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		status  int
		field   string
		message string
	}{
		{
			name:    "missing title",
			method:  "POST",
			path:    "/api/posts",
			body:    fmt.Sprintf(`{"slug":"s","color":"#fff","category_id":%d,"content":"c","thumbnail":"t.png","tags":["a"]}`, app.categories[0].ID),
			status:  http.StatusUnprocessableEntity,
			field:   "title",
			message: "The title field is required.",
		},
		{
			name:    "unknown category",
			method:  "POST",
			path:    "/api/posts",
			body:    `{"title":"t","slug":"s","color":"#fff","category_id":999,"content":"c","thumbnail":"t.png","tags":["a"]}`,
			status:  http.StatusUnprocessableEntity,
			field:   "category_id",
			message: "The selected category is invalid.",
		},
		{
			name:    "duplicate category slug",
			method:  "POST",
			path:    "/api/categories",
			body:    `{"name":"Other","slug":"news"}`,
			status:  http.StatusUnprocessableEntity,
			field:   "slug",
			message: "The slug has already been taken.",
		},
		{
			name:    "author without name",
			method:  "POST",
			path:    "/api/authors",
			body:    `{"email":"x@example.com"}`,
			status:  http.StatusUnprocessableEntity,
			field:   "name",
			message: "The name field is required.",
		},
		{
			name:   "malformed json",
			method: "POST",
			path:   "/api/posts",
			body:   `{"title":`,
			status: http.StatusBadRequest,
		},
		{
			name:    "publish without value",
			method:  "POST",
			path:    "/api/posts/1/published",
			body:    `{}`,
			status:  http.StatusUnprocessableEntity,
			field:   "published",
			message: "The published field is required.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.serve(jsonRequest(tt.method, tt.path, tt.body))
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			if tt.field == "" {
				return
			}
			var res apiErrors
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
			assert.Equal(t, tt.message, res.Errors[tt.field])
		})
	}
}

func TestAPIListFilters(t *testing.T) {
	app := setupTestRouter(t)
	app.createPost(t, "alpha", true)
	app.createPost(t, "beta", false)
	sports := app.createPost(t, "gamma", true)
	sports.CategoryID = app.categories[1].ID
	require.NoError(t, app.store.Posts.Update(context.Background(), sports))

	tests := []struct {
		name   string
		query  string
		titles []string
		total  int
	}{
		{name: "newest first", query: "", titles: []string{"gamma", "beta", "alpha"}, total: 3},
		{name: "published only", query: "published=true", titles: []string{"gamma", "alpha"}, total: 2},
		{name: "drafts only", query: "published=false", titles: []string{"beta"}, total: 1},
		{name: "by category", query: fmt.Sprintf("category_id=%d", app.categories[1].ID), titles: []string{"gamma"}, total: 1},
		{name: "search", query: "search=ALP", titles: []string{"alpha"}, total: 1},
		{name: "search category name", query: "search=sports", titles: []string{"gamma"}, total: 1},
		{name: "sort by title", query: "sort=title&direction=asc", titles: []string{"alpha", "beta", "gamma"}, total: 3},
		{name: "paged", query: "sort=title&direction=asc&per_page=5&page=1", titles: []string{"alpha", "beta", "gamma"}, total: 3},
		{name: "past last page", query: "per_page=5&page=2", titles: nil, total: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.serve(httptest.NewRequest("GET", "/api/posts?"+tt.query, nil))
			require.Equal(t, http.StatusOK, w.Code)

			var page apiPage
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
			var titles []string
			for _, p := range page.Data {
				titles = append(titles, p.Title)
			}
			assert.Equal(t, tt.titles, titles)
			assert.Equal(t, tt.total, page.Total)
		})
	}

}

func TestAPIBulkDelete(t *testing.T) {
	app := setupTestRouter(t)
	a := app.createPost(t, "a", false)
	b := app.createPost(t, "b", false)
	c := app.createPost(t, "c", false)

	w := app.serve(jsonRequest("POST", "/api/posts/bulk-delete", fmt.Sprintf(`{"ids":[%d,%d,999]}`, a.ID, b.ID)))
	require.Equal(t, http.StatusOK, w.Code)
	var res map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 2, res["deleted"])

	w = app.serve(httptest.NewRequest("GET", "/api/posts", nil))
	var page apiPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, c.ID, page.Data[0].ID)
}

func TestAPIAuthorsRelation(t *testing.T) {
	app := setupTestRouter(t)
	post := app.createPost(t, "post", false)
	id := fmt.Sprint(post.ID)
	alice, bob := app.authors[0], app.authors[1]

	w := app.serve(jsonRequest("POST", "/api/posts/"+id+"/authors", fmt.Sprintf(`{"author_id": %d}`, bob.ID)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = app.serve(jsonRequest("POST", "/api/posts/"+id+"/authors", fmt.Sprintf(`{"author_id": %d}`, alice.ID)))
	require.Equal(t, http.StatusOK, w.Code)

	var authors []models.Author
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &authors))
	require.Len(t, authors, 2)
	assert.Equal(t, "Alice", authors[0].Name)
	assert.Equal(t, "Bob", authors[1].Name)

	w = app.serve(jsonRequest("POST", "/api/posts/"+id+"/authors", `{"author_id": 999}`))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = app.serve(httptest.NewRequest("DELETE", fmt.Sprintf("/api/posts/%s/authors/%d", id, bob.ID), nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = app.serve(httptest.NewRequest("DELETE", fmt.Sprintf("/api/posts/%s/authors/%d", id, bob.ID), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.serve(httptest.NewRequest("GET", "/api/posts/"+id+"/authors", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &authors))
	require.Len(t, authors, 1)
	assert.Equal(t, alice.ID, authors[0].ID)
}

func TestAPICategories(t *testing.T) {
	app := setupTestRouter(t)

	w := app.serve(httptest.NewRequest("GET", "/api/categories/options?label=slug", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var options []models.Option
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &options))
	assert.Equal(t, []models.Option{
		{Value: app.categories[0].ID, Label: "news"},
		{Value: app.categories[1].ID, Label: "sports"},
	}, options)

	w = app.serve(jsonRequest("POST", "/api/categories", `{"name":"Tech","slug":"tech"}`))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// the cached options are dropped on create
	w = app.serve(httptest.NewRequest("GET", "/api/categories/options?search=te", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &options))
	require.Len(t, options, 1)
	assert.Equal(t, "Tech", options[0].Label)

	w = app.serve(httptest.NewRequest("GET", "/api/categories?search=spo", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var categories []models.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &categories))
	require.Len(t, categories, 1)
	assert.Equal(t, "sports", categories[0].Slug)
}

func TestAPIResourceSchema(t *testing.T) {
	app := setupTestRouter(t)

	w := app.serve(httptest.NewRequest("GET", "/api/resources/posts", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var schema struct {
		Slug     string `json:"slug"`
		BasePath string `json:"base_path"`
		Pages    []struct {
			Name string `json:"name"`
			Path string `json:"path"`
		} `json:"pages"`
		Table struct {
			Columns []struct {
				Name  string `json:"name"`
				Label string `json:"label"`
			} `json:"columns"`
		} `json:"table"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &schema))
	assert.Equal(t, "posts", schema.Slug)
	assert.Equal(t, "/admin/posts", schema.BasePath)
	require.Len(t, schema.Pages, 3)
	assert.Equal(t, "/{record}/edit", schema.Pages[2].Path)
	require.NotEmpty(t, schema.Table.Columns)
	assert.Equal(t, "Post title", schema.Table.Columns[0].Label)
}
