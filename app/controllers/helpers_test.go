package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"mime/multipart"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"postpanel/app/models"
	"postpanel/app/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{models.ValidationErrors{"title": "required"}, http.StatusUnprocessableEntity},
		{fmt.Errorf("wrapped: %w", repositories.ErrNotFound), http.StatusNotFound},
		{badRequest("nope"), http.StatusBadRequest},
		{fmt.Errorf("%w: limit is 10 bytes", errTooLarge), http.StatusRequestEntityTooLarge},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, statusOf(tt.err), tt.err.Error())
	}
}

func TestParsePostForm(t *testing.T) {
	values := url.Values{
		"title":       {"  Title  "},
		"slug":        {"slug"},
		"color":       {"#fff"},
		"category_id": {"news"},
		"content":     {"<p>x</p>"},
		"tags":        {"a, b", "c"},
		"published":   {"on"},
		"author_ids":  {"2", "", "3"},
	}
	req := httptest.NewRequest("POST", "/admin/posts", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	in, upload, done, err := parsePostForm(httptest.NewRecorder(), req, 0)
	defer done()
	require.NoError(t, err)
	assert.Nil(t, upload)
	assert.Equal(t, "Title", in.Title)
	assert.Zero(t, in.CategoryID)
	assert.Equal(t, "news", in.CategorySlug)
	assert.Equal(t, []string{"a", " b", "c"}, in.Tags)
	assert.True(t, in.Published)
	assert.Equal(t, []int{2, 3}, in.AuthorIDs)

	bad := httptest.NewRequest("POST", "/admin/posts", strings.NewReader("author_ids=x"))
	bad.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_, _, done, err = parsePostForm(httptest.NewRecorder(), bad, 0)
	defer done()
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestParsePostFormBodyLimit(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "big"))
	part, err := mw.CreateFormFile("thumbnail", "big.png")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0x89}, 4096))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/admin/posts", bytes.NewReader(buf.Bytes()))
	req.Header.Set("Content-Type", mw.FormDataContentType())

	_, upload, done, err := parsePostForm(httptest.NewRecorder(), req, 1024)
	defer done()
	require.ErrorIs(t, err, errTooLarge)
	assert.Nil(t, upload)
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusOf(err))

	req = httptest.NewRequest("POST", "/admin/posts", bytes.NewReader(buf.Bytes()))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	in, upload, done, err := parsePostForm(httptest.NewRecorder(), req, 1<<20)
	defer done()
	require.NoError(t, err)
	assert.Equal(t, "big", in.Title)
	require.NotNil(t, upload)
	assert.Equal(t, "big.png", upload.Filename)
}

func TestSafeRedirect(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"/admin/posts?page=2", "/admin/posts?page=2"},
		{"/other", "/admin/posts"},
		{"//evil.example.com/admin/posts", "/admin/posts"},
		{"https://evil.example.com/admin/posts", "/admin/posts"},
		{"", "/admin/posts"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safeRedirect(tt.target, "/admin/posts", "/admin/posts"), tt.target)
	}
}

func TestInputValue(t *testing.T) {
	in := &models.PostInput{Title: "t", Tags: []string{"a", "b"}, CategoryID: 3}
	assert.Equal(t, "t", inputValue(in, "title"))
	assert.Equal(t, "a, b", inputValue(in, "tags"))
	assert.Equal(t, "3", inputValue(in, "category_id"))
	assert.Equal(t, "", inputValue(in, "unknown"))
	assert.Equal(t, "", inputValue(nil, "title"))
	assert.Equal(t, "", inputValue(&models.PostInput{}, "category_id"))
}
