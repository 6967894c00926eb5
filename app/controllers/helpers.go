package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"postpanel/app/models"
	"postpanel/app/repositories"
	"postpanel/app/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	// maxFormMemory is the part of a multipart form kept in memory; the rest spills to disk.
	maxFormMemory = 8 << 20
	// formHeadroom is allowed on top of the upload limit for the other form fields.
	formHeadroom = 1 << 20
)

var (
	// errBadRequest marks malformed input.
	errBadRequest = errors.New("bad request")
	// errTooLarge marks a request body over the upload limit.
	errTooLarge = errors.New("request body too large")
)

func badRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// isAPI reports whether the client expects JSON.
func isAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// statusOf maps service errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case models.IsValidationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// sendError writes err as JSON for API clients and as plain text otherwise.
// Internal errors are logged and hidden from the client.
func sendError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status := statusOf(err)
	message := err.Error()
	switch status {
	case http.StatusNotFound:
		message = "Not found"
	case http.StatusInternalServerError:
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		message = "Internal Server Error"
	}

	if !isAPI(r) {
		http.Error(w, message, status)
		return
	}
	var verrs models.ValidationErrors
	if errors.As(err, &verrs) {
		sendJSON(w, status, map[string]interface{}{"message": "The given data was invalid.", "errors": verrs})
		return
	}
	sendJSON(w, status, map[string]string{"error": message})
}

// pathID reads a numeric route variable.
func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id < 1 {
		return 0, badRequest("invalid %s", name)
	}
	return id, nil
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid JSON: %v", err)
	}
	return nil
}

// parsePostForm reads the post form from a multipart or urlencoded body of at most
// limit bytes (0 for no limit). The returned closer releases the uploaded file and
// must always be called.
func parsePostForm(w http.ResponseWriter, r *http.Request, limit int64) (*models.PostInput, *services.Upload, func(), error) {
	noop := func() {}
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, noop, fmt.Errorf("%w: limit is %d bytes", errTooLarge, tooLarge.Limit)
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, noop, badRequest("failed to parse form: %v", err)
		}
		if err := r.ParseForm(); err != nil {
			return nil, nil, noop, badRequest("failed to parse form: %v", err)
		}
	}

	in := &models.PostInput{
		Title:        strings.TrimSpace(r.FormValue("title")),
		Slug:         strings.TrimSpace(r.FormValue("slug")),
		Color:        strings.TrimSpace(r.FormValue("color")),
		CategorySlug: strings.TrimSpace(r.FormValue("category_slug")),
		Content:      r.FormValue("content"),
		Published:    formBool(r.FormValue("published")),
	}
	if raw := strings.TrimSpace(r.FormValue("category_id")); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			in.CategorySlug = raw
		} else {
			in.CategoryID = id
		}
	}
	for _, raw := range r.Form["tags"] {
		in.Tags = append(in.Tags, strings.Split(raw, ",")...)
	}
	ids, err := formIDs(r.Form["author_ids"])
	if err != nil {
		return nil, nil, noop, err
	}
	in.AuthorIDs = ids

	file, header, err := r.FormFile("thumbnail")
	switch {
	case errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart):
		return in, nil, noop, nil
	case err != nil:
		return nil, nil, noop, badRequest("failed to read thumbnail: %v", err)
	}
	if header.Size == 0 && header.Filename == "" {
		file.Close()
		return in, nil, noop, nil
	}
	upload := &services.Upload{Filename: header.Filename, Body: file}
	return in, upload, func() { file.Close() }, nil
}

func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}

func formIDs(values []string) ([]int, error) {
	ids := make([]int, 0, len(values))
	for _, raw := range values {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, badRequest("invalid id %q", raw)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
