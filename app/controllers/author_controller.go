package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"postpanel/app/models"
	"postpanel/app/panel"
	"postpanel/app/services"

	"go.uber.org/zap"
)

// AuthorController serves the authors API and the authors relation manager of a post.
type AuthorController struct {
	authors  *services.AuthorService
	posts    *services.PostService
	resource *panel.Resource
	view     *View
	logger   *zap.Logger
}

// NewAuthorController creates a new AuthorController
func NewAuthorController(authors *services.AuthorService, posts *services.PostService, resource *panel.Resource, view *View, logger *zap.Logger) *AuthorController {
	return &AuthorController{authors: authors, posts: posts, resource: resource, view: view, logger: logger}
}

// Index lists authors, optionally narrowed by ?search=
func (ac *AuthorController) Index(w http.ResponseWriter, r *http.Request) {
	authors, err := ac.authors.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		sendError(w, r, ac.logger, err)
		return
	}
	sendJSON(w, http.StatusOK, authors)
}

// Create handles POST /api/authors
func (ac *AuthorController) Create(w http.ResponseWriter, r *http.Request) {
	var author models.Author
	if err := decodeJSON(r, &author); err != nil {
		sendError(w, r, ac.logger, err)
		return
	}
	author.ID = 0
	if err := ac.authors.Create(r.Context(), &author); err != nil {
		sendError(w, r, ac.logger, err)
		return
	}
	sendJSON(w, http.StatusCreated, author)
}

// Related lists the authors attached to a post
func (ac *AuthorController) Related(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		sendError(w, r, ac.logger, err)
		return
	}
	if isAPI(r) {
		authors, err := ac.authors.ListForPost(r.Context(), id)
		if err != nil {
			sendError(w, r, ac.logger, err)
			return
		}
		sendJSON(w, http.StatusOK, authors)
		return
	}
	ac.renderManager(w, r, http.StatusOK, id, nil)
}

// Attach associates an author with a post
func (ac *AuthorController) Attach(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		sendError(w, r, ac.logger, err)
		return
	}

	var authorID int
	if isJSONBody(r) {
		var body struct {
			AuthorID int `json:"author_id"`
		}
		if err := decodeJSON(r, &body); err != nil {
			sendError(w, r, ac.logger, err)
			return
		}
		authorID = body.AuthorID
	} else {
		if err := r.ParseForm(); err != nil {
			sendError(w, r, ac.logger, badRequest("failed to parse form: %v", err))
			return
		}
		authorID, _ = strconv.Atoi(strings.TrimSpace(r.PostFormValue("author_id")))
	}

	if err := ac.authors.Attach(r.Context(), id, authorID); err != nil {
		var verrs models.ValidationErrors
		if !isAPI(r) && errors.As(err, &verrs) {
			ac.renderManager(w, r, http.StatusUnprocessableEntity, id, verrs)
			return
		}
		sendError(w, r, ac.logger, err)
		return
	}

	if isAPI(r) {
		authors, err := ac.authors.ListForPost(r.Context(), id)
		if err != nil {
			sendError(w, r, ac.logger, err)
			return
		}
		sendJSON(w, http.StatusOK, authors)
		return
	}
	ac.flash(w, r, "Attached")
	http.Redirect(w, r, ac.resource.RecordURL(id, "authors"), http.StatusSeeOther)
}

// Detach removes an author from a post
func (ac *AuthorController) Detach(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		sendError(w, r, ac.logger, err)
		return
	}
	authorID, err := pathID(r, "author")
	if err != nil {
		sendError(w, r, ac.logger, err)
		return
	}
	if err := ac.authors.Detach(r.Context(), id, authorID); err != nil {
		sendError(w, r, ac.logger, err)
		return
	}

	if isAPI(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	ac.flash(w, r, "Detached")
	http.Redirect(w, r, ac.resource.RecordURL(id, "authors"), http.StatusSeeOther)
}

func (ac *AuthorController) renderManager(w http.ResponseWriter, r *http.Request, status, postID int, verrs models.ValidationErrors) {
	post, err := ac.posts.GetPost(r.Context(), postID)
	if err != nil {
		sendError(w, r, ac.logger, err)
		return
	}
	options, err := ac.authors.Options(r.Context())
	if err != nil {
		sendError(w, r, ac.logger, err)
		return
	}
	attachable := make([]models.Option, 0, len(options))
	for _, o := range options {
		if !post.HasAuthor(o.Value) {
			attachable = append(attachable, o)
		}
	}
	if verrs == nil {
		verrs = models.ValidationErrors{}
	}

	data := map[string]interface{}{
		"Title":         post.Title + " - Authors",
		"Resource":      ac.resource,
		"Post":          post,
		"Authors":       post.Authors,
		"AuthorOptions": attachable,
		"Errors":        verrs,
	}
	if err := ac.view.Render(w, r, status, "authors", data); err != nil {
		sendError(w, r, ac.logger, err)
	}
}

func (ac *AuthorController) flash(w http.ResponseWriter, r *http.Request, message string) {
	if err := ac.view.Flash(w, r, message); err != nil {
		ac.logger.Warn("failed to store flash", zap.Error(err))
	}
}
