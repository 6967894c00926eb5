package controllers

import (
	"errors"
	"net/http"
	"strings"

	"postpanel/app/models"
	"postpanel/app/panel"
	"postpanel/app/repositories"
	"postpanel/app/services"

	"go.uber.org/zap"
)

// PostController serves the posts resource pages and the posts JSON API.
type PostController struct {
	posts      *services.PostService
	categories *services.CategoryService
	authors    *services.AuthorService
	resource   *panel.Resource
	view       *View
	logger     *zap.Logger
	perPage    int
}

// NewPostController creates a new PostController
func NewPostController(
	posts *services.PostService,
	categories *services.CategoryService,
	authors *services.AuthorService,
	resource *panel.Resource,
	view *View,
	logger *zap.Logger,
	perPage int,
) *PostController {
	if perPage == 0 {
		perPage = repositories.DefaultPerPage
	}
	return &PostController{
		posts:      posts,
		categories: categories,
		authors:    authors,
		resource:   resource,
		view:       view,
		logger:     logger,
		perPage:    perPage,
	}
}

type listResponse struct {
	*repositories.PostPage
	LastPage int `json:"last_page"`
}

// Index handles the posts table
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	state := panel.ParseTableState(r.URL.Query(), pc.perPage)
	page, err := pc.posts.ListPosts(r.Context(), state.Query)
	if err != nil {
		sendError(w, r, pc.logger, err)
		return
	}

	if isAPI(r) {
		sendJSON(w, http.StatusOK, listResponse{PostPage: page, LastPage: page.LastPage()})
		return
	}

	options, err := pc.categories.Options(r.Context(), services.LabelByName, "")
	if err != nil {
		sendError(w, r, pc.logger, err)
		return
	}
	columns := pc.resource.Table.VisibleColumns(state.Hidden)
	pc.render(w, r, http.StatusOK, "index", map[string]interface{}{
		"Title":           pc.resource.PluralLabel,
		"Resource":        pc.resource,
		"State":           state,
		"Page":            page,
		"Columns":         columns,
		"Groups":          panel.HeaderGroups(columns),
		"CategoryOptions": options,
		"PerPageOptions":  panel.PerPageOptions,
		"Self":            r.URL.RequestURI(),
	})
}

// Show returns a single post as JSON
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		sendError(w, r, pc.logger, err)
		return
	}
	post, err := pc.posts.GetPost(r.Context(), id)
	if err != nil {
		sendError(w, r, pc.logger, err)
		return
	}
	sendJSON(w, http.StatusOK, post)
}

// New displays the create page
func (pc *PostController) New(w http.ResponseWriter, r *http.Request) {
	pc.renderForm(w, r, http.StatusOK, nil, &models.PostInput{}, nil)
}

// Create handles the create form and POST /api/posts
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	in, upload, done, err := pc.readInput(w, r, &models.PostInput{})
	defer done()
	if err != nil {
		sendError(w, r, pc.logger, err)
		return
	}

	post, err := pc.posts.CreatePost(r.Context(), in, upload)
	if err != nil {
		pc.formFailed(w, r, nil, in, err)
		return
	}

	if isAPI(r) {
		sendJSON(w, http.StatusCreated, post)
		return
	}
	pc.flash(w, r, "Created")
	http.Redirect(w, r, pc.resource.URL(panel.PageEdit, post.ID), http.StatusSeeOther)
}

// Edit displays the edit page
func (pc *PostController) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		sendError(w, r, pc.logger, err)
		return
	}
	post, err := pc.posts.GetPost(r.Context(), id)
	if err != nil {
		sendError(w, r, pc.logger, err)
		return
	}
	pc.renderForm(w, r, http.StatusOK, post, post.Input(), nil)
}

// Update handles the edit form and PUT /api/posts/{id}. JSON bodies are applied over
// the stored post, so omitted fields keep their value.
func (pc *PostController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		sendError(w, r, pc.logger, err)
		return
	}
	post, err := pc.posts.GetPost(r.Context(), id)
	if err != nil {
		sendError(w, r, pc.logger, err)
		return
	}

	in, upload, done, err := pc.readInput(w, r, post.Input())
	defer done()
	if err != nil {
		sendError(w, r, pc.logger, err)
		return
	}

	updated, err := pc.posts.UpdatePost(r.Context(), id, in, upload)
	if err != nil {
		pc.formFailed(w, r, post, in, err)
		return
	}

	if isAPI(r) {
		sendJSON(w, http.StatusOK, updated)
		return
	}
	pc.flash(w, r, "Saved")
	http.Redirect(w, r, pc.resource.URL(panel.PageEdit, id), http.StatusSeeOther)
}

// Delete handles the delete row action and DELETE /api/posts/{id}
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		sendError(w, r, pc.logger, err)
		return
	}
	if err := pc.posts.DeletePost(r.Context(), id); err != nil {
		sendError(w, r, pc.logger, err)
		return
	}

	if isAPI(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	pc.flash(w, r, "Deleted")
	http.Redirect(w, r, pc.resource.URL(panel.PageIndex, 0), http.StatusSeeOther)
}

// BulkDelete handles the bulk delete action
func (pc *PostController) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var ids []int
	if isJSONBody(r) {
		var body struct {
			IDs []int `json:"ids"`
		}
		if err := decodeJSON(r, &body); err != nil {
			sendError(w, r, pc.logger, err)
			return
		}
		ids = body.IDs
	} else {
		if err := r.ParseForm(); err != nil {
			sendError(w, r, pc.logger, badRequest("failed to parse form: %v", err))
			return
		}
		var err error
		if ids, err = formIDs(r.PostForm["ids"]); err != nil {
			sendError(w, r, pc.logger, err)
			return
		}
	}

	n, err := pc.posts.BulkDeletePosts(r.Context(), ids)
	if err != nil {
		sendError(w, r, pc.logger, err)
		return
	}

	if isAPI(r) {
		sendJSON(w, http.StatusOK, map[string]int{"deleted": n})
		return
	}
	if n > 0 {
		pc.flash(w, r, "Deleted")
	}
	http.Redirect(w, r, pc.resource.URL(panel.PageIndex, 0), http.StatusSeeOther)
}

// TogglePublished handles the inline published checkbox column
func (pc *PostController) TogglePublished(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		sendError(w, r, pc.logger, err)
		return
	}

	var published bool
	redirect := ""
	if isJSONBody(r) {
		var body struct {
			Published *bool `json:"published"`
		}
		if err := decodeJSON(r, &body); err != nil {
			sendError(w, r, pc.logger, err)
			return
		}
		if body.Published == nil {
			sendError(w, r, pc.logger, models.ValidationErrors{"published": "The published field is required."})
			return
		}
		published = *body.Published
	} else {
		if err := r.ParseForm(); err != nil {
			sendError(w, r, pc.logger, badRequest("failed to parse form: %v", err))
			return
		}
		published = formBool(r.PostFormValue("published"))
		redirect = r.PostFormValue("redirect")
	}

	post, err := pc.posts.TogglePublished(r.Context(), id, published)
	if err != nil {
		sendError(w, r, pc.logger, err)
		return
	}

	if isAPI(r) {
		sendJSON(w, http.StatusOK, post)
		return
	}
	pc.flash(w, r, "Saved")
	index := pc.resource.URL(panel.PageIndex, 0)
	http.Redirect(w, r, safeRedirect(redirect, index, pc.resource.BasePath), http.StatusSeeOther)
}

// Schema returns the resource definition
func (pc *PostController) Schema(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, pc.resource)
}

// readInput decodes a JSON body over base, or parses the submitted form.
func (pc *PostController) readInput(w http.ResponseWriter, r *http.Request, base *models.PostInput) (*models.PostInput, *services.Upload, func(), error) {
	if isJSONBody(r) {
		if err := decodeJSON(r, base); err != nil {
			return nil, nil, func() {}, err
		}
		return base, nil, func() {}, nil
	}
	limit := pc.posts.MaxUploadSize()
	if limit > 0 {
		limit += formHeadroom
	}
	return parsePostForm(w, r, limit)
}

// formFailed re-renders the form with field errors, or reports err.
func (pc *PostController) formFailed(w http.ResponseWriter, r *http.Request, post *models.Post, in *models.PostInput, err error) {
	var verrs models.ValidationErrors
	if isAPI(r) || !errors.As(err, &verrs) {
		sendError(w, r, pc.logger, err)
		return
	}
	// an upload is never kept across a failed submission
	in.Thumbnail = ""
	if post != nil {
		in.Thumbnail = post.Thumbnail
	}
	pc.renderForm(w, r, http.StatusUnprocessableEntity, post, in, verrs)
}

func (pc *PostController) renderForm(w http.ResponseWriter, r *http.Request, status int, post *models.Post, in *models.PostInput, verrs models.ValidationErrors) {
	categories, err := pc.categories.Options(r.Context(), services.LabelBySlug, "")
	if err != nil {
		sendError(w, r, pc.logger, err)
		return
	}
	authors, err := pc.authors.Options(r.Context())
	if err != nil {
		sendError(w, r, pc.logger, err)
		return
	}

	title := "Create " + pc.resource.Label
	action := pc.resource.BasePath
	if post != nil {
		title = "Edit " + pc.resource.Label
		action = pc.resource.RecordURL(post.ID, "")
	}
	if verrs == nil {
		verrs = models.ValidationErrors{}
	}
	pc.render(w, r, status, "form", map[string]interface{}{
		"Title":           title,
		"Resource":        pc.resource,
		"Form":            pc.resource.Form,
		"Post":            post,
		"Input":           in,
		"Errors":          verrs,
		"Action":          action,
		"CategoryOptions": categories,
		"AuthorOptions":   authors,
	})
}

func (pc *PostController) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]interface{}) {
	if err := pc.view.Render(w, r, status, name, data); err != nil {
		sendError(w, r, pc.logger, err)
	}
}

func (pc *PostController) flash(w http.ResponseWriter, r *http.Request, message string) {
	if err := pc.view.Flash(w, r, message); err != nil {
		pc.logger.Warn("failed to store flash", zap.Error(err))
	}
}

func recordID(r *http.Request) (int, error) {
	if id, err := pathID(r, "record"); err == nil {
		return id, nil
	}
	return pathID(r, "id")
}

func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
