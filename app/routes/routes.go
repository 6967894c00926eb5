package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"postpanel/app/cache"
	"postpanel/app/controllers"
	"postpanel/app/middleware"
	"postpanel/app/panel"
	"postpanel/app/repositories"
	"postpanel/app/services"
	"postpanel/app/storage"
	"postpanel/app/views"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// Dependencies are the long lived pieces the router is built from.
type Dependencies struct {
	Store       *repositories.Store
	Disk        *storage.Disk
	Cache       cache.OptionsCache
	Sessions    sessions.Store
	Logger      *zap.Logger
	PerPage     int
	StoragePath string
	CORSOrigins []string
}

// SetupRoutes defines the application's routes and returns a router.
func SetupRoutes(deps Dependencies) (*mux.Router, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	resource := panel.PostResource()

	view, err := controllers.NewView(views.FS, deps.Sessions, deps.Disk, resource)
	if err != nil {
		return nil, err
	}

	postService := services.NewPostService(deps.Store, deps.Disk, logger)
	categoryService := services.NewCategoryService(deps.Store.Categories, deps.Cache, logger)
	authorService := services.NewAuthorService(deps.Store, logger)

	postController := controllers.NewPostController(postService, categoryService, authorService, resource, view, logger, deps.PerPage)
	authorController := controllers.NewAuthorController(authorService, postService, resource, view, logger)
	categoryController := controllers.NewCategoryController(categoryService, logger)

	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.Logger(logger))

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Not found"})
			return
		}
		http.NotFound(w, r)
	})

	// Uploaded files
	if prefix := strings.TrimRight(deps.StoragePath, "/"); strings.HasPrefix(prefix, "/") && prefix != "" {
		router.PathPrefix(prefix + "/").Handler(
			http.StripPrefix(prefix+"/", http.FileServer(http.Dir(deps.Disk.Root()))),
		).Methods("GET", "HEAD")
	}

	router.Handle("/", http.RedirectHandler(resource.BasePath, http.StatusFound)).Methods("GET")

	// Admin pages
	admin := router.PathPrefix(resource.BasePath).Subrouter()
	admin.HandleFunc("", postController.Index).Methods("GET")
	admin.HandleFunc("/", postController.Index).Methods("GET")
	admin.HandleFunc("/create", postController.New).Methods("GET")
	admin.HandleFunc("", postController.Create).Methods("POST")
	admin.HandleFunc("/bulk-delete", postController.BulkDelete).Methods("POST")
	admin.HandleFunc("/{record:[0-9]+}/edit", postController.Edit).Methods("GET")
	admin.HandleFunc("/{record:[0-9]+}", postController.Update).Methods("POST")
	admin.HandleFunc("/{record:[0-9]+}/delete", postController.Delete).Methods("POST")
	admin.HandleFunc("/{record:[0-9]+}/published", postController.TogglePublished).Methods("POST")
	admin.HandleFunc("/{record:[0-9]+}/authors", authorController.Related).Methods("GET")
	admin.HandleFunc("/{record:[0-9]+}/authors", authorController.Attach).Methods("POST")
	admin.HandleFunc("/{record:[0-9]+}/authors/{author:[0-9]+}/detach", authorController.Detach).Methods("POST")

	// API routes with JSON content type
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)

	posts := api.PathPrefix("/posts").Subrouter()
	posts.HandleFunc("", postController.Index).Methods("GET")
	posts.HandleFunc("", postController.Create).Methods("POST")
	posts.HandleFunc("/bulk-delete", postController.BulkDelete).Methods("POST")
	posts.HandleFunc("/{id:[0-9]+}", postController.Show).Methods("GET")
	posts.HandleFunc("/{id:[0-9]+}", postController.Update).Methods("PUT")
	posts.HandleFunc("/{id:[0-9]+}", postController.Delete).Methods("DELETE")
	posts.HandleFunc("/{id:[0-9]+}/published", postController.TogglePublished).Methods("POST")
	posts.HandleFunc("/{id:[0-9]+}/authors", authorController.Related).Methods("GET")
	posts.HandleFunc("/{id:[0-9]+}/authors", authorController.Attach).Methods("POST")
	posts.HandleFunc("/{id:[0-9]+}/authors/{author:[0-9]+}", authorController.Detach).Methods("DELETE")

	api.HandleFunc("/categories", categoryController.Index).Methods("GET")
	api.HandleFunc("/categories", categoryController.Create).Methods("POST")
	api.HandleFunc("/categories/options", categoryController.Options).Methods("GET")
	api.HandleFunc("/authors", authorController.Index).Methods("GET")
	api.HandleFunc("/authors", authorController.Create).Methods("POST")
	api.HandleFunc("/resources/posts", postController.Schema).Methods("GET")

	return router, nil
}

// NewHandler wraps the router with CORS for the API, which has to see preflight
// requests before route matching.
func NewHandler(deps Dependencies) (http.Handler, error) {
	router, err := SetupRoutes(deps)
	if err != nil {
		return nil, err
	}
	return middleware.CORS(deps.CORSOrigins)(router), nil
}

// StartServer serves handler on addr until ctx is cancelled, then shuts down gracefully.
func StartServer(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
