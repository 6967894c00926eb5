package repositories

import (
	"context"

	"postpanel/app/models"
)

// PostRepository defines the interface for post data access.
// Trashed posts are invisible to every method.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id int) (*models.Post, error)
	List(ctx context.Context, q PostQuery) (*PostPage, error)
	Update(ctx context.Context, post *models.Post) error
	// Save updates the post columns and replaces its authors in one transaction.
	Save(ctx context.Context, post *models.Post, authorIDs []int) error
	Delete(ctx context.Context, id int) error
	DeleteMany(ctx context.Context, ids []int) (int, error)
	SetPublished(ctx context.Context, id int, published bool) error

	SyncAuthors(ctx context.Context, postID int, authorIDs []int) error
	AttachAuthor(ctx context.Context, postID, authorID int) error
	DetachAuthor(ctx context.Context, postID, authorID int) error
	ListAuthors(ctx context.Context, postID int) ([]*models.Author, error)
}

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id int) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	List(ctx context.Context, search string) ([]*models.Category, error)
}

// AuthorRepository defines the interface for author data access
type AuthorRepository interface {
	Create(ctx context.Context, author *models.Author) error
	GetByID(ctx context.Context, id int) (*models.Author, error)
	List(ctx context.Context, search string) ([]*models.Author, error)
}
