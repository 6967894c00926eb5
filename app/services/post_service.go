package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"postpanel/app/models"
	"postpanel/app/repositories"
	"postpanel/app/storage"

	"go.uber.org/zap"
)

// ThumbnailDirectory is where thumbnails are stored on the public disk.
const ThumbnailDirectory = "thumbnails"

// Upload is a file submitted with the form.
type Upload struct {
	Filename string
	Body     io.Reader
}

// PostService handles business logic for posts
type PostService struct {
	posts      repositories.PostRepository
	categories repositories.CategoryRepository
	authors    repositories.AuthorRepository
	disk       *storage.Disk
	logger     *zap.Logger
}

// NewPostService creates a new PostService
func NewPostService(store *repositories.Store, disk *storage.Disk, logger *zap.Logger) *PostService {
	return &PostService{
		posts:      store.Posts,
		categories: store.Categories,
		authors:    store.Authors,
		disk:       disk,
		logger:     logger,
	}
}

// CreatePost validates the form, stores the thumbnail and creates the post with its authors.
func (s *PostService) CreatePost(ctx context.Context, in *models.PostInput, upload *Upload) (*models.Post, error) {
	authors, err := s.prepare(ctx, in, upload)
	if err != nil {
		return nil, err
	}

	post := &models.Post{}
	post.Fill(in)
	post.Authors = authors
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	s.logger.Info("post created", zap.Int("id", post.ID), zap.String("slug", post.Slug))
	return s.posts.GetByID(ctx, post.ID)
}

// GetPost retrieves a live post with its category and authors
func (s *PostService) GetPost(ctx context.Context, id int) (*models.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// ListPosts returns one page of the posts table
func (s *PostService) ListPosts(ctx context.Context, q repositories.PostQuery) (*repositories.PostPage, error) {
	return s.posts.List(ctx, q.Normalize())
}

// UpdatePost saves the form over an existing post. Without a new upload and without a
// submitted path the stored thumbnail is kept. Authors are replaced by in.AuthorIDs.
func (s *PostService) UpdatePost(ctx context.Context, id int, in *models.PostInput, upload *Upload) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upload == nil && in.Thumbnail == "" {
		in.Thumbnail = post.Thumbnail
	}

	authors, err := s.prepare(ctx, in, upload)
	if err != nil {
		return nil, err
	}

	post.Fill(in)
	ids := make([]int, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}
	if err := s.posts.Save(ctx, post, ids); err != nil {
		return nil, fmt.Errorf("failed to update post %d: %w", id, err)
	}
	s.logger.Info("post updated", zap.Int("id", id))
	return s.posts.GetByID(ctx, id)
}

// MaxUploadSize is the largest accepted thumbnail in bytes, 0 when unlimited.
func (s *PostService) MaxUploadSize() int64 {
	return s.disk.MaxSize()
}

// DeletePost soft deletes a post
func (s *PostService) DeletePost(ctx context.Context, id int) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("post deleted", zap.Int("id", id))
	return nil
}

// BulkDeletePosts soft deletes the selected posts and returns how many were live.
func (s *PostService) BulkDeletePosts(ctx context.Context, ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.posts.DeleteMany(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete posts: %w", err)
	}
	s.logger.Info("posts deleted", zap.Ints("ids", ids), zap.Int("deleted", n))
	return n, nil
}

// TogglePublished sets the published flag from the inline checkbox column.
func (s *PostService) TogglePublished(ctx context.Context, id int, published bool) (*models.Post, error) {
	if err := s.posts.SetPublished(ctx, id, published); err != nil {
		return nil, err
	}
	s.logger.Info("post published toggled", zap.Int("id", id), zap.Bool("published", published))
	return s.posts.GetByID(ctx, id)
}

// prepare resolves the category, validates the input, checks the referenced records and
// finally stores the upload so that a rejected form leaves nothing on disk.
func (s *PostService) prepare(ctx context.Context, in *models.PostInput, upload *Upload) ([]*models.Author, error) {
	if err := s.resolveCategorySlug(ctx, in); err != nil {
		return nil, err
	}
	if upload != nil {
		name := upload.Filename
		if name == "" {
			name = "upload"
		}
		in.Thumbnail = path.Join(ThumbnailDirectory, path.Base(name))
	}

	verrs := models.ValidationErrors{}
	if err := in.Validate(); err != nil {
		if !errors.As(err, &verrs) {
			return nil, err
		}
	}

	if _, failed := verrs["category_id"]; !failed {
		if _, err := s.categories.GetByID(ctx, in.CategoryID); err != nil {
			if !errors.Is(err, repositories.ErrNotFound) {
				return nil, err
			}
			verrs.Add("category_id", "The selected category is invalid.")
		}
	}

	authors, err := s.findAuthors(ctx, in.AuthorIDs)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		verrs.Add("author_ids", "The selected authors is invalid.")
	}

	if len(verrs) > 0 {
		return nil, verrs
	}

	if upload != nil {
		rel, err := s.disk.PutImage(ThumbnailDirectory, upload.Body)
		switch {
		case errors.Is(err, storage.ErrNotImage):
			return nil, models.ValidationErrors{"thumbnail": "The thumbnail field must be an image."}
		case errors.Is(err, storage.ErrTooLarge):
			return nil, models.ValidationErrors{"thumbnail": fmt.Sprintf(
				"The thumbnail field must not be greater than %d kilobytes.", s.disk.MaxSize()/1024)}
		case err != nil:
			return nil, fmt.Errorf("failed to store thumbnail: %w", err)
		}
		in.Thumbnail = rel
	}
	return authors, nil
}

// resolveCategorySlug fills CategoryID when the form keyed the category by slug.
func (s *PostService) resolveCategorySlug(ctx context.Context, in *models.PostInput) error {
	if in.CategoryID > 0 || in.CategorySlug == "" {
		return nil
	}
	c, err := s.categories.GetBySlug(ctx, in.CategorySlug)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.ValidationErrors{"category_id": "The selected category is invalid."}
	}
	if err != nil {
		return err
	}
	in.CategoryID = c.ID
	return nil
}

func (s *PostService) findAuthors(ctx context.Context, ids []int) ([]*models.Author, error) {
	authors := make([]*models.Author, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		a, err := s.authors.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		authors = append(authors, a)
	}
	return authors, nil
}
