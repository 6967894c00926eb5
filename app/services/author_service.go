package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"postpanel/app/models"
	"postpanel/app/repositories"

	"go.uber.org/zap"
)

// AuthorService handles authors and the authors relation manager of a post.
type AuthorService struct {
	authors repositories.AuthorRepository
	posts   repositories.PostRepository
	logger  *zap.Logger
}

// NewAuthorService creates an author service over the store's author and post repositories.
func NewAuthorService(store *repositories.Store, logger *zap.Logger) *AuthorService {
	return &AuthorService{authors: store.Authors, posts: store.Posts, logger: logger}
}

// List returns authors whose name or email contains search.
func (s *AuthorService) List(ctx context.Context, search string) ([]*models.Author, error) {
	return s.authors.List(ctx, strings.TrimSpace(search))
}

// Options are the choices of the authors checkbox list.
func (s *AuthorService) Options(ctx context.Context) ([]models.Option, error) {
	authors, err := s.authors.List(ctx, "")
	if err != nil {
		return nil, err
	}
	options := make([]models.Option, 0, len(authors))
	for _, a := range authors {
		options = append(options, models.Option{Value: a.ID, Label: a.Name})
	}
	return options, nil
}

// Create trims and validates an author, then stores it.
func (s *AuthorService) Create(ctx context.Context, a *models.Author) error {
	a.Name = strings.TrimSpace(a.Name)
	a.Email = strings.TrimSpace(a.Email)
	if err := a.Validate(); err != nil {
		return err
	}
	if err := s.authors.Create(ctx, a); err != nil {
		return fmt.Errorf("failed to create author: %w", err)
	}
	s.logger.Info("author created", zap.Int("id", a.ID))
	return nil
}

// ListForPost returns the authors attached to a live post.
func (s *AuthorService) ListForPost(ctx context.Context, postID int) ([]*models.Author, error) {
	return s.posts.ListAuthors(ctx, postID)
}

// Attach associates an existing author with the post. Attaching twice is a no-op.
func (s *AuthorService) Attach(ctx context.Context, postID, authorID int) error {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return err
	}
	if _, err := s.authors.GetByID(ctx, authorID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.ValidationErrors{"author_id": "The selected author is invalid."}
		}
		return err
	}
	if err := s.posts.AttachAuthor(ctx, postID, authorID); err != nil {
		return fmt.Errorf("failed to attach author %d to post %d: %w", authorID, postID, err)
	}
	s.logger.Info("author attached", zap.Int("post", postID), zap.Int("author", authorID))
	return nil
}

// Detach removes the association; ErrNotFound when the author was not attached.
func (s *AuthorService) Detach(ctx context.Context, postID, authorID int) error {
	if err := s.posts.DetachAuthor(ctx, postID, authorID); err != nil {
		return err
	}
	s.logger.Info("author detached", zap.Int("post", postID), zap.Int("author", authorID))
	return nil
}
