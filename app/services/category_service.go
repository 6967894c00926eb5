package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"postpanel/app/cache"
	"postpanel/app/models"
	"postpanel/app/repositories"

	"go.uber.org/zap"
)

// Attributes category options can be labelled by.
const (
	LabelByName = "name"
	LabelBySlug = "slug"
)

// CategoryService handles categories and the options of the category select and filter.
type CategoryService struct {
	categories repositories.CategoryRepository
	cache      cache.OptionsCache
	logger     *zap.Logger
}

// NewCategoryService creates a category service caching select options in c.
func NewCategoryService(categories repositories.CategoryRepository, c cache.OptionsCache, logger *zap.Logger) *CategoryService {
	return &CategoryService{categories: categories, cache: c, logger: logger}
}

// List returns categories whose name or slug contains search.
func (s *CategoryService) List(ctx context.Context, search string) ([]*models.Category, error) {
	return s.categories.List(ctx, strings.TrimSpace(search))
}

// Create validates and stores a category, then drops the cached options.
func (s *CategoryService) Create(ctx context.Context, c *models.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Slug = strings.TrimSpace(c.Slug)
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.categories.Create(ctx, c); err != nil {
		if errors.Is(err, repositories.ErrSlugTaken) {
			return models.ValidationErrors{"slug": "The slug has already been taken."}
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	s.logger.Info("category created", zap.Int("id", c.ID), zap.String("slug", c.Slug))
	s.invalidate(ctx)
	return nil
}

// Options returns the preloaded choices labelled by name or slug, narrowed by search.
// The full list is cached; search is applied on the cached copy.
func (s *CategoryService) Options(ctx context.Context, labelBy, search string) ([]models.Option, error) {
	if labelBy != LabelBySlug {
		labelBy = LabelByName
	}
	key := "categories:" + labelBy

	options, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("options cache read failed", zap.String("key", key), zap.Error(err))
	}
	if !ok {
		categories, err := s.categories.List(ctx, "")
		if err != nil {
			return nil, err
		}
		options = make([]models.Option, 0, len(categories))
		for _, c := range categories {
			label := c.Name
			if labelBy == LabelBySlug {
				label = c.Slug
			}
			options = append(options, models.Option{Value: c.ID, Label: label})
		}
		if err := s.cache.Set(ctx, key, options); err != nil {
			s.logger.Warn("options cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return options, nil
	}
	filtered := make([]models.Option, 0, len(options))
	for _, o := range options {
		if strings.Contains(strings.ToLower(o.Label), search) {
			filtered = append(filtered, o)
		}
	}
	return filtered, nil
}

func (s *CategoryService) invalidate(ctx context.Context) {
	for _, labelBy := range []string{LabelByName, LabelBySlug} {
		key := "categories:" + labelBy
		if err := s.cache.Invalidate(ctx, key); err != nil {
			s.logger.Warn("options cache invalidation failed", zap.String("key", key), zap.Error(err))
		}
	}
}
