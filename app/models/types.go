package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is the record managed by the posts resource.
type Post struct {
	ID         int            `json:"id" gorm:"primaryKey"`
	Title      string         `json:"title" gorm:"size:255;not null"`
	Slug       string         `json:"slug" gorm:"size:255;not null"`
	Color      string         `json:"color" gorm:"size:16;not null"`
	CategoryID int            `json:"category_id" gorm:"not null;index"`
	Category   *Category      `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Content    string         `json:"content" gorm:"type:text;not null"`
	Thumbnail  string         `json:"thumbnail" gorm:"size:255;not null"`
	Tags       []string       `json:"tags" gorm:"serializer:json;type:text"`
	Published  bool           `json:"published" gorm:"not null;default:false"`
	Authors    []*Author      `json:"authors,omitempty" gorm:"many2many:author_post;"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// Category owns many posts. Posts reference it by id; the form labels it by slug.
type Category struct {
	ID        int       `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:255;not null" validate:"required,max=255"`
	Slug      string    `json:"slug" gorm:"size:255;not null;uniqueIndex" validate:"required,max=255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Author is attached to posts through the author_post pivot.
type Author struct {
	ID        int       `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:255;not null" validate:"required,max=255"`
	Email     string    `json:"email" gorm:"size:255" validate:"omitempty,email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostInput is the submitted state of the post form.
type PostInput struct {
	Title        string   `json:"title" validate:"required,max=255"`
	Slug         string   `json:"slug" validate:"required,max=255"`
	Color        string   `json:"color" validate:"required,color"`
	CategoryID   int      `json:"category_id" validate:"required,gt=0"`
	CategorySlug string   `json:"category_slug,omitempty" validate:"-"`
	Content      string   `json:"content" validate:"required"`
	Thumbnail    string   `json:"thumbnail" validate:"required,max=255"`
	Tags         []string `json:"tags" validate:"required,min=1,dive,required,max=64"`
	Published    bool     `json:"published"`
	AuthorIDs    []int    `json:"author_ids" validate:"omitempty,dive,gt=0"`
}

// Option is one choice of a select input or select filter.
type Option struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}
