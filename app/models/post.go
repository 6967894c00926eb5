package models

import (
	"strings"
	"time"
)

// Validate checks the submitted form state.
func (in *PostInput) Validate() error {
	in.Tags = NormalizeTags(in.Tags)
	return validateStruct(in)
}

// NormalizeTags trims tags and drops blanks and repeats, keeping the first occurrence.
// A list with no usable tag becomes nil so that it fails the required rule.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// BeforeCreate sets up any necessary fields before creation
func (p *Post) BeforeCreate() {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

// Fill copies the form state onto the post. Authors are synced separately.
func (p *Post) Fill(in *PostInput) {
	p.Title = in.Title
	p.Slug = in.Slug
	p.Color = in.Color
	p.CategoryID = in.CategoryID
	p.Content = in.Content
	p.Thumbnail = in.Thumbnail
	p.Tags = append([]string(nil), in.Tags...)
	p.Published = in.Published
}

// Input returns the form state of an existing post, used to prefill the edit page.
func (p *Post) Input() *PostInput {
	return &PostInput{
		Title:      p.Title,
		Slug:       p.Slug,
		Color:      p.Color,
		CategoryID: p.CategoryID,
		Content:    p.Content,
		Thumbnail:  p.Thumbnail,
		Tags:       append([]string(nil), p.Tags...),
		Published:  p.Published,
		AuthorIDs:  p.AuthorIDs(),
	}
}

// SoftDelete marks the post as trashed at t.
func (p *Post) SoftDelete(t time.Time) {
	p.DeletedAt.Time = t
	p.DeletedAt.Valid = true
}

// Trashed reports whether the post was soft deleted.
func (p *Post) Trashed() bool {
	return p.DeletedAt.Valid
}

// CategoryName is the value of the category.name column.
func (p *Post) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}

// AuthorIDs returns the ids of the loaded authors.
func (p *Post) AuthorIDs() []int {
	ids := make([]int, 0, len(p.Authors))
	for _, a := range p.Authors {
		ids = append(ids, a.ID)
	}
	return ids
}

// HasAuthor reports whether the author is attached.
func (p *Post) HasAuthor(authorID int) bool {
	for _, a := range p.Authors {
		if a.ID == authorID {
			return true
		}
	}
	return false
}
