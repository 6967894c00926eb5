package repositories

import (
	"errors"
	"sort"
	"strings"

	"postpanel/app/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrSlugTaken = errors.New("slug has already been taken")
)

const (
	DefaultPerPage = 10
	// AllPerPage disables pagination.
	AllPerPage = -1
)

// Sortable columns of the posts table.
const (
	SortID        = "id"
	SortTitle     = "title"
	SortCreatedAt = "created_at"
)

// PostQuery is the state of the posts table: search box, filters, sort and page.
type PostQuery struct {
	Search     string
	Published  *bool
	CategoryID int
	Sort       string
	Direction  string
	Page       int
	PerPage    int
}

// PostPage is one page of the posts table.
type PostPage struct {
	Posts   []*models.Post `json:"data"`
	Total   int            `json:"total"`
	Page    int            `json:"current_page"`
	PerPage int            `json:"per_page"`
}

// LastPage returns the number of the last page, at least 1.
func (p *PostPage) LastPage() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

// Normalize fills defaults and drops unknown sort columns. Without an explicit sort the
// newest posts come first.
func (q PostQuery) Normalize() PostQuery {
	q.Search = strings.TrimSpace(q.Search)
	switch q.Sort {
	case SortTitle, SortCreatedAt, SortID:
	default:
		q.Sort = SortID
		q.Direction = "desc"
	}
	if q.Direction != "desc" {
		q.Direction = "asc"
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage == 0 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage < 0 {
		q.PerPage = AllPerPage
		q.Page = 1
	}
	return q
}

// Offset returns the number of rows skipped before the page.
func (q PostQuery) Offset() int {
	if q.PerPage <= 0 {
		return 0
	}
	return (q.Page - 1) * q.PerPage
}

// Matches reports whether a post with its category loaded passes the search and filters.
func (q PostQuery) Matches(p *models.Post) bool {
	if p.Trashed() {
		return false
	}
	if q.Published != nil && p.Published != *q.Published {
		return false
	}
	if q.CategoryID > 0 && p.CategoryID != q.CategoryID {
		return false
	}
	if q.Search == "" {
		return true
	}
	term := strings.ToLower(q.Search)
	for _, field := range []string{p.Title, p.Slug, p.CategoryName()} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// SortPosts orders posts in place, breaking ties by id.
func SortPosts(posts []*models.Post, q PostQuery) {
	less := func(a, b *models.Post) bool {
		switch q.Sort {
		case SortTitle:
			if a.Title != b.Title {
				return a.Title < b.Title
			}
		case SortCreatedAt:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if q.Direction == "desc" {
			return less(posts[j], posts[i])
		}
		return less(posts[i], posts[j])
	})
}

// Paginate filters, sorts and slices posts the way the SQL store does.
func Paginate(posts []*models.Post, q PostQuery) *PostPage {
	q = q.Normalize()

	matched := make([]*models.Post, 0, len(posts))
	for _, p := range posts {
		if q.Matches(p) {
			matched = append(matched, p)
		}
	}
	SortPosts(matched, q)

	page := &PostPage{Total: len(matched), Page: q.Page, PerPage: q.PerPage}
	if q.PerPage == AllPerPage {
		page.Posts = matched
		return page
	}
	start := q.Offset()
	if start >= len(matched) {
		page.Posts = []*models.Post{}
		return page
	}
	end := start + q.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	page.Posts = matched[start:end]
	return page
}

func matchesSearch(search string, fields ...string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}
