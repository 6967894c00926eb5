package mock

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"postpanel/app/models"
	"postpanel/app/repositories"
)

// Store is an in-memory backend shared by the three repositories.
type Store struct {
	mutex      sync.RWMutex
	posts      map[int]*models.Post
	categories map[int]*models.Category
	authors    map[int]*models.Author
	pivots     map[int]map[int]bool
	nextID     map[string]int
}

type PostRepository struct{ s *Store }
type CategoryRepository struct{ s *Store }
type AuthorRepository struct{ s *Store }

func NewStore() *Store {
	s := &Store{}
	s.Clear()
	return s
}

// Repositories returns the store wrapped the way repositories.Store exposes it.
func (s *Store) Repositories() *repositories.Store {
	return &repositories.Store{
		Posts:      &PostRepository{s},
		Categories: &CategoryRepository{s},
		Authors:    &AuthorRepository{s},
	}
}

func (s *Store) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.posts = make(map[int]*models.Post)
	s.categories = make(map[int]*models.Category)
	s.authors = make(map[int]*models.Author)
	s.pivots = make(map[int]map[int]bool)
	s.nextID = map[string]int{"post": 1, "category": 1, "author": 1}
}

func (s *Store) next(kind string) int {
	id := s.nextID[kind]
	s.nextID[kind]++
	return id
}

func (s *Store) live(id int) (*models.Post, error) {
	p, ok := s.posts[id]
	if !ok || p.Trashed() {
		return nil, repositories.ErrNotFound
	}
	return p, nil
}

// hydrate returns a copy of p with relations loaded.
func (s *Store) hydrate(p *models.Post) *models.Post {
	cp := *p
	cp.Tags = append([]string(nil), p.Tags...)
	if c, ok := s.categories[p.CategoryID]; ok {
		cc := *c
		cp.Category = &cc
	} else {
		cp.Category = nil
	}
	cp.Authors = s.authorsOf(p.ID)
	return &cp
}

func (s *Store) authorsOf(postID int) []*models.Author {
	authors := []*models.Author{}
	for id := range s.pivots[postID] {
		if a, ok := s.authors[id]; ok {
			ac := *a
			authors = append(authors, &ac)
		}
	}
	sort.Slice(authors, func(i, j int) bool {
		if authors[i].Name != authors[j].Name {
			return authors[i].Name < authors[j].Name
		}
		return authors[i].ID < authors[j].ID
	})
	return authors
}

// PostRepository implementation

func (m *PostRepository) Create(_ context.Context, post *models.Post) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	post.ID = m.s.next("post")
	post.BeforeCreate()
	cp := *post
	cp.Category, cp.Authors = nil, nil
	m.s.posts[post.ID] = &cp
	m.s.pivots[post.ID] = map[int]bool{}
	for _, a := range post.Authors {
		m.s.pivots[post.ID][a.ID] = true
	}
	return nil
}

func (m *PostRepository) GetByID(_ context.Context, id int) (*models.Post, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	p, err := m.s.live(id)
	if err != nil {
		return nil, err
	}
	return m.s.hydrate(p), nil
}

func (m *PostRepository) List(_ context.Context, q repositories.PostQuery) (*repositories.PostPage, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	posts := make([]*models.Post, 0, len(m.s.posts))
	for _, p := range m.s.posts {
		posts = append(posts, m.s.hydrate(p))
	}
	return repositories.Paginate(posts, q), nil
}

func (m *PostRepository) Update(_ context.Context, post *models.Post) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()
	return m.update(post)
}

// Save updates the post and replaces its authors under one lock.
func (m *PostRepository) Save(_ context.Context, post *models.Post, authorIDs []int) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()
	if err := m.update(post); err != nil {
		return err
	}
	m.s.pivots[post.ID] = map[int]bool{}
	for _, id := range authorIDs {
		m.s.pivots[post.ID][id] = true
	}
	return nil
}

func (m *PostRepository) update(post *models.Post) error {
	existing, err := m.s.live(post.ID)
	if err != nil {
		return err
	}
	cp := *post
	cp.Category, cp.Authors = nil, nil
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now()
	m.s.posts[post.ID] = &cp
	return nil
}

func (m *PostRepository) Delete(ctx context.Context, id int) error {
	n, _ := m.DeleteMany(ctx, []int{id})
	if n == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (m *PostRepository) DeleteMany(_ context.Context, ids []int) (int, error) {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	n := 0
	for _, id := range ids {
		if p, err := m.s.live(id); err == nil {
			p.SoftDelete(time.Now())
			n++
		}
	}
	return n, nil
}

func (m *PostRepository) SetPublished(_ context.Context, id int, published bool) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	p, err := m.s.live(id)
	if err != nil {
		return err
	}
	p.Published = published
	return nil
}

func (m *PostRepository) SyncAuthors(_ context.Context, postID int, authorIDs []int) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	if _, err := m.s.live(postID); err != nil {
		return err
	}
	m.s.pivots[postID] = map[int]bool{}
	for _, id := range authorIDs {
		m.s.pivots[postID][id] = true
	}
	return nil
}

func (m *PostRepository) AttachAuthor(_ context.Context, postID, authorID int) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	if _, err := m.s.live(postID); err != nil {
		return err
	}
	m.s.pivots[postID][authorID] = true
	return nil
}

func (m *PostRepository) DetachAuthor(_ context.Context, postID, authorID int) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	if _, err := m.s.live(postID); err != nil {
		return err
	}
	if !m.s.pivots[postID][authorID] {
		return repositories.ErrNotFound
	}
	delete(m.s.pivots[postID], authorID)
	return nil
}

func (m *PostRepository) ListAuthors(_ context.Context, postID int) ([]*models.Author, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	if _, err := m.s.live(postID); err != nil {
		return nil, err
	}
	return m.s.authorsOf(postID), nil
}

// CategoryRepository implementation

func (m *CategoryRepository) Create(_ context.Context, category *models.Category) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	for _, c := range m.s.categories {
		if c.Slug == category.Slug {
			return repositories.ErrSlugTaken
		}
	}
	category.ID = m.s.next("category")
	category.BeforeCreate()
	cp := *category
	m.s.categories[category.ID] = &cp
	return nil
}

func (m *CategoryRepository) GetByID(_ context.Context, id int) (*models.Category, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	c, ok := m.s.categories[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *CategoryRepository) GetBySlug(_ context.Context, slug string) (*models.Category, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	for _, c := range m.s.categories {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *CategoryRepository) List(_ context.Context, search string) ([]*models.Category, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	search = strings.ToLower(search)
	categories := []*models.Category{}
	for _, c := range m.s.categories {
		if strings.Contains(strings.ToLower(c.Name), search) || strings.Contains(strings.ToLower(c.Slug), search) {
			cp := *c
			categories = append(categories, &cp)
		}
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

// AuthorRepository implementation

func (m *AuthorRepository) Create(_ context.Context, author *models.Author) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	author.ID = m.s.next("author")
	author.BeforeCreate()
	cp := *author
	m.s.authors[author.ID] = &cp
	return nil
}

func (m *AuthorRepository) GetByID(_ context.Context, id int) (*models.Author, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	a, ok := m.s.authors[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *AuthorRepository) List(_ context.Context, search string) ([]*models.Author, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	search = strings.ToLower(search)
	authors := []*models.Author{}
	for _, a := range m.s.authors {
		if strings.Contains(strings.ToLower(a.Name), search) || strings.Contains(strings.ToLower(a.Email), search) {
			cp := *a
			authors = append(authors, &cp)
		}
	}
	sort.Slice(authors, func(i, j int) bool { return authors[i].Name < authors[j].Name })
	return authors, nil
}
