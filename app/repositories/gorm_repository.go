package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"postpanel/app/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// authorPost is the pivot row between posts and authors.
type authorPost struct {
	PostID   int `gorm:"primaryKey"`
	AuthorID int `gorm:"primaryKey"`
}

func (authorPost) TableName() string { return "author_post" }

// Migrate creates or updates the tables of every model.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Post{}, "Authors", &authorPost{}); err != nil {
		return err
	}
	return db.AutoMigrate(&models.Category{}, &models.Author{}, &models.Post{}, &authorPost{})
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrSlugTaken
	}
	return err
}

// likeEscaper makes % and _ match literally. "!" is used as the escape character
// because backslash handling differs between the SQL drivers.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern matches search anywhere in a lowercased column; use with ESCAPE '!'.
func likePattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(search))) + "%"
}

// GormPostRepository implements PostRepository on a SQL database.
type GormPostRepository struct {
	db *gorm.DB
}

// NewGormPostRepository returns a post repository backed by db.
func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

// Create inserts the post and its author pivots.
func (r *GormPostRepository) Create(ctx context.Context, post *models.Post) error {
	post.BeforeCreate()
	return translate(r.db.WithContext(ctx).Omit("Category", "Authors.*").Create(post).Error)
}

// GetByID loads a live post with its category and authors ordered by name.
func (r *GormPostRepository) GetByID(ctx context.Context, id int) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Authors", func(db *gorm.DB) *gorm.DB { return db.Order("authors.name, authors.id") }).
		First(&post, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// List filters, sorts and pages live posts in SQL.
func (r *GormPostRepository) List(ctx context.Context, q PostQuery) (*PostPage, error) {
	q = q.Normalize()

	filtered := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.Post{}).
			Joins("LEFT JOIN categories ON categories.id = posts.category_id")
		if q.Search != "" {
			like := likePattern(q.Search)
			query = query.Where(
				"LOWER(posts.title) LIKE ? ESCAPE '!' OR LOWER(posts.slug) LIKE ? ESCAPE '!' OR LOWER(categories.name) LIKE ? ESCAPE '!'",
				like, like, like,
			)
		}
		if q.Published != nil {
			query = query.Where("posts.published = ?", *q.Published)
		}
		if q.CategoryID > 0 {
			query = query.Where("posts.category_id = ?", q.CategoryID)
		}
		return query
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, err
	}

	desc := q.Direction == "desc"
	query := filtered().Order(clause.OrderByColumn{Column: clause.Column{Table: "posts", Name: q.Sort}, Desc: desc})
	if q.Sort != SortID {
		query = query.Order(clause.OrderByColumn{Column: clause.Column{Table: "posts", Name: SortID}, Desc: desc})
	}
	if q.PerPage != AllPerPage {
		query = query.Offset(q.Offset()).Limit(q.PerPage)
	}

	posts := []*models.Post{}
	err := query.Select("posts.*").
		Preload("Category").
		Preload("Authors", func(db *gorm.DB) *gorm.DB { return db.Order("authors.name, authors.id") }).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return &PostPage{Posts: posts, Total: int(total), Page: q.Page, PerPage: q.PerPage}, nil
}

var postColumns = []string{"title", "slug", "color", "category_id", "content", "thumbnail", "tags", "published", "updated_at"}

// Update saves the post columns; relations are left alone.
func (r *GormPostRepository) Update(ctx context.Context, post *models.Post) error {
	return r.update(r.db.WithContext(ctx), post)
}

// Save updates the post columns and replaces its authors in one transaction.
func (r *GormPostRepository) Save(ctx context.Context, post *models.Post, authorIDs []int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.update(tx, post); err != nil {
			return err
		}
		return replaceAuthors(tx, post.ID, authorIDs)
	})
}

func (r *GormPostRepository) update(tx *gorm.DB, post *models.Post) error {
	post.UpdatedAt = time.Now()
	res := tx.Model(&models.Post{ID: post.ID}).
		Select(postColumns).
		Omit("Category", "Authors").
		Updates(post)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete soft deletes a post by ID.
func (r *GormPostRepository) Delete(ctx context.Context, id int) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMany soft deletes the live posts among ids and returns how many were trashed.
func (r *GormPostRepository) DeleteMany(ctx context.Context, ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Delete(&models.Post{}, ids)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

// SetPublished updates only the published column.
func (r *GormPostRepository) SetPublished(ctx context.Context, id int, published bool) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		Updates(map[string]interface{}{"published": published, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// livePost fails with ErrNotFound unless the post exists and is not trashed.
func (r *GormPostRepository) livePost(tx *gorm.DB, id int) error {
	var count int64
	if err := tx.Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

// SyncAuthors replaces the pivots of a live post.
func (r *GormPostRepository) SyncAuthors(ctx context.Context, postID int, authorIDs []int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.livePost(tx, postID); err != nil {
			return err
		}
		return replaceAuthors(tx, postID, authorIDs)
	})
}

func replaceAuthors(tx *gorm.DB, postID int, authorIDs []int) error {
	if err := tx.Where("post_id = ?", postID).Delete(&authorPost{}).Error; err != nil {
		return err
	}
	if len(authorIDs) == 0 {
		return nil
	}
	rows := make([]authorPost, 0, len(authorIDs))
	for _, id := range authorIDs {
		rows = append(rows, authorPost{PostID: postID, AuthorID: id})
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// AttachAuthor adds one pivot; attaching twice is a no-op.
func (r *GormPostRepository) AttachAuthor(ctx context.Context, postID, authorID int) error {
	tx := r.db.WithContext(ctx)
	if err := r.livePost(tx, postID); err != nil {
		return err
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&authorPost{PostID: postID, AuthorID: authorID}).Error
}

// DetachAuthor removes one pivot, ErrNotFound when it was not there.
func (r *GormPostRepository) DetachAuthor(ctx context.Context, postID, authorID int) error {
	tx := r.db.WithContext(ctx)
	if err := r.livePost(tx, postID); err != nil {
		return err
	}
	res := tx.Where("post_id = ? AND author_id = ?", postID, authorID).Delete(&authorPost{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAuthors returns the authors of a live post ordered by name.
func (r *GormPostRepository) ListAuthors(ctx context.Context, postID int) ([]*models.Author, error) {
	tx := r.db.WithContext(ctx)
	if err := r.livePost(tx, postID); err != nil {
		return nil, err
	}
	authors := []*models.Author{}
	err := tx.Joins("JOIN author_post ON author_post.author_id = authors.id").
		Where("author_post.post_id = ?", postID).
		Order("authors.name, authors.id").
		Find(&authors).Error
	if err != nil {
		return nil, err
	}
	return authors, nil
}

// GormCategoryRepository implements CategoryRepository on a SQL database.
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository returns a category repository backed by db.
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// Create inserts a category; a duplicate slug is ErrSlugTaken.
func (r *GormCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	category.BeforeCreate()
	return translate(r.db.WithContext(ctx).Create(category).Error)
}

// GetByID retrieves a category by ID.
func (r *GormCategoryRepository) GetByID(ctx context.Context, id int) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

// GetBySlug retrieves a category by slug.
func (r *GormCategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

// List returns categories ordered by name, narrowed by search over name and slug.
func (r *GormCategoryRepository) List(ctx context.Context, search string) ([]*models.Category, error) {
	query := r.db.WithContext(ctx).Order("name, id")
	if strings.TrimSpace(search) != "" {
		like := likePattern(search)
		query = query.Where("LOWER(name) LIKE ? ESCAPE '!' OR LOWER(slug) LIKE ? ESCAPE '!'", like, like)
	}
	categories := []*models.Category{}
	if err := query.Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// GormAuthorRepository implements AuthorRepository on a SQL database.
type GormAuthorRepository struct {
	db *gorm.DB
}

// NewGormAuthorRepository returns an author repository backed by db.
func NewGormAuthorRepository(db *gorm.DB) *GormAuthorRepository {
	return &GormAuthorRepository{db: db}
}

// Create inserts an author.
func (r *GormAuthorRepository) Create(ctx context.Context, author *models.Author) error {
	author.BeforeCreate()
	return translate(r.db.WithContext(ctx).Create(author).Error)
}

// GetByID retrieves an author by ID.
func (r *GormAuthorRepository) GetByID(ctx context.Context, id int) (*models.Author, error) {
	var author models.Author
	if err := r.db.WithContext(ctx).First(&author, id).Error; err != nil {
		return nil, translate(err)
	}
	return &author, nil
}

// List returns authors ordered by name, narrowed by search over name and email.
func (r *GormAuthorRepository) List(ctx context.Context, search string) ([]*models.Author, error) {
	query := r.db.WithContext(ctx).Order("name, id")
	if strings.TrimSpace(search) != "" {
		like := likePattern(search)
		query = query.Where("LOWER(name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!'", like, like)
	}
	authors := []*models.Author{}
	if err := query.Find(&authors).Error; err != nil {
		return nil, err
	}
	return authors, nil
}
