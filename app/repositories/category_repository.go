package repositories

import (
	"context"
	"errors"
	"sort"

	"postpanel/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCategoryRepository implements CategoryRepository using BadgerDB
type BadgerCategoryRepository struct {
	db *badger.DB
}

// NewBadgerCategoryRepository creates a new BadgerCategoryRepository
func NewBadgerCategoryRepository(db *badger.DB) *BadgerCategoryRepository {
	return &BadgerCategoryRepository{db: db}
}

// Create stores a category, rejecting a slug that is already used.
func (r *BadgerCategoryRepository) Create(_ context.Context, category *models.Category) error {
	return r.db.Update(func(txn *badger.Txn) error {
		taken := false
		err := scanPrefix(txn, []byte(CategoryKeyPrefix), func(_, val []byte) error {
			var existing models.Category
			if err := unmarshalEntity(val, &existing); err != nil {
				return err
			}
			if existing.Slug == category.Slug {
				taken = true
			}
			return nil
		})
		if err != nil {
			return err
		}
		if taken {
			return ErrSlugTaken
		}

		id, err := getNextID(txn, CategorySeqKey)
		if err != nil {
			return err
		}
		category.ID = id
		category.BeforeCreate()
		return putEntity(txn, entityKey(CategoryKeyPrefix, id), category)
	})
}

// GetByID retrieves a category by ID
func (r *BadgerCategoryRepository) GetByID(_ context.Context, id int) (*models.Category, error) {
	var category models.Category
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, entityKey(CategoryKeyPrefix, id), &category)
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetBySlug retrieves a category by its slug
func (r *BadgerCategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	categories, err := r.List(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

// List returns the categories whose name or slug contains search, ordered by name.
func (r *BadgerCategoryRepository) List(_ context.Context, search string) ([]*models.Category, error) {
	categories := []*models.Category{}
	err := r.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, []byte(CategoryKeyPrefix), func(_, val []byte) error {
			var c models.Category
			if err := unmarshalEntity(val, &c); err != nil {
				return err
			}
			if matchesSearch(search, c.Name, c.Slug) {
				categories = append(categories, &c)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(categories, func(i, j int) bool {
		if categories[i].Name != categories[j].Name {
			return categories[i].Name < categories[j].Name
		}
		return categories[i].ID < categories[j].ID
	})
	return categories, nil
}

func loadCategory(txn *badger.Txn, id int) (*models.Category, error) {
	var c models.Category
	err := getEntity(txn, entityKey(CategoryKeyPrefix, id), &c)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
