package repositories

import (
	"context"
	"sort"

	"postpanel/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerAuthorRepository implements AuthorRepository using BadgerDB
type BadgerAuthorRepository struct {
	db *badger.DB
}

// NewBadgerAuthorRepository creates a new BadgerAuthorRepository
func NewBadgerAuthorRepository(db *badger.DB) *BadgerAuthorRepository {
	return &BadgerAuthorRepository{db: db}
}

// Create creates a new author
func (r *BadgerAuthorRepository) Create(_ context.Context, author *models.Author) error {
	return r.db.Update(func(txn *badger.Txn) error {
		id, err := getNextID(txn, AuthorSeqKey)
		if err != nil {
			return err
		}
		author.ID = id
		author.BeforeCreate()
		return putEntity(txn, entityKey(AuthorKeyPrefix, id), author)
	})
}

// GetByID retrieves an author by ID
func (r *BadgerAuthorRepository) GetByID(_ context.Context, id int) (*models.Author, error) {
	var author models.Author
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, entityKey(AuthorKeyPrefix, id), &author)
	})
	if err != nil {
		return nil, err
	}
	return &author, nil
}

// List returns the authors whose name or email contains search, ordered by name.
func (r *BadgerAuthorRepository) List(_ context.Context, search string) ([]*models.Author, error) {
	authors := []*models.Author{}
	err := r.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, []byte(AuthorKeyPrefix), func(_, val []byte) error {
			var a models.Author
			if err := unmarshalEntity(val, &a); err != nil {
				return err
			}
			if matchesSearch(search, a.Name, a.Email) {
				authors = append(authors, &a)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortAuthorsByName(authors)
	return authors, nil
}

func sortAuthorsByName(authors []*models.Author) {
	sort.SliceStable(authors, func(i, j int) bool {
		if authors[i].Name != authors[j].Name {
			return authors[i].Name < authors[j].Name
		}
		return authors[i].ID < authors[j].ID
	})
}
