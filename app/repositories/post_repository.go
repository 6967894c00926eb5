package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"postpanel/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerPostRepository implements PostRepository using BadgerDB
type BadgerPostRepository struct {
	db *badger.DB
}

// NewBadgerPostRepository creates a new BadgerPostRepository
func NewBadgerPostRepository(db *badger.DB) *BadgerPostRepository {
	return &BadgerPostRepository{db: db}
}

// stored strips the relations; they live under their own keys.
func stored(post *models.Post) *models.Post {
	cp := *post
	cp.Category = nil
	cp.Authors = nil
	return &cp
}

// Create creates a new post together with its author pivots
func (r *BadgerPostRepository) Create(_ context.Context, post *models.Post) error {
	return r.db.Update(func(txn *badger.Txn) error {
		id, err := getNextID(txn, PostSeqKey)
		if err != nil {
			return err
		}
		post.ID = id
		post.BeforeCreate()

		if err := putEntity(txn, entityKey(PostKeyPrefix, id), stored(post)); err != nil {
			return err
		}
		for _, a := range post.Authors {
			if err := txn.Set(pivotKey(id, a.ID), []byte{}); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID retrieves a live post by ID with its category and authors
func (r *BadgerPostRepository) GetByID(_ context.Context, id int) (*models.Post, error) {
	var post *models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		p, err := loadLivePost(txn, id)
		if err != nil {
			return err
		}
		if err := loadRelations(txn, p); err != nil {
			return err
		}
		post = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// List scans every post and applies the query in memory
func (r *BadgerPostRepository) List(_ context.Context, q PostQuery) (*PostPage, error) {
	var posts []*models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		categories := map[int]*models.Category{}
		return scanPrefix(txn, []byte(PostKeyPrefix), func(_, val []byte) error {
			var p models.Post
			if err := unmarshalEntity(val, &p); err != nil {
				return fmt.Errorf("failed to unmarshal post: %w", err)
			}
			if p.Trashed() {
				return nil
			}
			c, ok := categories[p.CategoryID]
			if !ok {
				var err error
				if c, err = loadCategory(txn, p.CategoryID); err != nil {
					return err
				}
				categories[p.CategoryID] = c
			}
			p.Category = c
			posts = append(posts, &p)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	page := Paginate(posts, q)
	err = r.db.View(func(txn *badger.Txn) error {
		for _, p := range page.Posts {
			authors, err := loadAuthors(txn, p.ID)
			if err != nil {
				return err
			}
			p.Authors = authors
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Update overwrites the columns of an existing post
func (r *BadgerPostRepository) Update(_ context.Context, post *models.Post) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return updatePost(txn, post)
	})
}

// Save updates the post and replaces its pivots in one transaction.
func (r *BadgerPostRepository) Save(_ context.Context, post *models.Post, authorIDs []int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if err := updatePost(txn, post); err != nil {
			return err
		}
		return replacePivots(txn, post.ID, authorIDs)
	})
}

func updatePost(txn *badger.Txn, post *models.Post) error {
	existing, err := loadLivePost(txn, post.ID)
	if err != nil {
		return err
	}
	post.CreatedAt = existing.CreatedAt
	post.UpdatedAt = time.Now()
	return putEntity(txn, entityKey(PostKeyPrefix, post.ID), stored(post))
}

// Delete soft deletes a post by ID
func (r *BadgerPostRepository) Delete(ctx context.Context, id int) error {
	n, err := r.DeleteMany(ctx, []int{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMany soft deletes the live posts among ids and returns how many were trashed.
func (r *BadgerPostRepository) DeleteMany(_ context.Context, ids []int) (int, error) {
	deleted := 0
	err := r.db.Update(func(txn *badger.Txn) error {
		now := time.Now()
		for _, id := range ids {
			p, err := loadLivePost(txn, id)
			if err == ErrNotFound {
				continue
			}
			if err != nil {
				return err
			}
			p.SoftDelete(now)
			if err := putEntity(txn, entityKey(PostKeyPrefix, id), p); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// SetPublished flips the published column only.
func (r *BadgerPostRepository) SetPublished(_ context.Context, id int, published bool) error {
	return r.db.Update(func(txn *badger.Txn) error {
		p, err := loadLivePost(txn, id)
		if err != nil {
			return err
		}
		p.Published = published
		p.UpdatedAt = time.Now()
		return putEntity(txn, entityKey(PostKeyPrefix, id), p)
	})
}

// SyncAuthors makes authorIDs the exact set of authors attached to the post.
func (r *BadgerPostRepository) SyncAuthors(_ context.Context, postID int, authorIDs []int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := loadLivePost(txn, postID); err != nil {
			return err
		}
		return replacePivots(txn, postID, authorIDs)
	})
}

func replacePivots(txn *badger.Txn, postID int, authorIDs []int) error {
	var existing [][]byte
	err := scanPrefix(txn, pivotPrefix(postID), func(key, _ []byte) error {
		existing = append(existing, key)
		return nil
	})
	if err != nil {
		return err
	}
	for _, key := range existing {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}
	for _, authorID := range authorIDs {
		if err := txn.Set(pivotKey(postID, authorID), []byte{}); err != nil {
			return err
		}
	}
	return nil
}

// AttachAuthor adds one pivot; attaching twice is a no-op.
func (r *BadgerPostRepository) AttachAuthor(_ context.Context, postID, authorID int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := loadLivePost(txn, postID); err != nil {
			return err
		}
		return txn.Set(pivotKey(postID, authorID), []byte{})
	})
}

// DetachAuthor removes one pivot.
func (r *BadgerPostRepository) DetachAuthor(_ context.Context, postID, authorID int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := loadLivePost(txn, postID); err != nil {
			return err
		}
		key := pivotKey(postID, authorID)
		if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

// ListAuthors returns the authors attached to a live post, ordered by name.
func (r *BadgerPostRepository) ListAuthors(_ context.Context, postID int) ([]*models.Author, error) {
	var authors []*models.Author
	err := r.db.View(func(txn *badger.Txn) error {
		if _, err := loadLivePost(txn, postID); err != nil {
			return err
		}
		var err error
		authors, err = loadAuthors(txn, postID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return authors, nil
}

func loadLivePost(txn *badger.Txn, id int) (*models.Post, error) {
	var p models.Post
	if err := getEntity(txn, entityKey(PostKeyPrefix, id), &p); err != nil {
		return nil, err
	}
	if p.Trashed() {
		return nil, ErrNotFound
	}
	return &p, nil
}

func loadRelations(txn *badger.Txn, p *models.Post) error {
	c, err := loadCategory(txn, p.CategoryID)
	if err != nil {
		return err
	}
	p.Category = c

	authors, err := loadAuthors(txn, p.ID)
	if err != nil {
		return err
	}
	p.Authors = authors
	return nil
}

// loadAuthors follows the pivots of a post. Pivots to missing authors are skipped.
func loadAuthors(txn *badger.Txn, postID int) ([]*models.Author, error) {
	prefix := pivotPrefix(postID)
	var ids []int
	err := scanPrefix(txn, prefix, func(key, _ []byte) error {
		id, err := strconv.Atoi(strings.TrimPrefix(string(key), string(prefix)))
		if err != nil {
			return fmt.Errorf("corrupt pivot key %q: %w", key, err)
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, err
	}

	authors := []*models.Author{}
	for _, id := range ids {
		var a models.Author
		err := getEntity(txn, entityKey(AuthorKeyPrefix, id), &a)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		authors = append(authors, &a)
	}
	sortAuthorsByName(authors)
	return authors, nil
}
