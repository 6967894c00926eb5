package services

import (
	"context"
	"testing"

	"postpanel/app/models"
	"postpanel/app/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorCreate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	err := f.authors.Create(ctx, &models.Author{Name: "Carol", Email: "not-an-email"})
	var verrs models.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "The email field must be a valid email address.", verrs["email"])

	authors, err := f.authors.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, authors, 2)

	options, err := f.authors.Options(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Option{
		{Value: f.alice.ID, Label: "Alice"},
		{Value: f.bob.ID, Label: "Bob"},
	}, options)
}

func TestAuthorsRelationManager(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	in := f.input()
	in.AuthorIDs = nil
	post, err := f.posts.CreatePost(ctx, in, image(t))
	require.NoError(t, err)

	authors, err := f.authors.ListForPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, authors)

	require.NoError(t, f.authors.Attach(ctx, post.ID, f.bob.ID))
	require.NoError(t, f.authors.Attach(ctx, post.ID, f.alice.ID))
	require.NoError(t, f.authors.Attach(ctx, post.ID, f.alice.ID))

	authors, err = f.authors.ListForPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, authors, 2)
	assert.Equal(t, "Alice", authors[0].Name)
	assert.Equal(t, "Bob", authors[1].Name)

	err = f.authors.Attach(ctx, post.ID, 99)
	assert.True(t, models.IsValidationError(err))
	assert.ErrorIs(t, f.authors.Attach(ctx, 99, f.bob.ID), repositories.ErrNotFound)

	require.NoError(t, f.authors.Detach(ctx, post.ID, f.bob.ID))
	assert.ErrorIs(t, f.authors.Detach(ctx, post.ID, f.bob.ID), repositories.ErrNotFound)

	reloaded, err := f.posts.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{f.alice.ID}, reloaded.AuthorIDs())
}
