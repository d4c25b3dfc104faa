package repository_test

import (
	"context"
	"lingua_backend/internal/model"
	"lingua_backend/internal/repository"
	"lingua_backend/internal/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicRepository_SeedIsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := repository.NewTopicRepository(db)

	before, err := repo.FindNames(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, before)

	err = repo.Seed(ctx, []model.Topic{{
		Name:        "music",
		Description: "Songs and instruments",
		Levels:      []model.TopicLevel{{TopicName: "music", Level: 1, Title: "Beginner"}},
	}})
	require.NoError(t, err)
	require.NoError(t, repo.Seed(ctx, []model.Topic{{Name: "music"}}))

	after, err := repo.FindNames(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before)+1)

	ok, err := repo.LevelExists(ctx, "music", 1)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.LevelExists(ctx, "music", 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWordRepository_UpsertBatch(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := repository.NewWordRepository(db)

	_, err := repo.UpsertBatch(ctx, []model.Word{
		{Text: "recipe", Translation: "receta", TopicName: "food", Level: 1},
		{Text: "dish", Translation: "plato", TopicName: "food", Level: 1},
	})
	require.NoError(t, err)

	_, err = repo.UpsertBatch(ctx, []model.Word{
		{Text: "recipe", Translation: "recette", Example: "A simple recipe.", TopicName: "food", Level: 1},
	})
	require.NoError(t, err)

	words, err := repo.FindByTopicLevel(ctx, "food", 1)
	require.NoError(t, err)
	require.Len(t, words, 2)
	assert.Equal(t, "dish", words[0].Text)
	assert.Equal(t, "recipe", words[1].Text)
	assert.Equal(t, "recette", words[1].Translation)
	assert.Equal(t, "A simple recipe.", words[1].Example)

	n, err := repo.UpsertBatch(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUserRepository_EmailIsCaseInsensitive(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := repository.NewUserRepository(db)

	user := &model.User{Username: "Bo", Email: "  Bo@Example.com ", Password: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	assert.Equal(t, "bo@example.com", user.Email)

	got, err := repo.FindByEmail(ctx, "BO@example.COM")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	exists, err := repo.Exists(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.Exists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, exists)
}
