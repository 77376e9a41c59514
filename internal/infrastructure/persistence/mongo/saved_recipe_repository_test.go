package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newRepo(mt *mtest.T, now time.Time) *SavedRecipeRepository {
	repo := NewSavedRecipeRepository(mt.DB)
	repo.now = func() time.Time { return now }
	return repo
}

func namespace(mt *mtest.T) string {
	return mt.DB.Name() + "." + CollectionName
}

func TestDocumentID(t *testing.T) {
	assert.Equal(t, "users/abc/savedRecipes/42", DocumentID("abc", 42))
}

func TestSavedRecipeRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mt.Run("save upserts by path key", func(mt *mtest.T) {
		repo := newRepo(mt, now)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		err := repo.Save(ctx, "u1", recipe.SavedRecipe{ID: 5, Title: "Soup", ReadyInMinutes: 30})
		require.NoError(mt, err)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "update", started.CommandName)

		update := started.Command.Lookup("updates").Array().Index(0).Value().Document()
		assert.Equal(mt, "users/u1/savedRecipes/5", update.Lookup("q", "_id").StringValue())
		assert.True(mt, update.Lookup("upsert").Boolean())
		assert.Equal(mt, "medium", update.Lookup("u", "difficulty").StringValue())
		assert.Equal(mt, now, update.Lookup("u", "saved_at").Time().UTC())
	})

	mt.Run("save rejects invalid bookmark without a round trip", func(mt *mtest.T) {
		repo := newRepo(mt, now)

		err := repo.Save(ctx, "u1", recipe.SavedRecipe{ID: 5})
		assert.ErrorIs(mt, err, recipe.ErrEmptyTitle)
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("save surfaces write errors", func(mt *mtest.T) {
		repo := newRepo(mt, now)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 121, Message: "document failed validation"}))

		err := repo.Save(ctx, "u1", recipe.SavedRecipe{ID: 5, Title: "Soup"})
		assert.Error(mt, err)
	})

	mt.Run("exists", func(mt *mtest.T) {
		repo := newRepo(mt, now)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch),
		)

		ok, err := repo.Exists(ctx, "u1", 5)
		require.NoError(mt, err)
		assert.True(mt, ok)

		ok, err = repo.Exists(ctx, "u1", 6)
		require.NoError(mt, err)
		assert.False(mt, ok)
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := newRepo(mt, now)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		require.NoError(mt, repo.Delete(ctx, "u1", 5))
		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "delete", started.CommandName)
	})

	mt.Run("list decodes documents and keeps null diets", func(mt *mtest.T) {
		repo := newRepo(mt, now)
		later := primitive.NewDateTimeFromTime(now.Add(time.Minute))
		earlier := primitive.NewDateTimeFromTime(now)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "users/u1/savedRecipes/2"},
				{Key: "user_id", Value: "u1"},
				{Key: "recipe_id", Value: int64(2)},
				{Key: "title", Value: "Salad"},
				{Key: "ready_in_minutes", Value: int32(10)},
				{Key: "servings", Value: int32(2)},
				{Key: "health_score", Value: 80.5},
				{Key: "difficulty", Value: "hard"},
				{Key: "diets", Value: bson.A{"vegan"}},
				{Key: "saved_at", Value: later},
			},
			bson.D{
				{Key: "_id", Value: "users/u1/savedRecipes/1"},
				{Key: "user_id", Value: "u1"},
				{Key: "recipe_id", Value: int64(1)},
				{Key: "title", Value: "Stew"},
				{Key: "ready_in_minutes", Value: int32(90)},
				{Key: "diets", Value: nil},
				{Key: "saved_at", Value: earlier},
			},
		))

		list, err := repo.List(ctx, "u1")
		require.NoError(mt, err)
		require.Len(mt, list, 2)

		assert.Equal(mt, int64(2), list[0].ID)
		assert.Equal(mt, recipe.DifficultyEasy, list[0].Difficulty, "difficulty is recomputed from minutes")
		assert.Equal(mt, []string{"vegan"}, list[0].Diets)
		assert.Nil(mt, list[1].Diets)
		assert.Equal(mt, recipe.DifficultyHard, list[1].Difficulty)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "find", started.CommandName)
		assert.Equal(mt, "u1", started.Command.Lookup("filter", "user_id").StringValue())
		assert.Equal(mt, int64(-1), started.Command.Lookup("sort", "saved_at").AsInt64())
	})

	mt.Run("list ids", func(mt *mtest.T) {
		repo := newRepo(mt, now)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "users/u1/savedRecipes/3"}, {Key: "recipe_id", Value: int64(3)}},
			bson.D{{Key: "_id", Value: "users/u1/savedRecipes/4"}, {Key: "recipe_id", Value: int64(4)}},
		))

		ids, err := repo.ListIDs(ctx, "u1")
		require.NoError(mt, err)
		assert.Equal(mt, map[int64]bool{3: true, 4: true}, ids)
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		repo := newRepo(mt, now)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		require.NoError(mt, repo.EnsureIndexes(ctx))
		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "createIndexes", started.CommandName)
	})
}
