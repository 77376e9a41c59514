// Package mongo provides the document-store implementation of the saved
// recipe repository. Bookmarks are keyed users/{uid}/savedRecipes/{recipeId}.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/gourmetguru/api/internal/infrastructure/config"
	"github.com/gourmetguru/api/internal/ports/outbound"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// CollectionName is the collection bookmarks are stored in
const CollectionName = "saved_recipes"

// Connect opens a client and verifies connectivity
func Connect(ctx context.Context, cfg config.MongoConfig, logger *zap.Logger) (*mongo.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetAppName("gourmet-guru").
		SetTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("MongoDB client initialized", zap.String("database", cfg.Database))
	return client, nil
}

type savedRecipeDocument struct {
	ID             string    `bson:"_id"`
	UserID         string    `bson:"user_id"`
	RecipeID       int64     `bson:"recipe_id"`
	Title          string    `bson:"title"`
	Image          string    `bson:"image,omitempty"`
	ReadyInMinutes int       `bson:"ready_in_minutes"`
	Servings       int       `bson:"servings"`
	HealthScore    float64   `bson:"health_score"`
	Difficulty     string    `bson:"difficulty"`
	Diets          []string  `bson:"diets"`
	SavedAt        time.Time `bson:"saved_at"`
}

// DocumentID returns the path-style key of a bookmark
func DocumentID(userID string, recipeID int64) string {
	return fmt.Sprintf("users/%s/savedRecipes/%d", userID, recipeID)
}

// SavedRecipeRepository implements outbound.SavedRecipeRepository on MongoDB
type SavedRecipeRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

var _ outbound.SavedRecipeRepository = (*SavedRecipeRepository)(nil)

// NewSavedRecipeRepository creates a repository on db
func NewSavedRecipeRepository(db *mongo.Database) *SavedRecipeRepository {
	return &SavedRecipeRepository{
		coll: db.Collection(CollectionName),
		now:  func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// EnsureIndexes creates the per-user listing index
func (r *SavedRecipeRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "saved_at", Value: -1}},
		Options: options.Index().SetName("user_saved_at"),
	})
	return err
}

// Save upserts a bookmark and stamps SavedAt with the current time
func (r *SavedRecipeRepository) Save(ctx context.Context, userID string, saved recipe.SavedRecipe) error {
	if err := saved.Validate(); err != nil {
		return err
	}

	doc := savedRecipeDocument{
		ID:             DocumentID(userID, saved.ID),
		UserID:         userID,
		RecipeID:       saved.ID,
		Title:          saved.Title,
		Image:          saved.Image,
		ReadyInMinutes: saved.ReadyInMinutes,
		Servings:       saved.Servings,
		HealthScore:    saved.HealthScore,
		Difficulty:     string(recipe.Classify(saved.ReadyInMinutes)),
		Diets:          saved.Diets,
		SavedAt:        r.now(),
	}

	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

// Delete removes a bookmark. Deleting an absent bookmark is not an error.
func (r *SavedRecipeRepository) Delete(ctx context.Context, userID string, recipeID int64) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": DocumentID(userID, recipeID)})
	return err
}

// Exists reports whether the user bookmarked recipeID
func (r *SavedRecipeRepository) Exists(ctx context.Context, userID string, recipeID int64) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": DocumentID(userID, recipeID)}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns the user's bookmarks, most recently saved first
func (r *SavedRecipeRepository) List(ctx context.Context, userID string) ([]recipe.SavedRecipe, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "saved_at", Value: -1}, {Key: "recipe_id", Value: 1}}))
	if err != nil {
		return nil, err
	}

	var docs []savedRecipeDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	saved := make([]recipe.SavedRecipe, 0, len(docs))
	for _, d := range docs {
		saved = append(saved, recipe.SavedRecipe{
			ID:             d.RecipeID,
			Title:          d.Title,
			Image:          d.Image,
			ReadyInMinutes: d.ReadyInMinutes,
			Servings:       d.Servings,
			HealthScore:    d.HealthScore,
			Difficulty:     recipe.Classify(d.ReadyInMinutes),
			Diets:          d.Diets,
			SavedAt:        d.SavedAt,
		})
	}
	return saved, nil
}

// ListIDs returns the set of recipe IDs the user bookmarked
func (r *SavedRecipeRepository) ListIDs(ctx context.Context, userID string) (map[int64]bool, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetProjection(bson.M{"recipe_id": 1}))
	if err != nil {
		return nil, err
	}

	var docs []struct {
		RecipeID int64 `bson:"recipe_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	ids := make(map[int64]bool, len(docs))
	for _, d := range docs {
		ids[d.RecipeID] = true
	}
	return ids, nil
}
