// Package gorm provides GORM model definitions and repositories for
// accounts and saved recipes
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/gourmetguru/api/internal/domain/user"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountModel represents the GORM model for accounts
type AccountModel struct {
	ID           uuid.UUID `gorm:"type:char(36);primaryKey"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SavedRecipeModel is one row of users/{uid}/savedRecipes/{recipeId}
type SavedRecipeModel struct {
	UserID         string      `gorm:"type:varchar(64);primaryKey"`
	RecipeID       int64       `gorm:"primaryKey;autoIncrement:false"`
	Title          string      `gorm:"type:varchar(500);not null"`
	Image          string      `gorm:"type:text"`
	ReadyInMinutes int         `gorm:"not null;default:0"`
	Servings       int         `gorm:"not null;default:0"`
	HealthScore    float64     `gorm:"not null;default:0"`
	Difficulty     string      `gorm:"type:varchar(20)"`
	Diets          StringSlice `gorm:"type:json"`
	SavedAt        time.Time   `gorm:"not null;index"`
}

// StringSlice stores a string slice as JSON. A nil slice is stored as NULL
// and read back as nil, so "not reported" survives a round trip.
type StringSlice []string

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	data, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// BeforeCreate assigns an ID to accounts created without one
func (a *AccountModel) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (AccountModel) TableName() string {
	return "accounts"
}

func (SavedRecipeModel) TableName() string {
	return "saved_recipes"
}

// Models lists every model for auto-migration
func Models() []interface{} {
	return []interface{}{&AccountModel{}, &SavedRecipeModel{}}
}

func accountToModel(a *user.Account) *AccountModel {
	return &AccountModel{
		ID:           a.ID(),
		Email:        a.Email(),
		PasswordHash: a.PasswordHash(),
		CreatedAt:    a.CreatedAt(),
	}
}

func modelToAccount(m *AccountModel) *user.Account {
	return user.RestoreAccount(m.ID, m.Email, m.PasswordHash, m.CreatedAt)
}

func savedToModel(userID string, s recipe.SavedRecipe) *SavedRecipeModel {
	return &SavedRecipeModel{
		UserID:         userID,
		RecipeID:       s.ID,
		Title:          s.Title,
		Image:          s.Image,
		ReadyInMinutes: s.ReadyInMinutes,
		Servings:       s.Servings,
		HealthScore:    s.HealthScore,
		Difficulty:     string(recipe.Classify(s.ReadyInMinutes)),
		Diets:          StringSlice(s.Diets),
		SavedAt:        s.SavedAt,
	}
}

func modelToSaved(m *SavedRecipeModel) recipe.SavedRecipe {
	return recipe.SavedRecipe{
		ID:             m.RecipeID,
		Title:          m.Title,
		Image:          m.Image,
		ReadyInMinutes: m.ReadyInMinutes,
		Servings:       m.Servings,
		HealthScore:    m.HealthScore,
		Difficulty:     recipe.Classify(m.ReadyInMinutes),
		Diets:          []string(m.Diets),
		SavedAt:        m.SavedAt,
	}
}
