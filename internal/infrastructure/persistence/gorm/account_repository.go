package gorm

import (
	"context"
	"errors"
	"strings"

	"github.com/gourmetguru/api/internal/domain/user"
	"github.com/gourmetguru/api/internal/ports/outbound"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountRepository implements the account repository interface using GORM
type AccountRepository struct {
	db *gorm.DB
}

var _ outbound.AccountRepository = (*AccountRepository)(nil)

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account
func (r *AccountRepository) Create(ctx context.Context, account *user.Account) error {
	result := r.db.WithContext(ctx).Create(accountToModel(account))
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return outbound.ErrDuplicateEmail
		}
		return result.Error
	}
	return nil
}

// FindByEmail finds an account by its normalized email
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*user.Account, error) {
	var model AccountModel

	result := r.db.WithContext(ctx).First(&model, "email = ?", strings.ToLower(strings.TrimSpace(email)))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, outbound.ErrAccountNotFound
		}
		return nil, result.Error
	}

	return modelToAccount(&model), nil
}

// FindByID finds an account by ID
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*user.Account, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, outbound.ErrAccountNotFound
	}

	var model AccountModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", parsed)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, outbound.ErrAccountNotFound
		}
		return nil, result.Error
	}

	return modelToAccount(&model), nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key")
}
