package store

import (
	"context"
	"errors"
	"fmt"

	"tournament-wallet-service/apperrors"
	"tournament-wallet-service/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the Postgres-backed Store.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// Migrate creates or updates every table the service owns.
func (s *GormStore) Migrate() error {
	return s.DB.AutoMigrate(
		&models.User{},
		&models.WalletTransaction{},
		&models.KycDocument{},
		&models.Tournament{},
		&models.Match{},
	)
}

// forUpdate locks the selected rows until the surrounding transaction ends.
func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// dbError turns a gorm error into a domain error, mapping missing rows to NotFound.
func dbError(err error, what string, id uint) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("%s %d not found", what, id)
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Wrap(apperrors.KindInternal, err, "%s %d", what, id)
}

// transaction runs fn in a DB transaction bound to ctx.
func (s *GormStore) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.DB.WithContext(ctx).Transaction(fn)
}

func lockUser(tx *gorm.DB, id uint) (*models.User, error) {
	var u models.User
	if err := forUpdate(tx).First(&u, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "user", id)
	}
	return &u, nil
}

func userHistory(tx *gorm.DB, userID uint) ([]models.WalletTransaction, error) {
	var history []models.WalletTransaction
	if err := tx.Where("user_id = ?", userID).Order("id ASC").Find(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to load ledger for user %d: %w", userID, err)
	}
	return history, nil
}

var _ Store = (*GormStore)(nil)
