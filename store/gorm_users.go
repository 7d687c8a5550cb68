package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tournament-wallet-service/apperrors"
	"tournament-wallet-service/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.KycStatus == "" {
		u.KycStatus = models.KycNotSubmitted
	}
	if u.Currency == "" {
		u.Currency = models.CurrencyUSD
	}
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "user", id)
	}
	return &u, nil
}

func (s *GormStore) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var u models.User
	err := s.DB.WithContext(ctx).First(&u, "external_user_id = ?", externalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("user %q not found", externalID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %q: %w", externalID, err)
	}
	return &u, nil
}

func (s *GormStore) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	users := []models.User{}
	db := s.DB.WithContext(ctx).Model(&models.User{}).Order("id")
	if limit > 0 {
		db = db.Limit(limit)
	}
	if q := strings.TrimSpace(query); q != "" {
		term := "%" + strings.ToLower(q) + "%"
		db = db.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", term, term)
	}
	if err := db.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("user search failed: %w", err)
	}
	return users, nil
}

func (s *GormStore) UpdateUser(ctx context.Context, id uint, patch models.UserUpdate) (*models.User, error) {
	cols := patch.Columns()
	if len(cols) > 0 {
		res := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return nil, dbError(res.Error, "user", id)
		}
	}
	return s.GetUser(ctx, id)
}

// UpsertUserByExternalID refreshes profile columns only; kyc_status is owned by this service.
func (s *GormStore) UpsertUserByExternalID(ctx context.Context, u *models.User) error {
	if u.KycStatus == "" {
		u.KycStatus = models.KycNotSubmitted
	}
	if u.Currency == "" {
		u.Currency = models.CurrencyUSD
	}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"username", "email", "currency", "country", "game_mode", "profile_synced_at", "updated_at",
		}),
	}).Create(u).Error
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", u.ExternalUserID, err)
	}
	return nil
}

// LatestUserUpdate is the newest mirrored profile timestamp, used as the sync cursor.
func (s *GormStore) LatestUserUpdate(ctx context.Context) (time.Time, error) {
	var latest sql.NullTime
	if err := s.DB.WithContext(ctx).Raw("SELECT MAX(profile_synced_at) FROM users").Scan(&latest).Error; err != nil {
		return time.Time{}, fmt.Errorf("failed to read last user update: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, nil
	}
	return latest.Time, nil
}
