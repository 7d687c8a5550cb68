package store

import (
	"context"
	"fmt"

	"tournament-wallet-service/apperrors"
	"tournament-wallet-service/models"

	"gorm.io/gorm"
)

func (s *GormStore) CreateDocument(ctx context.Context, doc *models.KycDocument, userStatus models.KycStatus) error {
	return s.transaction(ctx, func(tx *gorm.DB) error {
		if _, err := lockUser(tx, doc.UserID); err != nil {
			return err
		}
		if err := tx.Create(doc).Error; err != nil {
			return fmt.Errorf("failed to create kyc document: %w", err)
		}
		if err := tx.Model(&models.User{}).Where("id = ?", doc.UserID).
			Update("kyc_status", userStatus).Error; err != nil {
			return fmt.Errorf("failed to update kyc status: %w", err)
		}
		return nil
	})
}

func (s *GormStore) GetDocument(ctx context.Context, id uint) (*models.KycDocument, error) {
	var d models.KycDocument
	if err := s.DB.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "kyc document", id)
	}
	return &d, nil
}

func (s *GormStore) Documents(ctx context.Context, userID uint) ([]models.KycDocument, error) {
	var docs []models.KycDocument
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list kyc documents for user %d: %w", userID, err)
	}
	return docs, nil
}

func (s *GormStore) SaveReview(ctx context.Context, doc *models.KycDocument, userStatus models.KycStatus) error {
	return s.transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.KycDocument{}).
			Where("id = ? AND status = ?", doc.ID, models.DocumentPending).
			Updates(map[string]interface{}{
				"status":           doc.Status,
				"rejection_reason": doc.RejectionReason,
				"reviewed_by":      doc.ReviewedBy,
				"reviewed_at":      doc.ReviewedAt,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to save kyc review: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var current models.KycDocument
			if err := tx.First(&current, "id = ?", doc.ID).Error; err != nil {
				return dbError(err, "kyc document", doc.ID)
			}
			return apperrors.Validation("kyc document %d already %s", doc.ID, current.Status)
		}
		if err := tx.Model(&models.User{}).Where("id = ?", doc.UserID).
			Update("kyc_status", userStatus).Error; err != nil {
			return fmt.Errorf("failed to update kyc status: %w", err)
		}
		return nil
	})
}
