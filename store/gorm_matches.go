package store

import (
	"context"
	"fmt"
	"time"

	"tournament-wallet-service/apperrors"
	"tournament-wallet-service/models"

	"gorm.io/gorm"
)

func (s *GormStore) GetMatch(ctx context.Context, id uint) (*models.Match, error) {
	var m models.Match
	if err := s.DB.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "match", id)
	}
	return &m, nil
}

func (s *GormStore) MatchesForUser(ctx context.Context, userID uint) ([]models.Match, error) {
	var out []models.Match
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list matches for user %d: %w", userID, err)
	}
	return out, nil
}

// SubmitResult only touches rows whose result_submitted is still false.
func (s *GormStore) SubmitResult(ctx context.Context, id uint, sub models.ResultSubmission, at time.Time) (*models.Match, error) {
	var out models.Match
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Match{}).
			Where("id = ? AND result_submitted = ?", id, false).
			Updates(map[string]interface{}{
				"position":         sub.Position,
				"kills":            sub.Kills,
				"result":           sub.Result,
				"screenshot":       sub.Screenshot,
				"result_submitted": true,
				"submitted_at":     at,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to submit result: %w", res.Error)
		}
		if err := tx.First(&out, "id = ?", id).Error; err != nil {
			return dbError(err, "match", id)
		}
		if res.RowsAffected == 0 {
			return apperrors.New(apperrors.KindAlreadySubmitted, "result for match %d already submitted", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *GormStore) ApproveResult(ctx context.Context, id uint, prize int64) (*models.Match, error) {
	var out models.Match
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&out, "id = ?", id).Error; err != nil {
			return dbError(err, "match", id)
		}
		if !out.ResultSubmitted {
			return apperrors.Validation("match %d has no submitted result", id)
		}
		if out.ResultApproved {
			return apperrors.Validation("result for match %d already approved", id)
		}
		out.ResultApproved = true
		out.Prize = prize
		return tx.Model(&out).Updates(map[string]interface{}{
			"result_approved": true,
			"prize":           prize,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
