package store

import (
	"context"
	"fmt"

	"tournament-wallet-service/apperrors"
	"tournament-wallet-service/models"

	"gorm.io/gorm"
)

func (s *GormStore) AppendTransaction(ctx context.Context, tx *models.WalletTransaction) error {
	return s.AppendChecked(ctx, tx, nil)
}

// AppendChecked serialises appends per user by locking the user row.
func (s *GormStore) AppendChecked(ctx context.Context, wtx *models.WalletTransaction, check HistoryCheck) error {
	return s.transaction(ctx, func(tx *gorm.DB) error {
		if _, err := lockUser(tx, wtx.UserID); err != nil {
			return err
		}
		if check != nil {
			history, err := userHistory(tx, wtx.UserID)
			if err != nil {
				return err
			}
			if err := check(history); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return apperrors.Wrap(apperrors.KindExternalService, err, "ledger append aborted")
		}
		if err := tx.Create(wtx).Error; err != nil {
			return fmt.Errorf("failed to append wallet transaction: %w", err)
		}
		return nil
	})
}

func (s *GormStore) Transactions(ctx context.Context, userID uint) ([]models.WalletTransaction, error) {
	return userHistory(s.DB.WithContext(ctx), userID)
}

func (s *GormStore) GetTransaction(ctx context.Context, id uint) (*models.WalletTransaction, error) {
	var t models.WalletTransaction
	if err := s.DB.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "transaction", id)
	}
	return &t, nil
}

func (s *GormStore) PendingWithdrawals(ctx context.Context) ([]models.WalletTransaction, error) {
	db := s.DB.WithContext(ctx)
	settled := db.Model(&models.WalletTransaction{}).
		Select("settles_id").
		Where("settles_id IS NOT NULL")

	var out []models.WalletTransaction
	err := db.
		Where("type = ? AND status = ? AND settles_id IS NULL", models.TransactionWithdrawal, models.TransactionPending).
		Where("id NOT IN (?)", settled).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending withdrawals: %w", err)
	}
	return out, nil
}
