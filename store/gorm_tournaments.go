package store

import (
	"context"
	"fmt"

	"tournament-wallet-service/apperrors"
	"tournament-wallet-service/models"

	"gorm.io/gorm"
)

func (s *GormStore) CreateTournament(ctx context.Context, t *models.Tournament) error {
	if err := s.DB.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (s *GormStore) GetTournament(ctx context.Context, id uint) (*models.Tournament, error) {
	var t models.Tournament
	if err := s.DB.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "tournament", id)
	}
	return &t, nil
}

func (s *GormStore) ListTournaments(ctx context.Context, status models.TournamentStatus) ([]models.Tournament, error) {
	q := s.DB.WithContext(ctx).Order("id ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.Tournament
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return out, nil
}

func (s *GormStore) SetTournamentStatus(ctx context.Context, id uint, allowed []models.TournamentStatus, next models.TournamentStatus) (*models.Tournament, error) {
	var out models.Tournament
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&out, "id = ?", id).Error; err != nil {
			return dbError(err, "tournament", id)
		}
		if !containsStatus(allowed, out.Status) {
			return apperrors.Validation("tournament %d cannot move from %s to %s", id, out.Status, next)
		}
		if err := tx.Model(&out).Update("status", next).Error; err != nil {
			return fmt.Errorf("failed to update tournament status: %w", err)
		}
		out.Status = next
		if err := tx.Model(&models.Match{}).Where("tournament_id = ?", id).
			Update("status", models.MatchStatusFor(next)).Error; err != nil {
			return fmt.Errorf("failed to mirror status onto matches: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterPlayer holds the tournament row lock for the whole join and increments the
// counter with a guarded UPDATE, so capacity holds even against writers that skip the lock.
func (s *GormStore) RegisterPlayer(ctx context.Context, reg Registration) (*models.Match, error) {
	var match *models.Match
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var t models.Tournament
		if err := forUpdate(tx).First(&t, "id = ?", reg.TournamentID).Error; err != nil {
			return dbError(err, "tournament", reg.TournamentID)
		}
		if _, err := lockUser(tx, reg.UserID); err != nil {
			return err
		}
		if reg.Admit != nil {
			if err := reg.Admit(t); err != nil {
				return err
			}
		}

		var existing int64
		if err := tx.Model(&models.Match{}).
			Where("tournament_id = ? AND user_id = ?", reg.TournamentID, reg.UserID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check registration: %w", err)
		}
		if existing > 0 {
			return apperrors.New(apperrors.KindAlreadyRegistered, "user %d already registered for tournament %d", reg.UserID, reg.TournamentID)
		}
		if t.IsFull() {
			return apperrors.New(apperrors.KindTournamentFull, "tournament %d is full (%d/%d)", t.ID, t.RegisteredPlayers, t.MaxPlayers)
		}

		if reg.EntryFee != nil {
			if fee := reg.EntryFee(t); fee != nil {
				if reg.FundsCheck != nil {
					history, err := userHistory(tx, reg.UserID)
					if err != nil {
						return err
					}
					if err := reg.FundsCheck(history); err != nil {
						return err
					}
				}
				if err := tx.Create(fee).Error; err != nil {
					return fmt.Errorf("failed to charge entry fee: %w", err)
				}
			}
		}

		res := tx.Model(&models.Tournament{}).
			Where("id = ? AND registered_players < max_players", t.ID).
			UpdateColumn("registered_players", gorm.Expr("registered_players + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("failed to increment registrations: %w", res.Error)
		}
		if res.RowsAffected != 1 {
			return apperrors.New(apperrors.KindTournamentFull, "tournament %d is full", t.ID)
		}
		t.RegisteredPlayers++

		match = reg.Match(t)
		if err := tx.Create(match).Error; err != nil {
			return fmt.Errorf("failed to create match: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}
