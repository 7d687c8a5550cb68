// services/match_service.go
package services

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"tournament-wallet-service/apperrors"
	"tournament-wallet-service/metrics"
	"tournament-wallet-service/models"
	"tournament-wallet-service/store"
	"tournament-wallet-service/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type MatchStore interface {
	store.TournamentStore
	store.MatchStore
}

type MatchService struct {
	Store   MatchStore
	Objects ObjectStore // nil rejects raw screenshot uploads

	now func() time.Time
	log *logrus.Entry
}

func NewMatchService(st MatchStore, objects ObjectStore) *MatchService {
	return &MatchService{
		Store:   st,
		Objects: objects,
		now:     time.Now,
		log:     utils.Component("match"),
	}
}

func validateResult(sub models.ResultSubmission) error {
	switch {
	case sub.Position <= 0:
		return apperrors.Validation("position must be positive")
	case sub.Kills < 0:
		return apperrors.Validation("kills must not be negative")
	case strings.TrimSpace(sub.Screenshot) == "" && len(sub.ScreenshotImage) == 0:
		return apperrors.Validation("a screenshot is required")
	}
	switch sub.Result {
	case "win", "loss", "draw":
		return nil
	}
	return apperrors.Validation("result must be win, loss or draw")
}

// SubmitResult records the player's own result once; approval stays with admins.
func (s *MatchService) SubmitResult(ctx context.Context, matchID, userID uint, sub models.ResultSubmission) (m *models.Match, err error) {
	defer func() { metrics.RecordResultSubmission(err) }()

	sub.Result = strings.ToLower(strings.TrimSpace(sub.Result))
	if err := validateResult(sub); err != nil {
		return nil, err
	}

	existing, err := s.Store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != userID {
		return nil, apperrors.NotFound("match %d not found", matchID)
	}
	if existing.ResultSubmitted {
		return nil, apperrors.New(apperrors.KindAlreadySubmitted, "result for match %d already submitted", matchID)
	}

	if len(sub.ScreenshotImage) > 0 {
		if sub.Screenshot, err = s.storeScreenshot(ctx, matchID, sub.ScreenshotImage); err != nil {
			return nil, err
		}
		sub.ScreenshotImage = nil
	}

	m, err = s.Store.SubmitResult(ctx, matchID, sub, s.now())
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"match_id": matchID, "user_id": userID, "position": sub.Position}).Info("📸 result submitted")
	return m, nil
}

func (s *MatchService) storeScreenshot(ctx context.Context, matchID uint, data []byte) (string, error) {
	if s.Objects == nil {
		return "", apperrors.Validation("screenshot uploads are disabled; send a screenshot URL")
	}
	key := fmt.Sprintf("screenshots/%d/%s", matchID, uuid.NewString())
	url, err := s.Objects.Put(ctx, key, data, http.DetectContentType(data))
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindExternalService, err, "failed to store screenshot")
	}
	return url, nil
}

func (s *MatchService) Get(ctx context.Context, matchID uint) (*models.Match, error) {
	return s.Store.GetMatch(ctx, matchID)
}

// Upcoming lists matches not yet finished, soonest first.
func (s *MatchService) Upcoming(ctx context.Context, userID uint) ([]models.Match, error) {
	return s.filter(ctx, userID, false, models.MatchUpcoming, models.MatchLive)
}

// Completed lists finished matches, most recent first.
func (s *MatchService) Completed(ctx context.Context, userID uint) ([]models.Match, error) {
	return s.filter(ctx, userID, true, models.MatchCompleted)
}

func (s *MatchService) filter(ctx context.Context, userID uint, descending bool, statuses ...models.MatchStatus) ([]models.Match, error) {
	all, err := s.Store.MatchesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := []models.Match{}
	for _, m := range all {
		for _, st := range statuses {
			if m.Status == st {
				out = append(out, m)
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// PrizeFor pays per kill, plus the prize pool for first place.
func PrizeFor(t models.Tournament, m models.Match) int64 {
	var prize int64
	if m.Kills != nil {
		prize = t.PerKill * int64(*m.Kills)
	}
	if m.Position != nil && *m.Position == 1 {
		prize += t.PrizePool
	}
	return prize
}

// ApproveResult marks a submitted result approved and stores the computed prize.
func (s *MatchService) ApproveResult(ctx context.Context, matchID uint) (*models.Match, error) {
	m, err := s.Store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.ResultSubmitted {
		return nil, apperrors.Validation("match %d has no submitted result", matchID)
	}
	t, err := s.Store.GetTournament(ctx, m.TournamentID)
	if err != nil {
		return nil, err
	}

	approved, err := s.Store.ApproveResult(ctx, matchID, PrizeFor(*t, *m))
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"match_id": matchID, "prize": approved.Prize}).Info("🏅 result approved")
	return approved, nil
}
