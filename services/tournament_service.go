// services/tournament_service.go
package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"tournament-wallet-service/apperrors"
	"tournament-wallet-service/metrics"
	"tournament-wallet-service/models"
	"tournament-wallet-service/store"
	"tournament-wallet-service/utils"

	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"
)

// DefaultJoinableWindow is how far ahead of its start a tournament opens for registration.
const DefaultJoinableWindow = 24 * time.Hour

type TournamentStore interface {
	store.UserStore
	store.TournamentStore
}

// transitions lists, per target status, the statuses a tournament may leave to reach it.
var transitions = map[models.TournamentStatus][]models.TournamentStatus{
	models.TournamentLive:      {models.TournamentUpcoming},
	models.TournamentCancelled: {models.TournamentUpcoming},
	models.TournamentCompleted: {models.TournamentLive},
}

type TournamentService struct {
	Store          TournamentStore
	Converter      *CurrencyConverter
	JoinableWindow time.Duration

	now func() time.Time
	log *logrus.Entry
}

func NewTournamentService(st TournamentStore, joinableWindow time.Duration) *TournamentService {
	if joinableWindow <= 0 {
		joinableWindow = DefaultJoinableWindow
	}
	return &TournamentService{
		Store:          st,
		Converter:      NewCurrencyConverter(),
		JoinableWindow: joinableWindow,
		now:            time.Now,
		log:            utils.Component("tournament"),
	}
}

func ParseTournamentStatus(raw string) (models.TournamentStatus, error) {
	s := models.TournamentStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case models.TournamentUpcoming, models.TournamentLive, models.TournamentCompleted, models.TournamentCancelled:
		return s, nil
	}
	return "", apperrors.Validation("unknown tournament status %q", raw)
}

// Create validates and stores a new upcoming tournament.
func (s *TournamentService) Create(ctx context.Context, req models.NewTournament) (*models.Tournament, error) {
	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		return nil, apperrors.Validation("tournament name is required")
	case req.MaxPlayers <= 0:
		return nil, apperrors.Validation("max_players must be positive")
	case req.EntryFee < 0 || req.PrizePool < 0 || req.PerKill < 0:
		return nil, apperrors.Validation("fees and prizes must not be negative")
	case req.StartTime.IsZero():
		return nil, apperrors.Validation("start_time is required")
	case req.EndTime != nil && !req.EndTime.After(req.StartTime):
		return nil, apperrors.Validation("end_time must be after start_time")
	}

	t := &models.Tournament{
		Slug:       slug.Make(name + " " + req.StartTime.UTC().Format("2006-01-02 1504")),
		Name:       name,
		Game:       strings.TrimSpace(req.Game),
		GameMode:   req.GameMode,
		Map:        req.Map,
		MaxPlayers: req.MaxPlayers,
		Status:     models.TournamentUpcoming,
		EntryFee:   req.EntryFee,
		PrizePool:  req.PrizePool,
		PerKill:    req.PerKill,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	}
	if err := s.Store.CreateTournament(ctx, t); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"tournament_id": t.ID, "slug": t.Slug}).Info("🏆 tournament created")
	return t, nil
}

func (s *TournamentService) Get(ctx context.Context, id uint) (*models.Tournament, error) {
	return s.Store.GetTournament(ctx, id)
}

// joinable checks the status and the registration window against now.
func (s *TournamentService) joinable(t models.Tournament) error {
	now := s.now()
	switch {
	case t.Status != models.TournamentUpcoming:
		return apperrors.New(apperrors.KindNotJoinable, "tournament %d is %s", t.ID, t.Status)
	case !t.StartTime.After(now):
		return apperrors.New(apperrors.KindNotJoinable, "tournament %d has already started", t.ID)
	case t.StartTime.After(now.Add(s.JoinableWindow)):
		return apperrors.New(apperrors.KindNotJoinable, "registration for tournament %d opens %s before start", t.ID, s.JoinableWindow)
	}
	return nil
}

// Register seats the user in the tournament, charging the entry fee in the user's currency.
func (s *TournamentService) Register(ctx context.Context, tournamentID, userID uint) (m *models.Match, err error) {
	defer func() { metrics.RecordRegistration(err) }()

	if _, err := s.Store.GetTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	user, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var fee *models.WalletTransaction
	reg := store.Registration{
		TournamentID: tournamentID,
		UserID:       userID,
		Admit: func(t models.Tournament) error {
			fee = nil
			if err := s.joinable(t); err != nil {
				return err
			}
			if t.EntryFee <= 0 {
				return nil
			}
			amount, err := s.Converter.ConvertMinor(t.EntryFee, models.CurrencyUSD, user.Currency)
			if err != nil {
				return err
			}
			if amount <= 0 {
				return nil
			}
			fee = &models.WalletTransaction{
				UserID:   userID,
				Type:     models.TransactionWithdrawal,
				Amount:   amount,
				Currency: user.Currency,
				Status:   models.TransactionCompleted,
				Details: models.TransactionDetails{
					Method: "entry_fee",
					Note:   "entry fee for " + t.Name,
				},
			}
			return nil
		},
		EntryFee: func(models.Tournament) *models.WalletTransaction {
			return fee
		},
		FundsCheck: func(history []models.WalletTransaction) error {
			return requireFunds(fee.Amount, fee.Currency)(history)
		},
		Match: func(t models.Tournament) *models.Match {
			return &models.Match{
				UserID:         userID,
				TournamentID:   t.ID,
				TournamentName: t.Name,
				Status:         models.MatchUpcoming,
				Date:           t.StartTime,
			}
		},
	}

	m, err = s.Store.RegisterPlayer(ctx, reg)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"tournament_id": tournamentID, "user_id": userID, "match_id": m.ID}).Info("🎮 player registered")
	return m, nil
}

// ListByStatus filters by status; upcoming and live sort soonest first, finished ones most recent first.
func (s *TournamentService) ListByStatus(ctx context.Context, status models.TournamentStatus) ([]models.Tournament, error) {
	if status != "" {
		if _, err := ParseTournamentStatus(string(status)); err != nil {
			return nil, err
		}
	}
	list, err := s.Store.ListTournaments(ctx, status)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Tournament{}
	}

	descending := status == models.TournamentCompleted || status == models.TournamentCancelled
	sort.SliceStable(list, func(i, j int) bool {
		if descending {
			return list[i].StartTime.After(list[j].StartTime)
		}
		return list[i].StartTime.Before(list[j].StartTime)
	})
	return list, nil
}

// UpdateStatus applies an admin transition and mirrors it onto the tournament's matches.
func (s *TournamentService) UpdateStatus(ctx context.Context, id uint, next models.TournamentStatus) (*models.Tournament, error) {
	allowed, ok := transitions[next]
	if !ok {
		return nil, apperrors.Validation("cannot move a tournament to %q", next)
	}
	t, err := s.Store.SetTournamentStatus(ctx, id, allowed, next)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"tournament_id": id, "status": next}).Info("🔄 tournament status changed")
	return t, nil
}

// AdvanceLifecycle starts tournaments whose start time passed and completes live ones past their end time.
func (s *TournamentService) AdvanceLifecycle(ctx context.Context, now time.Time) (int, error) {
	moved := 0

	upcoming, err := s.Store.ListTournaments(ctx, models.TournamentUpcoming)
	if err != nil {
		return moved, err
	}
	for _, t := range upcoming {
		if t.StartTime.After(now) {
			continue
		}
		if _, err := s.Store.SetTournamentStatus(ctx, t.ID, transitions[models.TournamentLive], models.TournamentLive); err != nil {
			s.log.WithError(err).WithField("tournament_id", t.ID).Warn("⚠️ failed to start tournament")
			continue
		}
		moved++
	}

	live, err := s.Store.ListTournaments(ctx, models.TournamentLive)
	if err != nil {
		return moved, err
	}
	for _, t := range live {
		if t.EndTime == nil || t.EndTime.After(now) {
			continue
		}
		if _, err := s.Store.SetTournamentStatus(ctx, t.ID, transitions[models.TournamentCompleted], models.TournamentCompleted); err != nil {
			s.log.WithError(err).WithField("tournament_id", t.ID).Warn("⚠️ failed to complete tournament")
			continue
		}
		moved++
	}
	return moved, nil
}
