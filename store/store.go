// Package store persists users, ledgers, KYC documents, tournaments and matches.
//
// Each component talks to its own narrow interface so it can be tested against
// the in-memory implementation and run against Postgres (gorm) in production.
// Operations that must be atomic (appending a checked ledger line, registering
// a player against capacity, submitting a result once) are single store calls;
// the caller passes its validation in as a callback that runs inside the unit of work.
package store

import (
	"context"
	"time"

	"tournament-wallet-service/models"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	UpdateUser(ctx context.Context, id uint, patch models.UserUpdate) (*models.User, error)
	// UpsertUserByExternalID inserts or refreshes a profile mirror, leaving KYC state alone.
	UpsertUserByExternalID(ctx context.Context, u *models.User) error
	// SearchUsers matches query case-insensitively against username and email, ordered by ID.
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)
	// LatestUserUpdate returns the newest mirrored profile timestamp, zero when nothing was synced.
	LatestUserUpdate(ctx context.Context) (time.Time, error)
}

// HistoryCheck inspects a user's ledger (oldest first) and vetoes an append by returning an error.
type HistoryCheck func(history []models.WalletTransaction) error

type LedgerStore interface {
	// AppendTransaction inserts tx unconditionally.
	AppendTransaction(ctx context.Context, tx *models.WalletTransaction) error
	// AppendChecked runs check against the user's current history and inserts tx only if it
	// returns nil. No other append for the same user can interleave.
	AppendChecked(ctx context.Context, tx *models.WalletTransaction, check HistoryCheck) error
	Transactions(ctx context.Context, userID uint) ([]models.WalletTransaction, error)
	GetTransaction(ctx context.Context, id uint) (*models.WalletTransaction, error)
	// PendingWithdrawals lists pending withdrawals that have no settlement row yet.
	PendingWithdrawals(ctx context.Context) ([]models.WalletTransaction, error)
}

type KycStore interface {
	// CreateDocument inserts doc and moves the owner's aggregate status to userStatus.
	CreateDocument(ctx context.Context, doc *models.KycDocument, userStatus models.KycStatus) error
	GetDocument(ctx context.Context, id uint) (*models.KycDocument, error)
	Documents(ctx context.Context, userID uint) ([]models.KycDocument, error)
	// SaveReview persists a decision on a still-pending document together with the owner's new
	// aggregate status. Fails with a validation error if the document was already reviewed.
	SaveReview(ctx context.Context, doc *models.KycDocument, userStatus models.KycStatus) error
}

// Registration describes one join attempt.
type Registration struct {
	TournamentID uint
	UserID       uint
	// Admit runs against the locked tournament before anything is written.
	Admit func(t models.Tournament) error
	// Match builds the seat to create once admitted.
	Match func(t models.Tournament) *models.Match
	// EntryFee, when non-nil, is appended to the user's ledger in the same unit of work,
	// guarded by FundsCheck.
	EntryFee   func(t models.Tournament) *models.WalletTransaction
	FundsCheck HistoryCheck
}

type TournamentStore interface {
	CreateTournament(ctx context.Context, t *models.Tournament) error
	GetTournament(ctx context.Context, id uint) (*models.Tournament, error)
	// ListTournaments returns tournaments in insertion order, filtered when status is non-empty.
	ListTournaments(ctx context.Context, status models.TournamentStatus) ([]models.Tournament, error)
	// SetTournamentStatus moves a tournament from one of the allowed statuses to next and
	// mirrors the change onto its matches.
	SetTournamentStatus(ctx context.Context, id uint, allowed []models.TournamentStatus, next models.TournamentStatus) (*models.Tournament, error)
	// RegisterPlayer admits the user, bumps RegisteredPlayers by compare-and-increment and creates
	// the match, all or nothing.
	RegisterPlayer(ctx context.Context, reg Registration) (*models.Match, error)
}

type MatchStore interface {
	GetMatch(ctx context.Context, id uint) (*models.Match, error)
	MatchesForUser(ctx context.Context, userID uint) ([]models.Match, error)
	// SubmitResult records a result exactly once.
	SubmitResult(ctx context.Context, id uint, sub models.ResultSubmission, at time.Time) (*models.Match, error)
	// ApproveResult flags a submitted result approved and stores the computed prize.
	ApproveResult(ctx context.Context, id uint, prize int64) (*models.Match, error)
}

// Store is the full persistence surface.
type Store interface {
	UserStore
	LedgerStore
	KycStore
	TournamentStore
	MatchStore
}

func containsStatus(list []models.TournamentStatus, s models.TournamentStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
