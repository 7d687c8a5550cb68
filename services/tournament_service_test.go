package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"tournament-wallet-service/apperrors"
	"tournament-wallet-service/models"
	"tournament-wallet-service/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clock = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTournaments(t *testing.T) (*TournamentService, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	svc := NewTournamentService(st, 0)
	svc.now = func() time.Time { return clock }
	return svc, st
}

func createTournament(t *testing.T, svc *TournamentService, name string, maxPlayers int, start time.Time, entryFee int64) *models.Tournament {
	t.Helper()
	tr, err := svc.Create(context.Background(), models.NewTournament{
		Name:       name,
		Game:       "Free Fire",
		GameMode:   "solo",
		MaxPlayers: maxPlayers,
		EntryFee:   entryFee,
		PrizePool:  500,
		PerKill:    10,
		StartTime:  start,
	})
	require.NoError(t, err)
	return tr
}

func TestCreateTournament(t *testing.T) {
	svc, _ := newTournaments(t)
	tr := createTournament(t, svc, "Sunday Showdown", 50, clock.Add(2*time.Hour), 0)
	assert.Equal(t, models.TournamentUpcoming, tr.Status)
	assert.Equal(t, "sunday-showdown-2026-03-14-1400", tr.Slug)
	assert.Zero(t, tr.RegisteredPlayers)

	ctx := context.Background()
	_, err := svc.Create(ctx, models.NewTournament{Name: "x", MaxPlayers: 0, StartTime: clock})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	_, err = svc.Create(ctx, models.NewTournament{Name: "x", MaxPlayers: 2})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	_, err = svc.Create(ctx, models.NewTournament{Name: "x", MaxPlayers: 2, StartTime: clock, EntryFee: -1})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	before := clock.Add(-time.Hour)
	_, err = svc.Create(ctx, models.NewTournament{Name: "x", MaxPlayers: 2, StartTime: clock, EndTime: &before})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestRegisterCreatesUpcomingMatch(t *testing.T) {
	ctx := context.Background()
	svc, st := newTournaments(t)
	u := newUser(t, st, models.CurrencyUSD, "")
	tr := createTournament(t, svc, "Cup", 4, clock.Add(time.Hour), 0)

	m, err := svc.Register(ctx, tr.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchUpcoming, m.Status)
	assert.Equal(t, tr.StartTime, m.Date)
	assert.Equal(t, "Cup", m.TournamentName)

	got, _ := svc.Get(ctx, tr.ID)
	assert.Equal(t, 1, got.RegisteredPlayers)

	_, err = svc.Register(ctx, tr.ID, u.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindAlreadyRegistered))
}

func TestRegisterErrors(t *testing.T) {
	ctx := context.Background()
	svc, st := newTournaments(t)
	u := newUser(t, st, models.CurrencyUSD, "")

	_, err := svc.Register(ctx, 42, u.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	soon := createTournament(t, svc, "Soon", 4, clock.Add(time.Hour), 0)
	_, err = svc.Register(ctx, soon.ID, 999)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	far := createTournament(t, svc, "Far", 4, clock.Add(48*time.Hour), 0)
	_, err = svc.Register(ctx, far.ID, u.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotJoinable))

	started := createTournament(t, svc, "Started", 4, clock.Add(-time.Minute), 0)
	_, err = svc.Register(ctx, started.ID, u.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotJoinable))

	_, err = svc.UpdateStatus(ctx, soon.ID, models.TournamentCancelled)
	require.NoError(t, err)
	_, err = svc.Register(ctx, soon.ID, u.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotJoinable))
}

func TestRegisterAtCapacity(t *testing.T) {
	ctx := context.Background()
	svc, st := newTournaments(t)
	first := newUser(t, st, models.CurrencyUSD, "")
	second := newUser(t, st, models.CurrencyUSD, "")
	tr := createTournament(t, svc, "Duel", 1, clock.Add(time.Hour), 0)

	_, err := svc.Register(ctx, tr.ID, first.ID)
	require.NoError(t, err)
	_, err = svc.Register(ctx, tr.ID, second.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindTournamentFull))
}

func TestConcurrentRegistrationSingleSlot(t *testing.T) {
	ctx := context.Background()
	svc, st := newTournaments(t)
	a := newUser(t, st, models.CurrencyUSD, "")
	b := newUser(t, st, models.CurrencyUSD, "")
	tr := createTournament(t, svc, "Duel", 1, clock.Add(time.Hour), 0)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, u := range []*models.User{a, b} {
		wg.Add(1)
		go func(i int, userID uint) {
			defer wg.Done()
			_, errs[i] = svc.Register(ctx, tr.ID, userID)
		}(i, u.ID)
	}
	wg.Wait()

	succeeded, full := 0, 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if apperrors.Is(err, apperrors.KindTournamentFull) {
			full++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, full)

	got, _ := svc.Get(ctx, tr.ID)
	assert.Equal(t, 1, got.RegisteredPlayers)
}

func TestRegisterChargesEntryFeeInUserCurrency(t *testing.T) {
	ctx := context.Background()
	svc, st := newTournaments(t)
	u := newUser(t, st, models.CurrencyINR, "India")
	tr := createTournament(t, svc, "Paid", 4, clock.Add(time.Hour), 2)

	require.NoError(t, st.AppendTransaction(ctx, &models.WalletTransaction{
		UserID: u.ID, Type: models.TransactionDeposit, Amount: 200, Currency: models.CurrencyINR, Status: models.TransactionCompleted,
	}))

	_, err := svc.Register(ctx, tr.ID, u.ID)
	require.NoError(t, err)

	history, _ := st.Transactions(ctx, u.ID)
	require.Len(t, history, 2)
	assert.Equal(t, "entry_fee", history[1].Details.Method)
	assert.EqualValues(t, 150, history[1].Amount)
	assert.EqualValues(t, 50, BalanceOf(history, models.CurrencyINR))
}

func TestRegisterInsufficientFundsRegistersNothing(t *testing.T) {
	ctx := context.Background()
	svc, st := newTournaments(t)
	u := newUser(t, st, models.CurrencyUSD, "")
	tr := createTournament(t, svc, "Paid", 4, clock.Add(time.Hour), 5)

	_, err := svc.Register(ctx, tr.ID, u.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindInsufficientFunds))

	got, _ := svc.Get(ctx, tr.ID)
	assert.Zero(t, got.RegisteredPlayers)
	matches, _ := st.MatchesForUser(ctx, u.ID)
	assert.Empty(t, matches)
}

func TestListByStatusOrdering(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTournaments(t)
	late := createTournament(t, svc, "Late", 4, clock.Add(3*time.Hour), 0)
	early := createTournament(t, svc, "Early", 4, clock.Add(time.Hour), 0)

	upcoming, err := svc.ListByStatus(ctx, models.TournamentUpcoming)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, early.ID, upcoming[0].ID)
	assert.Equal(t, late.ID, upcoming[1].ID)

	for _, id := range []uint{late.ID, early.ID} {
		_, err := svc.UpdateStatus(ctx, id, models.TournamentLive)
		require.NoError(t, err)
		_, err = svc.UpdateStatus(ctx, id, models.TournamentCompleted)
		require.NoError(t, err)
	}

	completed, err := svc.ListByStatus(ctx, models.TournamentCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 2)
	assert.Equal(t, late.ID, completed[0].ID)

	none, err := svc.ListByStatus(ctx, models.TournamentLive)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = svc.ListByStatus(ctx, "archived")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestUpdateStatusTransitions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTournaments(t)
	tr := createTournament(t, svc, "Cup", 4, clock.Add(time.Hour), 0)

	_, err := svc.UpdateStatus(ctx, tr.ID, models.TournamentCompleted)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	_, err = svc.UpdateStatus(ctx, tr.ID, models.TournamentUpcoming)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	got, err := svc.UpdateStatus(ctx, tr.ID, models.TournamentLive)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentLive, got.Status)

	_, err = svc.UpdateStatus(ctx, tr.ID, models.TournamentCancelled)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = svc.UpdateStatus(ctx, 77, models.TournamentLive)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestAdvanceLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, st := newTournaments(t)
	u := newUser(t, st, models.CurrencyUSD, "")

	end := clock.Add(3 * time.Hour)
	tr, err := svc.Create(ctx, models.NewTournament{Name: "Timed", MaxPlayers: 2, StartTime: clock.Add(time.Hour), EndTime: &end})
	require.NoError(t, err)
	m, err := svc.Register(ctx, tr.ID, u.ID)
	require.NoError(t, err)

	moved, err := svc.AdvanceLifecycle(ctx, clock)
	require.NoError(t, err)
	assert.Zero(t, moved)

	moved, err = svc.AdvanceLifecycle(ctx, clock.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, moved)
	got, _ := st.GetMatch(ctx, m.ID)
	assert.Equal(t, models.MatchLive, got.Status)

	moved, err = svc.AdvanceLifecycle(ctx, clock.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, moved)
	final, _ := svc.Get(ctx, tr.ID)
	assert.Equal(t, models.TournamentCompleted, final.Status)
}
