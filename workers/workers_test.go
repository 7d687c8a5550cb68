package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"tournament-wallet-service/models"
	"tournament-wallet-service/services"
	"tournament-wallet-service/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncBatchUpsertsUsers(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	updated := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	var gotSince, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/public/profiles", r.URL.Path)
		gotSince = r.URL.Query().Get("since")
		gotToken = r.Header.Get("X-Service-Token")
		_ = json.NewEncoder(w).Encode(GetUserChangesResponse{Users: []ProfileChange{
			{ExternalID: "u-1", Username: "alpha", Currency: "inr", Country: "India", UpdatedAt: updated},
			{ExternalID: "u-2", Username: "bravo", Currency: "XYZ", Country: "Nigeria", UpdatedAt: updated.Add(-time.Hour)},
			{ExternalID: "", Username: "ghost"},
		}})
	}))
	defer srv.Close()

	w := NewUserSyncWorker(st, srv.URL, "/api/v1/public/profiles", "svc-token", time.Minute)
	n, err := w.SyncBatch(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "svc-token", gotToken)
	assert.Equal(t, "0001-01-01T00:00:00Z", gotSince)

	alpha, err := st.GetUserByExternalID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, models.CurrencyINR, alpha.Currency)
	assert.Equal(t, models.KycNotSubmitted, alpha.KycStatus)

	bravo, err := st.GetUserByExternalID(ctx, "u-2")
	require.NoError(t, err)
	assert.Equal(t, models.CurrencyUSD, bravo.Currency)

	cursor, err := st.LatestUserUpdate(ctx)
	require.NoError(t, err)
	assert.True(t, cursor.Equal(updated))
}

func TestSyncBatchKeepsKycStatus(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(GetUserChangesResponse{Users: []ProfileChange{
			{ExternalID: "u-1", Username: "renamed", Currency: "USD", UpdatedAt: time.Now().UTC()},
		}})
	}))
	defer srv.Close()

	u := &models.User{ExternalUserID: "u-1", Username: "alpha", Currency: models.CurrencyUSD}
	require.NoError(t, st.CreateUser(ctx, u))
	approved := models.KycApproved
	_, err := st.UpdateUser(ctx, u.ID, models.UserUpdate{KycStatus: &approved})
	require.NoError(t, err)

	_, err = NewUserSyncWorker(st, srv.URL, "/profiles", "tok", 0).SyncBatch(ctx, time.Time{})
	require.NoError(t, err)

	got, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Username)
	assert.Equal(t, models.KycApproved, got.KycStatus)
}

func TestSyncBatchServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewUserSyncWorker(store.NewMemoryStore(), srv.URL, "/profiles", "tok", 0).SyncBatch(context.Background(), time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

type stubGateway struct {
	mu       sync.Mutex
	n        int
	statuses map[string]models.TransactionStatus
	err      error
}

func (g *stubGateway) ref(prefix string) *services.GatewayResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return &services.GatewayResult{Reference: fmt.Sprintf("%s_%d", prefix, g.n), Status: "accepted"}
}

func (g *stubGateway) ProcessPayment(ctx context.Context, req services.PaymentRequest) (*services.GatewayResult, error) {
	return g.ref("pay"), nil
}

func (g *stubGateway) Payout(ctx context.Context, req services.PayoutRequest) (*services.GatewayResult, error) {
	return g.ref("po"), nil
}

func (g *stubGateway) PayoutStatus(ctx context.Context, reference string) (models.TransactionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	if s, ok := g.statuses[reference]; ok {
		return s, nil
	}
	return models.TransactionPending, nil
}

func withdrawal(t *testing.T, wallet *services.WalletService, userID uint, amount int64) *models.WalletTransaction {
	t.Helper()
	tx, err := wallet.Withdraw(context.Background(), userID, models.WithdrawalRequest{
		Amount: amount, Method: "bank_transfer", AccountName: "A Player", AccountNumber: "0001",
	})
	require.NoError(t, err)
	return tx
}

func TestSettleOnce(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	gw := &stubGateway{statuses: map[string]models.TransactionStatus{}}
	wallet := services.NewWalletService(st, gw, time.Second)

	u := &models.User{ExternalUserID: "u-1", Username: "alpha", Currency: models.CurrencyUSD}
	require.NoError(t, st.CreateUser(ctx, u))
	_, err := wallet.Deposit(ctx, u.ID, 100, "card")
	require.NoError(t, err)

	paid := withdrawal(t, wallet, u.ID, 30)
	bounced := withdrawal(t, wallet, u.ID, 20)
	waiting := withdrawal(t, wallet, u.ID, 10)

	gw.statuses[paid.Details.GatewayReference] = models.TransactionCompleted
	gw.statuses[bounced.Details.GatewayReference] = models.TransactionFailed

	worker := NewSettlementWorker(st, gw, wallet, time.Minute, time.Second)
	settled, err := worker.SettleOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, settled)

	pending, err := st.PendingWithdrawals(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, waiting.ID, pending[0].ID)

	// 100 - 30 (paid) - 10 (still held); the failed payout is released.
	balance, err := wallet.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(60), balance)

	settled, err = worker.SettleOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, settled)
}

func TestSettleOnceGatewayDown(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	gw := &stubGateway{}
	wallet := services.NewWalletService(st, gw, time.Second)

	u := &models.User{ExternalUserID: "u-1", Username: "alpha", Currency: models.CurrencyUSD}
	require.NoError(t, st.CreateUser(ctx, u))
	_, err := wallet.Deposit(ctx, u.ID, 50, "card")
	require.NoError(t, err)
	withdrawal(t, wallet, u.ID, 50)

	gw.err = errors.New("connection refused")
	settled, err := NewSettlementWorker(st, gw, wallet, 0, 0).SettleOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, settled)

	pending, err := st.PendingWithdrawals(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
