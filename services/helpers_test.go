package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tournament-wallet-service/models"
	"tournament-wallet-service/store"

	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu       sync.Mutex
	err      error
	delay    time.Duration
	declined bool
	statuses map[string]models.TransactionStatus
	calls    int
}

func (g *fakeGateway) result(ctx context.Context, prefix string) (*GatewayResult, error) {
	g.mu.Lock()
	g.calls++
	n, err, delay, declined := g.calls, g.err, g.delay, g.declined
	g.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	status := "completed"
	if declined {
		status = "declined"
	}
	return &GatewayResult{Reference: fmt.Sprintf("%s_%d", prefix, n), Status: status}, nil
}

func (g *fakeGateway) ProcessPayment(ctx context.Context, req PaymentRequest) (*GatewayResult, error) {
	return g.result(ctx, "pay")
}

func (g *fakeGateway) Payout(ctx context.Context, req PayoutRequest) (*GatewayResult, error) {
	return g.result(ctx, "po")
}

func (g *fakeGateway) PayoutStatus(ctx context.Context, reference string) (models.TransactionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	if st, ok := g.statuses[reference]; ok {
		return st, nil
	}
	return models.TransactionPending, nil
}

var userSeq atomic.Int64

func newUser(t *testing.T, st store.UserStore, currency models.Currency, country string) *models.User {
	t.Helper()
	u := &models.User{
		ExternalUserID: fmt.Sprintf("ext-%d", userSeq.Add(1)),
		Username:       "player",
		Currency:       currency,
		Country:        country,
	}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}
