package services

import (
	"context"
	"testing"
	"time"

	"tournament-wallet-service/models"
	"tournament-wallet-service/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserSearch(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	wallet := NewWalletService(st, &fakeGateway{}, time.Second)
	users := NewUserService(st)

	for _, u := range []*models.User{
		{ExternalUserID: "a", Username: "NightOwl", Email: "owl@example.com"},
		{ExternalUserID: "b", Username: "daybreak", Email: "sun@example.com"},
		{ExternalUserID: "c", Username: "owlet", Email: "c@example.com", Currency: models.CurrencyINR},
	} {
		require.NoError(t, st.CreateUser(ctx, u))
	}
	_, err := wallet.Deposit(ctx, 3, 250, "upi")
	require.NoError(t, err)

	found, err := users.Search(ctx, "OWL", 0)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "a", found[0].ExternalUserID)
	assert.Equal(t, "c", found[1].ExternalUserID)
	assert.Equal(t, models.CurrencyINR, found[1].Currency)
	assert.EqualValues(t, 250, found[1].WalletBalance)
	assert.Equal(t, models.KycNotSubmitted, found[1].KycStatus)

	all, err := users.Search(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := users.Search(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}
