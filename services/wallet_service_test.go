package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tournament-wallet-service/apperrors"
	"tournament-wallet-service/models"
	"tournament-wallet-service/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWallet(t *testing.T) (*WalletService, *store.MemoryStore, *fakeGateway) {
	t.Helper()
	st := store.NewMemoryStore()
	gw := &fakeGateway{statuses: map[string]models.TransactionStatus{}}
	return NewWalletService(st, gw, time.Second), st, gw
}

func withdrawal(amount int64) models.WithdrawalRequest {
	return models.WithdrawalRequest{Amount: amount, Method: "bank_transfer", AccountName: "Ada", AccountNumber: "0123456789", BankCode: "058"}
}

func TestDepositIncreasesBalance(t *testing.T) {
	ctx := context.Background()
	w, st, _ := newWallet(t)
	u := newUser(t, st, models.CurrencyUSD, "United States")

	tx, err := w.Deposit(ctx, u.ID, 100, "card")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionCompleted, tx.Status)
	assert.Equal(t, models.CurrencyUSD, tx.Currency)
	assert.NotEmpty(t, tx.Details.GatewayReference)

	balance, err := w.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 100, balance)

	history, err := w.History(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestDepositValidation(t *testing.T) {
	ctx := context.Background()
	w, st, gw := newWallet(t)
	u := newUser(t, st, models.CurrencyUSD, "")

	_, err := w.Deposit(ctx, u.ID, 0, "card")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	_, err = w.Deposit(ctx, u.ID, 10, " ")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	_, err = w.Deposit(ctx, 999, 10, "card")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	assert.Zero(t, gw.calls)
}

func TestDepositGatewayFailureLeavesLedgerUntouched(t *testing.T) {
	ctx := context.Background()
	w, st, gw := newWallet(t)
	u := newUser(t, st, models.CurrencyINR, "India")
	gw.err = errors.New("connection reset")

	_, err := w.Deposit(ctx, u.ID, 100, "upi")
	assert.True(t, apperrors.Is(err, apperrors.KindExternalService))

	history, _ := w.History(ctx, u.ID)
	assert.Empty(t, history)
}

func TestDepositGatewayTimeout(t *testing.T) {
	ctx := context.Background()
	w, st, gw := newWallet(t)
	w.GatewayTimeout = 20 * time.Millisecond
	u := newUser(t, st, models.CurrencyUSD, "")
	gw.delay = time.Second

	_, err := w.Deposit(ctx, u.ID, 100, "card")
	assert.True(t, apperrors.Is(err, apperrors.KindExternalService))

	balance, _ := w.Balance(ctx, u.ID)
	assert.Zero(t, balance)
}

func TestDepositDeclined(t *testing.T) {
	ctx := context.Background()
	w, st, gw := newWallet(t)
	u := newUser(t, st, models.CurrencyUSD, "")
	gw.declined = true

	_, err := w.Deposit(ctx, u.ID, 100, "card")
	assert.True(t, apperrors.Is(err, apperrors.KindExternalService))
	history, _ := w.History(ctx, u.ID)
	assert.Empty(t, history)
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	w, st, gw := newWallet(t)
	u := newUser(t, st, models.CurrencyUSD, "")

	_, err := w.Deposit(ctx, u.ID, 30, "card")
	require.NoError(t, err)
	callsBefore := gw.calls

	_, err = w.Withdraw(ctx, u.ID, withdrawal(50))
	assert.True(t, apperrors.Is(err, apperrors.KindInsufficientFunds))
	assert.Equal(t, callsBefore, gw.calls)

	balance, _ := w.Balance(ctx, u.ID)
	assert.EqualValues(t, 30, balance)
	history, _ := w.History(ctx, u.ID)
	assert.Len(t, history, 1)
}

func TestWithdrawHoldsFunds(t *testing.T) {
	ctx := context.Background()
	w, st, _ := newWallet(t)
	u := newUser(t, st, models.CurrencyNGN, "Nigeria")

	_, err := w.Deposit(ctx, u.ID, 100, "card")
	require.NoError(t, err)

	tx, err := w.Withdraw(ctx, u.ID, withdrawal(60))
	require.NoError(t, err)
	assert.Equal(t, models.TransactionPending, tx.Status)
	assert.Equal(t, "0123456789", tx.Details.AccountNumber)

	balance, _ := w.Balance(ctx, u.ID)
	assert.EqualValues(t, 40, balance)

	_, err = w.Withdraw(ctx, u.ID, withdrawal(41))
	assert.True(t, apperrors.Is(err, apperrors.KindInsufficientFunds))
}

func TestWithdrawValidation(t *testing.T) {
	ctx := context.Background()
	w, st, _ := newWallet(t)
	u := newUser(t, st, models.CurrencyUSD, "")

	_, err := w.Withdraw(ctx, u.ID, withdrawal(0))
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	req := withdrawal(10)
	req.AccountNumber = ""
	_, err = w.Withdraw(ctx, u.ID, req)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	w, st, _ := newWallet(t)
	u := newUser(t, st, models.CurrencyUSD, "")
	_, err := w.Deposit(ctx, u.ID, 100, "card")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Withdraw(ctx, u.ID, withdrawal(30))
		}()
	}
	wg.Wait()

	balance, _ := w.Balance(ctx, u.ID)
	assert.EqualValues(t, 10, balance)
}

func TestSettle(t *testing.T) {
	ctx := context.Background()
	w, st, _ := newWallet(t)
	u := newUser(t, st, models.CurrencyUSD, "")
	_, err := w.Deposit(ctx, u.ID, 100, "card")
	require.NoError(t, err)

	paid, err := w.Withdraw(ctx, u.ID, withdrawal(30))
	require.NoError(t, err)
	bounced, err := w.Withdraw(ctx, u.ID, withdrawal(20))
	require.NoError(t, err)

	_, err = w.Settle(ctx, paid.ID, models.TransactionCompleted)
	require.NoError(t, err)
	_, err = w.Settle(ctx, bounced.ID, models.TransactionFailed)
	require.NoError(t, err)

	balance, _ := w.Balance(ctx, u.ID)
	assert.EqualValues(t, 70, balance)

	_, err = w.Settle(ctx, paid.ID, models.TransactionFailed)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = w.Settle(ctx, paid.ID, models.TransactionPending)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	summary, err := w.Summary(ctx, u.ID, "")
	require.NoError(t, err)
	assert.Zero(t, summary.PendingWithdrawals)
	assert.Equal(t, 5, summary.TransactionCount)

	// the original withdrawal line is never rewritten
	original, err := st.GetTransaction(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionPending, original.Status)
}

func TestSummaryDisplayCurrency(t *testing.T) {
	ctx := context.Background()
	w, st, _ := newWallet(t)
	u := newUser(t, st, models.CurrencyINR, "India")
	_, err := w.Deposit(ctx, u.ID, 750, "upi")
	require.NoError(t, err)
	_, err = w.Withdraw(ctx, u.ID, withdrawal(150))
	require.NoError(t, err)

	summary, err := w.Summary(ctx, u.ID, models.CurrencyUSD)
	require.NoError(t, err)
	assert.EqualValues(t, 600, summary.Balance)
	assert.EqualValues(t, 150, summary.PendingWithdrawals)
	require.NotNil(t, summary.DisplayBalance)
	assert.EqualValues(t, 8, *summary.DisplayBalance)

	_, err = w.Summary(ctx, u.ID, "EUR")
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidCurrency))
}

func TestBalanceOf(t *testing.T) {
	one := uint(2)
	history := []models.WalletTransaction{
		{ID: 1, Type: models.TransactionDeposit, Amount: 100, Status: models.TransactionCompleted},
		{ID: 2, Type: models.TransactionWithdrawal, Amount: 40, Status: models.TransactionPending},
		{ID: 3, Type: models.TransactionDeposit, Amount: 500, Status: models.TransactionPending},
		{ID: 4, Type: models.TransactionWithdrawal, Amount: 10, Status: models.TransactionFailed},
		{ID: 5, Type: models.TransactionWithdrawal, Amount: 40, Status: models.TransactionFailed, SettlesID: &one},
	}
	assert.EqualValues(t, 100, BalanceOf(history, models.CurrencyUSD))
	assert.EqualValues(t, 60, BalanceOf(history[:2], models.CurrencyUSD))
}

func TestBalanceOfMixedCurrencies(t *testing.T) {
	history := []models.WalletTransaction{
		{ID: 1, Type: models.TransactionDeposit, Amount: 100, Currency: models.CurrencyUSD, Status: models.TransactionCompleted},
		{ID: 2, Type: models.TransactionDeposit, Amount: 190, Currency: models.CurrencyNGN, Status: models.TransactionCompleted},
		{ID: 3, Type: models.TransactionWithdrawal, Amount: 750, Currency: models.CurrencyINR, Status: models.TransactionPending},
	}
	// 100 + 0.5 - 10, floored
	assert.EqualValues(t, 90, BalanceOf(history, models.CurrencyUSD))
	// 38000 + 190 - 3800
	assert.EqualValues(t, 34390, BalanceOf(history, models.CurrencyNGN))
	assert.EqualValues(t, 10, pendingOf(history, models.CurrencyUSD))
}

func TestCurrencySwitchConvertsExistingLedger(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	w := NewWalletService(st, &fakeGateway{}, time.Second)
	u := newUser(t, st, models.CurrencyUSD, "Nigeria")

	_, err := w.Deposit(ctx, u.ID, 100, "card")
	require.NoError(t, err)

	ngn := models.CurrencyNGN
	_, err = st.UpdateUser(ctx, u.ID, models.UserUpdate{Currency: &ngn})
	require.NoError(t, err)

	summary, err := w.Summary(ctx, u.ID, models.CurrencyUSD)
	require.NoError(t, err)
	assert.Equal(t, models.CurrencyNGN, summary.Currency)
	assert.EqualValues(t, 38000, summary.Balance)
	require.NotNil(t, summary.DisplayBalance)
	assert.EqualValues(t, 100, *summary.DisplayBalance)

	_, err = w.Withdraw(ctx, u.ID, models.WithdrawalRequest{Amount: 38001, Method: "bank_transfer", AccountName: "Ada", AccountNumber: "0001"})
	assert.True(t, apperrors.Is(err, apperrors.KindInsufficientFunds))

	tx, err := w.Withdraw(ctx, u.ID, models.WithdrawalRequest{Amount: 3800, Method: "bank_transfer", AccountName: "Ada", AccountNumber: "0001"})
	require.NoError(t, err)
	assert.Equal(t, models.CurrencyNGN, tx.Currency)

	balance, err := w.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 34200, balance)
}

func TestCurrencySwitchCannotOverdraw(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	w := NewWalletService(st, &fakeGateway{}, time.Second)
	u := newUser(t, st, models.CurrencyNGN, "Nigeria")

	_, err := w.Deposit(ctx, u.ID, 100, "card")
	require.NoError(t, err)

	usd := models.CurrencyUSD
	_, err = st.UpdateUser(ctx, u.ID, models.UserUpdate{Currency: &usd})
	require.NoError(t, err)

	balance, err := w.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, balance) // 0.26 USD

	for _, amount := range []int64{100, 1} {
		_, err = w.Withdraw(ctx, u.ID, models.WithdrawalRequest{Amount: amount, Method: "bank_transfer", AccountName: "Ada", AccountNumber: "0001"})
		assert.True(t, apperrors.Is(err, apperrors.KindInsufficientFunds), "amount %d", amount)
	}

	history, err := w.History(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
