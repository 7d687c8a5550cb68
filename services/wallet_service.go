// services/wallet_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"tournament-wallet-service/apperrors"
	"tournament-wallet-service/metrics"
	"tournament-wallet-service/models"
	"tournament-wallet-service/store"
	"tournament-wallet-service/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// WalletStore is the slice of persistence the wallet needs.
type WalletStore interface {
	store.UserStore
	store.LedgerStore
}

type WalletService struct {
	Store          WalletStore
	Gateway        PaymentGateway
	GatewayTimeout time.Duration
	Converter      *CurrencyConverter

	locks *keyedMutex
	log   *logrus.Entry
}

func NewWalletService(st WalletStore, gw PaymentGateway, gatewayTimeout time.Duration) *WalletService {
	return &WalletService{
		Store:          st,
		Gateway:        gw,
		GatewayTimeout: gatewayTimeout,
		Converter:      NewCurrencyConverter(),
		locks:          newKeyedMutex(),
		log:            utils.Component("wallet"),
	}
}

var ledgerConverter = NewCurrencyConverter()

// lineAmount is t.Amount expressed in currency, unrounded. Lines written before the user changed
// currency keep their original denomination and are converted on read.
func lineAmount(t models.WalletTransaction, currency models.Currency) decimal.Decimal {
	amount := decimal.NewFromInt(t.Amount)
	if t.Currency == "" || t.Currency == currency {
		return amount
	}
	converted, err := ledgerConverter.convertRaw(amount, t.Currency, currency)
	if err != nil {
		return amount
	}
	return converted
}

// BalanceOf derives a balance in currency from a user's ledger.
// Completed deposits add; withdrawals subtract while pending or completed and stop counting
// once they fail or a failed settlement row releases them. Settlement rows never count themselves.
// Lines in other currencies are converted and the total is floored, so it is never overstated.
func BalanceOf(history []models.WalletTransaction, currency models.Currency) int64 {
	released := map[uint]bool{}
	for _, t := range history {
		if t.IsSettlement() && t.Status == models.TransactionFailed {
			released[*t.SettlesID] = true
		}
	}

	balance := decimal.Zero
	for _, t := range history {
		if t.IsSettlement() {
			continue
		}
		switch t.Type {
		case models.TransactionDeposit:
			if t.Status == models.TransactionCompleted {
				balance = balance.Add(lineAmount(t, currency))
			}
		case models.TransactionWithdrawal:
			if t.Status != models.TransactionFailed && !released[t.ID] {
				balance = balance.Sub(lineAmount(t, currency))
			}
		}
	}
	return balance.Floor().IntPart()
}

// pendingOf sums withdrawals still waiting on settlement, in currency.
func pendingOf(history []models.WalletTransaction, currency models.Currency) int64 {
	settled := map[uint]bool{}
	for _, t := range history {
		if t.IsSettlement() {
			settled[*t.SettlesID] = true
		}
	}
	pending := decimal.Zero
	for _, t := range history {
		if t.Type == models.TransactionWithdrawal && t.Status == models.TransactionPending &&
			!t.IsSettlement() && !settled[t.ID] {
			pending = pending.Add(lineAmount(t, currency))
		}
	}
	return pending.Ceil().IntPart()
}

// requireFunds vetoes an append of amount (in currency) that would take the balance below zero.
func requireFunds(amount int64, currency models.Currency) store.HistoryCheck {
	return func(history []models.WalletTransaction) error {
		if balance := BalanceOf(history, currency); amount > balance {
			return apperrors.New(apperrors.KindInsufficientFunds, "insufficient funds: balance %d %s, requested %d", balance, currency, amount)
		}
		return nil
	}
}

func (s *WalletService) gatewayContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.GatewayTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.GatewayTimeout)
}

func gatewayError(call string, err error) error {
	metrics.RecordGatewayFailure(call)
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.KindExternalService, err, "payment gateway %s timed out", call)
	}
	if apperrors.Is(err, apperrors.KindExternalService) {
		return err
	}
	return apperrors.Wrap(apperrors.KindExternalService, err, "payment gateway %s failed", call)
}

// Deposit charges the user through the gateway and records a completed deposit.
func (s *WalletService) Deposit(ctx context.Context, userID uint, amount int64, method string) (tx *models.WalletTransaction, err error) {
	defer func() { metrics.RecordWalletOperation("deposit", err) }()

	method = strings.TrimSpace(method)
	if amount <= 0 {
		return nil, apperrors.Validation("deposit amount must be positive")
	}
	if method == "" {
		return nil, apperrors.Validation("payment method is required")
	}

	user, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	gctx, cancel := s.gatewayContext(ctx)
	res, err := s.Gateway.ProcessPayment(gctx, PaymentRequest{
		UserID:   userID,
		Amount:   amount,
		Currency: user.Currency,
		Method:   method,
	})
	cancel()
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("❌ deposit gateway call failed")
		return nil, gatewayError("payment", err)
	}
	if res.Declined() {
		metrics.RecordGatewayFailure("payment")
		return nil, apperrors.New(apperrors.KindExternalService, "payment %s declined by gateway", res.Reference)
	}

	tx = &models.WalletTransaction{
		UserID:   userID,
		Type:     models.TransactionDeposit,
		Amount:   amount,
		Currency: user.Currency,
		Status:   models.TransactionCompleted,
		Details: models.TransactionDetails{
			Method:           method,
			GatewayReference: res.Reference,
		},
	}
	if err := s.Store.AppendTransaction(ctx, tx); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "amount": amount, "tx_id": tx.ID}).Info("💰 deposit recorded")
	return tx, nil
}

// Withdraw requests a payout and records it as pending; the amount is held until settlement.
func (s *WalletService) Withdraw(ctx context.Context, userID uint, req models.WithdrawalRequest) (tx *models.WalletTransaction, err error) {
	defer func() { metrics.RecordWalletOperation("withdraw", err) }()

	if req.Amount <= 0 {
		return nil, apperrors.Validation("withdrawal amount must be positive")
	}
	if strings.TrimSpace(req.Method) == "" {
		return nil, apperrors.Validation("withdrawal method is required")
	}
	if strings.TrimSpace(req.AccountNumber) == "" || strings.TrimSpace(req.AccountName) == "" {
		return nil, apperrors.Validation("destination account name and number are required")
	}

	user, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	history, err := s.Store.Transactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := requireFunds(req.Amount, user.Currency)(history); err != nil {
		return nil, err
	}

	gctx, cancel := s.gatewayContext(ctx)
	res, err := s.Gateway.Payout(gctx, PayoutRequest{
		UserID:        userID,
		Amount:        req.Amount,
		Currency:      user.Currency,
		Method:        req.Method,
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		BankCode:      req.BankCode,
	})
	cancel()
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("❌ payout gateway call failed")
		return nil, gatewayError("payout", err)
	}
	if res.Declined() {
		metrics.RecordGatewayFailure("payout")
		return nil, apperrors.New(apperrors.KindExternalService, "payout %s declined by gateway", res.Reference)
	}

	tx = &models.WalletTransaction{
		UserID:   userID,
		Type:     models.TransactionWithdrawal,
		Amount:   req.Amount,
		Currency: user.Currency,
		Status:   models.TransactionPending,
		Details: models.TransactionDetails{
			Method:           req.Method,
			GatewayReference: res.Reference,
			AccountName:      req.AccountName,
			AccountNumber:    req.AccountNumber,
			BankCode:         req.BankCode,
		},
	}
	// Another instance may have spent the balance while the payout was in flight.
	if err := s.Store.AppendChecked(ctx, tx, requireFunds(req.Amount, user.Currency)); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"user_id":   userID,
			"reference": res.Reference,
		}).Error("🚨 payout issued but withdrawal not recorded")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "amount": req.Amount, "tx_id": tx.ID}).Info("🏦 withdrawal pending")
	return tx, nil
}

// History returns every ledger line for the user, oldest first.
func (s *WalletService) History(ctx context.Context, userID uint) ([]models.WalletTransaction, error) {
	if _, err := s.Store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	history, err := s.Store.Transactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []models.WalletTransaction{}
	}
	return history, nil
}

// Balance is the user's balance in their current wallet currency.
func (s *WalletService) Balance(ctx context.Context, userID uint) (int64, error) {
	user, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	history, err := s.Store.Transactions(ctx, userID)
	if err != nil {
		return 0, err
	}
	return BalanceOf(history, user.Currency), nil
}

type WalletSummary struct {
	Balance            int64           `json:"balance"`
	Currency           models.Currency `json:"currency"`
	PendingWithdrawals int64           `json:"pending_withdrawals"`
	TransactionCount   int             `json:"transaction_count"`
	DisplayBalance     *int64          `json:"display_balance,omitempty"`
	DisplayCurrency    models.Currency `json:"display_currency,omitempty"`
}

// Summary reports the balance in the user's currency and, optionally, converted for display.
func (s *WalletService) Summary(ctx context.Context, userID uint, display models.Currency) (*WalletSummary, error) {
	user, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, err := s.Store.Transactions(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &WalletSummary{
		Balance:            BalanceOf(history, user.Currency),
		Currency:           user.Currency,
		PendingWithdrawals: pendingOf(history, user.Currency),
		TransactionCount:   len(history),
	}
	if display != "" {
		converted, err := s.Converter.ConvertMinor(out.Balance, user.Currency, display)
		if err != nil {
			return nil, err
		}
		out.DisplayBalance = &converted
		out.DisplayCurrency = display
	}
	return out, nil
}

// Settle closes a pending withdrawal by appending a settlement row. A failed outcome releases the hold.
func (s *WalletService) Settle(ctx context.Context, withdrawalID uint, outcome models.TransactionStatus) (*models.WalletTransaction, error) {
	if outcome != models.TransactionCompleted && outcome != models.TransactionFailed {
		return nil, apperrors.Validation("settlement outcome must be completed or failed")
	}

	original, err := s.Store.GetTransaction(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if original.Type != models.TransactionWithdrawal || original.IsSettlement() || original.Status != models.TransactionPending {
		return nil, apperrors.Validation("transaction %d is not a pending withdrawal", withdrawalID)
	}

	unlock := s.locks.Lock(original.UserID)
	defer unlock()

	settlement := &models.WalletTransaction{
		UserID:    original.UserID,
		Type:      models.TransactionWithdrawal,
		Amount:    original.Amount,
		Currency:  original.Currency,
		Status:    outcome,
		SettlesID: &original.ID,
		Details: models.TransactionDetails{
			Method:           original.Details.Method,
			GatewayReference: original.Details.GatewayReference,
			Note:             "settlement",
		},
	}
	err = s.Store.AppendChecked(ctx, settlement, func(history []models.WalletTransaction) error {
		for _, t := range history {
			if t.SettlesID != nil && *t.SettlesID == withdrawalID {
				return apperrors.Validation("withdrawal %d already settled as %s", withdrawalID, t.Status)
			}
		}
		return nil
	})
	metrics.RecordWalletOperation("settle", err)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"withdrawal_id": withdrawalID, "outcome": outcome}).Info("🧾 withdrawal settled")
	return settlement, nil
}
