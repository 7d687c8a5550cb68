// workers/settlement_worker.go
package workers

import (
	"context"
	"time"

	"tournament-wallet-service/metrics"
	"tournament-wallet-service/models"
	"tournament-wallet-service/services"
	"tournament-wallet-service/store"
	"tournament-wallet-service/utils"

	"github.com/sirupsen/logrus"
)

// SettlementWorker polls the gateway for the outcome of pending payouts and settles them in the ledger.
type SettlementWorker struct {
	ledger   store.LedgerStore
	gateway  services.PaymentGateway
	wallet   *services.WalletService
	interval time.Duration
	timeout  time.Duration
	log      *logrus.Entry
}

func NewSettlementWorker(ledger store.LedgerStore, gateway services.PaymentGateway, wallet *services.WalletService, interval, timeout time.Duration) *SettlementWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &SettlementWorker{
		ledger:   ledger,
		gateway:  gateway,
		wallet:   wallet,
		interval: interval,
		timeout:  timeout,
		log:      utils.Component("settlement"),
	}
}

// PollSettlements runs until ctx is done.
func (w *SettlementWorker) PollSettlements(ctx context.Context) {
	w.log.Infof("Starting payout settlement polling every %s", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Settlement polling stopped.")
			return
		case <-ticker.C:
			settled, err := w.SettleOnce(ctx)
			metrics.RecordJobRun("settlement", err == nil)
			if err != nil {
				w.log.WithError(err).Error("❌ Error polling payouts")
				continue
			}
			if settled > 0 {
				w.log.Infof("✅ Settled %d withdrawal(s)", settled)
			}
		}
	}
}

// SettleOnce checks every pending withdrawal once and returns how many were settled.
func (w *SettlementWorker) SettleOnce(ctx context.Context) (int, error) {
	pending, err := w.ledger.PendingWithdrawals(ctx)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, tx := range pending {
		ref := tx.Details.GatewayReference
		if ref == "" {
			continue
		}

		status, err := w.payoutStatus(ctx, ref)
		if err != nil {
			w.log.WithError(err).WithField("reference", ref).Warn("⚠️ payout status unavailable")
			continue
		}
		if status == models.TransactionPending {
			continue
		}

		if _, err := w.wallet.Settle(ctx, tx.ID, status); err != nil {
			w.log.WithError(err).WithField("tx_id", tx.ID).Warn("⚠️ failed to settle withdrawal")
			continue
		}
		settled++
	}
	return settled, nil
}

func (w *SettlementWorker) payoutStatus(ctx context.Context, ref string) (models.TransactionStatus, error) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	return w.gateway.PayoutStatus(ctx, ref)
}
