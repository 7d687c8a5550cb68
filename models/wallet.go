// models/wallet.go
package models

import "time"

type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// WalletTransaction is one immutable ledger line.
// Rows are only ever inserted; settling a withdrawal appends a new row pointing at it via SettlesID.
type WalletTransaction struct {
	ID        uint               `gorm:"primaryKey" json:"id"`
	UserID    uint               `gorm:"index;not null" json:"user_id"`
	Type      TransactionType    `gorm:"type:varchar(16);not null" json:"type"`
	Amount    int64              `gorm:"not null;check:amount > 0" json:"amount"`
	Currency  Currency           `gorm:"type:varchar(3);not null" json:"currency"`
	Status    TransactionStatus  `gorm:"type:varchar(16);not null" json:"status"`
	Details   TransactionDetails `gorm:"embedded;embeddedPrefix:details_" json:"details"`
	SettlesID *uint              `gorm:"index" json:"settles_id,omitempty"`
	CreatedAt time.Time          `gorm:"autoCreateTime" json:"created_at"`
}

// TransactionDetails carries payment method and destination metadata.
type TransactionDetails struct {
	Method           string `json:"method"`                      // e.g., "card", "upi", "bank_transfer", "entry_fee"
	GatewayReference string `json:"gateway_reference,omitempty"` // payment/payout ID from the gateway
	AccountName      string `json:"account_name,omitempty"`
	AccountNumber    string `json:"account_number,omitempty"`
	BankCode         string `json:"bank_code,omitempty"`
	Note             string `json:"note,omitempty"`
}

// IsSettlement reports whether the row settles an earlier withdrawal.
func (t WalletTransaction) IsSettlement() bool {
	return t.SettlesID != nil
}

// WithdrawalRequest is the caller's payout instruction.
type WithdrawalRequest struct {
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	Method        string `json:"method" validate:"required"`
	AccountName   string `json:"account_name" validate:"required"`
	AccountNumber string `json:"account_number" validate:"required"`
	BankCode      string `json:"bank_code,omitempty"`
}
