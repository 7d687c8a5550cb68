package models

import "time"

// KycStatus is the aggregate verification state of a user.
type KycStatus string

const (
	KycNotSubmitted KycStatus = "not_submitted"
	KycPending      KycStatus = "pending"
	KycApproved     KycStatus = "approved"
	KycRejected     KycStatus = "rejected"
)

// User is the local copy of a profile-service account.
// Populated by the user sync worker; wallet and KYC services only reference it by ID.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ExternalUserID string    `gorm:"uniqueIndex;not null" json:"external_user_id"` // profile service UUID
	Username       string    `gorm:"index;not null" json:"username"`
	Email          string    `json:"email,omitempty"`
	Currency       Currency  `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	KycStatus      KycStatus `gorm:"type:varchar(16);not null;default:'not_submitted'" json:"kyc_status"`
	Country        string    `json:"country"`
	GameMode       string    `json:"game_mode,omitempty"`

	// ProfileSyncedAt is the profile service's updated_at for the last mirrored change.
	ProfileSyncedAt *time.Time `gorm:"index" json:"-"`

	// Derived from the ledger on read, never stored.
	WalletBalance int64 `gorm:"-" json:"wallet_balance"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// UserUpdate is a partial update; nil fields are left untouched.
type UserUpdate struct {
	Username  *string
	Email     *string
	Currency  *Currency
	KycStatus *KycStatus
	Country   *string
	GameMode  *string
}

// Apply copies the set fields onto u.
func (p UserUpdate) Apply(u *User) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Currency != nil {
		u.Currency = *p.Currency
	}
	if p.KycStatus != nil {
		u.KycStatus = *p.KycStatus
	}
	if p.Country != nil {
		u.Country = *p.Country
	}
	if p.GameMode != nil {
		u.GameMode = *p.GameMode
	}
}

// Columns returns the update as a gorm column map.
func (p UserUpdate) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if p.Username != nil {
		cols["username"] = *p.Username
	}
	if p.Email != nil {
		cols["email"] = *p.Email
	}
	if p.Currency != nil {
		cols["currency"] = *p.Currency
	}
	if p.KycStatus != nil {
		cols["kyc_status"] = *p.KycStatus
	}
	if p.Country != nil {
		cols["country"] = *p.Country
	}
	if p.GameMode != nil {
		cols["game_mode"] = *p.GameMode
	}
	return cols
}
