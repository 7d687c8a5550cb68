package models

import "time"

type DocumentType string

const (
	DocAadhaarCard           DocumentType = "Aadhaar Card"
	DocPANCard               DocumentType = "PAN Card"
	DocDrivingLicense        DocumentType = "Driving License"
	DocNINSlip               DocumentType = "NIN Slip"
	DocVotersCard            DocumentType = "Voter's Card"
	DocInternationalPassport DocumentType = "International Passport"
	DocPassport              DocumentType = "Passport"
	DocDriversLicense        DocumentType = "Driver's License"
	DocStateID               DocumentType = "State ID"
	DocNationalID            DocumentType = "National ID"
)

type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentApproved DocumentStatus = "approved"
	DocumentRejected DocumentStatus = "rejected"
)

// KycDocument is one identity document submission. Users may hold several.
type KycDocument struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UserID          uint           `gorm:"index;not null" json:"user_id"`
	Type            DocumentType   `gorm:"not null" json:"type"`
	DocumentNumber  string         `gorm:"not null" json:"document_number"`
	FrontImageURL   string         `gorm:"type:text" json:"front_image_url,omitempty"`
	BackImageURL    string         `gorm:"type:text" json:"back_image_url,omitempty"`
	Status          DocumentStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	RejectionReason string         `json:"rejection_reason,omitempty"` // only when rejected
	ReviewedBy      string         `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time     `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// KycSubmission is what a user sends to open a new document.
type KycSubmission struct {
	Type           DocumentType `json:"type" validate:"required"`
	DocumentNumber string       `json:"document_number" validate:"required"`
	FrontImageURL  string       `json:"front_image_url,omitempty"`
	BackImageURL   string       `json:"back_image_url,omitempty"`

	// Raw images, pushed to object storage when configured.
	FrontImage []byte `json:"front_image,omitempty"`
	BackImage  []byte `json:"back_image,omitempty"`
}

type ReviewDecision string

const (
	ReviewApprove ReviewDecision = "approve"
	ReviewReject  ReviewDecision = "reject"
)
