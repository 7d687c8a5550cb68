package models

import "time"

type MatchStatus string

const (
	MatchUpcoming  MatchStatus = "upcoming"
	MatchLive      MatchStatus = "live"
	MatchCompleted MatchStatus = "completed"
	MatchCancelled MatchStatus = "cancelled"
)

// MatchStatusFor mirrors a tournament status onto its matches.
func MatchStatusFor(s TournamentStatus) MatchStatus {
	switch s {
	case TournamentLive:
		return MatchLive
	case TournamentCompleted:
		return MatchCompleted
	case TournamentCancelled:
		return MatchCancelled
	default:
		return MatchUpcoming
	}
}

// Match is a user's seat in one tournament, created on registration.
// Result fields stay empty until the user submits; ResultApproved is set by an admin only.
type Match struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	UserID          uint        `gorm:"not null;uniqueIndex:idx_match_user_tournament" json:"user_id"`
	TournamentID    uint        `gorm:"not null;uniqueIndex:idx_match_user_tournament;index" json:"tournament_id"`
	TournamentName  string      `json:"tournament_name"`
	Status          MatchStatus `gorm:"type:varchar(16);not null;default:'upcoming'" json:"status"`
	Date            time.Time   `gorm:"not null" json:"date"`
	Position        *int        `json:"position,omitempty"`
	Kills           *int        `json:"kills,omitempty"`
	Result          string      `gorm:"type:varchar(16)" json:"result,omitempty"` // win, loss, draw
	Screenshot      string      `gorm:"type:text" json:"screenshot,omitempty"`
	ResultSubmitted bool        `gorm:"default:false" json:"result_submitted"`
	ResultApproved  bool        `gorm:"default:false" json:"result_approved"`
	Prize           int64       `gorm:"default:0" json:"prize"`
	SubmittedAt     *time.Time  `json:"submitted_at,omitempty"`
	CreatedAt       time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// ResultSubmission is what a player reports after a match.
type ResultSubmission struct {
	Position   int    `json:"position" validate:"required,gt=0"`
	Kills      int    `json:"kills" validate:"gte=0"`
	Result     string `json:"result" validate:"required,oneof=win loss draw"`
	Screenshot string `json:"screenshot" validate:"required_without=ScreenshotImage"`

	// ScreenshotImage is a raw upload; when set it is stored and replaces Screenshot.
	ScreenshotImage []byte `json:"-"`
}
