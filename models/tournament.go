package models

import "time"

type TournamentStatus string

const (
	TournamentUpcoming  TournamentStatus = "upcoming"
	TournamentLive      TournamentStatus = "live"
	TournamentCompleted TournamentStatus = "completed"
	TournamentCancelled TournamentStatus = "cancelled"
)

// Tournament is a capacity-bounded event. RegisteredPlayers never exceeds MaxPlayers.
type Tournament struct {
	ID                uint             `json:"id" gorm:"primaryKey"`
	Slug              string           `json:"slug" gorm:"uniqueIndex;not null"`
	Name              string           `json:"name" gorm:"not null"`
	Game              string           `json:"game"`
	GameMode          string           `json:"game_mode"` // solo, duo, squad
	Map               string           `json:"map,omitempty"`
	MaxPlayers        int              `json:"max_players" gorm:"not null;check:max_players > 0"`
	RegisteredPlayers int              `json:"registered_players" gorm:"not null;default:0;check:registered_players >= 0 AND registered_players <= max_players"`
	Status            TournamentStatus `json:"status" gorm:"type:varchar(16);not null;default:'upcoming';index"`
	EntryFee          int64            `json:"entry_fee" gorm:"default:0"` // USD
	PrizePool         int64            `json:"prize_pool" gorm:"default:0"`
	PerKill           int64            `json:"per_kill" gorm:"default:0"`
	StartTime         time.Time        `json:"start_time" gorm:"not null;index"`
	EndTime           *time.Time       `json:"end_time,omitempty"`
	CreatedAt         time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

// AvailableSlots is the remaining capacity.
func (t Tournament) AvailableSlots() int {
	return t.MaxPlayers - t.RegisteredPlayers
}

// IsFull reports whether no slot is left.
func (t Tournament) IsFull() bool {
	return t.RegisteredPlayers >= t.MaxPlayers
}

// NewTournament is the admin's creation request.
type NewTournament struct {
	Name       string     `json:"name" validate:"required"`
	Game       string     `json:"game" validate:"required"`
	GameMode   string     `json:"game_mode" validate:"omitempty,oneof=solo duo squad"`
	Map        string     `json:"map,omitempty"`
	MaxPlayers int        `json:"max_players" validate:"required,gt=0"`
	EntryFee   int64      `json:"entry_fee" validate:"gte=0"`
	PrizePool  int64      `json:"prize_pool" validate:"gte=0"`
	PerKill    int64      `json:"per_kill" validate:"gte=0"`
	StartTime  time.Time  `json:"start_time" validate:"required"`
	EndTime    *time.Time `json:"end_time,omitempty"`
}
