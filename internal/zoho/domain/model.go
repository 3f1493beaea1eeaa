package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
)

// RefreshWindow is how long before expiry a token is already treated as
// expiring.
const RefreshWindow = 5 * time.Minute

type State int

const (
	StateValid State = iota
	StateExpiring
)

func (s State) String() string {
	if s == StateExpiring {
		return "expiring"
	}
	return "valid"
}

// Token is the OAuth grant of one admin user. It is rewritten in place on
// consent and on every refresh.
type Token struct {
	ID           snowflake.ID   `gorm:"primaryKey"`
	UserID       snowflake.ID   `gorm:"not null;uniqueIndex"`
	AccessToken  string         `gorm:"type:text;not null"`
	RefreshToken string         `gorm:"type:text;not null"`
	ExpiresAt    time.Time      `gorm:"not null"`
	Scopes       pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	CreatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Token) TableName() string { return "zoho_tokens" }

// StateAt reports expiring iff now + RefreshWindow >= ExpiresAt.
func (t Token) StateAt(now time.Time) State {
	if !now.Add(RefreshWindow).Before(t.ExpiresAt) {
		return StateExpiring
	}
	return StateValid
}
