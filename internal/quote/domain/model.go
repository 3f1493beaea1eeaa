package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusNew      Status = "new"
	StatusAnswered Status = "answered"
	StatusArchived Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusAnswered, StatusArchived:
		return true
	}
	return false
}

// QuoteRequest is a prospect asking for wholesale or event pricing.
type QuoteRequest struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	Name            string       `gorm:"type:text;not null" json:"name"`
	Email           string       `gorm:"type:text;not null" json:"email"`
	Phone           string       `gorm:"type:text" json:"phone,omitempty"`
	Company         string       `gorm:"type:text" json:"company,omitempty"`
	ProductInterest string       `gorm:"type:text" json:"product_interest,omitempty"`
	Quantity        string       `gorm:"type:text" json:"quantity,omitempty"`
	Message         string       `gorm:"type:text" json:"message,omitempty"`
	Status          Status       `gorm:"type:text;not null;default:'new'" json:"status"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (QuoteRequest) TableName() string { return "quote_requests" }
