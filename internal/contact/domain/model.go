package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Message struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Email     string       `gorm:"type:text;not null" json:"email"`
	Phone     string       `gorm:"type:text" json:"phone,omitempty"`
	Subject   string       `gorm:"type:text" json:"subject,omitempty"`
	Message   string       `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Message) TableName() string { return "contact_messages" }
