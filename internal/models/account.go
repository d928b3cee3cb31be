// Package models provides data models for the portfolio tracker.
package models

import (
	"time"
)

// Account represents a registered user
type Account struct {
	ID           int64     `json:"id" db:"account_id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
