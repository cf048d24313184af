package model

import "time"

// Customer is the minimal directory projection the core needs: wallet
// ownership and notification addressing. Full directory management
// lives elsewhere.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
