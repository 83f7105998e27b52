package domain

import "time"

// User represents a registered user. Balance is mutated only through
// the ledger; it is denormalized here for read endpoints.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Balance   int64     `json:"balance"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}
