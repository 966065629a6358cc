package models

import "time"

// User owns accounts. Authorization everywhere is scoped by the
// User -> Account -> Transaction ownership chain.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
