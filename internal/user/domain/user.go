package domain

import "time"

type ID string

type User struct {
	ID           ID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
	IsVerified   bool
	CreatedAt    time.Time
}
