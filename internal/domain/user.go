package domain

import "time"

// User is a directory entry for someone who completed a federated login.
type User struct {
	Email        string
	DisplayName  string
	Provider     string
	FirstLoginAt time.Time
	LastLoginAt  time.Time
	LoginCount   int64
}

// UserLogin records a single successful login.
type UserLogin struct {
	Email       string
	DisplayName string
	Provider    string
	At          time.Time
}
