package entity

import "time"

// CurrentUserID is the fixed id of the singleton user record.
const CurrentUserID = "current"

// GuestMaxLevel is the level ceiling granted to guest sessions.
const GuestMaxLevel = 3

// User represents the authenticated or guest identity on this device.
type User struct {
	ID                 string     `json:"id"`
	RemoteID           string     `json:"remote_id,omitempty"`
	Username           string     `json:"username"`
	Level              int        `json:"level"`
	MaxLevelGranted    int        `json:"max_level_granted"`
	SubscriptionActive bool       `json:"subscription_active"`
	SubscriptionType   string     `json:"subscription_type,omitempty"`
	Guest              bool       `json:"guest"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	DataUpdatedAt      *time.Time `json:"data_updated_at,omitempty"`
}

// NewGuestUser returns the record written when entering without an account.
func NewGuestUser() *User {
	return &User{
		ID:              CurrentUserID,
		Username:        "guest",
		Level:           1,
		MaxLevelGranted: GuestMaxLevel,
		Guest:           true,
	}
}
