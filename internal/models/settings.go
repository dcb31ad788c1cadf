package models

import "time"

// Settings is the singleton booth configuration row
type Settings struct {
	ID               int64     `json:"id" db:"id"`
	IsPaused         bool      `json:"is_paused" db:"is_paused"`
	MaxPrintRequests int       `json:"max_print_requests" db:"max_print_requests"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// SettingsView is Settings plus the live print request count
type SettingsView struct {
	Settings
	CurrentCount int `json:"current_count"`
}

// BoothStatus is the public summary of whether the booth accepts requests
type BoothStatus struct {
	IsPaused         bool `json:"is_paused"`
	MaxPrintRequests int  `json:"max_print_requests"`
	CurrentCount     int  `json:"current_count"`
	Available        bool `json:"available"`
}
