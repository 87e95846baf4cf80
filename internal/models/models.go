package models

import (
	"fmt"
	"time"
)

// Role ranks: lower value = more privilege.
const (
	RoleAdmin      = 0
	RoleSpecialist = 2
	RoleRegular    = 3
)

type User struct {
	TelegramID int64  `json:"telegram_id"`
	Name       string `json:"name"`
	Language   string `json:"language"`
	Role       int    `json:"role"`
}

func (u *User) IsSpecialist() bool { return u.Role <= RoleSpecialist }
func (u *User) IsAdmin() bool      { return u.Role <= RoleAdmin }

// Specialist is a working-hours profile owned 1:1 by a User.
// Start, End and Interval are minutes; Start/End count from midnight.
type Specialist struct {
	ID           int64    `json:"id"` // same as the owning user's telegram id
	DisplayName  string   `json:"display_name"`
	Work         bool     `json:"work"`
	MeanFeedback *float64 `json:"mean_feedback"` // nil until first rating
	Start        int      `json:"start"`
	End          int      `json:"end"`
	Interval     int      `json:"interval"`
}

// Booking is a committed appointment. Feedback 0 means "awaiting a rating",
// 1..5 is the rating; Pending mirrors the marker row and is the only thing
// distinguishing an upcoming booking from a completed one.
type Booking struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"user_id"`
	SpecID   int64     `json:"spec_id"`
	At       time.Time `json:"at"`
	Feedback int       `json:"feedback"`
	Pending  bool      `json:"pending"`
}

// ClockString formats minutes-since-midnight as HH:mm.
func ClockString(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ClockOf returns t's time of day in minutes since midnight.
func ClockOf(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
