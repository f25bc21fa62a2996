// Package types contains common types used across the application.
package types

import "time"

// SessionType classifies one timed unit of a race weekend.
type SessionType string

// Known session types.
const (
	SessionPractice   SessionType = "Practice"
	SessionQualifying SessionType = "Qualifying"
	SessionSprint     SessionType = "Sprint"
	SessionRace       SessionType = "Race"
)

// IsRace reports whether predictions for this session use the race form
// (five picks plus incident extras) rather than the three-pick session form.
func (t SessionType) IsRace() bool { return t == SessionRace }

// Session is one timed unit of a race weekend. Immutable to the client.
type Session struct {
	ID      int         `json:"id"`
	Type    SessionType `json:"session_type"`
	Name    string      `json:"session_name"`
	Start   time.Time   `json:"date_start"`
	End     time.Time   `json:"date_end"`
	Country string      `json:"country_name"`
	Circuit string      `json:"circuit_short_name"`
}

// Driver is a reference target for prediction picks.
type Driver struct {
	ID   int    `json:"id"`
	Name string `json:"full_name"`
}

// ResultRow is one finishing position of a session's authoritative results.
type ResultRow struct {
	Position   int    `json:"position"`
	DriverID   int    `json:"driver_id"`
	DriverName string `json:"driver_name"`
}

// User is the server's authoritative user record.
type User struct {
	ID       int      `json:"id"`
	Username string   `json:"username"`
	Role     string   `json:"role"`
	Score    *float64 `json:"score"`
}
