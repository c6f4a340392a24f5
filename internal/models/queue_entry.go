package models

import "time"

// QueueEntry is a visit's projection into a single station queue. BaseScore
// is frozen at enqueue time; only the display score (base + aging) moves.
type QueueEntry struct {
	TokenID      string    `json:"token_id"`
	Name         string    `json:"name"`
	AcuityLevel  int       `json:"acuity_level"`
	EntryTime    time.Time `json:"entry_time"`
	BaseScore    float64   `json:"base_score"`
	AssignedRoom string    `json:"assigned_room,omitempty"`
}

// RankedEntry is a QueueEntry enriched with the read-time score used for
// display and position lookup.
type RankedEntry struct {
	QueueEntry
	WaitMinutes int     `json:"wait_minutes"`
	TotalScore  float64 `json:"total_score"`
}
