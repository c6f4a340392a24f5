package models

import "time"

type Visit struct {
	TokenID     string    `json:"token_id"`
	PatientRef  string    `json:"patient_ref,omitempty"`
	AcuityLevel int       `json:"acuity_level"`
	Category    string    `json:"category,omitempty"`
	Pathway     []string  `json:"pathway,omitempty"`

	CurrentStation string    `json:"current_station,omitempty"`
	AssignedRoom   string    `json:"assigned_room,omitempty"`
	StationStatus  string    `json:"station_status"`
	EntryTime      time.Time `json:"entry_time"`
	CreatedAt      time.Time `json:"created_at"`
}

const (
	StationStatusWaiting   = "waiting"
	StationStatusCompleted = "completed"
)

// AcuityLevel runs from 1 (most urgent) to 5 (least urgent).
const (
	AcuityMin = 1
	AcuityMax = 5
)
