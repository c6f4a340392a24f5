package store

import (
	"context"
	"time"

	"clinicflow/flow-service/internal/models"
)

type CreateVisitInput struct {
	TokenID     string
	PatientRef  string
	AcuityLevel int
	Category    string
	CreatedAt   time.Time
}

type StartJourneyInput struct {
	TokenID     string
	AcuityLevel int
	Category    string
	StartedAt   time.Time
}

type AdvanceInput struct {
	TokenID    string
	OccurredAt time.Time
}

// AdvanceResult reports the outcome of moving a visit forward. Exactly one
// of NextStation or Completed is meaningful.
type AdvanceResult struct {
	TokenID     string `json:"token_id"`
	NextStation string `json:"next_station,omitempty"`
	Completed   bool   `json:"completed"`
}

// JourneyStatus is the patient-facing view of a visit: where it is, how far
// along the pathway, and the live wait projection.
type JourneyStatus struct {
	TokenID              string   `json:"token_id"`
	Name                 string   `json:"name"`
	Age                  int      `json:"age,omitempty"`
	Gender               string   `json:"gender,omitempty"`
	CurrentStation       string   `json:"current_station"`
	AssignedRoom         string   `json:"assigned_room,omitempty"`
	Pathway              []string `json:"pathway"`
	QueuePosition        int      `json:"queue_position"`
	EstimatedWaitMinutes int      `json:"estimated_wait_minutes"`
	AcuityLevel          int      `json:"acuity_level"`
	Status               string   `json:"status"`
}

// RoomView is one room's slice of a multi-room station board.
type RoomView struct {
	RoomID    string               `json:"room_id"`
	Queue     []models.RankedEntry `json:"queue"`
	Count     int                  `json:"count"`
	NextEntry *models.RankedEntry  `json:"next_entry,omitempty"`
}

type StationView struct {
	StationID string               `json:"station_id"`
	MultiRoom bool                 `json:"multi_room"`
	Queue     []models.RankedEntry `json:"queue,omitempty"`
	Count     int                  `json:"count,omitempty"`
	NextEntry *models.RankedEntry  `json:"next_entry,omitempty"`
	Rooms     []RoomView           `json:"rooms,omitempty"`
}

type StationEstimate struct {
	StationID      string `json:"station_id"`
	Occupancy      int    `json:"occupancy"`
	ServiceMinutes int    `json:"service_minutes"`
	WaitMinutes    int    `json:"wait_minutes"`
	TotalMinutes   int    `json:"total_minutes"`
}

type JourneyEstimate struct {
	TotalMinutes int               `json:"total_minutes"`
	Details      []StationEstimate `json:"details"`
}

// FlowStore is the single authoritative view of visits and station queues.
// Implementations must make every operation atomic: concurrent arrivals and
// advances may never leave a token in two queues, or in none.
type FlowStore interface {
	CreateVisit(ctx context.Context, input CreateVisitInput) (models.Visit, error)
	GetVisit(ctx context.Context, tokenID string) (models.Visit, bool, error)
	StartJourney(ctx context.Context, input StartJourneyInput) (models.Visit, error)
	Advance(ctx context.Context, input AdvanceInput) (AdvanceResult, error)
	RepairPathway(ctx context.Context, tokenID string, now time.Time) (models.Visit, error)
	Status(ctx context.Context, tokenID string, now time.Time) (JourneyStatus, error)
	StationView(ctx context.Context, stationID string, now time.Time) (StationView, error)
	EstimateJourney(ctx context.Context, stations []string) (JourneyEstimate, error)
	Reset(ctx context.Context) error
}
