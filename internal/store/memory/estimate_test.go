package memory

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"clinicflow/flow-service/internal/station"
)

func TestEstimateJourneyScenario(t *testing.T) {
	// 6 arrivals balanced 2/2/2 over vision_test's three rooms, 5 queued at
	// single-room pharmacy: ceil(6/3)*5 + 5 = 15, 5*5 + 5 = 30, total 45.
	s := newTestStore(map[string][]string{
		"eye":      {"vision_test", station.Discharge},
		"pharmacy": {"pharmacy", station.Discharge},
	})
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 6; i++ {
		startVisit(t, s, fmt.Sprintf("V-%d", i), 3, "eye", at)
	}
	for i := 0; i < 5; i++ {
		startVisit(t, s, fmt.Sprintf("PH-%d", i), 3, "pharmacy", at)
	}

	estimate, err := s.EstimateJourney(context.Background(), []string{"vision_test", "pharmacy"})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}

	if estimate.TotalMinutes != 45 {
		t.Fatalf("total minutes = %d, want 45", estimate.TotalMinutes)
	}
	if len(estimate.Details) != 2 {
		t.Fatalf("details length = %d, want 2", len(estimate.Details))
	}
	if estimate.Details[0].Occupancy != 2 || estimate.Details[0].TotalMinutes != 15 {
		t.Fatalf("vision_test detail: %+v", estimate.Details[0])
	}
	if estimate.Details[1].Occupancy != 5 || estimate.Details[1].TotalMinutes != 30 {
		t.Fatalf("pharmacy detail: %+v", estimate.Details[1])
	}
}

func TestEstimateRoundsRoomOccupancyUp(t *testing.T) {
	s := newTestStore(map[string][]string{
		"eye": {"vision_test", station.Discharge},
	})
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		startVisit(t, s, fmt.Sprintf("V-%d", i), 3, "eye", at)
	}

	estimate, err := s.EstimateJourney(context.Background(), []string{"vision_test"})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	// ceil(4/3) = 2 even though one room holds a single patient.
	if estimate.Details[0].Occupancy != 2 {
		t.Fatalf("occupancy = %d, want 2", estimate.Details[0].Occupancy)
	}
}

func TestEstimateIdempotentWithoutMutation(t *testing.T) {
	s := newTestStore(map[string][]string{
		"default": {"registration", station.Discharge},
	})
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		startVisit(t, s, fmt.Sprintf("T-%d", i), 3, "", at)
	}

	stations := []string{"registration", "vision_test", "doctor_consult"}
	first, err := s.EstimateJourney(context.Background(), stations)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	second, err := s.EstimateJourney(context.Background(), stations)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("estimates differ with no queue mutation:\n%+v\n%+v", first, second)
	}
}

func TestEstimateSkipsBlankAndDischarge(t *testing.T) {
	s := newTestStore(map[string][]string{"default": {"registration", station.Discharge}})

	estimate, err := s.EstimateJourney(context.Background(), []string{"", "pharmacy", station.Discharge})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if len(estimate.Details) != 1 || estimate.Details[0].StationID != "pharmacy" {
		t.Fatalf("details: %+v", estimate.Details)
	}
	if estimate.TotalMinutes != 5 {
		t.Fatalf("total minutes = %d, want 5", estimate.TotalMinutes)
	}
}

func TestEstimateUsesDefaultServiceTime(t *testing.T) {
	s := newTestStore(map[string][]string{"default": {"registration", station.Discharge}})

	estimate, err := s.EstimateJourney(context.Background(), []string{"counselling"})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if estimate.TotalMinutes != 5 {
		t.Fatalf("total minutes = %d, want default 5", estimate.TotalMinutes)
	}
}
