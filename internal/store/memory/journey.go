package memory

import (
	"context"
	"log"
	"time"

	"clinicflow/flow-service/internal/directory"
	"clinicflow/flow-service/internal/models"
	"clinicflow/flow-service/internal/station"
	"clinicflow/flow-service/internal/store"
)

// StartJourney resolves the pathway for the visit once and snapshots it on
// the visit record; it stays frozen for the visit's lifetime (RepairPathway
// is the explicit way to re-resolve). The visit is then queued at the first
// station.
func (s *Store) StartJourney(ctx context.Context, input store.StartJourneyInput) (models.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	visit, ok := s.visits[input.TokenID]
	if !ok {
		return models.Visit{}, store.ErrVisitNotFound
	}
	if visit.CurrentStation != "" {
		return models.Visit{}, store.ErrJourneyStarted
	}

	startedAt := input.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}

	if input.AcuityLevel != 0 {
		visit.AcuityLevel = input.AcuityLevel
	}
	visit.Category = input.Category
	visit.Pathway = s.catalog.Resolve(visit.AcuityLevel, visit.Category)
	visit.CurrentStation = visit.Pathway[0]
	visit.StationStatus = models.StationStatusWaiting
	visit.EntryTime = startedAt

	s.placeAtStation(visit.CurrentStation, visit, startedAt)
	return cloneVisit(visit), nil
}

// Advance completes the visit's current station and moves it to the next
// one on its frozen pathway. Reaching past the last station is the terminal
// outcome; a current station that is no longer on the pathway is reported
// as a distinct error and leaves all state untouched.
func (s *Store) Advance(ctx context.Context, input store.AdvanceInput) (store.AdvanceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	visit, ok := s.visits[input.TokenID]
	if !ok {
		return store.AdvanceResult{}, store.ErrVisitNotFound
	}
	if len(visit.Pathway) == 0 {
		return store.AdvanceResult{}, store.ErrJourneyNotStarted
	}
	if visit.StationStatus == models.StationStatusCompleted {
		return store.AdvanceResult{}, store.ErrJourneyCompleted
	}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	currentIndex := indexOf(visit.Pathway, visit.CurrentStation)
	if currentIndex == -1 {
		return store.AdvanceResult{}, store.ErrInvalidPathwayPosition
	}

	if currentIndex == len(visit.Pathway)-1 {
		visit.StationStatus = models.StationStatusCompleted
		s.remove(currentKey(visit), visit.TokenID)
		return store.AdvanceResult{TokenID: visit.TokenID, Completed: true}, nil
	}

	next := visit.Pathway[currentIndex+1]
	s.remove(currentKey(visit), visit.TokenID)
	visit.AssignedRoom = ""
	visit.CurrentStation = next
	visit.StationStatus = models.StationStatusWaiting
	visit.EntryTime = occurredAt

	if next != station.Discharge {
		s.placeAtStation(next, visit, occurredAt)
	}

	return store.AdvanceResult{TokenID: visit.TokenID, NextStation: next}, nil
}

// RepairPathway re-resolves the pathway from the visit's acuity and
// category. This is the opt-in escape hatch for catalog changes made while
// a patient is mid-journey; routine advances never re-resolve.
func (s *Store) RepairPathway(ctx context.Context, tokenID string, now time.Time) (models.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	visit, ok := s.visits[tokenID]
	if !ok {
		return models.Visit{}, store.ErrVisitNotFound
	}
	if len(visit.Pathway) == 0 {
		return models.Visit{}, store.ErrJourneyNotStarted
	}

	fresh := s.catalog.Resolve(visit.AcuityLevel, visit.Category)
	visit.Pathway = fresh

	// The current station may have dropped off the refreshed pathway. Move
	// the visit to the head of the new pathway so it is never stranded on a
	// station no advance can leave.
	if indexOf(fresh, visit.CurrentStation) == -1 && visit.StationStatus != models.StationStatusCompleted {
		if now.IsZero() {
			now = time.Now().UTC()
		}
		s.remove(currentKey(visit), visit.TokenID)
		visit.AssignedRoom = ""
		visit.CurrentStation = fresh[0]
		visit.StationStatus = models.StationStatusWaiting
		visit.EntryTime = now
		if visit.CurrentStation != station.Discharge {
			s.placeAtStation(visit.CurrentStation, visit, now)
		}
	}

	return cloneVisit(visit), nil
}

// Status reports the visit's position in its room-aware queue and the live
// wait projection: position times the station's service time, plus the
// estimated time for every station still ahead on the pathway.
func (s *Store) Status(ctx context.Context, tokenID string, now time.Time) (store.JourneyStatus, error) {
	status, patientRef, err := s.statusLocked(tokenID, now)
	if err != nil {
		return store.JourneyStatus{}, err
	}

	// Identity resolution happens outside the lock; the directory may block
	// on I/O and queue correctness never waits for it.
	status.Name = s.fallback(tokenID)
	if patientRef != "" && s.directory != nil {
		patient, err := s.directory.Lookup(ctx, patientRef)
		switch {
		case err == nil:
			status.Name = patient.Name
			status.Age = patient.Age
			status.Gender = patient.Gender
		case err != directory.ErrPatientNotFound:
			log.Printf("status token=%s directory lookup error: %v", tokenID, err)
		}
	}
	return status, nil
}

func (s *Store) statusLocked(tokenID string, now time.Time) (store.JourneyStatus, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	visit, ok := s.visits[tokenID]
	if !ok {
		return store.JourneyStatus{}, "", store.ErrVisitNotFound
	}
	if len(visit.Pathway) == 0 {
		return store.JourneyStatus{}, "", store.ErrJourneyNotStarted
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	status := store.JourneyStatus{
		TokenID:        visit.TokenID,
		CurrentStation: visit.CurrentStation,
		AssignedRoom:   visit.AssignedRoom,
		Pathway:        append([]string(nil), visit.Pathway...),
		AcuityLevel:    visit.AcuityLevel,
		Status:         visit.StationStatus,
	}

	ranked := rank(s.queues[currentKey(visit)], now)
	position := 0
	for i, entry := range ranked {
		if entry.TokenID == tokenID {
			position = i + 1
			break
		}
	}
	status.QueuePosition = position

	if position > 0 {
		stationWait := position * s.registry.ServiceMinutes(visit.CurrentStation)
		suffix := pathwaySuffixAfter(visit.Pathway, visit.CurrentStation)
		futureWait := s.estimateLocked(suffix).TotalMinutes
		status.EstimatedWaitMinutes = stationWait + futureWait
	}

	return status, visit.PatientRef, nil
}

func pathwaySuffixAfter(path []string, current string) []string {
	index := indexOf(path, current)
	if index == -1 || index+1 >= len(path) {
		return nil
	}
	return path[index+1:]
}

func indexOf(path []string, stationID string) int {
	for i, id := range path {
		if id == stationID {
			return i
		}
	}
	return -1
}
