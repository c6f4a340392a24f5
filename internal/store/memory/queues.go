package memory

import (
	"context"
	"time"

	"clinicflow/flow-service/internal/models"
	"clinicflow/flow-service/internal/station"
	"clinicflow/flow-service/internal/store"
)

// insert appends the entry unless it belongs to the most urgent tier.
// Acuity 1 is the only tier with write-time priority: it slots in behind
// the pinned head, before the first strictly lower-priority entry. Tiers
// 2-5 always append; their priority is realized by the read-time aging
// sort. Callers hold s.mu.
func (s *Store) insert(key station.Key, entry models.QueueEntry, acuityLevel int) {
	queue := s.queues[key]

	if len(queue) <= 1 || acuityLevel != 1 {
		s.queues[key] = append(queue, entry)
		return
	}

	insertIndex := len(queue)
	for i := 1; i < len(queue); i++ {
		if queue[i].AcuityLevel > acuityLevel {
			insertIndex = i
			break
		}
	}

	queue = append(queue, models.QueueEntry{})
	copy(queue[insertIndex+1:], queue[insertIndex:])
	queue[insertIndex] = entry
	s.queues[key] = queue
}

// remove filters the token out of the keyed queue; no-op when absent.
// Callers hold s.mu.
func (s *Store) remove(key station.Key, tokenID string) {
	queue := s.queues[key]
	if len(queue) == 0 {
		return
	}
	filtered := queue[:0]
	for _, entry := range queue {
		if entry.TokenID != tokenID {
			filtered = append(filtered, entry)
		}
	}
	s.queues[key] = filtered
}

// assignRoom picks the least-occupied room of a multi-room station; ties go
// to the room listed first in the registry. Callers hold s.mu.
func (s *Store) assignRoom(stationID string) string {
	rooms := s.registry.Rooms(stationID)
	best := rooms[0]
	minLength := len(s.queues[station.KeyFor(stationID, best)])
	for _, room := range rooms[1:] {
		length := len(s.queues[station.KeyFor(stationID, room)])
		if length < minLength {
			minLength = length
			best = room
		}
	}
	return best
}

// placeAtStation enqueues the visit at a station, balancing multi-room
// stations across rooms. Callers hold s.mu.
func (s *Store) placeAtStation(stationID string, visit *models.Visit, now time.Time) {
	key := station.KeyFor(stationID, "")
	if s.registry.IsMultiRoom(stationID) {
		room := s.assignRoom(stationID)
		visit.AssignedRoom = room
		key = station.KeyFor(stationID, room)
	} else {
		visit.AssignedRoom = ""
	}

	name := visit.PatientRef
	if name == "" {
		name = s.fallback(visit.TokenID)
	}

	s.insert(key, models.QueueEntry{
		TokenID:      visit.TokenID,
		Name:         name,
		AcuityLevel:  visit.AcuityLevel,
		EntryTime:    now,
		BaseScore:    baseScore(visit.AcuityLevel),
		AssignedRoom: visit.AssignedRoom,
	}, visit.AcuityLevel)
}

// currentKey resolves the specific queue a visit occupies, room-aware.
func currentKey(visit *models.Visit) station.Key {
	return station.KeyFor(visit.CurrentStation, visit.AssignedRoom)
}

func (s *Store) StationView(ctx context.Context, stationID string, now time.Time) (store.StationView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.registry.Known(stationID) || stationID == station.Discharge {
		return store.StationView{}, store.ErrStationNotFound
	}

	if !s.registry.IsMultiRoom(stationID) {
		ranked := rank(s.queues[station.KeyFor(stationID, "")], now)
		return store.StationView{
			StationID: stationID,
			Queue:     ranked,
			Count:     len(ranked),
			NextEntry: headOf(ranked),
		}, nil
	}

	view := store.StationView{StationID: stationID, MultiRoom: true}
	for _, room := range s.registry.Rooms(stationID) {
		ranked := rank(s.queues[station.KeyFor(stationID, room)], now)
		view.Rooms = append(view.Rooms, store.RoomView{
			RoomID:    room,
			Queue:     ranked,
			Count:     len(ranked),
			NextEntry: headOf(ranked),
		})
	}
	return view, nil
}

func headOf(ranked []models.RankedEntry) *models.RankedEntry {
	if len(ranked) == 0 {
		return nil
	}
	head := ranked[0]
	return &head
}
