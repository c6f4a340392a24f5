package memory

import (
	"context"

	"clinicflow/flow-service/internal/station"
	"clinicflow/flow-service/internal/store"
)

// EstimateJourney projects the total wait for an ordered station sequence
// from the current queue snapshot. The model assumes strict FIFO service in
// arrival order, gives no credit for time already waited, and approximates
// a multi-room station by its total occupancy spread evenly over the rooms.
func (s *Store) EstimateJourney(ctx context.Context, stations []string) (store.JourneyEstimate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.estimateLocked(stations), nil
}

func (s *Store) estimateLocked(stations []string) store.JourneyEstimate {
	estimate := store.JourneyEstimate{}
	for _, stationID := range stations {
		if stationID == "" || stationID == station.Discharge {
			continue
		}

		serviceMinutes := s.registry.ServiceMinutes(stationID)
		occupancy := 0
		if rooms := s.registry.Rooms(stationID); len(rooms) > 0 {
			total := 0
			for _, room := range rooms {
				total += len(s.queues[station.KeyFor(stationID, room)])
			}
			// Per-server backlog under even load, rounded up.
			occupancy = (total + len(rooms) - 1) / len(rooms)
		} else {
			occupancy = len(s.queues[station.KeyFor(stationID, "")])
		}

		waitMinutes := occupancy * serviceMinutes
		estimate.Details = append(estimate.Details, store.StationEstimate{
			StationID:      stationID,
			Occupancy:      occupancy,
			ServiceMinutes: serviceMinutes,
			WaitMinutes:    waitMinutes,
			TotalMinutes:   waitMinutes + serviceMinutes,
		})
		estimate.TotalMinutes += waitMinutes + serviceMinutes
	}
	return estimate
}
