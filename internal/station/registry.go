package station

import "sort"

// Discharge is the terminal sentinel that ends every pathway. It is not a
// physical station and never owns a queue.
const Discharge = "discharge"

const defaultServiceMinutes = 5

// Registry declares which stations run several interchangeable rooms, the
// room identifiers per such station, and the average service time per
// station. Static configuration, never mutated at runtime.
type Registry struct {
	rooms          map[string][]string
	serviceMinutes map[string]int
}

func NewRegistry(rooms map[string][]string, serviceMinutes map[string]int) *Registry {
	r := &Registry{
		rooms:          make(map[string][]string, len(rooms)),
		serviceMinutes: make(map[string]int, len(serviceMinutes)),
	}
	for id, list := range rooms {
		r.rooms[id] = append([]string(nil), list...)
	}
	for id, minutes := range serviceMinutes {
		r.serviceMinutes[id] = minutes
	}
	return r
}

// DefaultRegistry is the eye-clinic floor plan: three interchangeable rooms
// for vision testing, refraction, and consults, single rooms elsewhere.
func DefaultRegistry() *Registry {
	return NewRegistry(
		map[string][]string{
			"vision_test":    {"A", "B", "C"},
			"refraction":     {"A", "B", "C"},
			"doctor_consult": {"A", "B", "C"},
		},
		map[string]int{
			"registration":   3,
			"vision_test":    5,
			"refraction":     7,
			"iop_check":      4,
			"dilation":       20,
			"fundus_photo":   6,
			"investigation":  10,
			"doctor_consult": 10,
			"trauma_center":  15,
			"pharmacy":       5,
		},
	)
}

// RegistryFromConfig starts from the default floor plan and applies
// per-station overrides from configuration.
func RegistryFromConfig(rooms map[string][]string, serviceMinutes map[string]int) *Registry {
	r := DefaultRegistry()
	for id, list := range rooms {
		r.rooms[id] = append([]string(nil), list...)
	}
	for id, minutes := range serviceMinutes {
		r.serviceMinutes[id] = minutes
	}
	return r
}

// Rooms returns the configured room suffixes for a multi-room station, in
// declaration order, or nil for single-room stations.
func (r *Registry) Rooms(stationID string) []string {
	return r.rooms[stationID]
}

func (r *Registry) IsMultiRoom(stationID string) bool {
	return len(r.rooms[stationID]) > 0
}

// ServiceMinutes returns the average service time for a station, defaulting
// to 5 minutes for stations with no configured value.
func (r *Registry) ServiceMinutes(stationID string) int {
	if minutes, ok := r.serviceMinutes[stationID]; ok && minutes > 0 {
		return minutes
	}
	return defaultServiceMinutes
}

// Stations lists every configured station identifier, sorted.
func (r *Registry) Stations() []string {
	seen := make(map[string]bool, len(r.serviceMinutes))
	for id := range r.serviceMinutes {
		seen[id] = true
	}
	for id := range r.rooms {
		seen[id] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Known reports whether a station is either configured or the discharge
// sentinel.
func (r *Registry) Known(stationID string) bool {
	if stationID == Discharge {
		return true
	}
	if _, ok := r.rooms[stationID]; ok {
		return true
	}
	_, ok := r.serviceMinutes[stationID]
	return ok
}
