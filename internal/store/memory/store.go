package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"clinicflow/flow-service/internal/directory"
	"clinicflow/flow-service/internal/models"
	"clinicflow/flow-service/internal/pathway"
	"clinicflow/flow-service/internal/station"
	"clinicflow/flow-service/internal/store"
)

// Store is the single authoritative in-memory flow state: every visit and
// every station queue, guarded by one mutex so that insert/remove/advance
// sequences are atomic. Queue state is ephemeral and rebuilt on restart;
// only patient identity lives outside, behind the directory collaborator.
type Store struct {
	mu      sync.Mutex
	visits  map[string]*models.Visit
	queues  map[station.Key][]models.QueueEntry

	registry  *station.Registry
	catalog   pathway.Catalog
	directory directory.Directory
	fallback  func(tokenID string) string
}

type Options struct {
	Directory directory.Directory
	// FallbackName derives the display label for visits with no resolvable
	// identity. Defaults to "Guest <token>".
	FallbackName func(tokenID string) string
}

func NewStore(registry *station.Registry, catalog pathway.Catalog, options Options) *Store {
	fallback := options.FallbackName
	if fallback == nil {
		fallback = func(tokenID string) string {
			return fmt.Sprintf("Guest %s", tokenID)
		}
	}
	return &Store{
		visits:    make(map[string]*models.Visit),
		queues:    make(map[station.Key][]models.QueueEntry),
		registry:  registry,
		catalog:   catalog,
		directory: options.Directory,
		fallback:  fallback,
	}
}

func (s *Store) CreateVisit(ctx context.Context, input store.CreateVisitInput) (models.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.visits[input.TokenID]; ok {
		return models.Visit{}, store.ErrVisitExists
	}

	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	visit := &models.Visit{
		TokenID:     input.TokenID,
		PatientRef:  input.PatientRef,
		AcuityLevel: input.AcuityLevel,
		Category:    input.Category,
		CreatedAt:   createdAt,
	}
	s.visits[input.TokenID] = visit
	return *visit, nil
}

func (s *Store) GetVisit(ctx context.Context, tokenID string) (models.Visit, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	visit, ok := s.visits[tokenID]
	if !ok {
		return models.Visit{}, false, nil
	}
	return cloneVisit(visit), true, nil
}

// Reset clears visits and queue state for a fresh clinic day. Patient
// identity records are untouched; they belong to the directory.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.visits = make(map[string]*models.Visit)
	s.queues = make(map[station.Key][]models.QueueEntry)
	return nil
}

func cloneVisit(visit *models.Visit) models.Visit {
	copied := *visit
	copied.Pathway = append([]string(nil), visit.Pathway...)
	return copied
}
