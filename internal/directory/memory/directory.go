package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"clinicflow/flow-service/internal/directory"
	"clinicflow/flow-service/internal/models"
)

// Directory is the demo patient directory: an in-memory table, optionally
// seeded, used when no database is configured.
type Directory struct {
	mu       sync.RWMutex
	patients map[string]models.Patient
	seq      int
}

func New(seed []models.Patient) *Directory {
	d := &Directory{patients: make(map[string]models.Patient, len(seed))}
	for _, patient := range seed {
		d.patients[patient.PatientID] = patient
	}
	d.seq = len(seed)
	return d
}

func (d *Directory) Lookup(ctx context.Context, patientRef string) (models.Patient, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if patient, ok := d.patients[patientRef]; ok {
		return patient, nil
	}
	// Phone number doubles as a lookup key at the front desk.
	for _, patient := range d.patients {
		if patient.Phone != "" && patient.Phone == patientRef {
			return patient, nil
		}
	}
	return models.Patient{}, directory.ErrPatientNotFound
}

func (d *Directory) Create(ctx context.Context, patient models.Patient) (models.Patient, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if patient.PatientID == "" {
		d.seq++
		patient.PatientID = fmt.Sprintf("AEH%04d", 1000+d.seq)
	}
	if patient.CreatedAt.IsZero() {
		patient.CreatedAt = time.Now().UTC()
	}
	d.patients[patient.PatientID] = patient
	return patient, nil
}
