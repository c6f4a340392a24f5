package directory

import (
	"context"
	"errors"

	"clinicflow/flow-service/internal/models"
)

var ErrPatientNotFound = errors.New("patient not found")

// Directory is the external patient-identity collaborator. It is the only
// state that survives a restart; queue and journey state never depend on
// its durability.
type Directory interface {
	Lookup(ctx context.Context, patientRef string) (models.Patient, error)
	Create(ctx context.Context, patient models.Patient) (models.Patient, error)
}
