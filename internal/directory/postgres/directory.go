package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clinicflow/flow-service/internal/directory"
	"clinicflow/flow-service/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Directory persists patient identity in Postgres. This is the only durable
// state the service touches; queue and journey data stay in memory.
type Directory struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

func (d *Directory) Lookup(ctx context.Context, patientRef string) (models.Patient, error) {
	var patient models.Patient
	var age sql.NullInt32
	var gender, phone sql.NullString

	row := d.pool.QueryRow(ctx, `
		SELECT patient_id, name, age, gender, phone, created_at
		FROM patients
		WHERE patient_id = $1 OR phone = $1
		ORDER BY (patient_id = $1) DESC
		LIMIT 1
	`, patientRef)
	if err := row.Scan(&patient.PatientID, &patient.Name, &age, &gender, &phone, &patient.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Patient{}, directory.ErrPatientNotFound
		}
		return models.Patient{}, err
	}
	if age.Valid {
		patient.Age = int(age.Int32)
	}
	patient.Gender = gender.String
	patient.Phone = phone.String
	return patient, nil
}

func (d *Directory) Create(ctx context.Context, patient models.Patient) (models.Patient, error) {
	if patient.CreatedAt.IsZero() {
		patient.CreatedAt = time.Now().UTC()
	}
	if patient.PatientID == "" {
		var seq int64
		if err := d.pool.QueryRow(ctx, `SELECT nextval('patient_id_seq')`).Scan(&seq); err != nil {
			return models.Patient{}, err
		}
		patient.PatientID = fmt.Sprintf("AEH%04d", seq)
	}

	_, err := d.pool.Exec(ctx, `
		INSERT INTO patients (patient_id, name, age, gender, phone, created_at)
		VALUES ($1, $2, NULLIF($3, 0), NULLIF($4, ''), NULLIF($5, ''), $6)
		ON CONFLICT (patient_id) DO UPDATE
		SET name = EXCLUDED.name, age = EXCLUDED.age, gender = EXCLUDED.gender, phone = EXCLUDED.phone
	`, patient.PatientID, patient.Name, patient.Age, patient.Gender, patient.Phone, patient.CreatedAt)
	if err != nil {
		return models.Patient{}, err
	}
	return patient, nil
}
