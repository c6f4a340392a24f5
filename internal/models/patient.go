package models

import "time"

type Patient struct {
	PatientID string    `json:"patient_id"`
	Name      string    `json:"name"`
	Age       int       `json:"age,omitempty"`
	Gender    string    `json:"gender,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
