package admission

import (
	"time"

	"github.com/google/uuid"
)

// Admission maps to the admission table. A nil DischargeDate marks an
// open stay; a patient has at most one open stay per location.
type Admission struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	AccountID     uuid.UUID  `db:"account_id" json:"account_id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	LocationID    uuid.UUID  `db:"location_id" json:"location_id"`
	AdmissionDate time.Time  `db:"admission_date" json:"admission_date"`
	DischargeDate *time.Time `db:"discharge_date" json:"discharge_date,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Assignment maps to the assignment table and ties a caregiver, either
// a doctor or an assistant, to an admission. A nil EndDate marks the
// assignment as active; SupervisorID carries the supervising doctor
// when the caregiver is an assistant.
type Assignment struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	AdmissionID  uuid.UUID  `db:"admission_id" json:"admission_id"`
	CaregiverID  uuid.UUID  `db:"caregiver_id" json:"caregiver_id"`
	SupervisorID *uuid.UUID `db:"supervisor_id" json:"supervisor_id,omitempty"`
	StartDate    time.Time  `db:"start_date" json:"start_date"`
	EndDate      *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
