package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Appointment status values.
const (
	StatusProposed  = "proposed"
	StatusPending   = "pending"
	StatusBooked    = "booked"
	StatusArrived   = "arrived"
	StatusFulfilled = "fulfilled"
	StatusCancelled = "cancelled"
	StatusNoShow    = "noshow"
)

// Participant types.
const (
	ParticipantPatient  = "patient"
	ParticipantProvider = "provider"
	ParticipantLocation = "location"
)

// Appointment maps to the appointment table. ExternalID carries the
// Cerner appointment identifier for integrated records and is the
// dedup key on resubmission.
type Appointment struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	AccountID       uuid.UUID  `db:"account_id" json:"account_id"`
	Status          string     `db:"status" json:"status"`
	Reason          *string    `db:"reason" json:"reason,omitempty"`
	Description     *string    `db:"description" json:"description,omitempty"`
	Comment         *string    `db:"comment" json:"comment,omitempty"`
	DurationMinutes int        `db:"duration_minutes" json:"duration_minutes"`
	StartTime       *time.Time `db:"start_time" json:"start_time,omitempty"`
	EndTime         *time.Time `db:"end_time" json:"end_time,omitempty"`
	ExternalID      *string    `db:"external_id" json:"external_id,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`

	Participants []*Participant `json:"participants,omitempty"`
}

// Participant maps to the appointment_participant table. Exactly one of
// PatientID, DoctorID and LocationID is set, matching Type.
type Participant struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	AppointmentID uuid.UUID  `db:"appointment_id" json:"appointment_id"`
	Type          string     `db:"participant_type" json:"participant_type"`
	PatientID     *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	DoctorID      *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	LocationID    *uuid.UUID `db:"location_id" json:"location_id,omitempty"`
	Required      bool       `db:"required" json:"required"`
}
