package scheduling

import (
	"context"

	"github.com/google/uuid"
)

// AppointmentRepository defines data access for appointments. Create
// persists the appointment together with its participants. External
// identifier lookups return (nil, nil) when no row matches.
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetByExternalID(ctx context.Context, accountID uuid.UUID, externalID string) (*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error)
}
