package admission

import (
	"context"

	"github.com/google/uuid"
)

// AdmissionRepository defines data access for admissions. Open-stay
// lookups return (nil, nil) when no open admission exists.
type AdmissionRepository interface {
	Create(ctx context.Context, admission *Admission) error
	GetByID(ctx context.Context, id uuid.UUID) (*Admission, error)
	GetOpenByPatientLocation(ctx context.Context, patientID, locationID uuid.UUID) (*Admission, error)
	Update(ctx context.Context, admission *Admission) error
}

// AssignmentRepository defines data access for caregiver assignments.
// GetOpenByAdmissionCaregiver returns (nil, nil) when no active assignment
// exists for the pair.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *Assignment) error
	GetOpenByAdmissionCaregiver(ctx context.Context, admissionID, caregiverID uuid.UUID) (*Assignment, error)
	ListByAdmission(ctx context.Context, admissionID uuid.UUID) ([]*Assignment, error)
}
