package identity

import (
	"context"

	"github.com/google/uuid"
)

// PatientRepository defines data access for patients and their contact
// and address sub-records. External-identifier lookups return (nil, nil)
// when no row matches.
type PatientRepository interface {
	Create(ctx context.Context, patient *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByExternalID(ctx context.Context, accountID uuid.UUID, externalID string) (*Patient, error)
	ListUnmapped(ctx context.Context, accountID uuid.UUID) ([]*Patient, error)
	Update(ctx context.Context, patient *Patient) error
}

// DoctorRepository defines data access for doctors.
type DoctorRepository interface {
	Create(ctx context.Context, doctor *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByExternalID(ctx context.Context, accountID uuid.UUID, externalID string) (*Doctor, error)
}

// AssistantRepository defines data access for assistants.
type AssistantRepository interface {
	Create(ctx context.Context, assistant *Assistant) error
	GetByExternalID(ctx context.Context, accountID uuid.UUID, externalID string) (*Assistant, error)
}

// SystemUserRepository defines data access for application users.
// GetByAssistantID resolves the assistant-type user carrying the
// supervising doctor reference; it returns (nil, nil) on no match.
type SystemUserRepository interface {
	Create(ctx context.Context, user *SystemUser) error
	GetByAssistantID(ctx context.Context, assistantID uuid.UUID) (*SystemUser, error)
}
