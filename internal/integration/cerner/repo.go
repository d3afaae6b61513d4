package cerner

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StagingAppointmentRepository defines data access for staged
// appointments. External-identifier lookups return (nil, nil) when no
// row matches.
type StagingAppointmentRepository interface {
	Create(ctx context.Context, row *StagingAppointment) error
	GetByExternalID(ctx context.Context, accountID uuid.UUID, externalID string) (*StagingAppointment, error)
	ListUnintegratedByLocation(ctx context.Context, accountID uuid.UUID, locationExternalID string) ([]*StagingAppointment, error)
	ListUnintegratedByPatient(ctx context.Context, accountID uuid.UUID, patientExternalID string) ([]*StagingAppointment, error)
	ListUnintegratedByPatientLocation(ctx context.Context, accountID uuid.UUID, patientExternalID, locationExternalID string) ([]*StagingAppointment, error)
	DistinctPatientPractitioners(ctx context.Context, accountID uuid.UUID, locationExternalID string) ([]PatientPractitionerRef, error)
	SetIntegrated(ctx context.Context, id uuid.UUID) error
}

// StagingPatientRepository defines data access for staged patients.
// Create persists the addresses with the row; Get calls load them and
// return (nil, nil) when no row matches.
type StagingPatientRepository interface {
	Create(ctx context.Context, row *StagingPatient) error
	GetByID(ctx context.Context, id uuid.UUID) (*StagingPatient, error)
	GetByExternalID(ctx context.Context, accountID uuid.UUID, externalID string) (*StagingPatient, error)
	SetIntegrated(ctx context.Context, id uuid.UUID) error
}

// EndpointRepository defines data access for provider and endpoint
// configuration. GetEndpoint returns (nil, nil) when a location has no
// endpoint row.
type EndpointRepository interface {
	GetProvider(ctx context.Context, provider string) (*ProviderConfig, error)
	GetEndpoint(ctx context.Context, providerConfigID, locationID uuid.UUID) (*EndpointConfig, error)
	UpdateLastSyncDate(ctx context.Context, endpointID uuid.UUID, syncDate time.Time) error
}
