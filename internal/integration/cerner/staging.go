package cerner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StagingService persists fetched rows into the staging tables. Creates
// are idempotent on external identifier: a row that already exists is
// left untouched and reported with a Nil ID, so replaying a fetch never
// duplicates staging data.
type StagingService struct {
	appointments StagingAppointmentRepository
	patients     StagingPatientRepository
	now          func() time.Time
}

func NewStagingService(appointments StagingAppointmentRepository, patients StagingPatientRepository) *StagingService {
	return &StagingService{
		appointments: appointments,
		patients:     patients,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *StagingService) CreateAppointment(ctx context.Context, row *StagingAppointment) (uuid.UUID, error) {
	if row.ExternalID == "" {
		return uuid.Nil, fmt.Errorf("staging appointment requires an external_id")
	}
	existing, err := s.appointments.GetByExternalID(ctx, row.AccountID, row.ExternalID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("lookup staging appointment %s: %w", row.ExternalID, err)
	}
	if existing != nil {
		return uuid.Nil, nil
	}
	row.Integrated = false
	row.SyncDate = s.now()
	if err := s.appointments.Create(ctx, row); err != nil {
		return uuid.Nil, fmt.Errorf("create staging appointment %s: %w", row.ExternalID, err)
	}
	return row.ID, nil
}

func (s *StagingService) CreateAppointments(ctx context.Context, rows []*StagingAppointment) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		id, err := s.CreateAppointment(ctx, row)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *StagingService) CreatePatient(ctx context.Context, row *StagingPatient) (uuid.UUID, error) {
	if row.ExternalID == "" {
		return uuid.Nil, fmt.Errorf("staging patient requires an external_id")
	}
	existing, err := s.patients.GetByExternalID(ctx, row.AccountID, row.ExternalID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("lookup staging patient %s: %w", row.ExternalID, err)
	}
	if existing != nil {
		return uuid.Nil, nil
	}
	row.Integrated = false
	row.SyncDate = s.now()
	if err := s.patients.Create(ctx, row); err != nil {
		return uuid.Nil, fmt.Errorf("create staging patient %s: %w", row.ExternalID, err)
	}
	return row.ID, nil
}

func (s *StagingService) CreatePatients(ctx context.Context, rows []*StagingPatient) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		id, err := s.CreatePatient(ctx, row)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// UnintegratedForLocation lists every staged appointment for the
// location that no reconciliation pass has consumed yet, including
// rows left behind by earlier runs.
func (s *StagingService) UnintegratedForLocation(ctx context.Context, accountID uuid.UUID, locationExternalID string) ([]*StagingAppointment, error) {
	return s.appointments.ListUnintegratedByLocation(ctx, accountID, locationExternalID)
}

// MarkAppointmentIntegrated flips the consumed flag on a staged
// appointment. Returns false for a nil row.
func (s *StagingService) MarkAppointmentIntegrated(ctx context.Context, row *StagingAppointment) (bool, error) {
	if row == nil {
		return false, nil
	}
	if err := s.appointments.SetIntegrated(ctx, row.ID); err != nil {
		return false, err
	}
	row.Integrated = true
	return true, nil
}

// MarkPatientIntegrated flips the consumed flag on a staged patient.
func (s *StagingService) MarkPatientIntegrated(ctx context.Context, row *StagingPatient) (bool, error) {
	if row == nil {
		return false, nil
	}
	if err := s.patients.SetIntegrated(ctx, row.ID); err != nil {
		return false, err
	}
	row.Integrated = true
	return true, nil
}
