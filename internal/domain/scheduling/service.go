package scheduling

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

var validAppointmentStatuses = map[string]bool{
	StatusProposed:  true,
	StatusPending:   true,
	StatusBooked:    true,
	StatusArrived:   true,
	StatusFulfilled: true,
	StatusCancelled: true,
	StatusNoShow:    true,
}

var validParticipantTypes = map[string]bool{
	ParticipantPatient:  true,
	ParticipantProvider: true,
	ParticipantLocation: true,
}

// Service provides appointment operations.
type Service struct {
	appointments AppointmentRepository
}

func NewService(appointments AppointmentRepository) *Service {
	return &Service{appointments: appointments}
}

// validate checks an appointment. allowUnsetStatus admits an empty
// status for integrated records whose remote status has no local
// equivalent.
func (s *Service) validate(a *Appointment, allowUnsetStatus bool) error {
	if a.AccountID == uuid.Nil {
		return fmt.Errorf("account_id is required")
	}
	if !validAppointmentStatuses[a.Status] && !(allowUnsetStatus && a.Status == "") {
		return fmt.Errorf("invalid appointment status: %s", a.Status)
	}
	for _, p := range a.Participants {
		if !validParticipantTypes[p.Type] {
			return fmt.Errorf("invalid participant type: %s", p.Type)
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, a *Appointment) error {
	if err := s.validate(a, false); err != nil {
		return err
	}
	return s.appointments.Create(ctx, a)
}

// CreateIntegrated persists a batch of externally sourced appointments.
// An appointment whose external identifier already exists is left
// untouched and reported with a Nil ID, so resubmitting a batch never
// duplicates records. Returns the new appointment IDs positionally.
func (s *Service) CreateIntegrated(ctx context.Context, batch []*Appointment) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(batch))
	for _, a := range batch {
		if a.ExternalID == nil || *a.ExternalID == "" {
			return ids, fmt.Errorf("integrated appointment requires an external_id")
		}
		existing, err := s.appointments.GetByExternalID(ctx, a.AccountID, *a.ExternalID)
		if err != nil {
			return ids, fmt.Errorf("lookup appointment %s: %w", *a.ExternalID, err)
		}
		if existing != nil {
			ids = append(ids, uuid.Nil)
			continue
		}
		if err := s.validate(a, true); err != nil {
			return ids, err
		}
		if err := s.appointments.Create(ctx, a); err != nil {
			return ids, fmt.Errorf("create appointment %s: %w", *a.ExternalID, err)
		}
		ids = append(ids, a.ID)
	}
	return ids, nil
}

func (s *Service) GetByExternalID(ctx context.Context, accountID uuid.UUID, externalID string) (*Appointment, error) {
	return s.appointments.GetByExternalID(ctx, accountID, externalID)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	return s.appointments.ListByPatient(ctx, patientID)
}
