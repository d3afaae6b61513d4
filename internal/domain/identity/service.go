package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var validGenders = map[string]bool{
	GenderMale:    true,
	GenderFemale:  true,
	GenderUnknown: true,
}

// Service provides patient and practitioner operations.
type Service struct {
	patients   PatientRepository
	doctors    DoctorRepository
	assistants AssistantRepository
	users      SystemUserRepository
}

func NewService(patients PatientRepository, doctors DoctorRepository, assistants AssistantRepository, users SystemUserRepository) *Service {
	return &Service{patients: patients, doctors: doctors, assistants: assistants, users: users}
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.AccountID == uuid.Nil {
		return fmt.Errorf("account_id is required")
	}
	if strings.TrimSpace(p.FirstName) == "" && strings.TrimSpace(p.LastName) == "" {
		return fmt.Errorf("patient name is required")
	}
	if p.Gender == "" {
		p.Gender = GenderUnknown
	}
	if !validGenders[p.Gender] {
		return fmt.Errorf("invalid gender: %s", p.Gender)
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetPatientByExternalID(ctx context.Context, accountID uuid.UUID, externalID string) (*Patient, error) {
	return s.patients.GetByExternalID(ctx, accountID, externalID)
}

// ListUnmappedPatients returns the account's patients without a Cerner
// identifier, the candidates for manual mapping.
func (s *Service) ListUnmappedPatients(ctx context.Context, accountID uuid.UUID) ([]*Patient, error) {
	if accountID == uuid.Nil {
		return nil, fmt.Errorf("account_id is required")
	}
	return s.patients.ListUnmapped(ctx, accountID)
}

// MapPatient attaches a Cerner identifier to an existing patient,
// optionally replacing the stored name with the Cerner one.
func (s *Service) MapPatient(ctx context.Context, patientID uuid.UUID, externalID string, firstName, lastName string, updateName bool) (*Patient, error) {
	if externalID == "" {
		return nil, fmt.Errorf("external_id is required")
	}
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("get patient %s: %w", patientID, err)
	}
	p.ExternalID = &externalID
	if updateName {
		p.FirstName = firstName
		p.LastName = lastName
	}
	if err := s.patients.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ResolveSupervisor returns the supervising doctor for an assistant by
// way of the assistant-type system user. A nil result means the chain
// could not be resolved.
func (s *Service) ResolveSupervisor(ctx context.Context, assistantID uuid.UUID) (*uuid.UUID, error) {
	user, err := s.users.GetByAssistantID(ctx, assistantID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.DoctorID == nil {
		return nil, nil
	}
	return user.DoctorID, nil
}
