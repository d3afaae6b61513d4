package admission

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Service provides admission and assignment operations.
type Service struct {
	admissions  AdmissionRepository
	assignments AssignmentRepository
}

func NewService(admissions AdmissionRepository, assignments AssignmentRepository) *Service {
	return &Service{admissions: admissions, assignments: assignments}
}

func (s *Service) CreateAdmission(ctx context.Context, a *Admission) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.LocationID == uuid.Nil {
		return fmt.Errorf("location_id is required")
	}
	if a.AdmissionDate.IsZero() {
		return fmt.Errorf("admission_date is required")
	}
	return s.admissions.Create(ctx, a)
}

// GetOpenAdmission returns the patient's open stay at a location, or nil.
func (s *Service) GetOpenAdmission(ctx context.Context, patientID, locationID uuid.UUID) (*Admission, error) {
	return s.admissions.GetOpenByPatientLocation(ctx, patientID, locationID)
}

func (s *Service) CreateAssignment(ctx context.Context, a *Assignment) error {
	if a.AdmissionID == uuid.Nil {
		return fmt.Errorf("admission_id is required")
	}
	if a.CaregiverID == uuid.Nil {
		return fmt.Errorf("caregiver_id is required")
	}
	if a.StartDate.IsZero() {
		return fmt.Errorf("start_date is required")
	}
	return s.assignments.Create(ctx, a)
}

// GetOpenAssignment returns the active assignment for an admission and
// caregiver pair, or nil.
func (s *Service) GetOpenAssignment(ctx context.Context, admissionID, caregiverID uuid.UUID) (*Assignment, error) {
	return s.assignments.GetOpenByAdmissionCaregiver(ctx, admissionID, caregiverID)
}

func (s *Service) ListAssignments(ctx context.Context, admissionID uuid.UUID) ([]*Assignment, error) {
	return s.assignments.ListByAdmission(ctx, admissionID)
}
