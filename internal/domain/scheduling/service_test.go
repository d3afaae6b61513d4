package scheduling

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockAppointmentRepo struct {
	appts map[uuid.UUID]*Appointment
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()
	for _, p := range a.Participants {
		p.ID = uuid.New()
		p.AppointmentID = a.ID
	}
	m.appts[a.ID] = a
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return a, nil
}

func (m *mockAppointmentRepo) GetByExternalID(_ context.Context, accountID uuid.UUID, externalID string) (*Appointment, error) {
	for _, a := range m.appts {
		if a.AccountID == accountID && a.ExternalID != nil && *a.ExternalID == externalID {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockAppointmentRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	var result []*Appointment
	for _, a := range m.appts {
		for _, p := range a.Participants {
			if p.PatientID != nil && *p.PatientID == patientID {
				result = append(result, a)
				break
			}
		}
	}
	return result, nil
}

// -- Tests --

func strPtr(s string) *string { return &s }

func integratedAppointment(accountID uuid.UUID, externalID string) *Appointment {
	patientID := uuid.New()
	doctorID := uuid.New()
	locationID := uuid.New()
	return &Appointment{
		AccountID:  accountID,
		Status:     StatusBooked,
		Reason:     strPtr("Annual exam"),
		ExternalID: strPtr(externalID),
		Participants: []*Participant{
			{Type: ParticipantPatient, PatientID: &patientID, Required: true},
			{Type: ParticipantProvider, DoctorID: &doctorID, Required: true},
			{Type: ParticipantLocation, LocationID: &locationID, Required: true},
		},
	}
}

func TestCreateRejectsInvalidStatus(t *testing.T) {
	svc := NewService(newMockAppointmentRepo())

	a := &Appointment{AccountID: uuid.New(), Status: "scheduled"}
	if err := svc.Create(context.Background(), a); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestCreateRejectsInvalidParticipantType(t *testing.T) {
	svc := NewService(newMockAppointmentRepo())

	a := integratedAppointment(uuid.New(), "APPT-1")
	a.Participants[0].Type = "device"
	if err := svc.Create(context.Background(), a); err == nil {
		t.Error("expected error for invalid participant type")
	}
}

func TestCreateIntegrated(t *testing.T) {
	repo := newMockAppointmentRepo()
	svc := NewService(repo)
	accountID := uuid.New()

	batch := []*Appointment{
		integratedAppointment(accountID, "APPT-1"),
		integratedAppointment(accountID, "APPT-2"),
	}
	ids, err := svc.CreateIntegrated(context.Background(), batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
	for i, id := range ids {
		if id == uuid.Nil {
			t.Errorf("expected appointment %d to be created", i)
		}
	}
	if len(repo.appts) != 2 {
		t.Errorf("expected 2 stored appointments, got %d", len(repo.appts))
	}
}

func TestCreateIntegratedAllowsUnsetStatus(t *testing.T) {
	repo := newMockAppointmentRepo()
	svc := NewService(repo)
	accountID := uuid.New()

	a := integratedAppointment(accountID, "APPT-1")
	a.Status = ""
	ids, err := svc.CreateIntegrated(context.Background(), []*Appointment{a})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids[0] == uuid.Nil {
		t.Error("expected appointment with unset status to be created")
	}
	if repo.appts[ids[0]].Status != "" {
		t.Errorf("expected status to stay unset, got %q", repo.appts[ids[0]].Status)
	}
}

func TestCreateIntegratedSkipsDuplicates(t *testing.T) {
	repo := newMockAppointmentRepo()
	svc := NewService(repo)
	accountID := uuid.New()

	first := []*Appointment{integratedAppointment(accountID, "APPT-1")}
	if _, err := svc.CreateIntegrated(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	again := []*Appointment{
		integratedAppointment(accountID, "APPT-1"),
		integratedAppointment(accountID, "APPT-2"),
	}
	ids, err := svc.CreateIntegrated(context.Background(), again)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids[0] != uuid.Nil {
		t.Error("expected duplicate external ID to be skipped")
	}
	if ids[1] == uuid.Nil {
		t.Error("expected new appointment to be created")
	}
	if len(repo.appts) != 2 {
		t.Errorf("expected 2 stored appointments, got %d", len(repo.appts))
	}
}

func TestCreateIntegratedRequiresExternalID(t *testing.T) {
	svc := NewService(newMockAppointmentRepo())

	a := integratedAppointment(uuid.New(), "APPT-1")
	a.ExternalID = nil
	if _, err := svc.CreateIntegrated(context.Background(), []*Appointment{a}); err == nil {
		t.Error("expected error for missing external_id")
	}
}
