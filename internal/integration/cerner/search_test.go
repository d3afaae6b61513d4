package cerner

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chargecap/cernersync/internal/domain/identity"
)

type searchFixtures struct {
	*patientReconcilerFixtures
	search *SearchService
}

func newSearchFixtures() *searchFixtures {
	prf := newPatientReconcilerFixtures()
	identities := identity.NewService(prf.patients, prf.doctors, prf.assistants, prf.users)
	search := NewSearchService(nil, prf.stagingAppts, prf.stagingPatients, identities,
		prf.doctors, prf.assistants, prf.users, prf.reconciler, zerolog.Nop())
	return &searchFixtures{patientReconcilerFixtures: prf, search: search}
}

func TestBrowsePatients(t *testing.T) {
	f := newSearchFixtures()
	f.stagedPatient("PAT-1")
	f.stagedPatient("PAT-2")
	start := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	f.stagedAppt("APPT-1", "PAT-1", "DOC-1", start)
	f.stagedAppt("APPT-2", "PAT-2", "DOC-MISSING", start)

	result, err := f.search.BrowsePatients(context.Background(), f.accountID, "LOC-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Patients) != 1 {
		t.Fatalf("expected 1 browseable patient, got %d", len(result.Patients))
	}
	if result.Patients[0].ExternalID != "PAT-1" {
		t.Errorf("unexpected patient: %+v", result.Patients[0])
	}
	if result.Patients[0].DoctorName != "Wells, Dana" {
		t.Errorf("expected resolved doctor name, got %s", result.Patients[0].DoctorName)
	}
	if len(result.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(result.Conflicts))
	}
	if result.Conflicts[0].ExternalID != "PAT-2" || result.Conflicts[0].PractitionerExternalID != "DOC-MISSING" {
		t.Errorf("unexpected conflict: %+v", result.Conflicts[0])
	}
}

func TestBrowsePatientsMissingPractitionerIsConflict(t *testing.T) {
	f := newSearchFixtures()
	f.stagedPatient("PAT-1")
	row := f.stagedAppt("APPT-1", "PAT-1", "DOC-1", time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC))
	row.PractitionerExternalID = nil

	result, err := f.search.BrowsePatients(context.Background(), f.accountID, "LOC-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Patients) != 0 {
		t.Errorf("expected no browseable patients, got %+v", result.Patients)
	}
	if len(result.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(result.Conflicts))
	}
	if result.Conflicts[0].ExternalID != "PAT-1" || result.Conflicts[0].PractitionerExternalID != "" {
		t.Errorf("unexpected conflict: %+v", result.Conflicts[0])
	}
}

func TestBrowsePatientsResolvesAssistant(t *testing.T) {
	f := newSearchFixtures()
	f.stagedPatient("PAT-1")
	f.stagedAppt("APPT-1", "PAT-1", "ASST-1", time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC))

	asst := &identity.Assistant{AccountID: f.accountID, FirstName: "Ben", LastName: "Ito", ExternalID: strPtr("ASST-1")}
	_ = f.assistants.Create(context.Background(), asst)
	_ = f.users.Create(context.Background(), &identity.SystemUser{
		AccountID: f.accountID, Type: identity.UserTypeAssistant,
		FirstName: "Ben", LastName: "Ito",
		DoctorID: &f.doctor.ID, AssistantID: &asst.ID,
	})

	result, err := f.search.BrowsePatients(context.Background(), f.accountID, "LOC-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Patients) != 1 || len(result.Conflicts) != 0 {
		t.Fatalf("expected assistant to resolve through supervisor: %+v", result)
	}
	if result.Patients[0].DoctorName != "Wells, Dana" {
		t.Errorf("expected supervising doctor name, got %s", result.Patients[0].DoctorName)
	}
}

func TestBrowsePatientsExcludesIntegrated(t *testing.T) {
	f := newSearchFixtures()
	sp := f.stagedPatient("PAT-1")
	sp.Integrated = true
	f.stagedAppt("APPT-1", "PAT-1", "DOC-1", time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC))

	result, err := f.search.BrowsePatients(context.Background(), f.accountID, "LOC-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Patients) != 0 || len(result.Conflicts) != 0 {
		t.Errorf("expected integrated patient excluded: %+v", result)
	}
}

func TestSyncPatientsCreateNew(t *testing.T) {
	f := newSearchFixtures()
	sp := f.stagedPatient("PAT-1")
	f.stagedAppt("APPT-1", "PAT-1", "DOC-1", time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC))

	result, err := f.search.SyncPatients(txContext(), f.accountID, []PatientMapping{
		{StagingPatientID: sp.ID, CernerLocationID: "LOC-1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 1 {
		t.Errorf("expected 1 appointment created, got %d", result.Created)
	}
	if len(f.patients.patients) != 1 {
		t.Errorf("expected a new patient, got %d", len(f.patients.patients))
	}
	if !sp.Integrated {
		t.Error("expected staged patient retired")
	}
}

func TestSyncPatientsMapToExisting(t *testing.T) {
	f := newSearchFixtures()
	sp := f.stagedPatient("PAT-1")
	f.stagedAppt("APPT-1", "PAT-1", "DOC-1", time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC))

	manual := &identity.Patient{AccountID: f.accountID, FirstName: "M", LastName: "D", Gender: identity.GenderFemale}
	_ = f.patients.Create(context.Background(), manual)

	_, err := f.search.SyncPatients(txContext(), f.accountID, []PatientMapping{
		{StagingPatientID: sp.ID, CernerLocationID: "LOC-1", PatientID: &manual.ID, UpdateName: true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.patients.patients) != 1 {
		t.Errorf("expected no new patient, got %d", len(f.patients.patients))
	}
	if manual.ExternalID == nil || *manual.ExternalID != "PAT-1" {
		t.Error("expected the existing patient to be mapped")
	}
	if manual.FirstName != "Maria" || manual.LastName != "Diaz" {
		t.Errorf("expected name update from staging, got %s %s", manual.FirstName, manual.LastName)
	}
}

func TestSyncPatientsRejectsForeignAccount(t *testing.T) {
	f := newSearchFixtures()
	sp := f.stagedPatient("PAT-1")

	_, err := f.search.SyncPatients(txContext(), uuid.New(), []PatientMapping{
		{StagingPatientID: sp.ID, CernerLocationID: "LOC-1"},
	})
	if err == nil {
		t.Error("expected error for cross-account mapping")
	}
}

func TestSyncPatientsUnknownStagingPatient(t *testing.T) {
	f := newSearchFixtures()

	_, err := f.search.SyncPatients(txContext(), f.accountID, []PatientMapping{
		{StagingPatientID: uuid.New(), CernerLocationID: "LOC-1"},
	})
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestListUnmappedPatients(t *testing.T) {
	f := newSearchFixtures()
	_ = f.patients.Create(context.Background(), &identity.Patient{AccountID: f.accountID, FirstName: "Jo", LastName: "Smith", Gender: identity.GenderUnknown})
	_ = f.patients.Create(context.Background(), &identity.Patient{AccountID: f.accountID, FirstName: "Al", LastName: "Mapped", Gender: identity.GenderUnknown, ExternalID: strPtr("PAT-9")})

	items, err := f.search.ListUnmappedPatients(context.Background(), f.accountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].LastName != "Smith" {
		t.Errorf("expected only the unmapped patient, got %+v", items)
	}
}
