package cerner

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chargecap/cernersync/internal/domain/admin"
	"github.com/chargecap/cernersync/internal/domain/admission"
	"github.com/chargecap/cernersync/internal/domain/identity"
	"github.com/chargecap/cernersync/internal/platform/db"
)

// fakeTx satisfies pgx.Tx so tests can run transactional code paths
// against mock repositories. Repositories in these tests never touch
// the connection, only the context needs to carry a transaction.
type fakeTx struct{}

func (fakeTx) Begin(context.Context) (pgx.Tx, error) { return fakeTx{}, nil }
func (fakeTx) Commit(context.Context) error          { return nil }
func (fakeTx) Rollback(context.Context) error        { return nil }
func (fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (fakeTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (fakeTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (fakeTx) Conn() *pgx.Conn                                         { return nil }

func txContext() context.Context {
	return context.WithValue(context.Background(), db.TxKey, pgx.Tx(fakeTx{}))
}

func strPtr(s string) *string        { return &s }
func timePtr(t time.Time) *time.Time { return &t }

// -- Staging mocks --

type mockStagingApptRepo struct {
	rows []*StagingAppointment
}

func (m *mockStagingApptRepo) Create(_ context.Context, a *StagingAppointment) error {
	a.ID = uuid.New()
	m.rows = append(m.rows, a)
	return nil
}

func (m *mockStagingApptRepo) GetByExternalID(_ context.Context, accountID uuid.UUID, externalID string) (*StagingAppointment, error) {
	for _, a := range m.rows {
		if a.AccountID == accountID && a.ExternalID == externalID {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockStagingApptRepo) ListUnintegratedByLocation(_ context.Context, accountID uuid.UUID, locationExternalID string) ([]*StagingAppointment, error) {
	var result []*StagingAppointment
	for _, a := range m.rows {
		if a.AccountID == accountID && !a.Integrated &&
			a.LocationExternalID != nil && *a.LocationExternalID == locationExternalID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockStagingApptRepo) ListUnintegratedByPatient(_ context.Context, accountID uuid.UUID, patientExternalID string) ([]*StagingAppointment, error) {
	var result []*StagingAppointment
	for _, a := range m.rows {
		if a.AccountID == accountID && !a.Integrated &&
			a.PatientExternalID != nil && *a.PatientExternalID == patientExternalID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockStagingApptRepo) ListUnintegratedByPatientLocation(_ context.Context, accountID uuid.UUID, patientExternalID, locationExternalID string) ([]*StagingAppointment, error) {
	var result []*StagingAppointment
	for _, a := range m.rows {
		if a.AccountID == accountID && !a.Integrated &&
			a.PatientExternalID != nil && *a.PatientExternalID == patientExternalID &&
			a.LocationExternalID != nil && *a.LocationExternalID == locationExternalID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockStagingApptRepo) DistinctPatientPractitioners(_ context.Context, accountID uuid.UUID, locationExternalID string) ([]PatientPractitionerRef, error) {
	seen := make(map[PatientPractitionerRef]bool)
	var result []PatientPractitionerRef
	for _, a := range m.rows {
		if a.AccountID != accountID || a.Integrated ||
			a.PatientExternalID == nil ||
			a.LocationExternalID == nil || *a.LocationExternalID != locationExternalID {
			continue
		}
		practitioner := ""
		if a.PractitionerExternalID != nil {
			practitioner = *a.PractitionerExternalID
		}
		ref := PatientPractitionerRef{*a.PatientExternalID, practitioner}
		if !seen[ref] {
			seen[ref] = true
			result = append(result, ref)
		}
	}
	return result, nil
}

func (m *mockStagingApptRepo) SetIntegrated(_ context.Context, id uuid.UUID) error {
	for _, a := range m.rows {
		if a.ID == id {
			a.Integrated = true
			return nil
		}
	}
	return fmt.Errorf("not found")
}

type mockStagingPatientRepo struct {
	rows []*StagingPatient
}

func (m *mockStagingPatientRepo) Create(_ context.Context, p *StagingPatient) error {
	p.ID = uuid.New()
	for _, addr := range p.Addresses {
		addr.ID = uuid.New()
		addr.StagingPatientID = p.ID
	}
	m.rows = append(m.rows, p)
	return nil
}

func (m *mockStagingPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*StagingPatient, error) {
	for _, p := range m.rows {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockStagingPatientRepo) GetByExternalID(_ context.Context, accountID uuid.UUID, externalID string) (*StagingPatient, error) {
	for _, p := range m.rows {
		if p.AccountID == accountID && p.ExternalID == externalID {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockStagingPatientRepo) SetIntegrated(_ context.Context, id uuid.UUID) error {
	for _, p := range m.rows {
		if p.ID == id {
			p.Integrated = true
			return nil
		}
	}
	return fmt.Errorf("not found")
}

type mockEndpointRepo struct {
	provider  *ProviderConfig
	endpoints map[uuid.UUID]*EndpointConfig
	advanced  map[uuid.UUID]time.Time
}

func newMockEndpointRepo() *mockEndpointRepo {
	return &mockEndpointRepo{
		endpoints: make(map[uuid.UUID]*EndpointConfig),
		advanced:  make(map[uuid.UUID]time.Time),
	}
}

func (m *mockEndpointRepo) GetProvider(_ context.Context, provider string) (*ProviderConfig, error) {
	if m.provider != nil && m.provider.Provider == provider {
		return m.provider, nil
	}
	return nil, nil
}

func (m *mockEndpointRepo) GetEndpoint(_ context.Context, providerConfigID, locationID uuid.UUID) (*EndpointConfig, error) {
	e, ok := m.endpoints[locationID]
	if !ok || e.ProviderConfigID != providerConfigID {
		return nil, nil
	}
	return e, nil
}

func (m *mockEndpointRepo) UpdateLastSyncDate(_ context.Context, endpointID uuid.UUID, syncDate time.Time) error {
	m.advanced[endpointID] = syncDate
	return nil
}

// -- Remote mocks --

type mockRemoteClient struct {
	appts      []*WireAppointment
	patients   map[string]*WirePatient
	lastParams url.Values
	failFor    string
}

func (m *mockRemoteClient) SearchAppointments(_ context.Context, _, _ string, params url.Values) ([]*WireAppointment, error) {
	m.lastParams = params
	if m.failFor != "" && params.Get("location") == m.failFor {
		return nil, fmt.Errorf("upstream unavailable")
	}
	return m.appts, nil
}

func (m *mockRemoteClient) GetPatient(_ context.Context, _, _, id string) (*WirePatient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, fmt.Errorf("patient %s not found", id)
	}
	return p, nil
}

type mockTokenProvider struct {
	token *Token
}

func (m *mockTokenProvider) GetToken(context.Context, uuid.UUID) (*Token, error) {
	return m.token, nil
}

// -- Identity mocks --

type mockPatientRepo struct {
	patients []*identity.Patient
}

func (m *mockPatientRepo) Create(_ context.Context, p *identity.Patient) error {
	p.ID = uuid.New()
	m.patients = append(m.patients, p)
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*identity.Patient, error) {
	for _, p := range m.patients {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockPatientRepo) GetByExternalID(_ context.Context, accountID uuid.UUID, externalID string) (*identity.Patient, error) {
	for _, p := range m.patients {
		if p.AccountID == accountID && p.ExternalID != nil && *p.ExternalID == externalID {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockPatientRepo) ListUnmapped(_ context.Context, accountID uuid.UUID) ([]*identity.Patient, error) {
	var result []*identity.Patient
	for _, p := range m.patients {
		if p.AccountID == accountID && p.ExternalID == nil {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockPatientRepo) Update(_ context.Context, p *identity.Patient) error {
	for i, old := range m.patients {
		if old.ID == p.ID {
			m.patients[i] = p
			return nil
		}
	}
	return fmt.Errorf("not found")
}

type mockDoctorRepo struct {
	doctors []*identity.Doctor
}

func (m *mockDoctorRepo) Create(_ context.Context, d *identity.Doctor) error {
	d.ID = uuid.New()
	m.doctors = append(m.doctors, d)
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*identity.Doctor, error) {
	for _, d := range m.doctors {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockDoctorRepo) GetByExternalID(_ context.Context, accountID uuid.UUID, externalID string) (*identity.Doctor, error) {
	for _, d := range m.doctors {
		if d.AccountID == accountID && d.ExternalID != nil && *d.ExternalID == externalID {
			return d, nil
		}
	}
	return nil, nil
}

type mockAssistantRepo struct {
	assistants []*identity.Assistant
}

func (m *mockAssistantRepo) Create(_ context.Context, a *identity.Assistant) error {
	a.ID = uuid.New()
	m.assistants = append(m.assistants, a)
	return nil
}

func (m *mockAssistantRepo) GetByExternalID(_ context.Context, accountID uuid.UUID, externalID string) (*identity.Assistant, error) {
	for _, a := range m.assistants {
		if a.AccountID == accountID && a.ExternalID != nil && *a.ExternalID == externalID {
			return a, nil
		}
	}
	return nil, nil
}

type mockSystemUserRepo struct {
	users []*identity.SystemUser
}

func (m *mockSystemUserRepo) Create(_ context.Context, u *identity.SystemUser) error {
	u.ID = uuid.New()
	m.users = append(m.users, u)
	return nil
}

func (m *mockSystemUserRepo) GetByAssistantID(_ context.Context, assistantID uuid.UUID) (*identity.SystemUser, error) {
	for _, u := range m.users {
		if u.Type == identity.UserTypeAssistant && u.AssistantID != nil && *u.AssistantID == assistantID {
			return u, nil
		}
	}
	return nil, nil
}

// -- Admin mocks --

type mockAccountRepo struct {
	accounts []*admin.Account
}

func (m *mockAccountRepo) Create(_ context.Context, a *admin.Account) error {
	a.ID = uuid.New()
	m.accounts = append(m.accounts, a)
	return nil
}

func (m *mockAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*admin.Account, error) {
	for _, a := range m.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockAccountRepo) ListActive(_ context.Context) ([]*admin.Account, error) {
	return m.accounts, nil
}

type mockLocationRepo struct {
	locations []*admin.Location
}

func (m *mockLocationRepo) Create(_ context.Context, l *admin.Location) error {
	l.ID = uuid.New()
	m.locations = append(m.locations, l)
	return nil
}

func (m *mockLocationRepo) GetByID(_ context.Context, id uuid.UUID) (*admin.Location, error) {
	for _, l := range m.locations {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockLocationRepo) GetByExternalID(_ context.Context, accountID uuid.UUID, externalID string) (*admin.Location, error) {
	for _, l := range m.locations {
		if l.AccountID == accountID && l.ExternalID != nil && *l.ExternalID == externalID {
			return l, nil
		}
	}
	return nil, nil
}

func (m *mockLocationRepo) ListSynced(_ context.Context, accountID uuid.UUID) ([]*admin.Location, error) {
	var result []*admin.Location
	for _, l := range m.locations {
		if l.AccountID == accountID && l.ExternalID != nil {
			result = append(result, l)
		}
	}
	return result, nil
}

func (m *mockLocationRepo) Update(_ context.Context, l *admin.Location) error { return nil }

type mockStateRepo struct {
	states map[string]*admin.State
}

func newMockStateRepo() *mockStateRepo { return &mockStateRepo{states: make(map[string]*admin.State)} }

func (m *mockStateRepo) GetByAbbr(_ context.Context, abbr string) (*admin.State, error) {
	return m.states[abbr], nil
}

func (m *mockStateRepo) List(_ context.Context) ([]*admin.State, error) { return nil, nil }

// -- Admission mocks --

type mockAdmissionRepo struct {
	admissions []*admission.Admission
}

func (m *mockAdmissionRepo) Create(_ context.Context, a *admission.Admission) error {
	a.ID = uuid.New()
	m.admissions = append(m.admissions, a)
	return nil
}

func (m *mockAdmissionRepo) GetByID(_ context.Context, id uuid.UUID) (*admission.Admission, error) {
	for _, a := range m.admissions {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockAdmissionRepo) GetOpenByPatientLocation(_ context.Context, patientID, locationID uuid.UUID) (*admission.Admission, error) {
	for _, a := range m.admissions {
		if a.PatientID == patientID && a.LocationID == locationID && a.DischargeDate == nil {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockAdmissionRepo) Update(_ context.Context, a *admission.Admission) error { return nil }

type mockAssignmentRepo struct {
	assignments []*admission.Assignment
}

func (m *mockAssignmentRepo) Create(_ context.Context, a *admission.Assignment) error {
	a.ID = uuid.New()
	m.assignments = append(m.assignments, a)
	return nil
}

func (m *mockAssignmentRepo) GetOpenByAdmissionCaregiver(_ context.Context, admissionID, caregiverID uuid.UUID) (*admission.Assignment, error) {
	for _, a := range m.assignments {
		if a.AdmissionID == admissionID && a.CaregiverID == caregiverID && a.EndDate == nil {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockAssignmentRepo) ListByAdmission(_ context.Context, admissionID uuid.UUID) ([]*admission.Assignment, error) {
	var result []*admission.Assignment
	for _, a := range m.assignments {
		if a.AdmissionID == admissionID {
			result = append(result, a)
		}
	}
	return result, nil
}
