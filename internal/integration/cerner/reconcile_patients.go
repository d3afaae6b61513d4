package cerner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/chargecap/cernersync/internal/domain/admin"
	"github.com/chargecap/cernersync/internal/domain/admission"
	"github.com/chargecap/cernersync/internal/domain/identity"
	"github.com/chargecap/cernersync/internal/platform/db"
)

// PatientReconciler promotes a staged patient into the domain: the
// patient record itself, an open admission per location, doctor
// assignments derived from staged appointments, and finally the
// appointments themselves.
type PatientReconciler struct {
	pool            *pgxpool.Pool
	staging         *StagingService
	stagingPatients StagingPatientRepository
	stagingAppts    StagingAppointmentRepository
	patients        identity.PatientRepository
	doctors         identity.DoctorRepository
	assistants      identity.AssistantRepository
	users           identity.SystemUserRepository
	states          admin.StateRepository
	locations       admin.LocationRepository
	stays           *admission.Service
	appointments    *AppointmentReconciler
	logger          zerolog.Logger
}

func NewPatientReconciler(
	pool *pgxpool.Pool,
	staging *StagingService,
	stagingPatients StagingPatientRepository,
	stagingAppts StagingAppointmentRepository,
	patients identity.PatientRepository,
	doctors identity.DoctorRepository,
	assistants identity.AssistantRepository,
	users identity.SystemUserRepository,
	states admin.StateRepository,
	locations admin.LocationRepository,
	stays *admission.Service,
	appointments *AppointmentReconciler,
	logger zerolog.Logger,
) *PatientReconciler {
	return &PatientReconciler{
		pool:            pool,
		staging:         staging,
		stagingPatients: stagingPatients,
		stagingAppts:    stagingAppts,
		patients:        patients,
		doctors:         doctors,
		assistants:      assistants,
		users:           users,
		states:          states,
		locations:       locations,
		stays:           stays,
		appointments:    appointments,
		logger:          logger.With().Str("component", "patient_reconciler").Logger(),
	}
}

// ReconcileToAdmission consumes one staged patient against a location.
// Everything runs in a single transaction: the patient is created or
// reused by external identifier, an open admission is found or created,
// assignments are derived from the staged appointments' practitioners,
// the staged patient is retired, and the patient's staged appointments
// are reconciled. A derivation that cannot resolve is skipped and
// reported, never fatal.
func (r *PatientReconciler) ReconcileToAdmission(ctx context.Context, stagingPatientID uuid.UUID, locationExternalID string) (uuid.UUID, *ReconcileResult, error) {
	var patientID uuid.UUID
	result := &ReconcileResult{}

	err := db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		sp, err := r.stagingPatients.GetByID(ctx, stagingPatientID)
		if err != nil {
			return fmt.Errorf("load staging patient %s: %w", stagingPatientID, err)
		}
		if sp == nil {
			return fmt.Errorf("staging patient %s not found", stagingPatientID)
		}

		existing, err := r.patients.GetByExternalID(ctx, sp.AccountID, sp.ExternalID)
		if err != nil {
			return fmt.Errorf("resolve patient %s: %w", sp.ExternalID, err)
		}
		patient := existing
		if patient == nil {
			patient, err = r.buildPatient(ctx, sp)
			if err != nil {
				return err
			}
			if err := r.patients.Create(ctx, patient); err != nil {
				return fmt.Errorf("create patient %s: %w", sp.ExternalID, err)
			}
		}
		patientID = patient.ID

		rows, err := r.stagingAppts.ListUnintegratedByPatientLocation(ctx, sp.AccountID, sp.ExternalID, locationExternalID)
		if err != nil {
			return fmt.Errorf("list staged appointments: %w", err)
		}

		location, err := r.locations.GetByExternalID(ctx, sp.AccountID, locationExternalID)
		if err != nil {
			return fmt.Errorf("resolve location %s: %w", locationExternalID, err)
		}
		if location == nil {
			result.Skipped = append(result.Skipped, SkippedItem{sp.ExternalID, "unresolved location: " + locationExternalID})
		} else if len(rows) > 0 {
			if err := r.reconcileStay(ctx, sp, patient, existing != nil, location, rows, result); err != nil {
				return err
			}
		}

		if _, err := r.staging.MarkPatientIntegrated(ctx, sp); err != nil {
			return fmt.Errorf("mark patient %s integrated: %w", sp.ExternalID, err)
		}

		apptRows, err := r.stagingAppts.ListUnintegratedByPatient(ctx, sp.AccountID, sp.ExternalID)
		if err != nil {
			return fmt.Errorf("list patient appointments: %w", err)
		}
		apptResult, err := r.appointments.Reconcile(ctx, apptRows)
		if err != nil {
			return err
		}
		result.Created = apptResult.Created
		result.Skipped = append(result.Skipped, apptResult.Skipped...)
		return nil
	})
	if err != nil {
		return uuid.Nil, nil, err
	}

	r.logger.Info().
		Str("patient_id", patientID.String()).
		Int("appointments_created", result.Created).
		Int("skipped", len(result.Skipped)).
		Msg("reconciled staged patient")
	return patientID, result, nil
}

// reconcileStay finds or creates the patient's open stay at the
// location and derives one active assignment per resolved practitioner.
// A new stay's admission date follows the latest derived assignment.
func (r *PatientReconciler) reconcileStay(ctx context.Context, sp *StagingPatient, patient *identity.Patient, patientExisted bool, location *admin.Location, rows []*StagingAppointment, result *ReconcileResult) error {
	var stay *admission.Admission
	var err error
	if patientExisted {
		stay, err = r.stays.GetOpenAdmission(ctx, patient.ID, location.ID)
		if err != nil {
			return fmt.Errorf("find open admission: %w", err)
		}
	}
	newStay := stay == nil
	if newStay {
		stay = &admission.Admission{
			AccountID:     sp.AccountID,
			PatientID:     patient.ID,
			LocationID:    location.ID,
			AdmissionDate: latestStart(rows),
		}
	}

	var pending []*admission.Assignment
	for _, group := range groupByPractitioner(rows) {
		caregiverID, supervisorID, reason, err := r.resolveCaregiver(ctx, sp.AccountID, group.practitioner)
		if err != nil {
			return err
		}
		if reason != "" {
			result.Skipped = append(result.Skipped, SkippedItem{sp.ExternalID, reason})
			continue
		}
		if !newStay {
			active, err := r.stays.GetOpenAssignment(ctx, stay.ID, caregiverID)
			if err != nil {
				return fmt.Errorf("find open assignment: %w", err)
			}
			if active != nil {
				continue
			}
		}
		pending = append(pending, &admission.Assignment{
			CaregiverID:  caregiverID,
			SupervisorID: supervisorID,
			StartDate:    latestStart(group.rows),
		})
	}

	if newStay {
		if len(pending) > 0 {
			latest := pending[0].StartDate
			for _, a := range pending[1:] {
				if a.StartDate.After(latest) {
					latest = a.StartDate
				}
			}
			stay.AdmissionDate = latest
		}
		if stay.AdmissionDate.IsZero() {
			stay.AdmissionDate = sp.SyncDate
		}
		if err := r.stays.CreateAdmission(ctx, stay); err != nil {
			return fmt.Errorf("create admission: %w", err)
		}
	}
	for _, a := range pending {
		a.AdmissionID = stay.ID
		if err := r.stays.CreateAssignment(ctx, a); err != nil {
			return fmt.Errorf("create assignment: %w", err)
		}
	}
	return nil
}

// resolveCaregiver maps a practitioner reference to the caregiver who
// carries the assignment. A doctor carries it directly; an assistant
// carries it itself with the supervising doctor resolved through its
// system user. A non-empty reason means skip.
func (r *PatientReconciler) resolveCaregiver(ctx context.Context, accountID uuid.UUID, practitionerExternalID string) (uuid.UUID, *uuid.UUID, string, error) {
	if practitionerExternalID == "" {
		return uuid.Nil, nil, "missing practitioner reference", nil
	}
	doctor, err := r.doctors.GetByExternalID(ctx, accountID, practitionerExternalID)
	if err != nil {
		return uuid.Nil, nil, "", fmt.Errorf("resolve doctor %s: %w", practitionerExternalID, err)
	}
	if doctor != nil {
		return doctor.ID, nil, "", nil
	}
	assistant, err := r.assistants.GetByExternalID(ctx, accountID, practitionerExternalID)
	if err != nil {
		return uuid.Nil, nil, "", fmt.Errorf("resolve assistant %s: %w", practitionerExternalID, err)
	}
	if assistant == nil {
		return uuid.Nil, nil, "unresolved practitioner: " + practitionerExternalID, nil
	}
	user, err := r.users.GetByAssistantID(ctx, assistant.ID)
	if err != nil {
		return uuid.Nil, nil, "", fmt.Errorf("resolve assistant user %s: %w", practitionerExternalID, err)
	}
	if user == nil || user.DoctorID == nil {
		return uuid.Nil, nil, "unresolvable supervisor for assistant: " + practitionerExternalID, nil
	}
	return assistant.ID, user.DoctorID, "", nil
}

// buildPatient maps a staged patient to a domain patient, resolving the
// address state and attaching contact details only when any exist.
func (r *PatientReconciler) buildPatient(ctx context.Context, sp *StagingPatient) (*identity.Patient, error) {
	p := &identity.Patient{
		AccountID:   sp.AccountID,
		MiddleName:  sp.MiddleName,
		Prefix:      sp.Prefix,
		Suffix:      sp.Suffix,
		DateOfBirth: sp.DateOfBirth,
		Gender:      sp.Gender,
	}
	ext := sp.ExternalID
	p.ExternalID = &ext
	if sp.FirstName != nil {
		p.FirstName = *sp.FirstName
	}
	if sp.LastName != nil {
		p.LastName = *sp.LastName
	}
	if sp.PrimaryPhone != nil || sp.Fax != nil || sp.Email != nil {
		p.Contact = &identity.Contact{
			PrimaryPhone: sp.PrimaryPhone,
			Fax:          sp.Fax,
			Email:        sp.Email,
		}
	}
	if len(sp.Addresses) > 0 {
		a := sp.Addresses[0]
		addr := &identity.Address{
			Address1: a.Address1,
			Address2: a.Address2,
			CityName: a.CityName,
			ZipCode:  a.ZipCode,
		}
		if a.StateAbbr != nil {
			state, err := r.states.GetByAbbr(ctx, *a.StateAbbr)
			if err != nil {
				return nil, fmt.Errorf("resolve state %s: %w", *a.StateAbbr, err)
			}
			if state != nil {
				addr.StateID = &state.ID
			}
		}
		p.Address = addr
	}
	return p, nil
}

type practitionerGroup struct {
	practitioner string
	rows         []*StagingAppointment
}

// groupByPractitioner partitions rows by practitioner reference in
// first-seen order. Rows without one land in a group with an empty key.
func groupByPractitioner(rows []*StagingAppointment) []practitionerGroup {
	index := make(map[string]int)
	var groups []practitionerGroup
	for _, row := range rows {
		key := ""
		if row.PractitionerExternalID != nil {
			key = *row.PractitionerExternalID
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, practitionerGroup{practitioner: key})
		}
		groups[i].rows = append(groups[i].rows, row)
	}
	return groups
}

// latestStart returns the most recent start time in rows, falling back
// to the newest sync date when none carry one.
func latestStart(rows []*StagingAppointment) (latest time.Time) {
	for _, row := range rows {
		if row.StartTime != nil && row.StartTime.After(latest) {
			latest = *row.StartTime
		}
	}
	if latest.IsZero() {
		for _, row := range rows {
			if row.SyncDate.After(latest) {
				latest = row.SyncDate
			}
		}
	}
	return latest
}
