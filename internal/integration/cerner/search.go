package cerner

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/chargecap/cernersync/internal/domain/identity"
	"github.com/chargecap/cernersync/internal/platform/db"
)

// PatientBrowse is one staged patient awaiting mapping, shown with the
// practitioner observed on its staged appointments.
type PatientBrowse struct {
	StagingPatientID       uuid.UUID `json:"staging_patient_id"`
	ExternalID             string    `json:"external_id"`
	FirstName              string    `json:"first_name"`
	LastName               string    `json:"last_name"`
	CernerLocationID       string    `json:"cerner_location_id"`
	PractitionerExternalID string    `json:"practitioner_external_id"`
	DoctorName             string    `json:"doctor_name,omitempty"`
}

// PatientSearchResult splits browseable staged patients from conflicts,
// pairs whose practitioner cannot be resolved to a doctor and therefore
// cannot be synced as-is.
type PatientSearchResult struct {
	Patients  []PatientBrowse `json:"patients"`
	Conflicts []PatientBrowse `json:"conflicts"`
}

// PatientMapping is one operator decision from the mapping screen.
// A nil PatientID means "create a new patient from staging"; otherwise
// the staged identity attaches to the named existing patient.
type PatientMapping struct {
	StagingPatientID uuid.UUID  `json:"staging_patient_id"`
	CernerLocationID string     `json:"cerner_location_id"`
	PatientID        *uuid.UUID `json:"patient_id,omitempty"`
	UpdateName       bool       `json:"update_name"`
}

// SearchService backs the operator-facing patient mapping surface.
type SearchService struct {
	pool            *pgxpool.Pool
	stagingAppts    StagingAppointmentRepository
	stagingPatients StagingPatientRepository
	identities      *identity.Service
	doctors         identity.DoctorRepository
	assistants      identity.AssistantRepository
	users           identity.SystemUserRepository
	reconciler      *PatientReconciler
	logger          zerolog.Logger
}

func NewSearchService(pool *pgxpool.Pool, stagingAppts StagingAppointmentRepository, stagingPatients StagingPatientRepository, identities *identity.Service, doctors identity.DoctorRepository, assistants identity.AssistantRepository, users identity.SystemUserRepository, reconciler *PatientReconciler, logger zerolog.Logger) *SearchService {
	return &SearchService{
		pool:            pool,
		stagingAppts:    stagingAppts,
		stagingPatients: stagingPatients,
		identities:      identities,
		doctors:         doctors,
		assistants:      assistants,
		users:           users,
		reconciler:      reconciler,
		logger:          logger.With().Str("component", "cerner_search").Logger(),
	}
}

// BrowsePatients lists the location's staged patients still awaiting
// integration. Pairs whose practitioner resolves to a doctor (directly
// or through an assistant's supervisor) are browseable; the rest are
// conflicts for the operator to resolve.
func (s *SearchService) BrowsePatients(ctx context.Context, accountID uuid.UUID, locationExternalID string) (*PatientSearchResult, error) {
	refs, err := s.stagingAppts.DistinctPatientPractitioners(ctx, accountID, locationExternalID)
	if err != nil {
		return nil, fmt.Errorf("list staged pairs: %w", err)
	}

	result := &PatientSearchResult{}
	for _, ref := range refs {
		sp, err := s.stagingPatients.GetByExternalID(ctx, accountID, ref.PatientExternalID)
		if err != nil {
			return nil, fmt.Errorf("load staging patient %s: %w", ref.PatientExternalID, err)
		}
		if sp == nil || sp.Integrated {
			continue
		}
		item := PatientBrowse{
			StagingPatientID:       sp.ID,
			ExternalID:             sp.ExternalID,
			CernerLocationID:       locationExternalID,
			PractitionerExternalID: ref.PractitionerExternalID,
		}
		if sp.FirstName != nil {
			item.FirstName = *sp.FirstName
		}
		if sp.LastName != nil {
			item.LastName = *sp.LastName
		}

		// A staged appointment without a practitioner still surfaces its
		// patient, as a conflict the operator has to resolve.
		if ref.PractitionerExternalID == "" {
			result.Conflicts = append(result.Conflicts, item)
			continue
		}

		doctor, err := s.resolveDoctor(ctx, accountID, ref.PractitionerExternalID)
		if err != nil {
			return nil, err
		}
		if doctor == nil {
			result.Conflicts = append(result.Conflicts, item)
			continue
		}
		item.DoctorName = doctor.LastName + ", " + doctor.FirstName
		result.Patients = append(result.Patients, item)
	}
	return result, nil
}

// resolveDoctor follows the same chain as reconciliation: a doctor by
// external identifier, or an assistant's supervising doctor.
func (s *SearchService) resolveDoctor(ctx context.Context, accountID uuid.UUID, practitionerExternalID string) (*identity.Doctor, error) {
	doctor, err := s.doctors.GetByExternalID(ctx, accountID, practitionerExternalID)
	if err != nil {
		return nil, fmt.Errorf("resolve doctor %s: %w", practitionerExternalID, err)
	}
	if doctor != nil {
		return doctor, nil
	}
	assistant, err := s.assistants.GetByExternalID(ctx, accountID, practitionerExternalID)
	if err != nil {
		return nil, fmt.Errorf("resolve assistant %s: %w", practitionerExternalID, err)
	}
	if assistant == nil {
		return nil, nil
	}
	user, err := s.users.GetByAssistantID(ctx, assistant.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve assistant user %s: %w", practitionerExternalID, err)
	}
	if user == nil || user.DoctorID == nil {
		return nil, nil
	}
	return s.doctors.GetByID(ctx, *user.DoctorID)
}

// ListUnmappedPatients returns the account's patients without a Cerner
// identifier, the targets for manual mapping.
func (s *SearchService) ListUnmappedPatients(ctx context.Context, accountID uuid.UUID) ([]*identity.Patient, error) {
	return s.identities.ListUnmappedPatients(ctx, accountID)
}

// SyncPatients applies operator mapping decisions. Every mapping runs
// in one transaction: attach-to-existing mappings update the patient
// record first, then each staged patient reconciles to its admission.
func (s *SearchService) SyncPatients(ctx context.Context, accountID uuid.UUID, mappings []PatientMapping) (*ReconcileResult, error) {
	combined := &ReconcileResult{}
	err := db.RunInTx(ctx, s.pool, func(ctx context.Context) error {
		for _, m := range mappings {
			sp, err := s.stagingPatients.GetByID(ctx, m.StagingPatientID)
			if err != nil {
				return fmt.Errorf("load staging patient %s: %w", m.StagingPatientID, err)
			}
			if sp == nil {
				return fmt.Errorf("staging patient %s not found", m.StagingPatientID)
			}
			if sp.AccountID != accountID {
				return fmt.Errorf("staging patient %s belongs to another account", m.StagingPatientID)
			}
			if m.PatientID != nil {
				first, last := "", ""
				if sp.FirstName != nil {
					first = *sp.FirstName
				}
				if sp.LastName != nil {
					last = *sp.LastName
				}
				if _, err := s.identities.MapPatient(ctx, *m.PatientID, sp.ExternalID, first, last, m.UpdateName); err != nil {
					return fmt.Errorf("map patient %s: %w", m.StagingPatientID, err)
				}
			}
			_, result, err := s.reconciler.ReconcileToAdmission(ctx, m.StagingPatientID, m.CernerLocationID)
			if err != nil {
				return err
			}
			combined.Created += result.Created
			combined.Skipped = append(combined.Skipped, result.Skipped...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return combined, nil
}
