package cerner

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chargecap/cernersync/internal/domain/admin"
	"github.com/chargecap/cernersync/internal/domain/identity"
	"github.com/chargecap/cernersync/internal/domain/scheduling"
)

// DefaultReason fills appointments whose remote record carries none.
const DefaultReason = "Integrated from cerner"

var statusFromCerner = map[string]string{
	"proposed":  scheduling.StatusProposed,
	"pending":   scheduling.StatusPending,
	"booked":    scheduling.StatusBooked,
	"arrived":   scheduling.StatusArrived,
	"fulfilled": scheduling.StatusFulfilled,
	"cancelled": scheduling.StatusCancelled,
	"noshow":    scheduling.StatusNoShow,
}

// SkippedItem records a staged row reconciliation could not consume.
type SkippedItem struct {
	ExternalID string `json:"external_id"`
	Reason     string `json:"reason"`
}

// ReconcileResult reports one reconciliation pass.
type ReconcileResult struct {
	Created int           `json:"created"`
	Skipped []SkippedItem `json:"skipped,omitempty"`
}

// AppointmentReconciler turns staged appointments into domain
// appointments with their three required participants.
type AppointmentReconciler struct {
	staging   *StagingService
	patients  identity.PatientRepository
	doctors   identity.DoctorRepository
	locations admin.LocationRepository
	scheduler *scheduling.Service
	logger    zerolog.Logger
}

func NewAppointmentReconciler(staging *StagingService, patients identity.PatientRepository, doctors identity.DoctorRepository, locations admin.LocationRepository, scheduler *scheduling.Service, logger zerolog.Logger) *AppointmentReconciler {
	return &AppointmentReconciler{
		staging:   staging,
		patients:  patients,
		doctors:   doctors,
		locations: locations,
		scheduler: scheduler,
		logger:    logger.With().Str("component", "appointment_reconciler").Logger(),
	}
}

// Reconcile consumes staged rows whose references all resolve. Cancelled
// rows are retired without creating anything, and a status with no
// local equivalent never blocks a row, the appointment just carries an
// unset status. Rows with missing or unresolved references stay in
// staging and are reported, so a later pass can pick them up once
// mapping catches up.
func (r *AppointmentReconciler) Reconcile(ctx context.Context, rows []*StagingAppointment) (*ReconcileResult, error) {
	result := &ReconcileResult{}
	var batch []*scheduling.Appointment
	var sources []*StagingAppointment

	for _, row := range rows {
		if row.Integrated {
			continue
		}
		// A remote status with no local equivalent integrates with the
		// status left unset.
		status := statusFromCerner[row.Status]
		if status == scheduling.StatusCancelled {
			if _, err := r.staging.MarkAppointmentIntegrated(ctx, row); err != nil {
				return result, fmt.Errorf("retire cancelled appointment %s: %w", row.ExternalID, err)
			}
			result.Skipped = append(result.Skipped, SkippedItem{row.ExternalID, "cancelled"})
			continue
		}

		patient, doctor, location, reason, err := r.resolveRefs(ctx, row)
		if err != nil {
			return result, err
		}
		if reason != "" {
			result.Skipped = append(result.Skipped, SkippedItem{row.ExternalID, reason})
			continue
		}

		reasonText := DefaultReason
		if row.Reason != nil && *row.Reason != "" {
			reasonText = *row.Reason
		}
		extID := row.ExternalID
		batch = append(batch, &scheduling.Appointment{
			AccountID:       row.AccountID,
			Status:          status,
			Reason:          &reasonText,
			Description:     row.Description,
			Comment:         row.Comment,
			DurationMinutes: row.DurationMinutes,
			StartTime:       row.StartTime,
			EndTime:         row.EndTime,
			ExternalID:      &extID,
			Participants: []*scheduling.Participant{
				{Type: scheduling.ParticipantPatient, PatientID: &patient.ID, Required: true},
				{Type: scheduling.ParticipantProvider, DoctorID: &doctor.ID, Required: true},
				{Type: scheduling.ParticipantLocation, LocationID: &location.ID, Required: true},
			},
		})
		sources = append(sources, row)
	}

	ids, err := r.scheduler.CreateIntegrated(ctx, batch)
	if err != nil {
		return result, fmt.Errorf("create appointments: %w", err)
	}
	for i, id := range ids {
		if _, err := r.staging.MarkAppointmentIntegrated(ctx, sources[i]); err != nil {
			return result, fmt.Errorf("mark appointment %s integrated: %w", sources[i].ExternalID, err)
		}
		if id != uuid.Nil {
			result.Created++
		}
	}

	if len(result.Skipped) > 0 {
		r.logger.Info().Int("created", result.Created).Int("skipped", len(result.Skipped)).Msg("reconciled appointments")
	}
	return result, nil
}

// resolveRefs resolves the three participant references. A non-empty
// reason means the row must be skipped.
func (r *AppointmentReconciler) resolveRefs(ctx context.Context, row *StagingAppointment) (*identity.Patient, *identity.Doctor, *admin.Location, string, error) {
	if row.PatientExternalID == nil {
		return nil, nil, nil, "missing patient reference", nil
	}
	if row.PractitionerExternalID == nil {
		return nil, nil, nil, "missing practitioner reference", nil
	}
	if row.LocationExternalID == nil {
		return nil, nil, nil, "missing location reference", nil
	}

	patient, err := r.patients.GetByExternalID(ctx, row.AccountID, *row.PatientExternalID)
	if err != nil {
		return nil, nil, nil, "", fmt.Errorf("resolve patient %s: %w", *row.PatientExternalID, err)
	}
	if patient == nil {
		return nil, nil, nil, "unresolved patient: " + *row.PatientExternalID, nil
	}
	doctor, err := r.doctors.GetByExternalID(ctx, row.AccountID, *row.PractitionerExternalID)
	if err != nil {
		return nil, nil, nil, "", fmt.Errorf("resolve practitioner %s: %w", *row.PractitionerExternalID, err)
	}
	if doctor == nil {
		return nil, nil, nil, "unresolved practitioner: " + *row.PractitionerExternalID, nil
	}
	location, err := r.locations.GetByExternalID(ctx, row.AccountID, *row.LocationExternalID)
	if err != nil {
		return nil, nil, nil, "", fmt.Errorf("resolve location %s: %w", *row.LocationExternalID, err)
	}
	if location == nil {
		return nil, nil, nil, "unresolved location: " + *row.LocationExternalID, nil
	}
	return patient, doctor, location, "", nil
}
