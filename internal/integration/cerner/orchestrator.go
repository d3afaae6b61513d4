package cerner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/chargecap/cernersync/internal/domain/admin"
	"github.com/chargecap/cernersync/internal/platform/db"
)

// Location sync outcomes.
const (
	LocationSynced  = "synced"
	LocationSkipped = "skipped"
	LocationFailed  = "failed"
)

// Run outcomes.
const (
	OutcomeAll     = "all"
	OutcomePartial = "partial"
	OutcomeNone    = "none"
)

// LocationResult reports one location's pass within a run.
type LocationResult struct {
	AccountID           uuid.UUID     `json:"account_id"`
	LocationID          uuid.UUID     `json:"location_id"`
	LocationName        string        `json:"location_name"`
	Status              string        `json:"status"`
	FetchedAppointments int           `json:"fetched_appointments"`
	FetchedPatients     int           `json:"fetched_patients"`
	StagedAppointments  int           `json:"staged_appointments"`
	StagedPatients      int           `json:"staged_patients"`
	CreatedAppointments int           `json:"created_appointments"`
	Skipped             []SkippedItem `json:"skipped,omitempty"`
	Error               string        `json:"error,omitempty"`
}

// RunReport summarizes a full sync run across accounts and locations.
type RunReport struct {
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Outcome    string           `json:"outcome"`
	Locations  []LocationResult `json:"locations"`
}

// SyncableLocation is a location eligible for sync, as shown to
// operators.
type SyncableLocation struct {
	AccountID        uuid.UUID `json:"account_id"`
	LocationID       uuid.UUID `json:"location_id"`
	LocationName     string    `json:"location_name"`
	CernerLocationID string    `json:"cerner_location_id"`
}

// Orchestrator drives a sync run: every active account, every synced
// location, fetch then stage then reconcile. A location's failure is
// contained to its result so the rest of the run proceeds.
type Orchestrator struct {
	pool      *pgxpool.Pool
	directory *admin.Service
	fetcher   *Fetcher
	staging   *StagingService
	appts     *AppointmentReconciler
	logger    zerolog.Logger
}

func NewOrchestrator(pool *pgxpool.Pool, directory *admin.Service, fetcher *Fetcher, staging *StagingService, appts *AppointmentReconciler, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		pool:      pool,
		directory: directory,
		fetcher:   fetcher,
		staging:   staging,
		appts:     appts,
		logger:    logger.With().Str("component", "cerner_sync").Logger(),
	}
}

// Sync runs one full pass. The returned error covers infrastructure
// failures before any location work starts; per-location failures land
// in the report instead.
func (o *Orchestrator) Sync(ctx context.Context) (*RunReport, error) {
	report := &RunReport{StartedAt: time.Now().UTC()}

	accounts, err := o.directory.ListActiveAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	for _, account := range accounts {
		locations, err := o.directory.ListSyncedLocations(ctx, account.ID)
		if err != nil {
			return nil, fmt.Errorf("list locations for account %s: %w", account.ID, err)
		}
		for _, location := range locations {
			result := o.syncLocation(ctx, account, location)
			report.Locations = append(report.Locations, result)
		}
	}

	report.FinishedAt = time.Now().UTC()
	report.Outcome = outcome(report.Locations)
	o.logger.Info().
		Str("outcome", report.Outcome).
		Int("locations", len(report.Locations)).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("sync run finished")
	return report, nil
}

func (o *Orchestrator) syncLocation(ctx context.Context, account *admin.Account, location *admin.Location) LocationResult {
	result := LocationResult{
		AccountID:    account.ID,
		LocationID:   location.ID,
		LocationName: location.Name,
		Status:       LocationSynced,
	}
	log := o.logger.With().Str("account", account.Name).Str("location", location.Name).Logger()

	fetched, err := o.fetcher.Fetch(ctx, location)
	if err != nil {
		log.Error().Err(err).Msg("fetch failed")
		result.Status = LocationFailed
		result.Error = err.Error()
		return result
	}
	if fetched == nil {
		result.Status = LocationSkipped
		result.Error = "no usable credentials"
		return result
	}
	result.FetchedAppointments = len(fetched.Appointments)
	result.FetchedPatients = len(fetched.Patients)

	err = db.RunInTx(ctx, o.pool, func(ctx context.Context) error {
		apptIDs, err := o.staging.CreateAppointments(ctx, fetched.Appointments)
		if err != nil {
			return err
		}
		patientIDs, err := o.staging.CreatePatients(ctx, fetched.Patients)
		if err != nil {
			return err
		}
		result.StagedAppointments = countNonNil(apptIDs)
		result.StagedPatients = countNonNil(patientIDs)
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("staging failed")
		result.Status = LocationFailed
		result.Error = err.Error()
		return result
	}

	err = db.RunInTx(ctx, o.pool, func(ctx context.Context) error {
		// Reload from staging rather than reconciling the fetched batch
		// directly, so rows a previous run staged but never integrated
		// get picked up too.
		rows, err := o.staging.UnintegratedForLocation(ctx, account.ID, *location.ExternalID)
		if err != nil {
			return err
		}
		recResult, err := o.appts.Reconcile(ctx, rows)
		if err != nil {
			return err
		}
		result.CreatedAppointments = recResult.Created
		result.Skipped = recResult.Skipped
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("reconciliation failed")
		result.Status = LocationFailed
		result.Error = err.Error()
	}
	return result
}

// ListSyncableLocations returns every synced location across active
// accounts.
func (o *Orchestrator) ListSyncableLocations(ctx context.Context) ([]SyncableLocation, error) {
	accounts, err := o.directory.ListActiveAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	var items []SyncableLocation
	for _, account := range accounts {
		locations, err := o.directory.ListSyncedLocations(ctx, account.ID)
		if err != nil {
			return nil, fmt.Errorf("list locations for account %s: %w", account.ID, err)
		}
		for _, l := range locations {
			items = append(items, SyncableLocation{
				AccountID:        account.ID,
				LocationID:       l.ID,
				LocationName:     l.Name,
				CernerLocationID: *l.ExternalID,
			})
		}
	}
	return items, nil
}

func outcome(results []LocationResult) string {
	failed := 0
	for _, r := range results {
		if r.Status == LocationFailed {
			failed++
		}
	}
	switch {
	case failed == 0:
		return OutcomeAll
	case failed == len(results) && len(results) > 0:
		return OutcomeNone
	default:
		return OutcomePartial
	}
}

func countNonNil(ids []uuid.UUID) int {
	n := 0
	for _, id := range ids {
		if id != uuid.Nil {
			n++
		}
	}
	return n
}
