package cerner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chargecap/cernersync/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Staging Appointment Repository ===========

type stagingAppointmentRepoPG struct{ pool *pgxpool.Pool }

func NewStagingAppointmentRepoPG(pool *pgxpool.Pool) StagingAppointmentRepository {
	return &stagingAppointmentRepoPG{pool: pool}
}

func (r *stagingAppointmentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const stagingApptCols = `id, account_id, external_id, status, type_code, type_display,
	reason, description, comment, duration_minutes, start_time, end_time,
	patient_external_id, practitioner_external_id, location_external_id,
	integrated, sync_date`

func (r *stagingAppointmentRepoPG) scanRow(row pgx.Row) (*StagingAppointment, error) {
	var a StagingAppointment
	err := row.Scan(&a.ID, &a.AccountID, &a.ExternalID, &a.Status, &a.TypeCode, &a.TypeDisplay,
		&a.Reason, &a.Description, &a.Comment, &a.DurationMinutes, &a.StartTime, &a.EndTime,
		&a.PatientExternalID, &a.PractitionerExternalID, &a.LocationExternalID,
		&a.Integrated, &a.SyncDate)
	return &a, err
}

func (r *stagingAppointmentRepoPG) Create(ctx context.Context, a *StagingAppointment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO staging_appointment (id, account_id, external_id, status, type_code, type_display,
			reason, description, comment, duration_minutes, start_time, end_time,
			patient_external_id, practitioner_external_id, location_external_id,
			integrated, sync_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		a.ID, a.AccountID, a.ExternalID, a.Status, a.TypeCode, a.TypeDisplay,
		a.Reason, a.Description, a.Comment, a.DurationMinutes, a.StartTime, a.EndTime,
		a.PatientExternalID, a.PractitionerExternalID, a.LocationExternalID,
		a.Integrated, a.SyncDate)
	return err
}

func (r *stagingAppointmentRepoPG) GetByExternalID(ctx context.Context, accountID uuid.UUID, externalID string) (*StagingAppointment, error) {
	a, err := r.scanRow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+stagingApptCols+` FROM staging_appointment WHERE account_id = $1 AND external_id = $2`,
		accountID, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *stagingAppointmentRepoPG) list(ctx context.Context, query string, args ...interface{}) ([]*StagingAppointment, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*StagingAppointment
	for rows.Next() {
		a, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, nil
}

func (r *stagingAppointmentRepoPG) ListUnintegratedByLocation(ctx context.Context, accountID uuid.UUID, locationExternalID string) ([]*StagingAppointment, error) {
	return r.list(ctx, `
		SELECT `+stagingApptCols+` FROM staging_appointment
		WHERE account_id = $1 AND location_external_id = $2 AND integrated = FALSE
		ORDER BY start_time ASC NULLS LAST`,
		accountID, locationExternalID)
}

func (r *stagingAppointmentRepoPG) ListUnintegratedByPatient(ctx context.Context, accountID uuid.UUID, patientExternalID string) ([]*StagingAppointment, error) {
	return r.list(ctx, `
		SELECT `+stagingApptCols+` FROM staging_appointment
		WHERE account_id = $1 AND patient_external_id = $2 AND integrated = FALSE
		ORDER BY start_time ASC NULLS LAST`,
		accountID, patientExternalID)
}

func (r *stagingAppointmentRepoPG) ListUnintegratedByPatientLocation(ctx context.Context, accountID uuid.UUID, patientExternalID, locationExternalID string) ([]*StagingAppointment, error) {
	return r.list(ctx, `
		SELECT `+stagingApptCols+` FROM staging_appointment
		WHERE account_id = $1 AND patient_external_id = $2 AND location_external_id = $3 AND integrated = FALSE
		ORDER BY start_time ASC NULLS LAST`,
		accountID, patientExternalID, locationExternalID)
}

func (r *stagingAppointmentRepoPG) DistinctPatientPractitioners(ctx context.Context, accountID uuid.UUID, locationExternalID string) ([]PatientPractitionerRef, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT DISTINCT patient_external_id, COALESCE(practitioner_external_id, '')
		FROM staging_appointment
		WHERE account_id = $1 AND location_external_id = $2 AND integrated = FALSE
			AND patient_external_id IS NOT NULL
		ORDER BY patient_external_id ASC, COALESCE(practitioner_external_id, '') ASC`,
		accountID, locationExternalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PatientPractitionerRef
	for rows.Next() {
		var ref PatientPractitionerRef
		if err := rows.Scan(&ref.PatientExternalID, &ref.PractitionerExternalID); err != nil {
			return nil, err
		}
		items = append(items, ref)
	}
	return items, nil
}

func (r *stagingAppointmentRepoPG) SetIntegrated(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE staging_appointment SET integrated = TRUE WHERE id = $1`, id)
	return err
}

// =========== Staging Patient Repository ===========

type stagingPatientRepoPG struct{ pool *pgxpool.Pool }

func NewStagingPatientRepoPG(pool *pgxpool.Pool) StagingPatientRepository {
	return &stagingPatientRepoPG{pool: pool}
}

func (r *stagingPatientRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const stagingPatientCols = `id, account_id, external_id, first_name, middle_name, last_name,
	prefix, suffix, date_of_birth, gender, primary_phone, fax, email, integrated, sync_date`

func (r *stagingPatientRepoPG) scanRow(row pgx.Row) (*StagingPatient, error) {
	var p StagingPatient
	err := row.Scan(&p.ID, &p.AccountID, &p.ExternalID, &p.FirstName, &p.MiddleName, &p.LastName,
		&p.Prefix, &p.Suffix, &p.DateOfBirth, &p.Gender, &p.PrimaryPhone, &p.Fax, &p.Email,
		&p.Integrated, &p.SyncDate)
	return &p, err
}

func (r *stagingPatientRepoPG) Create(ctx context.Context, p *StagingPatient) error {
	p.ID = uuid.New()
	c := r.conn(ctx)
	_, err := c.Exec(ctx, `
		INSERT INTO staging_patient (id, account_id, external_id, first_name, middle_name, last_name,
			prefix, suffix, date_of_birth, gender, primary_phone, fax, email, integrated, sync_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		p.ID, p.AccountID, p.ExternalID, p.FirstName, p.MiddleName, p.LastName,
		p.Prefix, p.Suffix, p.DateOfBirth, p.Gender, p.PrimaryPhone, p.Fax, p.Email,
		p.Integrated, p.SyncDate)
	if err != nil {
		return err
	}
	for _, addr := range p.Addresses {
		addr.ID = uuid.New()
		addr.StagingPatientID = p.ID
		_, err = c.Exec(ctx, `
			INSERT INTO staging_patient_address (id, staging_patient_id, address1, address2, city_name, state_abbr, zip_code)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			addr.ID, addr.StagingPatientID, addr.Address1, addr.Address2, addr.CityName, addr.StateAbbr, addr.ZipCode)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *stagingPatientRepoPG) addresses(ctx context.Context, stagingPatientID uuid.UUID) ([]*StagingPatientAddress, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, staging_patient_id, address1, address2, city_name, state_abbr, zip_code
		FROM staging_patient_address WHERE staging_patient_id = $1`, stagingPatientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*StagingPatientAddress
	for rows.Next() {
		var a StagingPatientAddress
		if err := rows.Scan(&a.ID, &a.StagingPatientID, &a.Address1, &a.Address2,
			&a.CityName, &a.StateAbbr, &a.ZipCode); err != nil {
			return nil, err
		}
		items = append(items, &a)
	}
	return items, nil
}

func (r *stagingPatientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*StagingPatient, error) {
	p, err := r.scanRow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+stagingPatientCols+` FROM staging_patient WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Addresses, err = r.addresses(ctx, p.ID)
	return p, err
}

func (r *stagingPatientRepoPG) GetByExternalID(ctx context.Context, accountID uuid.UUID, externalID string) (*StagingPatient, error) {
	p, err := r.scanRow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+stagingPatientCols+` FROM staging_patient WHERE account_id = $1 AND external_id = $2`,
		accountID, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Addresses, err = r.addresses(ctx, p.ID)
	return p, err
}

func (r *stagingPatientRepoPG) SetIntegrated(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE staging_patient SET integrated = TRUE WHERE id = $1`, id)
	return err
}

// =========== Endpoint Repository ===========

type endpointRepoPG struct{ pool *pgxpool.Pool }

func NewEndpointRepoPG(pool *pgxpool.Pool) EndpointRepository { return &endpointRepoPG{pool: pool} }

func (r *endpointRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *endpointRepoPG) GetProvider(ctx context.Context, provider string) (*ProviderConfig, error) {
	var p ProviderConfig
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, provider, client_id, client_secret, scope
		FROM fhir_provider_config WHERE provider = $1`, provider).
		Scan(&p.ID, &p.Provider, &p.ClientID, &p.ClientSecret, &p.Scope)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *endpointRepoPG) GetEndpoint(ctx context.Context, providerConfigID, locationID uuid.UUID) (*EndpointConfig, error) {
	var e EndpointConfig
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, provider_config_id, location_id, token_url, data_endpoint, last_sync_date
		FROM fhir_endpoint_config WHERE provider_config_id = $1 AND location_id = $2`,
		providerConfigID, locationID).
		Scan(&e.ID, &e.ProviderConfigID, &e.LocationID, &e.TokenURL, &e.DataEndpoint, &e.LastSyncDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *endpointRepoPG) UpdateLastSyncDate(ctx context.Context, endpointID uuid.UUID, syncDate time.Time) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE fhir_endpoint_config SET last_sync_date = $2 WHERE id = $1`,
		endpointID, syncDate)
	return err
}
