package scheduling

import (
	"context"
	"errors"

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

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const apptCols = `id, account_id, status, reason, description, comment,
	duration_minutes, start_time, end_time, external_id, created_at, updated_at`

func (r *appointmentRepoPG) scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.AccountID, &a.Status, &a.Reason, &a.Description, &a.Comment,
		&a.DurationMinutes, &a.StartTime, &a.EndTime, &a.ExternalID, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	c := r.conn(ctx)
	_, err := c.Exec(ctx, `
		INSERT INTO appointment (id, account_id, status, reason, description, comment,
			duration_minutes, start_time, end_time, external_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		a.ID, a.AccountID, a.Status, a.Reason, a.Description, a.Comment,
		a.DurationMinutes, a.StartTime, a.EndTime, a.ExternalID)
	if err != nil {
		return err
	}
	for _, p := range a.Participants {
		p.ID = uuid.New()
		p.AppointmentID = a.ID
		_, err = c.Exec(ctx, `
			INSERT INTO appointment_participant (id, appointment_id, participant_type,
				patient_id, doctor_id, location_id, required)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			p.ID, p.AppointmentID, p.Type, p.PatientID, p.DoctorID, p.LocationID, p.Required)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := r.scanAppt(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	a.Participants, err = r.participants(ctx, a.ID)
	return a, err
}

func (r *appointmentRepoPG) GetByExternalID(ctx context.Context, accountID uuid.UUID, externalID string) (*Appointment, error) {
	a, err := r.scanAppt(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE account_id = $1 AND external_id = $2`,
		accountID, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointment a
		WHERE EXISTS (
			SELECT 1 FROM appointment_participant p
			WHERE p.appointment_id = a.id AND p.patient_id = $1
		)
		ORDER BY start_time DESC NULLS LAST`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppt(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, nil
}

func (r *appointmentRepoPG) participants(ctx context.Context, appointmentID uuid.UUID) ([]*Participant, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, appointment_id, participant_type, patient_id, doctor_id, location_id, required
		FROM appointment_participant WHERE appointment_id = $1`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ID, &p.AppointmentID, &p.Type,
			&p.PatientID, &p.DoctorID, &p.LocationID, &p.Required); err != nil {
			return nil, err
		}
		items = append(items, &p)
	}
	return items, nil
}
