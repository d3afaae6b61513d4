package admission

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

// =========== Admission Repository ===========

type admissionRepoPG struct{ pool *pgxpool.Pool }

func NewAdmissionRepoPG(pool *pgxpool.Pool) AdmissionRepository { return &admissionRepoPG{pool: pool} }

func (r *admissionRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const admissionCols = `id, account_id, patient_id, location_id, admission_date, discharge_date, created_at, updated_at`

func (r *admissionRepoPG) scanAdmission(row pgx.Row) (*Admission, error) {
	var a Admission
	err := row.Scan(&a.ID, &a.AccountID, &a.PatientID, &a.LocationID,
		&a.AdmissionDate, &a.DischargeDate, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *admissionRepoPG) Create(ctx context.Context, a *Admission) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO admission (id, account_id, patient_id, location_id, admission_date, discharge_date)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.AccountID, a.PatientID, a.LocationID, a.AdmissionDate, a.DischargeDate)
	return err
}

func (r *admissionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Admission, error) {
	return r.scanAdmission(r.conn(ctx).QueryRow(ctx, `SELECT `+admissionCols+` FROM admission WHERE id = $1`, id))
}

func (r *admissionRepoPG) GetOpenByPatientLocation(ctx context.Context, patientID, locationID uuid.UUID) (*Admission, error) {
	a, err := r.scanAdmission(r.conn(ctx).QueryRow(ctx, `
		SELECT `+admissionCols+` FROM admission
		WHERE patient_id = $1 AND location_id = $2 AND discharge_date IS NULL
		ORDER BY admission_date DESC LIMIT 1`,
		patientID, locationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *admissionRepoPG) Update(ctx context.Context, a *Admission) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE admission SET admission_date=$2, discharge_date=$3, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.AdmissionDate, a.DischargeDate)
	return err
}

// =========== Assignment Repository ===========

type assignmentRepoPG struct{ pool *pgxpool.Pool }

func NewAssignmentRepoPG(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepoPG{pool: pool}
}

func (r *assignmentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const assignmentCols = `id, admission_id, caregiver_id, supervisor_id, start_date, end_date, created_at, updated_at`

func (r *assignmentRepoPG) scanAssignment(row pgx.Row) (*Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.AdmissionID, &a.CaregiverID, &a.SupervisorID,
		&a.StartDate, &a.EndDate, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *assignmentRepoPG) Create(ctx context.Context, a *Assignment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO assignment (id, admission_id, caregiver_id, supervisor_id, start_date, end_date)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.AdmissionID, a.CaregiverID, a.SupervisorID, a.StartDate, a.EndDate)
	return err
}

func (r *assignmentRepoPG) GetOpenByAdmissionCaregiver(ctx context.Context, admissionID, caregiverID uuid.UUID) (*Assignment, error) {
	a, err := r.scanAssignment(r.conn(ctx).QueryRow(ctx, `
		SELECT `+assignmentCols+` FROM assignment
		WHERE admission_id = $1 AND caregiver_id = $2 AND end_date IS NULL
		ORDER BY start_date DESC LIMIT 1`,
		admissionID, caregiverID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *assignmentRepoPG) ListByAdmission(ctx context.Context, admissionID uuid.UUID) ([]*Assignment, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+assignmentCols+` FROM assignment WHERE admission_id = $1 ORDER BY start_date ASC`,
		admissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Assignment
	for rows.Next() {
		a, err := r.scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, nil
}
