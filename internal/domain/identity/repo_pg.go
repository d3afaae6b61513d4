package identity

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

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

func (r *patientRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `id, account_id, first_name, middle_name, last_name, prefix, suffix,
	date_of_birth, gender, external_id, created_at, updated_at`

func (r *patientRepoPG) scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.AccountID, &p.FirstName, &p.MiddleName, &p.LastName,
		&p.Prefix, &p.Suffix, &p.DateOfBirth, &p.Gender, &p.ExternalID,
		&p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	c := r.conn(ctx)
	_, err := c.Exec(ctx, `
		INSERT INTO patient (id, account_id, first_name, middle_name, last_name, prefix, suffix,
			date_of_birth, gender, external_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.AccountID, p.FirstName, p.MiddleName, p.LastName, p.Prefix, p.Suffix,
		p.DateOfBirth, p.Gender, p.ExternalID)
	if err != nil {
		return err
	}
	if p.Contact != nil {
		p.Contact.ID = uuid.New()
		p.Contact.PatientID = p.ID
		_, err = c.Exec(ctx, `
			INSERT INTO patient_contact (id, patient_id, primary_phone, fax, email)
			VALUES ($1,$2,$3,$4,$5)`,
			p.Contact.ID, p.Contact.PatientID, p.Contact.PrimaryPhone, p.Contact.Fax, p.Contact.Email)
		if err != nil {
			return err
		}
	}
	if p.Address != nil {
		p.Address.ID = uuid.New()
		p.Address.PatientID = p.ID
		_, err = c.Exec(ctx, `
			INSERT INTO patient_address (id, patient_id, address1, address2, city_name, state_id, zip_code)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			p.Address.ID, p.Address.PatientID, p.Address.Address1, p.Address.Address2,
			p.Address.CityName, p.Address.StateID, p.Address.ZipCode)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *patientRepoPG) GetByExternalID(ctx context.Context, accountID uuid.UUID, externalID string) (*Patient, error) {
	p, err := r.scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE account_id = $1 AND external_id = $2`,
		accountID, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *patientRepoPG) ListUnmapped(ctx context.Context, accountID uuid.UUID) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patient WHERE account_id = $1 AND external_id IS NULL ORDER BY last_name ASC, first_name ASC`,
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, nil
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET first_name=$2, middle_name=$3, last_name=$4, prefix=$5, suffix=$6,
			date_of_birth=$7, gender=$8, external_id=$9, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.FirstName, p.MiddleName, p.LastName, p.Prefix, p.Suffix,
		p.DateOfBirth, p.Gender, p.ExternalID)
	return err
}

// =========== Doctor Repository ===========

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository { return &doctorRepoPG{pool: pool} }

func (r *doctorRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const doctorCols = `id, account_id, first_name, last_name, external_id, created_at, updated_at`

func (r *doctorRepoPG) scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.AccountID, &d.FirstName, &d.LastName, &d.ExternalID,
		&d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor (id, account_id, first_name, last_name, external_id)
		VALUES ($1,$2,$3,$4,$5)`,
		d.ID, d.AccountID, d.FirstName, d.LastName, d.ExternalID)
	return err
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return r.scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctor WHERE id = $1`, id))
}

func (r *doctorRepoPG) GetByExternalID(ctx context.Context, accountID uuid.UUID, externalID string) (*Doctor, error) {
	d, err := r.scanDoctor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctor WHERE account_id = $1 AND external_id = $2`,
		accountID, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// =========== Assistant Repository ===========

type assistantRepoPG struct{ pool *pgxpool.Pool }

func NewAssistantRepoPG(pool *pgxpool.Pool) AssistantRepository { return &assistantRepoPG{pool: pool} }

func (r *assistantRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *assistantRepoPG) Create(ctx context.Context, a *Assistant) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO assistant (id, account_id, first_name, last_name, external_id)
		VALUES ($1,$2,$3,$4,$5)`,
		a.ID, a.AccountID, a.FirstName, a.LastName, a.ExternalID)
	return err
}

func (r *assistantRepoPG) GetByExternalID(ctx context.Context, accountID uuid.UUID, externalID string) (*Assistant, error) {
	var a Assistant
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, account_id, first_name, last_name, external_id, created_at, updated_at
		FROM assistant WHERE account_id = $1 AND external_id = $2`,
		accountID, externalID).
		Scan(&a.ID, &a.AccountID, &a.FirstName, &a.LastName, &a.ExternalID, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// =========== System User Repository ===========

type systemUserRepoPG struct{ pool *pgxpool.Pool }

func NewSystemUserRepoPG(pool *pgxpool.Pool) SystemUserRepository {
	return &systemUserRepoPG{pool: pool}
}

func (r *systemUserRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *systemUserRepoPG) Create(ctx context.Context, u *SystemUser) error {
	u.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO system_user (id, account_id, user_type, first_name, last_name, doctor_id, assistant_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		u.ID, u.AccountID, u.Type, u.FirstName, u.LastName, u.DoctorID, u.AssistantID)
	return err
}

func (r *systemUserRepoPG) GetByAssistantID(ctx context.Context, assistantID uuid.UUID) (*SystemUser, error) {
	var u SystemUser
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, account_id, user_type, first_name, last_name, doctor_id, assistant_id, created_at, updated_at
		FROM system_user WHERE assistant_id = $1 AND user_type = $2`,
		assistantID, UserTypeAssistant).
		Scan(&u.ID, &u.AccountID, &u.Type, &u.FirstName, &u.LastName,
			&u.DoctorID, &u.AssistantID, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
