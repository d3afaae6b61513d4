package admin

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

// =========== Account Repository ===========

type accountRepoPG struct{ pool *pgxpool.Pool }

func NewAccountRepoPG(pool *pgxpool.Pool) AccountRepository { return &accountRepoPG{pool: pool} }

func (r *accountRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const accountCols = `id, name, active, created_at, updated_at`

func (r *accountRepoPG) scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Name, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *accountRepoPG) Create(ctx context.Context, a *Account) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO account (id, name, active)
		VALUES ($1,$2,$3)`,
		a.ID, a.Name, a.Active)
	return err
}

func (r *accountRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return r.scanAccount(r.conn(ctx).QueryRow(ctx, `SELECT `+accountCols+` FROM account WHERE id = $1`, id))
}

func (r *accountRepoPG) ListActive(ctx context.Context) ([]*Account, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+accountCols+` FROM account WHERE active IS NOT FALSE ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Account
	for rows.Next() {
		a, err := r.scanAccount(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, nil
}

// =========== Location Repository ===========

type locationRepoPG struct{ pool *pgxpool.Pool }

func NewLocationRepoPG(pool *pgxpool.Pool) LocationRepository { return &locationRepoPG{pool: pool} }

func (r *locationRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const locationCols = `id, account_id, name, external_id, created_at, updated_at`

func (r *locationRepoPG) scanLocation(row pgx.Row) (*Location, error) {
	var l Location
	err := row.Scan(&l.ID, &l.AccountID, &l.Name, &l.ExternalID, &l.CreatedAt, &l.UpdatedAt)
	return &l, err
}

func (r *locationRepoPG) Create(ctx context.Context, l *Location) error {
	l.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO location (id, account_id, name, external_id)
		VALUES ($1,$2,$3,$4)`,
		l.ID, l.AccountID, l.Name, l.ExternalID)
	return err
}

func (r *locationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Location, error) {
	return r.scanLocation(r.conn(ctx).QueryRow(ctx, `SELECT `+locationCols+` FROM location WHERE id = $1`, id))
}

func (r *locationRepoPG) GetByExternalID(ctx context.Context, accountID uuid.UUID, externalID string) (*Location, error) {
	l, err := r.scanLocation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+locationCols+` FROM location WHERE account_id = $1 AND external_id = $2`,
		accountID, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *locationRepoPG) ListSynced(ctx context.Context, accountID uuid.UUID) ([]*Location, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+locationCols+` FROM location WHERE account_id = $1 AND external_id IS NOT NULL ORDER BY name ASC`,
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Location
	for rows.Next() {
		l, err := r.scanLocation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, nil
}

func (r *locationRepoPG) Update(ctx context.Context, l *Location) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE location SET name=$2, external_id=$3, updated_at=NOW()
		WHERE id = $1`,
		l.ID, l.Name, l.ExternalID)
	return err
}

// =========== State Repository ===========

type stateRepoPG struct{ pool *pgxpool.Pool }

func NewStateRepoPG(pool *pgxpool.Pool) StateRepository { return &stateRepoPG{pool: pool} }

func (r *stateRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *stateRepoPG) GetByAbbr(ctx context.Context, abbr string) (*State, error) {
	var s State
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, name, abbr FROM state WHERE UPPER(abbr) = UPPER($1)`, abbr).
		Scan(&s.ID, &s.Name, &s.Abbr)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *stateRepoPG) List(ctx context.Context) ([]*State, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, name, abbr FROM state ORDER BY abbr ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*State
	for rows.Next() {
		var s State
		if err := rows.Scan(&s.ID, &s.Name, &s.Abbr); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	return items, nil
}
