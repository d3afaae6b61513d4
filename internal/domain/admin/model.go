package admin

import (
	"time"

	"github.com/google/uuid"
)

// Account maps to the account table. Every master and staging record is
// scoped to exactly one account.
type Account struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Active    *bool     `db:"active" json:"active,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Location maps to the location table. ExternalID carries the Cerner
// location identifier; a non-nil value marks the location as synced.
type Location struct {
	ID         uuid.UUID `db:"id" json:"id"`
	AccountID  uuid.UUID `db:"account_id" json:"account_id"`
	Name       string    `db:"name" json:"name"`
	ExternalID *string   `db:"external_id" json:"external_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// State maps to the state reference table used for address resolution.
type State struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
	Abbr string    `db:"abbr" json:"abbr"`
}
