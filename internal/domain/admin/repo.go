package admin

import (
	"context"

	"github.com/google/uuid"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	ListActive(ctx context.Context) ([]*Account, error)
}

// LocationRepository defines data access for locations. Lookups keyed by
// external identifier return (nil, nil) when no row matches.
type LocationRepository interface {
	Create(ctx context.Context, location *Location) error
	GetByID(ctx context.Context, id uuid.UUID) (*Location, error)
	GetByExternalID(ctx context.Context, accountID uuid.UUID, externalID string) (*Location, error)
	ListSynced(ctx context.Context, accountID uuid.UUID) ([]*Location, error)
	Update(ctx context.Context, location *Location) error
}

// StateRepository defines data access for the state reference table.
// GetByAbbr returns (nil, nil) when the abbreviation is unknown.
type StateRepository interface {
	GetByAbbr(ctx context.Context, abbr string) (*State, error)
	List(ctx context.Context) ([]*State, error)
}
