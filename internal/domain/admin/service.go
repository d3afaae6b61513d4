package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Service provides account and location operations.
type Service struct {
	accounts  AccountRepository
	locations LocationRepository
	states    StateRepository
}

func NewService(accounts AccountRepository, locations LocationRepository, states StateRepository) *Service {
	return &Service{accounts: accounts, locations: locations, states: states}
}

func (s *Service) CreateAccount(ctx context.Context, a *Account) error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("account name is required")
	}
	return s.accounts.Create(ctx, a)
}

func (s *Service) ListActiveAccounts(ctx context.Context) ([]*Account, error) {
	return s.accounts.ListActive(ctx)
}

func (s *Service) CreateLocation(ctx context.Context, l *Location) error {
	if l.AccountID == uuid.Nil {
		return fmt.Errorf("account_id is required")
	}
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("location name is required")
	}
	return s.locations.Create(ctx, l)
}

// ListSyncedLocations returns the account's locations that carry a Cerner
// location identifier.
func (s *Service) ListSyncedLocations(ctx context.Context, accountID uuid.UUID) ([]*Location, error) {
	if accountID == uuid.Nil {
		return nil, fmt.Errorf("account_id is required")
	}
	return s.locations.ListSynced(ctx, accountID)
}

func (s *Service) GetState(ctx context.Context, abbr string) (*State, error) {
	if strings.TrimSpace(abbr) == "" {
		return nil, nil
	}
	return s.states.GetByAbbr(ctx, abbr)
}
