package cerner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultScope covers the two resource reads the sync performs.
const DefaultScope = "system/Appointment.read,system/Patient.read"

// TokenProvider resolves an access token for a location. A (nil, nil)
// result means the location has no usable credentials and should be
// skipped rather than failed.
type TokenProvider interface {
	GetToken(ctx context.Context, locationID uuid.UUID) (*Token, error)
}

// LoginService exchanges client credentials for a Cerner access token.
type LoginService struct {
	endpoints  EndpointRepository
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewLoginService(endpoints EndpointRepository, timeout time.Duration, logger zerolog.Logger) *LoginService {
	return &LoginService{
		endpoints:  endpoints,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "cerner_login").Logger(),
	}
}

func (s *LoginService) GetToken(ctx context.Context, locationID uuid.UUID) (*Token, error) {
	provider, err := s.endpoints.GetProvider(ctx, ProviderName)
	if err != nil {
		return nil, fmt.Errorf("load provider config: %w", err)
	}
	if provider == nil {
		s.logger.Warn().Str("location_id", locationID.String()).Msg("no provider config")
		return nil, nil
	}
	endpoint, err := s.endpoints.GetEndpoint(ctx, provider.ID, locationID)
	if err != nil {
		return nil, fmt.Errorf("load endpoint config: %w", err)
	}
	if endpoint == nil {
		s.logger.Warn().Str("location_id", locationID.String()).Msg("no endpoint config for location")
		return nil, nil
	}

	scope := provider.Scope
	if scope == "" {
		scope = DefaultScope
	}
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(provider.ClientID, provider.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn().Err(err).Str("location_id", locationID.String()).Msg("token request failed")
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn().Int("status", resp.StatusCode).Str("location_id", locationID.String()).Msg("token exchange rejected")
		return nil, nil
	}

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
		Scope       string `json:"scope"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		s.logger.Warn().Err(err).Str("location_id", locationID.String()).Msg("malformed token response")
		return nil, nil
	}
	if body.AccessToken == "" {
		return nil, nil
	}

	return &Token{
		AccessToken:  body.AccessToken,
		TokenType:    body.TokenType,
		ExpiresIn:    body.ExpiresIn,
		Scope:        body.Scope,
		EndpointID:   endpoint.ID,
		DataEndpoint: endpoint.DataEndpoint,
		LastSyncDate: endpoint.LastSyncDate,
	}, nil
}
