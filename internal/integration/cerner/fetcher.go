package cerner

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chargecap/cernersync/internal/domain/admin"
	"github.com/chargecap/cernersync/internal/domain/identity"
)

// FetchResult holds one location's mapped remote data, ready for
// staging. Patients are deduplicated on external identifier.
type FetchResult struct {
	Appointments []*StagingAppointment
	Patients     []*StagingPatient
}

// Fetcher pulls appointments and their patients from a location's
// Cerner endpoint and maps them into staging rows.
type Fetcher struct {
	client       RemoteClient
	tokens       TokenProvider
	endpoints    EndpointRepository
	backfillDays int
	pageSize     int
	now          func() time.Time
	logger       zerolog.Logger
}

func NewFetcher(client RemoteClient, tokens TokenProvider, endpoints EndpointRepository, backfillDays, pageSize int, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		client:       client,
		tokens:       tokens,
		endpoints:    endpoints,
		backfillDays: backfillDays,
		pageSize:     pageSize,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger.With().Str("component", "cerner_fetcher").Logger(),
	}
}

// Fetch pulls the location's appointment window. A (nil, nil) result
// means the location has no usable credentials and was skipped. The
// fetch watermark advances to now whenever the search executed, so a
// window that returned nothing is not re-fetched.
func (f *Fetcher) Fetch(ctx context.Context, location *admin.Location) (*FetchResult, error) {
	if location.ExternalID == nil || *location.ExternalID == "" {
		return nil, fmt.Errorf("location %s has no external id", location.ID)
	}

	token, err := f.tokens.GetToken(ctx, location.ID)
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	if token == nil {
		f.logger.Info().Str("location", location.Name).Msg("no token, skipping location")
		return nil, nil
	}

	now := f.now()
	params := url.Values{}
	params.Set("location", *location.ExternalID)
	params.Set("_count", strconv.Itoa(f.pageSize))
	if token.LastSyncDate != nil {
		params.Add("date", "ge"+token.LastSyncDate.UTC().Format("2006-01-02"))
	} else {
		floor := now.AddDate(0, 0, -f.backfillDays)
		params.Add("date", "gt"+floor.Format("2006-01-02"))
	}
	params.Add("date", "le"+now.Format("2006-01-02"))

	appts, err := f.client.SearchAppointments(ctx, token.DataEndpoint, token.AccessToken, params)
	if err != nil {
		return nil, fmt.Errorf("search appointments: %w", err)
	}

	result := &FetchResult{}
	patientIDs := make([]string, 0)
	seenPatients := make(map[string]bool)
	for _, wa := range appts {
		row := mapAppointment(wa, location.AccountID)
		result.Appointments = append(result.Appointments, row)
		if row.PatientExternalID != nil && !seenPatients[*row.PatientExternalID] {
			seenPatients[*row.PatientExternalID] = true
			patientIDs = append(patientIDs, *row.PatientExternalID)
		}
	}

	for _, id := range patientIDs {
		wp, err := f.client.GetPatient(ctx, token.DataEndpoint, token.AccessToken, id)
		if err != nil {
			return nil, fmt.Errorf("get patient %s: %w", id, err)
		}
		result.Patients = append(result.Patients, mapPatient(wp, location.AccountID))
	}

	if err := f.endpoints.UpdateLastSyncDate(ctx, token.EndpointID, now); err != nil {
		return nil, fmt.Errorf("advance watermark: %w", err)
	}

	f.logger.Info().
		Str("location", location.Name).
		Int("appointments", len(result.Appointments)).
		Int("patients", len(result.Patients)).
		Msg("fetched location window")
	return result, nil
}

func mapAppointment(wa *WireAppointment, accountID uuid.UUID) *StagingAppointment {
	row := &StagingAppointment{
		AccountID:       accountID,
		ExternalID:      wa.ID,
		Status:          wa.Status,
		DurationMinutes: wa.MinutesDuration,
		StartTime:       wa.Start,
		EndTime:         wa.End,
	}
	if len(wa.Type.Coding) > 0 {
		row.TypeCode = optional(wa.Type.Coding[0].Code)
		row.TypeDisplay = optional(wa.Type.Coding[0].Display)
	}
	if wa.Reason != nil {
		row.Reason = optional(wa.Reason.Text)
	}
	row.Description = optional(wa.Description)
	row.Comment = optional(wa.Comment)

	for _, p := range wa.Participant {
		ref, ok := ParseReference(p.Actor.Reference)
		if !ok {
			continue
		}
		switch ref.ResourceType {
		case "Patient":
			row.PatientExternalID = optional(ref.ID)
		case "Practitioner":
			row.PractitionerExternalID = optional(ref.ID)
		case "Location":
			row.LocationExternalID = optional(ref.ID)
		}
	}
	return row
}

func mapPatient(wp *WirePatient, accountID uuid.UUID) *StagingPatient {
	row := &StagingPatient{
		AccountID:  accountID,
		ExternalID: wp.ID,
		Gender:     normalizeGender(wp.Gender),
	}
	if len(wp.Name) > 0 {
		n := wp.Name[0]
		if len(n.Given) > 0 {
			row.FirstName = optional(n.Given[0])
			row.MiddleName = optional(strings.Join(n.Given[1:], " "))
		}
		row.LastName = optional(strings.Join(n.Family, " "))
		row.Prefix = optional(strings.Join(n.Prefix, " "))
		row.Suffix = optional(strings.Join(n.Suffix, " "))
	}
	if wp.BirthDate != "" {
		if dob, err := time.Parse("2006-01-02", wp.BirthDate); err == nil {
			row.DateOfBirth = &dob
		}
	}
	for _, t := range wp.Telecom {
		switch t.System {
		case "phone":
			if row.PrimaryPhone == nil {
				row.PrimaryPhone = optional(t.Value)
			}
		case "fax":
			if row.Fax == nil {
				row.Fax = optional(t.Value)
			}
		case "email":
			if row.Email == nil {
				row.Email = optional(t.Value)
			}
		}
	}
	for _, a := range wp.Address {
		addr := &StagingPatientAddress{
			CityName:  optional(a.City),
			StateAbbr: optional(a.State),
			ZipCode:   optional(a.PostalCode),
		}
		if len(a.Line) > 0 {
			addr.Address1 = optional(a.Line[0])
			addr.Address2 = optional(strings.Join(a.Line[1:], ", "))
		}
		row.Addresses = append(row.Addresses, addr)
	}
	return row
}

func normalizeGender(g string) string {
	switch strings.ToLower(g) {
	case identity.GenderMale:
		return identity.GenderMale
	case identity.GenderFemale:
		return identity.GenderFemale
	default:
		return identity.GenderUnknown
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
