package cerner

import (
	"time"

	"github.com/google/uuid"
)

// ProviderName identifies the Cerner provider configuration row.
const ProviderName = "cerner"

// StagingAppointment maps to the staging_appointment table. Rows hold
// the flattened remote appointment until reconciliation consumes them;
// Integrated flips to true once a domain appointment exists.
type StagingAppointment struct {
	ID                     uuid.UUID  `db:"id" json:"id"`
	AccountID              uuid.UUID  `db:"account_id" json:"account_id"`
	ExternalID             string     `db:"external_id" json:"external_id"`
	Status                 string     `db:"status" json:"status"`
	TypeCode               *string    `db:"type_code" json:"type_code,omitempty"`
	TypeDisplay            *string    `db:"type_display" json:"type_display,omitempty"`
	Reason                 *string    `db:"reason" json:"reason,omitempty"`
	Description            *string    `db:"description" json:"description,omitempty"`
	Comment                *string    `db:"comment" json:"comment,omitempty"`
	DurationMinutes        int        `db:"duration_minutes" json:"duration_minutes"`
	StartTime              *time.Time `db:"start_time" json:"start_time,omitempty"`
	EndTime                *time.Time `db:"end_time" json:"end_time,omitempty"`
	PatientExternalID      *string    `db:"patient_external_id" json:"patient_external_id,omitempty"`
	PractitionerExternalID *string    `db:"practitioner_external_id" json:"practitioner_external_id,omitempty"`
	LocationExternalID     *string    `db:"location_external_id" json:"location_external_id,omitempty"`
	Integrated             bool       `db:"integrated" json:"integrated"`
	SyncDate               time.Time  `db:"sync_date" json:"sync_date"`
}

// StagingPatient maps to the staging_patient table.
type StagingPatient struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	AccountID    uuid.UUID  `db:"account_id" json:"account_id"`
	ExternalID   string     `db:"external_id" json:"external_id"`
	FirstName    *string    `db:"first_name" json:"first_name,omitempty"`
	MiddleName   *string    `db:"middle_name" json:"middle_name,omitempty"`
	LastName     *string    `db:"last_name" json:"last_name,omitempty"`
	Prefix       *string    `db:"prefix" json:"prefix,omitempty"`
	Suffix       *string    `db:"suffix" json:"suffix,omitempty"`
	DateOfBirth  *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender       string     `db:"gender" json:"gender"`
	PrimaryPhone *string    `db:"primary_phone" json:"primary_phone,omitempty"`
	Fax          *string    `db:"fax" json:"fax,omitempty"`
	Email        *string    `db:"email" json:"email,omitempty"`
	Integrated   bool       `db:"integrated" json:"integrated"`
	SyncDate     time.Time  `db:"sync_date" json:"sync_date"`

	Addresses []*StagingPatientAddress `json:"addresses,omitempty"`
}

// StagingPatientAddress maps to the staging_patient_address table.
type StagingPatientAddress struct {
	ID               uuid.UUID `db:"id" json:"id"`
	StagingPatientID uuid.UUID `db:"staging_patient_id" json:"staging_patient_id"`
	Address1         *string   `db:"address1" json:"address1,omitempty"`
	Address2         *string   `db:"address2" json:"address2,omitempty"`
	CityName         *string   `db:"city_name" json:"city_name,omitempty"`
	StateAbbr        *string   `db:"state_abbr" json:"state_abbr,omitempty"`
	ZipCode          *string   `db:"zip_code" json:"zip_code,omitempty"`
}

// ProviderConfig maps to the fhir_provider_config table and carries the
// OAuth client credentials shared by all of a provider's endpoints.
type ProviderConfig struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Provider     string    `db:"provider" json:"provider"`
	ClientID     string    `db:"client_id" json:"-"`
	ClientSecret string    `db:"client_secret" json:"-"`
	Scope        string    `db:"scope" json:"scope"`
}

// EndpointConfig maps to the fhir_endpoint_config table. Each synced
// location has one endpoint row; LastSyncDate is the fetch watermark.
type EndpointConfig struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	ProviderConfigID uuid.UUID  `db:"provider_config_id" json:"provider_config_id"`
	LocationID       uuid.UUID  `db:"location_id" json:"location_id"`
	TokenURL         string     `db:"token_url" json:"token_url"`
	DataEndpoint     string     `db:"data_endpoint" json:"data_endpoint"`
	LastSyncDate     *time.Time `db:"last_sync_date" json:"last_sync_date,omitempty"`
}

// Token is a short-lived access credential resolved per location. The
// endpoint fields ride along so a fetch needs no second lookup.
type Token struct {
	AccessToken  string
	TokenType    string
	ExpiresIn    int
	Scope        string
	EndpointID   uuid.UUID
	DataEndpoint string
	LastSyncDate *time.Time
}

// PatientPractitionerRef is a distinct (patient, practitioner) pair
// observed in staged appointments at a location. PractitionerExternalID
// is empty when the staged row carried no practitioner.
type PatientPractitionerRef struct {
	PatientExternalID      string `db:"patient_external_id" json:"patient_external_id"`
	PractitionerExternalID string `db:"practitioner_external_id" json:"practitioner_external_id"`
}
