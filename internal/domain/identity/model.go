package identity

import (
	"time"

	"github.com/google/uuid"
)

// Gender values stored on patient records.
const (
	GenderMale    = "male"
	GenderFemale  = "female"
	GenderUnknown = "unknown"
)

// SystemUser.Type values.
const (
	UserTypeDoctor    = "doctor"
	UserTypeAssistant = "assistant"
)

// Patient maps to the patient table. ExternalID carries the Cerner
// patient identifier once the record has been mapped; unmapped manual
// patients leave it nil.
type Patient struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	AccountID   uuid.UUID  `db:"account_id" json:"account_id"`
	FirstName   string     `db:"first_name" json:"first_name"`
	MiddleName  *string    `db:"middle_name" json:"middle_name,omitempty"`
	LastName    string     `db:"last_name" json:"last_name"`
	Prefix      *string    `db:"prefix" json:"prefix,omitempty"`
	Suffix      *string    `db:"suffix" json:"suffix,omitempty"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender      string     `db:"gender" json:"gender"`
	ExternalID  *string    `db:"external_id" json:"external_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`

	// Optional sub-records, persisted with the patient when present.
	Contact *Contact `json:"contact,omitempty"`
	Address *Address `json:"address,omitempty"`
}

// Contact maps to the patient_contact table.
type Contact struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PatientID    uuid.UUID `db:"patient_id" json:"patient_id"`
	PrimaryPhone *string   `db:"primary_phone" json:"primary_phone,omitempty"`
	Fax          *string   `db:"fax" json:"fax,omitempty"`
	Email        *string   `db:"email" json:"email,omitempty"`
}

// Address maps to the patient_address table.
type Address struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	PatientID uuid.UUID  `db:"patient_id" json:"patient_id"`
	Address1  *string    `db:"address1" json:"address1,omitempty"`
	Address2  *string    `db:"address2" json:"address2,omitempty"`
	CityName  *string    `db:"city_name" json:"city_name,omitempty"`
	StateID   *uuid.UUID `db:"state_id" json:"state_id,omitempty"`
	ZipCode   *string    `db:"zip_code" json:"zip_code,omitempty"`
}

// Doctor maps to the doctor table. ExternalID carries the Cerner
// practitioner identifier.
type Doctor struct {
	ID         uuid.UUID `db:"id" json:"id"`
	AccountID  uuid.UUID `db:"account_id" json:"account_id"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	ExternalID *string   `db:"external_id" json:"external_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Assistant maps to the assistant table. Assistants appear as Cerner
// practitioners but cannot carry assignments directly.
type Assistant struct {
	ID         uuid.UUID `db:"id" json:"id"`
	AccountID  uuid.UUID `db:"account_id" json:"account_id"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	ExternalID *string   `db:"external_id" json:"external_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// SystemUser maps to the system_user table. An assistant-type user links
// the assistant to its supervising doctor.
type SystemUser struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	AccountID   uuid.UUID  `db:"account_id" json:"account_id"`
	Type        string     `db:"user_type" json:"user_type"`
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	DoctorID    *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	AssistantID *uuid.UUID `db:"assistant_id" json:"assistant_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
