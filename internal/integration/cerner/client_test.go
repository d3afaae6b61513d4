package cerner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

const appointmentBundle = `{
	"resourceType": "Bundle",
	"entry": [
		{
			"resource": {
				"resourceType": "Appointment",
				"id": "APPT-1",
				"status": "booked",
				"type": {"coding": [{"code": "OV", "display": "Office Visit"}]},
				"reason": {"text": "Follow up"},
				"description": "Office visit",
				"minutesDuration": 30,
				"comment": "Bring prior records",
				"start": "2026-08-20T14:00:00Z",
				"end": "2026-08-20T14:30:00Z",
				"participant": [
					{"actor": {"reference": "Patient/PAT-1"}},
					{"actor": {"reference": "Practitioner/DOC-1"}},
					{"actor": {"reference": "Location/LOC-1"}}
				]
			}
		},
		{
			"resource": {
				"resourceType": "Appointment",
				"id": "APPT-2",
				"status": "cancelled",
				"participant": []
			}
		}
	]
}`

const patientResource = `{
	"resourceType": "Patient",
	"id": "PAT-1",
	"name": [{"given": ["Maria", "Luisa", "Carmen"], "family": ["Diaz"], "prefix": ["Ms."]}],
	"birthDate": "1984-03-12",
	"gender": "female",
	"telecom": [
		{"system": "phone", "value": "555-0101"},
		{"system": "email", "value": "maria@example.com"}
	],
	"address": [{"line": ["12 Oak St", "Apt 4", "Floor 2"], "city": "Kansas City", "state": "MO", "postalCode": "64101"}]
}`

func TestSearchAppointments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Appointment" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("unexpected authorization header: %s", got)
		}
		if got := r.URL.Query().Get("location"); got != "LOC-1" {
			t.Errorf("unexpected location param: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(appointmentBundle))
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	params := url.Values{}
	params.Set("location", "LOC-1")
	appts, err := client.SearchAppointments(context.Background(), srv.URL, "tok-123", params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(appts) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(appts))
	}

	a := appts[0]
	if a.ID != "APPT-1" || a.Status != "booked" {
		t.Errorf("unexpected appointment: %+v", a)
	}
	if a.Reason == nil || a.Reason.Text != "Follow up" {
		t.Error("expected reason text")
	}
	if a.MinutesDuration != 30 {
		t.Errorf("expected 30 minutes, got %d", a.MinutesDuration)
	}
	if a.Start == nil || !a.Start.Equal(time.Date(2026, 8, 20, 14, 0, 0, 0, time.UTC)) {
		t.Error("expected start time to parse")
	}
	if len(a.Participant) != 3 {
		t.Fatalf("expected 3 participants, got %d", len(a.Participant))
	}
}

func TestSearchAppointmentsEmptyBundle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"resourceType": "Bundle"}`))
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	appts, err := client.SearchAppointments(context.Background(), srv.URL, "tok", url.Values{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(appts) != 0 {
		t.Errorf("expected empty result, got %d", len(appts))
	}
}

func TestSearchAppointmentsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	if _, err := client.SearchAppointments(context.Background(), srv.URL, "tok", url.Values{}); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestGetPatient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Patient/PAT-1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(patientResource))
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	p, err := client.GetPatient(context.Background(), srv.URL, "tok", "PAT-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "PAT-1" || p.Gender != "female" || p.BirthDate != "1984-03-12" {
		t.Errorf("unexpected patient: %+v", p)
	}
	if len(p.Name) != 1 || len(p.Name[0].Given) != 3 {
		t.Error("expected name parts to parse")
	}
	if len(p.Address) != 1 || len(p.Address[0].Line) != 3 {
		t.Error("expected address lines to parse")
	}
}

func TestParseReference(t *testing.T) {
	ref, ok := ParseReference("Patient/12345")
	if !ok || ref.ResourceType != "Patient" || ref.ID != "12345" {
		t.Errorf("unexpected parse: %+v ok=%v", ref, ok)
	}

	ref, ok = ParseReference("https://fhir.example.com/r4/Practitioner/DOC-7")
	if !ok || ref.ResourceType != "Practitioner" || ref.ID != "DOC-7" {
		t.Errorf("unexpected parse of absolute reference: %+v ok=%v", ref, ok)
	}

	if _, ok = ParseReference("justanid"); ok {
		t.Error("expected malformed reference to fail")
	}
}
