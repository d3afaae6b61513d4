package cerner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RemoteClient is the FHIR read surface the fetcher depends on.
type RemoteClient interface {
	SearchAppointments(ctx context.Context, endpoint, accessToken string, params url.Values) ([]*WireAppointment, error)
	GetPatient(ctx context.Context, endpoint, accessToken, id string) (*WirePatient, error)
}

// WireCoding is a FHIR Coding element.
type WireCoding struct {
	Code    string `json:"code"`
	Display string `json:"display"`
}

// WireAppointment is the subset of a FHIR Appointment resource the sync
// consumes.
type WireAppointment struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Type   struct {
		Coding []WireCoding `json:"coding"`
	} `json:"type"`
	Reason *struct {
		Text string `json:"text"`
	} `json:"reason"`
	Description     string     `json:"description"`
	MinutesDuration int        `json:"minutesDuration"`
	Comment         string     `json:"comment"`
	Start           *time.Time `json:"start"`
	End             *time.Time `json:"end"`
	Participant     []struct {
		Actor struct {
			Reference string `json:"reference"`
		} `json:"actor"`
	} `json:"participant"`
}

// WirePatient is the subset of a FHIR Patient resource the sync consumes.
// BirthDate stays a string because FHIR dates omit the time part.
type WirePatient struct {
	ID   string `json:"id"`
	Name []struct {
		Given  []string `json:"given"`
		Family []string `json:"family"`
		Prefix []string `json:"prefix"`
		Suffix []string `json:"suffix"`
	} `json:"name"`
	BirthDate string `json:"birthDate"`
	Gender    string `json:"gender"`
	Telecom   []struct {
		System string `json:"system"`
		Value  string `json:"value"`
	} `json:"telecom"`
	Address []struct {
		Line       []string `json:"line"`
		City       string   `json:"city"`
		State      string   `json:"state"`
		PostalCode string   `json:"postalCode"`
	} `json:"address"`
}

// ParticipantRef is a parsed FHIR actor reference like "Patient/12345".
type ParticipantRef struct {
	ResourceType string
	ID           string
}

// ParseReference splits a FHIR reference into its resource type and id.
// Absolute references keep only the last two path segments.
func ParseReference(ref string) (ParticipantRef, bool) {
	parts := strings.Split(strings.Trim(ref, "/"), "/")
	if len(parts) < 2 {
		return ParticipantRef{}, false
	}
	return ParticipantRef{
		ResourceType: parts[len(parts)-2],
		ID:           parts[len(parts)-1],
	}, true
}

// Client talks to a Cerner FHIR endpoint over HTTP.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

func (c *Client) get(ctx context.Context, rawURL, accessToken string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fhir request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("fhir request %s: status %d: %s", rawURL, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// SearchAppointments runs an Appointment search and returns the bundle
// entries. An empty bundle is not an error.
func (c *Client) SearchAppointments(ctx context.Context, endpoint, accessToken string, params url.Values) ([]*WireAppointment, error) {
	var bundle struct {
		Entry []struct {
			Resource *WireAppointment `json:"resource"`
		} `json:"entry"`
	}
	u := strings.TrimRight(endpoint, "/") + "/Appointment?" + params.Encode()
	if err := c.get(ctx, u, accessToken, &bundle); err != nil {
		return nil, err
	}
	appts := make([]*WireAppointment, 0, len(bundle.Entry))
	for _, e := range bundle.Entry {
		if e.Resource != nil {
			appts = append(appts, e.Resource)
		}
	}
	return appts, nil
}

// GetPatient reads a single Patient resource.
func (c *Client) GetPatient(ctx context.Context, endpoint, accessToken, id string) (*WirePatient, error) {
	var p WirePatient
	u := strings.TrimRight(endpoint, "/") + "/Patient/" + url.PathEscape(id)
	if err := c.get(ctx, u, accessToken, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
