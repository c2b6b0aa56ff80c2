package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"sitekit/internal/server/service"
)

const hubspotBaseURL = "https://api.hubapi.com"

// HubSpotClient creates contacts in the HubSpot CRM.
type HubSpotClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewHubSpotClient creates a CRM client authenticated with apiKey.
func NewHubSpotClient(apiKey string) *HubSpotClient {
	return &HubSpotClient{
		apiKey:  apiKey,
		baseURL: hubspotBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type hubspotContact struct {
	Properties map[string]string `json:"properties"`
}

// UpsertContact records the submitter as a new lead.
func (h *HubSpotClient) UpsertContact(ctx context.Context, sub *service.Submission) error {
	contact := hubspotContact{
		Properties: map[string]string{
			"email":          sub.Email,
			"firstname":      sub.FirstName,
			"lastname":       sub.LastName,
			"company":        sub.Company,
			"jobtitle":       sub.JobTitle,
			"phone":          sub.Phone,
			"country":        sub.Country,
			"hs_lead_status": "NEW",
			"lifecyclestage": "lead",
		},
	}

	body, err := json.Marshal(contact)
	if err != nil {
		return fmt.Errorf("failed to encode contact: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/crm/v3/objects/contacts", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create hubspot request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.apiKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("hubspot call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("hubspot returned status %d", resp.StatusCode)
	}
	return nil
}
