package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// IdentityClient talks to the external identity provider. The provider owns
// authentication end to end; this service only validates session tokens and
// receives the identity payload used for provisioning.
type IdentityClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

type IdentityResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Email       string `json:"email,omitempty"`
}

func NewIdentityClient(baseURL, token string) *IdentityClient {
	return &IdentityClient{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ValidateSession calls /session/validate on the identity provider.
func (c *IdentityClient) ValidateSession(sessionToken string) (*IdentityResponse, error) {
	url := fmt.Sprintf("%s/session/validate", c.BaseURL)

	reqBody := map[string]interface{}{
		"session_token": sessionToken,
	}
	jsonData, _ := json.Marshal(reqBody)

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		log.Printf("IdentityProvider /session/validate returned %d: %s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("session validation failed: %d", resp.StatusCode)
	}

	var out IdentityResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
