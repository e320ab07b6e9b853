package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultIdentityBaseURL = "https://identitytoolkit.googleapis.com"

// Identity is the account an ID token belongs to.
type Identity struct {
	UID   string
	Email string
	Name  string
}

// Verifier checks ID tokens issued by the identity service.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

// IdentityClient verifies ID tokens through the accounts:lookup REST endpoint.
type IdentityClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewIdentityClient(baseURL, apiKey string) *IdentityClient {
	if baseURL == "" {
		baseURL = DefaultIdentityBaseURL
	}
	return &IdentityClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type lookupResponse struct {
	Users []struct {
		LocalID     string `json:"localId"`
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
	} `json:"users"`
}

// Verify resolves idToken to the account it was issued for.
func (c *IdentityClient) Verify(ctx context.Context, idToken string) (*Identity, error) {
	if idToken == "" {
		return nil, fmt.Errorf("%w: empty id token", ErrUnauthenticated)
	}
	body, err := json.Marshal(map[string]string{"idToken": idToken})
	if err != nil {
		return nil, fmt.Errorf("encode lookup request: %w", err)
	}

	endpoint := c.baseURL + "/v1/accounts:lookup?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity lookup: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read lookup response: %w", err)
	}
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: identity service rejected token", ErrUnauthenticated)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity lookup: status %d: %s", resp.StatusCode, string(raw))
	}

	var out lookupResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode lookup response: %w", err)
	}
	if len(out.Users) == 0 || out.Users[0].LocalID == "" {
		return nil, fmt.Errorf("%w: no account for token", ErrUnauthenticated)
	}
	u := out.Users[0]
	return &Identity{UID: u.LocalID, Email: u.Email, Name: u.DisplayName}, nil
}
