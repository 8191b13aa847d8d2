// Package gotrue is the HTTP client for the credential service. Sign-in uses
// the service's OAuth2 password grant; the binding claim goes through its
// claim_binding RPC with the service key.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/gradebook-hq/go-auth-bridge/credentials"
)

const (
	tokenPath        = "/token"
	claimBindingPath = "/rpc/claim_binding"

	defaultTimeout = 10 * time.Second
)

var _ credentials.Store = (*Client)(nil)

type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	oauthConf  *oauth2.Config
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client (primarily for testing).
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient returns a credential service client rooted at baseURL. serviceKey
// authorizes the claim_binding RPC; sign-in itself needs no key.
func NewClient(baseURL, serviceKey string, options ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[gotrue.NewClient] baseURL is required")
	}

	client := &Client{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		oauthConf: &oauth2.Config{
			Endpoint: oauth2.Endpoint{
				TokenURL:  baseURL + tokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}

	for _, opt := range options {
		opt(client)
	}

	return client, nil
}

// SignIn exchanges loginIdentity/password for a session via the password
// grant. 4xx token errors are the retryable invalid-credential class;
// anything else is ErrUnavailable.
func (c *Client) SignIn(ctx context.Context, loginIdentity, password string) (*credentials.Session, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauthConf.PasswordCredentialsToken(ctx, loginIdentity, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response.StatusCode < http.StatusInternalServerError {
			return nil, errors.Wrapf(credentials.ErrInvalidSignIn, "[Client.SignIn] %s", retrieveErr.ErrorCode)
		}
		return nil, errors.Wrapf(credentials.ErrUnavailable, "[Client.SignIn] %v", err)
	}

	identityID, err := tokenSubject(token.AccessToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.SignIn] token subject")
	}

	return &credentials.Session{
		IdentityID:   identityID,
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}, nil
}

type claimBindingRequest struct {
	ProfileID  int64  `json:"profile_id"`
	IdentityID string `json:"identity_id"`
}

type claimBindingResponse struct {
	Bound              bool   `json:"bound"`
	ExistingIdentityID string `json:"existing_identity_id"`
}

// ClaimOrVerifyBinding calls the claim_binding RPC. The store performs the
// claim atomically; this client only relays the result.
func (c *Client) ClaimOrVerifyBinding(ctx context.Context, profileID int64, identityID string) (*credentials.Binding, error) {
	body, err := json.Marshal(claimBindingRequest{ProfileID: profileID, IdentityID: identityID})
	if err != nil {
		return nil, errors.Wrap(err, "[Client.ClaimOrVerifyBinding] marshal")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+claimBindingPath, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "[Client.ClaimOrVerifyBinding] build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(credentials.ErrUnavailable, "[Client.ClaimOrVerifyBinding] %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Wrapf(credentials.ErrUnavailable, "[Client.ClaimOrVerifyBinding] status %d: %s", resp.StatusCode, payload)
	}

	var claim claimBindingResponse
	if err := json.NewDecoder(resp.Body).Decode(&claim); err != nil {
		return nil, errors.Wrap(err, "[Client.ClaimOrVerifyBinding] decode")
	}

	return &credentials.Binding{Bound: claim.Bound, ExistingIdentityID: claim.ExistingIdentityID}, nil
}

// tokenSubject pulls the store-native identity id out of the access token's
// sub claim. The token was just issued over TLS by the credential service,
// so no local signature check is performed; the service holds the key.
func tokenSubject(accessToken string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return "", errors.Wrap(err, "parse access token")
	}
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("access token has no subject: %v", err)
	}
	return subject, nil
}
