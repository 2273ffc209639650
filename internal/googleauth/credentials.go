// Package googleauth builds authenticated HTTP clients for the Google APIs
// used by the ledger export and todo sync.
package googleauth

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/Veraticus/lifesort/internal/common"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Credentials holds one of two authentication methods: a service account
// key file, or an OAuth2 client with a refresh token.
type Credentials struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
}

// HasOAuth reports whether a complete OAuth2 client and refresh token are set.
func (c Credentials) HasOAuth() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// HasServiceAccount reports whether a service account key file is set.
func (c Credentials) HasServiceAccount() bool {
	return c.ServiceAccountPath != ""
}

// Validate checks that exactly one authentication method is configured.
func (c Credentials) Validate() error {
	hasOAuth := c.HasOAuth()
	hasServiceAccount := c.HasServiceAccount()

	if !hasOAuth && !hasServiceAccount {
		return fmt.Errorf("%w: no authentication method configured", common.ErrMissingConfig)
	}
	if hasOAuth && hasServiceAccount {
		return fmt.Errorf("%w: multiple authentication methods configured; use either OAuth2 or service account", common.ErrInvalidConfig)
	}
	return nil
}

// HTTPClient returns a client that authorizes every request for scopes.
func HTTPClient(ctx context.Context, creds Credentials, scopes ...string) (*http.Client, error) {
	ts, err := TokenSource(ctx, creds, scopes...)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}

// TokenSource resolves creds into a token source for scopes.
func TokenSource(ctx context.Context, creds Credentials, scopes ...string) (oauth2.TokenSource, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	if creds.HasServiceAccount() {
		jsonKey, err := os.ReadFile(creds.ServiceAccountPath) // #nosec G304
		if err != nil {
			return nil, fmt.Errorf("failed to read service account file: %w", err)
		}
		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, scopes...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse service account JSON: %w", err)
		}
		return jwtConfig.TokenSource(ctx), nil
	}

	client := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       scopes,
	}
	return client.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken}), nil
}
