package googleauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/lifesort/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

func TestCredentials_Validate(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		creds   Credentials
	}{
		{
			name:  "oauth",
			creds: Credentials{ClientID: "id", ClientSecret: "secret", RefreshToken: "token"},
		},
		{
			name:  "service account",
			creds: Credentials{ServiceAccountPath: "/path/to/key.json"},
		},
		{
			name:    "nothing configured",
			creds:   Credentials{},
			wantErr: common.ErrMissingConfig,
		},
		{
			name:    "partial oauth",
			creds:   Credentials{ClientID: "id", ClientSecret: "secret"},
			wantErr: common.ErrMissingConfig,
		},
		{
			name: "both methods",
			creds: Credentials{
				ClientID:           "id",
				ClientSecret:       "secret",
				RefreshToken:       "token",
				ServiceAccountPath: "/path/to/key.json",
			},
			wantErr: common.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestHTTPClient(t *testing.T) {
	ctx := context.Background()

	client, err := HTTPClient(ctx, Credentials{ClientID: "id", ClientSecret: "secret", RefreshToken: "token"}, "scope")
	require.NoError(t, err)
	assert.NotNil(t, client)

	_, err = HTTPClient(ctx, Credentials{ServiceAccountPath: filepath.Join(t.TempDir(), "missing.json")}, "scope")
	assert.ErrorContains(t, err, "failed to read service account file")

	_, err = HTTPClient(ctx, Credentials{}, "scope")
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestTokenFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	token := &oauth2.Token{AccessToken: "at", RefreshToken: "rt", TokenType: "Bearer"}

	require.NoError(t, SaveToken(path, token))

	loaded, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "at", loaded.AccessToken)
	assert.Equal(t, "rt", loaded.RefreshToken)

	_, err = LoadToken(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestAuthorize(t *testing.T) {
	var gotCode string
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotCode = r.Form.Get("code")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access",
			"refresh_token": "refresh",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	defer tokenServer.Close()

	tokenFile := filepath.Join(t.TempDir(), "token.json")
	config := OAuth2Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{AuthURL: tokenServer.URL + "/auth", TokenURL: tokenServer.URL + "/token"},
		ListenAddr:   "127.0.0.1:0",
		Scopes:       []string{"scope"},
		TokenFile:    tokenFile,
		Timeout:      5 * time.Second,
		OnAuthURL: func(authURL string) {
			parsed, err := url.Parse(authURL)
			require.NoError(t, err)
			redirect := parsed.Query().Get("redirect_uri")
			require.NotEmpty(t, redirect)
			assert.Equal(t, "offline", parsed.Query().Get("access_type"))

			resp, err := http.Get(redirect + "?code=auth-code")
			require.NoError(t, err)
			_ = resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		},
	}

	token, err := Authorize(context.Background(), config, nil)
	require.NoError(t, err)
	assert.Equal(t, "auth-code", gotCode)
	assert.Equal(t, "refresh", token.RefreshToken)

	saved, err := LoadToken(tokenFile)
	require.NoError(t, err)
	assert.Equal(t, "refresh", saved.RefreshToken)
}

func TestAuthorize_MissingCode(t *testing.T) {
	config := OAuth2Config{
		ClientID:     "client",
		ClientSecret: "secret",
		ListenAddr:   "127.0.0.1:0",
		Timeout:      5 * time.Second,
		OnAuthURL: func(authURL string) {
			parsed, err := url.Parse(authURL)
			require.NoError(t, err)
			resp, err := http.Get(parsed.Query().Get("redirect_uri"))
			require.NoError(t, err)
			_ = resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		},
	}

	_, err := Authorize(context.Background(), config, nil)
	assert.ErrorContains(t, err, "no authorization code")
}

func TestAuthorize_RequiresClient(t *testing.T) {
	_, err := Authorize(context.Background(), OAuth2Config{}, nil)
	assert.Error(t, err)
}

func TestClassifyError(t *testing.T) {
	assert.NoError(t, ClassifyError(nil))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, ClassifyError(plain))

	throttled := ClassifyError(&googleapi.Error{Code: http.StatusTooManyRequests})
	assert.ErrorIs(t, throttled, common.ErrRateLimit)

	server := &googleapi.Error{Code: http.StatusBadGateway}
	assert.Equal(t, error(server), ClassifyError(server))

	var retryable *common.RetryableError
	require.ErrorAs(t, ClassifyError(&googleapi.Error{Code: http.StatusNotFound}), &retryable)
	assert.False(t, retryable.Retryable)
}
