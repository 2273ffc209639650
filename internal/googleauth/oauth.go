package googleauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultListenAddr is where the OAuth2 callback server listens.
const DefaultListenAddr = "localhost:8080"

const callbackPath = "/callback"

// DefaultAuthTimeout bounds how long Authorize waits for the browser redirect.
const DefaultAuthTimeout = 5 * time.Minute

// OAuth2Config holds the inputs of the interactive consent flow.
type OAuth2Config struct {
	// OnAuthURL receives the consent URL. Defaults to logging it.
	OnAuthURL    func(authURL string)
	Endpoint     oauth2.Endpoint
	ClientID     string
	ClientSecret string
	TokenFile    string
	ListenAddr   string
	Scopes       []string
	Timeout      time.Duration
}

// Authorize runs the OAuth2 authorization code flow through a local callback
// server and returns a token that carries a refresh token.
func Authorize(ctx context.Context, config OAuth2Config, logger *slog.Logger) (*oauth2.Token, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, errors.New("client id and client secret are required")
	}
	if config.ListenAddr == "" {
		config.ListenAddr = DefaultListenAddr
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultAuthTimeout
	}
	if config.Endpoint.TokenURL == "" {
		config.Endpoint = google.Endpoint
	}

	listener, err := net.Listen("tcp", config.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener: %w", err)
	}

	oauthConfig := &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Endpoint:     config.Endpoint,
		RedirectURL:  "http://" + listener.Addr().String() + callbackPath,
		Scopes:       config.Scopes,
	}

	codeChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			select {
			case errorChan <- errors.New("no authorization code received"):
			default:
			}
			http.Error(w, "Authentication failed: no authorization code received.", http.StatusBadRequest)
			return
		}
		select {
		case codeChan <- code:
		default:
		}
		_, _ = fmt.Fprint(w, "Authentication successful. You can close this window and return to the terminal.")
	})

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	served := make(chan struct{})
	go func() {
		defer close(served)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errorChan <- fmt.Errorf("callback server failed: %w", err):
			default:
			}
		}
	}()
	defer func() {
		_ = server.Shutdown(context.WithoutCancel(ctx))
		<-served
	}()

	authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	if config.OnAuthURL != nil {
		config.OnAuthURL(authURL)
	} else {
		logger.Info("Google authentication required")
		logger.Info("Please visit this URL to authenticate", "url", authURL)
	}

	timer := time.NewTimer(config.Timeout)
	defer timer.Stop()

	var authCode string
	select {
	case authCode = <-codeChan:
		logger.Debug("received authorization code")
	case err := <-errorChan:
		return nil, err
	case <-timer.C:
		return nil, fmt.Errorf("authentication timeout: no response received within %s", config.Timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := oauthConfig.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if config.TokenFile != "" {
		if err := SaveToken(config.TokenFile, token); err != nil {
			logger.Warn("failed to save token", "error", err, "file", config.TokenFile)
		} else {
			logger.Info("token saved", "file", config.TokenFile)
		}
	}

	return token, nil
}

// LoadToken loads a token from file.
func LoadToken(tokenFile string) (*oauth2.Token, error) {
	f, err := os.Open(tokenFile) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return token, nil
}

// SaveToken writes token to path, readable by the owner only.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}
