package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrInteractionRequired is returned when no usable token is cached and no
// authorizer is available to obtain one
var ErrInteractionRequired = errors.New("google authorization required: run the auth command")

// LoadConfig reads an OAuth client secrets file ("installed" or "web" format)
// and returns the OAuth2 configuration for the document scopes.
func LoadConfig(credentialsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}
	conf, err := google.ConfigFromJSON(b, DocsScopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	return conf, nil
}

// Authorizer obtains a fresh token through user interaction
type Authorizer interface {
	Authorize(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error)
}

// TokenSource returns a token source for conf, resolving the cached token in
// this order: a valid cached token is used as is; an expired token with a
// refresh token is refreshed; otherwise auth runs the interactive flow. Any
// token obtained here or refreshed later is written back to store. auth may
// be nil, in which case a missing token yields ErrInteractionRequired.
//
// ctx bounds the work done here. Later refreshes keep its values but not its
// cancellation, since the returned source outlives the call.
func TokenSource(ctx context.Context, conf *oauth2.Config, store *FileTokenStore, auth Authorizer) (oauth2.TokenSource, error) {
	tok, err := store.Load()
	if err != nil && !errors.Is(err, ErrNoToken) {
		return nil, err
	}

	switch {
	case tok != nil && tok.Valid():
	case tok != nil && tok.RefreshToken != "":
		refreshed, err := conf.TokenSource(ctx, tok).Token()
		if err == nil {
			tok = refreshed
			if err := store.Save(tok); err != nil {
				return nil, err
			}
			break
		}
		tok, err = authorize(ctx, conf, auth, fmt.Errorf("refreshing cached token: %w", err))
		if err != nil {
			return nil, err
		}
		if err := store.Save(tok); err != nil {
			return nil, err
		}
	default:
		tok, err = authorize(ctx, conf, auth, ErrNoToken)
		if err != nil {
			return nil, err
		}
		if err := store.Save(tok); err != nil {
			return nil, err
		}
	}

	return NewPersistingTokenSource(conf.TokenSource(context.WithoutCancel(ctx), tok), store, tok), nil
}

func authorize(ctx context.Context, conf *oauth2.Config, auth Authorizer, cause error) (*oauth2.Token, error) {
	if auth == nil {
		return nil, fmt.Errorf("%w: %w", ErrInteractionRequired, cause)
	}
	tok, err := auth.Authorize(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("authorizing: %w", err)
	}
	return tok, nil
}

// HTTPClient returns an HTTP client that authenticates with ts
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors
func HTTPClient(ctx context.Context, ts oauth2.TokenSource) *http.Client {
	client := oauth2.NewClient(ctx, ts)

	// Force HTTP/1.1 by disabling HTTP/2
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		}
	}

	return client
}
