package google

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// LoopbackAuthorizer runs the installed-app authorization flow: it prints the
// consent URL, receives the redirect on a local listener and exchanges the
// code using PKCE.
type LoopbackAuthorizer struct {
	// Out receives the consent URL. It must not be the MCP stdio stream.
	Out io.Writer

	// ListenAddr is the loopback address to listen on (default 127.0.0.1:0)
	ListenAddr string

	// Timeout bounds the wait for the browser redirect (default 5 minutes)
	Timeout time.Duration
}

type callbackResult struct {
	code string
	err  error
}

// Authorize implements Authorizer
func (a *LoopbackAuthorizer) Authorize(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	addr := a.ListenAddr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for OAuth callback: %w", err)
	}

	c := *conf
	c.RedirectURL = "http://" + ln.Addr().String() + "/callback"

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	authURL := c.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if a.Out != nil {
		fmt.Fprintf(a.Out, "Open the following link in your browser to authorize access to Google Docs:\n\n%s\n\n", authURL)
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var res callbackResult
	select {
	case res = <-results:
	case <-waitCtx.Done():
		return nil, fmt.Errorf("waiting for OAuth callback: %w", waitCtx.Err())
	}
	if res.err != nil {
		return nil, res.err
	}

	tok, err := c.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return tok, nil
}

func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var res callbackResult
		switch {
		case q.Get("state") != state:
			res.err = errors.New("OAuth callback state mismatch")
		case q.Get("error") != "":
			res.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
		case q.Get("code") == "":
			res.err = errors.New("OAuth callback without code")
		default:
			res.code = q.Get("code")
		}

		if res.err != nil {
			http.Error(w, html.EscapeString(res.err.Error()), http.StatusBadRequest)
		} else {
			_, _ = io.WriteString(w, "Authorization complete. You can close this window.")
		}

		select {
		case results <- res:
		default:
		}
	})
	return mux
}
