package docs

import (
	"context"
	"fmt"
	"sync"

	docs "google.golang.org/api/docs/v1"
	"google.golang.org/api/option"

	"github.com/teemow/inboxdraft/internal/google"
	"github.com/teemow/inboxdraft/internal/instrumentation"
	"github.com/teemow/inboxdraft/internal/logging"
)

// Config holds the settings of a Docs client
type Config struct {
	// CredentialsFile is the OAuth client secrets file (credentials.json)
	CredentialsFile string

	// TokenFile caches the OAuth token between runs
	TokenFile string

	// Authorizer runs the interactive flow when no usable token is cached.
	// When nil, a missing token is an error.
	Authorizer google.Authorizer

	// Options are appended to the service options, e.g. an endpoint override
	Options []option.ClientOption

	Logger  logging.Logger
	Metrics *instrumentation.Metrics
}

// Client fetches Google Docs as plain text. Authentication happens on first
// use or through Authenticate.
type Client struct {
	cfg     Config
	logger  logging.Logger
	metrics *instrumentation.Metrics

	mu      sync.Mutex
	service *docs.Service
}

// NewClient creates a client. No file is read until the first call.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:     cfg,
		logger:  logging.OrDefault(cfg.Logger),
		metrics: cfg.Metrics,
	}
}

// NewClientWithService creates an already authenticated client around svc
func NewClientWithService(svc *docs.Service, logger logging.Logger, metrics *instrumentation.Metrics) *Client {
	return &Client{
		logger:  logging.OrDefault(logger),
		metrics: metrics,
		service: svc,
	}
}

// Authenticate loads, refreshes or obtains the OAuth token and builds the
// Docs service. It does nothing when the client is already authenticated.
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.serviceLocked(ctx)
	return err
}

func (c *Client) serviceLocked(ctx context.Context) (*docs.Service, error) {
	if c.service != nil {
		return c.service, nil
	}

	conf, err := google.LoadConfig(c.cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}

	store := google.NewFileTokenStore(c.cfg.TokenFile)
	ts, err := google.TokenSource(ctx, conf, store, c.cfg.Authorizer)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token: %w", err)
	}

	// The service is cached across calls and must not inherit this call's cancellation
	httpClient := google.HTTPClient(context.WithoutCancel(ctx), ts)
	opts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, c.cfg.Options...)
	svc, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docs service: %w", err)
	}

	c.logger.Info("Successfully authenticated with Google Docs API")
	c.service = svc
	return svc, nil
}

// GetDocumentText retrieves a document and returns its body as plain text
func (c *Client) GetDocumentText(ctx context.Context, documentID string) (string, error) {
	if documentID == "" {
		return "", fmt.Errorf("documentID is required")
	}

	c.mu.Lock()
	svc, err := c.serviceLocked(ctx)
	c.mu.Unlock()
	if err != nil {
		return "", err
	}

	opCtx, done := instrumentation.ObserveOperation(ctx, c.metrics, instrumentation.ServiceDocs, instrumentation.OperationGet,
		instrumentation.ResourceAttrs("document", documentID)...)
	doc, err := svc.Documents.Get(documentID).Context(opCtx).Do()
	done(err)
	if err != nil {
		c.logger.Error("Error fetching Google Doc", logging.Document(documentID), logging.Err(err))
		return "", fmt.Errorf("failed to get document %s: %w", documentID, err)
	}

	text, err := FlattenDocument(doc)
	if err != nil {
		return "", fmt.Errorf("failed to read document %s: %w", documentID, err)
	}

	c.logger.Info("Successfully fetched document", logging.Document(documentID), "length", len(text))
	return text, nil
}
