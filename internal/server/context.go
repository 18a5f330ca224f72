package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/teemow/inboxdraft/internal/assistant"
	"github.com/teemow/inboxdraft/internal/generator"
	"github.com/teemow/inboxdraft/internal/instrumentation"
	"github.com/teemow/inboxdraft/internal/logging"
)

// closeTimeout bounds the mailbox logout on shutdown
const closeTimeout = 5 * time.Second

// Mailbox is the mailbox client held by the server
type Mailbox interface {
	assistant.Mailbox
	Account() string
	Close(ctx context.Context) error
}

// Dependencies are the collaborators a ServerContext is built from.
// Documents may be nil, in which case replies are drafted without guidelines.
type Dependencies struct {
	Mailbox         Mailbox
	Documents       assistant.DocumentFetcher
	Generator       generator.Generator
	GuidelinesDocID string

	Logger      logging.Logger
	Metrics     *instrumentation.Metrics
	AuditLogger *instrumentation.AuditLogger
}

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx       context.Context
	cancel    context.CancelFunc
	mailbox   Mailbox
	assistant *assistant.Service
	logger    logging.Logger

	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	guidelines  bool

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, deps Dependencies) (*ServerContext, error) {
	if deps.Mailbox == nil {
		return nil, errors.New("mailbox client is required")
	}
	if deps.Generator == nil {
		return nil, errors.New("reply generator is required")
	}

	logger := logging.OrDefault(deps.Logger)
	guidelines := deps.Documents != nil && deps.GuidelinesDocID != ""
	if !guidelines {
		logger.Warn("No GUIDELINES_DOC_ID set - will not use email guidelines")
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:     shutdownCtx,
		cancel:  cancel,
		mailbox: deps.Mailbox,
		assistant: assistant.NewService(assistant.Config{
			Mailbox:         deps.Mailbox,
			Generator:       deps.Generator,
			Documents:       deps.Documents,
			GuidelinesDocID: deps.GuidelinesDocID,
			Logger:          logger,
			Metrics:         deps.Metrics,
		}),
		logger:      logger,
		metrics:     deps.Metrics,
		auditLogger: deps.AuditLogger,
		guidelines:  guidelines,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Assistant returns the drafting workflows
func (sc *ServerContext) Assistant() *assistant.Service {
	return sc.assistant
}

// Account returns the mailbox address the server works for
func (sc *ServerContext) Account() string {
	return sc.mailbox.Account()
}

// GuidelinesEnabled reports whether a guidelines document is configured
func (sc *ServerContext) GuidelinesEnabled() bool {
	return sc.guidelines
}

// Metrics returns the metrics recorder, or nil when instrumentation is off
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger, or nil when audit logging is off
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context and logs out of the mailbox
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	if sc.shutdown {
		sc.mu.Unlock()
		return nil
	}
	sc.shutdown = true
	sc.mu.Unlock()

	sc.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := sc.mailbox.Close(ctx); err != nil {
		sc.logger.Warn("Failed to close mailbox session", logging.Err(err))
		return err
	}
	return nil
}
