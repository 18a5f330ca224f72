package mailbox

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/emersion/go-imap/v2"

	"github.com/teemow/inboxdraft/internal/instrumentation"
	"github.com/teemow/inboxdraft/internal/logging"
)

const inbox = "INBOX"

// Config holds the settings of a mailbox client
type Config struct {
	IMAPAddr      string
	SMTPAddr      string
	Username      string
	Password      string
	DraftsMailbox string

	Logger  logging.Logger
	Metrics *instrumentation.Metrics
}

// Client talks to one mailbox over IMAP and SMTP. The IMAP session is opened
// on first use and reused until Close; calls are serialized.
type Client struct {
	cfg     Config
	logger  logging.Logger
	metrics *instrumentation.Metrics

	dial   dialFunc
	submit submitFunc
	now    func() time.Time

	mu   sync.Mutex
	sess session
}

// NewClient creates a client. No connection is made until the first call.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:     cfg,
		logger:  logging.OrDefault(cfg.Logger),
		metrics: cfg.Metrics,
		dial:    dialIMAP,
		submit:  dialSubmission,
		now:     time.Now,
	}
}

// Account returns the mailbox address
func (c *Client) Account() string {
	return c.cfg.Username
}

// Connect opens and authenticates the IMAP session. It does nothing when a
// session is already open.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.sessionLocked(ctx)
	return err
}

func (c *Client) sessionLocked(ctx context.Context) (session, error) {
	if c.sess != nil {
		return c.sess, nil
	}

	opCtx, done := instrumentation.ObserveOperation(ctx, c.metrics, instrumentation.ServiceIMAP, instrumentation.OperationConnect)
	sess, err := c.dial(opCtx, c.cfg.IMAPAddr)
	if err != nil {
		done(err)
		c.logger.Error("Failed to connect to mailbox", logging.UserHash(c.cfg.Username), logging.Err(err))
		return nil, fmt.Errorf("%w: dialing %s: %w", ErrConnection, c.cfg.IMAPAddr, err)
	}
	if err := sess.Login(opCtx, c.cfg.Username, c.cfg.Password); err != nil {
		done(err)
		_ = sess.Logout(context.WithoutCancel(ctx))
		c.logger.Error("Failed to log in to mailbox", logging.UserHash(c.cfg.Username), logging.Err(err))
		return nil, fmt.Errorf("%w: login as %s: %w", ErrConnection, c.cfg.Username, err)
	}
	done(nil)

	c.logger.Info("Connected to mailbox", logging.UserHash(c.cfg.Username), logging.Domain(c.cfg.Username))
	c.sess = sess
	return sess, nil
}

// dropIfCanceled forgets the session after a canceled command, since
// cancellation closes the connection under it.
func (c *Client) dropIfCanceled(err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		c.sess = nil
	}
}

// GetUnreadEmails lists up to maxResults unseen INBOX messages with the
// highest sequence numbers, in ascending order, classified for the account.
// A failed search yields empty buckets and no error. A message that cannot be
// fetched or parsed is logged and skipped.
func (c *Client) GetUnreadEmails(ctx context.Context, maxResults int) (Buckets, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := c.sessionLocked(ctx)
	if err != nil {
		return Buckets{}, err
	}

	opCtx, done := instrumentation.ObserveOperation(ctx, c.metrics, instrumentation.ServiceIMAP, instrumentation.OperationSelect)
	err = sess.Select(opCtx, inbox)
	done(err)
	if err != nil {
		c.dropIfCanceled(err)
		return Buckets{}, fmt.Errorf("selecting %s: %w", inbox, err)
	}

	opCtx, done = instrumentation.ObserveOperation(ctx, c.metrics, instrumentation.ServiceIMAP, instrumentation.OperationSearch)
	nums, err := sess.SearchUnseen(opCtx)
	done(err)
	if err != nil {
		c.dropIfCanceled(err)
		if ctx.Err() != nil {
			return Buckets{}, ctx.Err()
		}
		c.logger.Warn("Unseen search failed, returning no messages", logging.Err(err))
		return NewBuckets(), nil
	}

	if len(nums) > maxResults {
		nums = nums[len(nums)-maxResults:]
	}

	msgs := make([]Message, 0, len(nums))
	for _, n := range nums {
		id := strconv.FormatUint(uint64(n), 10)

		opCtx, done = instrumentation.ObserveOperation(ctx, c.metrics, instrumentation.ServiceIMAP, instrumentation.OperationFetch)
		raw, err := sess.Fetch(opCtx, n)
		done(err)
		if err != nil {
			c.dropIfCanceled(err)
			if ctx.Err() != nil {
				return Buckets{}, ctx.Err()
			}
			c.logger.Error("Error fetching message", logging.MessageID(id), logging.Err(err))
			continue
		}

		msg, err := ParseMessage(id, raw)
		if err != nil {
			c.logger.Error("Error processing message", logging.MessageID(id), logging.Err(err))
			continue
		}
		msgs = append(msgs, msg)
	}

	b := Classify(c.cfg.Username, msgs)
	c.logger.Debug("Fetched unseen messages",
		"to_me", len(b.ToMe),
		"cc_me", len(b.CcMe),
		"skipped", len(nums)-len(msgs))
	return b, nil
}

// CreateDraftReply stores a reply to toEmail in the drafts mailbox. It logs
// in to the submission server first so the credentials are known to be able
// to send, then appends the draft over IMAP. Nothing is sent.
func (c *Client) CreateDraftReply(ctx context.Context, toEmail, subject, body, inReplyTo string) error {
	raw, err := ComposeReply(Reply{
		From:      c.cfg.Username,
		To:        toEmail,
		Subject:   subject,
		Body:      body,
		InReplyTo: inReplyTo,
		Date:      c.now(),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDraftPersist, err)
	}

	opCtx, done := instrumentation.ObserveOperation(ctx, c.metrics, instrumentation.ServiceSMTP, instrumentation.OperationLogin)
	sub, err := c.submit(opCtx, c.cfg.SMTPAddr, c.cfg.Username, c.cfg.Password)
	done(err)
	if err != nil {
		return fmt.Errorf("%w: submission login at %s: %w", ErrConnection, c.cfg.SMTPAddr, err)
	}
	defer func() {
		if err := sub.Quit(); err != nil {
			c.logger.Debug("Submission quit failed", logging.Err(err))
		}
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := c.sessionLocked(ctx)
	if err != nil {
		return err
	}

	opCtx, done = instrumentation.ObserveOperation(ctx, c.metrics, instrumentation.ServiceIMAP, instrumentation.OperationAppend)
	err = sess.Append(opCtx, c.cfg.DraftsMailbox, raw, []imap.Flag{imap.FlagDraft}, c.now())
	done(err)
	if err != nil {
		c.dropIfCanceled(err)
		c.logger.Error("Error creating draft reply", logging.Err(err))
		return fmt.Errorf("%w: appending to %s: %w", ErrDraftPersist, c.cfg.DraftsMailbox, err)
	}

	c.logger.Info("Draft reply created", logging.UserHash(toEmail))
	return nil
}

// Close logs out of the IMAP session if one is open
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess == nil {
		return nil
	}
	err := c.sess.Logout(ctx)
	c.sess = nil
	if err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}
