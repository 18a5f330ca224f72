package assistant

import (
	"context"
	"errors"

	"github.com/teemow/inboxdraft/internal/batch"
	"github.com/teemow/inboxdraft/internal/generator"
	"github.com/teemow/inboxdraft/internal/instrumentation"
	"github.com/teemow/inboxdraft/internal/logging"
	"github.com/teemow/inboxdraft/internal/mailbox"
)

// Mailbox is the part of the mailbox client the workflows use
type Mailbox interface {
	GetUnreadEmails(ctx context.Context, maxResults int) (mailbox.Buckets, error)
	CreateDraftReply(ctx context.Context, toEmail, subject, body, inReplyTo string) error
}

// Config holds the collaborators of a Service
type Config struct {
	Mailbox   Mailbox
	Generator generator.Generator

	// Documents and GuidelinesDocID are optional. Without both, replies are
	// generated without guidelines.
	Documents       DocumentFetcher
	GuidelinesDocID string

	Logger  logging.Logger
	Metrics *instrumentation.Metrics
}

// DraftRequest describes the message a single reply is drafted for
type DraftRequest struct {
	// EmailID identifies the message for logs and audit only
	EmailID string
	Content string
	Sender  string
	Subject string
}

// Service runs the drafting workflows. Each workflow returns the text for
// the caller, failures included; the error is the failure behind that text
// and is only meant for instrumentation.
type Service struct {
	mailbox   Mailbox
	generator generator.Generator
	documents DocumentFetcher
	docID     string
	logger    logging.Logger
	metrics   *instrumentation.Metrics
}

// NewService creates a Service
func NewService(cfg Config) *Service {
	return &Service{
		mailbox:   cfg.Mailbox,
		generator: cfg.Generator,
		documents: cfg.Documents,
		docID:     cfg.GuidelinesDocID,
		logger:    logging.OrDefault(cfg.Logger),
		metrics:   cfg.Metrics,
	}
}

// ListUnread lists the latest unseen messages, split into messages sent to
// the account and messages it is copied on
func (s *Service) ListUnread(ctx context.Context, maxResults int) (string, error) {
	if maxResults <= 0 {
		maxResults = mailbox.DefaultMaxResults
	}

	buckets, err := s.mailbox.GetUnreadEmails(ctx, maxResults)
	if err != nil {
		s.logger.Error("Error fetching emails", logging.Err(err))
		return "Error fetching emails: " + err.Error(), err
	}

	text, err := formatUnread(maxResults, buckets)
	if err != nil {
		s.logger.Error("Error fetching emails", logging.Err(err))
		return "Error fetching emails: " + err.Error(), err
	}
	return text, nil
}

// DraftReply generates a reply to the described message and stores it as a draft
func (s *Service) DraftReply(ctx context.Context, req DraftRequest) (string, error) {
	guidelines := s.guidelines(ctx)

	reply, err := s.draft(ctx, req.Sender, req.Subject, req.Content, "", guidelines)
	s.metrics.RecordDraft(ctx, instrumentation.DraftModeSingle, instrumentation.StatusOf(err))
	if err != nil {
		s.logger.Error("Error creating draft reply", logging.MessageID(req.EmailID), logging.Err(err))
		return "Error creating draft reply: " + err.Error(), err
	}

	return "✅ Draft reply created successfully!\n\nGenerated reply:\n" + reply, nil
}

// DraftAllToMe drafts a reply to every unseen message sent to the account.
// Each message is handled on its own; a failure is reported in the summary
// and the remaining messages are still processed. Copied messages are skipped.
func (s *Service) DraftAllToMe(ctx context.Context, maxResults int) (string, error) {
	if maxResults <= 0 {
		maxResults = mailbox.DefaultMaxResults
	}

	buckets, err := s.mailbox.GetUnreadEmails(ctx, maxResults)
	if err != nil {
		s.logger.Error("Error in get_unread_and_draft_replies", logging.Err(err))
		return "Error: " + err.Error(), err
	}
	if len(buckets.ToMe) == 0 {
		return "📭 No unread emails sent directly to you!", nil
	}

	guidelines := s.guidelines(ctx)

	results := batch.Process(buckets.ToMe,
		func(m mailbox.Message) string { return m.ID },
		func(m mailbox.Message) (string, error) {
			s.logger.Info("Creating draft", logging.MessageID(m.ID), logging.UserHash(m.From))
			reply, err := s.draft(ctx, m.From, m.Subject, m.Body, m.MessageID, guidelines)
			s.metrics.RecordDraft(ctx, instrumentation.DraftModeBatch, instrumentation.StatusOf(err))
			if err != nil {
				s.logger.Error("Error creating draft", logging.MessageID(m.ID), logging.Err(err))
			}
			return reply, err
		})

	summary := batch.Summarize(results)
	s.logger.Info("Batch drafting finished",
		"successful", summary.Successful,
		"failed", summary.Failed,
		"skipped", len(buckets.CcMe))

	return formatBatch(buckets.ToMe, results, len(buckets.CcMe)), nil
}

func (s *Service) draft(ctx context.Context, sender, subject, content, inReplyTo, guidelines string) (string, error) {
	prompt := BuildReplyPrompt(sender, subject, content, guidelines)

	s.logger.Debug("Requesting generated reply", "prompt_length", len(prompt))
	reply, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	if err := s.mailbox.CreateDraftReply(ctx, sender, subject, reply, inReplyTo); err != nil {
		return "", err
	}
	return reply, nil
}

// guidelines returns the guidelines text, or empty text when they are
// unavailable for any reason
func (s *Service) guidelines(ctx context.Context) string {
	if s.documents != nil && s.docID != "" {
		s.logger.Info("Fetching email guidelines from Google Doc...", logging.Document(s.docID))
	}

	text, err := FetchGuidelines(ctx, s.documents, s.docID)
	switch {
	case errors.Is(err, ErrGuidelinesNotConfigured):
		s.metrics.RecordGuidelinesFetch(ctx, instrumentation.GuidelinesUnconfigured)
		return ""
	case err != nil:
		s.metrics.RecordGuidelinesFetch(ctx, instrumentation.GuidelinesFailed)
		s.logger.Warn("Could not fetch guidelines", logging.Err(err))
		return ""
	}

	s.metrics.RecordGuidelinesFetch(ctx, instrumentation.GuidelinesFetched)
	s.logger.Info("Guidelines fetched successfully", "length", len(text))
	return text
}
