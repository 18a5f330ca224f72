package assistant

import (
	"context"
	"errors"
	"strings"

	"github.com/teemow/inboxdraft/internal/mailbox"
)

type draftCall struct {
	to, subject, body, inReplyTo string
}

type fakeMailbox struct {
	buckets  mailbox.Buckets
	fetchErr error
	draftErr error

	maxResults []int
	drafts     []draftCall
}

func (m *fakeMailbox) GetUnreadEmails(_ context.Context, maxResults int) (mailbox.Buckets, error) {
	m.maxResults = append(m.maxResults, maxResults)
	if m.fetchErr != nil {
		return mailbox.Buckets{}, m.fetchErr
	}
	return m.buckets, nil
}

func (m *fakeMailbox) CreateDraftReply(_ context.Context, toEmail, subject, body, inReplyTo string) error {
	if m.draftErr != nil {
		return m.draftErr
	}
	m.drafts = append(m.drafts, draftCall{to: toEmail, subject: subject, body: body, inReplyTo: inReplyTo})
	return nil
}

// fakeGenerator replies with a fixed text, or fails for prompts that
// contain failOn
type fakeGenerator struct {
	reply  string
	failOn string

	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.failOn != "" && strings.Contains(prompt, g.failOn) {
		return "", errors.New("model overloaded")
	}
	return g.reply, nil
}

type fakeDocuments struct {
	text string
	err  error

	calls int
}

func (d *fakeDocuments) GetDocumentText(_ context.Context, _ string) (string, error) {
	d.calls++
	return d.text, d.err
}
