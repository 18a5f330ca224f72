package mail_tools

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxdraft/internal/logging"
	"github.com/teemow/inboxdraft/internal/mailbox"
	"github.com/teemow/inboxdraft/internal/server"
)

type draft struct {
	to, subject, body, inReplyTo string
}

type fakeMailbox struct {
	buckets  mailbox.Buckets
	fetchErr error

	maxResults []int
	drafts     []draft
}

func (m *fakeMailbox) GetUnreadEmails(_ context.Context, maxResults int) (mailbox.Buckets, error) {
	m.maxResults = append(m.maxResults, maxResults)
	return m.buckets, m.fetchErr
}

func (m *fakeMailbox) CreateDraftReply(_ context.Context, to, subject, body, inReplyTo string) error {
	m.drafts = append(m.drafts, draft{to, subject, body, inReplyTo})
	return nil
}

func (m *fakeMailbox) Account() string { return "me@example.com" }

func (m *fakeMailbox) Close(context.Context) error { return nil }

type fakeGenerator struct{}

func (fakeGenerator) Generate(context.Context, string) (string, error) {
	return "Thanks, sounds good.", nil
}

func newTestServer(t *testing.T, mb *fakeMailbox) *mcpserver.MCPServer {
	t.Helper()

	sc, err := server.NewServerContext(context.Background(), server.Dependencies{
		Mailbox:   mb,
		Generator: fakeGenerator{},
		Logger:    logging.Discard(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	s := mcpserver.NewMCPServer("inboxdraft-test", "test", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterMailTools(s, sc))
	return s
}

func callTool(t *testing.T, s *mcpserver.MCPServer, name string, args map[string]interface{}) (string, bool) {
	t.Helper()

	tool, ok := s.ListTools()[name]
	require.True(t, ok, "tool %s not registered", name)

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := tool.Handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text, result.IsError
}

func TestRegisterMailTools(t *testing.T) {
	s := newTestServer(t, &fakeMailbox{buckets: mailbox.NewBuckets()})

	tools := s.ListTools()
	assert.Len(t, tools, 3)
	for _, name := range []string{ToolGetUnreadEmails, ToolCreateDraftReply, ToolGetUnreadAndDraftReplies} {
		assert.Contains(t, tools, name)
	}

	draftTool := tools[ToolCreateDraftReply].Tool
	assert.ElementsMatch(t,
		[]string{"email_id", "email_content", "sender", "subject"},
		draftTool.InputSchema.Required)
}

func TestGetUnreadEmails(t *testing.T) {
	mb := &fakeMailbox{buckets: mailbox.NewBuckets()}
	s := newTestServer(t, mb)

	text, isErr := callTool(t, s, ToolGetUnreadEmails, map[string]interface{}{"max_results": float64(3)})
	assert.False(t, isErr)
	assert.Contains(t, text, "📧 UNREAD EMAILS (Latest 3)")
	assert.Equal(t, []int{3}, mb.maxResults)
}

func TestGetUnreadEmails_DefaultMaxResults(t *testing.T) {
	mb := &fakeMailbox{buckets: mailbox.NewBuckets()}
	s := newTestServer(t, mb)

	text, isErr := callTool(t, s, ToolGetUnreadEmails, nil)
	assert.False(t, isErr)
	assert.Contains(t, text, "(Latest 10)")
	assert.Equal(t, []int{mailbox.DefaultMaxResults}, mb.maxResults)
}

func TestGetUnreadEmails_InvalidMaxResults(t *testing.T) {
	mb := &fakeMailbox{buckets: mailbox.NewBuckets()}
	s := newTestServer(t, mb)

	text, isErr := callTool(t, s, ToolGetUnreadEmails, map[string]interface{}{"max_results": "lots"})
	assert.True(t, isErr)
	assert.Equal(t, "max_results must be a number", text)
	assert.Empty(t, mb.maxResults)
}

func TestGetUnreadEmails_FetchError(t *testing.T) {
	mb := &fakeMailbox{fetchErr: errors.New("connection refused")}
	s := newTestServer(t, mb)

	text, isErr := callTool(t, s, ToolGetUnreadEmails, nil)
	assert.True(t, isErr)
	assert.Equal(t, "Error fetching emails: connection refused", text)
}

func TestCreateDraftReply(t *testing.T) {
	mb := &fakeMailbox{buckets: mailbox.NewBuckets()}
	s := newTestServer(t, mb)

	text, isErr := callTool(t, s, ToolCreateDraftReply, map[string]interface{}{
		"email_id":      "42",
		"email_content": "Can we meet tomorrow?",
		"sender":        "Alice <alice@example.com>",
		"subject":       "Meeting",
	})
	assert.False(t, isErr)
	assert.Equal(t, "✅ Draft reply created successfully!\n\nGenerated reply:\nThanks, sounds good.", text)

	require.Len(t, mb.drafts, 1)
	assert.Equal(t, "Alice <alice@example.com>", mb.drafts[0].to)
	assert.Equal(t, "Meeting", mb.drafts[0].subject)
	assert.Equal(t, "Thanks, sounds good.", mb.drafts[0].body)
}

func TestCreateDraftReply_EmptyContentAndSubject(t *testing.T) {
	mb := &fakeMailbox{buckets: mailbox.NewBuckets()}
	s := newTestServer(t, mb)

	_, isErr := callTool(t, s, ToolCreateDraftReply, map[string]interface{}{
		"email_id":      "7",
		"email_content": "",
		"sender":        "a@x.com",
		"subject":       "",
	})
	assert.False(t, isErr)
	require.Len(t, mb.drafts, 1)
	assert.Equal(t, "a@x.com", mb.drafts[0].to)
	assert.Equal(t, "Thanks, sounds good.", mb.drafts[0].body)
}

func TestCreateDraftReply_InvalidArguments(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]interface{}
		wantErr string
	}{
		{
			name:    "empty sender",
			args:    map[string]interface{}{"email_id": "7", "email_content": "x", "sender": "", "subject": "s"},
			wantErr: "sender is required",
		},
		{
			name:    "missing subject",
			args:    map[string]interface{}{"email_id": "7", "email_content": "x", "sender": "a@x.com"},
			wantErr: "subject is required",
		},
		{
			name:    "non-string content",
			args:    map[string]interface{}{"email_id": "7", "email_content": 3.0, "sender": "a@x.com", "subject": "s"},
			wantErr: "email_content is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mb := &fakeMailbox{buckets: mailbox.NewBuckets()}
			s := newTestServer(t, mb)

			text, isErr := callTool(t, s, ToolCreateDraftReply, tt.args)
			assert.True(t, isErr)
			assert.Equal(t, tt.wantErr, text)
			assert.Empty(t, mb.drafts)
		})
	}
}

func TestCreateDraftReply_MissingArgument(t *testing.T) {
	mb := &fakeMailbox{buckets: mailbox.NewBuckets()}
	s := newTestServer(t, mb)

	text, isErr := callTool(t, s, ToolCreateDraftReply, map[string]interface{}{
		"email_id":      "42",
		"email_content": "Can we meet tomorrow?",
		"subject":       "Meeting",
	})
	assert.True(t, isErr)
	assert.Equal(t, "sender is required", text)
	assert.Empty(t, mb.drafts)
}

func TestGetUnreadAndDraftReplies(t *testing.T) {
	mb := &fakeMailbox{buckets: mailbox.Buckets{
		ToMe: []mailbox.Message{
			{ID: "7", From: "bob@example.com", Subject: "Lunch?", Body: "Want to grab lunch?", MessageID: "abc@example.com"},
		},
		CcMe: []mailbox.Message{
			{ID: "8", From: "carol@example.com", Subject: "FYI", Body: "For your information."},
		},
	}}
	s := newTestServer(t, mb)

	text, isErr := callTool(t, s, ToolGetUnreadAndDraftReplies, map[string]interface{}{"max_results": float64(5)})
	assert.False(t, isErr)
	assert.Contains(t, text, "📧 Processed 1 emails sent directly to you:")
	assert.Contains(t, text, "✅ Draft created - From: bob@example.com")
	assert.Contains(t, text, "📋 Skipped 1 CC'd emails (no drafts created)")

	assert.Equal(t, []int{5}, mb.maxResults)
	require.Len(t, mb.drafts, 1)
	assert.Equal(t, "Lunch?", mb.drafts[0].subject)
	assert.Equal(t, "abc@example.com", mb.drafts[0].inReplyTo)
}
