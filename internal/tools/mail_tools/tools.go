package mail_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxdraft/internal/assistant"
	"github.com/teemow/inboxdraft/internal/mailbox"
	"github.com/teemow/inboxdraft/internal/server"
	"github.com/teemow/inboxdraft/internal/tools/common"
)

// Tool names
const (
	ToolGetUnreadEmails          = "get_unread_emails"
	ToolCreateDraftReply         = "create_draft_reply"
	ToolGetUnreadAndDraftReplies = "get_unread_and_draft_replies"
)

// RegisterMailTools registers the drafting tools with the MCP server
func RegisterMailTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getUnreadTool := mcp.NewTool(ToolGetUnreadEmails,
		mcp.WithDescription("Fetch unread emails, grouped into emails sent directly to you and emails you are CC'd on"),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of emails to fetch (default: 10)"),
			mcp.DefaultNumber(mailbox.DefaultMaxResults),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(getUnreadTool, common.InstrumentedToolHandler(ToolGetUnreadEmails,
		common.ToolOptions{ReadOnly: true}, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetUnreadEmails(ctx, request, sc)
		}))

	draftTool := mcp.NewTool(ToolCreateDraftReply,
		mcp.WithDescription("Generate an AI-powered draft reply to an email and save it in the drafts folder"),
		mcp.WithString("email_id",
			mcp.Required(),
			mcp.Description("The ID of the email to reply to"),
		),
		mcp.WithString("email_content",
			mcp.Required(),
			mcp.Description("The content of the email to reply to"),
		),
		mcp.WithString("sender",
			mcp.Required(),
			mcp.Description("The sender of the original email"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("The subject of the original email"),
		),
	)
	s.AddTool(draftTool, common.InstrumentedToolHandler(ToolCreateDraftReply,
		common.ToolOptions{ResourceType: "message", ResourceArg: "email_id"}, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateDraftReply(ctx, request, sc)
		}))

	draftAllTool := mcp.NewTool(ToolGetUnreadAndDraftReplies,
		mcp.WithDescription("Fetch unread emails and automatically create AI-powered draft replies for all emails sent directly to you (not CC'd)"),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of emails to fetch (default: 10)"),
			mcp.DefaultNumber(mailbox.DefaultMaxResults),
		),
	)
	s.AddTool(draftAllTool, common.InstrumentedToolHandler(ToolGetUnreadAndDraftReplies,
		common.ToolOptions{}, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetUnreadAndDraftReplies(ctx, request, sc)
		}))

	return nil
}

func handleGetUnreadEmails(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	maxResults, err := common.IntArg(request.GetArguments(), "max_results", mailbox.DefaultMaxResults)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return textResult(sc.Assistant().ListUnread(ctx, maxResults)), nil
}

func handleCreateDraftReply(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	// The body and subject may legitimately be empty: HTML-only mail has no
	// plain-text body, and a message may carry no Subject header.
	var req assistant.DraftRequest
	for _, field := range []struct {
		name       string
		dst        *string
		allowEmpty bool
	}{
		{"email_id", &req.EmailID, false},
		{"email_content", &req.Content, true},
		{"sender", &req.Sender, false},
		{"subject", &req.Subject, true},
	} {
		read := common.RequiredStringArg
		if field.allowEmpty {
			read = common.StringArg
		}
		v, err := read(args, field.name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		*field.dst = v
	}

	return textResult(sc.Assistant().DraftReply(ctx, req)), nil
}

func handleGetUnreadAndDraftReplies(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	maxResults, err := common.IntArg(request.GetArguments(), "max_results", mailbox.DefaultMaxResults)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return textResult(sc.Assistant().DraftAllToMe(ctx, maxResults)), nil
}

// textResult turns workflow output into a tool result, flagged as an error
// when the workflow failed
func textResult(text string, err error) *mcp.CallToolResult {
	if err != nil {
		return mcp.NewToolResultError(text)
	}
	return mcp.NewToolResultText(text)
}
