// Package mail_tools registers the reply drafting tools with the MCP server:
// get_unread_emails, create_draft_reply and get_unread_and_draft_replies.
package mail_tools
