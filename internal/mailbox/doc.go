// Package mailbox reads unseen messages from an IMAP mailbox and stores
// reply drafts in it.
//
// Messages are fetched with BODY.PEEK so listing them does not mark them
// read. Each message is parsed with go-message: RFC 2047 encoded headers are
// decoded chunk by chunk with their own charsets, repeated To and Cc fields
// are joined into one string, and the body is the first text/plain part
// (depth-first) truncated to 2000 characters.
//
// Unseen messages are split into two buckets: ToMe and CcMe. See Classify.
//
// Drafts are composed as text/plain messages and appended to the drafts
// mailbox with the \Draft flag. Before appending, the client logs in to the
// SMTP submission server and quits again; no message is ever sent.
//
// Example usage:
//
//	c := mailbox.NewClient(mailbox.Config{
//		IMAPAddr:      "imap.gmail.com:993",
//		SMTPAddr:      "smtp.gmail.com:465",
//		Username:      "me@example.com",
//		Password:      appPassword,
//		DraftsMailbox: "[Gmail]/Drafts",
//	})
//	defer c.Close(ctx)
//
//	buckets, err := c.GetUnreadEmails(ctx, 10)
package mailbox
