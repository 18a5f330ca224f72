package assistant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/teemow/inboxdraft/internal/batch"
	"github.com/teemow/inboxdraft/internal/mailbox"
)

const previewLength = 100

func formatUnread(maxResults int, b mailbox.Buckets) (string, error) {
	toMe, err := indentJSON(b.ToMe)
	if err != nil {
		return "", err
	}
	ccMe, err := indentJSON(b.CcMe)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("📧 UNREAD EMAILS (Latest %d)\n\n📩 DIRECTLY TO YOU (%d emails):\n%s\n\n📋 CC'D TO YOU (%d emails):\n%s\n",
		maxResults, len(b.ToMe), toMe, len(b.CcMe), ccMe), nil
}

func indentJSON(msgs []mailbox.Message) (string, error) {
	if msgs == nil {
		msgs = []mailbox.Message{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(msgs); err != nil {
		return "", fmt.Errorf("encoding messages: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func formatBatch(msgs []mailbox.Message, results []batch.Result, skipped int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📧 Processed %d emails sent directly to you:\n\n", len(msgs))

	for i, r := range results {
		msg := msgs[i]
		status := "✅ Draft created"
		if !r.Succeeded() {
			status = "❌ Failed: " + r.Error
		}
		fmt.Fprintf(&b, "\n%s - From: %s\n   Subject: %s\n", status, msg.From, msg.Subject)
		if r.Succeeded() {
			fmt.Fprintf(&b, "   Preview: %s...\n", preview(r.Result))
		}
	}

	fmt.Fprintf(&b, "\n\n📋 Skipped %d CC'd emails (no drafts created)", skipped)
	return b.String()
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewLength {
		return s
	}
	return string(r[:previewLength])
}
