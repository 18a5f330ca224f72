package assistant

import "strings"

// BuildReplyPrompt builds the generation prompt for a reply to one message.
// The guidelines section is left out when guidelines is empty.
func BuildReplyPrompt(sender, subject, content, guidelines string) string {
	var b strings.Builder

	b.WriteString("Generate a professional and helpful email reply to the following email:\n\n")
	b.WriteString("From: " + sender + "\n")
	b.WriteString("Subject: " + subject + "\n\n")
	b.WriteString("Email content:\n")
	b.WriteString(content)
	b.WriteString("\n\n")

	if guidelines != "" {
		b.WriteString("\nIMPORTANT: Follow these email writing guidelines:\n\n")
		b.WriteString(guidelines)
		b.WriteString("\n\n")
	}

	b.WriteString("\nPlease write a thoughtful, professional reply. Keep it concise and focused - " +
		"aim for 2-3 short paragraphs maximum. Be warm but efficient. " +
		"Only provide the email body text, no subject line or signatures.\n\n")
	b.WriteString("IMPORTANT: Keep your response under 200 words. Get straight to the point.")

	return b.String()
}
