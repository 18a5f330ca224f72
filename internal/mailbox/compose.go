package mailbox

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// Reply describes a draft reply to compose
type Reply struct {
	From      string
	To        string
	Subject   string
	Body      string
	InReplyTo string
	Date      time.Time
}

// ReplySubject prefixes subject with "Re: " unless it already starts with "Re:".
func ReplySubject(subject string) string {
	if strings.HasPrefix(subject, "Re:") {
		return subject
	}
	return "Re: " + subject
}

// ComposeReply renders r as a text/plain RFC 5322 message. When InReplyTo is
// set, In-Reply-To and References name the parent message.
func ComposeReply(r Reply) ([]byte, error) {
	var h mail.Header
	h.SetDate(r.Date)
	h.SetAddressList("From", []*mail.Address{{Address: r.From}})

	to, err := mail.ParseAddressList(r.To)
	if err == nil && len(to) > 0 {
		h.SetAddressList("To", to)
	} else {
		// keep an unparseable sender verbatim
		h.SetText("To", r.To)
	}

	h.SetSubject(ReplySubject(r.Subject))
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generating message id: %w", err)
	}

	if id := strings.Trim(r.InReplyTo, "<> \t"); id != "" {
		h.SetMsgIDList("In-Reply-To", []string{id})
		h.SetMsgIDList("References", []string{id})
	}
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}
	if _, err := io.WriteString(w, r.Body); err != nil {
		return nil, fmt.Errorf("writing message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing message writer: %w", err)
	}
	return buf.Bytes(), nil
}
