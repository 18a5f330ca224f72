package mailbox

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
)

var errStopWalk = errors.New("stop walk")

// ParseMessage builds a Message from a raw RFC 5322 message. Unknown charsets
// and transfer encodings are tolerated; the affected text is kept undecoded.
func ParseMessage(id string, raw []byte) (Message, error) {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !tolerable(err) {
		return Message{}, fmt.Errorf("%w: message %s: %w", ErrParse, id, err)
	}

	h := &entity.Header
	body, err := extractBody(entity)
	if err != nil {
		return Message{}, fmt.Errorf("%w: message %s body: %w", ErrParse, id, err)
	}

	mh := mail.Header{Header: entity.Header}
	msgID, _ := mh.MessageID()

	return Message{
		ID:        id,
		From:      headerValue(h, "From").String(),
		Subject:   headerValue(h, "Subject").String(),
		Date:      headerValue(h, "Date").String(),
		To:        headerValue(h, "To").String(),
		Cc:        headerValue(h, "Cc").String(),
		Body:      truncate(body, MaxBodyLength),
		MessageID: msgID,
	}, nil
}

// extractBody returns the first text/plain part in depth-first order for a
// multipart message, or the decoded payload of a single-part message.
func extractBody(entity *message.Entity) (string, error) {
	if entity.MultipartReader() == nil {
		b, err := io.ReadAll(entity.Body)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	var body string
	err := entity.Walk(func(_ []int, part *message.Entity, err error) error {
		if err != nil && !tolerable(err) {
			return err
		}
		ct, _, _ := part.Header.ContentType()
		if ct != "text/plain" {
			return nil
		}
		b, err := io.ReadAll(part.Body)
		if err != nil {
			return err
		}
		body = string(b)
		return errStopWalk
	})
	if err != nil && !errors.Is(err, errStopWalk) {
		return "", err
	}
	return body, nil
}

func tolerable(err error) bool {
	return message.IsUnknownCharset(err) || message.IsUnknownEncoding(err)
}

// truncate keeps at most n characters of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	var b strings.Builder
	i := 0
	for _, r := range s {
		if i == n {
			break
		}
		b.WriteRune(r)
		i++
	}
	return b.String()
}
