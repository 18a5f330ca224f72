package mailbox

import (
	"mime"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
)

var wordDecoder = &mime.WordDecoder{CharsetReader: charset.Reader}

// HeaderValue holds every occurrence of one header field in a message. A
// field that appears once has a single element; a repeated field keeps each
// occurrence in order. An absent field is empty.
type HeaderValue []string

// headerValue collects the occurrences of key from h.
func headerValue(h *message.Header, key string) HeaderValue {
	var v HeaderValue
	fields := h.FieldsByKey(key)
	for fields.Next() {
		v = append(v, fields.Value())
	}
	return v
}

// String decodes every occurrence and joins them with ", ".
func (v HeaderValue) String() string {
	switch len(v) {
	case 0:
		return ""
	case 1:
		return decodeHeader(v[0])
	}
	parts := make([]string, len(v))
	for i, s := range v {
		parts[i] = decodeHeader(s)
	}
	return strings.Join(parts, ", ")
}

// decodeHeader resolves RFC 2047 encoded words, each with its own charset.
// Text outside encoded words is kept as is. On a malformed value the raw text
// is returned.
func decodeHeader(s string) string {
	decoded, err := wordDecoder.DecodeHeader(s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(decoded)
}
