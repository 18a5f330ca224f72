package mailbox

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crlf(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n"))
}

func TestDecodeHeader(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Quarterly report", "Quarterly report"},
		{"empty", "", ""},
		{"utf8 base64", "=?UTF-8?B?w4ltaWxl?=", "Émile"},
		{"latin1 quoted printable", "=?ISO-8859-1?Q?caf=E9?=", "café"},
		{"mixed charsets", "=?UTF-8?B?SGVsbG8g?= =?ISO-8859-1?Q?W=F6rld?=", "Hello Wörld"},
		{"encoded and plain text", "Re: =?UTF-8?Q?Gr=C3=BC=C3=9Fe?= from Berlin", "Re: Grüße from Berlin"},
		{"windows-1252", "=?windows-1252?Q?=93quoted=94?=", "“quoted”"},
		{"malformed kept raw", "=?bogus-charset?Q?abc?=", "=?bogus-charset?Q?abc?="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeHeader(tt.in))
		})
	}
}

func TestHeaderValue(t *testing.T) {
	var absent HeaderValue
	assert.Equal(t, "", absent.String())

	single := HeaderValue{"me@example.com"}
	assert.Equal(t, "me@example.com", single.String())

	multi := HeaderValue{"a@example.com", "=?UTF-8?Q?B=C3=B6b?= <b@example.com>"}
	assert.Equal(t, "a@example.com, Böb <b@example.com>", multi.String())
}

func TestParseMessage_SinglePart(t *testing.T) {
	raw := crlf(
		"From: =?UTF-8?B?w4ltaWxl?= <emile@example.com>",
		"To: me@example.com",
		"Subject: =?UTF-8?Q?Caf=C3=A9?= meeting",
		"Date: Mon, 02 Jan 2006 15:04:05 -0700",
		"Message-ID: <abc123@example.com>",
		"Content-Type: text/plain; charset=utf-8",
		"Content-Transfer-Encoding: quoted-printable",
		"",
		"Shall we meet at the caf=C3=A9?",
	)

	msg, err := ParseMessage("7", raw)
	require.NoError(t, err)

	assert.Equal(t, "7", msg.ID)
	assert.Equal(t, "Émile <emile@example.com>", msg.From)
	assert.Equal(t, "Café meeting", msg.Subject)
	assert.Equal(t, "Mon, 02 Jan 2006 15:04:05 -0700", msg.Date)
	assert.Equal(t, "me@example.com", msg.To)
	assert.Equal(t, "", msg.Cc)
	assert.Equal(t, "Shall we meet at the café?", strings.TrimSpace(msg.Body))
	assert.Equal(t, "abc123@example.com", msg.MessageID)
}

func TestParseMessage_RepeatedRecipientFields(t *testing.T) {
	raw := crlf(
		"From: a@example.com",
		"To: one@example.com",
		"To: two@example.com",
		"Cc: three@example.com",
		"Cc: me@example.com",
		"Subject: hi",
		"",
		"body",
	)

	msg, err := ParseMessage("1", raw)
	require.NoError(t, err)
	assert.Equal(t, "one@example.com, two@example.com", msg.To)
	assert.Equal(t, "three@example.com, me@example.com", msg.Cc)
}

func TestParseMessage_MultipartFirstPlainPart(t *testing.T) {
	raw := crlf(
		"From: a@example.com",
		"To: me@example.com",
		"Subject: nested",
		"MIME-Version: 1.0",
		`Content-Type: multipart/mixed; boundary="outer"`,
		"",
		"--outer",
		`Content-Type: multipart/alternative; boundary="inner"`,
		"",
		"--inner",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>html version</p>",
		"--inner",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"plain version",
		"--inner--",
		"--outer",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"second plain part",
		"--outer--",
		"",
	)

	msg, err := ParseMessage("2", raw)
	require.NoError(t, err)
	assert.Equal(t, "plain version", strings.TrimSpace(msg.Body))
}

func TestParseMessage_MultipartWithoutPlainPart(t *testing.T) {
	raw := crlf(
		"From: a@example.com",
		"Subject: html only",
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="b"`,
		"",
		"--b",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>only html</p>",
		"--b--",
		"",
	)

	msg, err := ParseMessage("3", raw)
	require.NoError(t, err)
	assert.Equal(t, "", msg.Body)
}

func TestParseMessage_SinglePartHTMLKeepsPayload(t *testing.T) {
	raw := crlf(
		"From: a@example.com",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>hello</p>",
	)

	msg, err := ParseMessage("4", raw)
	require.NoError(t, err)
	assert.Equal(t, "<p>hello</p>", msg.Body)
}

func TestParseMessage_Truncation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"ascii", strings.Repeat("a", 5000)},
		{"multibyte", strings.Repeat("é", 5000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := crlf(
				"From: a@example.com",
				"Content-Type: text/plain; charset=utf-8",
				"",
				tt.body,
			)
			msg, err := ParseMessage("5", raw)
			require.NoError(t, err)
			assert.Equal(t, MaxBodyLength, len([]rune(msg.Body)))
			assert.True(t, strings.HasPrefix(tt.body, msg.Body))
		})
	}
}

func TestParseMessage_UnknownCharsetTolerated(t *testing.T) {
	raw := crlf(
		"From: a@example.com",
		"Subject: odd",
		"Content-Type: text/plain; charset=x-made-up",
		"",
		"raw text",
	)

	msg, err := ParseMessage("6", raw)
	require.NoError(t, err)
	assert.Equal(t, "odd", msg.Subject)
	assert.Equal(t, "raw text", msg.Body)
}

func TestParseMessage_MalformedHeader(t *testing.T) {
	_, err := ParseMessage("8", []byte("this is not a header\r\n\r\nbody"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
	assert.Contains(t, err.Error(), "message 8")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "", truncate("abc", 0))
	assert.Equal(t, "日本", truncate("日本語", 2))
}
