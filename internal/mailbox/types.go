package mailbox

import "errors"

// DefaultMaxResults is the number of unseen messages fetched when the caller
// does not ask for a positive number.
const DefaultMaxResults = 10

// MaxBodyLength is the number of characters of a message body kept for the caller
const MaxBodyLength = 2000

// Error kinds returned by the mailbox client. Concrete errors wrap one of these.
var (
	// ErrConnection reports a failure to dial or log in to a mail host.
	ErrConnection = errors.New("mailbox connection failed")

	// ErrParse reports a message that could not be read or decoded.
	ErrParse = errors.New("message parse failed")

	// ErrDraftPersist reports a draft that could not be composed or stored.
	ErrDraftPersist = errors.New("draft persist failed")
)

// Message is an unseen message as returned to tool callers
type Message struct {
	// ID is the IMAP sequence number of the message in INBOX
	ID      string `json:"id"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
	To      string `json:"to"`
	Cc      string `json:"cc"`
	Body    string `json:"body"`

	// MessageID is the Message-ID header without angle brackets, used to
	// thread replies. It is not part of the JSON listing.
	MessageID string `json:"-"`
}

// Buckets partitions unseen messages by how the account is addressed
type Buckets struct {
	ToMe []Message `json:"to_me"`
	CcMe []Message `json:"cc_me"`
}

// NewBuckets returns buckets whose slices are empty rather than nil
func NewBuckets() Buckets {
	return Buckets{ToMe: []Message{}, CcMe: []Message{}}
}
