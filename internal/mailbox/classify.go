package mailbox

import "strings"

// Classify places each message in exactly one bucket. A message goes to CcMe
// only when account appears in its Cc field and not in its To field; every
// other message, including one that names account nowhere, goes to ToMe.
// Matching is a case-insensitive substring test.
func Classify(account string, msgs []Message) Buckets {
	b := NewBuckets()
	for _, m := range msgs {
		if addressedInCc(account, m) {
			b.CcMe = append(b.CcMe, m)
		} else {
			b.ToMe = append(b.ToMe, m)
		}
	}
	return b
}

func addressedInCc(account string, m Message) bool {
	acct := strings.ToLower(account)
	if strings.Contains(strings.ToLower(m.To), acct) {
		return false
	}
	return strings.Contains(strings.ToLower(m.Cc), acct)
}
