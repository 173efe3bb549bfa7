// Package classify flags delivery-failure notices so they are recorded as
// bounces instead of tickets.
package classify

import (
	"strings"

	"github.com/loywise/maildesk/internal/mailparse"
)

// ReasonUndelivered is the reason string recorded on every bounce row.
const ReasonUndelivered = "Undelivered Mail/Return"

// bouncePhrases are the fixed needles tested against subject and body text.
// This is a text heuristic, not a DSN parse: notices from common MTAs carry
// at least one of these.
var bouncePhrases = []string{
	"undelivered",
	"return to sender",
	"mail delivery failed",
	"delivery status notification",
	"mailer-daemon",
	"bounce",
}

// IsUndelivered reports whether msg looks like a delivery-failure notice.
// The subject is tested first; body parts are scanned only when the subject
// is clean. Matching is case-insensitive and runs over the decoded part text
// as-is, markup included.
func IsUndelivered(msg *mailparse.Message) bool {
	if containsPhrase(msg.Subject) {
		return true
	}
	for _, part := range msg.Parts {
		if containsPhrase(part.Text) {
			return true
		}
	}
	return false
}

func containsPhrase(s string) bool {
	if s == "" {
		return false
	}
	s = strings.ToLower(s)
	for _, phrase := range bouncePhrases {
		if strings.Contains(s, phrase) {
			return true
		}
	}
	return false
}
