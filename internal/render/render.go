// Package render builds the HTML document stored for each ticket: the
// selected message body with a membership summary spliced in before the
// closing body tag.
package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/loywise/maildesk/internal/mailparse"
	"github.com/loywise/maildesk/internal/models"
)

// NoContentPlaceholder is stored when a message has no usable body part.
const NoContentPlaceholder = "(No message content)"

var closingBodyRe = regexp.MustCompile(`(?i)</body\s*>`)

// Body picks the document content for one message: the first HTML part wins,
// otherwise the first plain-text part wrapped in a minimal document, and a
// placeholder when neither exists.
func Body(msg *mailparse.Message) string {
	for _, part := range msg.Parts {
		if part.MediaType == "text/html" {
			return part.Text
		}
	}
	for _, part := range msg.Parts {
		if part.MediaType == "text/plain" {
			return wrapPlain(part.Text)
		}
	}
	return wrapPlain(NoContentPlaceholder)
}

func wrapPlain(text string) string {
	return "<html><body><pre>" + html.EscapeString(text) + "</pre></body></html>"
}

// MembershipBlock renders the enrichment summary for a resolved member. A nil
// member renders the no-record placeholder naming memberNo, or "N/A" when the
// identifier is unknown too.
func MembershipBlock(member *models.Member, memberNo string) string {
	if member == nil {
		if strings.TrimSpace(memberNo) == "" {
			memberNo = "N/A"
		}
		return "<hr><div><strong>Membership Information</strong></div>" +
			"<p>No record found for member <em>" + html.EscapeString(memberNo) + "</em>.</p>"
	}

	var b strings.Builder
	b.WriteString("<hr><div><strong>Membership Information</strong></div><ul>")
	items := []struct{ label, value string }{
		{"Member No", member.MemberNo},
		{"Title", member.Title},
		{"First Name", member.FirstName},
		{"Last Name", member.LastName},
		{"Tier", member.Tier},
	}
	for _, item := range items {
		fmt.Fprintf(&b, "<li><strong>%s:</strong> %s</li>", item.label, html.EscapeString(item.value))
	}
	b.WriteString("</ul>")
	return b.String()
}

// InsertBlock splices block immediately before the document's first closing
// body tag, matched case-insensitively, or appends it when there is none.
func InsertBlock(doc, block string) string {
	if loc := closingBodyRe.FindStringIndex(doc); loc != nil {
		return doc[:loc[0]] + block + doc[loc[0]:]
	}
	return doc + block
}

// Document builds the complete stored body for msg enriched with member.
func Document(msg *mailparse.Message, member *models.Member) string {
	memberNo := ""
	if member != nil {
		memberNo = member.MemberNo
	}
	return InsertBlock(Body(msg), MembershipBlock(member, memberNo))
}
