package classify

import (
	"testing"

	"github.com/loywise/maildesk/internal/mailparse"
)

func TestIsUndeliveredBySubject(t *testing.T) {
	tests := []struct {
		subject string
		want    bool
	}{
		{"Mail Delivery Failed: returned message", true},
		{"Undelivered Mail Returned to Sender", true},
		{"RETURN TO SENDER", true},
		{"Delivery Status Notification (Failure)", true},
		{"Re: MAILER-DAEMON notice", true},
		{"Your message bounced", true},
		{"Hello", false},
		{"Invoice for March", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			msg := &mailparse.Message{Subject: tt.subject}
			if got := IsUndelivered(msg); got != tt.want {
				t.Fatalf("IsUndelivered(subject=%q) = %v, want %v", tt.subject, got, tt.want)
			}
		})
	}
}

func TestIsUndeliveredByBodyPart(t *testing.T) {
	msg := &mailparse.Message{
		Subject: "FYI",
		Parts: []mailparse.Part{
			{MediaType: "text/plain", Text: "forwarding this along"},
			{MediaType: "text/html", Text: "<p>The message was <b>Undelivered</b>.</p>"},
		},
	}
	if !IsUndelivered(msg) {
		t.Fatalf("phrase inside an HTML part must classify as bounce")
	}
}

func TestIsUndeliveredCleanMessage(t *testing.T) {
	msg := &mailparse.Message{
		Subject: "Booking request",
		Parts: []mailparse.Part{
			{MediaType: "text/plain", Text: "I would like to change my seat."},
			{MediaType: "text/html", Text: "<html><body>I would like to change my seat.</body></html>"},
		},
	}
	if IsUndelivered(msg) {
		t.Fatalf("clean message classified as bounce")
	}
}

func TestIsUndeliveredCaseInsensitiveInBody(t *testing.T) {
	msg := &mailparse.Message{
		Subject: "note",
		Parts: []mailparse.Part{
			{MediaType: "text/plain", Text: "report from MaIlEr-DaEmOn@mx.example.com"},
		},
	}
	if !IsUndelivered(msg) {
		t.Fatalf("case-insensitive body match failed")
	}
}
