package models

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"shorter than limit", "abc", 5, "abc"},
		{"exactly at limit", "abcde", 5, "abcde"},
		{"cut to limit", "abcdef", 5, "abcde"},
		{"empty", "", 5, ""},
		{"zero limit", "abc", 0, ""},
		{"multibyte runes", "héllo wörld", 7, "héllo w"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.limit)
			if got != tt.want {
				t.Fatalf("Truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
			}
		})
	}
}

func TestTruncateCountsRunesNotBytes(t *testing.T) {
	in := strings.Repeat("é", 10) // 2 bytes per rune
	got := Truncate(in, 4)
	if utf8.RuneCountInString(got) != 4 {
		t.Fatalf("expected 4 runes, got %d (%q)", utf8.RuneCountInString(got), got)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got)
	}
}

func TestTicketClamped(t *testing.T) {
	long := strings.Repeat("x", 2000)
	longPtr := long

	in := Ticket{
		MemberNo:         &longPtr,
		Category:         long,
		Subject:          long,
		Status:           long,
		UpdateBy:         long,
		ForwardTo:        &longPtr,
		ForwardRemarks:   &longPtr,
		ForwardBy:        &longPtr,
		BodyPath:         long,
		Email:            long,
		TopCategory:      long,
		CorporateDetails: &longPtr,
		Urgent:           long,
		RequestedBy:      long,
		PointsExpr:       long,
		Tier:             long,
		ExternalRef:      &longPtr,
	}
	got := in.Clamped()

	checks := []struct {
		field string
		got   int
		want  int
	}{
		{"MemberNo", len(*got.MemberNo), MaxMemberNo},
		{"Category", len(got.Category), MaxCategory},
		{"Subject", len(got.Subject), MaxSubject},
		{"Status", len(got.Status), MaxStatus},
		{"UpdateBy", len(got.UpdateBy), MaxUpdateBy},
		{"ForwardTo", len(*got.ForwardTo), MaxForwardTo},
		{"ForwardRemarks", len(*got.ForwardRemarks), MaxForwardRemarks},
		{"ForwardBy", len(*got.ForwardBy), MaxForwardBy},
		{"BodyPath", len(got.BodyPath), MaxBodyPath},
		{"Email", len(got.Email), MaxEmail},
		{"TopCategory", len(got.TopCategory), MaxTopCategory},
		{"CorporateDetails", len(*got.CorporateDetails), MaxCorporateDetails},
		{"Urgent", len(got.Urgent), MaxUrgent},
		{"RequestedBy", len(got.RequestedBy), MaxRequestedBy},
		{"PointsExpr", len(got.PointsExpr), MaxPointsExpr},
		{"Tier", len(got.Tier), MaxTier},
		{"ExternalRef", len(*got.ExternalRef), MaxExternalRef},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s clamped to %d, want %d", c.field, c.got, c.want)
		}
	}

	// Untouched original.
	if len(in.Subject) != 2000 {
		t.Fatalf("Clamped mutated the receiver")
	}
}

func TestTicketClampedKeepsNilPointers(t *testing.T) {
	got := Ticket{Subject: "s"}.Clamped()
	if got.MemberNo != nil || got.ForwardTo != nil || got.ExternalRef != nil {
		t.Fatalf("nil pointer fields should stay nil")
	}
}

func TestMemberClamped(t *testing.T) {
	long := strings.Repeat("y", 500)
	got := Member{
		MemberNo:  long,
		Title:     long,
		FirstName: long,
		LastName:  long,
		Tier:      "GOLD",
		Email:     long,
	}.Clamped()

	if len(got.MemberNo) != MaxMemberNo {
		t.Errorf("MemberNo clamped to %d, want %d", len(got.MemberNo), MaxMemberNo)
	}
	if len(got.Title) != MaxMemberTitle || len(got.FirstName) != MaxMemberFirstName || len(got.LastName) != MaxMemberLastName {
		t.Errorf("name fields not clamped to %d", MaxMemberTitle)
	}
	if got.Tier != "G" {
		t.Errorf("Tier = %q, want %q", got.Tier, "G")
	}
	if len(got.Email) != MaxMemberEmail {
		t.Errorf("Email clamped to %d, want %d", len(got.Email), MaxMemberEmail)
	}
}

func TestUndeliveredEmailClamped(t *testing.T) {
	long := strings.Repeat("z", 300)
	got := UndeliveredEmail{SenderEmail: long, Reason: long}.Clamped()
	if len(got.SenderEmail) != MaxUndeliveredSender {
		t.Errorf("SenderEmail clamped to %d, want %d", len(got.SenderEmail), MaxUndeliveredSender)
	}
	if len(got.Reason) != MaxUndeliveredReason {
		t.Errorf("Reason clamped to %d, want %d", len(got.Reason), MaxUndeliveredReason)
	}
}
