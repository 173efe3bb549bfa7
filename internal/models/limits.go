package models

// Column widths of the shared ticket schema. The desk database predates this
// pipeline and is written by other tools as well, so the widths are fixed.
// Overlong values are cut to fit, never rejected.
const (
	MaxMemberNo         = 250
	MaxCategory         = 50
	MaxSubject          = 1600
	MaxStatus           = 1
	MaxUpdateBy         = 50
	MaxForwardTo        = 50
	MaxForwardRemarks   = 250
	MaxForwardBy        = 50
	MaxBodyPath         = 100
	MaxEmail            = 200
	MaxTopCategory      = 30
	MaxCorporateDetails = 12
	MaxUrgent           = 5
	MaxRequestedBy      = 25
	MaxPointsExpr       = 1
	MaxTier             = 1
	MaxExternalRef      = 50

	MaxMemberTitle     = 50
	MaxMemberFirstName = 50
	MaxMemberLastName  = 50
	MaxMemberTier      = 1
	MaxMemberEmail     = 200

	MaxUndeliveredSender = 200
	MaxUndeliveredReason = 200
)

// Truncate cuts s to at most limit characters. Widths count characters, not
// bytes, so multi-byte text is never split mid-rune.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func truncatePtr(p *string, limit int) *string {
	if p == nil {
		return nil
	}
	v := Truncate(*p, limit)
	return &v
}

// Clamped returns a copy of m with every string field cut to its column width.
func (m Member) Clamped() Member {
	m.MemberNo = Truncate(m.MemberNo, MaxMemberNo)
	m.Title = Truncate(m.Title, MaxMemberTitle)
	m.FirstName = Truncate(m.FirstName, MaxMemberFirstName)
	m.LastName = Truncate(m.LastName, MaxMemberLastName)
	m.Tier = Truncate(m.Tier, MaxMemberTier)
	m.Email = Truncate(m.Email, MaxMemberEmail)
	return m
}

// Clamped returns a copy of t with every string field cut to its column width.
func (t Ticket) Clamped() Ticket {
	t.MemberNo = truncatePtr(t.MemberNo, MaxMemberNo)
	t.Category = Truncate(t.Category, MaxCategory)
	t.Subject = Truncate(t.Subject, MaxSubject)
	t.Status = Truncate(t.Status, MaxStatus)
	t.UpdateBy = Truncate(t.UpdateBy, MaxUpdateBy)
	t.ForwardTo = truncatePtr(t.ForwardTo, MaxForwardTo)
	t.ForwardRemarks = truncatePtr(t.ForwardRemarks, MaxForwardRemarks)
	t.ForwardBy = truncatePtr(t.ForwardBy, MaxForwardBy)
	t.BodyPath = Truncate(t.BodyPath, MaxBodyPath)
	t.Email = Truncate(t.Email, MaxEmail)
	t.TopCategory = Truncate(t.TopCategory, MaxTopCategory)
	t.CorporateDetails = truncatePtr(t.CorporateDetails, MaxCorporateDetails)
	t.Urgent = Truncate(t.Urgent, MaxUrgent)
	t.RequestedBy = Truncate(t.RequestedBy, MaxRequestedBy)
	t.PointsExpr = Truncate(t.PointsExpr, MaxPointsExpr)
	t.Tier = Truncate(t.Tier, MaxTier)
	t.ExternalRef = truncatePtr(t.ExternalRef, MaxExternalRef)
	return t
}

// Clamped returns a copy of u with every string field cut to its column width.
func (u UndeliveredEmail) Clamped() UndeliveredEmail {
	u.SenderEmail = Truncate(u.SenderEmail, MaxUndeliveredSender)
	u.Reason = Truncate(u.Reason, MaxUndeliveredReason)
	return u
}
