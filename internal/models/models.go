package models

import "time"

// Member is a membership profile row, read by the pipeline to enrich
// tickets. Rows are provisioned out of band; the first writer for a member
// number wins and the row is never updated afterwards.
type Member struct {
	MemberNo  string `db:"member_no"`
	Title     string `db:"title"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	Tier      string `db:"tier"` // single-character tier code
	Email     string `db:"email"`
}

// Ticket is one support request. The ticket number is assigned by the
// allocator, not by a database sequence. Rows are immutable once committed;
// the forwarding fields are written by a downstream desk tool and stay null
// here.
type Ticket struct {
	TicketNo         int64      `db:"ticket_no"`
	MemberNo         *string    `db:"member_no"`
	RequestDate      time.Time  `db:"request_date"`
	Category         string     `db:"category"`
	Subject          string     `db:"subject"`
	Status           string     `db:"status"`
	UpdateDate       time.Time  `db:"update_date"`
	UpdateBy         string     `db:"update_by"`
	ForwardTo        *string    `db:"forward_to"`
	ForwardDate      *time.Time `db:"forward_date"`
	ForwardRemarks   *string    `db:"forward_remarks"`
	ForwardBy        *string    `db:"forward_by"`
	BodyPath         string     `db:"body_path"`
	Email            string     `db:"email"`
	TopCategory      string     `db:"top_category"`
	CorporateDetails *string    `db:"corporate_details"`
	Urgent           string     `db:"urgent"`
	RequestedBy      string     `db:"requested_by"`
	PointsExpr       string     `db:"points_expr"`
	Tier             string     `db:"tier"`
	DownloadedAt     time.Time  `db:"downloaded_at"`
	ExternalRef      *string    `db:"external_ref"`
}

// UndeliveredEmail records one bounce-classified message.
type UndeliveredEmail struct {
	ID          int64     `db:"id"`
	SenderEmail string    `db:"sender_email"`
	ReceivedAt  time.Time `db:"received_at"`
	Reason      string    `db:"reason"`
}
