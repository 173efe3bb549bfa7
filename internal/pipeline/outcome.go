package pipeline

type Disposition string

const (
	// DispositionTicket: a ticket row committed for the message.
	DispositionTicket Disposition = "ticket"
	// DispositionBounce: an undelivered-email row committed instead.
	DispositionBounce Disposition = "bounce"
	// DispositionDeferred: a transient failure rolled the message back; it
	// stays in the mailbox and is retried on a later run.
	DispositionDeferred Disposition = "deferred"
)

// Outcome is the per-message result the orchestrator inspects to decide
// whether the message may be deleted and marked consumed.
type Outcome struct {
	UID         string
	Disposition Disposition
	TicketNo    int64
	Err         error
}

// Report sums one pass over the mailbox.
type Report struct {
	Listed         int
	Skipped        int
	Tickets        int
	Bounces        int
	Deferred       int
	DeleteFailures int
}
