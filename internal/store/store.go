package store

import (
	"context"
	"errors"

	"github.com/loywise/maildesk/internal/models"
)

var ErrNotFound = errors.New("store: not found")

type MemberStore interface {
	GetMemberByNumber(ctx context.Context, memberNo string) (*models.Member, error)
	GetMemberByEmail(ctx context.Context, email string) (*models.Member, error)
	// CreateMemberIfAbsent inserts the member unless a row with the same
	// number already exists. First writer wins; existing rows are never
	// updated. Reports whether a row was inserted.
	CreateMemberIfAbsent(ctx context.Context, member models.Member) (bool, error)
}

// TicketStore hands out ticket transactions. Every ticket insert must go
// through a TicketTx: the allocator's table lock is the only thing keeping
// concurrently running pipelines from assigning the same number, because
// ticket_no has no sequence behind it.
type TicketStore interface {
	BeginTicketTx(ctx context.Context) (TicketTx, error)
	MaxTicketNumber(ctx context.Context) (int64, error)
}

// TicketTx is one serializable allocate-and-insert transaction. The lock
// taken by AllocateTicketNumber is held until Commit or Rollback, so keep
// the window small: render and resolve everything else first.
type TicketTx interface {
	AllocateTicketNumber(ctx context.Context) (int64, error)
	InsertTicket(ctx context.Context, ticket models.Ticket) error
	Commit() error
	Rollback() error
}

type UndeliveredStore interface {
	RecordUndelivered(ctx context.Context, rec models.UndeliveredEmail) error
}
