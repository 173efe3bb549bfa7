package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/loywise/maildesk/internal/models"
	"github.com/loywise/maildesk/internal/store"
)

type TicketStore struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

func NewTicketStore(db *sqlx.DB, lockTimeout time.Duration) *TicketStore {
	if lockTimeout <= 0 {
		lockTimeout = 10 * time.Second
	}
	return &TicketStore{db: db, lockTimeout: lockTimeout}
}

func (s *TicketStore) MaxTicketNumber(ctx context.Context) (int64, error) {
	var current int64
	if err := s.db.GetContext(ctx, &current, `SELECT COALESCE(MAX(ticket_no), 0) FROM tickets`); err != nil {
		return 0, fmt.Errorf("read max ticket number: %w", err)
	}
	return current, nil
}

// BeginTicketTx opens the serializable transaction every ticket insert runs
// in. The lock-wait timeout is applied with a transaction-local SET so an
// allocator stuck behind a dead peer gives up instead of hanging the run.
// SET is a utility statement and leaves the snapshot untaken: at this
// isolation level the snapshot freezes at the transaction's first real
// query, which must not run before AllocateTicketNumber holds the table
// lock.
func (s *TicketStore) BeginTicketTx(ctx context.Context) (store.TicketTx, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("begin ticket tx: %w", err)
	}
	// SET takes no bind parameters; the value is formatted from a Duration.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`SET LOCAL lock_timeout = '%dms'`, s.lockTimeout.Milliseconds())); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("set lock timeout: %w", err)
	}
	return &ticketTx{tx: tx}, nil
}

type ticketTx struct {
	tx *sqlx.Tx
}

// AllocateTicketNumber locks the ticket table and returns MAX+1. SHARE ROW
// EXCLUSIVE conflicts with itself, so concurrent allocators queue here, and
// the lock is held until the transaction ends. That hold is what makes the
// number unique: ticket_no has no sequence, and a lock released before commit
// would let two readers see the same maximum. The MAX read is also the
// transaction's first snapshot-taking statement, so an allocator that queued
// on the lock sees the table as of the lock grant, the winner's committed
// row included.
func (t *ticketTx) AllocateTicketNumber(ctx context.Context) (int64, error) {
	if _, err := t.tx.ExecContext(ctx, `LOCK TABLE tickets IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return 0, fmt.Errorf("lock tickets: %w", err)
	}
	var next int64
	if err := t.tx.GetContext(ctx, &next, `SELECT COALESCE(MAX(ticket_no), 0) + 1 FROM tickets`); err != nil {
		return 0, fmt.Errorf("read max ticket number: %w", err)
	}
	return next, nil
}

func (t *ticketTx) InsertTicket(ctx context.Context, ticket models.Ticket) error {
	ticket = ticket.Clamped()
	_, err := t.tx.NamedExecContext(ctx,
		`INSERT INTO tickets (ticket_no, member_no, request_date, category, subject, status,
		                      update_date, update_by, forward_to, forward_date, forward_remarks,
		                      forward_by, body_path, email, top_category, corporate_details,
		                      urgent, requested_by, points_expr, tier, downloaded_at, external_ref)
		 VALUES (:ticket_no, :member_no, :request_date, :category, :subject, :status,
		         :update_date, :update_by, :forward_to, :forward_date, :forward_remarks,
		         :forward_by, :body_path, :email, :top_category, :corporate_details,
		         :urgent, :requested_by, :points_expr, :tier, :downloaded_at, :external_ref)`,
		ticket,
	)
	if err != nil {
		return fmt.Errorf("insert ticket %d: %w", ticket.TicketNo, err)
	}
	return nil
}

func (t *ticketTx) Commit() error {
	return t.tx.Commit()
}

func (t *ticketTx) Rollback() error {
	return t.tx.Rollback()
}
