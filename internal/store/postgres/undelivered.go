package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/loywise/maildesk/internal/models"
)

type UndeliveredStore struct {
	db *sqlx.DB
}

func NewUndeliveredStore(db *sqlx.DB) *UndeliveredStore {
	return &UndeliveredStore{db: db}
}

// RecordUndelivered inserts one bounce row. A single statement commits on its
// own, so no explicit transaction is needed.
func (s *UndeliveredStore) RecordUndelivered(ctx context.Context, rec models.UndeliveredEmail) error {
	rec = rec.Clamped()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO undelivered_emails (sender_email, received_at, reason)
		 VALUES ($1, $2, $3)`,
		rec.SenderEmail, rec.ReceivedAt, rec.Reason,
	)
	if err != nil {
		return fmt.Errorf("insert undelivered email: %w", err)
	}
	return nil
}
