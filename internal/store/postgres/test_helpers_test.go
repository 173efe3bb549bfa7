package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/loywise/maildesk/internal/database"
	"github.com/loywise/maildesk/internal/models"
	"github.com/loywise/maildesk/migrations"
)

// --- Shared database fixtures used by tickets_test.go, members_test.go and
// undelivered_test.go ---

// testDB connects to TEST_DATABASE_URL, applies migrations and hands back a
// clean database. Tests are skipped when no test database is configured.
func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := NewDB(url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := database.RunMigrations(migrations.FS, url); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	if _, err := db.Exec(`TRUNCATE tickets, members, undelivered_emails`); err != nil {
		db.Close()
		t.Fatalf("truncate: %v", err)
	}
	t.Cleanup(func() {
		db.Exec(`TRUNCATE tickets, members, undelivered_emails`)
		db.Close()
	})
	return db
}

func testTicket(n int64) models.Ticket {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return models.Ticket{
		TicketNo:     n,
		RequestDate:  today,
		Category:     "General",
		Subject:      "subject",
		Status:       "N",
		UpdateDate:   today,
		BodyPath:     "attachments/test.html",
		Email:        "member@example.com",
		Urgent:       "No",
		RequestedBy:  "member",
		DownloadedAt: now,
	}
}

func insertTicket(t *testing.T, ts *TicketStore, ticket models.Ticket) {
	t.Helper()
	ctx := context.Background()
	tx, err := ts.BeginTicketTx(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tx.InsertTicket(ctx, ticket); err != nil {
		tx.Rollback()
		t.Fatalf("insert: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}
