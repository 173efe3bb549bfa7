// Package pipeline drains the support mailbox into the ticket store. One Run
// consumes every message listed at its start: each becomes either a ticket or
// an undelivered-mail record, is deleted from the mailbox, and is remembered
// in the consumed set. Messages that hit transient trouble stay in the
// mailbox for the next run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/loywise/maildesk/internal/blob"
	"github.com/loywise/maildesk/internal/classify"
	"github.com/loywise/maildesk/internal/kvfile"
	"github.com/loywise/maildesk/internal/mailbox"
	"github.com/loywise/maildesk/internal/mailparse"
	"github.com/loywise/maildesk/internal/models"
	"github.com/loywise/maildesk/internal/ratelimit"
	"github.com/loywise/maildesk/internal/render"
	"github.com/loywise/maildesk/internal/store"
)

// Deps carries everything a Pipeline needs. AttachDir is the blob root on
// disk; only its base name ends up in ticket rows.
type Deps struct {
	Source    mailbox.Source
	Members   store.MemberStore
	Tickets   store.TicketStore
	Bounces   store.UndeliveredStore
	Blobs     blob.Store
	Seen      *kvfile.DedupSet
	Tokens    *kvfile.TokenLog
	Throttle  *ratelimit.Throttle
	Logger    *slog.Logger
	AttachDir string
}

type Pipeline struct {
	source   mailbox.Source
	members  store.MemberStore
	tickets  store.TicketStore
	bounces  store.UndeliveredStore
	blobs    blob.Store
	seen     *kvfile.DedupSet
	tokens   *kvfile.TokenLog
	throttle *ratelimit.Throttle
	logger   *slog.Logger

	attachDirBase string
}

func New(deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attachDir := deps.AttachDir
	if attachDir == "" {
		attachDir = "attachments"
	}
	return &Pipeline{
		source:        deps.Source,
		members:       deps.Members,
		tickets:       deps.Tickets,
		bounces:       deps.Bounces,
		blobs:         deps.Blobs,
		seen:          deps.Seen,
		tokens:        deps.Tokens,
		throttle:      deps.Throttle,
		logger:        logger,
		attachDirBase: filepath.Base(attachDir),
	}
}

// Run drains the mailbox once. The returned error is non-nil only when the
// pass could not continue: listing failed, the context was cancelled, or a
// backend connection died. Per-message failures are counted, logged, and
// leave the message in the mailbox.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	var report Report

	items, err := p.source.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list mailbox: %w", err)
	}
	report.Listed = len(items)
	p.logger.Info("mailbox listed", "messages", len(items))

	// The consumed set is persisted even when the pass aborts midway, so
	// messages deleted before the abort are never reprocessed.
	defer func() {
		if err := p.seen.Save(); err != nil {
			p.logger.Error("saving consumed-message set failed", "error", err)
		}
	}()

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if p.seen.Contains(item.UID) {
			report.Skipped++
			p.logger.Debug("message already consumed", "uid", item.UID)
			continue
		}
		if err := p.throttle.Wait(ctx); err != nil {
			return report, err
		}

		outcome := p.processOne(ctx, item)
		switch outcome.Disposition {
		case DispositionTicket:
			report.Tickets++
			p.logger.Info("ticket created", "uid", item.UID, "ticket", outcome.TicketNo)
		case DispositionBounce:
			report.Bounces++
			p.logger.Info("bounce recorded", "uid", item.UID)
		case DispositionDeferred:
			report.Deferred++
			if isConnectionError(outcome.Err) {
				p.logger.Error("backend unreachable, aborting pass", "uid", item.UID, "error", outcome.Err)
				return report, fmt.Errorf("backend unavailable: %w", outcome.Err)
			}
			if isLockTimeout(outcome.Err) {
				p.logger.Info("ticket table contended, message deferred", "uid", item.UID)
			} else {
				p.logger.Warn("message deferred to next run", "uid", item.UID, "error", outcome.Err)
			}
			continue
		}

		// Delete before marking: a message that survives in the mailbox
		// must stay eligible for reprocessing.
		if err := p.source.Delete(ctx, item.Seq); err != nil {
			report.DeleteFailures++
			p.logger.Warn("mailbox delete failed, message will be reprocessed", "uid", item.UID, "error", err)
			continue
		}
		p.seen.Mark(item.UID)
	}

	return report, nil
}

// processOne runs one message through fetch, parse, classify and the matching
// record path.
func (p *Pipeline) processOne(ctx context.Context, item mailbox.Item) Outcome {
	raw, err := p.source.Fetch(ctx, item.Seq)
	if err != nil {
		return deferredOutcome(item.UID, fmt.Errorf("fetch message: %w", err))
	}

	msg, err := mailparse.Parse(raw)
	if err != nil {
		return deferredOutcome(item.UID, fmt.Errorf("parse message: %w", err))
	}

	// Bounce wins over ticket: a delivery-failure notice never becomes a
	// ticket, whatever else it contains.
	if classify.IsUndelivered(msg) {
		return p.recordBounce(ctx, item, msg)
	}
	return p.createTicket(ctx, item, msg)
}

// recordBounce writes the undelivered-mail row for msg. A single statement,
// committing on its own.
func (p *Pipeline) recordBounce(ctx context.Context, item mailbox.Item, msg *mailparse.Message) Outcome {
	rec := models.UndeliveredEmail{
		SenderEmail: msg.From,
		ReceivedAt:  time.Now().UTC(),
		Reason:      classify.ReasonUndelivered,
	}
	if err := p.bounces.RecordUndelivered(ctx, rec); err != nil {
		return deferredOutcome(item.UID, fmt.Errorf("record undelivered: %w", err))
	}
	return Outcome{UID: item.UID, Disposition: DispositionBounce}
}

// createTicket resolves the member, renders the document, and runs the
// allocate-write-insert transaction. Everything that can be prepared ahead of
// the transaction is, so the allocator's table lock covers only the body
// write and the insert.
func (p *Pipeline) createTicket(ctx context.Context, item mailbox.Item, msg *mailparse.Message) Outcome {
	member, err := p.lookupMember(ctx, msg.From)
	if err != nil {
		return deferredOutcome(item.UID, fmt.Errorf("look up member: %w", err))
	}

	document := []byte(render.Document(msg, member))
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	tx, err := p.tickets.BeginTicketTx(ctx)
	if err != nil {
		return deferredOutcome(item.UID, fmt.Errorf("begin ticket tx: %w", err))
	}

	ticketNo, err := tx.AllocateTicketNumber(ctx)
	if err != nil {
		_ = tx.Rollback()
		return deferredOutcome(item.UID, fmt.Errorf("allocate ticket number: %w", err))
	}

	bodyKey := blob.BodyKey(ticketNo)
	if err := p.blobs.Put(ctx, bodyKey, "text/html", document); err != nil {
		_ = tx.Rollback()
		return deferredOutcome(item.UID, fmt.Errorf("write ticket body: %w", err))
	}

	ticket := models.Ticket{
		TicketNo:     ticketNo,
		MemberNo:     memberNoRef(member),
		RequestDate:  today,
		Category:     "General",
		Subject:      msg.Subject,
		Status:       "N",
		UpdateDate:   today,
		UpdateBy:     "",
		BodyPath:     p.attachDirBase + "/" + bodyKey,
		Email:        msg.From,
		TopCategory:  "",
		Urgent:       "No",
		RequestedBy:  localPart(msg.From),
		PointsExpr:   "",
		Tier:         memberTier(member),
		DownloadedAt: now,
	}
	if err := tx.InsertTicket(ctx, ticket); err != nil {
		_ = tx.Rollback()
		return deferredOutcome(item.UID, fmt.Errorf("insert ticket %d: %w", ticketNo, err))
	}
	if err := tx.Commit(); err != nil {
		return deferredOutcome(item.UID, fmt.Errorf("commit ticket %d: %w", ticketNo, err))
	}

	p.persistAttachments(ctx, ticketNo, msg.Attachments)

	if err := p.tokens.Record(ticketNo, uuid.NewString()); err != nil {
		p.logger.Warn("token log write failed", "ticket", ticketNo, "error", err)
	}

	return Outcome{UID: item.UID, Disposition: DispositionTicket, TicketNo: ticketNo}
}

// lookupMember resolves the sender to a membership row. No row is not an
// error: tickets from unknown senders are created without enrichment.
func (p *Pipeline) lookupMember(ctx context.Context, email string) (*models.Member, error) {
	member, err := p.members.GetMemberByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}

func deferredOutcome(uid string, err error) Outcome {
	return Outcome{UID: uid, Disposition: DispositionDeferred, Err: err}
}

func memberNoRef(member *models.Member) *string {
	if member == nil {
		return nil
	}
	no := member.MemberNo
	return &no
}

func memberTier(member *models.Member) string {
	if member == nil {
		return ""
	}
	return member.Tier
}

// localPart returns everything before the first @, or the whole address when
// there is none.
func localPart(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}
