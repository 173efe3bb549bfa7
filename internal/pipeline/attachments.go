package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/loywise/maildesk/internal/blob"
	"github.com/loywise/maildesk/internal/mailparse"
	"github.com/loywise/maildesk/internal/models"
)

var (
	illegalFilenameChars = regexp.MustCompile(`[\\/*?:"<>|]`)
	whitespaceRuns       = regexp.MustCompile(`\s+`)
)

// SanitizeFilename makes an attachment name safe for common filesystems and
// scopes it to its ticket: the ticket number is prefixed, characters illegal
// on Windows shares are dropped, whitespace runs collapse to one space, and
// names longer than 150 characters are cut to 140 of stem plus 10 of
// extension.
func SanitizeFilename(ticketNo int64, name string) string {
	full := fmt.Sprintf("%d_%s", ticketNo, name)
	full = illegalFilenameChars.ReplaceAllString(full, "")
	full = whitespaceRuns.ReplaceAllString(full, " ")
	full = strings.TrimSpace(full)
	if utf8.RuneCountInString(full) <= 150 {
		return full
	}
	ext := filepath.Ext(full)
	stem := strings.TrimSuffix(full, ext)
	return models.Truncate(stem, 140) + models.Truncate(ext, 10)
}

// persistAttachments writes every named part under the ticket's folder.
// Runs after commit, outside any lock; each attachment fails on its own and
// never touches the committed ticket.
func (p *Pipeline) persistAttachments(ctx context.Context, ticketNo int64, attachments []mailparse.Attachment) {
	for _, att := range attachments {
		name := SanitizeFilename(ticketNo, att.Filename)
		key := blob.AttachmentKey(ticketNo, name)
		if err := p.blobs.Put(ctx, key, "application/octet-stream", att.Data); err != nil {
			p.logger.Warn("attachment write failed", "ticket", ticketNo, "file", name, "error", err)
			continue
		}
		p.logger.Debug("attachment stored", "ticket", ticketNo, "file", name, "bytes", len(att.Data))
	}
}
