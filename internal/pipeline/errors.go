package pipeline

import (
	"database/sql/driver"
	"errors"

	"github.com/lib/pq"

	"github.com/loywise/maildesk/internal/mailbox"
)

// isConnectionError tells a dead backend apart from one failed operation.
// Connection loss aborts the whole run; anything else defers only the
// current message.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "08"
	}
	return mailbox.IsConnectionError(err)
}

// isLockTimeout spots the allocator losing the table-lock race. Logged at a
// lower level than real failures: another pipeline instance simply held the
// ticket table first.
func isLockTimeout(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "55P03" || pqErr.Code == "40001"
	}
	return false
}
