package mailbox

import (
	"errors"
	"io"
	"net"
)

// IsConnectionError reports whether err means the session itself is broken
// rather than one command having failed. Callers should stop issuing
// commands on the session and retry on a fresh connection.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
