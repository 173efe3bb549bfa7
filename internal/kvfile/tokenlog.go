package kvfile

import "strconv"

// TokenLog maps committed ticket numbers to the opaque tokens handed to
// downstream reconciliation. Unlike DedupSet it rewrites its snapshot on
// every Record: the log is an audit trail and should not trail the database
// by a whole run.
type TokenLog struct {
	store  *Store
	tokens map[string]string
}

func LoadTokenLog(store *Store) (*TokenLog, error) {
	tokens, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &TokenLog{store: store, tokens: tokens}, nil
}

// Record stores token under ticketNo and persists the snapshot.
func (l *TokenLog) Record(ticketNo int64, token string) error {
	l.tokens[strconv.FormatInt(ticketNo, 10)] = token
	return l.store.Save(l.tokens)
}
