package mailbox

import (
	"context"
	"fmt"
	"io"
	"net"
	"sort"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

type IMAPSource struct {
	client      *client.Client
	messages    uint32
	uidValidity uint32
	uids        map[int]uint32
}

func NewIMAPSource(cfg Config) (*IMAPSource, error) {
	port := cfg.Port
	if port == 0 {
		if cfg.TLS {
			port = 993
		} else {
			port = 143
		}
	}
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, port)
	dialer := &net.Dialer{Timeout: timeout}

	var (
		c   *client.Client
		err error
	)
	if cfg.TLS {
		c, err = client.DialWithDialerTLS(dialer, addr, nil)
	} else {
		c, err = client.DialWithDialer(dialer, addr)
	}
	if err != nil {
		return nil, fmt.Errorf("imap dial %s: %w", addr, err)
	}

	if err := c.Login(cfg.Username, cfg.Password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	mbox, err := c.Select("INBOX", false)
	if err != nil {
		c.Logout()
		return nil, fmt.Errorf("imap select inbox: %w", err)
	}

	return &IMAPSource{
		client:      c,
		messages:    mbox.Messages,
		uidValidity: mbox.UidValidity,
		uids:        make(map[int]uint32),
	}, nil
}

// List fetches the UID of every message in the inbox. The returned identifier
// is qualified with the mailbox UIDVALIDITY so a reset mailbox never replays
// stale entries from the consumed-message set.
func (s *IMAPSource) List(_ context.Context) ([]Item, error) {
	if s.messages == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddRange(1, s.messages)

	ch := make(chan *imap.Message, 16)
	done := make(chan error, 1)
	go func() {
		done <- s.client.Fetch(seqset, []imap.FetchItem{imap.FetchUid}, ch)
	}()

	items := make([]Item, 0, s.messages)
	for msg := range ch {
		seq := int(msg.SeqNum)
		s.uids[seq] = msg.Uid
		items = append(items, Item{
			Seq: seq,
			UID: fmt.Sprintf("%d:%d", s.uidValidity, msg.Uid),
		})
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("imap fetch uids: %w", err)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Seq < items[j].Seq })
	return items, nil
}

func (s *IMAPSource) Fetch(_ context.Context, seq int) ([]byte, error) {
	uid, ok := s.uids[seq]
	if !ok {
		return nil, fmt.Errorf("imap fetch: unknown message %d", seq)
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)
	section := &imap.BodySectionName{}

	ch := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.client.UidFetch(seqset, []imap.FetchItem{section.FetchItem()}, ch)
	}()

	var raw []byte
	var readErr error
	for msg := range ch {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		raw, readErr = io.ReadAll(body)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("imap uid fetch %d: %w", uid, err)
	}
	if readErr != nil {
		return nil, fmt.Errorf("imap read body %d: %w", uid, readErr)
	}
	if raw == nil {
		return nil, fmt.Errorf("imap uid fetch %d: no body returned", uid)
	}
	return raw, nil
}

// Delete flags the message \Deleted. The flag does not renumber anything;
// messages disappear at the single expunge in Close, so sequence numbers
// listed earlier stay valid for the whole session.
func (s *IMAPSource) Delete(_ context.Context, seq int) error {
	uid, ok := s.uids[seq]
	if !ok {
		return fmt.Errorf("imap delete: unknown message %d", seq)
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.DeletedFlag}
	if err := s.client.UidStore(seqset, item, flags, nil); err != nil {
		return fmt.Errorf("imap mark deleted %d: %w", uid, err)
	}
	return nil
}

// Close expunges flagged messages and logs out.
func (s *IMAPSource) Close() error {
	expungeErr := s.client.Expunge(nil)
	logoutErr := s.client.Logout()
	if expungeErr != nil {
		return fmt.Errorf("imap expunge: %w", expungeErr)
	}
	return logoutErr
}
