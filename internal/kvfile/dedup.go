package kvfile

import "time"

// DedupSet is the set of message identifiers already fully consumed. Deletion
// from the mailbox is the authoritative done signal; the set is a secondary
// guard against redelivery of messages the mailbox still holds. It is loaded
// once per run and saved once at the end, so a mid-run crash loses in-memory
// additions but never already-persisted ones.
type DedupSet struct {
	store *Store
	seen  map[string]string
}

func LoadDedupSet(store *Store) (*DedupSet, error) {
	seen, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &DedupSet{store: store, seen: seen}, nil
}

func (d *DedupSet) Contains(id string) bool {
	_, ok := d.seen[id]
	return ok
}

// Mark records id as consumed. The stored value is the consumption time.
func (d *DedupSet) Mark(id string) {
	d.seen[id] = time.Now().UTC().Format(time.RFC3339)
}

func (d *DedupSet) Len() int {
	return len(d.seen)
}

// Save writes the full set back to the underlying store.
func (d *DedupSet) Save() error {
	return d.store.Save(d.seen)
}
