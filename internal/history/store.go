package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

// DefaultKey is the storage key the history list lives under.
const DefaultKey = "studyTrackerHistory"

var (
	// ErrStorageUnavailable wraps any failure of the underlying substrate.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrNotNormalized is returned by Append for a record that would not
	// read back unchanged. Call Record.Normalize first.
	ErrNotNormalized = errors.New("record is not at storage precision")
)

// KV is the synchronous persistence capability the host supplies.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Store keeps the saved sessions as one serialized list under a single key.
// It assumes a single writer.
type Store struct {
	kv  KV
	key string
}

func NewStore(kv KV, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{kv: kv, key: key}
}

// entry is one element of the stored list. Entries that do not decode as a
// Record are kept verbatim so rewrites never drop them.
type entry struct {
	raw    json.RawMessage
	record Record
	ok     bool
}

// List returns every record, oldest first. Missing, malformed or unreadable
// data yields an empty list.
func (s *Store) List() []Record {
	entries, err := s.load()
	if err != nil {
		log.Println("history: reading saved sessions:", err)
		return []Record{}
	}

	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		if e.ok {
			records = append(records, e.record)
		}
	}
	return records
}

// Append adds r to the end of the list and rewrites it. r must already be
// at storage precision (see Record.Normalize).
func (s *Store) Append(r Record) error {
	if !r.normalized() {
		return fmt.Errorf("%w: %s", ErrNotNormalized, r.ID)
	}

	entries, err := s.load()
	if err != nil {
		return err
	}
	return s.save(append(entries, entry{record: r, ok: true}))
}

// Remove drops the first record whose id matches. Removing an unknown id is
// not an error and does not touch storage.
func (s *Store) Remove(id string) error {
	entries, err := s.load()
	if err != nil {
		return err
	}

	for i, e := range entries {
		if e.ok && e.record.ID.Matches(id) {
			return s.save(append(entries[:i:i], entries[i+1:]...))
		}
	}
	return nil
}

// load reads the list. Only substrate failures are returned; content that
// is not a list is treated as empty, and entries that do not decode are
// carried along undecoded.
func (s *Store) load() ([]entry, error) {
	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorageUnavailable, s.key, err)
	}
	if !ok || raw == "" {
		return []entry{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		log.Printf("history: %s is not a list, treating as empty: %v", s.key, err)
		return []entry{}, nil
	}

	entries := make([]entry, 0, len(items))
	for i, item := range items {
		e := entry{raw: item}
		if err := json.Unmarshal(item, &e.record); err != nil {
			log.Printf("history: skipping malformed entry %d in %s: %v", i, s.key, err)
		} else {
			e.ok = true
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *Store) save(entries []entry) error {
	items := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		if !e.ok {
			items = append(items, e.raw)
			continue
		}
		data, err := json.Marshal(e.record)
		if err != nil {
			return fmt.Errorf("encode history: %w", err)
		}
		items = append(items, data)
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.kv.Set(s.key, string(data)); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrStorageUnavailable, s.key, err)
	}
	return nil
}
