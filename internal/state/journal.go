package state

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	journalEntryPrefix = "tx:"
	journalRecentKey   = "tx:recent"
	defaultRecentLimit = 100
)

var ErrEntryNotFound = errors.New("journal entry not found")

// JournalEntry records one submitted transaction, confirmed or not.
type JournalEntry struct {
	ID          string `msgpack:"id" json:"id"`
	Tool        string `msgpack:"tool" json:"tool"`
	Instruction string `msgpack:"instruction" json:"instruction"`
	Market      string `msgpack:"market,omitempty" json:"market,omitempty"`
	Signature   string `msgpack:"signature,omitempty" json:"signature,omitempty"`
	Success     bool   `msgpack:"success" json:"success"`
	Error       string `msgpack:"error,omitempty" json:"error,omitempty"`
	RecordedMS  int64  `msgpack:"recorded_ms" json:"recorded_ms"`
}

// Journal persists entries as msgpack in a Store. Values are base64 so any
// text-valued store can hold them. The newest IDs are kept in a bounded
// recent list.
type Journal struct {
	store Store
	limit int
	mu    sync.Mutex
}

func NewJournal(store Store, limit int) *Journal {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	return &Journal{store: store, limit: limit}
}

// Record stores entry. Entries without a signature are keyed by their
// timestamp so failed sends are kept too.
func (j *Journal) Record(ctx context.Context, entry JournalEntry) (string, error) {
	if j == nil || j.store == nil {
		return "", nil
	}
	if entry.ID == "" {
		entry.ID = entry.Signature
		if entry.ID == "" {
			entry.ID = "unsent-" + strconv.FormatInt(entry.RecordedMS, 10)
		}
	}
	payload, err := encode(entry)
	if err != nil {
		return "", fmt.Errorf("encode journal entry: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.store.Set(ctx, journalEntryPrefix+entry.ID, payload); err != nil {
		return "", err
	}
	recent, err := j.recentIDs(ctx)
	if err != nil {
		return "", err
	}
	kept := recent[:0]
	for _, id := range recent {
		if id != entry.ID {
			kept = append(kept, id)
		}
	}
	recent = append([]string{entry.ID}, kept...)
	for len(recent) > j.limit {
		evicted := recent[len(recent)-1]
		recent = recent[:len(recent)-1]
		if err := j.store.Delete(ctx, journalEntryPrefix+evicted); err != nil {
			return "", err
		}
	}
	list, err := encode(recent)
	if err != nil {
		return "", err
	}
	if err := j.store.Set(ctx, journalRecentKey, list); err != nil {
		return "", err
	}
	return entry.ID, nil
}

func (j *Journal) Get(ctx context.Context, id string) (JournalEntry, error) {
	raw, ok, err := j.store.Get(ctx, journalEntryPrefix+id)
	if err != nil {
		return JournalEntry{}, err
	}
	if !ok {
		return JournalEntry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	var entry JournalEntry
	if err := decode(raw, &entry); err != nil {
		return JournalEntry{}, fmt.Errorf("decode journal entry %s: %w", id, err)
	}
	return entry, nil
}

// Recent returns up to n entries, newest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]JournalEntry, error) {
	j.mu.Lock()
	ids, err := j.recentIDs(ctx)
	j.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(ids) > n {
		ids = ids[:n]
	}
	out := make([]JournalEntry, 0, len(ids))
	for _, id := range ids {
		entry, err := j.Get(ctx, id)
		if errors.Is(err, ErrEntryNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

func (j *Journal) recentIDs(ctx context.Context) ([]string, error) {
	raw, ok, err := j.store.Get(ctx, journalRecentKey)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []string
	if err := decode(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode recent list: %w", err)
	}
	return ids, nil
}

func encode(v any) (string, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func decode(raw string, v any) error {
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return err
	}
	return msgpack.Unmarshal(b, v)
}
