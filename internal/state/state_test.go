package state

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type memoryStore struct {
	mu    sync.Mutex
	items map[string]string
}

func (m *memoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.items[key]
	return val, ok, nil
}

func (m *memoryStore) Set(ctx context.Context, key, value string) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = make(map[string]string)
	}
	m.items[key] = value
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *memoryStore) Close() error {
	return nil
}

func TestMarketMarkRoundTrip(t *testing.T) {
	store := &memoryStore{}
	ctx := context.Background()
	mark := MarketMark{
		Slot:            900,
		EngineSlot:      850,
		Resolved:        true,
		NumUsedAccounts: 12,
		DroppedIndices:  1,
		UpdatedAtMS:     12345,
	}
	if err := SaveMarketMark(ctx, store, "slab1", mark); err != nil {
		t.Fatalf("save mark: %v", err)
	}
	got, ok, err := LoadMarketMark(ctx, store, "slab1")
	if err != nil {
		t.Fatalf("load mark: %v", err)
	}
	if !ok {
		t.Fatalf("expected mark to be present")
	}
	if got != mark {
		t.Fatalf("unexpected mark: %#v", got)
	}
}

func TestMarketMarkMissing(t *testing.T) {
	store := &memoryStore{}
	got, ok, err := LoadMarketMark(context.Background(), store, "slab1")
	if err != nil {
		t.Fatalf("load mark: %v", err)
	}
	if ok {
		t.Fatalf("expected no mark, got %#v", got)
	}
}

func TestMarketMarkInvalid(t *testing.T) {
	store := &memoryStore{items: map[string]string{MarketMarkKey("slab1"): "{"}}
	_, _, err := LoadMarketMark(context.Background(), store, "slab1")
	if err == nil {
		t.Fatalf("expected error for invalid mark JSON")
	}
}

func TestJournalRecordAndGet(t *testing.T) {
	j := NewJournal(&memoryStore{}, 10)
	ctx := context.Background()
	entry := JournalEntry{
		Tool:        "percolator_trade",
		Instruction: "TradeNoCpi",
		Market:      "slab1",
		Signature:   "5sig",
		Success:     true,
		RecordedMS:  1000,
	}
	id, err := j.Record(ctx, entry)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if id != "5sig" {
		t.Fatalf("expected signature as id, got %s", id)
	}
	got, err := j.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	entry.ID = id
	if got != entry {
		t.Fatalf("unexpected entry: %#v", got)
	}
	if _, err := j.Get(ctx, "missing"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestJournalKeepsUnsentFailures(t *testing.T) {
	j := NewJournal(&memoryStore{}, 10)
	id, err := j.Record(context.Background(), JournalEntry{Tool: "percolator_deposit_collateral", Error: "blockhash", RecordedMS: 77})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if id != "unsent-77" {
		t.Fatalf("expected unsent-77, got %s", id)
	}
}

func TestJournalRecentEvictsOldest(t *testing.T) {
	store := &memoryStore{}
	j := NewJournal(store, 2)
	ctx := context.Background()
	for _, sig := range []string{"a", "b", "c", "b"} {
		if _, err := j.Record(ctx, JournalEntry{Signature: sig}); err != nil {
			t.Fatalf("record %s: %v", sig, err)
		}
	}
	recent, err := j.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "b" || recent[1].ID != "c" {
		t.Fatalf("expected [b c], got %#v", recent)
	}
	if _, ok, _ := store.Get(ctx, journalEntryPrefix+"a"); ok {
		t.Fatalf("expected evicted entry to be deleted")
	}
}

func TestNilJournalIsNoop(t *testing.T) {
	var j *Journal
	if _, err := j.Record(context.Background(), JournalEntry{Signature: "x"}); err != nil {
		t.Fatalf("expected nil journal to ignore records, got %v", err)
	}
}
