package app

import (
	"context"
	"encoding/binary"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"nexus-defi/internal/config"
	"nexus-defi/internal/metrics"
	"nexus-defi/internal/protocols/percolator"
	"nexus-defi/internal/sol/wallet"
	"nexus-defi/internal/sol/ws"
	"nexus-defi/internal/state"
	"nexus-defi/internal/state/sqlite"
	"nexus-defi/internal/timescale"
)

type countingCounter struct {
	n atomic.Int64
}

func (c *countingCounter) Inc() { c.n.Add(1) }

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingNotifier) Send(_ context.Context, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return nil
}

func (r *recordingNotifier) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

type recordingSink struct {
	snaps []timescale.MarketSnapshot
}

func (r *recordingSink) EnqueueSnapshot(snap timescale.MarketSnapshot) bool {
	r.snaps = append(r.snaps, snap)
	return true
}

type mapSource map[solana.PublicKey][]byte

func (m mapSource) FetchSlab(_ context.Context, slab solana.PublicKey) ([]byte, error) {
	data, ok := m[slab]
	if !ok {
		return nil, errors.New("account not found")
	}
	return data, nil
}

type fakeStream struct {
	subscribed []solana.PublicKey
	updates    []ws.AccountUpdate
}

func (f *fakeStream) SubscribeAccount(_ context.Context, key solana.PublicKey) error {
	f.subscribed = append(f.subscribed, key)
	return nil
}

func (f *fakeStream) Run(_ context.Context, handler func(ws.AccountUpdate)) error {
	for _, upd := range f.updates {
		handler(upd)
	}
	return nil
}

// slabImage builds a slab with room for n accounts and the given bitmap bits.
func slabImage(n int, resolved bool, used ...int) []byte {
	buf := make([]byte, percolator.AccountsOffset+n*percolator.AccountSize)
	binary.LittleEndian.PutUint64(buf, percolator.Magic)
	if resolved {
		buf[13] = percolator.FlagResolved
	}
	// last effective price
	binary.LittleEndian.PutUint64(buf[percolator.ConfigOffset+312:], 1_500_000)
	for _, idx := range used {
		off := percolator.BitmapOffset + (idx/64)*8
		word := binary.LittleEndian.Uint64(buf[off:])
		binary.LittleEndian.PutUint64(buf[off:], word|1<<(idx%64))
	}
	return buf
}

// atEngineSlot sets the engine's current slot in a slab image.
func atEngineSlot(buf []byte, slot uint64) []byte {
	binary.LittleEndian.PutUint64(buf[percolator.EngineOffset+192:], slot)
	return buf
}

type watcherFixture struct {
	watcher  *Watcher
	store    *sqlite.Store
	notifier *recordingNotifier
	sink     *recordingSink
	decode   *countingCounter
	dropped  *countingCounter
}

func newWatcherFixture(t *testing.T, source SlabSource, stream AccountStream, slabs ...solana.PublicKey) *watcherFixture {
	t.Helper()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	f := &watcherFixture{
		store:    store,
		notifier: &recordingNotifier{},
		sink:     &recordingSink{},
		decode:   &countingCounter{},
		dropped:  &countingCounter{},
	}
	m := metrics.NewNoop()
	m.DecodeFailures = f.decode
	m.DroppedAccounts = f.dropped
	f.watcher = NewWatcher(WatcherOptions{
		Source:   source,
		Stream:   stream,
		Store:    store,
		Notifier: f.notifier,
		Sink:     f.sink,
		Metrics:  m,
		Slabs:    slabs,
		Interval: time.Hour,
		Now:      func() time.Time { return time.UnixMilli(5000) },
	})
	return f
}

func (f *watcherFixture) mark(t *testing.T, slab solana.PublicKey) (state.MarketMark, bool) {
	t.Helper()
	mark, ok, err := state.LoadMarketMark(context.Background(), f.store, slab.String())
	if err != nil {
		t.Fatalf("load mark: %v", err)
	}
	return mark, ok
}

func TestWatcherObserveStoresMarkAndSnapshot(t *testing.T) {
	slab := solana.PublicKey{1}
	f := newWatcherFixture(t, mapSource{}, nil)
	if err := f.watcher.Observe(context.Background(), slab, slabImage(2, false, 0), 10); err != nil {
		t.Fatalf("observe: %v", err)
	}
	mark, ok := f.mark(t, slab)
	if !ok {
		t.Fatalf("expected mark to be stored")
	}
	if mark.Slot != 10 || mark.Resolved || mark.DroppedIndices != 0 || mark.UpdatedAtMS != 5000 {
		t.Fatalf("unexpected mark %#v", mark)
	}
	if len(f.sink.snaps) != 1 {
		t.Fatalf("expected one snapshot, got %d", len(f.sink.snaps))
	}
	snap := f.sink.snaps[0]
	if snap.Slab != slab.String() || snap.Slot != 10 || snap.PriceE6 != 1_500_000 || snap.Vault != "0" {
		t.Fatalf("unexpected snapshot %#v", snap)
	}
	if got := f.notifier.sent(); len(got) != 0 {
		t.Fatalf("expected no alerts, got %v", got)
	}
}

func TestWatcherAlertsOnResolveOnce(t *testing.T) {
	slab := solana.PublicKey{2}
	f := newWatcherFixture(t, mapSource{}, nil)
	ctx := context.Background()
	if err := f.watcher.Observe(ctx, slab, slabImage(1, false), 10); err != nil {
		t.Fatalf("observe: %v", err)
	}
	for _, slot := range []uint64{11, 12} {
		if err := f.watcher.Observe(ctx, slab, slabImage(1, true), slot); err != nil {
			t.Fatalf("observe slot %d: %v", slot, err)
		}
	}
	sent := f.notifier.sent()
	if len(sent) != 1 || !strings.Contains(sent[0], "resolved at slot 11") {
		t.Fatalf("expected one resolve alert, got %v", sent)
	}
	if mark, _ := f.mark(t, slab); !mark.Resolved || mark.Slot != 12 {
		t.Fatalf("unexpected mark %#v", mark)
	}
}

func TestWatcherAlertsWhenDroppedCountChanges(t *testing.T) {
	slab := solana.PublicKey{3}
	f := newWatcherFixture(t, mapSource{}, nil)
	ctx := context.Background()
	// Room for one account; bit 5 lies past the region.
	for _, slot := range []uint64{1, 2} {
		if err := f.watcher.Observe(ctx, slab, slabImage(1, false, 0, 5), slot); err != nil {
			t.Fatalf("observe: %v", err)
		}
	}
	if err := f.watcher.Observe(ctx, slab, slabImage(1, false, 0, 5, 6), 3); err != nil {
		t.Fatalf("observe: %v", err)
	}
	sent := f.notifier.sent()
	if len(sent) != 2 {
		t.Fatalf("expected two dropped alerts, got %v", sent)
	}
	if got := f.dropped.n.Load(); got != 2 {
		t.Fatalf("expected 2 dropped increments, got %d", got)
	}
	if mark, _ := f.mark(t, slab); mark.DroppedIndices != 2 {
		t.Fatalf("unexpected mark %#v", mark)
	}
}

func TestWatcherDecodeFailureAlertsOncePerOutage(t *testing.T) {
	slab := solana.PublicKey{4}
	f := newWatcherFixture(t, mapSource{}, nil)
	ctx := context.Background()
	bad := make([]byte, 100)
	for i := 0; i < 2; i++ {
		if err := f.watcher.Observe(ctx, slab, bad, 1); err == nil {
			t.Fatalf("expected decode error")
		}
	}
	if len(f.notifier.sent()) != 1 {
		t.Fatalf("expected one alert, got %v", f.notifier.sent())
	}
	if err := f.watcher.Observe(ctx, slab, slabImage(1, false), 2); err != nil {
		t.Fatalf("observe: %v", err)
	}
	if err := f.watcher.Observe(ctx, slab, bad, 3); err == nil {
		t.Fatalf("expected decode error")
	}
	if len(f.notifier.sent()) != 2 {
		t.Fatalf("expected a second alert after recovery, got %v", f.notifier.sent())
	}
	if got := f.decode.n.Load(); got != 3 {
		t.Fatalf("expected 3 decode failures, got %d", got)
	}
}

func TestWatcherIgnoresStaleImages(t *testing.T) {
	slab := solana.PublicKey{5}
	f := newWatcherFixture(t, mapSource{}, nil)
	ctx := context.Background()
	if err := f.watcher.Observe(ctx, slab, atEngineSlot(slabImage(1, false), 10), 0); err != nil {
		t.Fatalf("observe: %v", err)
	}
	if err := f.watcher.Observe(ctx, slab, atEngineSlot(slabImage(1, true), 5), 0); err != nil {
		t.Fatalf("observe: %v", err)
	}
	if len(f.notifier.sent()) != 0 {
		t.Fatalf("expected stale image to be ignored, got %v", f.notifier.sent())
	}
	if mark, _ := f.mark(t, slab); mark.EngineSlot != 10 || mark.Resolved {
		t.Fatalf("unexpected mark %#v", mark)
	}
}

func TestWatcherPollAfterStreamUpdate(t *testing.T) {
	slab := solana.PublicKey{9}
	f := newWatcherFixture(t, mapSource{}, nil)
	ctx := context.Background()
	// A stream update carries the chain slot, far ahead of the engine's crank slot.
	if err := f.watcher.Observe(ctx, slab, atEngineSlot(slabImage(1, false), 1000), 300_000_000); err != nil {
		t.Fatalf("observe stream update: %v", err)
	}
	if err := f.watcher.Observe(ctx, slab, atEngineSlot(slabImage(1, true), 2000), 0); err != nil {
		t.Fatalf("observe poll: %v", err)
	}
	sent := f.notifier.sent()
	if len(sent) != 1 || !strings.Contains(sent[0], "resolved at slot 2000") {
		t.Fatalf("expected polled resolve to alert, got %v", sent)
	}
	mark, _ := f.mark(t, slab)
	if !mark.Resolved || mark.EngineSlot != 2000 || mark.Slot != 2000 {
		t.Fatalf("unexpected mark %#v", mark)
	}
}

func TestWatcherSameEngineSlotIsNotStale(t *testing.T) {
	slab := solana.PublicKey{10}
	f := newWatcherFixture(t, mapSource{}, nil)
	ctx := context.Background()
	if err := f.watcher.Observe(ctx, slab, atEngineSlot(slabImage(1, false), 50), 300_000_000); err != nil {
		t.Fatalf("observe: %v", err)
	}
	if err := f.watcher.Observe(ctx, slab, atEngineSlot(slabImage(1, true), 50), 0); err != nil {
		t.Fatalf("observe: %v", err)
	}
	if len(f.notifier.sent()) != 1 {
		t.Fatalf("expected resolve alert without a crank, got %v", f.notifier.sent())
	}
}

func TestWatcherPollSkipsFetchErrors(t *testing.T) {
	missing, present := solana.PublicKey{6}, solana.PublicKey{7}
	source := mapSource{present: slabImage(1, false)}
	f := newWatcherFixture(t, source, nil, missing, present)
	f.watcher.Poll(context.Background())
	if _, ok := f.mark(t, missing); ok {
		t.Fatalf("expected no mark for missing slab")
	}
	if _, ok := f.mark(t, present); !ok {
		t.Fatalf("expected mark for present slab")
	}
}

func TestWatcherRunSubscribes(t *testing.T) {
	slab := solana.PublicKey{8}
	stream := &fakeStream{updates: []ws.AccountUpdate{{Key: slab, Slot: 7, Data: slabImage(1, true)}}}
	f := newWatcherFixture(t, mapSource{slab: slabImage(1, false)}, stream, slab)
	if err := f.watcher.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(stream.subscribed) != 1 || stream.subscribed[0] != slab {
		t.Fatalf("unexpected subscriptions %v", stream.subscribed)
	}
	mark, ok := f.mark(t, slab)
	if !ok || mark.Slot != 7 || !mark.Resolved {
		t.Fatalf("unexpected mark %#v", mark)
	}
	if len(f.sink.snaps) != 2 {
		t.Fatalf("expected poll and update snapshots, got %d", len(f.sink.snaps))
	}
}

func TestWatcherRunNeedsSlabs(t *testing.T) {
	f := newWatcherFixture(t, mapSource{}, nil)
	if err := f.watcher.Run(context.Background()); err == nil {
		t.Fatalf("expected error without slabs")
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	cfg.State.SQLitePath = filepath.Join(t.TempDir(), "nexus.db")
	disabled := false
	cfg.Metrics.Enabled = &disabled
	cfg.Timescale.Enabled = false
	cfg.Wallet.PrivateKey = ""
	return cfg
}

func TestNewWiresTools(t *testing.T) {
	a, err := New(testConfig(t), nil)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()
	if got := len(a.Tools().Catalog()); got != 32 {
		t.Fatalf("expected 32 tools, got %d", got)
	}
	if a.Journal() == nil {
		t.Fatalf("expected journal")
	}
	if _, err := a.Watcher([]string{"not-a-key"}); err == nil {
		t.Fatalf("expected invalid slab error")
	}
	w, err := a.Watcher(nil)
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	if len(w.slabs) != 0 || w.stream != nil {
		t.Fatalf("unexpected watcher %#v", w)
	}
}

func TestSignerPrefersOverride(t *testing.T) {
	a := &App{cfg: testConfig(t)}
	if _, err := a.signer(""); !errors.Is(err, wallet.ErrNoWallet) {
		t.Fatalf("expected ErrNoWallet, got %v", err)
	}
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	got, err := a.signer(key.String())
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	if !got.PublicKey().Equals(key.PublicKey()) {
		t.Fatalf("expected override key %s, got %s", key.PublicKey(), got.PublicKey())
	}
}
