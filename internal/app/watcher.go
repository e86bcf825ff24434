package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"nexus-defi/internal/alerts"
	"nexus-defi/internal/metrics"
	"nexus-defi/internal/protocols/percolator"
	"nexus-defi/internal/sol/ws"
	"nexus-defi/internal/state"
	"nexus-defi/internal/timescale"
)

// SlabSource fetches raw slab bytes.
type SlabSource interface {
	FetchSlab(ctx context.Context, slab solana.PublicKey) ([]byte, error)
}

// AccountStream pushes account changes for subscribed keys.
type AccountStream interface {
	SubscribeAccount(ctx context.Context, key solana.PublicKey) error
	Run(ctx context.Context, handler func(ws.AccountUpdate)) error
}

type SnapshotSink interface {
	EnqueueSnapshot(snap timescale.MarketSnapshot) bool
}

// Watcher observes percolator slabs, keeps a per-slab mark in the store and
// alerts when a market resolves, drops accounts or stops decoding.
type Watcher struct {
	source   SlabSource
	stream   AccountStream
	store    state.Store
	notifier alerts.Notifier
	sink     SnapshotSink
	metrics  *metrics.Metrics
	slabs    []solana.PublicKey
	interval time.Duration
	now      func() time.Time
	log      *zap.Logger

	mu     sync.Mutex
	failed map[solana.PublicKey]bool
}

type WatcherOptions struct {
	Source   SlabSource
	Stream   AccountStream
	Store    state.Store
	Notifier alerts.Notifier
	Sink     SnapshotSink
	Metrics  *metrics.Metrics
	Slabs    []solana.PublicKey
	Interval time.Duration
	Now      func() time.Time
	Log      *zap.Logger
}

func NewWatcher(opts WatcherOptions) *Watcher {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	return &Watcher{
		source:   opts.Source,
		stream:   opts.Stream,
		store:    opts.Store,
		notifier: opts.Notifier,
		sink:     opts.Sink,
		metrics:  metrics.OrNoop(opts.Metrics),
		slabs:    append([]solana.PublicKey(nil), opts.Slabs...),
		interval: opts.Interval,
		now:      opts.Now,
		log:      opts.Log,
		failed:   make(map[solana.PublicKey]bool),
	}
}

// Run polls every slab once, then keeps watching either on the ticker or,
// when a stream is set, from account notifications.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.slabs) == 0 {
		return errors.New("no slabs to watch")
	}
	w.Poll(ctx)
	if w.stream != nil {
		for _, slab := range w.slabs {
			if err := w.stream.SubscribeAccount(ctx, slab); err != nil {
				return fmt.Errorf("subscribe %s: %w", slab, err)
			}
		}
		w.log.Info("watching slabs via subscription", zap.Int("slabs", len(w.slabs)))
		return w.stream.Run(ctx, func(upd ws.AccountUpdate) {
			if err := w.Observe(ctx, upd.Key, upd.Data, upd.Slot); err != nil {
				w.log.Warn("slab update rejected", zap.String("slab", upd.Key.String()), zap.Error(err))
			}
		})
	}

	w.log.Info("polling slabs", zap.Int("slabs", len(w.slabs)), zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}

// Poll fetches and observes every slab. Failures are logged per slab.
func (w *Watcher) Poll(ctx context.Context) {
	for _, slab := range w.slabs {
		if ctx.Err() != nil {
			return
		}
		data, err := w.source.FetchSlab(ctx, slab)
		if err != nil {
			w.log.Warn("slab fetch failed", zap.String("slab", slab.String()), zap.Error(err))
			continue
		}
		if err := w.Observe(ctx, slab, data, 0); err != nil {
			w.log.Warn("slab observe failed", zap.String("slab", slab.String()), zap.Error(err))
		}
	}
}

// Observe decodes one slab image. slot is where the image was seen, 0 meaning
// the engine's current slot. Images whose engine slot is behind the stored
// mark are ignored.
func (w *Watcher) Observe(ctx context.Context, slab solana.PublicKey, data []byte, slot uint64) error {
	name := slab.String()
	market, err := percolator.DecodeMarket(data)
	if err == nil {
		var scan percolator.AccountScan
		if scan, err = percolator.ScanAccounts(data); err == nil {
			w.setFailed(slab, false)
			return w.observeMarket(ctx, slab, market, scan, slot)
		}
	}
	w.metrics.DecodeFailures.Inc()
	if w.setFailed(slab, true) {
		w.notify(ctx, alerts.DecodeFailedMessage(name, err))
	}
	return fmt.Errorf("decode slab %s: %w", name, err)
}

func (w *Watcher) observeMarket(ctx context.Context, slab solana.PublicKey, market percolator.Market, scan percolator.AccountScan, slot uint64) error {
	name := slab.String()
	engineSlot := market.Engine.CurrentSlot
	if slot == 0 {
		slot = engineSlot
	}
	prev, seen, err := state.LoadMarketMark(ctx, w.store, name)
	if err != nil {
		w.log.Warn("market mark unreadable", zap.String("slab", name), zap.Error(err))
		seen = false
	}
	// Polled and streamed images report slots from different clocks; only
	// the engine slot orders them.
	if seen && engineSlot < prev.EngineSlot {
		w.log.Debug("stale slab image", zap.String("slab", name), zap.Uint64("engine_slot", engineSlot), zap.Uint64("mark_engine_slot", prev.EngineSlot))
		return nil
	}

	resolved := market.Header.Resolved
	if resolved && (!seen || !prev.Resolved) {
		w.notify(ctx, alerts.ResolvedMessage(name, slot))
	}
	dropped := len(scan.Dropped)
	prevDropped := 0
	if seen {
		prevDropped = prev.DroppedIndices
	}
	for i := prevDropped; i < dropped; i++ {
		w.metrics.DroppedAccounts.Inc()
	}
	if dropped > 0 && dropped != prevDropped {
		w.log.Warn("slab has accounts past its region", zap.String("slab", name), zap.Ints("indices", scan.Dropped))
		w.notify(ctx, alerts.DroppedAccountsMessage(name, scan.Dropped))
	}

	now := w.now()
	mark := state.MarketMark{
		Slot:            slot,
		EngineSlot:      engineSlot,
		Resolved:        resolved,
		NumUsedAccounts: market.Engine.NumUsedAccounts,
		DroppedIndices:  dropped,
		UpdatedAtMS:     now.UnixMilli(),
	}
	if err := state.SaveMarketMark(ctx, w.store, name, mark); err != nil {
		return fmt.Errorf("save mark: %w", err)
	}
	if w.sink != nil {
		if !w.sink.EnqueueSnapshot(snapshot(now, name, slot, market, dropped)) {
			w.log.Debug("snapshot queue full", zap.String("slab", name))
		}
	}
	return nil
}

func snapshot(now time.Time, slab string, slot uint64, m percolator.Market, dropped int) timescale.MarketSnapshot {
	price := m.Config.LastEffectivePriceE6
	if price == 0 {
		price = m.Config.AuthorityPriceE6
	}
	return timescale.MarketSnapshot{
		Time:                  now.UTC(),
		Slab:                  slab,
		Slot:                  slot,
		Resolved:              m.Header.Resolved,
		PriceE6:               price,
		Vault:                 m.Engine.Vault.String(),
		InsuranceBalance:      m.Engine.InsuranceFund.Balance.String(),
		TotalOpenInterest:     m.Engine.TotalOpenInterest.String(),
		FundingRateBpsPerSlot: m.Engine.FundingRateBpsPerSlot,
		NumUsedAccounts:       m.Engine.NumUsedAccounts,
		DroppedIndices:        dropped,
	}
}

// setFailed records the decode state and reports whether it changed to failed.
func (w *Watcher) setFailed(slab solana.PublicKey, failed bool) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	was := w.failed[slab]
	if failed {
		w.failed[slab] = true
	} else {
		delete(w.failed, slab)
	}
	return failed && !was
}

func (w *Watcher) notify(ctx context.Context, message string) {
	if w.notifier == nil {
		return
	}
	if err := w.notifier.Send(ctx, message); err != nil {
		w.log.Warn("alert send failed", zap.Error(err))
	}
}
