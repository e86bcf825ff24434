package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"nexus-defi/internal/alerts"
	"nexus-defi/internal/config"
	"nexus-defi/internal/metrics"
	"nexus-defi/internal/protocols/exodus"
	"nexus-defi/internal/protocols/percolator"
	"nexus-defi/internal/protocols/sigma"
	"nexus-defi/internal/protocols/sovereign"
	"nexus-defi/internal/protocols/stratum"
	"nexus-defi/internal/protocols/veil"
	"nexus-defi/internal/sol/rpc"
	"nexus-defi/internal/sol/wallet"
	"nexus-defi/internal/sol/ws"
	"nexus-defi/internal/state"
	"nexus-defi/internal/state/sqlite"
	"nexus-defi/internal/timescale"
	"nexus-defi/internal/tools"
)

const journalLimit = 200

type App struct {
	cfg        *config.Config
	log        *zap.Logger
	store      *sqlite.Store
	journal    *state.Journal
	rpc        *rpc.Provider
	percolator *percolator.Client
	tools      *tools.Dispatcher
	metrics    *metrics.Metrics
	prom       *metrics.Prometheus
	alerts     *alerts.Telegram
	timescale  *timescale.Writer
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ids, err := cfg.Programs.Resolve()
	if err != nil {
		return nil, err
	}
	store, err := sqlite.New(cfg.State.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	ts, err := timescale.New(cfg.Timescale, log)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open timescale: %w", err)
	}

	m := metrics.NewNoop()
	var prom *metrics.Prometheus
	if cfg.Metrics.EnabledValue() {
		prom = metrics.NewPrometheus()
		m = prom.Metrics
	}

	provider := rpc.NewProvider(cfg.RPC.URL, rpc.Options{
		Commitment:     cfg.RPC.Commitment,
		Timeout:        cfg.RPC.Timeout,
		ConfirmTimeout: cfg.RPC.ConfirmTimeout,
		PollInterval:   cfg.RPC.PollInterval,
	}, log)
	client := provider.Client()

	a := &App{
		cfg:        cfg,
		log:        log,
		store:      store,
		journal:    state.NewJournal(store, journalLimit),
		rpc:        provider,
		percolator: percolator.NewClient(ids.Percolator, client, client, m, log),
		metrics:    m,
		prom:       prom,
		alerts:     alerts.NewTelegram(cfg.Telegram, m, log),
		timescale:  ts,
	}
	a.tools = tools.New(tools.Deps{
		Percolator: a.percolator,
		Sovereign:  sovereign.NewClient(ids.Sovereign, client, log),
		Sigma:      sigma.NewClient(ids.Sigma, client, log),
		Exodus:     exodus.NewClient(ids.Exodus, client, log),
		Veil:       veil.NewClient(ids.Veil, client, log),
		Stratum:    stratum.NewClient(ids.Stratum, client, log),
		Signer:     a.signer,
		Journal:    a.journal,
		OnRecord:   a.recordTx,
		Log:        log,
	})
	return a, nil
}

func (a *App) Tools() *tools.Dispatcher {
	return a.tools
}

func (a *App) Journal() *state.Journal {
	return a.journal
}

// signer loads the wallet from the per-call override or the configured key.
func (a *App) signer(override string) (solana.PrivateKey, error) {
	secret := strings.TrimSpace(override)
	if secret == "" {
		secret = a.cfg.Wallet.PrivateKey
	}
	return wallet.Load(secret)
}

func (a *App) recordTx(entry state.JournalEntry) {
	if a.timescale == nil {
		return
	}
	a.timescale.EnqueueTx(timescale.TxRecord{
		Time:        time.UnixMilli(entry.RecordedMS).UTC(),
		Tool:        entry.Tool,
		Instruction: entry.Instruction,
		Market:      entry.Market,
		Signature:   entry.Signature,
		Success:     entry.Success,
		Error:       entry.Error,
	})
}

// Watcher builds the slab watcher from the watch config. slabs overrides
// the configured list when non-empty.
func (a *App) Watcher(slabs []string) (*Watcher, error) {
	if len(slabs) == 0 {
		slabs = a.cfg.Watch.Slabs
	}
	keys := make([]solana.PublicKey, 0, len(slabs))
	for _, s := range slabs {
		key, err := solana.PublicKeyFromBase58(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("invalid slab %q: %w", s, err)
		}
		keys = append(keys, key)
	}
	opts := WatcherOptions{
		Source:   a.percolator,
		Store:    a.store,
		Notifier: a.alerts,
		Metrics:  a.metrics,
		Slabs:    keys,
		Interval: a.cfg.Watch.Interval,
		Log:      a.log,
	}
	if a.timescale != nil {
		opts.Sink = a.timescale
	}
	if a.cfg.Watch.Subscribe {
		opts.Stream = ws.New(a.cfg.WS.URL, a.cfg.RPC.Commitment, a.cfg.WS.ReconnectDelay, a.cfg.WS.PingInterval, a.log)
	}
	return NewWatcher(opts), nil
}

// Start runs the timescale writer until ctx ends.
func (a *App) Start(ctx context.Context) {
	if a.timescale != nil {
		a.timescale.Start(ctx)
	}
}

// Run starts the sinks and the metrics endpoint and watches until ctx ends.
func (a *App) Run(ctx context.Context, slabs []string) error {
	watcher, err := a.Watcher(slabs)
	if err != nil {
		return err
	}
	a.Start(ctx)
	if a.prom != nil {
		a.serveMetrics(ctx)
	}
	return watcher.Run(ctx)
}

func (a *App) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle(a.cfg.Metrics.Path, a.prom.Handler())
	srv := &http.Server{
		Addr:              a.cfg.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.log.Info("metrics listening", zap.String("address", srv.Addr), zap.String("path", a.cfg.Metrics.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// Close releases the timescale pool and the store.
func (a *App) Close() error {
	var errs []error
	if a.timescale != nil {
		errs = append(errs, a.timescale.Close())
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}
