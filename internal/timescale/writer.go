package timescale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"nexus-defi/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const writeTimeout = 3 * time.Second

// MarketSnapshot is one watcher observation of a slab. 128-bit quantities
// are decimal strings and land in NUMERIC columns.
type MarketSnapshot struct {
	Time                  time.Time
	Slab                  string
	Slot                  uint64
	Resolved              bool
	PriceE6               uint64
	Vault                 string
	InsuranceBalance      string
	TotalOpenInterest     string
	FundingRateBpsPerSlot int64
	NumUsedAccounts       uint16
	DroppedIndices        int
}

// TxRecord mirrors a journal entry.
type TxRecord struct {
	Time        time.Time
	Tool        string
	Instruction string
	Market      string
	Signature   string
	Success     bool
	Error       string
}

type Writer struct {
	db        *sql.DB
	log       *zap.Logger
	schema    string
	snapshots chan MarketSnapshot
	txs       chan TxRecord
	started   atomic.Bool
	dropSnap  atomic.Uint64
	dropTx    atomic.Uint64
}

func New(cfg config.TimescaleConfig, log *zap.Logger) (*Writer, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("timescale dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	writer := newWriter(db, cfg.Schema, cfg.QueueSize, log)
	if err := writer.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return writer, nil
}

func newWriter(db *sql.DB, schema string, queueSize int, log *zap.Logger) *Writer {
	schema = strings.TrimSpace(schema)
	if schema == "" {
		schema = "public"
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{
		db:        db,
		log:       log,
		schema:    schema,
		snapshots: make(chan MarketSnapshot, queueSize),
		txs:       make(chan TxRecord, queueSize),
	}
}

func (w *Writer) Start(ctx context.Context) {
	if w == nil {
		return
	}
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.run(ctx)
}

func (w *Writer) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	return w.db.Close()
}

// EnqueueSnapshot never blocks; a full queue drops the snapshot.
func (w *Writer) EnqueueSnapshot(snap MarketSnapshot) bool {
	if w == nil {
		return false
	}
	select {
	case w.snapshots <- snap:
		return true
	default:
		if w.dropSnap.Add(1) == 1 {
			w.log.Warn("timescale snapshot queue full")
		}
		return false
	}
}

func (w *Writer) EnqueueTx(tx TxRecord) bool {
	if w == nil {
		return false
	}
	select {
	case w.txs <- tx:
		return true
	default:
		if w.dropTx.Add(1) == 1 {
			w.log.Warn("timescale tx queue full")
		}
		return false
	}
}

// Dropped reports how many snapshots and tx records were discarded.
func (w *Writer) Dropped() (uint64, uint64) {
	if w == nil {
		return 0, 0
	}
	return w.dropSnap.Load(), w.dropTx.Load()
}

func (w *Writer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-w.snapshots:
			w.writeSnapshot(ctx, snap)
		case tx := <-w.txs:
			w.writeTx(ctx, tx)
		}
	}
}

func (w *Writer) ensureSchema(ctx context.Context) error {
	if w.db == nil {
		return errors.New("timescale db not initialized")
	}
	if w.schema != "public" {
		if err := w.exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", w.schema)); err != nil {
			return err
		}
	}
	if err := w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		slab TEXT NOT NULL,
		slot BIGINT NOT NULL,
		resolved BOOLEAN NOT NULL,
		price_e6 NUMERIC NOT NULL,
		vault NUMERIC NOT NULL,
		insurance_balance NUMERIC NOT NULL,
		total_open_interest NUMERIC NOT NULL,
		funding_rate_bps_per_slot BIGINT NOT NULL,
		used_accounts INTEGER NOT NULL,
		dropped_indices INTEGER NOT NULL,
		PRIMARY KEY (ts, slab)
	)`, w.table("market_snapshots"))); err != nil {
		return err
	}
	if err := w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		tool TEXT NOT NULL,
		instruction TEXT NOT NULL,
		market TEXT NOT NULL,
		signature TEXT NOT NULL,
		success BOOLEAN NOT NULL,
		error TEXT NOT NULL
	)`, w.table("tx_journal"))); err != nil {
		return err
	}
	if err := w.exec(ctx, "CREATE EXTENSION IF NOT EXISTS timescaledb"); err != nil {
		w.log.Warn("timescale extension ensure failed", zap.Error(err))
		return nil
	}
	for _, name := range []string{"market_snapshots", "tx_journal"} {
		if err := w.exec(ctx, fmt.Sprintf("SELECT create_hypertable('%s', 'ts', if_not_exists => TRUE)", w.table(name))); err != nil {
			w.log.Warn("timescale hypertable create failed", zap.String("table", name), zap.Error(err))
		}
	}
	return nil
}

func (w *Writer) writeSnapshot(ctx context.Context, snap MarketSnapshot) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, slab, slot, resolved, price_e6, vault, insurance_balance,
		total_open_interest, funding_rate_bps_per_slot, used_accounts, dropped_indices
	) VALUES (
		$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
	)
	ON CONFLICT (ts, slab) DO NOTHING`, w.table("market_snapshots"))
	if _, err := w.db.ExecContext(ctx, query,
		snap.Time,
		snap.Slab,
		int64(snap.Slot),
		snap.Resolved,
		fmt.Sprint(snap.PriceE6),
		numeric(snap.Vault),
		numeric(snap.InsuranceBalance),
		numeric(snap.TotalOpenInterest),
		snap.FundingRateBpsPerSlot,
		int(snap.NumUsedAccounts),
		snap.DroppedIndices,
	); err != nil {
		w.log.Warn("timescale snapshot insert failed", zap.String("slab", snap.Slab), zap.Error(err))
	}
}

func (w *Writer) writeTx(ctx context.Context, tx TxRecord) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, tool, instruction, market, signature, success, error
	) VALUES ($1,$2,$3,$4,$5,$6,$7)`, w.table("tx_journal"))
	if _, err := w.db.ExecContext(ctx, query,
		tx.Time,
		tx.Tool,
		tx.Instruction,
		tx.Market,
		tx.Signature,
		tx.Success,
		tx.Error,
	); err != nil {
		w.log.Warn("timescale tx insert failed", zap.String("signature", tx.Signature), zap.Error(err))
	}
}

func (w *Writer) exec(ctx context.Context, query string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_, err := w.db.ExecContext(ctx, query)
	return err
}

func (w *Writer) table(name string) string {
	return w.schema + "." + name
}

func numeric(s string) string {
	if strings.TrimSpace(s) == "" {
		return "0"
	}
	return s
}
