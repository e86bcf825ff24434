// Package ws streams Solana account changes over the JSON-RPC websocket.
package ws

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

const (
	defaultReconnectDelay = 3 * time.Second
	maxReconnectDelay     = time.Minute
)

// AccountUpdate is one accountNotification.
type AccountUpdate struct {
	Key  solana.PublicKey
	Slot uint64
	Data []byte
}

type Client struct {
	url            string
	commitment     string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *zap.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	accounts []solana.PublicKey
	nextID   uint64
	pending  map[uint64]solana.PublicKey
	active   map[uint64]solana.PublicKey
}

func New(url, commitment string, reconnectDelay, pingInterval time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if commitment == "" {
		commitment = "confirmed"
	}
	if reconnectDelay <= 0 {
		reconnectDelay = defaultReconnectDelay
	}
	return &Client{
		url:            url,
		commitment:     commitment,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
		pending:        make(map[uint64]solana.PublicKey),
		active:         make(map[uint64]solana.PublicKey),
	}
}

func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return err
	}
	conn.SetReadLimit(16 << 20)
	c.conn = conn
	return nil
}

// SubscribeAccount registers key. It is sent now when connected and again
// after every reconnect.
func (c *Client) SubscribeAccount(ctx context.Context, key solana.PublicKey) error {
	c.mu.Lock()
	c.accounts = append(c.accounts, key)
	conn := c.conn
	var req rpcRequest
	if conn != nil {
		req = c.subscribeRequestLocked(key)
	}
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return writeJSON(ctx, conn, req)
}

// Run reads notifications until ctx ends. Dial, subscribe and read failures
// reconnect after reconnectDelay, doubling up to maxReconnectDelay while the
// endpoint stays down.
func (c *Client) Run(ctx context.Context, handler func(AccountUpdate)) error {
	delay := c.reconnectDelay
	for {
		if err := c.ensureConnected(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn("ws connect failed", zap.Error(err), zap.Duration("retry_in", delay))
			c.resetConn()
			if err := sleepCtx(ctx, delay); err != nil {
				return err
			}
			delay = nextDelay(delay)
			continue
		}
		delay = c.reconnectDelay
		pingCtx, cancel := context.WithCancel(ctx)
		pingDone := make(chan struct{})
		go func() {
			defer close(pingDone)
			c.pingLoop(pingCtx)
		}()
		err := c.readLoop(ctx, handler)
		cancel()
		<-pingDone
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logReadLoopError(err)
			c.resetConn()
			if err := sleepCtx(ctx, delay); err != nil {
				return err
			}
		}
	}
}

func nextDelay(d time.Duration) time.Duration {
	d *= 2
	if d > maxReconnectDelay {
		return maxReconnectDelay
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) ensureConnected(ctx context.Context) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	conn := c.conn
	var reqs []rpcRequest
	for _, key := range c.accounts {
		if !c.trackedLocked(key) {
			reqs = append(reqs, c.subscribeRequestLocked(key))
		}
	}
	c.mu.Unlock()
	for _, req := range reqs {
		if err := writeJSON(ctx, conn, req); err != nil {
			return err
		}
	}
	return nil
}

// trackedLocked reports whether key already has a request or subscription
// on the current connection.
func (c *Client) trackedLocked(key solana.PublicKey) bool {
	for _, k := range c.pending {
		if k.Equals(key) {
			return true
		}
	}
	for _, k := range c.active {
		if k.Equals(key) {
			return true
		}
	}
	return false
}

func (c *Client) subscribeRequestLocked(key solana.PublicKey) rpcRequest {
	c.nextID++
	c.pending[c.nextID] = key
	return rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID,
		Method:  "accountSubscribe",
		Params: []any{
			key.String(),
			map[string]string{"encoding": "base64", "commitment": c.commitment},
		},
	}
}

func (c *Client) readLoop(ctx context.Context, handler func(AccountUpdate)) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("ws not connected")
	}
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		update, ok, err := c.handleMessage(data)
		if err != nil {
			c.log.Warn("ws message dropped", zap.Error(err))
			continue
		}
		if ok && handler != nil {
			handler(update)
		}
	}
}

// handleMessage records subscription acks and decodes account notifications.
func (c *Client) handleMessage(data []byte) (AccountUpdate, bool, error) {
	var msg rpcMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return AccountUpdate{}, false, fmt.Errorf("decode message: %w", err)
	}
	if msg.Error != nil {
		return AccountUpdate{}, false, fmt.Errorf("rpc error %d: %s", msg.Error.Code, msg.Error.Message)
	}
	if msg.ID != nil {
		var subID uint64
		if err := json.Unmarshal(msg.Result, &subID); err != nil {
			return AccountUpdate{}, false, fmt.Errorf("decode subscription id: %w", err)
		}
		c.mu.Lock()
		if key, ok := c.pending[*msg.ID]; ok {
			delete(c.pending, *msg.ID)
			c.active[subID] = key
		}
		c.mu.Unlock()
		return AccountUpdate{}, false, nil
	}
	if msg.Method != "accountNotification" || msg.Params == nil {
		return AccountUpdate{}, false, nil
	}
	c.mu.Lock()
	key, ok := c.active[msg.Params.Subscription]
	c.mu.Unlock()
	if !ok {
		return AccountUpdate{}, false, fmt.Errorf("unknown subscription %d", msg.Params.Subscription)
	}
	var note accountNotification
	if err := json.Unmarshal(msg.Params.Result, &note); err != nil {
		return AccountUpdate{}, false, fmt.Errorf("decode notification: %w", err)
	}
	if len(note.Value.Data) == 0 {
		return AccountUpdate{}, false, errors.New("notification without data")
	}
	raw, err := base64.StdEncoding.DecodeString(note.Value.Data[0])
	if err != nil {
		return AccountUpdate{}, false, fmt.Errorf("decode account data: %w", err)
	}
	return AccountUpdate{Key: key, Slot: note.Context.Slot, Data: raw}, true, nil
}

func (c *Client) pingLoop(ctx context.Context) {
	c.mu.Lock()
	conn := c.conn
	interval := c.pingInterval
	c.mu.Unlock()
	if conn == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}
		}
	}
}

func (c *Client) logReadLoopError(err error) {
	status := websocket.CloseStatus(err)
	if status == websocket.StatusNormalClosure {
		var closeErr websocket.CloseError
		if errors.As(err, &closeErr) {
			c.log.Info("ws read loop ended", zap.Int("status", int(closeErr.Code)), zap.String("reason", closeErr.Reason))
			return
		}
		c.log.Info("ws read loop ended", zap.Error(err))
		return
	}
	c.log.Warn("ws read loop ended", zap.Error(err))
}

func (c *Client) resetConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "reset")
		c.conn = nil
	}
	c.pending = make(map[uint64]solana.PublicKey)
	c.active = make(map[uint64]solana.PublicKey)
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close(websocket.StatusNormalClosure, "")
	c.conn = nil
	return err
}

func writeJSON(ctx context.Context, conn *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcMessage struct {
	ID     *uint64         `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Method string `json:"method"`
	Params *struct {
		Result       json.RawMessage `json:"result"`
		Subscription uint64          `json:"subscription"`
	} `json:"params"`
}

type accountNotification struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value struct {
		Data []string `json:"data"`
	} `json:"value"`
}
