package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"nexus-defi/internal/config"
	"nexus-defi/internal/metrics"

	"go.uber.org/zap"
)

const (
	telegramBaseURL = "https://api.telegram.org"
	// maxMessageRunes is the sendMessage text limit.
	maxMessageRunes = 4096
)

// Notifier delivers one alert message.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// Telegram posts market alerts to one chat. A message identical to one
// delivered less than repeatWindow ago is dropped, so a slab that keeps
// failing or a restarted watcher does not flood the chat.
type Telegram struct {
	enabled      bool
	sent         metrics.Counter
	token        string
	chatID       string
	baseURL      string
	client       *http.Client
	repeatWindow time.Duration
	now          func() time.Time
	log          *zap.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

func NewTelegram(cfg config.TelegramConfig, m *metrics.Metrics, log *zap.Logger) *Telegram {
	return newTelegram(cfg, m, log, telegramBaseURL, &http.Client{Timeout: 10 * time.Second})
}

func newTelegram(cfg config.TelegramConfig, m *metrics.Metrics, log *zap.Logger, baseURL string, client *http.Client) *Telegram {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Telegram{
		enabled:      cfg.Enabled,
		sent:         metrics.OrNoop(m).AlertsSent,
		token:        strings.TrimSpace(cfg.Token),
		chatID:       strings.TrimSpace(cfg.ChatID),
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       client,
		repeatWindow: cfg.RepeatWindow,
		now:          time.Now,
		log:          log,
		lastSent:     make(map[string]time.Time),
	}
}

func (t *Telegram) Send(ctx context.Context, message string) error {
	if !t.enabled {
		return nil
	}
	if t.token == "" || t.chatID == "" {
		return errors.New("telegram token and chat_id are required")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return errors.New("telegram message is empty")
	}
	if t.repeated(message) {
		t.log.Debug("alert suppressed", zap.String("message", message))
		return nil
	}
	if err := t.post(ctx, sendMessageRequest{
		ChatID:                t.chatID,
		Text:                  truncate(message, maxMessageRunes),
		DisableWebPagePreview: true,
	}); err != nil {
		return err
	}
	t.remember(message)
	t.sent.Inc()
	t.log.Debug("alert sent", zap.Int("len", len(message)))
	return nil
}

func (t *Telegram) post(ctx context.Context, msg sendMessageRequest) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var result apiResponse
	decodeErr := json.Unmarshal(raw, &result)
	if resp.StatusCode == http.StatusTooManyRequests && decodeErr == nil && result.Parameters != nil {
		return fmt.Errorf("telegram rate limited: retry after %ds", result.Parameters.RetryAfter)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram send failed: http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if decodeErr == nil && !result.OK {
		desc := strings.TrimSpace(result.Description)
		if desc == "" {
			desc = "unknown telegram error"
		}
		return fmt.Errorf("telegram send failed: %s", desc)
	}
	return nil
}

func (t *Telegram) repeated(message string) bool {
	if t.repeatWindow <= 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.lastSent[message]
	return ok && t.now().Sub(last) < t.repeatWindow
}

func (t *Telegram) remember(message string) {
	if t.repeatWindow <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	for m, at := range t.lastSent {
		if now.Sub(at) >= t.repeatWindow {
			delete(t.lastSent, m)
		}
	}
	t.lastSent[message] = now
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
