package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

func TestClientStreamsAccountNotifications(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := solana.PublicKey{4, 5, 6}
	reqCh := make(chan map[string]any, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept ws: %v", err)
			return
		}
		defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var req map[string]any
		if err := json.Unmarshal(data, &req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		reqCh <- req
		ack := fmt.Sprintf(`{"jsonrpc":"2.0","result":77,"id":%v}`, req["id"])
		note := `{"jsonrpc":"2.0","method":"accountNotification","params":{"subscription":77,"result":{"context":{"slot":1234},"value":{"data":["AQID","base64"],"owner":"11111111111111111111111111111111"}}}}`
		for _, msg := range []string{ack, note} {
			if err := conn.Write(ctx, websocket.MessageText, []byte(msg)); err != nil {
				return
			}
		}
		_, _, _ = conn.Read(ctx)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	client := New(wsURL, "", 10*time.Millisecond, 0, zap.NewNop())
	if err := client.SubscribeAccount(ctx, key); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	updates := make(chan AccountUpdate, 1)
	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()
	go func() {
		_ = client.Run(runCtx, func(u AccountUpdate) {
			select {
			case updates <- u:
			default:
			}
		})
	}()

	select {
	case req := <-reqCh:
		if req["method"] != "accountSubscribe" {
			t.Fatalf("expected accountSubscribe, got %v", req["method"])
		}
		params, _ := req["params"].([]any)
		if len(params) != 2 || params[0] != key.String() {
			t.Fatalf("unexpected params %v", req["params"])
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for subscribe")
	}

	select {
	case u := <-updates:
		if !u.Key.Equals(key) || u.Slot != 1234 || !bytes.Equal(u.Data, []byte{1, 2, 3}) {
			t.Fatalf("unexpected update %+v", u)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for notification")
	}
}

func TestHandleMessageUnknownSubscription(t *testing.T) {
	client := New("ws://unused", "", 0, 0, nil)
	note := []byte(`{"method":"accountNotification","params":{"subscription":9,"result":{"context":{"slot":1},"value":{"data":["AA==","base64"]}}}}`)
	if _, ok, err := client.handleMessage(note); ok || err == nil {
		t.Fatalf("expected unknown subscription error")
	}
}

func streamingHandler(t *testing.T, ctx context.Context, slot uint64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept ws: %v", err)
			return
		}
		defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var req map[string]any
		if err := json.Unmarshal(data, &req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		ack := fmt.Sprintf(`{"jsonrpc":"2.0","result":5,"id":%v}`, req["id"])
		note := fmt.Sprintf(`{"jsonrpc":"2.0","method":"accountNotification","params":{"subscription":5,"result":{"context":{"slot":%d},"value":{"data":["AQ==","base64"]}}}}`, slot)
		for _, msg := range []string{ack, note} {
			if err := conn.Write(ctx, websocket.MessageText, []byte(msg)); err != nil {
				return
			}
		}
		_, _, _ = conn.Read(ctx)
	})
}

func TestRunRetriesWhileEndpointIsDown(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	firstConn := make(chan struct{}, 1)
	first := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.Close(websocket.StatusGoingAway, "restart")
		select {
		case firstConn <- struct{}{}:
		default:
		}
	}))
	first.Listener.Close()
	first.Listener = ln
	first.Start()

	client := New("ws://"+addr, "", 20*time.Millisecond, 0, zap.NewNop())
	if err := client.SubscribeAccount(ctx, solana.PublicKey{1}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	updates := make(chan AccountUpdate, 1)
	runErr := make(chan error, 1)
	go func() {
		runErr <- client.Run(ctx, func(u AccountUpdate) {
			select {
			case updates <- u:
			default:
			}
		})
	}()

	select {
	case <-firstConn:
	case <-ctx.Done():
		t.Fatalf("timed out waiting for first connection")
	}
	first.Close()
	// Let at least one dial hit the closed port.
	time.Sleep(150 * time.Millisecond)
	select {
	case err := <-runErr:
		t.Fatalf("run returned while endpoint was down: %v", err)
	default:
	}

	ln2, err := net.Listen("tcp", addr)
	if err != nil {
		t.Skipf("cannot rebind %s: %v", addr, err)
	}
	second := httptest.NewUnstartedServer(streamingHandler(t, ctx, 42))
	second.Listener.Close()
	second.Listener = ln2
	second.Start()
	defer second.Close()

	select {
	case u := <-updates:
		if u.Slot != 42 {
			t.Fatalf("unexpected update %+v", u)
		}
	case err := <-runErr:
		t.Fatalf("run returned before reconnecting: %v", err)
	case <-ctx.Done():
		t.Fatalf("timed out waiting for reconnect")
	}
	cancel()
	if err := <-runErr; err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNextDelayCaps(t *testing.T) {
	if got := nextDelay(time.Second); got != 2*time.Second {
		t.Fatalf("expected doubling, got %v", got)
	}
	if got := nextDelay(maxReconnectDelay); got != maxReconnectDelay {
		t.Fatalf("expected cap %v, got %v", maxReconnectDelay, got)
	}
}
