package rpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func newRPCServer(t *testing.T, handle func(req rpcRequest) any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  handle(req),
		})
	}))
}

func accountValue(data []byte) map[string]any {
	return map[string]any{
		"data":       []string{base64.StdEncoding.EncodeToString(data), "base64"},
		"executable": false,
		"lamports":   1,
		"owner":      solana.SystemProgramID.String(),
		"rentEpoch":  0,
	}
}

func TestAccountData(t *testing.T) {
	payload := []byte{1, 2, 3, 4}
	var gotMethod string
	server := newRPCServer(t, func(req rpcRequest) any {
		gotMethod = req.Method
		return map[string]any{
			"context": map[string]any{"slot": 10},
			"value":   accountValue(payload),
		}
	})
	defer server.Close()

	client := New(server.URL, Options{Timeout: time.Second}, zap.NewNop())
	data, err := client.AccountData(context.Background(), solana.SystemProgramID)
	if err != nil {
		t.Fatalf("account data: %v", err)
	}
	if gotMethod != "getAccountInfo" {
		t.Fatalf("expected getAccountInfo, got %s", gotMethod)
	}
	if string(data) != string(payload) {
		t.Fatalf("expected %v, got %v", payload, data)
	}
}

func TestAccountDataNotFound(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) any {
		return map[string]any{
			"context": map[string]any{"slot": 10},
			"value":   nil,
		}
	})
	defer server.Close()

	client := New(server.URL, Options{Timeout: time.Second}, zap.NewNop())
	_, err := client.AccountData(context.Background(), solana.SystemProgramID)
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestProgramAccountsSendsFilters(t *testing.T) {
	var params []json.RawMessage
	server := newRPCServer(t, func(req rpcRequest) any {
		params = req.Params
		return []any{
			map[string]any{
				"pubkey":  solana.SystemProgramID.String(),
				"account": accountValue([]byte{9}),
			},
		}
	})
	defer server.Close()

	client := New(server.URL, Options{}, zap.NewNop())
	out, err := client.ProgramAccounts(context.Background(), solana.SystemProgramID, DataSize(280), Memcmp(40, []byte{1, 2}))
	if err != nil {
		t.Fatalf("program accounts: %v", err)
	}
	if len(out) != 1 || len(out[0].Data) != 1 || out[0].Data[0] != 9 {
		t.Fatalf("unexpected accounts: %+v", out)
	}
	if len(params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(params))
	}
	var opts struct {
		Filters []map[string]json.RawMessage `json:"filters"`
	}
	if err := json.Unmarshal(params[1], &opts); err != nil {
		t.Fatalf("decode opts: %v", err)
	}
	if len(opts.Filters) != 2 {
		t.Fatalf("expected 2 filters, got %d", len(opts.Filters))
	}
	if _, ok := opts.Filters[0]["dataSize"]; !ok {
		t.Fatalf("expected dataSize filter first, got %v", opts.Filters[0])
	}
	if _, ok := opts.Filters[1]["memcmp"]; !ok {
		t.Fatalf("expected memcmp filter second, got %v", opts.Filters[1])
	}
}

func TestProviderReusesAndReplaces(t *testing.T) {
	p := NewProvider("http://a.invalid", Options{}, zap.NewNop())
	first := p.Client()
	if p.Client() != first {
		t.Fatalf("expected the same client for the same endpoint")
	}
	p.SetEndpoint("http://b.invalid")
	second := p.Client()
	if second == first {
		t.Fatalf("expected a new client after endpoint change")
	}
	if second.Endpoint() != "http://b.invalid" {
		t.Fatalf("unexpected endpoint %s", second.Endpoint())
	}
}
