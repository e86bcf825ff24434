// Package tools exposes the protocol clients as named tools with JSON
// input schemas and JSON text responses.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"nexus-defi/internal/protocols/exodus"
	"nexus-defi/internal/protocols/percolator"
	"nexus-defi/internal/protocols/sigma"
	"nexus-defi/internal/protocols/sovereign"
	"nexus-defi/internal/protocols/stratum"
	"nexus-defi/internal/protocols/veil"
	"nexus-defi/internal/state"
)

type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Response struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Text returns the concatenated text content.
func (r Response) Text() string {
	parts := make([]string, len(r.Content))
	for i, c := range r.Content {
		parts[i] = c.Text
	}
	return strings.Join(parts, "\n")
}

func jsonContent(v any) Response {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorContent(fmt.Sprintf("encode response: %v", err))
	}
	return Response{Content: []Content{{Type: "text", Text: string(data)}}}
}

func errorContent(msg string) Response {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return Response{Content: []Content{{Type: "text", Text: string(data)}}, IsError: true}
}

type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Items       *Schema  `json:"items,omitempty"`
}

type Schema struct {
	Type       string              `json:"type"`
	Required   []string            `json:"required,omitempty"`
	Properties map[string]Property `json:"properties"`
}

type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"inputSchema"`
}

func object(required []string, props map[string]Property) Schema {
	if props == nil {
		props = map[string]Property{}
	}
	return Schema{Type: "object", Required: required, Properties: props}
}

func str(desc string) Property { return Property{Type: "string", Description: desc} }
func num(desc string) Property { return Property{Type: "number", Description: desc} }

// SignerFunc resolves the wallet for a write tool. override is the optional
// walletPrivateKey argument.
type SignerFunc func(override string) (solana.PrivateKey, error)

// Deps are the clients behind the tools. A nil client makes its tools
// answer with an error.
type Deps struct {
	Percolator *percolator.Client
	Sovereign  *sovereign.Client
	Sigma      *sigma.Client
	Exodus     *exodus.Client
	Veil       *veil.Client
	Stratum    *stratum.Client
	Signer     SignerFunc
	Journal    *state.Journal
	// OnRecord sees every journal entry after it is stored.
	OnRecord func(state.JournalEntry)
	Now      func() time.Time
	Log      *zap.Logger
}

type handlerFunc func(ctx context.Context, name string, args Args) (any, error)

type Dispatcher struct {
	deps     Deps
	log      *zap.Logger
	handlers map[string]handlerFunc
	catalog  []Tool
}

func New(deps Deps) *Dispatcher {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	d := &Dispatcher{deps: deps, log: deps.Log}
	d.handlers = map[string]handlerFunc{
		"sovereign":  d.handleSovereign,
		"percolator": d.handlePercolator,
		"sigma":      d.handleSigma,
		"exodus":     d.handleExodus,
		"veil":       d.handleVeil,
		"stratum":    d.handleStratum,
	}
	for _, group := range [][]Tool{sovereignTools, percolatorTools, sigmaTools, exodusTools, veilTools, stratumTools} {
		d.catalog = append(d.catalog, group...)
	}
	return d
}

// Catalog lists every tool in registration order.
func (d *Dispatcher) Catalog() []Tool {
	return append([]Tool(nil), d.catalog...)
}

// Prefixes lists the registered tool families.
func (d *Dispatcher) Prefixes() []string {
	out := make([]string, 0, len(d.handlers))
	for p := range d.handlers {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Dispatch routes name by the text before its first underscore. Errors and
// panics in a handler become error responses.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args Args) (resp Response) {
	prefix, _, _ := strings.Cut(name, "_")
	handler, ok := d.handlers[prefix]
	if !ok {
		return errorContent(fmt.Sprintf("Unknown tool prefix: %s (tool: %s)", prefix, name))
	}
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("tool panicked", zap.String("tool", name), zap.Any("panic", r))
			resp = errorContent(fmt.Sprintf("%s: internal error: %v", name, r))
		}
	}()
	if args == nil {
		args = Args{}
	}
	result, err := handler(ctx, name, args)
	if err != nil {
		d.log.Debug("tool failed", zap.String("tool", name), zap.Error(err))
		return errorContent(err.Error())
	}
	return jsonContent(result)
}

func unknownTool(family, name string) error {
	return fmt.Errorf("Unknown %s tool: %s", family, name)
}

func deferred(name, needs string) error {
	return fmt.Errorf("%s: Write operation deferred, requires %s.", name, needs)
}

func notConfigured(family string) error {
	return fmt.Errorf("%s client is not configured", family)
}
