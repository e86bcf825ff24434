package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/gagliardetto/solana-go"

	"nexus-defi/internal/wire"
)

var ErrMissingArgument = errors.New("missing required argument")

// Args are decoded JSON tool arguments. Numbers may arrive as float64,
// json.Number or decimal strings.
type Args map[string]any

// ParseArgs decodes a JSON object, keeping numbers exact.
func ParseArgs(raw []byte) (Args, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return Args{}, nil
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var args Args
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("decode arguments: %w", err)
	}
	return args, nil
}

func (a Args) has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

func (a Args) String(key string) (string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, key)
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case float64:
		return big.NewFloat(t).Text('f', -1), nil
	}
	return "", fmt.Errorf("argument %s: expected string, got %T", key, v)
}

func (a Args) OptionalString(key string) string {
	if !a.has(key) {
		return ""
	}
	s, _ := a.String(key)
	return s
}

func (a Args) PublicKey(key string) (solana.PublicKey, error) {
	s, err := a.String(key)
	if err != nil {
		return solana.PublicKey{}, err
	}
	pk, err := solana.PublicKeyFromBase58(strings.TrimSpace(s))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("argument %s: invalid address %q: %w", key, s, err)
	}
	return pk, nil
}

// OptionalPublicKey returns the zero key when key is absent or empty.
func (a Args) OptionalPublicKey(key string) (solana.PublicKey, error) {
	if strings.TrimSpace(a.OptionalString(key)) == "" {
		return solana.PublicKey{}, nil
	}
	return a.PublicKey(key)
}

// BigInt accepts a decimal string or an integral JSON number.
func (a Args) BigInt(key string) (*big.Int, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingArgument, key)
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		if t != math.Trunc(t) || math.Abs(t) > 1<<53 {
			return nil, fmt.Errorf("argument %s: %v is not an exact integer, pass it as a string", key, t)
		}
		s = big.NewFloat(t).Text('f', 0)
	default:
		return nil, fmt.Errorf("argument %s: expected integer, got %T", key, v)
	}
	n, err := wire.ParseInteger(s)
	if err != nil {
		return nil, fmt.Errorf("argument %s: %w", key, err)
	}
	return n, nil
}

func (a Args) uint(key string, bits int) (uint64, error) {
	n, err := a.BigInt(key)
	if err != nil {
		return 0, err
	}
	if n.Sign() < 0 || n.BitLen() > bits {
		return 0, fmt.Errorf("argument %s: %s out of range for u%d", key, n, bits)
	}
	return n.Uint64(), nil
}

func (a Args) Uint16(key string) (uint16, error) {
	v, err := a.uint(key, 16)
	return uint16(v), err
}

func (a Args) Uint32(key string) (uint32, error) {
	v, err := a.uint(key, 32)
	return uint32(v), err
}

func (a Args) Uint64(key string) (uint64, error) {
	return a.uint(key, 64)
}

func (a Args) Int(key string) (int, error) {
	v, err := a.uint(key, 31)
	return int(v), err
}

// Objects returns an array argument of JSON objects.
func (a Args) Objects(key string) ([]Args, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingArgument, key)
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("argument %s: expected array, got %T", key, v)
	}
	out := make([]Args, len(items))
	for i, item := range items {
		switch obj := item.(type) {
		case map[string]any:
			out[i] = Args(obj)
		case Args:
			out[i] = obj
		default:
			return nil, fmt.Errorf("argument %s[%d]: expected object, got %T", key, i, item)
		}
	}
	return out, nil
}
