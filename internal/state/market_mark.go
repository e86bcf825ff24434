package state

import (
	"context"
	"encoding/json"
	"strings"
)

const marketMarkPrefix = "watch:mark:"

// MarketMark is the last observed state of a watched slab, kept so the
// watcher only alerts on transitions, including across restarts.
// Slot is where the image was seen (chain slot for stream updates); staleness
// is judged on EngineSlot, which every image carries.
type MarketMark struct {
	Slot            uint64 `json:"slot"`
	EngineSlot      uint64 `json:"engine_slot"`
	Resolved        bool   `json:"resolved"`
	NumUsedAccounts uint16 `json:"num_used_accounts"`
	DroppedIndices  int    `json:"dropped_indices"`
	UpdatedAtMS     int64  `json:"updated_at_ms"`
}

func MarketMarkKey(slab string) string {
	return marketMarkPrefix + slab
}

func LoadMarketMark(ctx context.Context, store Store, slab string) (MarketMark, bool, error) {
	if store == nil {
		return MarketMark{}, false, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	raw, ok, err := store.Get(ctx, MarketMarkKey(slab))
	if err != nil {
		return MarketMark{}, false, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return MarketMark{}, false, nil
	}
	var mark MarketMark
	if err := json.Unmarshal([]byte(raw), &mark); err != nil {
		return MarketMark{}, false, err
	}
	return mark, true, nil
}

func SaveMarketMark(ctx context.Context, store Store, slab string, mark MarketMark) error {
	if store == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := json.Marshal(mark)
	if err != nil {
		return err
	}
	return store.Set(ctx, MarketMarkKey(slab), string(payload))
}
