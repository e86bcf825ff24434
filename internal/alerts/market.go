package alerts

import (
	"fmt"
	"strings"
)

func ResolvedMessage(slab string, slot uint64) string {
	return fmt.Sprintf("percolator market %s resolved at slot %d", slab, slot)
}

// DroppedAccountsMessage reports used bitmap slots that fall outside the
// account region actually present in the slab.
func DroppedAccountsMessage(slab string, dropped []int) string {
	const maxListed = 8
	parts := make([]string, 0, maxListed)
	for i, idx := range dropped {
		if i == maxListed {
			parts = append(parts, fmt.Sprintf("+%d more", len(dropped)-maxListed))
			break
		}
		parts = append(parts, fmt.Sprint(idx))
	}
	return fmt.Sprintf("percolator market %s: %d used account slots past the slab end (%s)", slab, len(dropped), strings.Join(parts, ", "))
}

func DecodeFailedMessage(slab string, err error) string {
	return fmt.Sprintf("percolator market %s failed to decode: %v", slab, err)
}
