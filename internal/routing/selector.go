package routing

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pay/internal/gateway"
)

// Selector picks one gateway from a candidate set by ascending priority
// rank. An empty candidate set falls back to the universal gateway rather
// than blocking checkout; the second return value makes that observable so
// callers and metrics can distinguish a genuine match from the fallback.
type Selector struct {
	Table  gateway.Table
	Logger zerolog.Logger
}

// Select returns the chosen gateway and whether the fallback policy fired.
// Ties break by capability table order; configured priorities are expected
// to be unique per operation, so ties only occur in misconfiguration.
func (s Selector) Select(candidates []gateway.ID) (gateway.ID, bool) {
	if len(candidates) == 0 {
		s.Logger.Warn().
			Str("fallback", string(gateway.Fallback)).
			Msg("no eligible gateway, using fallback")
		return gateway.Fallback, true
	}

	sorted := append([]gateway.ID(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return s.priority(sorted[i]) < s.priority(sorted[j])
	})
	return sorted[0], false
}

func (s Selector) priority(id gateway.ID) int {
	if cap, ok := s.Table.Lookup(id); ok {
		return cap.Priority
	}
	// unknown candidates sort last
	return int(^uint(0) >> 1)
}
