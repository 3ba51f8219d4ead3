package routing

import (
	"strings"

	"github.com/google/uuid"
)

// NewTransactionID produces a unique, time-sortable client-side identifier.
// Every request gets one before dispatch so even requests that never reach a
// gateway return a correlatable id.
func NewTransactionID(op Operation) string {
	prefix := "pay_"
	if op == OpPayout {
		prefix = "po_"
	}
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the entropy source does; fall back to v4
		id = uuid.New()
	}
	return prefix + strings.ReplaceAll(id.String(), "-", "")
}
