package routing

import (
	"github.com/noah-isme/backend-pay/internal/gateway"
	"github.com/noah-isme/backend-pay/internal/geo"
)

// Filter computes the candidate gateway set for a request. The returned
// order carries no meaning; ordering is the selector's job.
type Filter struct {
	Table gateway.Table
}

// Eligible returns every gateway whose capability record satisfies all five
// predicates: enabled, region coverage (with the DEFAULT wildcard), currency
// coverage, the operation flag, and the minor-unit amount bounds.
func (f Filter) Eligible(region geo.Region, currency string, op Operation, amountMinor int64) []gateway.ID {
	var out []gateway.ID
	for _, cap := range f.Table.All() {
		if !cap.Enabled {
			continue
		}
		if !cap.SupportsRegion(region) {
			continue
		}
		if !cap.SupportsCurrency(currency) {
			continue
		}
		switch op {
		case OpPayment:
			if !cap.SupportsPayments {
				continue
			}
		case OpPayout:
			if !cap.SupportsPayouts {
				continue
			}
		default:
			continue
		}
		if !cap.WithinBounds(amountMinor) {
			continue
		}
		out = append(out, cap.Gateway)
	}
	return out
}
