package gateway

import (
	"fmt"
	"strings"

	"github.com/noah-isme/backend-pay/internal/geo"
)

// Capability describes the static eligibility envelope of one gateway.
// Amount bounds are minor units; zero means unconstrained.
type Capability struct {
	Gateway             ID
	Enabled             bool
	SupportedRegions    []geo.Region
	SupportedCurrencies []string
	SupportsPayments    bool
	SupportsPayouts     bool
	Priority            int
	MinAmount           int64
	MaxAmount           int64
}

// SupportsRegion reports whether the capability covers the region, honouring
// the DEFAULT wildcard.
func (c Capability) SupportsRegion(region geo.Region) bool {
	for _, r := range c.SupportedRegions {
		if r == region || r == geo.RegionDefault {
			return true
		}
	}
	return false
}

// SupportsCurrency reports whether the capability lists the currency.
func (c Capability) SupportsCurrency(currency string) bool {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	for _, cur := range c.SupportedCurrencies {
		if cur == currency {
			return true
		}
	}
	return false
}

// WithinBounds checks the minor-unit amount against the optional bounds.
func (c Capability) WithinBounds(amountMinor int64) bool {
	if c.MinAmount > 0 && amountMinor < c.MinAmount {
		return false
	}
	if c.MaxAmount > 0 && amountMinor > c.MaxAmount {
		return false
	}
	return true
}

// Table is the process-wide capability table. It is built once at startup and
// read-only afterwards, so concurrent lookups need no locking.
type Table struct {
	entries []Capability
	byID    map[ID]Capability
}

// NewTable validates and indexes the given capability records.
func NewTable(entries []Capability) (Table, error) {
	byID := make(map[ID]Capability, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(string(entry.Gateway)) == "" {
			return Table{}, fmt.Errorf("gateway: capability with empty gateway id")
		}
		if _, dup := byID[entry.Gateway]; dup {
			return Table{}, fmt.Errorf("gateway: duplicate capability for %s", entry.Gateway)
		}
		byID[entry.Gateway] = entry
	}
	table := Table{entries: append([]Capability(nil), entries...), byID: byID}
	return table, nil
}

// All returns the capability records in configuration order.
func (t Table) All() []Capability {
	return t.entries
}

// Lookup returns the capability for a gateway id.
func (t Table) Lookup(id ID) (Capability, bool) {
	cap, ok := t.byID[id]
	return cap, ok
}

// DefaultCapabilities is the shipped capability table. Priorities are unique
// per operation so selection is deterministic.
func DefaultCapabilities() []Capability {
	return []Capability{
		{
			Gateway:             Razorpay,
			Enabled:             true,
			SupportedRegions:    []geo.Region{geo.RegionIN},
			SupportedCurrencies: []string{"INR"},
			SupportsPayments:    true,
			SupportsPayouts:     false,
			Priority:            1,
			MinAmount:           100,        // 1.00 INR
			MaxAmount:           50_000_000, // 500,000.00 INR
		},
		{
			Gateway:             Flutterwave,
			Enabled:             true,
			SupportedRegions:    []geo.Region{geo.RegionAfrica, geo.RegionLatam},
			SupportedCurrencies: []string{"NGN", "KES", "ZAR", "GHS", "BRL", "MXN", "USD"},
			SupportsPayments:    true,
			SupportsPayouts:     true,
			Priority:            2,
			MinAmount:           100,
		},
		{
			Gateway:             Wise,
			Enabled:             true,
			SupportedRegions:    []geo.Region{geo.RegionDefault},
			SupportedCurrencies: []string{"USD", "EUR", "GBP", "INR", "CAD", "AUD", "SGD"},
			SupportsPayments:    false,
			SupportsPayouts:     true,
			Priority:            3,
			MinAmount:           100,
			MaxAmount:           100_000_000,
		},
		{
			Gateway:             Stripe,
			Enabled:             true,
			SupportedRegions:    []geo.Region{geo.RegionDefault},
			SupportedCurrencies: []string{"USD", "EUR", "GBP", "INR", "JPY", "CAD", "AUD", "SGD", "MXN", "BRL"},
			SupportsPayments:    true,
			SupportsPayouts:     true,
			Priority:            10,
			MinAmount:           50, // 0.50 USD, card network floor
		},
	}
}
