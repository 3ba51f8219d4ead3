package gateway

import (
	"strings"

	"github.com/rs/zerolog"
)

// Credentials carries the per-provider secrets read at startup. An empty
// credential disables the corresponding gateway rather than failing boot: a
// partially configured fleet still routes what it can.
type Credentials struct {
	StripeSecretKey      string
	RazorpayKeyID        string
	RazorpayKeySecret    string
	WiseAPIToken         string
	WiseProfile          string
	FlutterwaveSecretKey string
}

// Registry holds the constructed adapters and the capability table. It is
// built once at startup and passed into the router explicitly; nothing in the
// request path reaches for ambient state.
type Registry struct {
	adapters map[ID]Adapter
	table    Table
}

// NewRegistry constructs adapters for every gateway whose credentials are
// present and pairs them with the capability table. Gateways without
// credentials are logged and skipped; their capability rows stay in the table
// so eligibility remains visible, but dispatch to them fails with a
// configuration error.
func NewRegistry(creds Credentials, table Table, logger zerolog.Logger) *Registry {
	adapters := make(map[ID]Adapter, 4)

	if strings.TrimSpace(creds.StripeSecretKey) != "" {
		adapters[Stripe] = StripeAdapter{SecretKey: creds.StripeSecretKey}
	}
	if strings.TrimSpace(creds.RazorpayKeyID) != "" && strings.TrimSpace(creds.RazorpayKeySecret) != "" {
		adapters[Razorpay] = RazorpayAdapter{KeyID: creds.RazorpayKeyID, KeySecret: creds.RazorpayKeySecret}
	}
	if strings.TrimSpace(creds.WiseAPIToken) != "" {
		adapters[Wise] = WiseAdapter{APIToken: creds.WiseAPIToken, Profile: creds.WiseProfile}
	}
	if strings.TrimSpace(creds.FlutterwaveSecretKey) != "" {
		adapters[Flutterwave] = FlutterwaveAdapter{SecretKey: creds.FlutterwaveSecretKey}
	}

	for _, cap := range table.All() {
		if _, ok := adapters[cap.Gateway]; ok {
			logger.Info().Str("gateway", string(cap.Gateway)).Bool("enabled", cap.Enabled).Msg("gateway adapter initialised")
			continue
		}
		logger.Warn().Str("gateway", string(cap.Gateway)).Msg("gateway credentials missing, adapter disabled")
	}

	return &Registry{adapters: adapters, table: table}
}

// Adapter returns the adapter for the gateway id, if one was constructed.
func (r *Registry) Adapter(id ID) (Adapter, bool) {
	if r == nil {
		return nil, false
	}
	adapter, ok := r.adapters[id]
	return adapter, ok
}

// AdapterCount returns how many adapters were constructed. Readiness uses
// this to fail fast on a deployment with no credentials at all.
func (r *Registry) AdapterCount() int {
	if r == nil {
		return 0
	}
	return len(r.adapters)
}

// Capabilities returns the capability table.
func (r *Registry) Capabilities() Table {
	if r == nil {
		return Table{}
	}
	return r.table
}

// Register adds or replaces an adapter. Intended for tests and for wiring
// bespoke adapters without touching the built-ins.
func (r *Registry) Register(adapter Adapter) {
	if r == nil || adapter == nil {
		return
	}
	if r.adapters == nil {
		r.adapters = make(map[ID]Adapter)
	}
	r.adapters[adapter.ID()] = adapter
}
