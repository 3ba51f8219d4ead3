package gateway

import (
	"context"
	"errors"
)

// ID identifies a configured payment gateway.
type ID string

const (
	Stripe      ID = "stripe"
	Razorpay    ID = "razorpay"
	Wise        ID = "wise"
	Flutterwave ID = "flutterwave"
)

// Fallback is the universal gateway used when no configured gateway is
// eligible for a request. Routing never blocks checkout on an empty
// candidate set; the trade-off is that the fallback may itself decline.
const Fallback = Stripe

// ErrUnsupportedOperation is returned by adapters for operations their
// provider does not offer.
var ErrUnsupportedOperation = errors.New("gateway: operation not supported by provider")

// BankAccount carries payout bank destination details.
type BankAccount struct {
	HolderName    string `json:"holderName"`
	AccountNumber string `json:"accountNumber"`
	RoutingCode   string `json:"routingCode,omitempty"`
	BankName      string `json:"bankName,omitempty"`
	Country       string `json:"country,omitempty"`
}

// PaymentIntent is the uniform payment request handed to an adapter. Amounts
// are minor units in the given currency.
type PaymentIntent struct {
	TransactionID  string
	IdempotencyKey string
	PayerID        string
	AmountMinor    int64
	Currency       string
	Method         string
	Description    string
	ReturnURL      string
	CancelURL      string
	Metadata       map[string]string
}

// PayoutOrder is the uniform payout request handed to an adapter. Exactly one
// of BankAccount or PayoutEmail is set; the router validates this upstream.
type PayoutOrder struct {
	TransactionID  string
	IdempotencyKey string
	RecipientID    string
	AmountMinor    int64
	Currency       string
	BankAccount    *BankAccount
	PayoutEmail    string
	Description    string
	Metadata       map[string]string
}

// PaymentResult is the closed result shape for payment creation. NativeStatus
// carries the provider's own vocabulary; the routing normalizer maps it to
// the unified status enum.
type PaymentResult struct {
	Success      bool
	ProviderRef  string
	NativeStatus string
	AmountMinor  int64
	Currency     string
	ErrorCode    string
	ErrorMessage string
	Metadata     map[string]string
}

// PayoutResult is the closed result shape for payout creation.
type PayoutResult struct {
	Success      bool
	ProviderRef  string
	NativeStatus string
	AmountMinor  int64
	Currency     string
	ErrorCode    string
	ErrorMessage string
	Metadata     map[string]string
}

// AmountLimits bounds the amounts a provider accepts for a currency, in
// minor units. A zero bound means unconstrained.
type AmountLimits struct {
	Min int64
	Max int64
}

// Adapter abstracts one provider integration. Implementations own all
// provider-specific wire details and must be safe for concurrent use; the
// router holds a single instance per gateway for the process lifetime.
type Adapter interface {
	ID() ID
	CreatePayment(ctx context.Context, intent PaymentIntent) (PaymentResult, error)
	CreatePayout(ctx context.Context, order PayoutOrder) (PayoutResult, error)
	IsCurrencySupported(currency string) bool
	AmountLimits(currency string) AmountLimits
}
