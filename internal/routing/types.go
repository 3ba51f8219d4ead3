// Package routing owns gateway selection for payments and payouts: request
// validation, eligibility filtering, priority selection, dispatch and
// response normalization across heterogeneous providers.
package routing

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pay/internal/gateway"
	"github.com/noah-isme/backend-pay/internal/geo"
)

// Operation distinguishes the two routed request kinds.
type Operation string

const (
	OpPayment Operation = "payment"
	OpPayout  Operation = "payout"
)

// Status is the unified status vocabulary returned to callers regardless of
// which provider processed the request.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// PaymentRequest is the inbound payment contract. Amount is major units.
type PaymentRequest struct {
	PayerID       string            `json:"payerId"`
	Amount        decimal.Decimal   `json:"amount"`
	Currency      string            `json:"currency"`
	Country       string            `json:"country,omitempty"`
	IPAddress     string            `json:"-"`
	Headers       http.Header       `json:"-"`
	PaymentMethod string            `json:"paymentMethod,omitempty"`
	Description   string            `json:"description,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	ReturnURL     string            `json:"returnUrl,omitempty"`
	CancelURL     string            `json:"cancelUrl,omitempty"`
}

// PayoutRequest is the inbound payout contract. Exactly one of BankAccount
// or PayoutEmail must be set.
type PayoutRequest struct {
	RecipientID string               `json:"recipientId"`
	Amount      decimal.Decimal      `json:"amount"`
	Currency    string               `json:"currency"`
	Country     string               `json:"country,omitempty"`
	IPAddress   string               `json:"-"`
	Headers     http.Header          `json:"-"`
	BankAccount *gateway.BankAccount `json:"bankAccount,omitempty"`
	PayoutEmail string               `json:"payoutEmail,omitempty"`
	Description string               `json:"description,omitempty"`
	Metadata    map[string]string    `json:"metadata,omitempty"`
}

// Result is the unified, gateway-agnostic outcome returned to all callers.
// It is constructed exactly once per request: by the normalizer on dispatch,
// or by the router when a stage fails before reaching a gateway.
type Result struct {
	Success              bool              `json:"success"`
	Operation            Operation         `json:"operation"`
	TransactionID        string            `json:"transactionId"`
	GatewayTransactionID string            `json:"gatewayTransactionId,omitempty"`
	Gateway              gateway.ID        `json:"gateway,omitempty"`
	Status               Status            `json:"status"`
	Amount               decimal.Decimal   `json:"amount"`
	Currency             string            `json:"currency"`
	Region               geo.Region        `json:"region,omitempty"`
	FellBack             bool              `json:"fellBack,omitempty"`
	Error                string            `json:"error,omitempty"`
	ErrorCode            string            `json:"errorCode,omitempty"`
	Metadata             map[string]string `json:"metadata,omitempty"`
	Location             geo.Location      `json:"location"`
}

// currencyExponents lists ISO 4217 minor-unit exponents that differ from the
// default of 2.
var currencyExponents = map[string]int32{
	"JPY": 0, "KRW": 0, "VND": 0,
	"BHD": 3, "KWD": 3, "OMR": 3,
}

// MinorUnits converts a major-unit amount to minor units for the currency,
// truncating sub-minor precision.
func MinorUnits(amount decimal.Decimal, currency string) int64 {
	return amount.Shift(currencyExponent(currency)).IntPart()
}

// MajorUnits converts a minor-unit amount back to major units for the
// currency.
func MajorUnits(minor int64, currency string) decimal.Decimal {
	return decimal.NewFromInt(minor).Shift(-currencyExponent(currency))
}

func currencyExponent(currency string) int32 {
	if exp, ok := currencyExponents[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return exp
	}
	return 2
}
