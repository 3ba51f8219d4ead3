// Package ledger records terminal routing outcomes. Durable transaction
// persistence is deliberately out of scope for this service; the Recorder is
// the seam where a real ledger plugs in.
package ledger

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pay/internal/events"
)

// Entry is one terminal routing outcome.
type Entry struct {
	TransactionID string `json:"transactionId"`
	Operation     string `json:"operation"`
	Gateway       string `json:"gateway"`
	Status        string `json:"status"`
	Success       bool   `json:"success"`
	AmountMinor   int64  `json:"amountMinor"`
	Currency      string `json:"currency"`
	Region        string `json:"region"`
	ErrorCode     string `json:"errorCode,omitempty"`
	FellBack      bool   `json:"fellBack,omitempty"`
}

// Recorder accepts terminal entries. Implementations must tolerate being
// called concurrently.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Log writes entries as structured log lines.
type Log struct {
	Logger zerolog.Logger
}

var _ Recorder = Log{}

// Record emits the entry at info level.
func (l Log) Record(_ context.Context, entry Entry) error {
	l.Logger.Info().
		Str("transaction_id", entry.TransactionID).
		Str("operation", entry.Operation).
		Str("gateway", entry.Gateway).
		Str("status", entry.Status).
		Bool("success", entry.Success).
		Int64("amount_minor", entry.AmountMinor).
		Str("currency", entry.Currency).
		Str("region", entry.Region).
		Str("error_code", entry.ErrorCode).
		Bool("fell_back", entry.FellBack).
		Msg("ledger_entry")
	return nil
}

// EventNotifier adapts a Recorder into an events.Notifier so the bus can
// drive ledger recording.
type EventNotifier struct {
	Recorder Recorder
}

// Notify decodes the event payload into an Entry and records it. Only
// terminal payment and payout events are ledgered; advisory topics such as
// routing.fallback pass through untouched.
func (n EventNotifier) Notify(ctx context.Context, event events.Event) error {
	if n.Recorder == nil {
		return nil
	}
	switch event.Topic {
	case events.TopicPaymentCompleted, events.TopicPaymentFailed,
		events.TopicPayoutCompleted, events.TopicPayoutFailed:
	default:
		return nil
	}
	var entry Entry
	if err := json.Unmarshal(event.Payload, &entry); err != nil {
		return nil
	}
	if entry.TransactionID == "" {
		entry.TransactionID = event.TransactionID
	}
	return n.Recorder.Record(ctx, entry)
}
