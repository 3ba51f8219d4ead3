package routing

import (
	"strings"

	"github.com/noah-isme/backend-pay/internal/gateway"
	"github.com/noah-isme/backend-pay/internal/geo"
)

// statusTables maps each provider's native status vocabulary onto the
// unified enum. Unrecognised native statuses default to pending: new
// provider states are assumed non-terminal until proven otherwise.
var statusTables = map[gateway.ID]map[string]Status{
	gateway.Stripe: {
		"requires_payment_method": StatusPending,
		"requires_confirmation":   StatusPending,
		"requires_action":         StatusPending,
		"processing":              StatusProcessing,
		"succeeded":               StatusCompleted,
		"canceled":                StatusCancelled,
		"payment_failed":          StatusFailed,
		// payout vocabulary
		"pending":    StatusPending,
		"in_transit": StatusProcessing,
		"paid":       StatusCompleted,
		"failed":     StatusFailed,
	},
	gateway.Razorpay: {
		"created":    StatusPending,
		"authorized": StatusProcessing,
		"captured":   StatusCompleted,
		"refunded":   StatusCancelled,
		"failed":     StatusFailed,
	},
	gateway.Wise: {
		"incoming_payment_waiting": StatusPending,
		"processing":               StatusProcessing,
		"funds_converted":          StatusProcessing,
		"outgoing_payment_sent":    StatusCompleted,
		"cancelled":                StatusCancelled,
		"funds_refunded":           StatusFailed,
	},
	gateway.Flutterwave: {
		"new":        StatusPending,
		"pending":    StatusProcessing,
		"successful": StatusCompleted,
		"cancelled":  StatusCancelled,
		"failed":     StatusFailed,
	},
}

// UnifiedStatus maps one provider-native status to the unified enum.
func UnifiedStatus(id gateway.ID, native string) Status {
	table, ok := statusTables[id]
	if !ok {
		return StatusPending
	}
	if status, ok := table[strings.ToLower(strings.TrimSpace(native))]; ok {
		return status
	}
	return StatusPending
}

// NativeStatuses returns every mapped native status for a gateway. Used by
// table-driven tests to enumerate the mapping exhaustively.
func NativeStatuses(id gateway.ID) map[string]Status {
	src := statusTables[id]
	out := make(map[string]Status, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// NormalizePayment folds an adapter payment result into the unified shape.
// Amount, currency and metadata come from the dispatched intent, not the
// inbound request, so a fallback currency conversion carries through to the
// caller. The already-resolved location is attached as-is, never
// re-resolved, and intent metadata is merged with gateway metadata, gateway
// winning on collision.
func NormalizePayment(id gateway.ID, intent gateway.PaymentIntent, res gateway.PaymentResult, loc geo.Location) Result {
	out := Result{
		Success:              res.Success,
		Operation:            OpPayment,
		TransactionID:        intent.TransactionID,
		GatewayTransactionID: res.ProviderRef,
		Gateway:              id,
		Status:               UnifiedStatus(id, res.NativeStatus),
		Amount:               MajorUnits(intent.AmountMinor, intent.Currency),
		Currency:             resultCurrency(res.Currency, intent.Currency),
		Region:               loc.Region,
		Metadata:             mergeMetadata(intent.Metadata, res.Metadata),
		Location:             loc,
	}
	if !res.Success {
		out.Status = StatusFailed
		out.Error = res.ErrorMessage
		out.ErrorCode = errorCodeOrDefault(res.ErrorCode, id)
	}
	return out
}

// NormalizePayout folds an adapter payout result into the unified shape.
func NormalizePayout(id gateway.ID, order gateway.PayoutOrder, res gateway.PayoutResult, loc geo.Location) Result {
	out := Result{
		Success:              res.Success,
		Operation:            OpPayout,
		TransactionID:        order.TransactionID,
		GatewayTransactionID: res.ProviderRef,
		Gateway:              id,
		Status:               UnifiedStatus(id, res.NativeStatus),
		Amount:               MajorUnits(order.AmountMinor, order.Currency),
		Currency:             resultCurrency(res.Currency, order.Currency),
		Region:               loc.Region,
		Metadata:             mergeMetadata(order.Metadata, res.Metadata),
		Location:             loc,
	}
	if !res.Success {
		out.Status = StatusFailed
		out.Error = res.ErrorMessage
		out.ErrorCode = errorCodeOrDefault(res.ErrorCode, id)
	}
	return out
}

func resultCurrency(fromGateway, fromRequest string) string {
	if strings.TrimSpace(fromGateway) != "" {
		return strings.ToUpper(fromGateway)
	}
	return strings.ToUpper(strings.TrimSpace(fromRequest))
}

func errorCodeOrDefault(code string, id gateway.ID) string {
	if strings.TrimSpace(code) != "" {
		return code
	}
	return strings.ToUpper(string(id)) + "_ERROR"
}

func mergeMetadata(request, gw map[string]string) map[string]string {
	if len(request) == 0 && len(gw) == 0 {
		return nil
	}
	out := make(map[string]string, len(request)+len(gw))
	for k, v := range request {
		out[k] = v
	}
	for k, v := range gw {
		out[k] = v
	}
	return out
}
