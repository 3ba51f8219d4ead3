package events

// Topic constants for domain events emitted by the routing pipeline.
const (
	TopicPaymentCompleted = "payment.completed"
	TopicPaymentFailed    = "payment.failed"
	TopicPayoutCompleted  = "payout.completed"
	TopicPayoutFailed     = "payout.failed"
	TopicRoutingFallback  = "routing.fallback"
)

// DefaultTopics returns the canonical list of emitted topics. Emit rejects
// topics outside this list.
func DefaultTopics() []string {
	return []string{
		TopicPaymentCompleted,
		TopicPaymentFailed,
		TopicPayoutCompleted,
		TopicPayoutFailed,
		TopicRoutingFallback,
	}
}

var knownTopics = func() map[string]struct{} {
	out := make(map[string]struct{})
	for _, topic := range DefaultTopics() {
		out[topic] = struct{}{}
	}
	return out
}()
