package events

// Topic constants for domain events emitted by the storefront.
const (
	TopicOrderCreated     = "order.created"
	TopicPaymentSucceeded = "payment.succeeded"
	TopicPaymentFailed    = "payment.failed"
)
