package orders

const (
	TopicOrderCreated   = "order.created"
	TopicOrderLifecycle = "order.lifecycle" // status changes + deadline extensions
)

// Partition key = order id, so all events of one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
