package outbox

// Outbox rows are persisted inside the same DB transaction as the state
// change they describe. The worker relay reads pending rows in sequence
// order and publishes to the bus.
const (
	StatusPending   = "pending"
	StatusPublished = "published"
)
