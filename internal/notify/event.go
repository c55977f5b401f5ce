package notify

import "time"

const (
	EntityListing = "listing"
	EntityRequest = "request"

	// StatusDeleted is reported for entities removed by a delete operation.
	StatusDeleted = "deleted"
)

// Event is a change notification for one listing or request.
type Event struct {
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}
