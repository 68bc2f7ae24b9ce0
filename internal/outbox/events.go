package outbox

import "time"

// ActivityEventsTopic carries activity lifecycle events.
const ActivityEventsTopic = "gtm.activity-events"

// Event types written to the outbox.
const (
	EventActivityCreated = "activity.created"
	EventActivityUpdated = "activity.updated"
	EventActivityDeleted = "activity.deleted"
)

// ActivityEvent is the JSON payload published for lifecycle events. Deleted
// events carry only the id and timestamp.
type ActivityEvent struct {
	ActivityID int64     `json:"activity_id"`
	Hypothesis string    `json:"hypothesis,omitempty"`
	Audience   *string   `json:"audience,omitempty"`
	Channels   *string   `json:"channels,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
