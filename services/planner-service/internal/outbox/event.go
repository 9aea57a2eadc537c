package outbox

import (
	"encoding/json"
	"fmt"
)

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	ActivityCreated     = "planner.activity.created.v1"
	ActivityDeleted     = "planner.activity.deleted.v1"
	CalendarItemCreated = "planner.calendar_item.created.v1"
	CalendarItemDeleted = "planner.calendar_item.deleted.v1"
	RoutineBlockCreated = "planner.routine_block.created.v1"
	RoutineBlockDeleted = "planner.routine_block.deleted.v1"
	SettingsUpdated     = "planner.settings.updated.v1"
	AgendaDaily         = "planner.agenda.daily.v1"
)

// NewEvent marshals payload as JSON.
func NewEvent(aggregateType, aggregateID, eventType string, payload any) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       body,
	}, nil
}
