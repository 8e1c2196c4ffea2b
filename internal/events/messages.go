package events

import (
	"encoding/json"
	"time"
)

// Entities and actions carried on change events.
const (
	EntityVehicle     = "vehicle"
	EntityTransaction = "transaction"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ChangeEvent is a lightweight notification that an account's ledger changed.
// It carries identifiers only; consumers fetch current state from the store.
type ChangeEvent struct {
	Entity     string    `json:"entity"`
	Action     string    `json:"action"`
	OwnerID    string    `json:"owner_id"`
	EntityID   string    `json:"entity_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewChangeEvent(entity, action, ownerID, entityID string) *ChangeEvent {
	return &ChangeEvent{
		Entity:     entity,
		Action:     action,
		OwnerID:    ownerID,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
	}
}

func (e *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
