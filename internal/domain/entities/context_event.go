package entities

import (
	"time"

	"github.com/google/uuid"
)

// ContextEventType represents the type of search-context event
type ContextEventType string

const (
	ContextEventSearchAdded        ContextEventType = "search_added"
	ContextEventInteractionUpdated ContextEventType = "interaction_updated"
	ContextEventHistoryCleared     ContextEventType = "history_cleared"
	ContextEventSnapshotSaved      ContextEventType = "context_snapshot_saved"
)

// SearchAddedPayload accompanies a search_added event.
type SearchAddedPayload struct {
	EntryID   string `json:"entry_id"`
	Query     string `json:"query,omitempty"`
	SessionID string `json:"session_id"`
}

// InteractionUpdatedPayload accompanies an interaction_updated event.
type InteractionUpdatedPayload struct {
	EntryID string `json:"entry_id"`
}

// HistoryClearedPayload accompanies a history_cleared event.
type HistoryClearedPayload struct {
	Removed       int  `json:"removed"`
	OlderThanDays *int `json:"older_than_days,omitempty"`
}

// SnapshotSavedPayload accompanies a context_snapshot_saved event.
type SnapshotSavedPayload struct {
	Timestamp int64 `json:"timestamp"`
}

// ContextEvent is an in-process notification. The payload is a tagged
// union: exactly one payload field is non-nil, matching EventType.
type ContextEvent struct {
	ID                 string                     `json:"id"`
	EventType          ContextEventType           `json:"event_type"`
	Timestamp          time.Time                  `json:"timestamp"`
	SearchAdded        *SearchAddedPayload        `json:"search_added,omitempty"`
	InteractionUpdated *InteractionUpdatedPayload `json:"interaction_updated,omitempty"`
	HistoryCleared     *HistoryClearedPayload     `json:"history_cleared,omitempty"`
	SnapshotSaved      *SnapshotSavedPayload      `json:"snapshot_saved,omitempty"`
}

// NewContextEvent creates an event shell; the caller sets the matching
// payload field.
func NewContextEvent(eventType ContextEventType) *ContextEvent {
	return &ContextEvent{
		ID:        uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
