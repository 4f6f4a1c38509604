package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnCompleted is emitted after a streamed answer finishes.
	EventTypeTurnCompleted = "lectern.turn.completed"
)

// TurnCompletedEvent is a transport-neutral event payload for a completed turn.
type TurnCompletedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	Turn          TurnMeta    `json:"turn"`
}

// EventSource identifies where the turn originated.
type EventSource struct {
	Target    string `json:"target,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Agent     string `json:"agent,omitempty"`
}

// TurnMeta captures the content and lifecycle metadata of the turn.
type TurnMeta struct {
	SessionID  string `json:"session_id,omitempty"`
	Prompt     string `json:"prompt"`
	Answer     string `json:"answer"`
	StepCount  int    `json:"step_count"`
	TokenCount int    `json:"token_count"`
	DurationMs int64  `json:"duration_ms"`
	Failed     bool   `json:"failed,omitempty"`
}

// NewTurnCompletedEvent stamps a TurnCompletedEvent with schema metadata,
// a fresh event id, and the emission time.
func NewTurnCompletedEvent(source EventSource, turn TurnMeta) *TurnCompletedEvent {
	return &TurnCompletedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeTurnCompleted,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Turn:          turn,
	}
}
