package outbox

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Message is the unit stored in an outbox table.
type Message struct {
	Topic   string
	EventID uuid.UUID
	Payload json.RawMessage
}

// Meta is the dispatch metadata handed to a Dispatcher alongside the payload.
type Meta struct {
	Table    pgx.Identifier
	Topic    string
	EventID  uuid.UUID
	Sequence int64
	Attempts int
}

type DispatchedMessage struct {
	Meta    Meta
	Payload json.RawMessage
}

func TableLabel(table pgx.Identifier) string {
	if len(table) == 0 {
		return ""
	}
	return strings.Join(table, ".")
}
