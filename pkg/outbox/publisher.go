package outbox

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/campus-sdk/pkg/repo"
)

type Publisher interface {
	Enqueue(ctx context.Context, tx repo.Tx, table pgx.Identifier, msg Message) (sequence int64, err error)
}

type publisher struct {
	m *metrics
}

func NewPublisher() Publisher {
	return &publisher{m: getMetrics()}
}

// Enqueue inserts msg inside tx. Re-enqueueing the same EventID is a no-op
// that returns the original sequence.
func (p *publisher) Enqueue(ctx context.Context, tx repo.Tx, table pgx.Identifier, msg Message) (int64, error) {
	if msg.EventID == uuid.Nil {
		return 0, invalidConfig("event_id is required")
	}
	if msg.Topic == "" {
		return 0, invalidConfig("topic is required")
	}
	if len(table) == 0 {
		return 0, invalidConfig("table is required")
	}

	q := fmt.Sprintf(
		`INSERT INTO %s (topic, payload, event_id, available_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (event_id) DO UPDATE SET event_id = EXCLUDED.event_id
		 RETURNING sequence`,
		table.Sanitize(),
	)

	var sequence int64
	if err := tx.QueryRow(ctx, q, msg.Topic, msg.Payload, msg.EventID).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("outbox enqueue: %w", err)
	}

	p.m.enqueueTotal.WithLabelValues(TableLabel(table), msg.Topic).Inc()
	return sequence, nil
}
