package outbox

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

type claimed struct {
	ID       uuid.UUID
	Topic    string
	Payload  []byte
	EventID  uuid.UUID
	Sequence int64
	Attempts int
}

// queue is the storage side of the relay.
type queue interface {
	claim(ctx context.Context, now, lockCutoff time.Time, maxAttempts, limit int) ([]claimed, error)
	ack(ctx context.Context, id uuid.UUID) error
	nack(ctx context.Context, id uuid.UUID, lastError string, next time.Time) error
}

// Relay polls an outbox table and hands unpublished messages to a Dispatcher.
type Relay struct {
	pool       *pgxpool.Pool
	table      pgx.Identifier
	dispatcher Dispatcher
	opts       RelayOptions

	q          queue
	lockKey    int64
	m          *metrics
	tableLabel string
}

func NewRelay(pool *pgxpool.Pool, table pgx.Identifier, dispatcher Dispatcher, opts RelayOptions) (*Relay, error) {
	if pool == nil {
		return nil, invalidConfig("pool is required")
	}
	r, err := newRelay(&pgQueue{db: pool, table: table}, table, dispatcher, opts)
	if err != nil {
		return nil, err
	}
	r.pool = pool
	return r, nil
}

func newRelay(q queue, table pgx.Identifier, dispatcher Dispatcher, opts RelayOptions) (*Relay, error) {
	if len(table) == 0 {
		return nil, invalidConfig("table is required")
	}
	if dispatcher == nil {
		return nil, invalidConfig("dispatcher is required")
	}
	opts.setDefaults()
	label := TableLabel(table)
	return &Relay{
		table:      table,
		dispatcher: dispatcher,
		opts:       opts,
		q:          q,
		lockKey:    advisoryLockKey("outbox:" + label),
		m:          getMetrics(),
		tableLabel: label,
	}, nil
}

// Run blocks until ctx is done. With SingleActive set only the instance
// holding the table's advisory lock dispatches.
func (r *Relay) Run(ctx context.Context) error {
	if r.opts.SingleActive && r.pool != nil {
		return r.runSingleActive(ctx)
	}
	r.m.relayLeader.WithLabelValues(r.tableLabel).Set(1)
	return r.runLoop(ctx)
}

func (r *Relay) runSingleActive(ctx context.Context) error {
	for {
		conn, err := r.pool.Acquire(ctx)
		if err == nil {
			var leader bool
			err = conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1::bigint)`, r.lockKey).Scan(&leader)
			if err == nil && leader {
				r.m.relayLeader.WithLabelValues(r.tableLabel).Set(1)
				r.opts.Logger.WithField("table", r.tableLabel).Info("outbox: relay became leader")
				err = r.runLoop(ctx)
				_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1::bigint)`, r.lockKey)
				conn.Release()
				return err
			}
			conn.Release()
		}
		if err != nil {
			r.opts.Logger.WithError(err).Warn("outbox: leader election failed")
		}
		r.m.relayLeader.WithLabelValues(r.tableLabel).Set(0)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.opts.PollInterval):
		}
	}
}

func (r *Relay) runLoop(ctx context.Context) error {
	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if _, err := r.ProcessOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			r.opts.Logger.WithError(err).Warn("outbox: process tick failed")
		}
	}
}

// ProcessOnce claims one batch and dispatches it, returning how many
// messages were delivered.
func (r *Relay) ProcessOnce(ctx context.Context) (int, error) {
	now := time.Now()
	batch, err := r.q.claim(ctx, now, now.Add(-r.opts.LockTTL), r.opts.MaxAttempts, r.opts.BatchSize)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, c := range batch {
		if r.deliver(ctx, c) {
			delivered++
		}
	}
	return delivered, nil
}

func (r *Relay) deliver(ctx context.Context, c claimed) bool {
	log := r.opts.Logger.WithFields(logrus.Fields{
		"table":    r.tableLabel,
		"topic":    c.Topic,
		"event_id": c.EventID.String(),
		"sequence": c.Sequence,
		"attempts": c.Attempts,
	})

	dctx, cancel := context.WithTimeout(ctx, r.opts.DispatchTimeout)
	start := time.Now()
	err := r.dispatcher.Dispatch(dctx, DispatchedMessage{
		Meta: Meta{
			Table:    r.table,
			Topic:    c.Topic,
			EventID:  c.EventID,
			Sequence: c.Sequence,
			Attempts: c.Attempts,
		},
		Payload: c.Payload,
	})
	cancel()
	latency := time.Since(start)

	if err == nil {
		r.observe(c.Topic, "success", latency)
		if ackErr := r.q.ack(ctx, c.ID); ackErr != nil {
			log.WithError(ackErr).Warn("outbox: ack failed")
		}
		return true
	}

	r.observe(c.Topic, "failure", latency)
	lastErr := truncateError(err, r.opts.LastErrorMaxLen)
	next := time.Now().Add(backoff(c.Attempts, r.opts.MaxBackoff) + jitter(r.opts.Rand, r.opts.JitterMax))
	if c.Attempts >= r.opts.MaxAttempts {
		r.m.deadTotal.WithLabelValues(r.tableLabel, c.Topic).Inc()
		log.WithError(err).Error("outbox: message ran out of attempts")
		next = time.Now()
	} else {
		log.WithError(err).Warn("outbox: dispatch failed")
	}
	if nackErr := r.q.nack(ctx, c.ID, lastErr, next); nackErr != nil {
		log.WithError(nackErr).Warn("outbox: nack failed")
	}
	return false
}

func (r *Relay) observe(topic, result string, latency time.Duration) {
	r.m.dispatchTotal.WithLabelValues(r.tableLabel, topic, result).Inc()
	r.m.dispatchLatency.WithLabelValues(r.tableLabel, topic, result).Observe(latency.Seconds())
}

func advisoryLockKey(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int64(h.Sum64())
}

type pgQueue struct {
	db    *pgxpool.Pool
	table pgx.Identifier
}

func (q *pgQueue) claim(ctx context.Context, now, lockCutoff time.Time, maxAttempts, limit int) ([]claimed, error) {
	tx, err := q.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tableName := q.table.Sanitize()
	rows, err := tx.Query(ctx, fmt.Sprintf(
		`SELECT id, topic, payload, event_id, sequence, attempts
		   FROM %s
		  WHERE published_at IS NULL
		    AND available_at <= $1
		    AND attempts < $2
		    AND (locked_at IS NULL OR locked_at < $3)
		  ORDER BY available_at, sequence
		  LIMIT $4
		  FOR UPDATE SKIP LOCKED`,
		tableName,
	), now, maxAttempts, lockCutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("outbox claim select: %w", err)
	}

	var items []claimed
	var ids []uuid.UUID
	for rows.Next() {
		var c claimed
		if err := rows.Scan(&c.ID, &c.Topic, &c.Payload, &c.EventID, &c.Sequence, &c.Attempts); err != nil {
			rows.Close()
			return nil, fmt.Errorf("outbox claim scan: %w", err)
		}
		c.Attempts++
		items = append(items, c)
		ids = append(ids, c.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("outbox claim rows: %w", err)
	}

	if len(ids) > 0 {
		update := fmt.Sprintf(`UPDATE %s SET locked_at = $1, attempts = attempts + 1 WHERE id = ANY($2)`, tableName)
		if _, err := tx.Exec(ctx, update, now, pgtype.FlatArray[uuid.UUID](ids)); err != nil {
			return nil, fmt.Errorf("outbox claim update: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *pgQueue) ack(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET published_at = now(), locked_at = NULL, last_error = NULL
		  WHERE id = $1 AND published_at IS NULL`,
		q.table.Sanitize(),
	), id)
	if err != nil {
		return fmt.Errorf("outbox ack: %w", err)
	}
	return nil
}

func (q *pgQueue) nack(ctx context.Context, id uuid.UUID, lastError string, next time.Time) error {
	_, err := q.db.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET locked_at = NULL, last_error = $2, available_at = $3
		  WHERE id = $1 AND published_at IS NULL`,
		q.table.Sanitize(),
	), id, lastError, next)
	if err != nil {
		return fmt.Errorf("outbox nack: %w", err)
	}
	return nil
}
