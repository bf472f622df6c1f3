package outbox

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeMC777/ordenes-ecom/internal/store"
)

// Writer appends events; bind it to the transaction that owns the state change.
type Writer struct{ db store.DBTX }

func NewWriter(db store.DBTX) *Writer { return &Writer{db: db} }

func (w *Writer) Enqueue(ctx context.Context, e Event) error {
	_, err := w.db.Exec(ctx, `
		INSERT INTO outbox_events (id, aggregate_id, event_type, payload, created_at)
		VALUES ($1,$2,$3,$4,NOW())
	`, e.ID, e.AggregateID, e.EventType, []byte(e.Payload))
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", e.EventType, err)
	}
	return nil
}

// PGSource hands out unpublished events under row locks so several relays can
// run against the same table.
type PGSource struct{ pool *pgxpool.Pool }

func NewPGSource(pool *pgxpool.Pool) *PGSource { return &PGSource{pool: pool} }

func (s *PGSource) Drain(ctx context.Context, limit int, fn func(context.Context, []Event) ([]string, error)) (int, error) {
	published := 0
	err := store.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id::text, aggregate_id, event_type, payload, created_at
			FROM outbox_events
			WHERE published_at IS NULL
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		`, limit)
		if err != nil {
			return fmt.Errorf("claim outbox events: %w", err)
		}
		events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Event, error) {
			var (
				e   Event
				raw []byte
			)
			err := row.Scan(&e.ID, &e.AggregateID, &e.EventType, &raw, &e.CreatedAt)
			e.Payload = raw
			return e, err
		})
		if err != nil {
			return fmt.Errorf("scan outbox events: %w", err)
		}
		if len(events) == 0 {
			return nil
		}

		ids, pubErr := fn(ctx, events)
		if len(ids) > 0 {
			if _, err := tx.Exec(ctx, `
				UPDATE outbox_events SET published_at = NOW() WHERE id::text = ANY($1)
			`, ids); err != nil {
				return fmt.Errorf("mark published: %w", err)
			}
			published = len(ids)
		}
		// Keep what was delivered even when part of the batch failed.
		if pubErr != nil && len(ids) == 0 {
			return pubErr
		}
		return nil
	})
	return published, err
}
