package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acmecommerce/shopflow/pkg/outbox"
)

// OutboxStore is the postgres side of the transactional outbox. Rows are
// written by the order repositories; the relay drains them through here.
type OutboxStore struct {
	pool *pgxpool.Pool
}

func NewOutboxStore(pool *pgxpool.Pool) *OutboxStore {
	return &OutboxStore{pool: pool}
}

// LockBatch claims up to batchSize pending events for relayID. SKIP LOCKED
// lets several relays poll the same table without blocking each other, and
// the lease lets a crashed relay's claim expire.
func (s *OutboxStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]outbox.Event, error) {
	rows, err := s.pool.Query(ctx, `
		UPDATE outbox SET status='in_progress', relay_id=$1, lease_until=now()+$2
		WHERE id IN (
			SELECT id FROM outbox
			WHERE status='pending' OR (status='in_progress' AND lease_until < now())
			ORDER BY id
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, aggregate_type, aggregate_id, type, payload, headers, traceparent, created_at, retry_count`,
		relayID, lease, batchSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []outbox.Event
	for rows.Next() {
		var e outbox.Event
		var headers []byte
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.Type,
			&e.Payload, &headers, &e.Traceparent, &e.CreatedAt, &e.RetryCount); err != nil {
			return nil, err
		}
		if len(headers) > 0 {
			if err := json.Unmarshal(headers, &e.Headers); err != nil {
				return nil, err
			}
		}
		e.Status = outbox.StatusInProgress
		e.RelayID = relayID
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *OutboxStore) MarkSent(ctx context.Context, ids []int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE outbox SET status='sent', lease_until=NULL WHERE id = ANY($1)`, ids)
	return err
}

// MarkFailed records the error and returns the event to the pending pool
// so a later tick retries it.
func (s *OutboxStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE outbox SET status='pending', relay_id=NULL, lease_until=NULL,
			retry_count=retry_count+1, last_error=$2
		WHERE id=$1`, id, errMsg)
	return err
}
