package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"veilpay/internal/event"
	"veilpay/pkg/platform/tx"
)

// Postgres persists the event log. Append joins the caller's transaction when
// one is in context, which is how event emission stays coupled to commit: the
// account mutation and the event row land in one transaction or neither does.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Append(ctx context.Context, ev *event.Event) error {
	q := tx.QuerierFrom(ctx, s.db)
	row := q.QueryRowContext(ctx, `
		INSERT INTO veilpay_events
			(id, kind, owner_commitment, commitment_hash, routing_tag, event_type, sender_bump, committed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq`,
		ev.ID, string(ev.Kind), ev.OwnerCommitment[:], ev.CommitmentHash[:], ev.RoutingTag[:],
		int16(ev.EventType), int16(ev.SenderBump), ev.Timestamp,
	)
	if err := row.Scan(&ev.Seq); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (s *Postgres) ListRecent(ctx context.Context, limit int) ([]*event.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := tx.QuerierFrom(ctx, s.db).QueryContext(ctx, `
		SELECT seq, id, kind, owner_commitment, commitment_hash, routing_tag, event_type, sender_bump, committed_at
		FROM veilpay_events
		ORDER BY seq DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *Postgres) Unpublished(ctx context.Context, limit int) ([]*event.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, kind, owner_commitment, commitment_hash, routing_tag, event_type, sender_bump, committed_at
		FROM veilpay_events
		WHERE published_at IS NULL
		ORDER BY seq ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unpublished events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *Postgres) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	if _, err := s.db.ExecContext(ctx, `
		UPDATE veilpay_events SET published_at = $1 WHERE id = ANY($2)`,
		time.Now().UTC(), pq.Array(raw),
	); err != nil {
		return fmt.Errorf("mark events published: %w", err)
	}
	return nil
}

func scanEvents(rows *sql.Rows) ([]*event.Event, error) {
	var out []*event.Event
	for rows.Next() {
		var ev event.Event
		var kind string
		var ownerCommitment, commit, tag []byte
		var eventType, senderBump int16
		if err := rows.Scan(&ev.Seq, &ev.ID, &kind, &ownerCommitment, &commit, &tag, &eventType, &senderBump, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = event.Kind(kind)
		copy(ev.OwnerCommitment[:], ownerCommitment)
		copy(ev.CommitmentHash[:], commit)
		copy(ev.RoutingTag[:], tag)
		ev.EventType = uint8(eventType)
		ev.SenderBump = uint8(senderBump)
		out = append(out, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}
