package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/holoocg/holo-server-go/internal/game"
	"github.com/holoocg/holo-server-go/internal/game/rules"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const createEventLogTable = `
CREATE TABLE IF NOT EXISTS match_events (
	match_id   TEXT        NOT NULL,
	seq        INTEGER     NOT NULL,
	record_id  UUID        NOT NULL,
	category   TEXT        NOT NULL,
	kind       TEXT        NOT NULL,
	payload    JSONB       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (match_id, seq)
)`

const insertEvent = `
INSERT INTO match_events (match_id, seq, record_id, category, kind, payload)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (match_id, seq) DO NOTHING`

const selectEvents = `
SELECT payload FROM match_events WHERE match_id = $1 ORDER BY seq`

// Querier is the subset of pgxpool.Pool used by the repository.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// EventLogRepository stores the resolved-event log of every match. It
// implements game.EventSink.
type EventLogRepository struct {
	db     Querier
	logger *zap.Logger
}

// NewEventLogRepository creates a repository over db.
func NewEventLogRepository(db Querier, logger *zap.Logger) *EventLogRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventLogRepository{db: db, logger: logger}
}

// EnsureSchema creates the event table when missing.
func (r *EventLogRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createEventLogTable); err != nil {
		return fmt.Errorf("failed to create match_events: %w", err)
	}
	return nil
}

// Append inserts records in one batch. Records already stored under the
// same sequence number are skipped.
func (r *EventLogRepository) Append(ctx context.Context, matchID string, records []game.EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch, err := buildInsertBatch(matchID, records)
	if err != nil {
		return err
	}

	results := r.db.SendBatch(ctx, batch)
	for _, rec := range records {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert event %d of match %s: %w", rec.Seq, matchID, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	r.logger.Debug("appended match events",
		zap.String("match_id", matchID),
		zap.Int("first_seq", records[0].Seq),
		zap.Int("count", len(records)))
	return nil
}

// AppendEvents implements game.EventSink.
func (r *EventLogRepository) AppendEvents(ctx context.Context, matchID string, firstSeq int, events []rules.Event) error {
	return r.Append(ctx, matchID, game.NewEventRecords(matchID, firstSeq, events))
}

// Load returns the stored records of a match in sequence order.
func (r *EventLogRepository) Load(ctx context.Context, matchID string) ([]game.EventRecord, error) {
	rows, err := r.db.Query(ctx, selectEvents, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events of match %s: %w", matchID, err)
	}
	defer rows.Close()

	var records []game.EventRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		var rec game.EventRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode event: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events of match %s: %w", matchID, err)
	}
	return records, nil
}

func buildInsertBatch(matchID string, records []game.EventRecord) (*pgx.Batch, error) {
	batch := &pgx.Batch{}
	for _, rec := range records {
		if rec.RecordID == "" {
			return nil, fmt.Errorf("event %d of match %s has no record id", rec.Seq, matchID)
		}
		payload, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to encode event %d: %w", rec.Seq, err)
		}
		batch.Queue(insertEvent, matchID, rec.Seq, rec.RecordID, rec.Category, rec.Kind, payload)
	}
	return batch, nil
}
