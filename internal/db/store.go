package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/QTest-hq/jjsast/internal/persist"
)

// Schema creates the snapshot table
const Schema = `
CREATE TABLE IF NOT EXISTS program_snapshots (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	source_revision TEXT,
	schema_version INTEGER NOT NULL,
	closed_world BOOLEAN NOT NULL DEFAULT FALSE,
	type_count INTEGER NOT NULL DEFAULT 0,
	method_count INTEGER NOT NULL DEFAULT 0,
	payload JSONB NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_program_snapshots_name_created
	ON program_snapshots(name, created_at DESC);
`

// ErrNotFound is returned when deleting a snapshot that does not exist
var ErrNotFound = errors.New("snapshot not found")

// Store provides snapshot persistence
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a store over db
func NewStore(db *DB) *Store {
	return &Store{pool: db.Pool()}
}

// Ping verifies database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate creates the schema if it is missing
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// SnapshotInfo describes a stored snapshot without its payload
type SnapshotInfo struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	SourceRevision *string   `json:"source_revision,omitempty"`
	SchemaVersion  int       `json:"schema_version"`
	ClosedWorld    bool      `json:"closed_world"`
	TypeCount      int       `json:"type_count"`
	MethodCount    int       `json:"method_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewSnapshotInfo summarizes snap. A missing or malformed snapshot ID is
// replaced by a fresh one.
func NewSnapshotInfo(snap *persist.Snapshot) SnapshotInfo {
	id, err := uuid.Parse(snap.ID)
	if err != nil {
		id = uuid.New()
	}
	info := SnapshotInfo{
		ID:            id,
		Name:          snap.Name,
		SchemaVersion: snap.SchemaVersion,
		ClosedWorld:   snap.ClosedWorld,
		TypeCount:     len(snap.Types),
		MethodCount:   len(snap.Methods),
		CreatedAt:     snap.CreatedAt,
	}
	if snap.SourceRevision != "" {
		rev := snap.SourceRevision
		info.SourceRevision = &rev
	}
	if info.CreatedAt.IsZero() {
		info.CreatedAt = time.Now().UTC()
	}
	return info
}

// SaveSnapshot stores snap, replacing any snapshot with the same ID
func (s *Store) SaveSnapshot(ctx context.Context, snap *persist.Snapshot) (*SnapshotInfo, error) {
	info := NewSnapshotInfo(snap)
	snap.ID = info.ID.String()

	payload, err := persist.EncodeJSON(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO program_snapshots (id, name, source_revision, schema_version, closed_world,
		                               type_count, method_count, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			source_revision = EXCLUDED.source_revision,
			schema_version = EXCLUDED.schema_version,
			closed_world = EXCLUDED.closed_world,
			type_count = EXCLUDED.type_count,
			method_count = EXCLUDED.method_count,
			payload = EXCLUDED.payload
	`, info.ID, info.Name, info.SourceRevision, info.SchemaVersion, info.ClosedWorld,
		info.TypeCount, info.MethodCount, json.RawMessage(payload), info.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	log.Debug().
		Str("snapshot_id", info.ID.String()).
		Str("name", info.Name).
		Int("methods", info.MethodCount).
		Int("bytes", len(payload)).
		Msg("snapshot saved")

	return &info, nil
}

// GetSnapshot loads a snapshot by ID; nil when absent
func (s *Store) GetSnapshot(ctx context.Context, id uuid.UUID) (*persist.Snapshot, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `
		SELECT payload FROM program_snapshots WHERE id = $1
	`, id).Scan(&payload)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return persist.DecodeJSON(payload)
}

// LatestSnapshot loads the newest snapshot called name, or the newest of all
// when name is empty; nil when none exists
func (s *Store) LatestSnapshot(ctx context.Context, name string) (*persist.Snapshot, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `
		SELECT payload FROM program_snapshots
		WHERE $1 = '' OR name = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, name).Scan(&payload)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	return persist.DecodeJSON(payload)
}

// ListSnapshots lists snapshot metadata, newest first. An empty name lists all.
func (s *Store) ListSnapshots(ctx context.Context, name string, limit, offset int) ([]SnapshotInfo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, source_revision, schema_version, closed_world, type_count, method_count, created_at
		FROM program_snapshots
		WHERE $1 = '' OR name = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, name, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	infos := make([]SnapshotInfo, 0)
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.SourceRevision, &info.SchemaVersion,
			&info.ClosedWorld, &info.TypeCount, &info.MethodCount, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	return infos, nil
}

// DeleteSnapshot removes a snapshot
func (s *Store) DeleteSnapshot(ctx context.Context, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM program_snapshots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}
