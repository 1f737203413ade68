package reputation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skald-run/skald/internal/model"
	"golang.org/x/sync/errgroup"
)

// PostgresStore persists one JSONB document per source in a single table,
// matching the persistence layout of sourceId/reputation/probabilities/ratings.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing pool. The caller is responsible for
// running the embedded migrations before first use.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

type sourceDoc struct {
	Reputation    float64   `json:"reputation"`
	Probabilities []float64 `json:"probabilities"`
	Ratings       []float64 `json:"ratings"`
}

// FindOrCreate implements Store via an atomic INSERT ... ON CONFLICT DO
// NOTHING RETURNING, falling back to a plain SELECT when the insert loses
// the race to a concurrent first-touch.
func (s *PostgresStore) FindOrCreate(ctx context.Context, sourceID string, def model.SourceRecord) (model.SourceRecord, error) {
	doc := sourceDoc{Reputation: def.Reputation, Probabilities: def.Probabilities, Ratings: def.Ratings}
	payload, err := json.Marshal(doc)
	if err != nil {
		return model.SourceRecord{}, fmt.Errorf("reputation: marshal default record: %w", err)
	}

	var returned []byte
	row := s.pool.QueryRow(ctx, `
		INSERT INTO reputation_sources (source_id, document)
		VALUES ($1, $2)
		ON CONFLICT (source_id) DO NOTHING
		RETURNING document`, sourceID, payload)
	err = row.Scan(&returned)
	if err == nil {
		return decodeDoc(sourceID, returned)
	}
	if err != pgx.ErrNoRows {
		return model.SourceRecord{}, fmt.Errorf("reputation: insert %q: %w", sourceID, err)
	}

	return s.Get(ctx, sourceID)
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, sourceID string) (model.SourceRecord, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT document FROM reputation_sources WHERE source_id = $1`, sourceID).Scan(&raw)
	if err == pgx.ErrNoRows {
		return model.SourceRecord{}, model.ErrNotFound
	}
	if err != nil {
		return model.SourceRecord{}, fmt.Errorf("reputation: select %q: %w", sourceID, err)
	}
	return decodeDoc(sourceID, raw)
}

// Update implements Store.
func (s *PostgresStore) Update(ctx context.Context, rec model.SourceRecord) error {
	doc := sourceDoc{Reputation: rec.Reputation, Probabilities: rec.Probabilities, Ratings: rec.Ratings}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("reputation: marshal record for %q: %w", rec.SourceID, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO reputation_sources (source_id, document)
		VALUES ($1, $2)
		ON CONFLICT (source_id) DO UPDATE SET document = EXCLUDED.document`, rec.SourceID, payload)
	if err != nil {
		return fmt.Errorf("reputation: upsert %q: %w", rec.SourceID, err)
	}
	return nil
}

// Clear implements Store.
func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE TABLE reputation_sources`); err != nil {
		return fmt.Errorf("reputation: truncate: %w", err)
	}
	return nil
}

// GetManySources resolves multiple sourceIds concurrently, used to warm a
// batch consolidation run's response sources list without serializing reads
// that do not participate in the write-ordering invariant. Ids that have
// never been observed are skipped, not errors.
func (s *PostgresStore) GetManySources(ctx context.Context, sourceIDs []string) ([]model.SourceRecord, error) {
	results := make([]model.SourceRecord, len(sourceIDs))
	found := make([]bool, len(sourceIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range sourceIDs {
		g.Go(func() error {
			rec, err := s.Get(gctx, id)
			if errors.Is(err, model.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = rec
			found[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := results[:0]
	for i, rec := range results {
		if found[i] {
			out = append(out, rec)
		}
	}
	return out, nil
}

func decodeDoc(sourceID string, raw []byte) (model.SourceRecord, error) {
	var doc sourceDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return model.SourceRecord{}, fmt.Errorf("reputation: decode document for %q: %w", sourceID, err)
	}
	return model.SourceRecord{
		SourceID:      sourceID,
		Reputation:    doc.Reputation,
		Probabilities: doc.Probabilities,
		Ratings:       doc.Ratings,
	}, nil
}
