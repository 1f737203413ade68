// Package reputation implements the multinomial-Dirichlet reputation model:
// a per-source rating distribution over k discrete quality levels, updated
// from per-run feedback and projected to a scalar point estimate.
package reputation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skald-run/skald/internal/model"
)

const epsilon = 1e-9

// Reputation computes and persists source reputation state for a fixed
// number of levels k, with a-priori constant C and longevity factor lf.
type Reputation struct {
	k      int
	c      float64
	lf     float64
	a      []float64
	pv     []float64
	store  Store
	logger *slog.Logger
}

// Option configures a Reputation at construction time.
type Option func(*Reputation)

// WithPriorConstant overrides the default a-priori constant C (defaults to k).
func WithPriorConstant(c float64) Option {
	return func(r *Reputation) { r.c = c }
}

// New builds a Reputation backed by the given Store. lf must be in (0,1].
func New(k int, lf float64, store Store, logger *slog.Logger, opts ...Option) (*Reputation, error) {
	if k < 2 {
		return nil, fmt.Errorf("reputation: k must be >= 2, got %d", k)
	}
	if lf <= 0 || lf > 1 {
		return nil, fmt.Errorf("reputation: lf must be in (0,1], got %f", lf)
	}
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	a := make([]float64, k)
	pv := make([]float64, k)
	for i := 0; i < k; i++ {
		a[i] = 1.0 / float64(k)
		pv[i] = float64(i) / float64(k-1)
	}

	r := &Reputation{k: k, c: float64(k), lf: lf, a: a, pv: pv, store: store, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// K returns the configured number of reputation levels.
func (r *Reputation) K() int { return r.k }

// LongevityFactor returns the configured longevity decay factor.
func (r *Reputation) LongevityFactor() float64 { return r.lf }

// DefaultRecord returns the record assigned to a source on first observation:
// uniform probabilities, zero ratings, and the corresponding point estimate.
func (r *Reputation) DefaultRecord(sourceID string) model.SourceRecord {
	probs := make([]float64, r.k)
	copy(probs, r.a)
	return model.SourceRecord{
		SourceID:      sourceID,
		Reputation:    r.pointEstimate(probs),
		Probabilities: probs,
		Ratings:       make([]float64, r.k),
	}
}

// GetReputation returns a source's current reputation, clamped to
// [epsilon, 1-epsilon] so it is safe to feed into TruthFinder. Stateful
// stores create the record on first observation.
func (r *Reputation) GetReputation(ctx context.Context, sourceID string) (float64, error) {
	rec, err := r.store.FindOrCreate(ctx, sourceID, r.DefaultRecord(sourceID))
	if err != nil {
		return 0, fmt.Errorf("reputation: get reputation for %q: %w", sourceID, err)
	}
	return clamp(rec.Reputation, epsilon, 1-epsilon), nil
}

// GetSource returns a source's full record, failing if it has never been
// observed.
func (r *Reputation) GetSource(ctx context.Context, sourceID string) (model.SourceRecord, error) {
	rec, err := r.store.Get(ctx, sourceID)
	if err != nil {
		return model.SourceRecord{}, fmt.Errorf("reputation: get source %q: %w", sourceID, err)
	}
	return rec, nil
}

// manyGetter is implemented by stores that can resolve a batch of sourceIds
// more efficiently than one-at-a-time (e.g. PostgresStore, fanning the reads
// out concurrently via errgroup).
type manyGetter interface {
	GetManySources(ctx context.Context, sourceIDs []string) ([]model.SourceRecord, error)
}

// GetSources resolves a batch of sourceIds, skipping any that have never
// been observed. When the backing store supports a batched read, it is
// used directly; otherwise records are fetched one at a time. This is a
// read-only warm, so it never disturbs the sequential write ordering
// UpdateReputation relies on.
func (r *Reputation) GetSources(ctx context.Context, sourceIDs []string) ([]model.SourceRecord, error) {
	if mg, ok := r.store.(manyGetter); ok {
		recs, err := mg.GetManySources(ctx, sourceIDs)
		if err != nil {
			return nil, fmt.Errorf("reputation: get sources: %w", err)
		}
		return recs, nil
	}

	out := make([]model.SourceRecord, 0, len(sourceIDs))
	for _, id := range sourceIDs {
		rec, err := r.store.Get(ctx, id)
		if err != nil {
			if err == model.ErrNotFound {
				continue
			}
			return nil, fmt.Errorf("reputation: get source %q: %w", id, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// UpdateReputation folds a one-hot rating into a source's record: applies
// longevity decay, adds the rating, recomputes the probability vector and
// point estimate, and persists the result.
func (r *Reputation) UpdateReputation(ctx context.Context, rating model.Rating) (model.SourceRecord, error) {
	if len(rating.Vector) != r.k {
		return model.SourceRecord{}, fmt.Errorf("%w: expected length %d, got %d", model.ErrInvalidRating, r.k, len(rating.Vector))
	}

	rec, err := r.store.FindOrCreate(ctx, rating.SourceID, r.DefaultRecord(rating.SourceID))
	if err != nil {
		return model.SourceRecord{}, fmt.Errorf("reputation: update reputation for %q: %w", rating.SourceID, err)
	}

	newRatings := make([]float64, r.k)
	for i := 0; i < r.k; i++ {
		base := rec.Ratings[i]
		if r.lf < 1 {
			base *= r.lf
		}
		newRatings[i] = base + rating.Vector[i]
	}

	sum := 0.0
	for _, v := range newRatings {
		sum += v
	}

	probs := make([]float64, r.k)
	for i := 0; i < r.k; i++ {
		probs[i] = (newRatings[i] + r.c*r.a[i]) / (r.c + sum)
	}

	updated := model.SourceRecord{
		SourceID:      rating.SourceID,
		Reputation:    r.pointEstimate(probs),
		Probabilities: probs,
		Ratings:       newRatings,
	}

	if err := r.store.Update(ctx, updated); err != nil {
		return model.SourceRecord{}, fmt.Errorf("reputation: persist %q: %w", rating.SourceID, err)
	}

	r.logger.Debug("reputation updated", "source_id", rating.SourceID, "rating", rating.Vector, "point_estimate", updated.Reputation)
	return updated, nil
}

// ClearReputation drops all stored records.
func (r *Reputation) ClearReputation(ctx context.Context) error {
	if err := r.store.Clear(ctx); err != nil {
		return fmt.Errorf("reputation: clear: %w", err)
	}
	return nil
}

// pointEstimate projects a probability vector onto the level vector pv.
func (r *Reputation) pointEstimate(probs []float64) float64 {
	sum := 0.0
	for i, p := range probs {
		sum += p * r.pv[i]
	}
	return sum
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
