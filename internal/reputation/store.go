package reputation

import (
	"context"

	"github.com/skald-run/skald/internal/model"
)

// Store is the persistence abstraction for source reputation records.
// Implementations must provide atomic find-or-create semantics: on a miss,
// the supplied default record is both persisted and returned in one
// operation, so concurrent first-touches on the same sourceId never race
// into divergent defaults.
type Store interface {
	// FindOrCreate returns the stored record for sourceID, creating it
	// from def if absent.
	FindOrCreate(ctx context.Context, sourceID string, def model.SourceRecord) (model.SourceRecord, error)
	// Get returns the stored record for sourceID, failing with
	// model.ErrNotFound if it has never been observed.
	Get(ctx context.Context, sourceID string) (model.SourceRecord, error)
	// Update persists rec, overwriting any existing record for its SourceID.
	Update(ctx context.Context, rec model.SourceRecord) error
	// Clear drops every stored record.
	Clear(ctx context.Context) error
}
