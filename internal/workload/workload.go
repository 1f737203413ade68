// Package workload implements the WorkloadManager: request-level
// orchestration across objects, including intentional shuffling of object
// order, per-object consolidation, merging of updated source records, and
// final response assembly.
package workload

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/skald-run/skald/internal/consolidate"
	"github.com/skald-run/skald/internal/model"
	"github.com/skald-run/skald/internal/normalize"
	"github.com/skald-run/skald/internal/reputation"
)

// Manager runs a full consolidation request: it normalizes each object's
// claims, shuffles object order, consolidates each object in turn, and
// assembles the response envelope.
type Manager struct {
	consolidator *consolidate.Consolidator
	reputation   *reputation.Reputation
	stateful     bool
	logger       *slog.Logger
}

// New builds a Manager. When stateful is false, Run requires a non-empty
// sources list on every request and operates against a fresh, request-
// scoped in-memory store seeded from it.
func New(consolidator *consolidate.Consolidator, rep *reputation.Reputation, stateful bool, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{consolidator: consolidator, reputation: rep, stateful: stateful, logger: logger}
}

// Run executes one request: see package doc.
func (m *Manager) Run(ctx context.Context, objects []model.InputObject, sources []model.InputSource) (model.ConsolidateResponse, error) {
	rep := m.reputation
	var seeded *reputation.MemoryStore

	if !m.stateful {
		if sources == nil {
			return model.ConsolidateResponse{}, fmt.Errorf("%w: stateless mode requires source information", model.ErrInvalidInput)
		}
		var err error
		rep, seeded, err = m.statelessReputation(sources)
		if err != nil {
			return model.ConsolidateResponse{}, err
		}
		if err := validateReferencedSources(objects, seeded); err != nil {
			return model.ConsolidateResponse{}, err
		}
	}

	shuffled := make([]model.InputObject, len(objects))
	copy(shuffled, objects)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	consolidated := make([]model.ConsolidatedObject, 0, len(shuffled))
	for _, obj := range shuffled {
		claims, err := normalize.Object(obj)
		if err != nil {
			return model.ConsolidateResponse{}, err
		}
		if len(claims) == 0 {
			continue
		}

		result, err := m.consolidator.Consolidate(ctx, rep, claims)
		if err != nil {
			return model.ConsolidateResponse{}, fmt.Errorf("object %q: %w", obj.Name, err)
		}
		consolidated = append(consolidated, result)
	}

	respSources, err := m.resolveSources(ctx, seeded, objects)
	if err != nil {
		return model.ConsolidateResponse{}, err
	}

	resp := model.ConsolidateResponse{
		Timestamp: nowISO8601(),
		Objects:   consolidated,
		Sources:   respSources,
	}

	if _, err := json.Marshal(resp); err != nil {
		m.logger.Error("response failed json serializability check", "error", err)
		return model.ConsolidateResponse{}, fmt.Errorf("workload: response is not JSON-serializable: %w", err)
	}

	return resp, nil
}

// Clear drops all stored reputation data (stateful mode only).
func (m *Manager) Clear(ctx context.Context) error {
	if !m.stateful {
		return nil
	}
	return m.reputation.ClearReputation(ctx)
}

// validateReferencedSources ensures every sourceId referenced by a claim in
// a stateless request appears in the caller-supplied sources list. This
// runs before any object is consolidated so a rejected request never
// mutates the (request-scoped) reputation store.
func validateReferencedSources(objects []model.InputObject, seeded *reputation.MemoryStore) error {
	for _, obj := range objects {
		for _, c := range obj.Claims {
			if !seeded.Has(c.SourceID) {
				return fmt.Errorf("%w: sourceId %q referenced by object %q has no matching entry in sources", model.ErrInvalidSource, c.SourceID, obj.Name)
			}
		}
	}
	return nil
}

// statelessReputation builds a request-scoped Reputation bound to a fresh
// MemoryStore seeded from the caller-supplied sources.
func (m *Manager) statelessReputation(sources []model.InputSource) (*reputation.Reputation, *reputation.MemoryStore, error) {
	k := m.reputation.K()
	records := make([]model.SourceRecord, 0, len(sources))
	for _, s := range sources {
		if len(s.Probabilities) != k || len(s.Ratings) != k {
			return nil, nil, fmt.Errorf("%w: source %q has vectors of the wrong length", model.ErrInvalidSource, s.SourceID)
		}
		records = append(records, model.SourceRecord{
			SourceID:      s.SourceID,
			Reputation:    s.Reputation,
			Probabilities: s.Probabilities,
			Ratings:       s.Ratings,
		})
	}
	store := reputation.SeedMemoryStore(records)
	rep, err := reputation.New(k, m.reputation.LongevityFactor(), store, m.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("workload: %w", err)
	}
	return rep, store, nil
}

// resolveSources assembles the response's sources list: stateless mode
// reads back every record in its scratch store (all supplied sources, as
// updated during this request); stateful mode fetches the full SourceRecord for every sourceId
// referenced by the request's claims.
func (m *Manager) resolveSources(ctx context.Context, seeded *reputation.MemoryStore, objects []model.InputObject) ([]model.InputSource, error) {
	if !m.stateful {
		recs := seeded.All()
		out := make([]model.InputSource, len(recs))
		for i, r := range recs {
			out[i] = model.InputSource{SourceID: r.SourceID, Reputation: r.Reputation, Probabilities: r.Probabilities, Ratings: r.Ratings}
		}
		return out, nil
	}

	seen := make(map[string]bool)
	var order []string
	for _, obj := range objects {
		for _, c := range obj.Claims {
			if !seen[c.SourceID] {
				seen[c.SourceID] = true
				order = append(order, c.SourceID)
			}
		}
	}

	recs, err := m.reputation.GetSources(ctx, order)
	if err != nil {
		m.logger.Warn("failed to resolve sources for response", "error", err)
		return nil, fmt.Errorf("%w: %s", model.ErrStore, err)
	}

	out := make([]model.InputSource, len(recs))
	for i, rec := range recs {
		out[i] = model.InputSource{SourceID: rec.SourceID, Reputation: rec.Reputation, Probabilities: rec.Probabilities, Ratings: rec.Ratings}
	}
	return out, nil
}

// nowISO8601 is a package variable so tests can substitute a fixed clock.
var nowISO8601 = func() string {
	return time.Now().Format("2006-01-02T15:04:05-07:00")
}
