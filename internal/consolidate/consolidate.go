// Package consolidate implements the per-object pipeline: validate the
// flattened claim rows, run TruthFinder over them, derive one-hot ratings
// from the result, fold those ratings back into reputation, and build the
// response element for the object.
package consolidate

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/skald-run/skald/internal/model"
	"github.com/skald-run/skald/internal/reputation"
	"github.com/skald-run/skald/internal/truthfinder"
)

var tracer = otel.Tracer("skald/consolidate")

const (
	defaultMaxIterations = 1
	defaultThreshold     = 1e-4
	confidenceRounding   = 1000 // 3 decimal places
)

// Consolidator runs the per-object pipeline described above.
type Consolidator struct {
	k             int
	tf            *truthfinder.TruthFinder
	maxIterations int
	threshold     float64
	logger        *slog.Logger
}

// New builds a Consolidator for the given reputation level count k, with
// the TruthFinder dampening factor (rho) and related-fact influence (gamma).
func New(k int, dampening, influence float64, logger *slog.Logger) *Consolidator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Consolidator{
		k:             k,
		tf:            truthfinder.New(dampening, influence, logger),
		maxIterations: defaultMaxIterations,
		threshold:     defaultThreshold,
		logger:        logger,
	}
}

// Consolidate validates claims, runs TruthFinder, derives and folds ratings
// into rep, and returns the object's response element. claims must all
// share the same Object field, except for an address batch, whose rows must
// all carry an "address-<field>" Object (the caller, normally the workload
// manager, is responsible for grouping by object before calling this).
func (c *Consolidator) Consolidate(ctx context.Context, rep *reputation.Reputation, claims []model.Claim) (model.ConsolidatedObject, error) {
	if len(claims) == 0 {
		return model.ConsolidatedObject{}, fmt.Errorf("%w: object has no claims", model.ErrInvalidInput)
	}
	if err := validateClaims(claims); err != nil {
		return model.ConsolidatedObject{}, err
	}

	ctx, span := tracer.Start(ctx, "consolidate.object",
		trace.WithAttributes(
			attribute.String("object", claims[0].Object),
			attribute.Int("rows", len(claims)),
		),
	)
	defer span.End()

	rows, err := c.buildTable(ctx, rep, claims)
	if err != nil {
		return model.ConsolidatedObject{}, err
	}

	c.tf.Run(rows, c.maxIterations, c.threshold)

	if err := c.applyRatings(ctx, rep, rows); err != nil {
		return model.ConsolidatedObject{}, err
	}

	return buildResponse(claims[0].Object, rows), nil
}

func validateClaims(claims []model.Claim) error {
	// Address explosions deliberately emit one row per field, each named
	// "address-<field>", so the same-object check does not apply to them.
	address := strings.HasPrefix(claims[0].Object, "address-")
	object := claims[0].Object
	for _, c := range claims {
		if c.SourceID == "" {
			return fmt.Errorf("%w: claim missing sourceId", model.ErrInvalidInput)
		}
		if address {
			if !strings.HasPrefix(c.Object, "address-") {
				return fmt.Errorf("%w: mixed address and non-address rows in one batch", model.ErrInvalidInput)
			}
		} else if c.Object != object {
			return fmt.Errorf("%w: mixed objects %q and %q in one batch", model.ErrInvalidInput, object, c.Object)
		}
		if c.Fact.Kind() == model.FactKindInvalid {
			return fmt.Errorf("%w: claim from %q has no fact value", model.ErrInvalidInput, c.SourceID)
		}
	}
	return nil
}

// buildTable attaches trustworthiness (seeded from reputation) and zeroed
// fact_confidence to each claim.
func (c *Consolidator) buildTable(ctx context.Context, rep *reputation.Reputation, claims []model.Claim) ([]model.ConsolidationRow, error) {
	rows := make([]model.ConsolidationRow, len(claims))
	trust := make(map[string]float64)
	for i, claim := range claims {
		t, ok := trust[claim.SourceID]
		if !ok {
			var err error
			t, err = rep.GetReputation(ctx, claim.SourceID)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", model.ErrStore, err)
			}
			trust[claim.SourceID] = t
		}
		rows[i] = model.ConsolidationRow{
			Source:          claim.SourceID,
			Fact:            claim.Fact,
			Object:          claim.Object,
			Datatype:        claim.Datatype,
			Trustworthiness: t,
			FactConfidence:  0,
		}
	}
	return rows, nil
}

// applyRatings derives a one-hot rating per row from its final
// fact_confidence and folds each into reputation sequentially, in row
// order. A source appearing on N rows for this object produces N separate
// ratings.
func (c *Consolidator) applyRatings(ctx context.Context, rep *reputation.Reputation, rows []model.ConsolidationRow) error {
	// Do not begin persisting this object's ratings on a request that has
	// already been cancelled.
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, row := range rows {
		vector := oneHotRating(row.FactConfidence, c.k)
		c.logger.Debug("derived rating", "source_id", row.Source, "fact_confidence", row.FactConfidence, "rating", vector)

		if _, err := rep.UpdateReputation(ctx, model.Rating{SourceID: row.Source, Vector: vector}); err != nil {
			c.logger.Warn("failed to update reputation", "source_id", row.Source, "error", err)
			return fmt.Errorf("%w: %s", model.ErrStore, err)
		}
	}
	return nil
}

// oneHotRating maps a confidence in [0,1] to a one-hot vector of length k
// whose hot index is min(k-1, floor(confidence*k)).
func oneHotRating(confidence float64, k int) []float64 {
	idx := int(math.Floor(confidence * float64(k)))
	if idx > k-1 {
		idx = k - 1
	}
	if idx < 0 {
		idx = 0
	}
	vector := make([]float64, k)
	vector[idx] = 1
	return vector
}
