package consolidate_test

import (
	"context"
	"math"
	"testing"

	"github.com/skald-run/skald/internal/consolidate"
	"github.com/skald-run/skald/internal/model"
	"github.com/skald-run/skald/internal/normalize"
	"github.com/skald-run/skald/internal/reputation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReputation(t *testing.T, k int, seed map[string]model.SourceRecord) *reputation.Reputation {
	t.Helper()
	var records []model.SourceRecord
	for _, rec := range seed {
		records = append(records, rec)
	}
	store := reputation.SeedMemoryStore(records)
	rep, err := reputation.New(k, 1, store, nil)
	require.NoError(t, err)
	return rep
}

func TestConsolidateSingleSourceTwoAgreeingClaims(t *testing.T) {
	rep := newReputation(t, 10, map[string]model.SourceRecord{
		"S1": {SourceID: "S1", Reputation: 0.5, Probabilities: uniform(10), Ratings: make([]float64, 10)},
	})

	claims := []model.Claim{
		{SourceID: "S1", Object: "price", Datatype: model.DatatypeContinuous, Fact: model.NumberFact(100)},
		{SourceID: "S1", Object: "price", Datatype: model.DatatypeContinuous, Fact: model.NumberFact(100)},
	}

	c := consolidate.New(10, 0.1, 0.8, nil)
	obj, err := c.Consolidate(context.Background(), rep, claims)
	require.NoError(t, err)

	assert.Equal(t, "price", obj.Name)
	require.Len(t, obj.Claims, 2)
	assert.Equal(t, "S1", obj.Claims[0].SourceID)
	fact, ok := obj.Claims[0].Fact.(model.Fact)
	require.True(t, ok)
	assert.Equal(t, 100.0, fact.Number())
}

func TestConsolidateTwoSourcesDisagreeCategoricalRanksByConfidence(t *testing.T) {
	rep := newReputation(t, 10, map[string]model.SourceRecord{
		"S1": {SourceID: "S1", Reputation: 0.9, Probabilities: uniform(10), Ratings: make([]float64, 10)},
		"S2": {SourceID: "S2", Reputation: 0.1, Probabilities: uniform(10), Ratings: make([]float64, 10)},
	})

	claims := []model.Claim{
		{SourceID: "S1", Object: "color", Datatype: model.DatatypeCategorical, Fact: model.StringFact("red")},
		{SourceID: "S2", Object: "color", Datatype: model.DatatypeCategorical, Fact: model.StringFact("blue")},
	}

	c := consolidate.New(10, 0.1, 0.8, nil)
	obj, err := c.Consolidate(context.Background(), rep, claims)
	require.NoError(t, err)

	require.Len(t, obj.Claims, 2)
	first := obj.Claims[0].Fact.(model.Fact)
	assert.Equal(t, "red", first.String())
}

func TestConsolidateAddressObject(t *testing.T) {
	rep := newReputation(t, 10, nil)

	obj := model.InputObject{
		Name:     "hq",
		Datatype: model.DatatypeAddress,
		Claims: []model.InputClaim{
			{SourceID: "S1", Fact: map[string]any{
				"street":  "1 A",
				"city":    "X",
				"country": nil,
			}},
		},
	}
	claims, err := normalize.Object(obj)
	require.NoError(t, err)
	require.Len(t, claims, 2)

	c := consolidate.New(10, 0.1, 0.8, nil)
	result, err := c.Consolidate(context.Background(), rep, claims)
	require.NoError(t, err)

	assert.Equal(t, "address", result.Name)
	require.Len(t, result.Claims, 1)
	fields, ok := result.Claims[0].Fact.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "1 A", fields["street"])
	assert.Equal(t, "X", fields["city"])

	// Each field is scored in isolation: one row at default reputation 0.5
	// gives sigmoid(0.1 * -log(1-0.5)) per field, and the address confidence
	// is the mean of the per-field tops. A different value here means one
	// field's fact leaked influence into the other's score.
	perField := 1 / (1 + math.Exp(-0.1*math.Log(2)))
	expected := math.Round(perField*1000) / 1000
	assert.InDelta(t, expected, result.Claims[0].Confidence, 1e-9)
}

func TestConsolidateRejectsEmptyObject(t *testing.T) {
	rep := newReputation(t, 10, nil)
	c := consolidate.New(10, 0.1, 0.8, nil)
	_, err := c.Consolidate(context.Background(), rep, nil)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func uniform(k int) []float64 {
	out := make([]float64, k)
	for i := range out {
		out[i] = 1.0 / float64(k)
	}
	return out
}
