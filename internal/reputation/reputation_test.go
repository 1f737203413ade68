package reputation_test

import (
	"context"
	"testing"

	"github.com/skald-run/skald/internal/model"
	"github.com/skald-run/skald/internal/reputation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultReputationIsOneHalf(t *testing.T) {
	r, err := reputation.New(10, 1, nil, nil)
	require.NoError(t, err)

	got, err := r.GetReputation(context.Background(), "unseen")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got, 1e-9)
}

func TestUpdateReputationProbabilitiesSumToOne(t *testing.T) {
	r, err := reputation.New(4, 1, nil, nil)
	require.NoError(t, err)

	rec, err := r.UpdateReputation(context.Background(), model.Rating{SourceID: "s1", Vector: []float64{0, 0, 0, 1}})
	require.NoError(t, err)

	sum := 0.0
	for _, p := range rec.Probabilities {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.GreaterOrEqual(t, rec.Reputation, 0.0)
	assert.LessOrEqual(t, rec.Reputation, 1.0)
}

func TestLongevityDecay(t *testing.T) {
	r, err := reputation.New(4, 0.5, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	rating := model.Rating{SourceID: "s1", Vector: []float64{0, 0, 0, 1}}

	rec1, err := r.UpdateReputation(ctx, rating)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 1}, rec1.Ratings)

	rec2, err := r.UpdateReputation(ctx, rating)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0, 0, 1.5}, rec2.Ratings, 1e-9)
}

func TestProbabilitiesSumToOneAfterManyUpdates(t *testing.T) {
	r, err := reputation.New(5, 0.9, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		vector := make([]float64, 5)
		vector[i%5] = 1
		rec, err := r.UpdateReputation(ctx, model.Rating{SourceID: "s1", Vector: vector})
		require.NoError(t, err)

		sum := 0.0
		for _, p := range rec.Probabilities {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
		assert.GreaterOrEqual(t, rec.Reputation, 0.0)
		assert.LessOrEqual(t, rec.Reputation, 1.0)
		for _, v := range rec.Ratings {
			assert.GreaterOrEqual(t, v, 0.0)
		}
	}
}

func TestUpdateReputationRejectsWrongLength(t *testing.T) {
	r, err := reputation.New(4, 1, nil, nil)
	require.NoError(t, err)

	_, err = r.UpdateReputation(context.Background(), model.Rating{SourceID: "s1", Vector: []float64{1, 0}})
	assert.ErrorIs(t, err, model.ErrInvalidRating)
}

func TestGetSourceFailsWhenAbsent(t *testing.T) {
	r, err := reputation.New(4, 1, nil, nil)
	require.NoError(t, err)

	_, err = r.GetSource(context.Background(), "ghost")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestClearReputationThenReseed(t *testing.T) {
	r, err := reputation.New(4, 1, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = r.UpdateReputation(ctx, model.Rating{SourceID: "s1", Vector: []float64{0, 0, 0, 1}})
	require.NoError(t, err)

	require.NoError(t, r.ClearReputation(ctx))

	got, err := r.GetReputation(ctx, "s1")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got, 1e-9)
}

func TestGetSourcesFallsBackToSequentialReadsAndSkipsUnknown(t *testing.T) {
	r, err := reputation.New(4, 1, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = r.UpdateReputation(ctx, model.Rating{SourceID: "s1", Vector: []float64{0, 0, 0, 1}})
	require.NoError(t, err)
	_, err = r.UpdateReputation(ctx, model.Rating{SourceID: "s2", Vector: []float64{1, 0, 0, 0}})
	require.NoError(t, err)

	recs, err := r.GetSources(ctx, []string{"s1", "ghost", "s2"})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	ids := map[string]bool{}
	for _, rec := range recs {
		ids[rec.SourceID] = true
	}
	assert.True(t, ids["s1"])
	assert.True(t, ids["s2"])
}

func TestNewRejectsInvalidK(t *testing.T) {
	_, err := reputation.New(1, 1, nil, nil)
	assert.Error(t, err)
}

func TestNewRejectsInvalidLF(t *testing.T) {
	_, err := reputation.New(4, 0, nil, nil)
	assert.Error(t, err)

	_, err = reputation.New(4, 1.5, nil, nil)
	assert.Error(t, err)
}
