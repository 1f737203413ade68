package truthfinder_test

import (
	"testing"

	"github.com/skald-run/skald/internal/model"
	"github.com/skald-run/skald/internal/truthfinder"
	"github.com/stretchr/testify/assert"
)

func TestSingleSourceTwoAgreeingClaims(t *testing.T) {
	rows := []model.ConsolidationRow{
		{Source: "S1", Fact: model.NumberFact(100), Object: "price", Datatype: model.DatatypeContinuous, Trustworthiness: 0.5},
		{Source: "S1", Fact: model.NumberFact(100), Object: "price", Datatype: model.DatatypeContinuous, Trustworthiness: 0.5},
	}
	tf := truthfinder.New(0.1, 0.8, nil)
	tf.Run(rows, 1, 1e-4)

	assert.InDelta(t, rows[0].FactConfidence, rows[1].FactConfidence, 1e-9)
}

func TestTwoSourcesDisagreeCategorical(t *testing.T) {
	rows := []model.ConsolidationRow{
		{Source: "S1", Fact: model.StringFact("red"), Object: "color", Datatype: model.DatatypeCategorical, Trustworthiness: 0.9},
		{Source: "S2", Fact: model.StringFact("blue"), Object: "color", Datatype: model.DatatypeCategorical, Trustworthiness: 0.1},
	}
	tf := truthfinder.New(0.1, 0.8, nil)
	tf.Run(rows, 1, 1e-4)

	assert.Greater(t, rows[0].FactConfidence, rows[1].FactConfidence)
}

func TestSingleSourceIdempotenceIsMonotoneInTrustworthiness(t *testing.T) {
	low := []model.ConsolidationRow{
		{Source: "S1", Fact: model.NumberFact(1), Object: "x", Datatype: model.DatatypeContinuous, Trustworthiness: 0.2},
	}
	high := []model.ConsolidationRow{
		{Source: "S1", Fact: model.NumberFact(1), Object: "x", Datatype: model.DatatypeContinuous, Trustworthiness: 0.8},
	}
	tf := truthfinder.New(0.1, 0.8, nil)
	tf.Run(low, 1, 1e-4)
	tf.Run(high, 1, 1e-4)

	assert.Less(t, low[0].FactConfidence, high[0].FactConfidence)
}

func TestRunEmptyRowsDoesNotPanic(t *testing.T) {
	tf := truthfinder.New(0.1, 0.8, nil)
	assert.NotPanics(t, func() {
		tf.Run(nil, 1, 1e-4)
	})
}

func TestObjectsAreScoredIndependently(t *testing.T) {
	solo := []model.ConsolidationRow{
		{Source: "S1", Fact: model.StringFact("1 A"), Object: "address-street", Datatype: model.DatatypeString, Trustworthiness: 0.5},
	}
	mixed := []model.ConsolidationRow{
		{Source: "S1", Fact: model.StringFact("1 A"), Object: "address-street", Datatype: model.DatatypeString, Trustworthiness: 0.5},
		{Source: "S1", Fact: model.StringFact("X"), Object: "address-city", Datatype: model.DatatypeString, Trustworthiness: 0.5},
	}
	tf := truthfinder.New(0.1, 0.8, nil)
	tf.Run(solo, 1, 1e-4)
	tf.Run(mixed, 1, 1e-4)

	// The city row shares the table but not the object, so it must not
	// contribute related-fact influence to the street row's confidence.
	assert.InDelta(t, solo[0].FactConfidence, mixed[0].FactConfidence, 1e-12)
}

func TestMultipleIterationsKeepConfidencesInUnitInterval(t *testing.T) {
	rows := []model.ConsolidationRow{
		{Source: "S1", Fact: model.StringFact("red"), Object: "color", Datatype: model.DatatypeCategorical, Trustworthiness: 0.9},
		{Source: "S2", Fact: model.StringFact("blue"), Object: "color", Datatype: model.DatatypeCategorical, Trustworthiness: 0.4},
		{Source: "S3", Fact: model.StringFact("red"), Object: "color", Datatype: model.DatatypeCategorical, Trustworthiness: 0.6},
	}
	tf := truthfinder.New(0.1, 0.8, nil)
	tf.Run(rows, 50, 1e-12)

	for _, r := range rows {
		assert.Greater(t, r.FactConfidence, 0.0)
		assert.Less(t, r.FactConfidence, 1.0)
	}
	assert.Greater(t, rows[0].FactConfidence, rows[1].FactConfidence)
}

func TestLooseThresholdStopsAfterFirstIteration(t *testing.T) {
	mk := func() []model.ConsolidationRow {
		return []model.ConsolidationRow{
			{Source: "S1", Fact: model.StringFact("red"), Object: "color", Datatype: model.DatatypeCategorical, Trustworthiness: 0.9},
			{Source: "S2", Fact: model.StringFact("blue"), Object: "color", Datatype: model.DatatypeCategorical, Trustworthiness: 0.1},
		}
	}
	tf := truthfinder.New(0.1, 0.8, nil)

	one := mk()
	tf.Run(one, 1, 1e-4)
	many := mk()
	tf.Run(many, 50, 0.99)

	for i := range one {
		assert.InDelta(t, one[i].FactConfidence, many[i].FactConfidence, 1e-12)
		assert.InDelta(t, one[i].Trustworthiness, many[i].Trustworthiness, 1e-12)
	}
}

func TestRunClampsBoundaryTrustworthiness(t *testing.T) {
	rows := []model.ConsolidationRow{
		{Source: "S1", Fact: model.NumberFact(1), Object: "x", Datatype: model.DatatypeContinuous, Trustworthiness: 1.0},
		{Source: "S2", Fact: model.NumberFact(2), Object: "x", Datatype: model.DatatypeContinuous, Trustworthiness: 0.0},
	}
	tf := truthfinder.New(0.1, 0.8, nil)
	assert.NotPanics(t, func() {
		tf.Run(rows, 1, 1e-4)
	})
}
