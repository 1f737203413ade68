package implications_test

import (
	"testing"

	"github.com/skald-run/skald/internal/implications"
	"github.com/skald-run/skald/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestCategorical(t *testing.T) {
	f := model.StringFact("red")
	assert.Equal(t, 1.0, implications.Categorical(f, f))
	assert.Equal(t, -1.0, implications.Categorical(f, model.StringFact("blue")))
}

func TestCategoricalBooleans(t *testing.T) {
	assert.Equal(t, 1.0, implications.Categorical(model.BoolFact(true), model.BoolFact(true)))
	assert.Equal(t, -1.0, implications.Categorical(model.BoolFact(true), model.BoolFact(false)))
}

func TestStringIdempotent(t *testing.T) {
	f := model.StringFact("consolidation")
	assert.InDelta(t, 1.0, implications.String(f, f), 1e-9)
}

func TestStringSymmetric(t *testing.T) {
	a := model.StringFact("kitten")
	b := model.StringFact("sitting")
	assert.InDelta(t, implications.String(a, b), implications.String(b, a), 1e-9)
}

func TestStringBounds(t *testing.T) {
	a := model.StringFact("abc")
	b := model.StringFact("xyz")
	v := implications.String(a, b)
	assert.GreaterOrEqual(t, v, -1.0)
	assert.LessOrEqual(t, v, 1.0)
}

func TestContinuousIdempotent(t *testing.T) {
	f := model.NumberFact(42)
	assert.Equal(t, 1.0, implications.Continuous(f, f))
}

func TestContinuousZero(t *testing.T) {
	z := model.NumberFact(0)
	assert.Equal(t, 1.0, implications.Continuous(z, z))
}

func TestContinuousBounds(t *testing.T) {
	cases := [][2]float64{
		{100, 50},
		{1, 1000},
		{0, 5},
		{5, 0},
	}
	for _, c := range cases {
		v := implications.Continuous(model.NumberFact(c[0]), model.NumberFact(c[1]))
		assert.GreaterOrEqual(t, v, -1.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestContinuousKnownValue(t *testing.T) {
	// m=100, d=50 -> 1 - 2*50/100 = 0
	v := implications.Continuous(model.NumberFact(100), model.NumberFact(50))
	assert.InDelta(t, 0.0, v, 1e-9)
}

func TestForUnrecognizedDatatype(t *testing.T) {
	v := implications.For(model.Datatype("unknown"), model.NumberFact(1), model.NumberFact(2))
	assert.Equal(t, 0.0, v)
}
