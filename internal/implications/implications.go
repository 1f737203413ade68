// Package implications provides the datatype-specific functions that score
// how much one fact's correctness supports another's. Each function maps a
// pair of facts to a signed value in [-1, 1].
package implications

import (
	"math"

	"github.com/skald-run/skald/internal/model"
	"github.com/xrash/smetrics"
)

// For dispatches to the implication function for datatype d, returning the
// degree to which f2's correctness supports f1. Unrecognized datatypes
// contribute 0, matching the TruthFinder related-fact step's fallback.
func For(d model.Datatype, f1, f2 model.Fact) float64 {
	switch d {
	case model.DatatypeContinuous:
		return Continuous(f1, f2)
	case model.DatatypeString:
		return String(f1, f2)
	case model.DatatypeCategorical, model.DatatypeBoolean:
		return Categorical(f1, f2)
	default:
		return 0
	}
}

// Categorical returns +1 if f1 and f2 are equal, else -1. Boolean facts are
// routed through this same function.
func Categorical(f1, f2 model.Fact) float64 {
	if f1.Equal(f2) {
		return 1
	}
	return -1
}

// String returns 2*JaroWinkler(f1,f2) - 1. The prefix weight is the standard
// 0.1 (fixed inside smetrics) with the usual boost threshold 0.7 and prefix
// cap 4.
func String(f1, f2 model.Fact) float64 {
	sim := smetrics.JaroWinkler(f1.String(), f2.String(), 0.7, 4)
	return 2*sim - 1
}

// Continuous treats f1 and f2 as one-dimensional points and returns
// 1 - 2*d/m where d = |f1-f2| and m = max(f1,f2). Returns +1 when both
// values are zero (the m==0 edge case), and clamps to [-1,1] otherwise.
func Continuous(f1, f2 model.Fact) float64 {
	v1, v2 := f1.Number(), f2.Number()
	m := math.Max(v1, v2)
	if m == 0 {
		return 1
	}
	d := math.Abs(v1 - v2)
	result := 1 - 2*d/m
	if result > 1 {
		return 1
	}
	if result < -1 {
		return -1
	}
	return result
}
