// Package truthfinder implements the fixed-point iteration that jointly
// estimates per-fact confidence and per-source trustworthiness over a
// single object's claim table.
package truthfinder

import (
	"log/slog"
	"math"

	"github.com/skald-run/skald/internal/implications"
	"github.com/skald-run/skald/internal/model"
)

const clampEpsilon = 1e-9

// TruthFinder runs the confidence/trustworthiness fixed-point computation
// described by a dampening factor and a related-fact influence weight.
type TruthFinder struct {
	dampening        float64
	influenceRelated float64
	logger           *slog.Logger
}

// New builds a TruthFinder with the given dampening factor (rho) and
// related-fact influence weight (gamma). A nil logger disables logging.
func New(dampening, influenceRelated float64, logger *slog.Logger) *TruthFinder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TruthFinder{dampening: dampening, influenceRelated: influenceRelated, logger: logger}
}

// Run mutates rows in place, performing up to maxIterations passes of the
// confidence<->trustworthiness fixed point, stopping early when the cosine
// distance between successive per-source trustworthiness vectors falls
// below threshold. Confidence scoring (steps A and B) is computed
// independently per distinct Object value, so a table carrying several
// objects (an exploded address, one per field) never leaks confidence
// between them; only the trustworthiness update aggregates across the
// whole table.
func (tf *TruthFinder) Run(rows []model.ConsolidationRow, maxIterations int, threshold float64) {
	if len(rows) == 0 {
		return
	}
	for i := range rows {
		t := rows[i].Trustworthiness
		rows[i].Trustworthiness = clamp(t, clampEpsilon, 1-clampEpsilon)
	}

	for iter := 0; iter < maxIterations; iter++ {
		prev := sourceTrustworthinessVector(rows)
		tf.iteration(rows)
		cur := sourceTrustworthinessVector(rows)

		change := cosineChange(prev, cur)
		tf.logger.Debug("truthfinder iteration", "iteration", iter+1, "cosine_change", change)
		if change < threshold {
			break
		}
	}
}

// iteration performs one pass: confidence-from-trustworthiness, the
// related-fact adjustment, the sigmoid squash, then trustworthiness-from-
// confidence.
func (tf *TruthFinder) iteration(rows []model.ConsolidationRow) {
	tf.updateFactConfidence(rows)
	tf.updateSourceTrustworthiness(rows)
}

// updateFactConfidence runs steps A and B independently for each distinct
// object in the table, then applies the sigmoid squash (step C) to every row.
func (tf *TruthFinder) updateFactConfidence(rows []model.ConsolidationRow) {
	for _, group := range objectGroups(rows) {
		tf.confidenceScore(rows, group)
		tf.adjustedConfidenceScore(rows, group)
	}
	tf.squash(rows)
}

// objectGroups returns row indices grouped by Object value, in first-seen
// order.
func objectGroups(rows []model.ConsolidationRow) [][]int {
	var order []string
	groups := make(map[string][]int)
	for i, r := range rows {
		if _, ok := groups[r.Object]; !ok {
			order = append(order, r.Object)
		}
		groups[r.Object] = append(groups[r.Object], i)
	}
	out := make([][]int, len(order))
	for i, o := range order {
		out[i] = groups[o]
	}
	return out
}

// confidenceScore implements step A for one object's rows (identified by
// idx): for each row, sum -log(1-trustworthiness) over every row of the
// same object (including itself) sharing the same fact value.
func (tf *TruthFinder) confidenceScore(rows []model.ConsolidationRow, idx []int) {
	scores := make([]float64, len(idx))
	for n, i := range idx {
		var sum float64
		for _, j := range idx {
			if !rows[i].Fact.Equal(rows[j].Fact) {
				continue
			}
			t := clamp(rows[j].Trustworthiness, clampEpsilon, 1-clampEpsilon)
			sum += -math.Log(1 - t)
		}
		scores[n] = sum
	}
	for n, i := range idx {
		rows[i].FactConfidence = scores[n]
	}
}

// adjustedConfidenceScore implements step B for one object's rows: for each
// distinct fact f1, add influence_related * sum(confidence(f2) *
// implication(f2,f1)) over every other distinct fact f2 present on the same
// object. All adjustments are computed against a snapshot of the
// pre-adjustment confidences so iteration order does not matter.
func (tf *TruthFinder) adjustedConfidenceScore(rows []model.ConsolidationRow, idx []int) {
	type distinctFact struct {
		fact       model.Fact
		datatype   model.Datatype
		confidence float64
	}

	var distinct []distinctFact
	seen := func(f model.Fact) (int, bool) {
		for i, d := range distinct {
			if d.fact.Equal(f) {
				return i, true
			}
		}
		return -1, false
	}
	for _, i := range idx {
		if _, ok := seen(rows[i].Fact); ok {
			continue
		}
		distinct = append(distinct, distinctFact{fact: rows[i].Fact, datatype: rows[i].Datatype, confidence: rows[i].FactConfidence})
	}

	adjusted := make([]float64, len(distinct))
	for i, f1 := range distinct {
		sum := 0.0
		for j, f2 := range distinct {
			if i == j {
				continue
			}
			sum += f2.confidence * implications.For(f1.datatype, f2.fact, f1.fact)
		}
		adjusted[i] = f1.confidence + tf.influenceRelated*sum
	}

	for _, i := range idx {
		pos, _ := seen(rows[i].Fact)
		rows[i].FactConfidence = adjusted[pos]
	}
}

// squash implements step C: replace every row's fact_confidence with
// sigmoid(dampening * fact_confidence).
func (tf *TruthFinder) squash(rows []model.ConsolidationRow) {
	for i := range rows {
		rows[i].FactConfidence = sigmoid(tf.dampening * rows[i].FactConfidence)
	}
}

// updateSourceTrustworthiness implements step D: each source's new
// trustworthiness is the arithmetic mean of fact_confidence over its rows.
func (tf *TruthFinder) updateSourceTrustworthiness(rows []model.ConsolidationRow) {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range rows {
		sums[r.Source] += r.FactConfidence
		counts[r.Source]++
	}
	for i := range rows {
		mean := sums[rows[i].Source] / float64(counts[rows[i].Source])
		rows[i].Trustworthiness = clamp(mean, clampEpsilon, 1-clampEpsilon)
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
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

// sourceTrustworthinessVector returns one trustworthiness value per distinct
// source, in first-seen order, for use in the cosine convergence check.
func sourceTrustworthinessVector(rows []model.ConsolidationRow) []float64 {
	var order []string
	seen := make(map[string]bool)
	values := make(map[string]float64)
	for _, r := range rows {
		if !seen[r.Source] {
			seen[r.Source] = true
			order = append(order, r.Source)
		}
		values[r.Source] = r.Trustworthiness
	}
	out := make([]float64, len(order))
	for i, s := range order {
		out[i] = values[s]
	}
	return out
}

// cosineChange returns 1 - cosine-similarity(a,b), the convergence metric
// used to decide early exit. A zero-norm vector yields maximal change.
func cosineChange(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return 1 - cos
}
