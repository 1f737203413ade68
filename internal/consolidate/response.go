package consolidate

import (
	"math"
	"sort"
	"strings"

	"github.com/skald-run/skald/internal/model"
)

// buildResponse assembles the response element for one object's rows. An
// address-datatype object (rows named "address-<field>") collapses to a
// single claim whose fact is a field map; any other object emits one
// ranked claim per row, most confident first.
func buildResponse(objectName string, rows []model.ConsolidationRow) model.ConsolidatedObject {
	if isAddressObject(rows) {
		return buildAddressResponse(rows)
	}
	return buildClaimsResponse(objectName, rows)
}

// isAddressObject reports whether rows came from an address explosion: its
// rows are all named with the "address-" field-name convention produced by
// the normalizer for address claims.
func isAddressObject(rows []model.ConsolidationRow) bool {
	if len(rows) == 0 {
		return false
	}
	return strings.HasPrefix(rows[0].Object, "address-")
}

func buildClaimsResponse(objectName string, rows []model.ConsolidationRow) model.ConsolidatedObject {
	claims := make([]model.ConsolidatedClaim, len(rows))
	sourceByClaim := make([]string, len(rows))
	for i, r := range rows {
		claims[i] = model.ConsolidatedClaim{
			Object:     objectName,
			Fact:       r.Fact,
			Confidence: round3(r.FactConfidence),
		}
		sourceByClaim[i] = r.Source
	}

	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return rows[order[i]].FactConfidence > rows[order[j]].FactConfidence
	})

	out := model.ConsolidatedObject{Name: objectName, Claims: make([]model.ResponseClaim, len(rows))}
	for pos, idx := range order {
		out.Claims[pos] = model.ResponseClaim{
			Fact:       claims[idx].Fact,
			Confidence: claims[idx].Confidence,
			SourceID:   sourceByClaim[idx],
		}
	}
	return out
}

// buildAddressResponse groups rows by field name, keeps the top-confidence
// fact per field, and averages the per-field top confidences.
func buildAddressResponse(rows []model.ConsolidationRow) model.ConsolidatedObject {
	type fieldBest struct {
		value      string
		confidence float64
	}
	best := make(map[string]fieldBest)
	var fieldOrder []string

	for _, r := range rows {
		field := fieldName(r.Object)
		cur, ok := best[field]
		if !ok {
			fieldOrder = append(fieldOrder, field)
		}
		if !ok || r.FactConfidence > cur.confidence {
			best[field] = fieldBest{value: r.Fact.String(), confidence: r.FactConfidence}
		}
	}

	fields := make(map[string]string, len(fieldOrder))
	sum := 0.0
	for _, f := range fieldOrder {
		fields[f] = best[f].value
		sum += best[f].confidence
	}
	avg := 0.0
	if len(fieldOrder) > 0 {
		avg = sum / float64(len(fieldOrder))
	}

	return model.ConsolidatedObject{
		Name: "address",
		Claims: []model.ResponseClaim{
			{Fact: fields, Confidence: round3(avg)},
		},
	}
}

// fieldName strips the "address-" prefix a normalizer-produced address row
// carries (everything up to the last "-"), returning just the field name
// ("street", "city", ...).
func fieldName(rowObject string) string {
	idx := strings.LastIndex(rowObject, "-")
	if idx < 0 {
		return rowObject
	}
	return rowObject[idx+1:]
}

func round3(v float64) float64 {
	return math.Round(v*confidenceRounding) / confidenceRounding
}
