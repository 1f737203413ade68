package model

// Claim is a single (source, fact) assertion about a named object, as
// emitted by normalization from the wire-level InputClaim.
type Claim struct {
	SourceID string   `json:"sourceId"`
	Object   string   `json:"object"`
	Datatype Datatype `json:"datatype"`
	Fact     Fact     `json:"fact"`
}

// ConsolidationRow is one row of the table TruthFinder and the reputation
// layer operate on: a single source's claim about a single flattened fact,
// carrying the mutable trustworthiness/confidence state used across
// iterations.
type ConsolidationRow struct {
	Source           string
	Fact             Fact
	Object           string
	Datatype         Datatype
	Trustworthiness  float64
	FactConfidence   float64
}

// SourceRecord is a source's persisted reputation state: the raw rating
// counts R, the derived probability vector S, and the scalar point estimate.
type SourceRecord struct {
	SourceID      string    `json:"sourceId"`
	Reputation    float64   `json:"reputation"`
	Probabilities []float64 `json:"probabilities"`
	Ratings       []float64 `json:"ratings"`
}

// Rating is a one-hot vote derived from a row's final fact_confidence,
// ready to fold into a SourceRecord's Ratings via Reputation.UpdateReputation.
type Rating struct {
	SourceID string
	Vector   []float64
}

// ConsolidatedClaim is one resolved fact about an object in the response.
type ConsolidatedClaim struct {
	Object     string  `json:"object"`
	Fact       Fact    `json:"fact"`
	Confidence float64 `json:"confidence"`
}

