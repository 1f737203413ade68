package model

// AddressFact is the wire shape of an address-datatype claim's fact: a
// record of named optional fields. Nil fields are skipped by the normalizer.
type AddressFact struct {
	Street     *string `json:"street,omitempty"`
	Suburb     *string `json:"suburb,omitempty"`
	Province   *string `json:"province,omitempty"`
	City       *string `json:"city,omitempty"`
	District   *string `json:"district,omitempty"`
	State      *string `json:"state,omitempty"`
	PostalCode *string `json:"postalCode,omitempty"`
	Country    *string `json:"country,omitempty"`
}

// Fields returns the address's non-nil fields in a stable order.
func (a AddressFact) Fields() []AddressField {
	candidates := []struct {
		name string
		val  *string
	}{
		{"street", a.Street},
		{"suburb", a.Suburb},
		{"province", a.Province},
		{"city", a.City},
		{"district", a.District},
		{"state", a.State},
		{"postalCode", a.PostalCode},
		{"country", a.Country},
	}
	fields := make([]AddressField, 0, len(candidates))
	for _, c := range candidates {
		if c.val != nil {
			fields = append(fields, AddressField{Name: c.name, Value: *c.val})
		}
	}
	return fields
}

// AddressField is one non-null field of an AddressFact.
type AddressField struct {
	Name  string
	Value string
}

// InputClaim is a single wire-level claim for a named object: a sourceId
// plus a raw fact whose shape depends on the object's declared datatype.
type InputClaim struct {
	SourceID string `json:"sourceId"`
	Fact     any    `json:"fact"`
}

// InputObject is the wire shape of one object's claims, as it appears in
// the ConsolidateRequest.Objects slice before normalization.
type InputObject struct {
	Name     string       `json:"name"`
	Datatype Datatype     `json:"datatype"`
	Claims   []InputClaim `json:"claims"`
}

// InputSource is the wire shape of a caller-supplied source record, used in
// stateless mode.
type InputSource struct {
	SourceID      string    `json:"sourceId"`
	Reputation    float64   `json:"reputation"`
	Probabilities []float64 `json:"probabilities"`
	Ratings       []float64 `json:"ratings"`
}

// ConsolidateRequest is the body of POST /consolidate.
type ConsolidateRequest struct {
	Objects []InputObject  `json:"objects"`
	Sources []InputSource  `json:"sources,omitempty"`
}

// ResponseClaim is one ranked fact in a ConsolidatedObject's claims list.
// Fact is a Fact for a normal object, or a map[string]string of field name
// to value for an address object's single claim.
type ResponseClaim struct {
	Fact       any     `json:"fact"`
	Confidence float64 `json:"confidence"`
	SourceID   string  `json:"sourceId,omitempty"`
}

// ConsolidatedObject is one entry of ConsolidateResponse.Objects: either a
// normal object (name + ranked claims) or an address object (name="address",
// a single claim whose fact is a field map).
type ConsolidatedObject struct {
	Name   string          `json:"name"`
	Claims []ResponseClaim `json:"claims"`
}

// ConsolidateResponse is the body returned by POST /consolidate.
type ConsolidateResponse struct {
	Timestamp string               `json:"timestamp"`
	Objects   []ConsolidatedObject `json:"objects"`
	Sources   []InputSource        `json:"sources"`
}

// ClearResponse is the body returned by GET /clear.
type ClearResponse struct {
	Success int `json:"success"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
	Stateful bool  `json:"stateful"`
}

// APIResponse wraps a successful handler payload with request metadata.
type APIResponse struct {
	Data any          `json:"data"`
	Meta ResponseMeta `json:"meta"`
}

// APIError wraps a failed handler response with request metadata.
type APIError struct {
	Error ErrorDetail  `json:"error"`
	Meta  ResponseMeta `json:"meta"`
}

// ResponseMeta carries request-correlation fields attached to every response.
type ResponseMeta struct {
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
}

// ErrorDetail is the machine-readable body of an APIError.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
