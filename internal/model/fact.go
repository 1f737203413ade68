// Package model holds the shared data types that flow between the
// normalization, consolidation, and reputation layers.
package model

import (
	"encoding/json"
	"fmt"
)

// Datatype identifies how a Fact's value should be compared and scored.
type Datatype string

const (
	DatatypeContinuous  Datatype = "continuous"
	DatatypeString      Datatype = "string"
	DatatypeCategorical Datatype = "categorical"
	DatatypeBoolean     Datatype = "boolean"

	// Composite input datatypes. ClaimNormalizer explodes these into rows of
	// one of the base datatypes above; they never appear on a ConsolidationRow.
	DatatypeListString      Datatype = "list-string"
	DatatypeListCategorical Datatype = "list-categorical"
	DatatypeAddress         Datatype = "address"
)

// Fact is a tagged scalar value: a number, a string, or a boolean.
// It is compared by value-equality within a single object's rows.
type Fact struct {
	kind FactKind
	num  float64
	str  string
	bl   bool
}

// FactKind identifies which field of a Fact holds the value.
type FactKind int

const (
	FactKindInvalid FactKind = iota
	FactKindNumber
	FactKindString
	FactKindBool
)

// NumberFact builds a numeric Fact.
func NumberFact(v float64) Fact { return Fact{kind: FactKindNumber, num: v} }

// StringFact builds a string Fact.
func StringFact(v string) Fact { return Fact{kind: FactKindString, str: v} }

// BoolFact builds a boolean Fact.
func BoolFact(v bool) Fact { return Fact{kind: FactKindBool, bl: v} }

// Kind reports which concrete type the Fact holds.
func (f Fact) Kind() FactKind { return f.kind }

// Number returns the numeric value, coercing bools to 1/0. String and
// invalid facts yield 0.
func (f Fact) Number() float64 {
	switch f.kind {
	case FactKindNumber:
		return f.num
	case FactKindBool:
		if f.bl {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// String returns a string representation of the Fact, used for string and
// categorical comparisons and for JSON emission of non-numeric facts.
func (f Fact) String() string {
	switch f.kind {
	case FactKindString:
		return f.str
	case FactKindBool:
		if f.bl {
			return "true"
		}
		return "false"
	case FactKindNumber:
		return trimFloat(f.num)
	default:
		return ""
	}
}

// Bool returns the boolean value, coercing numbers/strings if needed.
func (f Fact) Bool() bool {
	switch f.kind {
	case FactKindBool:
		return f.bl
	case FactKindNumber:
		return f.num != 0
	case FactKindString:
		return f.str == "true"
	default:
		return false
	}
}

// Equal reports whether two facts carry the same value. Facts of different
// kinds are never equal (a string "100" and a number 100 are not equal —
// comparisons are only meaningful within rows sharing a datatype).
func (f Fact) Equal(other Fact) bool {
	if f.kind != other.kind {
		return false
	}
	switch f.kind {
	case FactKindNumber:
		return f.num == other.num
	case FactKindString:
		return f.str == other.str
	case FactKindBool:
		return f.bl == other.bl
	default:
		return false
	}
}

// MarshalJSON emits the Fact as its natural JSON scalar.
func (f Fact) MarshalJSON() ([]byte, error) {
	switch f.kind {
	case FactKindNumber:
		return json.Marshal(f.num)
	case FactKindString:
		return json.Marshal(f.str)
	case FactKindBool:
		return json.Marshal(f.bl)
	default:
		return json.Marshal(nil)
	}
}

// UnmarshalJSON accepts a JSON number, string, or boolean.
func (f *Fact) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		*f = NumberFact(v)
	case string:
		*f = StringFact(v)
	case bool:
		*f = BoolFact(v)
	case nil:
		*f = Fact{}
	default:
		return fmt.Errorf("model: fact has unsupported JSON type %T", raw)
	}
	return nil
}

// trimFloat formats a float without a trailing ".0" ambiguity for integral
// values, matching how the original system rendered continuous facts.
func trimFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}
