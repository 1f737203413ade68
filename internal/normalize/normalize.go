// Package normalize implements the ClaimNormalizer: it flattens a single
// object's heterogeneous claims (scalar, string, boolean, list, or address)
// into the uniform per-claim rows the consolidation pipeline expects.
package normalize

import (
	"encoding/json"
	"fmt"

	"github.com/skald-run/skald/internal/model"
)

// Object flattens one InputObject into zero or more model.Claim rows,
// following the per-datatype explosion table: scalar datatypes pass
// through unchanged, list datatypes emit one row per element, and address
// claims emit one row per non-null field, named "address-<field>".
func Object(obj model.InputObject) ([]model.Claim, error) {
	var claims []model.Claim

	for _, ic := range obj.Claims {
		rows, err := explode(obj.Name, obj.Datatype, ic)
		if err != nil {
			return nil, fmt.Errorf("%w: object %q, source %q: %s", model.ErrInvalidInput, obj.Name, ic.SourceID, err)
		}
		claims = append(claims, rows...)
	}

	return claims, nil
}

func explode(objectName string, datatype model.Datatype, ic model.InputClaim) ([]model.Claim, error) {
	switch datatype {
	case model.DatatypeContinuous, model.DatatypeBoolean, model.DatatypeString, model.DatatypeCategorical:
		fact, err := scalarFact(datatype, ic.Fact)
		if err != nil {
			return nil, err
		}
		return []model.Claim{{SourceID: ic.SourceID, Object: objectName, Datatype: datatype, Fact: fact}}, nil

	case model.DatatypeListString:
		return explodeList(objectName, model.DatatypeString, ic)

	case model.DatatypeListCategorical:
		return explodeList(objectName, model.DatatypeCategorical, ic)

	case model.DatatypeAddress:
		return explodeAddress(objectName, ic)

	default:
		return nil, fmt.Errorf("unrecognized datatype %q", datatype)
	}
}

func explodeList(objectName string, elementType model.Datatype, ic model.InputClaim) ([]model.Claim, error) {
	elems, ok := ic.Fact.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list fact, got %T", ic.Fact)
	}
	rows := make([]model.Claim, 0, len(elems))
	for _, e := range elems {
		fact, err := scalarFact(elementType, e)
		if err != nil {
			return nil, err
		}
		rows = append(rows, model.Claim{SourceID: ic.SourceID, Object: objectName, Datatype: elementType, Fact: fact})
	}
	return rows, nil
}

// explodeAddress emits one row per non-null address field, named
// "address-<field>" regardless of the caller's chosen object name. The
// fixed "address-" prefix, rather than the caller's objectName, is what
// the response builder keys off to recognize an address object; the
// caller's own name is only ever used for non-address objects.
func explodeAddress(_ string, ic model.InputClaim) ([]model.Claim, error) {
	addr, err := decodeAddress(ic.Fact)
	if err != nil {
		return nil, err
	}

	fields := addr.Fields()
	rows := make([]model.Claim, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, model.Claim{
			SourceID: ic.SourceID,
			Object:   "address-" + f.Name,
			Datatype: model.DatatypeString,
			Fact:     model.StringFact(f.Value),
		})
	}
	return rows, nil
}

// decodeAddress coerces a decoded JSON value into the named-field address
// record shape, rejecting non-record facts and non-string field values.
func decodeAddress(raw any) (model.AddressFact, error) {
	record, ok := raw.(map[string]any)
	if !ok {
		return model.AddressFact{}, fmt.Errorf("expected an address record fact, got %T", raw)
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return model.AddressFact{}, fmt.Errorf("address record is not encodable: %v", err)
	}
	var addr model.AddressFact
	if err := json.Unmarshal(payload, &addr); err != nil {
		return model.AddressFact{}, fmt.Errorf("malformed address record: %v", err)
	}
	return addr, nil
}

// scalarFact coerces a decoded JSON value into the model.Fact shape
// appropriate for datatype.
func scalarFact(datatype model.Datatype, raw any) (model.Fact, error) {
	switch datatype {
	case model.DatatypeContinuous:
		v, ok := raw.(float64)
		if !ok {
			return model.Fact{}, fmt.Errorf("expected a number fact, got %T", raw)
		}
		return model.NumberFact(v), nil
	case model.DatatypeBoolean:
		v, ok := raw.(bool)
		if !ok {
			return model.Fact{}, fmt.Errorf("expected a boolean fact, got %T", raw)
		}
		return model.BoolFact(v), nil
	case model.DatatypeString, model.DatatypeCategorical:
		v, ok := raw.(string)
		if !ok {
			return model.Fact{}, fmt.Errorf("expected a string fact, got %T", raw)
		}
		return model.StringFact(v), nil
	default:
		return model.Fact{}, fmt.Errorf("unrecognized scalar datatype %q", datatype)
	}
}
