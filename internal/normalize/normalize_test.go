package normalize_test

import (
	"testing"

	"github.com/skald-run/skald/internal/model"
	"github.com/skald-run/skald/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarPassthrough(t *testing.T) {
	obj := model.InputObject{
		Name:     "price",
		Datatype: model.DatatypeContinuous,
		Claims: []model.InputClaim{
			{SourceID: "S1", Fact: 100.0},
		},
	}
	rows, err := normalize.Object(obj)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "price", rows[0].Object)
	assert.Equal(t, 100.0, rows[0].Fact.Number())
}

func TestListStringExplosion(t *testing.T) {
	obj := model.InputObject{
		Name:     "tags",
		Datatype: model.DatatypeListString,
		Claims: []model.InputClaim{
			{SourceID: "S1", Fact: []any{"a", "b", "c"}},
		},
	}
	rows, err := normalize.Object(obj)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Equal(t, model.DatatypeString, r.Datatype)
	}
}

func TestAddressExplosionSkipsNullFields(t *testing.T) {
	obj := model.InputObject{
		Name:     "hq",
		Datatype: model.DatatypeAddress,
		Claims: []model.InputClaim{
			{SourceID: "S1", Fact: map[string]any{
				"street":  "1 A",
				"city":    "X",
				"country": nil,
			}},
		},
	}
	rows, err := normalize.Object(obj)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	names := map[string]bool{}
	for _, r := range rows {
		names[r.Object] = true
		assert.Equal(t, model.DatatypeString, r.Datatype)
	}
	assert.True(t, names["address-street"])
	assert.True(t, names["address-city"])
}

func TestInvalidScalarTypeIsRejected(t *testing.T) {
	obj := model.InputObject{
		Name:     "price",
		Datatype: model.DatatypeContinuous,
		Claims: []model.InputClaim{
			{SourceID: "S1", Fact: "not-a-number"},
		},
	}
	_, err := normalize.Object(obj)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
