package resource

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID    uint
	Name  string
	Price float64
}

var itemResource Transformer[item] = func(i item) Map {
	return Map{"id": i.ID, "name": i.Name}
}

func TestOneAndMany(t *testing.T) {
	assert.Equal(t, Map{"id": uint(1), "name": "Scarf"}, One(itemResource, item{ID: 1, Name: "Scarf", Price: 900}))

	out := Many(itemResource, []item{{ID: 1}, {ID: 2}})
	assert.Len(t, out, 2)
}

func TestManyEncodesEmptyAsArray(t *testing.T) {
	raw, err := json.Marshal(Many(itemResource, nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestMergeDoesNotMutate(t *testing.T) {
	base := Map{"a": 1}
	merged := Merge(base, Map{"b": 2, "a": 3})
	assert.Equal(t, Map{"a": 3, "b": 2}, merged)
	assert.Equal(t, Map{"a": 1}, base)
}
