package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type line struct {
	product  string
	category string
	qty      int
	price    float64
}

var lines = []line{
	{"Linen Shirt", "Men", 2, 1500},
	{"Maxi Dress", "Women", 1, 3200},
	{"Chinos", "Men", 1, 2800},
}

func TestMapFilterSum(t *testing.T) {
	names := Map(lines, func(l line) string { return l.product })
	assert.Equal(t, []string{"Linen Shirt", "Maxi Dress", "Chinos"}, names)

	men := Filter(lines, func(l line) bool { return l.category == "Men" })
	assert.Len(t, men, 2)

	assert.Equal(t, 4, Sum(lines, func(l line) int { return l.qty }))
	assert.InDelta(t, 9000.0, Sum(lines, func(l line) float64 { return float64(l.qty) * l.price }), 0.001)
}

func TestGroupAndKey(t *testing.T) {
	grouped := GroupBy(lines, func(l line) string { return l.category })
	assert.Len(t, grouped["Men"], 2)
	assert.Len(t, grouped["Women"], 1)

	byName := KeyBy(lines, func(l line) string { return l.product })
	assert.Equal(t, 3200.0, byName["Maxi Dress"].price)
}

func TestFirstContainsUnique(t *testing.T) {
	l, ok := First(lines, func(l line) bool { return l.price > 3000 })
	assert.True(t, ok)
	assert.Equal(t, "Maxi Dress", l.product)

	assert.False(t, Contains(lines, func(l line) bool { return l.category == "Children" }))
	assert.Equal(t, []uint{3, 1, 2}, Unique([]uint{3, 1, 3, 2, 1}))
}

func TestSortTakeChunk(t *testing.T) {
	s := append([]line(nil), lines...)
	SortBy(s, func(a, b line) bool { return a.price > b.price })
	assert.Equal(t, "Maxi Dress", s[0].product)

	assert.Len(t, Take(s, 2), 2)
	assert.Len(t, Take(s, 10), 3)
	assert.Equal(t, [][]int{{1, 2}, {3}}, Chunk([]int{1, 2, 3}, 2))
	assert.Nil(t, Chunk([]int{1}, 0))
}
