package stats

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil)
	assert.Equal(t, NoResult, s.MinPrice)
	assert.Equal(t, NoResult, s.MeanPrice)
	assert.Equal(t, NoResult, s.StdDevPrice)
	assert.Equal(t, NoResult, s.MinPricePerSqm)
	assert.True(t, s.Empty())
}

func TestCompute_Single(t *testing.T) {
	s := Compute([]Pair{{Price: 450000, Area: 90}})
	assert.Equal(t, 450000.0, s.MinPrice)
	assert.Equal(t, 450000.0, s.MeanPrice)
	assert.Equal(t, 0.0, s.StdDevPrice)
	assert.Equal(t, 5000.0, s.MinPricePerSqm)
	assert.Equal(t, 1, s.Count)
	assert.False(t, s.Empty())
}

func TestCompute_TwoPairs(t *testing.T) {
	s := Compute([]Pair{
		{Price: 520000, Area: 82},
		{Price: 480000, Area: 80},
	})
	assert.Equal(t, 480000.0, s.MinPrice)
	assert.Equal(t, 500000.0, s.MeanPrice)
	assert.InDelta(t, 28284.27, s.StdDevPrice, 0.01)
	assert.Equal(t, 6000.0, s.MinPricePerSqm)
}

func TestCompute_ResaleSampleMatches(t *testing.T) {
	s := Compute([]Pair{
		{Price: 520000, Area: 82},
		{Price: 700000, Area: 95},
		{Price: 480000, Area: 80},
	})
	assert.Equal(t, 480000.0, s.MinPrice)
	assert.InDelta(t, 566666.67, s.MeanPrice, 0.01)
	assert.InDelta(t, 117189.31, s.StdDevPrice, 0.01)
	assert.Equal(t, 6000.0, s.MinPricePerSqm)
	assert.Equal(t, 3, s.Count)
}

func TestCompute_OrderIndependent(t *testing.T) {
	pairs := []Pair{
		{Price: 300000, Area: 67},
		{Price: 712000, Area: 121},
		{Price: 455000, Area: 92.5},
		{Price: 389000, Area: 81},
		{Price: 610000, Area: 110},
	}
	want := Compute(pairs)

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]Pair(nil), pairs...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := Compute(shuffled)
		assert.Equal(t, want.MinPrice, got.MinPrice)
		assert.InDelta(t, want.MeanPrice, got.MeanPrice, 1e-6)
		assert.InDelta(t, want.StdDevPrice, got.StdDevPrice, 1e-6)
		assert.Equal(t, want.MinPricePerSqm, got.MinPricePerSqm)
	}
}

func TestCategories_Order(t *testing.T) {
	cats := Compute([]Pair{{Price: 1, Area: 1}}).Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	assert.Equal(t, []string{
		CategoryMinPrice,
		CategoryMeanPrice,
		CategoryStdDevPrice,
		CategoryMinPricePerSqm,
	}, names)
}
