package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregator_EmptyState(t *testing.T) {
	a := NewAggregator()

	_, err := a.MaxScoreCategory()
	assert.ErrorIs(t, err, ErrEmptyAggregate)

	_, err = a.MinScoreCategory()
	assert.ErrorIs(t, err, ErrEmptyAggregate)

	_, ok := a.CategoryTotalScore("X")
	assert.False(t, ok)

	_, ok = a.CategoryMaxScoreQuestion("X")
	assert.False(t, ok)
	_, ok = a.CategoryMinScoreQuestion("X")
	assert.False(t, ok)

	assert.False(t, a.IsCategoryAverageScoreAbove("X", 0))
	assert.Equal(t, "", a.CategoryImageName("家族", DefaultImageTable()))
}

func TestAggregator_Totals(t *testing.T) {
	a := NewAggregator()
	a.AddEntry("家族", 3, "1")
	a.AddEntry("お金", 10, "2")
	a.AddEntry("家族", 4, "3")
	a.AddEntry("情報", 1, "4")

	total, ok := a.CategoryTotalScore("家族")
	require.True(t, ok)
	assert.Equal(t, 7.0, total)

	avg, ok := a.CategoryAverageScore("家族")
	require.True(t, ok)
	assert.Equal(t, 3.5, avg)
	assert.True(t, a.IsCategoryAverageScoreAbove("家族", 3.5))
	assert.False(t, a.IsCategoryAverageScoreAbove("家族", 3.6))

	maxCat, err := a.MaxScoreCategory()
	require.NoError(t, err)
	assert.Equal(t, "お金", maxCat)

	minCat, err := a.MinScoreCategory()
	require.NoError(t, err)
	assert.Equal(t, "情報", minCat)

	assert.Equal(t, []string{"家族", "お金", "情報"}, a.Categories())
	assert.Equal(t, 2, a.CategoryEntries("家族"))
}

func TestAggregator_TiesGoToFirst(t *testing.T) {
	a := NewAggregator()
	a.AddEntry("A", 5, "1")
	a.AddEntry("B", 5, "2")

	maxCat, _ := a.MaxScoreCategory()
	minCat, _ := a.MinScoreCategory()
	assert.Equal(t, "A", maxCat)
	assert.Equal(t, "A", minCat)

	a.AddEntry("C", 2, "10")
	a.AddEntry("C", 7, "11")
	a.AddEntry("C", 7, "12")
	a.AddEntry("C", 2, "13")

	q, ok := a.CategoryMaxScoreQuestion("C")
	require.True(t, ok)
	assert.Equal(t, "11", q)

	q, ok = a.CategoryMinScoreQuestion("C")
	require.True(t, ok)
	assert.Equal(t, "10", q)
}

func TestImageTable(t *testing.T) {
	table := DefaultImageTable()

	assert.Equal(t, "family_high.webp", table.ImageName("家族", 21.20))
	assert.Equal(t, "family_low.webp", table.ImageName("家族", 21.19))
	assert.Equal(t, "money_high.webp", table.ImageName("お金", 100))
	assert.Equal(t, "", table.ImageName("unknown", 100))

	a := NewAggregator()
	a.AddEntry("家屋", 20, "1")
	a.AddEntry("家屋", 10, "2")
	assert.Equal(t, "residence_high.webp", a.CategoryImageName("家屋", table))
}

func TestAggregator_IncomparableTotalsReturnFirst(t *testing.T) {
	a := NewAggregator()
	a.AddEntry("X", math.NaN(), "1")
	a.AddEntry("Y", math.NaN(), "2")

	maxCat, err := a.MaxScoreCategory()
	require.NoError(t, err)
	assert.Equal(t, "X", maxCat)

	minCat, err := a.MinScoreCategory()
	require.NoError(t, err)
	assert.Equal(t, "X", minCat)
}
