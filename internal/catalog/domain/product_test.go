package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleProducts() []Product {
	return []Product{
		{ID: 1, Name: "Bananas", Description: "Fresh Robusta bananas", Category: "Fruits"},
		{ID: 2, Name: "Whole Milk", Description: "Pasteurised full cream milk", Category: "Dairy"},
		{ID: 3, Name: "Banana Chips", Description: "Kerala style fried chips", Category: "Snacks"},
		{ID: 4, Name: "Paneer", Description: "Fresh cottage cheese", Category: "Dairy"},
	}
}

func TestFilterByQueryIsCaseInsensitive(t *testing.T) {
	got := Filter(sampleProducts(), "BANANA", "")
	assert.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)
}

func TestFilterMatchesDescription(t *testing.T) {
	got := Filter(sampleProducts(), "fried", "")
	assert.Len(t, got, 1)
	assert.Equal(t, "Banana Chips", got[0].Name)
}

func TestFilterByCategoryIsExact(t *testing.T) {
	got := Filter(sampleProducts(), "", "Dairy")
	assert.Len(t, got, 2)

	assert.Empty(t, Filter(sampleProducts(), "", "dairy"))
}

func TestFilterCombinesQueryAndCategory(t *testing.T) {
	got := Filter(sampleProducts(), "fresh", "Dairy")
	assert.Len(t, got, 1)
	assert.Equal(t, "Paneer", got[0].Name)
}

func TestFilterBlankQueryReturnsAll(t *testing.T) {
	assert.Len(t, Filter(sampleProducts(), "   ", ""), 4)
}

func TestCategoriesFirstSeenOrder(t *testing.T) {
	assert.Equal(t, []string{"Fruits", "Dairy", "Snacks"}, Categories(sampleProducts()))
}
