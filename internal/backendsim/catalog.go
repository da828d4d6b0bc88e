package backendsim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	catalogdomain "github.com/grocify/storefront/internal/catalog/domain"
)

type catalogDoc struct {
	Products []struct {
		ID          int64   `yaml:"id"`
		Name        string  `yaml:"name"`
		Description string  `yaml:"description"`
		Price       float64 `yaml:"price"`
		Category    string  `yaml:"category"`
		ImageURL    string  `yaml:"imageUrl"`
		Stock       int     `yaml:"stock"`
	} `yaml:"products"`
}

// LoadCatalog reads the seed catalog from a YAML fixture.
func LoadCatalog(path string) ([]catalogdomain.Product, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog fixture: %w", err)
	}
	var doc catalogDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("catalog fixture: %w", err)
	}
	out := make([]catalogdomain.Product, 0, len(doc.Products))
	for _, p := range doc.Products {
		out = append(out, catalogdomain.Product{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Category:    p.Category,
			ImageURL:    p.ImageURL,
			Stock:       p.Stock,
		})
	}
	return out, nil
}

// DefaultCatalog is the built-in seed used when no fixture is given.
func DefaultCatalog() []catalogdomain.Product {
	return []catalogdomain.Product{
		{ID: 1, Name: "Fresh Bananas", Description: "Ripe yellow bananas, per dozen", Price: 48, Category: "Fruits", Stock: 120},
		{ID: 2, Name: "Red Apples", Description: "Crisp apples, per kg", Price: 160, Category: "Fruits", Stock: 80},
		{ID: 3, Name: "Tomatoes", Description: "Farm tomatoes, per kg", Price: 35, Category: "Vegetables", Stock: 200},
		{ID: 4, Name: "Spinach", Description: "Leafy spinach bunch", Price: 25, Category: "Vegetables", Stock: 60},
		{ID: 5, Name: "Whole Milk", Description: "Full cream milk, 1L", Price: 62, Category: "Dairy", Stock: 150},
		{ID: 6, Name: "Paneer", Description: "Fresh paneer, 200g", Price: 95, Category: "Dairy", Stock: 45},
		{ID: 7, Name: "Basmati Rice", Description: "Aged basmati, 5kg", Price: 520, Category: "Staples", Stock: 40},
		{ID: 8, Name: "Whole Wheat Bread", Description: "Sliced loaf", Price: 45, Category: "Bakery", Stock: 70},
	}
}
