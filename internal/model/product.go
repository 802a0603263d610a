package model

// DefaultCategory is assigned to products created without a category.
const DefaultCategory = "custom"

// Product is an item of the catalogue offered for events.
//
// Active is set once at creation; listing only ever returns active products.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"     validate:"notblank"`
	Category string `json:"category"`
	Active   bool   `json:"active"`
}

// SearchText is the text matched by the products search filter.
func (p *Product) SearchText() string {
	return p.Name + " " + p.Category
}

// DefaultProducts is the catalogue written when the products file does not
// exist yet.
func DefaultProducts() []Product {
	return []Product{
		{ID: "1", Name: "Bolo de Chocolate", Category: "tradicional", Active: true},
		{ID: "2", Name: "Bolo de Cenoura", Category: "tradicional", Active: true},
		{ID: "3", Name: "Bolo de Morango", Category: "frutas", Active: true},
		{ID: "4", Name: "Bolo de Abacaxi", Category: "frutas", Active: true},
		{ID: "5", Name: "Bolo Red Velvet", Category: "especial", Active: true},
	}
}
