package domain

import "strings"

// CartItem represents one line of a customer's cart.
// Quantity is kilograms for weight-based products, unit count otherwise.
// UnitCount is the number of pieces for weight-based products (0 if not
// weight-based).
type CartItem struct {
	ProductName string  `json:"produto"`
	Quantity    float64 `json:"quantidade"`
	UnitCount   int     `json:"unidades"`
	UnitPrice   float64 `json:"preco"`
	Note        string  `json:"observacao,omitempty"`
}

// SameProduct checks name equality, case-insensitive exact match.
// Near-duplicate names (trailing punctuation, unit annotations) are
// intentionally NOT merged to avoid false merges.
func (c *CartItem) SameProduct(name string) bool {
	return strings.EqualFold(strings.TrimSpace(c.ProductName), strings.TrimSpace(name))
}

// MergeFrom folds a duplicate insertion into the existing item:
// quantities and unit counts are summed, the newest price wins, and a
// distinct note is appended.
func (c *CartItem) MergeFrom(other CartItem) {
	c.Quantity += other.Quantity
	c.UnitCount += other.UnitCount
	if other.UnitPrice > 0 {
		c.UnitPrice = other.UnitPrice
	}
	if other.Note != "" && !strings.Contains(c.Note, other.Note) {
		c.Note = strings.TrimSpace(c.Note + " " + other.Note)
	}
}

// IsWeightBased checks if the item is sold by weight
func (c *CartItem) IsWeightBased() bool {
	return c.UnitCount > 0
}

// LineTotal returns the estimated value of the line
func (c *CartItem) LineTotal() float64 {
	return c.UnitPrice * c.Quantity
}

// Cart is the ordered list of a customer's items
type Cart []CartItem

// FindIndex returns the index of the item with the given product name,
// or -1 when absent.
func (c Cart) FindIndex(productName string) int {
	for i := range c {
		if c[i].SameProduct(productName) {
			return i
		}
	}
	return -1
}

// Subtotal sums all line totals
func (c Cart) Subtotal() float64 {
	var total float64
	for i := range c {
		total += c[i].LineTotal()
	}
	return total
}
