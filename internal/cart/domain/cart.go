package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// MaxQuantity bounds one line so totals stay well inside int64.
const MaxQuantity = 10000

var (
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrInvalidProduct  = errors.New("invalid_product")
	ErrInvalidCart     = errors.New("invalid_cart")
)

// Line is one product in a cart. UnitPriceCents is the price resolved when
// the product was first added; nil means price on request.
type Line struct {
	ProductID       snowflake.ID `json:"product_id"`
	Name            string       `json:"name"`
	UnitPriceCents  *int64       `json:"unit_price_cents"`
	Quantity        int          `json:"quantity"`
	Category        string       `json:"category,omitempty"`
	ImageURL        *string      `json:"image_url,omitempty"`
	WeightGrams     *int32       `json:"weight_grams,omitempty"`
	UnitsPerPackage *int32       `json:"units_per_package,omitempty"`
}

// TotalCents counts on-request lines as zero.
func (l Line) TotalCents() int64 {
	if l.UnitPriceCents == nil {
		return 0
	}
	return *l.UnitPriceCents * int64(l.Quantity)
}

// Cart keeps lines in insertion order with at most one line per product.
type Cart struct {
	ID    string `json:"id"`
	Lines []Line `json:"items"`
}

func (c *Cart) index(productID snowflake.ID) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Add increments an existing line and keeps its stored price, or appends a
// new line with the caller's price.
func (c *Cart) Add(line Line, quantity int) error {
	if quantity < 1 || quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	if line.ProductID == 0 {
		return ErrInvalidProduct
	}
	if i := c.index(line.ProductID); i >= 0 {
		if c.Lines[i].Quantity > MaxQuantity-quantity {
			return ErrInvalidQuantity
		}
		c.Lines[i].Quantity += quantity
		return nil
	}
	line.Quantity = quantity
	c.Lines = append(c.Lines, line)
	return nil
}

// Remove is a no-op for unknown products.
func (c *Cart) Remove(productID snowflake.ID) {
	i := c.index(productID)
	if i < 0 {
		return
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
}

// UpdateQuantity sets an absolute quantity. Zero or less removes the line.
func (c *Cart) UpdateQuantity(productID snowflake.ID, quantity int) error {
	if quantity <= 0 {
		c.Remove(productID)
		return nil
	}
	if quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	if i := c.index(productID); i >= 0 {
		c.Lines[i].Quantity = quantity
	}
	return nil
}

func (c *Cart) Clear() {
	c.Lines = nil
}

func (c *Cart) TotalItems() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}

func (c *Cart) TotalCents() int64 {
	var total int64
	for _, l := range c.Lines {
		total += l.TotalCents()
	}
	return total
}

func (c *Cart) Empty() bool { return len(c.Lines) == 0 }

// Store persists the full line set of a cart under an opaque key.
type Store interface {
	// Get returns nil lines for an unknown key.
	Get(ctx context.Context, key string) ([]Line, error)
	// Set replaces the stored lines. An empty set deletes the cart.
	Set(ctx context.Context, key string, lines []Line) error
	// Subscribe calls fn with the new lines after every Set on key until ctx
	// is done.
	Subscribe(ctx context.Context, key string, fn func([]Line)) error
}
