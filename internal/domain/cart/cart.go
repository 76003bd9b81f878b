// Package cart implements mutation operations on the live, unsettled
// shopping cart. All operations are pure: they return a new cart value and
// never consult pricing or discount quotes.
package cart

import (
	"github.com/bazarshop/bazar-api/internal/domain/product"
)

// Line is one product entry in the cart. The cart holds at most one line per
// product id, and Quantity is always >= 1: an operation that would drive a
// quantity to zero or below removes the line instead.
type Line struct {
	Product  product.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Cart is the ordered collection of live cart lines.
type Cart []Line

// Add returns a new cart with the product added. If a line for the product
// already exists its quantity is incremented by one, otherwise a new line
// with quantity 1 is appended.
func Add(c Cart, p product.Product) Cart {
	out := clone(c)
	for i := range out {
		if out[i].Product.ID == p.ID {
			out[i].Quantity++
			return out
		}
	}
	return append(out, Line{Product: p, Quantity: 1})
}

// Remove returns a new cart without the line for the given product id.
func Remove(c Cart, productID string) Cart {
	out := make(Cart, 0, len(c))
	for _, line := range c {
		if line.Product.ID != productID {
			out = append(out, line)
		}
	}
	return out
}

// ChangeQuantity returns a new cart with the line's quantity adjusted by
// delta. A resulting quantity of zero or below removes the line entirely;
// a non-positive quantity is never stored.
func ChangeQuantity(c Cart, productID string, delta int) Cart {
	out := make(Cart, 0, len(c))
	for _, line := range c {
		if line.Product.ID == productID {
			line.Quantity += delta
			if line.Quantity <= 0 {
				continue
			}
		}
		out = append(out, line)
	}
	return out
}

// Find returns the line for the given product id, if present.
func Find(c Cart, productID string) (Line, bool) {
	for _, line := range c {
		if line.Product.ID == productID {
			return line, true
		}
	}
	return Line{}, false
}

// TotalQuantity returns the sum of quantities across all lines.
func TotalQuantity(c Cart) int {
	total := 0
	for _, line := range c {
		total += line.Quantity
	}
	return total
}

func clone(c Cart) Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}
