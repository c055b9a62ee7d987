package billing

import "billbuddy/pos/internal/types"

type Line struct {
	Product   types.Product
	Quantity  int
	UnitPrice float64
}

// Cart is the in-progress sale: who it is for and what they are buying.
// Adding the same product again bumps the quantity instead of duplicating
// the line.
type Cart struct {
	CustomerName string
	VehicleInfo  string
	Lines        []Line
}

func (c *Cart) AddProduct(p types.Product) {
	for i := range c.Lines {
		if c.Lines[i].Product.ID == p.ID {
			c.Lines[i].Quantity++
			return
		}
	}
	c.Lines = append(c.Lines, Line{Product: p, Quantity: 1, UnitPrice: p.SellingPrice})
}

// SetUnitPrice overrides the selling price for a line, e.g. a negotiated
// discount at the counter.
func (c *Cart) SetUnitPrice(productID string, price float64) bool {
	for i := range c.Lines {
		if c.Lines[i].Product.ID == productID {
			c.Lines[i].UnitPrice = price
			return true
		}
	}
	return false
}

func (c *Cart) Empty() bool { return len(c.Lines) == 0 }

func (c *Cart) Subtotal() float64 {
	var total float64
	for _, ln := range c.Lines {
		total += ln.UnitPrice * float64(ln.Quantity)
	}
	return total
}

func (c *Cart) Profit() float64 {
	var profit float64
	for _, ln := range c.Lines {
		profit += (ln.UnitPrice - ln.Product.PurchasePrice) * float64(ln.Quantity)
	}
	return profit
}
