package domain

// Line is one product's entry in the cart: a snapshot of the product at
// add time plus a quantity. JSON field names match the document the web
// client persisted under the "cart" key.
type Line struct {
	ProductID int64   `json:"id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"price"`
	Category  string  `json:"category"`
	ImageURL  string  `json:"imageUrl"`
	Quantity  int     `json:"quantity"`
}

// Total is the line subtotal.
func (l Line) Total() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// Cart is an ordered list of lines, insertion order preserved. Invariants:
// at most one line per product id, and every quantity is >= 1 (a quantity
// dropping to zero removes the line).
type Cart []Line

// Subtotal sums the line totals. Recomputed on every call, never cached.
func (c Cart) Subtotal() float64 {
	var total float64
	for _, l := range c {
		total += l.Total()
	}
	return total
}

// ItemCount sums the quantities.
func (c Cart) ItemCount() int {
	var n int
	for _, l := range c {
		n += l.Quantity
	}
	return n
}

func (c Cart) find(productID int64) int {
	for i, l := range c {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// Line returns the line for productID, if present.
func (c Cart) Line(productID int64) (Line, bool) {
	if i := c.find(productID); i >= 0 {
		return c[i], true
	}
	return Line{}, false
}

// AddOrIncrement increments the existing line's quantity by quantity, or
// appends a new line. Quantities below one are treated as one.
func (c Cart) AddOrIncrement(line Line, quantity int) Cart {
	if quantity < 1 {
		quantity = 1
	}
	if i := c.find(line.ProductID); i >= 0 {
		c[i].Quantity += quantity
		return c
	}
	line.Quantity = quantity
	return append(c, line)
}

// SetQuantity sets the line's quantity exactly; zero or less removes the
// line. Unknown product ids are a no-op.
func (c Cart) SetQuantity(productID int64, quantity int) Cart {
	i := c.find(productID)
	if i < 0 {
		return c
	}
	if quantity <= 0 {
		return append(c[:i], c[i+1:]...)
	}
	c[i].Quantity = quantity
	return c
}

// Remove deletes the line if present; no-op otherwise.
func (c Cart) Remove(productID int64) Cart {
	i := c.find(productID)
	if i < 0 {
		return c
	}
	return append(c[:i], c[i+1:]...)
}
