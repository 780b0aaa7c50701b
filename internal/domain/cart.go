package domain

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// CartItem is one line of a cart. Price is the unit price in cents and Stock
// the ceiling recorded when the line was last added.
type CartItem struct {
	Key        string            `json:"key"`
	ProductID  string            `json:"product_id"`
	Name       string            `json:"name"`
	Slug       string            `json:"slug"`
	Price      int64             `json:"price"`
	Image      string            `json:"image,omitempty"`
	Quantity   int               `json:"quantity"`
	Stock      int               `json:"stock"`
	Variants   map[string]string `json:"variants,omitempty"`
	CategoryID string            `json:"category_id,omitempty"`
}

// LineTotal is Price times Quantity.
func (i CartItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

// CartKey derives the composite key of a cart line: the product id alone, or
// "<productID>-<type>=<value>&..." with variant types sorted. Empty values
// are dropped, so the key does not depend on map order or blank selections.
// Each part is query-escaped so delimiters inside ids or values cannot make
// two selections collide.
func CartKey(productID string, variants map[string]string) string {
	types := make([]string, 0, len(variants))
	for k, v := range variants {
		if v != "" {
			types = append(types, k)
		}
	}
	if len(types) == 0 {
		return url.QueryEscape(productID)
	}
	sort.Strings(types)

	var b strings.Builder
	b.WriteString(url.QueryEscape(productID))
	b.WriteByte('-')
	for i, k := range types {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(variants[k]))
	}
	return b.String()
}

// NormalizeVariants drops empty selections; nil when nothing remains.
func NormalizeVariants(variants map[string]string) map[string]string {
	var out map[string]string
	for k, v := range variants {
		if v == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(variants))
		}
		out[k] = v
	}
	return out
}

// Cart is an ordered list of lines with unique keys. Transitions never mutate
// the receiver; they return the next state.
type Cart struct {
	Items []CartItem `json:"items"`
}

// Find returns the index of key or -1.
func (c Cart) Find(key string) int {
	for i := range c.Items {
		if c.Items[i].Key == key {
			return i
		}
	}
	return -1
}

// Contains reports whether the product/variant combination is in the cart.
func (c Cart) Contains(productID string, variants map[string]string) bool {
	return c.Find(CartKey(productID, variants)) >= 0
}

// Subtotal sums line totals in cents.
func (c Cart) Subtotal() int64 {
	var total int64
	for _, it := range c.Items {
		total += it.LineTotal()
	}
	return total
}

// ItemCount sums quantities.
func (c Cart) ItemCount() int {
	var n int
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// sameLine compares everything but Variants, which the shared key already
// pins down.
func sameLine(a, b CartItem) bool {
	return a.Key == b.Key && a.ProductID == b.ProductID && a.Name == b.Name &&
		a.Slug == b.Slug && a.Price == b.Price && a.Image == b.Image &&
		a.Quantity == b.Quantity && a.Stock == b.Stock && a.CategoryID == b.CategoryID
}

func (c Cart) clone() Cart {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}

// AddItem merges item into the cart by composite key. The resulting quantity
// is the existing plus requested quantity clamped to item.Stock; clamping
// reports OK=false. A zero stock ceiling inserts nothing. The merged line
// takes the incoming price and stock snapshot.
func (c Cart) AddItem(item CartItem) (Cart, Outcome) {
	if item.Quantity <= 0 {
		return c, Outcome{Notification: notice(VariantDestructive, "Invalid quantity", "Quantity must be at least 1.")}
	}
	if item.Stock <= 0 {
		return c, Outcome{Notification: notice(VariantDestructive, "Out of stock", fmt.Sprintf("%s is currently unavailable.", item.Name))}
	}

	item.Variants = NormalizeVariants(item.Variants)
	item.Key = CartKey(item.ProductID, item.Variants)
	next := c.clone()

	idx := next.Find(item.Key)
	existing := 0
	if idx >= 0 {
		existing = next.Items[idx].Quantity
	}

	want := existing + item.Quantity
	qty := min(want, item.Stock)
	item.Quantity = qty

	var out Outcome
	switch {
	case idx < 0:
		next.Items = append(next.Items, item)
		out = Outcome{OK: true, Changed: true, Notification: notice(VariantSuccess, "Added to cart", fmt.Sprintf("%s has been added to your cart.", item.Name))}
	default:
		changed := !sameLine(next.Items[idx], item)
		next.Items[idx] = item
		out = Outcome{OK: true, Changed: changed, Notification: notice(VariantSuccess, "Cart updated", fmt.Sprintf("%s quantity updated to %d.", item.Name, qty))}
	}

	if qty < want {
		out.OK = false
		out.Notification = notice(VariantDestructive, "Not enough stock", fmt.Sprintf("Only %d of %s available.", item.Stock, item.Name))
	}
	return next, out
}

// RemoveItem deletes key. Removing an absent key is a silent no-op.
func (c Cart) RemoveItem(key string) (Cart, Outcome) {
	idx := c.Find(key)
	if idx < 0 {
		return c, Outcome{OK: true}
	}
	removed := c.Items[idx]

	items := make([]CartItem, 0, len(c.Items)-1)
	items = append(items, c.Items[:idx]...)
	items = append(items, c.Items[idx+1:]...)
	return Cart{Items: items}, Outcome{
		OK:           true,
		Changed:      true,
		Notification: notice(VariantDefault, "Removed from cart", fmt.Sprintf("%s has been removed from your cart.", removed.Name)),
	}
}

// UpdateQuantity sets the quantity of key. Non-positive quantities remove the
// line; quantities above the stock ceiling are clamped and reported with
// OK=false.
func (c Cart) UpdateQuantity(key string, quantity int) (Cart, Outcome) {
	if quantity <= 0 {
		return c.RemoveItem(key)
	}

	idx := c.Find(key)
	if idx < 0 {
		return c, Outcome{Notification: notice(VariantDestructive, "Item not found", "This item is no longer in your cart.")}
	}

	item := c.Items[idx]
	if item.Stock <= 0 {
		next, out := c.RemoveItem(key)
		out.OK = false
		out.Notification = notice(VariantDestructive, "Out of stock", fmt.Sprintf("%s is currently unavailable.", item.Name))
		return next, out
	}

	next := c.clone()
	if quantity > item.Stock {
		next.Items[idx].Quantity = item.Stock
		return next, Outcome{
			Changed:      item.Quantity != item.Stock,
			Notification: notice(VariantDestructive, "Quantity adjusted", fmt.Sprintf("Adjusted to stock limit: only %d available.", item.Stock)),
		}
	}

	next.Items[idx].Quantity = quantity
	return next, Outcome{
		OK:           true,
		Changed:      item.Quantity != quantity,
		Notification: notice(VariantSuccess, "Cart updated", fmt.Sprintf("%s quantity updated to %d.", item.Name, quantity)),
	}
}

// Clear empties the cart.
func (c Cart) Clear() (Cart, Outcome) {
	return Cart{Items: []CartItem{}}, Outcome{
		OK:           true,
		Changed:      len(c.Items) > 0,
		Notification: notice(VariantDefault, "Cart cleared", "All items have been removed from your cart."),
	}
}

// Merge adds every line of other using AddItem semantics. Lines that hit the
// stock ceiling are clamped; the outcome is OK only if none were.
func (c Cart) Merge(other Cart) (Cart, Outcome) {
	next := c
	out := Outcome{OK: true}
	for _, it := range other.Items {
		var o Outcome
		next, o = next.AddItem(it)
		out.Changed = out.Changed || o.Changed
		out.OK = out.OK && o.OK
	}
	if out.Changed {
		out.Notification = notice(VariantSuccess, "Cart merged", fmt.Sprintf("%d item(s) from your guest cart were added.", len(other.Items)))
	}
	return next, out
}
