package domain

import (
	"fmt"
	"strings"
)

// CompareLimit is the maximum number of products in a compare list.
const CompareLimit = 4

// ListItem is a saved product reference. Lists are keyed by ProductID.
type ListItem struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	Price      int64  `json:"price"`
	Image      string `json:"image,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
}

// ListPolicy names a list and bounds it. Cap 0 means unlimited.
type ListPolicy struct {
	Name  string
	Label string
	Cap   int
}

// Built-in list policies.
var (
	WishlistPolicy = ListPolicy{Name: "wishlist", Label: "wishlist"}
	ComparePolicy  = ListPolicy{Name: "compare", Label: "compare", Cap: CompareLimit}
)

// List is a deduplicated, ordered collection of product references.
type List struct {
	Items []ListItem `json:"items"`
}

// Find returns the index of productID or -1.
func (l List) Find(productID string) int {
	for i := range l.Items {
		if l.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Contains reports membership by product id.
func (l List) Contains(productID string) bool {
	return l.Find(productID) >= 0
}

// IDs returns product ids in list order.
func (l List) IDs() []string {
	ids := make([]string, len(l.Items))
	for i, it := range l.Items {
		ids[i] = it.ProductID
	}
	return ids
}

// Add appends item unless present. A capped list at capacity rejects the add.
func (l List) Add(p ListPolicy, item ListItem) (List, Outcome) {
	if l.Contains(item.ProductID) {
		return l, Outcome{OK: true}
	}
	if p.Cap > 0 && len(l.Items) >= p.Cap {
		return l, Outcome{Notification: notice(VariantDestructive, "Compare list full",
			fmt.Sprintf("You can compare up to %d products. Remove one to add another.", p.Cap))}
	}

	items := make([]ListItem, len(l.Items), len(l.Items)+1)
	copy(items, l.Items)
	items = append(items, item)
	return List{Items: items}, Outcome{
		OK:           true,
		Changed:      true,
		Notification: notice(VariantSuccess, "Added to "+p.Label, fmt.Sprintf("%s has been added to your %s.", item.Name, p.Label)),
	}
}

// Remove deletes productID; absent ids are a silent no-op.
func (l List) Remove(p ListPolicy, productID string) (List, Outcome) {
	idx := l.Find(productID)
	if idx < 0 {
		return l, Outcome{OK: true}
	}
	removed := l.Items[idx]

	items := make([]ListItem, 0, len(l.Items)-1)
	items = append(items, l.Items[:idx]...)
	items = append(items, l.Items[idx+1:]...)
	return List{Items: items}, Outcome{
		OK:           true,
		Changed:      true,
		Notification: notice(VariantDefault, "Removed from "+p.Label, fmt.Sprintf("%s has been removed from your %s.", removed.Name, p.Label)),
	}
}

// Toggle removes item when present and adds it otherwise.
func (l List) Toggle(p ListPolicy, item ListItem) (List, Outcome) {
	if l.Contains(item.ProductID) {
		return l.Remove(p, item.ProductID)
	}
	return l.Add(p, item)
}

// Clear empties the list.
func (l List) Clear(p ListPolicy) (List, Outcome) {
	return List{Items: []ListItem{}}, Outcome{
		OK:           true,
		Changed:      len(l.Items) > 0,
		Notification: notice(VariantDefault, fmt.Sprintf("%s cleared", capitalize(p.Label)), fmt.Sprintf("All items have been removed from your %s.", p.Label)),
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
