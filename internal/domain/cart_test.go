package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(productID string, qty, stock int, variants map[string]string) CartItem {
	return CartItem{ProductID: productID, Name: "Item " + productID, Price: 1000, Quantity: qty, Stock: stock, Variants: variants}
}

// ============================================================================
// CartKey
// ============================================================================

func TestCartKey_NoVariants(t *testing.T) {
	assert.Equal(t, "p1", CartKey("p1", nil))
	assert.Equal(t, "p1", CartKey("p1", map[string]string{"color": ""}))
}

func TestCartKey_OrderIndependent(t *testing.T) {
	a := CartKey("p1", map[string]string{"color": "red", "size": "M"})
	b := CartKey("p1", map[string]string{"size": "M", "color": "red"})
	assert.Equal(t, a, b)
	assert.Equal(t, "p1-color=red&size=M", a)
}

func TestCartKey_DropsEmptyValues(t *testing.T) {
	assert.Equal(t, "p1-size=M", CartKey("p1", map[string]string{"size": "M", "color": ""}))
}

func TestCartKey_EscapesDelimiters(t *testing.T) {
	packed := CartKey("p1", map[string]string{"a": "b&c=d"})
	split := CartKey("p1", map[string]string{"a": "b", "c": "d"})
	assert.NotEqual(t, packed, split)
	assert.Equal(t, "p1-a=b%26c%3Dd", packed)
	assert.Equal(t, "p1-a=b&c=d", split)

	assert.NotEqual(t, CartKey("p1-size=M", nil), CartKey("p1", map[string]string{"size": "M"}))
}

// ============================================================================
// AddItem
// ============================================================================

func TestAddItem_NewLine(t *testing.T) {
	c, out := Cart{}.AddItem(line("p1", 2, 5, nil))

	require.Len(t, c.Items, 1)
	assert.True(t, out.OK)
	assert.True(t, out.Changed)
	assert.Equal(t, "Added to cart", out.Notification.Title)
	assert.Equal(t, "p1", c.Items[0].Key)
	assert.Equal(t, 2, c.Items[0].Quantity)
}

func TestAddItem_MergesSameKey(t *testing.T) {
	c, _ := Cart{}.AddItem(line("p1", 1, 10, map[string]string{"size": "M", "color": "red"}))
	c, out := c.AddItem(line("p1", 2, 10, map[string]string{"color": "red", "size": "M"}))

	require.Len(t, c.Items, 1)
	assert.True(t, out.OK)
	assert.Equal(t, "Cart updated", out.Notification.Title)
	assert.Equal(t, 3, c.Items[0].Quantity)
}

func TestAddItem_ClampsToStock(t *testing.T) {
	c := Cart{Items: []CartItem{{Key: "p1", ProductID: "p1", Name: "Tee", Quantity: 2, Stock: 5}}}

	next, out := c.AddItem(CartItem{ProductID: "p1", Name: "Tee", Quantity: 4, Stock: 5})

	assert.Equal(t, 5, next.Items[0].Quantity)
	assert.False(t, out.OK)
	assert.True(t, out.Changed)
	assert.Equal(t, "Not enough stock", out.Notification.Title)
	assert.Equal(t, VariantDestructive, out.Notification.Variant)
	assert.Equal(t, 2, c.Items[0].Quantity, "receiver must not be mutated")
}

func TestAddItem_SequenceNeverExceedsStock(t *testing.T) {
	c := Cart{}
	for i := 0; i < 10; i++ {
		c, _ = c.AddItem(line("p1", 3, 7, nil))
		require.LessOrEqual(t, c.Items[0].Quantity, 7)
	}
	assert.Equal(t, 7, c.Items[0].Quantity)
}

func TestAddItem_NewLineAboveStockIsClamped(t *testing.T) {
	c, out := Cart{}.AddItem(line("p1", 9, 3, nil))
	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.False(t, out.OK)
}

func TestAddItem_OutOfStock(t *testing.T) {
	c, out := Cart{}.AddItem(line("p1", 1, 0, nil))
	assert.Empty(t, c.Items)
	assert.False(t, out.OK)
	assert.False(t, out.Changed)
	assert.Equal(t, "Out of stock", out.Notification.Title)
}

func TestAddItem_NonPositiveQuantity(t *testing.T) {
	for _, q := range []int{0, -2} {
		c, out := Cart{}.AddItem(line("p1", q, 5, nil))
		assert.Empty(t, c.Items)
		assert.False(t, out.OK)
		assert.False(t, out.Changed)
	}
}

func TestAddItem_RefreshesSnapshot(t *testing.T) {
	c, _ := Cart{}.AddItem(line("p1", 1, 10, nil))
	updated := line("p1", 1, 10, nil)
	updated.Price = 1500

	c, _ = c.AddItem(updated)
	assert.Equal(t, int64(1500), c.Items[0].Price)
	assert.Equal(t, int64(3000), c.Subtotal())
}

// ============================================================================
// RemoveItem / UpdateQuantity / Clear
// ============================================================================

func TestRemoveItem(t *testing.T) {
	c, _ := Cart{}.AddItem(line("p1", 1, 5, nil))
	c, out := c.RemoveItem("p1")

	assert.Empty(t, c.Items)
	assert.True(t, out.Changed)
	assert.Equal(t, "Removed from cart", out.Notification.Title)
	assert.False(t, c.Contains("p1", nil))
}

func TestRemoveItem_AbsentIsSilentNoop(t *testing.T) {
	c, out := Cart{}.RemoveItem("missing")
	assert.Empty(t, c.Items)
	assert.True(t, out.OK)
	assert.False(t, out.Changed)
	assert.Nil(t, out.Notification)
}

func TestUpdateQuantity_ZeroRemoves(t *testing.T) {
	c, _ := Cart{}.AddItem(line("p1", 2, 5, nil))

	viaUpdate, outUpdate := c.UpdateQuantity("p1", 0)
	viaRemove, outRemove := c.RemoveItem("p1")

	assert.Equal(t, viaRemove, viaUpdate)
	assert.Equal(t, outRemove, outUpdate)
}

func TestUpdateQuantity_NotFound(t *testing.T) {
	_, out := Cart{}.UpdateQuantity("nope", 2)
	assert.False(t, out.OK)
	assert.Equal(t, "Item not found", out.Notification.Title)
}

func TestUpdateQuantity_ClampsAboveStock(t *testing.T) {
	c, _ := Cart{}.AddItem(line("p1", 1, 4, nil))
	c, out := c.UpdateQuantity("p1", 10)

	assert.Equal(t, 4, c.Items[0].Quantity)
	assert.False(t, out.OK)
	assert.True(t, out.Changed)
	assert.Equal(t, "Quantity adjusted", out.Notification.Title)
}

func TestUpdateQuantity_SetsExactly(t *testing.T) {
	c, _ := Cart{}.AddItem(line("p1", 1, 4, nil))
	c, out := c.UpdateQuantity("p1", 3)

	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.True(t, out.OK)
	assert.Equal(t, "Cart updated", out.Notification.Title)
}

func TestClear(t *testing.T) {
	c, _ := Cart{}.AddItem(line("p1", 1, 4, nil))
	c, out := c.Clear()

	assert.Empty(t, c.Items)
	assert.NotNil(t, c.Items)
	assert.True(t, out.Changed)
	assert.Equal(t, "Cart cleared", out.Notification.Title)
}

// ============================================================================
// Totals and merge
// ============================================================================

func TestTotals(t *testing.T) {
	c := Cart{Items: []CartItem{
		{Price: 1000, Quantity: 2},
		{Price: 500, Quantity: 3},
	}}
	assert.Equal(t, int64(3500), c.Subtotal())
	assert.Equal(t, 5, c.ItemCount())
	assert.Equal(t, int64(1500), c.Items[1].LineTotal())
}

func TestMerge_ClampsPerLine(t *testing.T) {
	user, _ := Cart{}.AddItem(line("p1", 3, 4, nil))
	guest, _ := Cart{}.AddItem(line("p1", 3, 4, nil))
	guest, _ = guest.AddItem(line("p2", 1, 9, nil))

	merged, out := user.Merge(guest)

	require.Len(t, merged.Items, 2)
	assert.Equal(t, 4, merged.Items[0].Quantity)
	assert.Equal(t, 1, merged.Items[1].Quantity)
	assert.False(t, out.OK)
	assert.True(t, out.Changed)
	assert.Equal(t, "Cart merged", out.Notification.Title)
}

func TestMerge_EmptyGuestIsNoop(t *testing.T) {
	user, _ := Cart{}.AddItem(line("p1", 1, 4, nil))
	merged, out := user.Merge(Cart{})
	assert.Equal(t, user, merged)
	assert.True(t, out.OK)
	assert.Nil(t, out.Notification)
}
