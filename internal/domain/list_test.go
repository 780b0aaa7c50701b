package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id string) ListItem {
	return ListItem{ProductID: id, Name: "Product " + id}
}

func TestListAdd_Deduplicates(t *testing.T) {
	l, out := List{}.Add(WishlistPolicy, product("a"))
	require.Len(t, l.Items, 1)
	assert.Equal(t, "Added to wishlist", out.Notification.Title)

	l, out = l.Add(WishlistPolicy, product("a"))
	assert.Len(t, l.Items, 1)
	assert.True(t, out.OK)
	assert.False(t, out.Changed)
	assert.Nil(t, out.Notification)
}

func TestListAdd_WishlistUncapped(t *testing.T) {
	l := List{}
	for i := 0; i < 20; i++ {
		l, _ = l.Add(WishlistPolicy, product(fmt.Sprint(i)))
	}
	assert.Len(t, l.Items, 20)
}

func TestListAdd_CompareCap(t *testing.T) {
	l := List{}
	for _, id := range []string{"a", "b", "c", "d"} {
		l, _ = l.Add(ComparePolicy, product(id))
	}

	next, out := l.Add(ComparePolicy, product("e"))
	assert.Len(t, next.Items, CompareLimit)
	assert.False(t, out.OK)
	assert.False(t, out.Changed)
	assert.Equal(t, "Compare list full", out.Notification.Title)
	assert.False(t, next.Contains("e"))
}

func TestListCap_NotRetroactive(t *testing.T) {
	l := List{Items: []ListItem{product("a"), product("b"), product("c"), product("d"), product("e")}}

	l, out := l.Remove(ComparePolicy, "e")
	assert.True(t, out.Changed)
	assert.Len(t, l.Items, 4)
}

func TestListRemove(t *testing.T) {
	l, _ := List{}.Add(ComparePolicy, product("a"))

	l, out := l.Remove(ComparePolicy, "a")
	assert.Empty(t, l.Items)
	assert.Equal(t, "Removed from compare", out.Notification.Title)

	_, out = l.Remove(ComparePolicy, "a")
	assert.False(t, out.Changed)
	assert.Nil(t, out.Notification)
}

func TestListToggle_IsItsOwnInverse(t *testing.T) {
	start, _ := List{}.Add(WishlistPolicy, product("a"))

	once, _ := start.Toggle(WishlistPolicy, product("b"))
	assert.True(t, once.Contains("b"))

	twice, _ := once.Toggle(WishlistPolicy, product("b"))
	assert.Equal(t, start.IDs(), twice.IDs())
}

func TestListClear(t *testing.T) {
	l, _ := List{}.Add(ComparePolicy, product("a"))
	l, out := l.Clear(ComparePolicy)
	assert.Empty(t, l.Items)
	assert.Equal(t, "Compare cleared", out.Notification.Title)
	assert.True(t, out.Changed)

	_, out = List{}.Clear(WishlistPolicy)
	assert.False(t, out.Changed)
	assert.Equal(t, "Wishlist cleared", out.Notification.Title)
}
