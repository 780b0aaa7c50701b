package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/logger"
)

var added = domain.Notification{Title: "Added to cart", Variant: domain.VariantSuccess}

func TestCollector(t *testing.T) {
	ctx, c := WithCollector(context.Background())
	assert.Same(t, c, CollectorFromContext(ctx))
	assert.Empty(t, c.Notifications())
	assert.NotNil(t, c.Notifications())

	Context.Notify(ctx, added)
	Context.Notify(context.Background(), added)

	assert.Equal(t, []domain.Notification{added}, c.Notifications())
}

func TestFanout_SkipsNil(t *testing.T) {
	var got []string
	rec := func(name string) Notifier {
		return Func(func(_ context.Context, n domain.Notification) { got = append(got, name+":"+n.Title) })
	}

	Fanout(rec("a"), nil, rec("b"), Discard).Notify(context.Background(), added)
	assert.Equal(t, []string{"a:Added to cart", "b:Added to cart"}, got)
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter("storefront", "info", &buf)
	ctx := logger.WithOwner(context.Background(), "guest:1")

	Log(l).Notify(ctx, added)
	assert.Zero(t, buf.Len(), "success notifications log at debug")

	Log(l).Notify(ctx, domain.Notification{Title: "Out of stock", Variant: domain.VariantDestructive})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "store notification", entry["msg"])
	assert.Equal(t, "Out of stock", entry["title"])
	assert.Equal(t, "guest:1", entry["owner"])
	assert.Equal(t, slog.LevelInfo.String(), entry["level"])
}
