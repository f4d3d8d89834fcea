package events

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/logging"
)

type capture struct {
	topic, key string
	event      any
	ctxErr     error
	err        error
}

func (c *capture) PublishEvent(ctx context.Context, topic, key string, event any) error {
	c.topic, c.key, c.event, c.ctxErr = topic, key, event, ctx.Err()
	return c.err
}

func TestNew(t *testing.T) {
	t.Parallel()

	a := New("order_created", map[string]any{"order_id": 1})
	b := New("order_created", nil)

	assert.Equal(t, "order_created", a.Type)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.OccurredAt.IsZero())
}

func TestEmit(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &capture{}
	ev := New("cart_cleared", map[string]any{"user_id": 7})
	Emit(ctx, c, TopicCart, 7, ev)

	assert.Equal(t, TopicCart, c.topic)
	assert.Equal(t, "7", c.key)
	assert.Equal(t, ev, c.event)
	assert.NoError(t, c.ctxErr, "publishing must outlive the request context")
}

func TestEmit_LogsFailure(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := logging.IntoContext(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	Emit(ctx, &capture{err: errors.New("broker down")}, TopicOrder, 1, New("order_deleted", nil))
	require.Contains(t, buf.String(), "publish_event_failed")
	assert.Contains(t, buf.String(), "broker down")

	Emit(ctx, nil, TopicOrder, 1, New("order_deleted", nil))
	assert.NoError(t, Nop{}.PublishEvent(ctx, TopicOrder, "1", nil))
}
