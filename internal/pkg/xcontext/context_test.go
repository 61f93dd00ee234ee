package xcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type key struct{}

func TestDetachWithTimeout(t *testing.T) {
	parent, cancel := context.WithCancel(context.WithValue(t.Context(), key{}, "gen-1"))
	cancel()

	ctx, stop := DetachWithTimeout(parent, time.Minute)
	defer stop()

	require.NoError(t, ctx.Err())
	assert.Equal(t, "gen-1", ctx.Value(key{}))

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}
