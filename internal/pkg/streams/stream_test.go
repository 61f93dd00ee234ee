package streams

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceStream(t *testing.T) {
	stream := SliceStream([]string{"intermediate", "final"})
	assert.Empty(t, stream.Current())

	items, err := All(stream)
	require.NoError(t, err)
	assert.Equal(t, []string{"intermediate", "final"}, items)
	assert.False(t, stream.Next())
	assert.NoError(t, stream.Close())
}
