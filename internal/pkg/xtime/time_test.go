package xtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock_UnixMilli(t *testing.T) {
	fixed := time.Date(2024, 1, 17, 14, 30, 0, 0, time.UTC)

	var clock Clock = func() time.Time { return fixed }
	assert.Equal(t, fixed.UnixMilli(), clock.UnixMilli())

	setUTCNowFunc(func() time.Time { return fixed })
	t.Cleanup(resetUTCNowFunc)

	var nilClock Clock
	assert.Equal(t, fixed.UnixMilli(), nilClock.UnixMilli())
	assert.Equal(t, fixed, Now())
}

func TestFileStamp(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{
			name: "utc",
			in:   time.Date(2024, 3, 5, 7, 8, 9, 123000000, time.UTC),
			want: "2024-03-05T07-08-09",
		},
		{
			name: "converted to utc",
			in:   time.Date(2024, 3, 5, 9, 8, 9, 0, time.FixedZone("CEST", 2*3600)),
			want: "2024-03-05T07-08-09",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileStamp(tt.in))
		})
	}
}

func TestFromUnixMilli(t *testing.T) {
	ts := FromUnixMilli(1709622489123)
	assert.Equal(t, time.UTC, ts.Location())
	assert.Equal(t, "2024-03-05", DateStamp(ts))
}
