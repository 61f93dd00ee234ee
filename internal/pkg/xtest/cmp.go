package xtest

import (
	"encoding/json"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Custom comparator for json.RawMessage that compares semantic equality.
func jsonRawMessageComparer(x, y json.RawMessage) bool {
	if len(x) == 0 && len(y) == 0 {
		return true
	}

	if len(x) == 0 || len(y) == 0 {
		return false
	}

	var xVal, yVal any
	if err := json.Unmarshal(x, &xVal); err != nil {
		return false
	}

	if err := json.Unmarshal(y, &yVal); err != nil {
		return false
	}

	return cmp.Equal(xVal, yVal)
}

func defaultOptions(opts []cmp.Option) []cmp.Option {
	return append(opts,
		cmpopts.EquateEmpty(),
		cmpopts.EquateApprox(0, 1e-9),
		cmp.Comparer(jsonRawMessageComparer))
}

// Equal provides semantic equality comparison: nil and empty collections are equal,
// floats compare within 1e-9, raw JSON compares by value.
func Equal(a, b any, opts ...cmp.Option) bool {
	return cmp.Equal(a, b, defaultOptions(opts)...)
}

// Diff is cmp.Diff with the options of Equal.
func Diff(a, b any, opts ...cmp.Option) string {
	return cmp.Diff(a, b, defaultOptions(opts)...)
}

// JSONEqual compares two JSON documents by value.
func JSONEqual(a, b []byte) bool {
	return jsonRawMessageComparer(a, b)
}
