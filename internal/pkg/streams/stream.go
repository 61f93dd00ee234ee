package streams

// Stream is a pull based iterator. Callers loop on Next, read Current, then check Err.
// Close releases the underlying source and is safe to call more than once.
type Stream[T any] interface {
	Next() bool
	Current() T
	Err() error
	Close() error
}

// SliceStream returns a stream over items.
func SliceStream[T any](items []T) Stream[T] {
	return &sliceStream[T]{items: items, index: -1}
}

type sliceStream[T any] struct {
	items []T
	index int
}

func (s *sliceStream[T]) Next() bool {
	if s.index+1 >= len(s.items) {
		return false
	}

	s.index++

	return true
}

func (s *sliceStream[T]) Current() T {
	var zero T
	if s.index < 0 || s.index >= len(s.items) {
		return zero
	}

	return s.items[s.index]
}

func (s *sliceStream[T]) Err() error {
	return nil
}

func (s *sliceStream[T]) Close() error {
	return nil
}
