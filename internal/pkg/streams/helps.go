package streams

// All drains stream and returns every item it yielded, with the stream's error.
// The stream is not closed.
func All[T any](stream Stream[T]) ([]T, error) {
	var items []T
	for stream.Next() {
		items = append(items, stream.Current())
	}

	return items, stream.Err()
}
