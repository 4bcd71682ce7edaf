package mongodb

// newStoreForTest creates a Store over a fake backend (test-only).
func newStoreForTest(be backend, collection string) *Store {
	return &Store{be: be, collection: collection}
}
