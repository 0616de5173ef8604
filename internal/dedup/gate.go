package dedup

// Accept reports whether candidate should be stored given the latest stored
// price. last is nil when the store is empty.
func Accept(last *int64, candidate int64) bool {
	if last == nil {
		return true
	}
	return *last != candidate
}
