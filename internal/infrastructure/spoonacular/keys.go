package spoonacular

import "sync/atomic"

// KeyRotator hands out API keys round-robin. Every call to Next consumes
// one position, so with N keys the (k+N)-th call returns the k-th call's key.
type KeyRotator struct {
	keys   []string
	cursor atomic.Uint64
}

// NewKeyRotator copies keys; an empty list yields "" from Next
func NewKeyRotator(keys []string) *KeyRotator {
	return &KeyRotator{keys: append([]string(nil), keys...)}
}

// Next returns the key for the next request
func (r *KeyRotator) Next() string {
	if len(r.keys) == 0 {
		return ""
	}
	n := r.cursor.Add(1) - 1
	return r.keys[n%uint64(len(r.keys))]
}

// Len returns the number of keys in rotation
func (r *KeyRotator) Len() int {
	return len(r.keys)
}
