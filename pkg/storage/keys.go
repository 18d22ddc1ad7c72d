package storage

import (
	"fmt"
)

// Journal key schema for Pebble storage
//
//   jr:<ts><seq>            → OrderEvent (time-ordered log)
//   jo:<orderID>:<ts><seq>  → OrderEvent (per-order history)
//
// <ts> is the event time in unix nanoseconds and <seq> a per-process counter,
// both 8-byte big-endian so keys sort chronologically.

// Key prefixes
const (
	prefixJournal = "jr:"
	prefixByOrder = "jo:"
)

// journalKey returns the key for an event in the time-ordered log
// Format: "jr:{ts}{seq}"
func journalKey(ts int64, seq uint64) []byte {
	k := []byte(prefixJournal)
	k = append(k, uint64Key(uint64(ts))...)
	return append(k, uint64Key(seq)...)
}

// orderEventKey returns the key for an event in one order's history
// Format: "jo:{orderID}:{ts}{seq}"
func orderEventKey(orderID string, ts int64, seq uint64) []byte {
	k := orderEventPrefix(orderID)
	k = append(k, uint64Key(uint64(ts))...)
	return append(k, uint64Key(seq)...)
}

// orderEventPrefix returns the prefix for all events of an order
// Format: "jo:{orderID}:"
func orderEventPrefix(orderID string) []byte {
	return []byte(fmt.Sprintf("%s%s:", prefixByOrder, orderID))
}

// keyUpperBound returns the exclusive upper bound for a prefix scan
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
