package storage

import (
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"github.com/uhyunpark/papertrader/pkg/trade"
)

// PebbleJournal is an append-only audit log of order transitions.
// The engine never reads it back; it only serves audit queries.
type PebbleJournal struct {
	db  *pebble.DB
	seq atomic.Uint64
}

func NewPebbleJournal(path string) (*PebbleJournal, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	return &PebbleJournal{db: db}, nil
}

func (j *PebbleJournal) Close() error { return j.db.Close() }

// Record appends ev to the time-ordered log and to its order's history
// Written with NoSync: losing the tail on a crash is acceptable for an audit trail
func (j *PebbleJournal) Record(ev trade.OrderEvent) error {
	val, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	ts := ev.At.UnixNano()
	seq := j.seq.Add(1)

	b := j.db.NewBatch()
	defer b.Close()
	if err := b.Set(journalKey(ts, seq), val, nil); err != nil {
		return fmt.Errorf("failed to stage event: %w", err)
	}
	if err := b.Set(orderEventKey(ev.OrderID, ts, seq), val, nil); err != nil {
		return fmt.Errorf("failed to stage order event: %w", err)
	}
	if err := b.Commit(pebble.NoSync); err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}
	return nil
}

// Recent loads the most recent limit events, newest first
func (j *PebbleJournal) Recent(limit int) ([]trade.OrderEvent, error) {
	prefix := []byte(prefixJournal)
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open iterator: %w", err)
	}
	defer iter.Close()

	events := make([]trade.OrderEvent, 0)
	for iter.Last(); iter.Valid() && len(events) < limit; iter.Prev() {
		ev, err := decodeEvent(iter.Value())
		if err != nil {
			continue // Skip invalid entries
		}
		events = append(events, ev)
	}
	return events, nil
}

// History loads every event recorded for orderID, oldest first
func (j *PebbleJournal) History(orderID string) ([]trade.OrderEvent, error) {
	prefix := orderEventPrefix(orderID)
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open iterator: %w", err)
	}
	defer iter.Close()

	events := make([]trade.OrderEvent, 0)
	for iter.First(); iter.Valid(); iter.Next() {
		ev, err := decodeEvent(iter.Value())
		if err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

var _ trade.Journal = (*PebbleJournal)(nil)
