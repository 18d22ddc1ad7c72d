package storage

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/uhyunpark/papertrader/pkg/trade"
	"github.com/uhyunpark/papertrader/pkg/util"
)

// newTestJournal opens a Pebble journal in a per-test temp dir
func newTestJournal(t *testing.T) *PebbleJournal {
	t.Helper()
	j, err := NewPebbleJournal(filepath.Join(t.TempDir(), "journal"))
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

var base = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func event(id string, kind trade.EventKind, offset time.Duration) trade.OrderEvent {
	return trade.OrderEvent{
		OrderID: id,
		Kind:    kind,
		At:      base.Add(offset),
		Order:   trade.OrderRecord{OrderID: id, Symbol: "AAPL"},
	}
}

func TestPebbleJournal_RecentNewestFirst(t *testing.T) {
	j := newTestJournal(t)
	evs := []trade.OrderEvent{
		event("ord_a", trade.EventPlaced, 0),
		event("ord_b", trade.EventPlaced, time.Second),
		event("ord_a", trade.EventCanceled, 2*time.Second),
		event("ord_b", trade.EventFilled, 2*time.Second), // same timestamp, later seq
	}
	for _, ev := range evs {
		if err := j.Record(ev); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := j.Recent(3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	want := []struct {
		id   string
		kind trade.EventKind
	}{
		{"ord_b", trade.EventFilled},
		{"ord_a", trade.EventCanceled},
		{"ord_b", trade.EventPlaced},
	}
	for i, w := range want {
		if got[i].OrderID != w.id || got[i].Kind != w.kind {
			t.Errorf("event[%d] = %s/%s, want %s/%s", i, got[i].OrderID, got[i].Kind, w.id, w.kind)
		}
	}
	if !got[0].At.Equal(base.Add(2 * time.Second)) {
		t.Errorf("timestamp round trip: %v", got[0].At)
	}
}

func TestPebbleJournal_History(t *testing.T) {
	j := newTestJournal(t)
	j.Record(event("ord_a", trade.EventPlaced, 0))
	j.Record(event("ord_ab", trade.EventPlaced, time.Second)) // shares a prefix
	j.Record(event("ord_a", trade.EventModified, 2*time.Second))
	j.Record(event("ord_a", trade.EventFilled, 3*time.Second))

	hist, err := j.History("ord_a")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	kinds := []trade.EventKind{trade.EventPlaced, trade.EventModified, trade.EventFilled}
	if len(hist) != len(kinds) {
		t.Fatalf("got %d events, want %d", len(hist), len(kinds))
	}
	for i, k := range kinds {
		if hist[i].Kind != k || hist[i].OrderID != "ord_a" {
			t.Errorf("history[%d] = %s/%s", i, hist[i].OrderID, hist[i].Kind)
		}
	}

	empty, err := j.History("ord_missing")
	if err != nil || len(empty) != 0 {
		t.Errorf("missing order history = %v, %v", empty, err)
	}
}

func TestPebbleJournal_WiredIntoEngine(t *testing.T) {
	j := newTestJournal(t)
	clock := util.NewManualClock(base)
	e := trade.New(trade.Options{Clock: clock, Journal: j})

	limit := 20.0
	resp := e.PlaceOrder(trade.OrderRequest{
		ProductType: trade.Stock, Symbol: "AAPL", Side: trade.Buy,
		Quantity: 1, OrderType: trade.Limit, LimitPrice: &limit,
	})
	fireAt, _ := e.SettlementTime(resp.OrderID)
	clock.Set(fireAt)
	e.SettleDue(clock.Now())

	hist, err := j.History(resp.OrderID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 2 || hist[0].Kind != trade.EventPlaced || hist[1].Kind != trade.EventFilled {
		t.Fatalf("history = %+v", hist)
	}
	if hist[1].Order.Status != trade.StatusFilled || *hist[1].Order.FillValue != 20 {
		t.Errorf("filled event = %+v", hist[1].Order)
	}
}

func TestFileJournal_AppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	j, err := NewFileJournal(path)
	if err != nil {
		t.Fatalf("NewFileJournal: %v", err)
	}
	j.Record(event("ord_a", trade.EventPlaced, 0))
	j.Record(event("ord_a", trade.EventCanceled, time.Second))
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var kinds []trade.EventKind
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		ev, err := decodeEvent(sc.Bytes())
		if err != nil {
			t.Fatalf("line is not an event: %v", err)
		}
		kinds = append(kinds, ev.Kind)
	}
	if len(kinds) != 2 || kinds[1] != trade.EventCanceled {
		t.Errorf("kinds = %v", kinds)
	}
}
