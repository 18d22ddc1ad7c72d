package tools

import (
	"testing"

	"github.com/uhyunpark/papertrader/pkg/trade"
)

func sp(s string) *string    { return &s }
func fp(f float64) *float64 { return &f }

func TestTickets_UpdateTargets(t *testing.T) {
	tk := NewTickets()

	// no drafts yet: one is created
	first, created := tk.Update(&FormUpdate{Symbol: sp("AAPL")})
	if !created {
		t.Fatal("first update should create a ticket")
	}

	// no id: the active draft is reused
	id, created := tk.Update(&FormUpdate{Quantity: fp(10)})
	if created || id != first {
		t.Fatalf("update without id = %s/%v, want %s", id, created, first)
	}

	second, created := tk.Update(&FormUpdate{NewTicket: true, Symbol: sp("MSFT")})
	if !created || second == first {
		t.Fatal("newTicket should create a second draft")
	}

	// an unknown id also yields a fresh draft
	third, created := tk.Update(&FormUpdate{TicketID: sp("ticket_gone")})
	if !created || third == "ticket_gone" {
		t.Fatalf("unknown id = %s/%v", third, created)
	}

	// explicit id bumps the draft to the front
	if _, created := tk.Update(&FormUpdate{TicketID: sp(" " + first + " "), Side: ptr(trade.Sell)}); created {
		t.Fatal("existing id should not create")
	}
	list := tk.List()
	if len(list) != 3 || list[0].ID != first || list[1].ID != third || list[2].ID != second {
		t.Fatalf("order = %v", ids(list))
	}
	got := list[0].Order
	if got.Symbol != "AAPL" || got.Quantity != 10 || got.Side != trade.Sell || got.Currency != trade.USD {
		t.Errorf("merged draft = %+v", got)
	}
}

func TestTickets_Clear(t *testing.T) {
	tk := NewTickets()
	id, _ := tk.Update(&FormUpdate{Symbol: sp("AAPL"), OrderType: ptr(trade.Limit), LimitPrice: fp(180)})
	tk.Update(&FormUpdate{TicketID: &id, Clear: true, Symbol: sp("TSLA")})

	got, _ := tk.Get(id)
	want := DefaultDraft()
	want.Symbol = "TSLA"
	if got.Order.Symbol != want.Symbol || got.Order.OrderType != trade.Market || got.Order.LimitPrice != nil {
		t.Errorf("cleared draft = %+v", got.Order)
	}
}

func TestTickets_FreezeKeepsHistory(t *testing.T) {
	tk := NewTickets()
	tk.Update(&FormUpdate{Symbol: sp("AAPL")})
	tk.Freeze(Draft{Symbol: "AAPL"}, trade.TradeOrderResponse{OrderID: "ord_1", Status: trade.StatusFilled})
	tk.Update(&FormUpdate{NewTicket: true, Symbol: sp("MSFT")})
	tk.Freeze(Draft{Symbol: "MSFT"}, trade.TradeOrderResponse{OrderID: "ord_2", Status: trade.StatusPending})

	list := tk.List()
	if len(list) != 2 {
		t.Fatalf("tickets = %v", ids(list))
	}
	if list[0].OrderID != "ord_2" || list[1].OrderID != "ord_1" || !list[0].Frozen || !list[1].Frozen {
		t.Errorf("frozen history = %+v", list)
	}

	// frozen tickets are never the implicit target
	_, created := tk.Update(&FormUpdate{Symbol: sp("VTI")})
	if !created {
		t.Error("update with only frozen tickets should create a draft")
	}
	if _, err := tk.Take(list[0].ID); err != ErrTicketFrozen {
		t.Errorf("take frozen err = %v", err)
	}
}

func TestTickets_ListReturnsCopies(t *testing.T) {
	tk := NewTickets()
	id, _ := tk.Update(&FormUpdate{OrderType: ptr(trade.Limit), LimitPrice: fp(10), Strike: fp(150)})

	list := tk.List()
	*list[0].Order.LimitPrice = 99
	*list[0].Order.Strike = 1
	got, _ := tk.Get(id)
	*got.Order.LimitPrice = 42

	again, _ := tk.Get(id)
	if *again.Order.LimitPrice != 10 || *again.Order.Strike != 150 {
		t.Errorf("stored draft changed through a copy: limit %v strike %v", *again.Order.LimitPrice, *again.Order.Strike)
	}
}

func TestTickets_SyncIgnoresDraftsAndUnchanged(t *testing.T) {
	tk := NewTickets()
	tk.Freeze(Draft{Symbol: "AAPL"}, trade.TradeOrderResponse{OrderID: "ord_1", Status: trade.StatusPending})
	tk.Freeze(Draft{Symbol: "MSFT"}, trade.TradeOrderResponse{OrderID: "ord_2", Status: trade.StatusPending})
	draft, _ := tk.Update(&FormUpdate{Symbol: sp("VTI")})

	tk.Sync(trade.Snapshot{Orders: []trade.OrderRecord{
		{OrderID: "ord_1", Status: trade.StatusRejected, Side: trade.Buy, Quantity: 1, Symbol: "AAPL"},
		{OrderID: "ord_2", Status: trade.StatusPending},
	}})

	list := tk.List()
	if list[0].OrderID != "ord_1" {
		t.Fatalf("changed ticket not at front: %+v", list)
	}
	if list[0].Status != trade.StatusRejected || list[0].Summary != "Order ord_1 rejected: buy 1 AAPL" {
		t.Errorf("rejected ticket = %+v", list[0])
	}
	for _, other := range list[1:] {
		if other.ID == draft && other.Frozen {
			t.Error("draft was frozen by sync")
		}
		if other.OrderID == "ord_2" && other.Status != trade.StatusPending {
			t.Errorf("unchanged ticket status = %s", other.Status)
		}
	}
}

func TestTickets_Delete(t *testing.T) {
	tk := NewTickets()
	id, _ := tk.Update(&FormUpdate{})
	if !tk.Delete(id) || tk.Delete(id) {
		t.Error("delete should succeed exactly once")
	}
	if len(tk.List()) != 0 {
		t.Error("ticket still listed")
	}
}

func TestDraft_Complete(t *testing.T) {
	tests := []struct {
		name string
		d    Draft
		want bool
	}{
		{"blank", DefaultDraft(), false},
		{"market", Draft{Symbol: "AAPL", Quantity: 1, OrderType: trade.Market}, true},
		{"spaces only", Draft{Symbol: "  ", Quantity: 1, OrderType: trade.Market}, false},
		{"limit without price", Draft{Symbol: "AAPL", Quantity: 1, OrderType: trade.Limit}, false},
		{"limit zero price", Draft{Symbol: "AAPL", Quantity: 1, OrderType: trade.Limit, LimitPrice: fp(0)}, false},
		{"limit", Draft{Symbol: "AAPL", Quantity: 1, OrderType: trade.Limit, LimitPrice: fp(1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Complete(); got != tt.want {
				t.Errorf("Complete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }

func ids(list []Ticket) []string {
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = t.ID
	}
	return out
}
