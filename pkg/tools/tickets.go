package tools

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/uhyunpark/papertrader/pkg/trade"
)

var (
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrTicketFrozen     = errors.New("ticket already submitted")
	ErrTicketIncomplete = errors.New("ticket is incomplete")
)

// Draft is the order form state of a ticket
type Draft struct {
	ProductType trade.ProductType `json:"productType"`
	Symbol      string            `json:"symbol"`
	Side        trade.Side        `json:"side"`
	Quantity    float64           `json:"quantity"`
	OrderType   trade.OrderType   `json:"orderType"`
	LimitPrice  *float64          `json:"limitPrice,omitempty"`
	Currency    trade.Currency    `json:"currency"`
	TimeInForce trade.TimeInForce `json:"timeInForce,omitempty"`
	Note        string            `json:"note,omitempty"`
	OptionType  string            `json:"optionType,omitempty"`
	Strike      *float64          `json:"strike,omitempty"`
	Expiry      string            `json:"expiry,omitempty"`
	Maturity    string            `json:"maturity,omitempty"`
}

// DefaultDraft is the blank form a new ticket starts from
func DefaultDraft() Draft {
	return Draft{
		ProductType: trade.Stock,
		Side:        trade.Buy,
		OrderType:   trade.Market,
		Currency:    trade.USD,
		TimeInForce: trade.Day,
	}
}

// Complete reports whether the draft can be submitted
func (d Draft) Complete() bool {
	if strings.TrimSpace(d.Symbol) == "" || d.Quantity <= 0 {
		return false
	}
	if d.OrderType == trade.Limit && (d.LimitPrice == nil || *d.LimitPrice <= 0) {
		return false
	}
	return true
}

// Request converts the draft into an engine order request
func (d Draft) Request() trade.OrderRequest {
	return trade.OrderRequest{
		ProductType: d.ProductType,
		Symbol:      strings.TrimSpace(d.Symbol),
		Side:        d.Side,
		Quantity:    d.Quantity,
		OrderType:   d.OrderType,
		LimitPrice:  d.LimitPrice,
		Currency:    d.Currency,
		TimeInForce: d.TimeInForce,
		Note:        d.Note,
		OptionType:  d.OptionType,
		Strike:      d.Strike,
		Expiry:      d.Expiry,
		Maturity:    d.Maturity,
	}
}

// Ticket is a draft order, or the frozen record of one that was submitted.
// A frozen ticket follows its order's status through Sync.
type Ticket struct {
	ID      string            `json:"id"`
	Order   Draft             `json:"order"`
	Frozen  bool              `json:"frozen"`
	OrderID string            `json:"orderId,omitempty"`
	Status  trade.OrderStatus `json:"status,omitempty"`
	Summary string            `json:"summary,omitempty"`

	FilledAt  *time.Time `json:"filledAt,omitempty"`
	FillPrice *float64   `json:"fillPrice,omitempty"`
	FillValue *float64   `json:"fillValue,omitempty"`
}

func (d Draft) clone() Draft {
	d.LimitPrice = copyPtr(d.LimitPrice)
	d.Strike = copyPtr(d.Strike)
	return d
}

func (tk *Ticket) clone() Ticket {
	c := *tk
	c.Order = tk.Order.clone()
	c.FilledAt = copyPtr(tk.FilledAt)
	c.FillPrice = copyPtr(tk.FillPrice)
	c.FillValue = copyPtr(tk.FillValue)
	return c
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// FormUpdate carries the arguments of update_order_form.
// Nil fields leave the draft untouched.
type FormUpdate struct {
	TicketID  *string `json:"ticketId"`
	NewTicket bool    `json:"newTicket"`
	Clear     bool    `json:"clear"`

	ProductType *trade.ProductType `json:"productType"`
	Symbol      *string            `json:"symbol"`
	Side        *trade.Side        `json:"side"`
	Quantity    *float64           `json:"quantity"`
	OrderType   *trade.OrderType   `json:"orderType"`
	LimitPrice  *float64           `json:"limitPrice"`
	Currency    *trade.Currency    `json:"currency"`
	TimeInForce *trade.TimeInForce `json:"timeInForce"`
	Note        *string            `json:"note"`
	OptionType  *string            `json:"optionType"`
	Strike      *float64           `json:"strike"`
	Expiry      *string            `json:"expiry"`
	Maturity    *string            `json:"maturity"`
}

func (u *FormUpdate) apply(d *Draft) {
	if u.ProductType != nil {
		d.ProductType = *u.ProductType
	}
	if u.Symbol != nil {
		d.Symbol = *u.Symbol
	}
	if u.Side != nil {
		d.Side = *u.Side
	}
	if u.Quantity != nil {
		d.Quantity = *u.Quantity
	}
	if u.OrderType != nil {
		d.OrderType = *u.OrderType
	}
	if u.LimitPrice != nil {
		lp := *u.LimitPrice
		d.LimitPrice = &lp
	}
	if u.Currency != nil {
		d.Currency = *u.Currency
	}
	if u.TimeInForce != nil {
		d.TimeInForce = *u.TimeInForce
	}
	if u.Note != nil {
		d.Note = *u.Note
	}
	if u.OptionType != nil {
		d.OptionType = *u.OptionType
	}
	if u.Strike != nil {
		s := *u.Strike
		d.Strike = &s
	}
	if u.Expiry != nil {
		d.Expiry = *u.Expiry
	}
	if u.Maturity != nil {
		d.Maturity = *u.Maturity
	}
}

// Tickets holds the UI draft tickets, most recently touched first.
// It never touches the engine.
type Tickets struct {
	mu   sync.Mutex
	list []*Ticket
}

func NewTickets() *Tickets {
	return &Tickets{}
}

func newTicket() *Ticket {
	return &Ticket{ID: "ticket_" + uuid.NewString(), Order: DefaultDraft()}
}

func (t *Tickets) indexOf(id string) int {
	for i, tk := range t.list {
		if tk.ID == id {
			return i
		}
	}
	return -1
}

func (t *Tickets) bump(i int) {
	tk := t.list[i]
	copy(t.list[1:i+1], t.list[:i])
	t.list[0] = tk
}

// Update applies u to the targeted draft and moves it to the front.
//
// Target selection: newTicket or an unknown ticketId creates a fresh draft;
// no ticketId picks the first non-frozen draft, creating one if none exists.
func (t *Tickets) Update(u *FormUpdate) (ticketID string, created bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	requested := ""
	if u.TicketID != nil {
		requested = strings.TrimSpace(*u.TicketID)
	}

	idx := -1
	switch {
	case u.NewTicket:
	case requested != "":
		idx = t.indexOf(requested)
	default:
		for i, tk := range t.list {
			if !tk.Frozen {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		t.list = append([]*Ticket{newTicket()}, t.list...)
		idx = 0
		created = true
	}

	tk := t.list[idx]
	if u.Clear {
		tk.Order = DefaultDraft()
	}
	u.apply(&tk.Order)
	t.bump(idx)
	return tk.ID, created
}

// Freeze records a submitted order as a frozen ticket and discards the open
// drafts, which the submission supersedes.
func (t *Tickets) Freeze(order Draft, resp trade.TradeOrderResponse) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	tk := newTicket()
	tk.Order = order.clone()
	tk.Frozen = true
	tk.OrderID = resp.OrderID
	tk.Status = resp.Status
	tk.Summary = resp.Summary
	tk.FilledAt = copyPtr(resp.FilledAt)
	tk.FillPrice = copyPtr(resp.FillPrice)
	tk.FillValue = copyPtr(resp.FillValue)

	kept := []*Ticket{tk}
	for _, old := range t.list {
		if old.Frozen {
			kept = append(kept, old)
		}
	}
	t.list = kept
	return tk.ID
}

// Sync moves frozen tickets to the status their order has in snap and brings
// the changed ones to the front. It has the Subscriber signature so it can be
// registered with the engine directly.
func (t *Tickets) Sync(snap trade.Snapshot) {
	if len(snap.Orders) == 0 {
		return
	}
	byID := make(map[string]*trade.OrderRecord, len(snap.Orders))
	for i := range snap.Orders {
		byID[snap.Orders[i].OrderID] = &snap.Orders[i]
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var changed, rest []*Ticket
	for _, tk := range t.list {
		rec, ok := byID[tk.OrderID]
		if !tk.Frozen || !ok || rec.Status == tk.Status {
			rest = append(rest, tk)
			continue
		}
		tk.Status = rec.Status
		if rec.Status.Terminal() {
			tk.Summary = fmt.Sprintf("Order %s %s: %s %v %s", rec.OrderID, rec.Status, rec.Side, rec.Quantity, rec.Symbol)
		}
		tk.FilledAt = copyPtr(rec.FilledAt)
		tk.FillPrice = copyPtr(rec.FillPrice)
		tk.FillValue = copyPtr(rec.FillValue)
		changed = append(changed, tk)
	}
	if len(changed) > 0 {
		t.list = append(changed, rest...)
	}
}

// Take removes a complete open draft so it can be submitted
func (t *Tickets) Take(id string) (Draft, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexOf(id)
	if i < 0 {
		return Draft{}, ErrTicketNotFound
	}
	tk := t.list[i]
	if tk.Frozen {
		return Draft{}, ErrTicketFrozen
	}
	if !tk.Order.Complete() {
		return Draft{}, ErrTicketIncomplete
	}
	t.list = append(t.list[:i], t.list[i+1:]...)
	return tk.Order.clone(), nil
}

func (t *Tickets) Delete(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.indexOf(id)
	if i < 0 {
		return false
	}
	t.list = append(t.list[:i], t.list[i+1:]...)
	return true
}

func (t *Tickets) Get(id string) (Ticket, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i := t.indexOf(id); i >= 0 {
		return t.list[i].clone(), true
	}
	return Ticket{}, false
}

// List returns copies of all tickets, front first
func (t *Tickets) List() []Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Ticket, len(t.list))
	for i, tk := range t.list {
		out[i] = tk.clone()
	}
	return out
}
