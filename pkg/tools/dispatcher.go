package tools

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/uhyunpark/papertrader/pkg/trade"
)

// Engine is the part of the trade engine the tools drive
type Engine interface {
	PlaceOrder(req trade.OrderRequest) trade.TradeOrderResponse
	CancelOrder(orderID string) trade.CancelOrderResponse
	ModifyOrder(orderID string, patch trade.ModifyPatch) trade.ModifyOrderResponse
	ConvertCurrency(from, to trade.Currency, amount float64) trade.FxConvertResponse
	GetAccountSnapshot() trade.Snapshot
}

// errorOutput is the tool output for arguments that never reached the engine
type errorOutput struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type unknownToolOutput struct {
	Error  string `json:"error"`
	CallID string `json:"callId"`
}

type formOutput struct {
	OK       bool   `json:"ok"`
	TicketID string `json:"ticketId"`
	Created  bool   `json:"created"`
}

type handler func(d *Dispatcher, raw string) any

var placeTools = map[string]trade.ProductType{
	PlaceStockOrder:  trade.Stock,
	PlaceFundOrder:   trade.Fund,
	PlaceBondOrder:   trade.Bond,
	PlaceOptionOrder: trade.Option,
	PlaceCryptoOrder: trade.Crypto,
}

var handlers = map[string]handler{
	UpdateOrderForm:    (*Dispatcher).updateOrderForm,
	GetAccountSnapshot: (*Dispatcher).getAccountSnapshot,
	GetMarketPrice:     (*Dispatcher).getMarketPrice,
	ConvertCurrency:    (*Dispatcher).convertCurrency,
	CancelOrder:        (*Dispatcher).cancelOrder,
	ModifyOrder:        (*Dispatcher).modifyOrder,
}

func init() {
	for name, product := range placeTools {
		handlers[name] = placeOrder(product)
	}
}

// Dispatcher turns tool calls from the voice session into engine operations
type Dispatcher struct {
	engine  Engine
	tickets *Tickets
	logger  *zap.Logger
}

func NewDispatcher(engine Engine, tickets *Tickets, logger *zap.Logger) *Dispatcher {
	if tickets == nil {
		tickets = NewTickets()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{engine: engine, tickets: tickets, logger: logger.Named("tools")}
}

func (d *Dispatcher) Tickets() *Tickets { return d.tickets }

// Known reports whether name is a registered tool
func Known(name string) bool {
	_, ok := handlers[name]
	return ok
}

// Invoke runs one tool call and returns its JSON output.
// Malformed input yields a JSON error object; Invoke never panics.
func (d *Dispatcher) Invoke(ctx context.Context, name, callID, argumentsJSON string) (output string) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool_panicked", zap.String("tool", name), zap.String("call_id", callID), zap.Any("panic", r))
			output = encode(errorOutput{Error: "internal error"})
		}
	}()

	d.logger.Debug("tool_invoked", zap.String("tool", name), zap.String("call_id", callID))

	h, ok := handlers[name]
	if !ok {
		d.logger.Warn("tool_unknown", zap.String("tool", name), zap.String("call_id", callID))
		return encode(unknownToolOutput{Error: "unknown tool: " + name, CallID: callID})
	}
	if err := ctx.Err(); err != nil {
		return encode(errorOutput{Error: err.Error()})
	}

	out := h(d, argumentsJSON)
	if ferr, ok := out.(*FieldError); ok {
		d.logger.Info("tool_args_invalid",
			zap.String("tool", name),
			zap.String("call_id", callID),
			zap.String("field", ferr.Field),
			zap.String("error", ferr.Message))
		return encode(errorOutput{Error: ferr.Message, Field: ferr.Field})
	}
	return encode(out)
}

func encode(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		b, _ = json.Marshal(errorOutput{Error: "failed to encode output"})
	}
	return string(b)
}

// ==============================
// Handlers
// ==============================

func placeOrder(product trade.ProductType) handler {
	return func(d *Dispatcher, raw string) any {
		a, ferr := bind[orderArgs](raw)
		if ferr != nil {
			return ferr
		}
		req := a.request(product)
		resp := d.engine.PlaceOrder(req)
		d.tickets.Freeze(draftOf(req), resp)
		return resp
	}
}

func (d *Dispatcher) updateOrderForm(raw string) any {
	u, ferr := bind[FormUpdate](raw)
	if ferr != nil {
		return ferr
	}
	id, created := d.tickets.Update(u)
	return formOutput{OK: true, TicketID: id, Created: created}
}

// getAccountSnapshot takes no arguments, so the payload is not inspected
func (d *Dispatcher) getAccountSnapshot(string) any {
	return d.engine.GetAccountSnapshot()
}

func (d *Dispatcher) getMarketPrice(raw string) any {
	a, ferr := bind[marketPriceArgs](raw)
	if ferr != nil {
		return ferr
	}
	var ccy trade.Currency
	if a.Currency != nil {
		ccy = *a.Currency
	}
	return trade.GetMarketPrice(*a.ProductType, *a.Symbol, ccy)
}

func (d *Dispatcher) convertCurrency(raw string) any {
	a, ferr := bind[convertArgs](raw)
	if ferr != nil {
		return ferr
	}
	return d.engine.ConvertCurrency(*a.From, *a.To, *a.Amount)
}

func (d *Dispatcher) cancelOrder(raw string) any {
	a, ferr := bind[cancelArgs](raw)
	if ferr != nil {
		return ferr
	}
	return d.engine.CancelOrder(strings.TrimSpace(*a.OrderID))
}

func (d *Dispatcher) modifyOrder(raw string) any {
	a, ferr := bind[modifyArgs](raw)
	if ferr != nil {
		return ferr
	}
	return d.engine.ModifyOrder(strings.TrimSpace(*a.OrderID), a.patch())
}

// SubmitTicket places the order held by an open draft ticket and freezes it
// the same way a place_*_order tool call does.
func (d *Dispatcher) SubmitTicket(ticketID string) (trade.TradeOrderResponse, error) {
	draft, err := d.tickets.Take(ticketID)
	if err != nil {
		return trade.TradeOrderResponse{}, err
	}
	resp := d.engine.PlaceOrder(draft.Request())
	d.tickets.Freeze(draft, resp)
	return resp, nil
}

func draftOf(req trade.OrderRequest) Draft {
	return Draft{
		ProductType: req.ProductType,
		Symbol:      req.Symbol,
		Side:        req.Side,
		Quantity:    req.Quantity,
		OrderType:   req.OrderType,
		LimitPrice:  req.LimitPrice,
		Currency:    req.Currency,
		TimeInForce: req.TimeInForce,
		Note:        req.Note,
		OptionType:  req.OptionType,
		Strike:      req.Strike,
		Expiry:      req.Expiry,
		Maturity:    req.Maturity,
	}
}
