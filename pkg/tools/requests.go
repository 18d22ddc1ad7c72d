package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/uhyunpark/papertrader/pkg/trade"
)

const (
	msgInvalidJSON  = "invalid JSON arguments"
	msgInvalidShape = "invalid arguments shape (expected an object)"
)

// FieldError is a shape violation in tool arguments.
// Field is empty when the payload as a whole is unusable.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func required(field string) *FieldError {
	return &FieldError{Field: field, Message: field + " is required"}
}

// args is implemented by every per-tool argument struct
type args interface {
	validate() *FieldError
}

// bind decodes raw into a fresh T and validates it
func bind[T any, P interface {
	*T
	args
}](raw string) (P, *FieldError) {
	p := P(new(T))
	if ferr := decode(raw, p); ferr != nil {
		return nil, ferr
	}
	if ferr := p.validate(); ferr != nil {
		return nil, ferr
	}
	return p, nil
}

func decode(raw string, v any) *FieldError {
	data := bytes.TrimSpace([]byte(raw))
	if len(data) == 0 || !json.Valid(data) {
		return &FieldError{Message: msgInvalidJSON}
	}
	if data[0] != '{' {
		return &FieldError{Message: msgInvalidShape}
	}
	if err := json.Unmarshal(data, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return &FieldError{
				Field:   typeErr.Field,
				Message: fmt.Sprintf("%s must be %s", typeErr.Field, kindName(typeErr.Type)),
			}
		}
		return &FieldError{Message: msgInvalidShape}
	}
	return nil
}

func kindName(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int64:
		return "a finite number"
	}
	return "a valid value"
}

// present reports whether an optional string carries a value
func present[S ~string](s *S) bool {
	return s != nil && *s != ""
}

func checkFiat(field string, c *trade.Currency) *FieldError {
	if present(c) && !c.IsFiat() {
		return &FieldError{Field: field, Message: field + " must be USD|JPY|CNY"}
	}
	return nil
}

func checkTIF(field string, t *trade.TimeInForce) *FieldError {
	if present(t) && !t.Valid() {
		return &FieldError{Field: field, Message: trade.ErrInvalidTimeInForce.Error()}
	}
	return nil
}

func checkOptionType(s *string) *FieldError {
	if present(s) && *s != "call" && *s != "put" {
		return &FieldError{Field: "optionType", Message: "optionType must be call|put"}
	}
	return nil
}

// ==============================
// place_*_order
// ==============================

type orderArgs struct {
	Symbol      *string            `json:"symbol"`
	Side        *trade.Side        `json:"side"`
	Quantity    *float64           `json:"quantity"`
	OrderType   *trade.OrderType   `json:"orderType"`
	LimitPrice  *float64           `json:"limitPrice"`
	Currency    *trade.Currency    `json:"currency"`
	TimeInForce *trade.TimeInForce `json:"timeInForce"`
	Note        *string            `json:"note"`

	OptionType *string  `json:"optionType"`
	Strike     *float64 `json:"strike"`
	Expiry     *string  `json:"expiry"`
	Maturity   *string  `json:"maturity"`
}

func (a *orderArgs) validate() *FieldError {
	switch {
	case a.Symbol == nil:
		return required("symbol")
	case a.Side == nil:
		return required("side")
	case a.Quantity == nil:
		return required("quantity")
	case a.OrderType == nil:
		return required("orderType")
	}
	if !a.Side.Valid() {
		return &FieldError{Field: "side", Message: "side must be buy|sell"}
	}
	if !a.OrderType.Valid() {
		return &FieldError{Field: "orderType", Message: "orderType must be market|limit"}
	}
	if ferr := checkFiat("currency", a.Currency); ferr != nil {
		return ferr
	}
	if ferr := checkTIF("timeInForce", a.TimeInForce); ferr != nil {
		return ferr
	}
	return checkOptionType(a.OptionType)
}

// request builds the engine request for product. Option and bond extras are
// carried only for their own product; crypto always trades in USD.
func (a *orderArgs) request(product trade.ProductType) trade.OrderRequest {
	req := trade.OrderRequest{
		ProductType: product,
		Symbol:      *a.Symbol,
		Side:        *a.Side,
		Quantity:    *a.Quantity,
		OrderType:   *a.OrderType,
		LimitPrice:  a.LimitPrice,
	}
	if a.Currency != nil {
		req.Currency = *a.Currency
	}
	if a.TimeInForce != nil {
		req.TimeInForce = *a.TimeInForce
	}
	if a.Note != nil {
		req.Note = *a.Note
	}
	switch product {
	case trade.Crypto:
		req.Currency = trade.USD
	case trade.Option:
		if a.OptionType != nil {
			req.OptionType = *a.OptionType
		}
		if a.Strike != nil && *a.Strike > 0 {
			req.Strike = a.Strike
		}
		if a.Expiry != nil {
			req.Expiry = *a.Expiry
		}
	case trade.Bond:
		if a.Maturity != nil {
			req.Maturity = *a.Maturity
		}
	}
	return req
}

// ==============================
// update_order_form
// ==============================

func (u *FormUpdate) validate() *FieldError {
	if u.ProductType != nil && !u.ProductType.Valid() {
		return &FieldError{Field: "productType", Message: "productType must be stock|fund|bond|option|crypto"}
	}
	if u.Side != nil && !u.Side.Valid() {
		return &FieldError{Field: "side", Message: "side must be buy|sell"}
	}
	if u.OrderType != nil && !u.OrderType.Valid() {
		return &FieldError{Field: "orderType", Message: "orderType must be market|limit"}
	}
	if u.Currency != nil && !u.Currency.IsFiat() {
		return &FieldError{Field: "currency", Message: "currency must be USD|JPY|CNY"}
	}
	if ferr := checkTIF("timeInForce", u.TimeInForce); ferr != nil {
		return ferr
	}
	return checkOptionType(u.OptionType)
}

// ==============================
// get_market_price
// ==============================

type marketPriceArgs struct {
	ProductType *trade.ProductType `json:"productType"`
	Symbol      *string            `json:"symbol"`
	Currency    *trade.Currency    `json:"currency"`
}

func (a *marketPriceArgs) validate() *FieldError {
	if a.ProductType == nil || !a.ProductType.Valid() {
		return &FieldError{Field: "productType", Message: "productType must be stock|fund|bond|option|crypto"}
	}
	if a.Symbol == nil || strings.TrimSpace(*a.Symbol) == "" {
		return required("symbol")
	}
	return checkFiat("currency", a.Currency)
}

// ==============================
// convert_currency
// ==============================

type convertArgs struct {
	From   *trade.Currency `json:"from"`
	To     *trade.Currency `json:"to"`
	Amount *float64        `json:"amount"`
}

func (a *convertArgs) validate() *FieldError {
	if a.From == nil || !a.From.IsFiat() {
		return &FieldError{Field: "from", Message: "from/to must be USD|JPY|CNY"}
	}
	if a.To == nil || !a.To.IsFiat() {
		return &FieldError{Field: "to", Message: "from/to must be USD|JPY|CNY"}
	}
	if a.Amount == nil || *a.Amount <= 0 {
		return &FieldError{Field: "amount", Message: "amount must be a number > 0"}
	}
	return nil
}

// ==============================
// cancel_order / modify_order
// ==============================

type cancelArgs struct {
	OrderID *string `json:"orderId"`
}

func (a *cancelArgs) validate() *FieldError {
	if a.OrderID == nil || strings.TrimSpace(*a.OrderID) == "" {
		return required("orderId")
	}
	return nil
}

type modifyArgs struct {
	OrderID     *string            `json:"orderId"`
	Quantity    *float64           `json:"quantity"`
	LimitPrice  *float64           `json:"limitPrice"`
	TimeInForce *trade.TimeInForce `json:"timeInForce"`
	Note        *string            `json:"note"`
}

func (a *modifyArgs) validate() *FieldError {
	if a.OrderID == nil || strings.TrimSpace(*a.OrderID) == "" {
		return required("orderId")
	}
	return checkTIF("timeInForce", a.TimeInForce)
}

func (a *modifyArgs) patch() trade.ModifyPatch {
	p := trade.ModifyPatch{
		Quantity:   a.Quantity,
		LimitPrice: a.LimitPrice,
		Note:       a.Note,
	}
	if present(a.TimeInForce) {
		p.TimeInForce = a.TimeInForce
	}
	return p
}
