package tools

// Tool names exposed to the voice session
const (
	UpdateOrderForm    = "update_order_form"
	PlaceStockOrder    = "place_stock_order"
	PlaceFundOrder     = "place_fund_order"
	PlaceBondOrder     = "place_bond_order"
	PlaceOptionOrder   = "place_option_order"
	PlaceCryptoOrder   = "place_crypto_order"
	GetAccountSnapshot = "get_account_snapshot"
	GetMarketPrice     = "get_market_price"
	ConvertCurrency    = "convert_currency"
	CancelOrder        = "cancel_order"
	ModifyOrder        = "modify_order"
)

// Definition is one function tool as advertised to the model
type Definition struct {
	Type        string `json:"type"` // always "function"
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  Schema `json:"parameters"`
}

// Schema is a JSON-schema object literal
type Schema map[string]any

var (
	productTypeEnum = []string{"stock", "bond", "fund", "option", "crypto"}
	sideEnum        = []string{"buy", "sell"}
	orderTypeEnum   = []string{"market", "limit"}
	fiatEnum        = []string{"USD", "JPY", "CNY"}
	tifEnum         = []string{"day", "gtc"}
	optionTypeEnum  = []string{"call", "put"}
)

func object(props Schema, required ...string) Schema {
	if required == nil {
		required = []string{}
	}
	return Schema{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func str(desc string) Schema {
	s := Schema{"type": "string"}
	if desc != "" {
		s["description"] = desc
	}
	return s
}

func enum(values []string, desc string) Schema {
	s := str(desc)
	s["enum"] = values
	return s
}

func number(desc string) Schema {
	s := Schema{"type": "number"}
	if desc != "" {
		s["description"] = desc
	}
	return s
}

func boolean(desc string) Schema {
	return Schema{"type": "boolean", "description": desc}
}

// texts holds every localized description; pick one with textsFor
type texts struct {
	symbol, side, quantity, orderType, limitPrice, currency, timeInForce, note string

	cryptoQuantity, cryptoCurrency              string
	optionType, strike, expiry, maturity        string
	ticketID, newTicket, clear                  string
	priceSymbol, priceCurrency, orderID         string
	fxAmount                                    string
	newQuantity, newLimitPrice, newTIF, newNote string

	tool map[string]string
}

var textsEn = texts{
	symbol:      "Symbol or name",
	side:        "Side: buy or sell",
	quantity:    "Quantity (must be > 0)",
	orderType:   "Order type: market or limit",
	limitPrice:  "Limit price (required when orderType=limit; must be > 0)",
	currency:    "Currency (optional; default USD)",
	timeInForce: "Time in force (optional): day or gtc",
	note:        "Note (optional)",

	cryptoQuantity: "Quantity (can be fractional; must be > 0)",
	cryptoCurrency: "Crypto is quoted in USD only (default USD)",
	optionType:     "Option type (optional)",
	strike:         "Strike price (optional)",
	expiry:         "Expiry (optional, e.g. 2026-03-27)",
	maturity:       "Bond maturity (optional, e.g. 2030-06-30)",
	ticketID:       "Optional: draft ticket id to update (usually from the previous update_order_form result).",
	newTicket:      "Optional: create a new draft ticket and update it (for multiple orders). Default false.",
	clear:          "Clear the form before filling (default false).",
	priceSymbol:    "Symbol (e.g., MSFT / BTC)",
	priceCurrency:  "Quote currency (optional; default USD)",
	orderID:        "Order id",
	fxAmount:       "Amount to sell (must be > 0)",
	newQuantity:    "New quantity (optional)",
	newLimitPrice:  "New limit price (optional; for limit orders only)",
	newTIF:         "New time in force (optional)",
	newNote:        "New note (optional)",

	tool: map[string]string{
		UpdateOrderForm:    "Update the UI order draft (no submission). Use this to fill recognized fields into the form during conversation. Partial fields are allowed.",
		PlaceStockOrder:    "Submit a stock order. Use only when details are complete and the user explicitly confirms.",
		PlaceFundOrder:     "Submit a fund order. Use only when details are complete and the user explicitly confirms.",
		PlaceBondOrder:     "Submit a bond order. Use only when details are complete and the user explicitly confirms.",
		PlaceOptionOrder:   "Submit an option order. Use only when details are complete and the user explicitly confirms.",
		PlaceCryptoOrder:   "Submit a crypto order. Use only when details are complete and the user explicitly confirms.",
		GetAccountSnapshot: "Get current account snapshot: cash balances (USD/JPY/CNY only), asset positions (including crypto), and orders list.",
		GetMarketPrice:     "Get an estimated market price (for converting a budget into quantity, or validating price reasonableness).",
		ConvertCurrency:    "Convert between USD/JPY/CNY. Use only when the user explicitly requests currency conversion.",
		CancelOrder:        "Cancel a pending order. Use only when the user explicitly asks to cancel.",
		ModifyOrder:        "Modify a pending order. Use only when the user explicitly asks to modify.",
	},
}

var textsZh = texts{
	symbol:      "标的代码或名称",
	side:        "买卖方向：buy 或 sell",
	quantity:    "数量（必须 > 0）",
	orderType:   "订单类型：market(市价)/limit(限价)",
	limitPrice:  "限价（仅当 orderType=limit 时需要，必须 > 0）",
	currency:    "币种（可选，默认 USD）",
	timeInForce: "有效期（可选）：day 或 gtc",
	note:        "备注（可选）",

	cryptoQuantity: "数量（可为小数；必须 > 0）",
	cryptoCurrency: "数字货币仅支持使用 USD 买卖（默认 USD）",
	optionType:     "期权类型（可选）",
	strike:         "行权价（可选）",
	expiry:         "到期日（可选，例如 2026-03-27）",
	maturity:       "债券到期日（可选，例如 2030-06-30）",
	ticketID:       "可选：要更新的草稿单 id。通常由上一次 update_order_form 的返回值获得。",
	newTicket:      "可选：是否新建一个草稿单并更新它（用于一次填写多笔订单）。默认 false。",
	clear:          "是否清空表单后再填写（默认 false）。",
	priceSymbol:    "标的代码（例如 MSFT / BTC）",
	priceCurrency:  "计价币种（可选，默认 USD）",
	orderID:        "订单号",
	fxAmount:       "换出金额，必须 > 0",
	newQuantity:    "新数量（可选）",
	newLimitPrice:  "新限价（可选，限价单才适用）",
	newTIF:         "新有效期（可选）",
	newNote:        "新备注（可选）",

	tool: map[string]string{
		UpdateOrderForm:    "更新 UI 上的交易表单草稿（不下单）。用于在对话过程中把已识别的字段逐步填写到表单里。字段允许部分提供。",
		PlaceStockOrder:    "提交股票订单。仅在信息齐全且用户明确确认下单时使用。",
		PlaceFundOrder:     "提交基金订单。仅在信息齐全且用户明确确认下单时使用。",
		PlaceBondOrder:     "提交债券订单。仅在信息齐全且用户明确确认下单时使用。",
		PlaceOptionOrder:   "提交期权订单。仅在信息齐全且用户明确确认下单时使用。",
		PlaceCryptoOrder:   "提交数字货币订单。仅在信息齐全且用户明确确认下单时使用。",
		GetAccountSnapshot: "获取当前客户账户信息：现金余额（仅 USD/JPY/CNY）、资产持仓（含数字货币持仓）、订单列表。",
		GetMarketPrice:     "获取当前估算市价（用于把‘按金额下单’换算为数量，或用于校验价格合理性）。",
		ConvertCurrency:    "在 USD/JPY/CNY 之间换汇。仅在用户明确要求时使用。",
		CancelOrder:        "取消待成交（pending）的订单。仅在用户明确要求取消时使用。",
		ModifyOrder:        "修改待成交（pending）的订单（改单）。仅在用户明确要求改单时使用。",
	},
}

// textsFor returns Chinese texts for "zh" and English for anything else
func textsFor(lang string) *texts {
	if lang == "zh" {
		return &textsZh
	}
	return &textsEn
}

// orderProps is the shared parameter set of the place_*_order tools
func orderProps(t *texts) Schema {
	return Schema{
		"symbol":      str(t.symbol),
		"side":        enum(sideEnum, t.side),
		"quantity":    Schema{"type": "integer", "description": t.quantity, "minimum": 1},
		"orderType":   enum(orderTypeEnum, t.orderType),
		"limitPrice":  Schema{"type": "number", "description": t.limitPrice, "minimum": 0},
		"currency":    enum(fiatEnum, t.currency),
		"timeInForce": enum(tifEnum, t.timeInForce),
		"note":        str(t.note),
	}
}

var orderRequired = []string{"symbol", "side", "quantity", "orderType"}

// Definitions returns the tool list in the order it is offered to the model
func Definitions(lang string) []Definition {
	t := textsFor(lang)
	def := func(name string, params Schema) Definition {
		return Definition{Type: "function", Name: name, Description: t.tool[name], Parameters: params}
	}

	option := orderProps(t)
	option["optionType"] = enum(optionTypeEnum, t.optionType)
	option["strike"] = number(t.strike)
	option["expiry"] = str(t.expiry)

	crypto := orderProps(t)
	crypto["quantity"] = Schema{"type": "number", "minimum": 0, "description": t.cryptoQuantity}
	crypto["currency"] = enum([]string{"USD"}, t.cryptoCurrency)

	form := Schema{
		"ticketId":    str(t.ticketID),
		"newTicket":   boolean(t.newTicket),
		"productType": enum(productTypeEnum, ""),
		"symbol":      str(""),
		"side":        enum(sideEnum, ""),
		"quantity":    number(""),
		"orderType":   enum(orderTypeEnum, ""),
		"limitPrice":  number(""),
		"currency":    enum(fiatEnum, ""),
		"timeInForce": enum(tifEnum, ""),
		"note":        str(""),
		"clear":       boolean(t.clear),
		"optionType":  enum(optionTypeEnum, t.optionType),
		"strike":      number(t.strike),
		"expiry":      str(t.expiry),
		"maturity":    str(t.maturity),
	}

	return []Definition{
		def(UpdateOrderForm, object(form)),
		def(PlaceStockOrder, object(orderProps(t), orderRequired...)),
		def(PlaceFundOrder, object(orderProps(t), orderRequired...)),
		def(PlaceBondOrder, object(orderProps(t), orderRequired...)),
		def(PlaceOptionOrder, object(option, orderRequired...)),
		def(PlaceCryptoOrder, object(crypto, orderRequired...)),
		def(GetAccountSnapshot, object(Schema{})),
		def(GetMarketPrice, object(Schema{
			"productType": enum(productTypeEnum, ""),
			"symbol":      str(t.priceSymbol),
			"currency":    enum(fiatEnum, t.priceCurrency),
		}, "productType", "symbol")),
		def(ConvertCurrency, object(Schema{
			"from":   enum(fiatEnum, ""),
			"to":     enum(fiatEnum, ""),
			"amount": number(t.fxAmount),
		}, "from", "to", "amount")),
		def(CancelOrder, object(Schema{
			"orderId": str(t.orderID),
		}, "orderId")),
		def(ModifyOrder, object(Schema{
			"orderId":     str(t.orderID),
			"quantity":    number(t.newQuantity),
			"limitPrice":  number(t.newLimitPrice),
			"timeInForce": enum(tifEnum, t.newTIF),
			"note":        str(t.newNote),
		}, "orderId")),
	}
}
