package api

import "github.com/uhyunpark/papertrader/pkg/trade"

// API request/response types that are not engine types

// ==============================
// REST Request Types
// ==============================

// FxConvertRequest is the payload for POST /api/v1/fx/convert
type FxConvertRequest struct {
	From   trade.Currency `json:"from"`
	To     trade.Currency `json:"to"`
	Amount float64        `json:"amount"` // amount of From to sell
}

// BalanceAdjustRequest is the payload for POST /api/v1/balance/adjust
type BalanceAdjustRequest struct {
	Currency trade.Currency `json:"currency"`
	Amount   float64        `json:"amount"` // positive = deposit, negative = withdrawal
}

// ==============================
// REST Response Types
// ==============================

// JournalResponse lists recent order transitions, newest first
type JournalResponse struct {
	Enabled bool               `json:"enabled"`
	Events  []trade.OrderEvent `json:"events"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status      string `json:"status"`
	Pending     int    `json:"pending"`     // limit orders waiting to settle
	Subscribers int    `json:"subscribers"` // connected WebSocket clients
}

// ErrorResponse is returned for all errors outside the engine's own responses
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ==============================
// WebSocket Message Types
// ==============================

const ChannelAccount = "account"

// WSMessage is the envelope of every pushed message
type WSMessage struct {
	Type string `json:"type"` // channel name, e.g. "account"
	Data any    `json:"data"`
}

// WSSubscribeRequest is sent by a client to manage its channels
type WSSubscribeRequest struct {
	Op       string   `json:"op"`       // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"` // e.g. ["account"]
}
