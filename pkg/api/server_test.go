package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/uhyunpark/papertrader/pkg/storage"
	"github.com/uhyunpark/papertrader/pkg/tools"
	"github.com/uhyunpark/papertrader/pkg/trade"
	"github.com/uhyunpark/papertrader/pkg/util"
)

type testEnv struct {
	srv     *Server
	http    *httptest.Server
	engine  *trade.Engine
	clock   *util.ManualClock
	journal *storage.PebbleJournal
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	journal, err := storage.NewPebbleJournal(filepath.Join(t.TempDir(), "journal"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	clock := util.NewManualClock(time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC))
	engine := trade.New(trade.Options{Clock: clock, Journal: journal})

	srv := NewServer(Options{Engine: engine, Journal: journal})
	ctx, cancel := context.WithCancel(context.Background())
	go srv.hub.Run(ctx)
	hs := httptest.NewServer(srv.Handler())

	t.Cleanup(func() {
		hs.Close()
		cancel()
		srv.Close()
		journal.Close()
		if err := engine.Validate(); err != nil {
			t.Errorf("engine invariants: %v", err)
		}
	})
	return &testEnv{srv: srv, http: hs, engine: engine, clock: clock, journal: journal}
}

func (env *testEnv) do(t *testing.T, method, path, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, env.http.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestServer_OrderLifecycle(t *testing.T) {
	env := newTestEnv(t)

	var placed trade.TradeOrderResponse
	code := env.do(t, "POST", "/api/v1/orders",
		`{"productType":"stock","symbol":"MSFT","side":"buy","quantity":10,"orderType":"limit","limitPrice":100}`, &placed)
	if code != http.StatusOK || placed.Status != trade.StatusPending {
		t.Fatalf("place = %d %+v", code, placed)
	}

	var modified trade.ModifyOrderResponse
	code = env.do(t, "PATCH", "/api/v1/orders/"+placed.OrderID, `{"limitPrice":90}`, &modified)
	if code != http.StatusOK || !modified.OK || *modified.Order.LimitPrice != 90 {
		t.Fatalf("modify = %d %+v", code, modified)
	}

	var canceled trade.CancelOrderResponse
	code = env.do(t, "POST", "/api/v1/orders/"+placed.OrderID+"/cancel", ``, &canceled)
	if code != http.StatusOK || !canceled.OK {
		t.Fatalf("cancel = %d %+v", code, canceled)
	}
	usd, _ := canceled.Snapshot.Balance(trade.USD)
	if usd.Reserved != 0 || usd.Available != 100_000 {
		t.Errorf("usd after cancel = %+v", usd)
	}

	code = env.do(t, "POST", "/api/v1/orders/"+placed.OrderID+"/cancel", ``, &canceled)
	if code != http.StatusUnprocessableEntity || canceled.Error != trade.ErrNotPending.Error() {
		t.Errorf("second cancel = %d %q", code, canceled.Error)
	}
	code = env.do(t, "POST", "/api/v1/orders/ord_missing/cancel", ``, &canceled)
	if code != http.StatusNotFound {
		t.Errorf("missing cancel = %d", code)
	}

	var hist JournalResponse
	env.do(t, "GET", "/api/v1/orders/"+placed.OrderID+"/history", ``, &hist)
	if len(hist.Events) != 3 || hist.Events[2].Kind != trade.EventCanceled {
		t.Errorf("history = %+v", hist.Events)
	}

	var journal JournalResponse
	env.do(t, "GET", "/api/v1/journal?limit=2", ``, &journal)
	if !journal.Enabled || len(journal.Events) != 2 || journal.Events[0].Kind != trade.EventCanceled {
		t.Errorf("journal = %+v", journal)
	}
	if code := env.do(t, "GET", "/api/v1/journal?limit=-1", ``, nil); code != http.StatusBadRequest {
		t.Errorf("bad limit = %d", code)
	}
}

func TestServer_RejectionIsStored(t *testing.T) {
	env := newTestEnv(t)
	var resp trade.TradeOrderResponse
	code := env.do(t, "POST", "/api/v1/orders",
		`{"productType":"crypto","symbol":"DOGE","side":"buy","quantity":1,"orderType":"market"}`, &resp)
	if code != http.StatusOK || resp.Status != trade.StatusRejected || resp.Reason != trade.ErrUnsupportedCrypto.Error() {
		t.Fatalf("place = %d %+v", code, resp)
	}

	var snap trade.Snapshot
	env.do(t, "GET", "/api/v1/account", ``, &snap)
	if _, ok := snap.Order(resp.OrderID); !ok {
		t.Error("rejected order missing from snapshot")
	}

	var bad ErrorResponse
	if code := env.do(t, "POST", "/api/v1/orders", `{"quantity":"lots"`, &bad); code != http.StatusBadRequest {
		t.Errorf("malformed body = %d", code)
	}
}

func TestServer_CashEndpoints(t *testing.T) {
	env := newTestEnv(t)

	var fx trade.FxConvertResponse
	code := env.do(t, "POST", "/api/v1/fx/convert", `{"from":"USD","to":"CNY","amount":1000}`, &fx)
	if code != http.StatusOK || !fx.OK || *fx.Credited != 7200 {
		t.Fatalf("fx = %d %+v", code, fx)
	}
	code = env.do(t, "POST", "/api/v1/fx/convert", `{"from":"USD","to":"CNY","amount":1e9}`, &fx)
	if code != http.StatusUnprocessableEntity || !strings.HasPrefix(fx.Error, trade.ErrInsufficientFunds.Error()) {
		t.Errorf("fx overdraw = %d %q", code, fx.Error)
	}

	var adj trade.BalanceAdjustResponse
	code = env.do(t, "POST", "/api/v1/balance/adjust", `{"currency":"JPY","amount":-500}`, &adj)
	if code != http.StatusOK || !adj.OK {
		t.Fatalf("adjust = %d %+v", code, adj)
	}
	jpy, _ := adj.Snapshot.Balance(trade.JPY)
	if jpy.Available != 9_999_500 {
		t.Errorf("jpy = %v", jpy.Available)
	}
}

func TestServer_MarketPrice(t *testing.T) {
	env := newTestEnv(t)

	var q trade.Quote
	code := env.do(t, "GET", "/api/v1/market/price?productType=crypto&symbol=btc&currency=jpy", ``, &q)
	if code != http.StatusOK || !q.OK || q.Price != 15_000_000 || q.Currency != trade.JPY {
		t.Errorf("quote = %d %+v", code, q)
	}

	again := trade.Quote{}
	env.do(t, "GET", "/api/v1/market/price?productType=stock&symbol=AAPL", ``, &again)
	if !again.OK || again.Price != trade.GetMarketPrice(trade.Stock, "AAPL", trade.USD).Price {
		t.Errorf("stock quote = %+v", again)
	}

	if code := env.do(t, "GET", "/api/v1/market/price?productType=forex&symbol=X", ``, nil); code != http.StatusBadRequest {
		t.Errorf("bad product = %d", code)
	}
	if code := env.do(t, "GET", "/api/v1/market/price?productType=stock&symbol=X&currency=BTC", ``, nil); code != http.StatusBadRequest {
		t.Errorf("crypto quote currency = %d", code)
	}
}

func TestServer_Tools(t *testing.T) {
	env := newTestEnv(t)

	var defs []tools.Definition
	env.do(t, "GET", "/api/v1/tools?lang=zh", ``, &defs)
	if len(defs) != 11 {
		t.Fatalf("tools = %d", len(defs))
	}

	var form map[string]any
	code := env.do(t, "POST", "/api/v1/tools/update_order_form", `{"symbol":"VTI","productType":"fund","quantity":2}`, &form)
	if code != http.StatusOK || form["ok"] != true || form["created"] != true {
		t.Fatalf("update_order_form = %d %v", code, form)
	}
	ticketID := form["ticketId"].(string)

	var tickets []tools.Ticket
	env.do(t, "GET", "/api/v1/tickets", ``, &tickets)
	if len(tickets) != 1 || tickets[0].ID != ticketID || tickets[0].Order.Symbol != "VTI" {
		t.Fatalf("tickets = %+v", tickets)
	}

	var placed trade.TradeOrderResponse
	code = env.do(t, "POST", "/api/v1/tickets/"+ticketID+"/submit", ``, &placed)
	if code != http.StatusOK || placed.Status != trade.StatusFilled {
		t.Fatalf("submit = %d %+v", code, placed)
	}
	if code := env.do(t, "POST", "/api/v1/tickets/"+ticketID+"/submit", ``, nil); code != http.StatusNotFound {
		t.Errorf("resubmit = %d", code)
	}

	var bad map[string]any
	env.do(t, "POST", "/api/v1/tools/cancel_order", `{oops`, &bad)
	if bad["ok"] != false || bad["error"] != "invalid JSON arguments" {
		t.Errorf("malformed tool call = %v", bad)
	}

	req, _ := http.NewRequest("POST", env.http.URL+"/api/v1/tools/nope", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("X-Call-Id", "call_42")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var unknown map[string]any
	json.NewDecoder(resp.Body).Decode(&unknown)
	if resp.StatusCode != http.StatusNotFound || unknown["callId"] != "call_42" || unknown["error"] != "unknown tool: nope" {
		t.Errorf("unknown tool = %d %v", resp.StatusCode, unknown)
	}

	// frozen tickets follow their order
	var limit trade.TradeOrderResponse
	env.do(t, "POST", "/api/v1/tools/place_stock_order", `{"symbol":"AAPL","side":"buy","quantity":1,"orderType":"limit","limitPrice":20}`, &limit)
	env.do(t, "POST", "/api/v1/orders/"+limit.OrderID+"/cancel", ``, nil)
	tickets = nil
	env.do(t, "GET", "/api/v1/tickets", ``, &tickets)
	if len(tickets) == 0 || tickets[0].OrderID != limit.OrderID || tickets[0].Status != trade.StatusCanceled {
		t.Errorf("tickets after cancel = %+v", tickets)
	}
}

func TestServer_Health(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, "POST", "/api/v1/orders",
		`{"productType":"stock","symbol":"AAPL","side":"buy","quantity":1,"orderType":"limit","limitPrice":10}`, nil)

	var h HealthResponse
	if code := env.do(t, "GET", "/health", ``, &h); code != http.StatusOK {
		t.Fatalf("health = %d", code)
	}
	if h.Status != "ok" || h.Pending != 1 {
		t.Errorf("health = %+v", h)
	}
}

func TestServer_CORS(t *testing.T) {
	env := newTestEnv(t)
	req, _ := http.NewRequest("OPTIONS", env.http.URL+"/api/v1/orders", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.Header.Get("Access-Control-Allow-Origin") == "" {
		t.Errorf("preflight not answered: %v", resp.Header)
	}
}

func TestServer_WebSocketPushesSnapshots(t *testing.T) {
	env := newTestEnv(t)

	url := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(WSSubscribeRequest{Op: "subscribe", Channels: []string{ChannelAccount}}); err != nil {
		t.Fatal(err)
	}

	type accountMsg struct {
		Type string         `json:"type"`
		Data trade.Snapshot `json:"data"`
	}
	read := func() accountMsg {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var m accountMsg
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("read: %v", err)
		}
		return m
	}

	// the latest snapshot is replayed on subscribe
	first := read()
	if first.Type != ChannelAccount || len(first.Data.Balances) != 3 {
		t.Fatalf("replay = %+v", first)
	}

	var placed trade.TradeOrderResponse
	env.do(t, "POST", "/api/v1/orders",
		`{"productType":"stock","symbol":"AAPL","side":"buy","quantity":1,"orderType":"market"}`, &placed)

	pushed := read()
	if _, ok := pushed.Data.Order(placed.OrderID); !ok {
		t.Errorf("pushed snapshot lacks order %s", placed.OrderID)
	}
}
