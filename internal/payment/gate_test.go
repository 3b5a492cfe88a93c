package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xela07ax/txguard-prototype/internal/chain"
	"github.com/xela07ax/txguard-prototype/internal/domain"
	"go.uber.org/zap"
)

const (
	payTo    = "0x4444444444444444444444444444444444444444"
	priceWei = "1000000000000000" // 0.001 ETH = 0x38d7ea4c68000
)

// rpcStub поднимает фейковый JSON-RPC endpoint с заготовленными ответами
// на eth_getTransactionReceipt / eth_getTransactionByHash.
func rpcStub(t *testing.T, receipt, tx string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("stub: bad request: %v", err)
		}

		var result string
		switch req.Method {
		case "eth_getTransactionReceipt":
			result = receipt
		case "eth_getTransactionByHash":
			result = tx
		default:
			result = `"0x1"`
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + result + `}`))
	}))
}

func newGate(endpoint string) *Gate {
	return NewGate(chain.NewRPCClient(endpoint, zap.NewNop()), payTo, priceWei, zap.NewNop())
}

func TestVerifyTxNotFound(t *testing.T) {
	srv := rpcStub(t, `null`, `null`)
	defer srv.Close()

	check := newGate(srv.URL).Verify(context.Background(), "0xdead")
	if check.OK || check.Reason != domain.PayTxNotFound {
		t.Fatalf("expected TX_NOT_FOUND, got %+v", check)
	}
}

func TestVerifyTxReverted(t *testing.T) {
	srv := rpcStub(t, `{"status":"0x0"}`, `null`)
	defer srv.Close()

	check := newGate(srv.URL).Verify(context.Background(), "0xdead")
	if check.OK || check.Reason != domain.PayTxReverted {
		t.Fatalf("expected TX_REVERTED, got %+v", check)
	}
}

func TestVerifyInvalidReceiver(t *testing.T) {
	srv := rpcStub(t,
		`{"status":"0x1"}`,
		`{"from":"0x5555555555555555555555555555555555555555","to":"0x6666666666666666666666666666666666666666","value":"0x38d7ea4c68000"}`)
	defer srv.Close()

	check := newGate(srv.URL).Verify(context.Background(), "0xdead")
	if check.OK || check.Reason != domain.PayInvalidReceiver {
		t.Fatalf("expected INVALID_RECEIVER, got %+v", check)
	}
}

func TestVerifyInsufficientAmount(t *testing.T) {
	srv := rpcStub(t,
		`{"status":"0x1"}`,
		`{"from":"0x5555555555555555555555555555555555555555","to":"`+payTo+`","value":"0x01"}`)
	defer srv.Close()

	check := newGate(srv.URL).Verify(context.Background(), "0xdead")
	if check.OK || check.Reason != domain.PayInsufficientAmount {
		t.Fatalf("expected INSUFFICIENT_AMOUNT, got %+v", check)
	}
}

func TestVerifyAccepts(t *testing.T) {
	srv := rpcStub(t,
		`{"status":"0x1"}`,
		`{"from":"0x5555555555555555555555555555555555555555","to":"`+payTo+`","value":"0x38d7ea4c68000"}`)
	defer srv.Close()

	check := newGate(srv.URL).Verify(context.Background(), "0xdead")
	if !check.OK {
		t.Fatalf("expected payment to verify: %+v", check)
	}
	if check.AmountWei != priceWei {
		t.Fatalf("wrong decoded amount: %s", check.AmountWei)
	}
	if check.Payer != "0x5555555555555555555555555555555555555555" {
		t.Fatalf("payer not captured: %s", check.Payer)
	}
}

// Получатель сверяется без учета регистра адреса.
func TestVerifyReceiverCaseInsensitive(t *testing.T) {
	srv := rpcStub(t,
		`{"status":"0x1"}`,
		`{"from":"0x5555555555555555555555555555555555555555","to":"0x4444444444444444444444444444444444444444","value":"0x38d7ea4c68000"}`)
	defer srv.Close()

	g := NewGate(chain.NewRPCClient(srv.URL, zap.NewNop()),
		"0x4444444444444444444444444444444444444444", priceWei, zap.NewNop())
	if check := g.Verify(context.Background(), "0xdead"); !check.OK {
		t.Fatalf("case difference must not fail verification: %+v", check)
	}
}

func TestVerifyEndpointDown(t *testing.T) {
	srv := rpcStub(t, `null`, `null`)
	srv.Close() // endpoint уже мертв

	check := newGate(srv.URL).Verify(context.Background(), "0xdead")
	if check.OK || check.Reason != domain.PayVerificationError {
		t.Fatalf("expected VERIFICATION_ERROR, got %+v", check)
	}
}
