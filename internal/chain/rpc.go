package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// RPCClient — минимальный JSON-RPC клиент для локального/форкнутого чейна.
// Обернут в Circuit Breaker: если endpoint систематически падает,
// селектор бэкендов мгновенно уходит в мок, не дожидаясь таймаутов.
type RPCClient struct {
	endpoint string
	http     *http.Client
	cb       *gobreaker.CircuitBreaker
	logger   *zap.Logger
}

func NewRPCClient(endpoint string, logger *zap.Logger) *RPCClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "chain-rpc",
		MaxRequests: 2,
		Interval:    10 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
	})

	return &RPCClient{
		endpoint: endpoint,
		http:     &http.Client{},
		cb:       cb,
		logger:   logger.Named("rpc"),
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// Call выполняет один JSON-RPC вызов. Таймаут задается контекстом вызывающего:
// живые вызовы внутри прогона намеренно без собственного дедлайна (см. деградацию в мок).
func (c *RPCClient) Call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	if params == nil {
		params = []interface{}{}
	}
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("rpc: marshal request: %w", err)
	}

	result, err := c.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("rpc: %s: %w", method, err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("rpc: read body: %w", err)
		}

		var parsed rpcResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, fmt.Errorf("rpc: invalid response: %w", err)
		}
		if parsed.Error != nil {
			return nil, fmt.Errorf("rpc: %s: %s (code %d)", method, parsed.Error.Message, parsed.Error.Code)
		}
		return parsed.Result, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(json.RawMessage), nil
}

// Probe — liveness-проверка endpoint'а с коротким таймаутом.
// Единственный вызов с явным дедлайном: по его истечении прогон уходит в мок.
func (c *RPCClient) Probe(ctx context.Context, timeout time.Duration) error {
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := c.Call(pctx, "eth_blockNumber")
	if err != nil {
		c.logger.Warn("chain liveness probe failed, falling back to mock", zap.Error(err))
	}
	return err
}

// Receipt — усеченный eth_getTransactionReceipt.
type Receipt struct {
	Status      string `json:"status"`
	BlockNumber string `json:"blockNumber"`
	From        string `json:"from"`
	To          string `json:"to"`
}

// TxByHash — усеченный eth_getTransactionByHash (для проверки платежа).
type TxByHash struct {
	Hash  string `json:"hash"`
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
}

// WaitReceipt поллит квитанцию до включения транзакции в блок.
// Единственное место с ретраями: сам approve/drain повторно не отправляется никогда.
func (c *RPCClient) WaitReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	var receipt *Receipt

	err := retry.New(
		retry.Context(ctx),
		retry.Attempts(10),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
	).Do(
		func() error {
			raw, err := c.Call(ctx, "eth_getTransactionReceipt", txHash)
			if err != nil {
				return err
			}
			if string(raw) == "null" {
				return fmt.Errorf("rpc: tx %s not yet mined", txHash)
			}
			var r Receipt
			if err := json.Unmarshal(raw, &r); err != nil {
				return retry.Unrecoverable(fmt.Errorf("rpc: invalid receipt: %w", err))
			}
			receipt = &r
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// GetReceipt — одиночный запрос квитанции (nil если транзакции нет).
func (c *RPCClient) GetReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	raw, err := c.Call(ctx, "eth_getTransactionReceipt", txHash)
	if err != nil {
		return nil, err
	}
	if string(raw) == "null" {
		return nil, nil
	}
	var r Receipt
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("rpc: invalid receipt: %w", err)
	}
	return &r, nil
}

// GetTransaction возвращает транзакцию по хэшу (nil если не найдена).
func (c *RPCClient) GetTransaction(ctx context.Context, txHash string) (*TxByHash, error) {
	raw, err := c.Call(ctx, "eth_getTransactionByHash", txHash)
	if err != nil {
		return nil, err
	}
	if string(raw) == "null" {
		return nil, nil
	}
	var tx TxByHash
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, fmt.Errorf("rpc: invalid transaction: %w", err)
	}
	return &tx, nil
}
