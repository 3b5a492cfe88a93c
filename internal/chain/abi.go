package chain

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// Селекторы методов ERC-20 (первые 4 байта keccak256 сигнатуры).
const (
	selApprove      = "095ea7b3" // approve(address,uint256)
	selBalanceOf    = "70a08231" // balanceOf(address)
	selAllowance    = "dd62ed3e" // allowance(address,address)
	selTransferFrom = "23b872dd" // transferFrom(address,address,uint256)
)

// packCall собирает calldata: селектор + каждый аргумент, добитый до 32 байт.
// Для демо-консоли нам нужны только address и uint256, полноценный ABI-кодек избыточен.
func packCall(selector string, args ...interface{}) (string, error) {
	var b strings.Builder
	b.WriteString("0x")
	b.WriteString(selector)

	for _, arg := range args {
		switch v := arg.(type) {
		case string: // address
			addr := strings.TrimPrefix(strings.ToLower(v), "0x")
			if len(addr) != 40 {
				return "", fmt.Errorf("abi: invalid address %q", v)
			}
			if _, err := hex.DecodeString(addr); err != nil {
				return "", fmt.Errorf("abi: invalid address %q: %w", v, err)
			}
			b.WriteString(strings.Repeat("0", 24))
			b.WriteString(addr)
		case *big.Int:
			if v.Sign() < 0 {
				return "", fmt.Errorf("abi: negative uint256")
			}
			h := v.Text(16)
			if len(h) > 64 {
				return "", fmt.Errorf("abi: uint256 overflow")
			}
			b.WriteString(strings.Repeat("0", 64-len(h)))
			b.WriteString(h)
		default:
			return "", fmt.Errorf("abi: unsupported argument type %T", arg)
		}
	}
	return b.String(), nil
}

// ApproveCalldata — публичный хелпер: тот же payload кладется в TxRequest результата.
func ApproveCalldata(spender string, amount *big.Int) (string, error) {
	return packCall(selApprove, spender, amount)
}

// decodeQuantity разбирает hex-ответ eth_call / eth_blockNumber в big.Int.
func decodeQuantity(raw string) (*big.Int, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	if s == "" {
		return big.NewInt(0), nil
	}
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("abi: invalid hex quantity %q", raw)
	}
	return n, nil
}
