package intent

import (
	"errors"
	"testing"

	"github.com/xela07ax/txguard-prototype/internal/domain"
)

var testToken = domain.TokenRef{Symbol: "USDT", Address: "0x9999999999999999999999999999999999999999"}

func newTestParser() *Parser {
	return NewParser(testToken, 6)
}

func TestParseRejectsNonApprovalMessages(t *testing.T) {
	p := newTestParser()

	_, err := p.Parse("send 100 USDT to my friend")
	if !errors.Is(err, domain.ErrUnsupportedIntent) {
		t.Fatalf("expected ErrUnsupportedIntent, got %v", err)
	}
}

func TestParseRequiresSpender(t *testing.T) {
	p := newTestParser()

	_, err := p.Parse("approve 50 USDT please")
	if !errors.Is(err, domain.ErrMissingSpender) {
		t.Fatalf("expected ErrMissingSpender, got %v", err)
	}
}

func TestParseExplicitAmountAndAddress(t *testing.T) {
	p := newTestParser()

	it, err := p.Parse("approve 100 USDT for 0x1111111111111111111111111111111111111111")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.Spender != "0x1111111111111111111111111111111111111111" {
		t.Fatalf("wrong spender: %s", it.Spender)
	}
	if it.Amount != "100000000" {
		t.Fatalf("expected base units 100000000, got %s", it.Amount)
	}
	if it.AmountFormatted != "100" || it.IsUnlimited {
		t.Fatalf("unexpected intent: %+v", it)
	}
	if it.Type != "erc20_approve" {
		t.Fatalf("wrong type: %s", it.Type)
	}
}

func TestParseFractionalAmount(t *testing.T) {
	p := newTestParser()

	it, err := p.Parse("please allow 1.5 tokens to uniswap")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.Amount != "1500000" {
		t.Fatalf("fractional amount scaled wrong: %s", it.Amount)
	}
}

func TestParseUnlimitedKeyword(t *testing.T) {
	p := newTestParser()

	for _, msg := range []string{
		"approve unlimited USDT to uniswap",
		"authorize max spending for uniswap",
		"permit uniswap to spend my tokens forever",
	} {
		it, err := p.Parse(msg)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", msg, err)
		}
		if !it.IsUnlimited {
			t.Fatalf("%q: expected unlimited intent", msg)
		}
		if it.Amount != domain.MaxUint256 {
			t.Fatalf("%q: expected max uint256 sentinel, got %s", msg, it.Amount)
		}
		if it.AmountFormatted != "unlimited" {
			t.Fatalf("%q: wrong formatted amount %s", msg, it.AmountFormatted)
		}
	}
}

func TestParseAliasResolution(t *testing.T) {
	p := newTestParser()

	it, err := p.Parse("approve 25 USDT to Uniswap")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.Spender != "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D" {
		t.Fatalf("alias not resolved: %s", it.Spender)
	}
}

func TestParseFallbackAmount(t *testing.T) {
	p := newTestParser()

	// Суммы в тексте нет — парсер подставляет дефолт, а не фейлится
	it, err := p.Parse("approve USDT spending for uniswap")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.Amount != "10000000" {
		t.Fatalf("expected fallback 10 tokens in base units, got %s", it.Amount)
	}
	if it.AmountFormatted != "10" {
		t.Fatalf("wrong formatted fallback: %s", it.AmountFormatted)
	}
}
