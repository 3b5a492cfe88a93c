package intent

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/xela07ax/txguard-prototype/internal/domain"
)

// Ключевые слова, по которым сообщение считается запросом на approve.
var approvalKeywords = []string{"approve", "allow", "permit", "authorize"}

// Слова-маркеры безлимитного аппрува.
var unlimitedKeywords = []string{"unlimited", "max", "forever"}

var (
	addressRe = regexp.MustCompile(`0x[0-9a-fA-F]{40}`)
	numberRe  = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// defaultAliases — известные алиасы спендеров. Проверяются только после того,
// как прямое извлечение адреса из текста не дало результата.
var defaultAliases = map[string]string{
	"uniswap": "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D",
}

// Parser превращает свободный текст в структурированный Intent.
// Никаких зависимостей и I/O — чистая функция над конфигом токена.
type Parser struct {
	token    domain.TokenRef
	decimals int
	aliases  map[string]string

	// fallbackTokens — сумма по умолчанию (в целых токенах), если числа в тексте нет.
	// Парсер сознательно не фейлится на отсутствии суммы: раз ключевое слово
	// и спендер найдены, intent всегда резолвится.
	fallbackTokens int64
}

func NewParser(token domain.TokenRef, decimals int) *Parser {
	return &Parser{
		token:          token,
		decimals:       decimals,
		aliases:        defaultAliases,
		fallbackTokens: 10,
	}
}

// Parse извлекает Intent из сообщения пользователя.
// Ошибки: ErrUnsupportedIntent (нет ключевых слов), ErrMissingSpender (нет адреса/алиаса).
func (p *Parser) Parse(message string) (*domain.Intent, error) {
	lower := strings.ToLower(message)

	if !containsAny(lower, approvalKeywords) {
		return nil, domain.ErrUnsupportedIntent
	}

	// 1. Сначала прямой адрес, потом алиасы
	spender := addressRe.FindString(message)
	if spender == "" {
		for alias, addr := range p.aliases {
			if strings.Contains(lower, alias) {
				spender = addr
				break
			}
		}
	}
	if spender == "" {
		return nil, domain.ErrMissingSpender
	}

	it := &domain.Intent{
		Type:    "erc20_approve",
		Token:   p.token,
		Spender: spender,
	}

	if containsAny(lower, unlimitedKeywords) {
		it.Amount = domain.MaxUint256
		it.AmountFormatted = "unlimited"
		it.IsUnlimited = true
		return it, nil
	}

	// Берем первое число из текста; если его нет — сумма по умолчанию
	raw := numberRe.FindString(message)
	if raw == "" {
		it.Amount = scaleTokens(big.NewRat(p.fallbackTokens, 1), p.decimals)
		it.AmountFormatted = big.NewInt(p.fallbackTokens).String()
		return it, nil
	}

	rat, ok := new(big.Rat).SetString(raw)
	if !ok {
		// Регулярка гарантирует валидное число, но перестрахуемся
		rat = big.NewRat(p.fallbackTokens, 1)
		raw = big.NewInt(p.fallbackTokens).String()
	}

	it.Amount = scaleTokens(rat, p.decimals)
	it.AmountFormatted = raw
	return it, nil
}

// scaleTokens переводит display units в base units: amount * 10^decimals.
// Считаем на big.Rat, чтобы "1.5" не потеряла дробную часть.
func scaleTokens(amount *big.Rat, decimals int) string {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	scaled := new(big.Rat).Mul(amount, new(big.Rat).SetInt(scale))

	// Отбрасываем хвост мельче одной base unit
	result := new(big.Int).Quo(scaled.Num(), scaled.Denom())
	return result.String()
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
