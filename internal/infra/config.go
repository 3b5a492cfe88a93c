package infra

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config — корневая структура конфигурации консоли.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// Лимитер на входную точку /chat (rps и burst)
	ChatRateLimit float64 `mapstructure:"chat_rate_limit"`
	ChatRateBurst int     `mapstructure:"chat_rate_burst"`
}

// DatabaseConfig описывает подключение к PostgreSQL.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

// RedisConfig описывает подключение к Redis (Pub/Sub для сигналов политик).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ChainConfig — endpoint форкнутого/локального чейна и известные адреса.
type ChainConfig struct {
	RPCEndpoint  string        `mapstructure:"rpc_endpoint"`
	ChainID      int64         `mapstructure:"chain_id"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"` // liveness probe перед симуляцией

	DescriptorPath string `mapstructure:"descriptor_path"` // JSON с контрактами/кошельками

	// Заполняются из дескриптора (или напрямую из конфига для тестов)
	TokenSymbol   string `mapstructure:"token_symbol"`
	TokenAddress  string `mapstructure:"token_address"`
	TokenDecimals int    `mapstructure:"token_decimals"`
	UserWallet    string `mapstructure:"user_wallet"`

	MaliciousSpender string   `mapstructure:"malicious_spender"`
	RiskySpenders    []string `mapstructure:"risky_spenders"`

	// Стартовый баланс мокового бэкенда (base units)
	MockStartBalance string `mapstructure:"mock_start_balance"`
}

// PipelineConfig — бизнес-пороги движка правил и ретенция прогонов.
// Пороги намеренно вынесены в конфиг: 500/800/0.20 — не зашитая логика.
type PipelineConfig struct {
	AutoApproveLimit   float64       `mapstructure:"auto_approve_limit"`   // display units, < — ALLOW
	HardDenyLimit      float64       `mapstructure:"hard_deny_limit"`      // display units, >= — DENY без override
	LargeApprovalRatio float64       `mapstructure:"large_approval_ratio"` // доля от баланса для LARGE_APPROVAL
	RunRetention       time.Duration `mapstructure:"run_retention"`        // TTL записей в реестре прогонов
}

// PaymentConfig — контракт Payment Gate.
type PaymentConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	PriceWei string `mapstructure:"price_wei"`
	PayTo    string `mapstructure:"pay_to"`
	Memo     string `mapstructure:"memo"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// ChainDescriptor — внешний JSON с адресами развернутых контрактов.
// Читается один раз на старте, его поля перекрывают ChainConfig.
type ChainDescriptor struct {
	ChainID   int64 `json:"chain_id"`
	Contracts []struct {
		Name     string `json:"name"`
		Address  string `json:"address"`
		Decimals int    `json:"decimals"`
		Kind     string `json:"kind"`
	} `json:"contracts"`
	Wallets map[string]string `json:"wallets"` // role -> address
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// ENV перекрывает файл: CHAIN_RPC_ENDPOINT=... перекроет chain.rpc_endpoint
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Файла нет — работаем на ENV и дефолтах
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// Дескриптор чейна (если указан) дополняет конфиг адресами
	if cfg.Chain.DescriptorPath != "" {
		if err := applyDescriptor(&cfg.Chain, cfg.Chain.DescriptorPath); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.chat_rate_limit", 5.0)
	v.SetDefault("server.chat_rate_burst", 10)
	v.SetDefault("database.max_conns", 15)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	v.SetDefault("chain.rpc_endpoint", "http://localhost:8545")
	v.SetDefault("chain.chain_id", 31337)
	v.SetDefault("chain.probe_timeout", 2*time.Second)
	v.SetDefault("chain.token_symbol", "USDT")
	v.SetDefault("chain.token_decimals", 6)
	v.SetDefault("chain.mock_start_balance", "1000000000") // 1000 токенов при decimals=6

	v.SetDefault("pipeline.auto_approve_limit", 500.0)
	v.SetDefault("pipeline.hard_deny_limit", 800.0)
	v.SetDefault("pipeline.large_approval_ratio", 0.20)
	v.SetDefault("pipeline.run_retention", 30*time.Minute)

	v.SetDefault("payment.enabled", false)
	v.SetDefault("payment.price_wei", "1000000000000000") // 0.001 ETH
	v.SetDefault("payment.memo", "txguard run fee")
}

// applyDescriptor читает JSON-дескриптор и переносит адреса в ChainConfig.
func applyDescriptor(cc *ChainConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("chain descriptor: %w", err)
	}

	var desc ChainDescriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return fmt.Errorf("chain descriptor: invalid JSON: %w", err)
	}

	if desc.ChainID != 0 {
		cc.ChainID = desc.ChainID
	}
	for _, c := range desc.Contracts {
		switch c.Kind {
		case "token":
			cc.TokenSymbol = c.Name
			cc.TokenAddress = c.Address
			if c.Decimals > 0 {
				cc.TokenDecimals = c.Decimals
			}
		case "malicious_spender":
			cc.MaliciousSpender = c.Address
		case "risky_spender":
			cc.RiskySpenders = append(cc.RiskySpenders, c.Address)
		}
	}
	if w, ok := desc.Wallets["user"]; ok {
		cc.UserWallet = w
	}
	return nil
}
