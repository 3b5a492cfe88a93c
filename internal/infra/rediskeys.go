package infra

const (
	// RedisNamespace — базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "txguard"
)

// Ключи состояния
const (
	// RedisKeyEnforceMode — материализованный бит глобального режима ("1"/"0").
	// Пересчитывается PolicyService при каждой мутации политик.
	RedisKeyEnforceMode = RedisNamespace + ":policies:enforce_mode"

	// RedisKeyLockModeWarmup — распределенная блокировка прогрева бита режима.
	RedisKeyLockModeWarmup = RedisNamespace + ":lock:warmup:enforce_mode"
)

// Каналы Pub/Sub
const (
	// RedisChanPolicyMode — сигнал об изменении глобального режима политик.
	// Все инстансы консоли, подписанные на канал, обновят свой L1 кэш.
	RedisChanPolicyMode = RedisNamespace + ":policies:mode-signal"
)
