package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/txguard-prototype/internal/audit"
	"github.com/xela07ax/txguard-prototype/internal/chain"
	"github.com/xela07ax/txguard-prototype/internal/console/handler"
	"github.com/xela07ax/txguard-prototype/internal/console/server"
	"github.com/xela07ax/txguard-prototype/internal/console/service"
	"github.com/xela07ax/txguard-prototype/internal/delta"
	"github.com/xela07ax/txguard-prototype/internal/domain"
	"github.com/xela07ax/txguard-prototype/internal/infra"
	"github.com/xela07ax/txguard-prototype/internal/intent"
	"github.com/xela07ax/txguard-prototype/internal/judge"
	"github.com/xela07ax/txguard-prototype/internal/payment"
	"github.com/xela07ax/txguard-prototype/internal/policy"
	"github.com/xela07ax/txguard-prototype/internal/repository/postgres"
	"github.com/xela07ax/txguard-prototype/internal/run"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 2. Инфраструктура и ресурсы
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	store := postgres.NewStore(cfg.Database.URL)
	defer store.Close()

	// Проверяем соединение с таймаутом
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := store.Ping(pingCtx); err != nil {
		logger.Fatal("Database unreachable", zap.Error(err))
	}
	pingCancel()

	// Контекст для управления жизненным циклом фоновых горутин
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Control Plane: материализованный глобальный режим политик
	modeManager := policy.NewEnforceModeManager(store, rdb, logger)
	if err := modeManager.Init(appCtx); err != nil {
		logger.Fatal("Failed to init enforce-mode manager", zap.Error(err))
	}
	go modeManager.StartListener(appCtx)

	// Пакетный писатель аудита: события летят в базу пачками
	trail := audit.NewTrail(store, logger)
	trail.Start()
	defer trail.Stop()

	// 4. Чейн-слой: JSON-RPC клиент, live и mock бэкенды, селектор
	token := domain.TokenRef{
		Symbol:  cfg.Chain.TokenSymbol,
		Address: cfg.Chain.TokenAddress,
	}
	rpc := chain.NewRPCClient(cfg.Chain.RPCEndpoint, logger)
	live := chain.NewLiveBackend(rpc, token, cfg.Chain.UserWallet, cfg.Chain.MaliciousSpender, logger)
	mock := chain.NewMockBackend(token, cfg.Chain.UserWallet, cfg.Chain.MockStartBalance, cfg.Chain.RiskySpenders, logger)
	selector := chain.NewSelector(rpc, live, mock, cfg.Chain.ProbeTimeout, logger)

	// 5. Пайплайн: парсер -> симуляция -> дельта -> вердикт
	parser := intent.NewParser(token, cfg.Chain.TokenDecimals)
	analyzer := delta.NewAnalyzer(cfg.Chain.UserWallet, token, cfg.Chain.TokenDecimals,
		cfg.Chain.MaliciousSpender, cfg.Pipeline.LargeApprovalRatio)
	engine := judge.NewEngine(cfg.Chain.MaliciousSpender, cfg.Chain.TokenDecimals, judge.Thresholds{
		AutoApproveLimit:   cfg.Pipeline.AutoApproveLimit,
		HardDenyLimit:      cfg.Pipeline.HardDenyLimit,
		LargeApprovalRatio: cfg.Pipeline.LargeApprovalRatio,
	})

	// Метрики
	promRegistry := prometheus.NewRegistry()
	metrics := run.NewMetrics(promRegistry)

	registry := run.NewRegistry(cfg.Pipeline.RunRetention)
	go registry.StartJanitor(appCtx)

	orch := run.NewOrchestrator(
		parser, selector, analyzer, engine,
		modeManager, store, trail,
		registry, run.NewBus(), metrics, logger,
	)

	// 6. Сервисный слой и HTTP
	policyService := service.NewPolicyService(store, modeManager)
	recordsService := service.NewRecordsService(store)

	gate := payment.NewGate(rpc, cfg.Payment.PayTo, cfg.Payment.PriceWei, logger)

	consoleSrv := server.NewConsoleServer(
		cfg, logger,
		handler.NewChatHandler(orch, parser, gate, cfg, logger),
		handler.NewStreamHandler(orch, logger),
		handler.NewPolicyHandler(policyService),
		handler.NewTransactionHandler(recordsService),
		handler.NewAlertHandler(recordsService),
		handler.NewSimulationHandler(recordsService),
		handler.NewAuditHandler(recordsService),
		handler.NewAllowanceHandler(recordsService),
		handler.NewContractHandler(recordsService),
		handler.NewDashboardHandler(recordsService),
		promRegistry,
	)

	// Известные контракты из дескриптора регистрируем в консоли
	seedContracts(appCtx, cfg, recordsService, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      consoleSrv,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 7. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Console started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop // Ждем сигнал
	logger.Info("Console stopping...")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	logger.Info("Console exited properly")
}

// seedContracts переносит адреса из ChainConfig в таблицу контрактов,
// чтобы консоль показывала, с чем работает демо-чейн.
func seedContracts(ctx context.Context, cfg *infra.Config, svc *service.RecordsService, logger *zap.Logger) {
	refs := make([]*domain.ContractRef, 0, 3+len(cfg.Chain.RiskySpenders))
	if cfg.Chain.TokenAddress != "" {
		refs = append(refs, &domain.ContractRef{
			Name: cfg.Chain.TokenSymbol, Address: cfg.Chain.TokenAddress,
			Decimals: cfg.Chain.TokenDecimals, Kind: "token",
		})
	}
	if cfg.Chain.MaliciousSpender != "" {
		refs = append(refs, &domain.ContractRef{
			Name: "malicious-spender", Address: cfg.Chain.MaliciousSpender, Kind: "spender",
		})
	}
	for _, addr := range cfg.Chain.RiskySpenders {
		refs = append(refs, &domain.ContractRef{Name: "risky-spender", Address: addr, Kind: "spender"})
	}
	if cfg.Chain.UserWallet != "" {
		refs = append(refs, &domain.ContractRef{Name: "user", Address: cfg.Chain.UserWallet, Kind: "wallet"})
	}

	for _, ref := range refs {
		ref.ID = ref.Address // Адрес уникален, естественный ключ
		ref.CreatedAt = time.Now()
		if err := svc.UpsertContract(ctx, ref); err != nil {
			logger.Warn("failed to seed contract", zap.String("address", ref.Address), zap.Error(err))
		}
	}
}
