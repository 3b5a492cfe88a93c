package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xela07ax/txguard-prototype/internal/console/handler"
	"github.com/xela07ax/txguard-prototype/internal/infra"
	"go.uber.org/zap"
)

type ConsoleServer struct {
	router *chi.Mux
	logger *zap.Logger
	cfg    *infra.Config

	// Обработчики бизнес-доменов
	chatHandler        *handler.ChatHandler        // /chat
	streamHandler      *handler.StreamHandler      // /stream (SSE)
	policyHandler      *handler.PolicyHandler      // /v1/policies
	transactionHandler *handler.TransactionHandler // /v1/transactions
	alertHandler       *handler.AlertHandler       // /v1/alerts
	simulationHandler  *handler.SimulationHandler  // /v1/simulations
	auditHandler       *handler.AuditHandler       // /v1/audit (Logs)
	allowanceHandler   *handler.AllowanceHandler   // /v1/allowances
	contractHandler    *handler.ContractHandler    // /v1/contracts
	dashHandler        *handler.DashboardHandler   // /api/v1/dashboard

	promRegistry *prometheus.Registry
}

// NewConsoleServer инициализирует сервер консоли со всеми зависимостями
func NewConsoleServer(
	cfg *infra.Config,
	logger *zap.Logger,
	chatH *handler.ChatHandler,
	streamH *handler.StreamHandler,
	policyH *handler.PolicyHandler,
	txH *handler.TransactionHandler,
	alertH *handler.AlertHandler,
	simH *handler.SimulationHandler,
	auditH *handler.AuditHandler,
	allowH *handler.AllowanceHandler,
	contractH *handler.ContractHandler,
	dashH *handler.DashboardHandler,
	promRegistry *prometheus.Registry,
) *ConsoleServer {
	s := &ConsoleServer{
		router:             chi.NewRouter(),
		logger:             logger.Named("console-api"),
		cfg:                cfg,
		chatHandler:        chatH,
		streamHandler:      streamH,
		policyHandler:      policyH,
		transactionHandler: txH,
		alertHandler:       alertH,
		simulationHandler:  simH,
		auditHandler:       auditH,
		allowanceHandler:   allowH,
		contractHandler:    contractH,
		dashHandler:        dashH,
		promRegistry:       promRegistry,
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// --- 2. Пайплайн прогонов ---
	r.Post("/chat", s.chatHandler.Post)                // Вход: свободный текст -> run_id (или 402)
	r.Get("/chat", s.chatHandler.Get)                  // Polling статуса по runId
	r.Get("/stream/{runID}", s.streamHandler.Stream)   // SSE стадий прогона

	// --- 3. Наблюдаемость ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.promRegistry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}))
	}

	// --- 4. Read/write-плоскость консоли ---

	// Управление политиками и глобальным режимом
	r.Route("/v1/policies", func(r chi.Router) {
		r.Get("/", s.policyHandler.List)
		r.Post("/", s.policyHandler.Create)
		r.Get("/mode", s.policyHandler.GetMode)  // Текущий глобальный режим
		r.Post("/mode", s.policyHandler.SetMode) // Bulk enforce/monitor
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.policyHandler.Get)
			r.Put("/", s.policyHandler.Update)
			r.Delete("/", s.policyHandler.Delete)
		})
	})

	// Очередь транзакций (статусы, он-чейн хэши)
	r.Route("/v1/transactions", func(r chi.Router) {
		r.Get("/", s.transactionHandler.List)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.transactionHandler.Get)
			r.Patch("/status", s.transactionHandler.PatchStatus)
			r.Post("/hash", s.transactionHandler.PostHash)
		})
	})

	// Алерты monitor-режима
	r.Route("/v1/alerts", func(r chi.Router) {
		r.Get("/", s.alertHandler.List)
		r.Post("/{id}/ack", s.alertHandler.Ack)
	})

	// Отчеты симуляций
	r.Route("/v1/simulations", func(r chi.Router) {
		r.Get("/", s.simulationHandler.List)
		r.Get("/{runID}", s.simulationHandler.GetByRun)
	})

	// Аудит и Логи (Observability)
	r.Get("/v1/audit", s.auditHandler.GetLogs)

	// Бухгалтерия аппрувов и известные контракты
	r.Get("/v1/allowances", s.allowanceHandler.List)
	r.Route("/v1/contracts", func(r chi.Router) {
		r.Get("/", s.contractHandler.List)
		r.Post("/", s.contractHandler.Upsert)
	})

	// Dashboard & Stats
	r.Get("/api/v1/dashboard/stats", s.dashHandler.GetStats)
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
