// Package server wires the stores, engines and event sinks behind the
// HTTP API.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/chorechart/internal/account"
	"github.com/dukerupert/chorechart/internal/chore"
	"github.com/dukerupert/chorechart/internal/config"
	"github.com/dukerupert/chorechart/internal/event"
	"github.com/dukerupert/chorechart/internal/handler"
	"github.com/dukerupert/chorechart/internal/metrics"
	"github.com/dukerupert/chorechart/internal/middleware"
	"github.com/dukerupert/chorechart/internal/reward"
	"github.com/dukerupert/chorechart/internal/scheduler"
	"github.com/dukerupert/chorechart/internal/store"
	ws "github.com/dukerupert/chorechart/internal/websocket"
)

const (
	loginLimit  = 10
	loginWindow = time.Minute
)

type Server struct {
	db          *sql.DB
	cfg         *config.Config
	hub         *ws.Hub
	bus         *event.Bus
	engine      *chore.Engine
	scheduler   *scheduler.Orchestrator
	rateLimiter *middleware.RateLimiter

	accountH      *handler.AccountHandler
	taskH         *handler.TaskHandler
	rewardH       *handler.RewardHandler
	ledgerH       *handler.LedgerHandler
	notificationH *handler.NotificationHandler
	analyticsH    *handler.AnalyticsHandler

	cancel context.CancelFunc
	logger *slog.Logger
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now in every engine.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	loc := cfg.Location()

	hub := ws.NewHub(logger.With("component", "websocket"))
	bus := event.NewBus(logger)
	bus.Subscribe("notifications", event.NewNotificationSink(store.NewNotificationStore(db)))
	bus.Subscribe("websocket", hub)
	bus.Subscribe("log", event.LogSink(logger.With("component", "events")))

	engine := chore.NewEngine(db, loc, bus, logger, chore.WithClock(o.now))
	rewards := reward.NewService(db, bus, logger, reward.WithClock(o.now))
	accounts := account.NewService(db, logger.With("component", "account"))

	orch, err := scheduler.New(engine, store.NewSettingsStore(db), scheduler.Config{
		Location: loc,
		ResetAt:  cfg.Scheduler.ResetAt,
		Interval: cfg.Scheduler.PollInterval,
	}, logger, scheduler.WithClock(o.now))
	if err != nil {
		return nil, err
	}

	now := func() time.Time { return o.now().In(loc) }

	return &Server{
		db:            db,
		cfg:           cfg,
		hub:           hub,
		bus:           bus,
		engine:        engine,
		scheduler:     orch,
		rateLimiter:   middleware.NewRateLimiter(loginLimit, loginWindow),
		accountH:      handler.NewAccountHandler(accounts, logger.With("component", "account")),
		taskH:         handler.NewTaskHandler(engine, orch, logger.With("component", "task")),
		rewardH:       handler.NewRewardHandler(rewards, logger.With("component", "reward")),
		ledgerH:       handler.NewLedgerHandler(store.NewTransactionStore(db), store.NewUserStore(db), loc, logger.With("component", "ledger")),
		notificationH: handler.NewNotificationHandler(store.NewNotificationStore(db), logger.With("component", "notification")),
		analyticsH:    handler.NewAnalyticsHandler(store.NewAnalyticsStore(db), now, logger.With("component", "analytics")),
		logger:        logger,
	}, nil
}

// Start runs the daily reset scheduler and the rate limiter janitor.
func (s *Server) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.scheduler.Start(ctx)
	go s.rateLimiter.Run(ctx, 5*time.Minute)
}

func (s *Server) Stop() {
	s.scheduler.Stop()
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	if s.cfg.Metrics {
		mux.Handle("GET /metrics", metrics.Handler())
	}
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.cfg.Server.AllowedOrigins, s.logger.With("component", "websocket")))

	mux.Handle("POST /api/login", s.rateLimiter.Middleware(middleware.RealIP)(http.HandlerFunc(s.accountH.Login)))

	mux.HandleFunc("GET /api/roles", s.accountH.ListRoles)
	mux.HandleFunc("POST /api/roles", s.accountH.CreateRole)
	mux.HandleFunc("PUT /api/roles/{id}", s.accountH.UpdateRole)
	mux.HandleFunc("DELETE /api/roles/{id}", s.accountH.DeleteRole)

	mux.HandleFunc("GET /api/users", s.accountH.ListUsers)
	mux.HandleFunc("POST /api/users", s.accountH.CreateUser)
	mux.HandleFunc("GET /api/users/{id}", s.accountH.GetUser)
	mux.HandleFunc("PUT /api/users/{id}/goal", s.rewardH.SetGoal)
	mux.HandleFunc("PUT /api/users/{id}/language", s.accountH.SetUserLanguage)
	mux.HandleFunc("GET /api/users/{id}/instances/today", s.taskH.Today)
	mux.HandleFunc("GET /api/users/{id}/transactions", s.ledgerH.ListForUser)
	mux.HandleFunc("GET /api/users/{id}/notifications", s.notificationH.List)
	mux.HandleFunc("POST /api/users/{id}/notifications/read-all", s.notificationH.MarkAllRead)

	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)
	mux.HandleFunc("POST /api/tasks/import", s.taskH.Import)
	mux.HandleFunc("POST /api/daily-reset", s.taskH.DailyReset)

	mux.HandleFunc("GET /api/instances/pending", s.taskH.Pending)
	mux.HandleFunc("GET /api/instances/review", s.taskH.AwaitingReview)
	mux.HandleFunc("POST /api/instances/{id}/complete", s.taskH.Complete)
	mux.HandleFunc("POST /api/instances/{id}/review", s.taskH.Review)

	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.HandleFunc("POST /api/rewards", s.rewardH.Create)
	mux.HandleFunc("PUT /api/rewards/{id}", s.rewardH.Update)
	mux.HandleFunc("DELETE /api/rewards/{id}", s.rewardH.Delete)
	mux.HandleFunc("POST /api/rewards/{id}/redeem", s.rewardH.Redeem)
	mux.HandleFunc("POST /api/rewards/{id}/redeem-split", s.rewardH.RedeemSplit)

	mux.HandleFunc("GET /api/transactions", s.ledgerH.List)

	mux.HandleFunc("POST /api/notifications/{id}/read", s.notificationH.MarkRead)

	mux.HandleFunc("GET /api/settings/language/default", s.accountH.GetDefaultLanguage)
	mux.HandleFunc("PUT /api/settings/language/default", s.accountH.SetDefaultLanguage)

	mux.HandleFunc("GET /api/analytics/weekly", s.analyticsH.Weekly)
	mux.HandleFunc("GET /api/analytics/distribution", s.analyticsH.Distribution)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
