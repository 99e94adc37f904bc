package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/pjhalloran/questkeep/internal/clock"
	"github.com/pjhalloran/questkeep/internal/engine"
	"github.com/pjhalloran/questkeep/internal/handler"
	"github.com/pjhalloran/questkeep/internal/middleware"
	"github.com/pjhalloran/questkeep/internal/notify"
	"github.com/pjhalloran/questkeep/internal/push"
	"github.com/pjhalloran/questkeep/internal/store"
	ws "github.com/pjhalloran/questkeep/internal/websocket"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	engine       *engine.Engine
	authH        *handler.AuthHandler
	accountH     *handler.AccountHandler
	taskH        *handler.TaskHandler
	rewardH      *handler.RewardHandler
	ledgerH      *handler.LedgerHandler
	systemH      *handler.SystemHandler
	pushH        *handler.PushHandler
	sessionStore *store.SessionStore
	accountStore *store.AccountStore
	pushStore    *store.PushStore
	rateLimiter  *middleware.RateLimiter
	pushService  *push.Service
	logger       *slog.Logger
}

func New(db *sql.DB, pushCfg push.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	accountStore := store.NewAccountStore(db)
	sessionStore := store.NewSessionStore(db)
	pushStore := store.NewPushStore(db)

	var pushSvc *push.Service
	if pushCfg.VAPIDPublicKey != "" && pushCfg.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(pushCfg.VAPIDPublicKey, pushCfg.VAPIDPrivateKey)
	}

	dispatcher := notify.NewDispatcher(hub, pushSvc, pushStore, logger.With("component", "notify"))
	eng := engine.New(db, clock.System{}, dispatcher.Sink(), logger.With("component", "engine"))

	return &Server{
		db:           db,
		hub:          hub,
		engine:       eng,
		authH:        handler.NewAuthHandler(accountStore, sessionStore, logger.With("component", "auth")),
		accountH:     handler.NewAccountHandler(eng, logger.With("component", "account")),
		taskH:        handler.NewTaskHandler(eng, logger.With("component", "task")),
		rewardH:      handler.NewRewardHandler(eng, logger.With("component", "reward")),
		ledgerH:      handler.NewLedgerHandler(eng, logger.With("component", "ledger")),
		systemH:      handler.NewSystemHandler(eng, logger.With("component", "system")),
		pushH:        handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push")),
		sessionStore: sessionStore,
		accountStore: accountStore,
		pushStore:    pushStore,
		rateLimiter:  middleware.NewRateLimiter(10, time.Minute),
		pushService:  pushSvc,
		logger:       logger,
	}
}

// Engine returns the game engine for startup tasks.
func (s *Server) Engine() *engine.Engine {
	return s.engine
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /api/accounts", s.accountH.List)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.accountStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.Limit(s.rateLimiter, keyFunc)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	parent := middleware.RequireParent

	// Auth
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)

	// Accounts
	mux.Handle("POST /api/accounts", parent(http.HandlerFunc(s.accountH.Create)))
	mux.HandleFunc("GET /api/accounts/children", s.accountH.ListChildren)
	mux.HandleFunc("GET /api/accounts/{id}", s.accountH.Get)
	mux.Handle("PUT /api/accounts/{id}", parent(http.HandlerFunc(s.accountH.Update)))
	mux.Handle("DELETE /api/accounts/{id}", parent(http.HandlerFunc(s.accountH.Delete)))
	mux.HandleFunc("GET /api/accounts/{id}/summary", s.accountH.Summary)
	mux.Handle("PUT /api/accounts/{id}/pin", parent(http.HandlerFunc(s.authH.SetPIN)))

	// Task definitions (parent manages the catalog)
	mux.Handle("POST /api/task-definitions", parent(http.HandlerFunc(s.taskH.CreateDefinition)))
	mux.HandleFunc("GET /api/task-definitions", s.taskH.ListDefinitions)
	mux.Handle("PUT /api/task-definitions/{id}", parent(http.HandlerFunc(s.taskH.UpdateDefinition)))
	mux.Handle("DELETE /api/task-definitions/{id}", parent(http.HandlerFunc(s.taskH.DeleteDefinition)))

	// Task lifecycle
	mux.HandleFunc("GET /api/tasks", s.taskH.ListBoard)
	mux.Handle("GET /api/tasks/pending-review", parent(http.HandlerFunc(s.taskH.ListPendingReview)))
	mux.HandleFunc("POST /api/tasks/{id}/select", s.taskH.Select)
	mux.HandleFunc("POST /api/tasks/{id}/submit", s.taskH.Submit)
	mux.HandleFunc("POST /api/tasks/{id}/retry", s.taskH.Retry)
	mux.Handle("POST /api/tasks/{id}/verify", parent(http.HandlerFunc(s.taskH.Verify)))
	mux.Handle("POST /api/tasks/{id}/deny", parent(http.HandlerFunc(s.taskH.Deny)))

	// Rewards
	mux.Handle("POST /api/rewards", parent(http.HandlerFunc(s.rewardH.Create)))
	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.HandleFunc("GET /api/rewards/available", s.rewardH.ListAvailable)
	mux.HandleFunc("GET /api/rewards/limited", s.rewardH.ListLimitedTime)
	mux.HandleFunc("GET /api/rewards/cash-out", s.rewardH.CashOutTiers)
	mux.Handle("PUT /api/rewards/{id}", parent(http.HandlerFunc(s.rewardH.Update)))
	mux.Handle("DELETE /api/rewards/{id}", parent(http.HandlerFunc(s.rewardH.Delete)))
	mux.HandleFunc("POST /api/rewards/{id}/claim", s.rewardH.Claim)

	// Claims
	mux.Handle("GET /api/claims/pending", parent(http.HandlerFunc(s.rewardH.ListPendingClaims)))
	mux.HandleFunc("GET /api/accounts/{id}/claims", s.rewardH.ListClaimsByChild)
	mux.Handle("POST /api/claims/{id}/approve", parent(http.HandlerFunc(s.rewardH.ApproveClaim)))
	mux.Handle("POST /api/claims/{id}/deny", parent(http.HandlerFunc(s.rewardH.DenyClaim)))

	// XP ledger
	mux.Handle("POST /api/deductions", parent(http.HandlerFunc(s.ledgerH.ApplyDeduction)))
	mux.HandleFunc("GET /api/accounts/{id}/deductions", s.ledgerH.History)
	mux.HandleFunc("GET /api/accounts/{id}/redemption-quests", s.ledgerH.OpenRedemptionQuests)
	mux.Handle("POST /api/deductions/{id}/redeem", parent(http.HandlerFunc(s.ledgerH.CompleteRedemption)))

	// System
	mux.Handle("POST /api/system/reset", parent(http.HandlerFunc(s.systemH.ResetDay)))
	mux.HandleFunc("GET /api/settings", s.systemH.GetSettings)
	mux.Handle("PUT /api/settings", parent(http.HandlerFunc(s.systemH.UpdateSettings)))

	// Push notifications
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	mux.HandleFunc("POST /api/push/test", s.pushH.TestNotification)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
