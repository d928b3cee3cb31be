// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/stock-portfolio/internal/logging"
	"github.com/stock-portfolio/internal/models"
	"github.com/stock-portfolio/internal/service"
	"github.com/stock-portfolio/internal/types"
)

// Service interfaces for dependency injection and testing

// AccountServiceInterface defines the interface for account operations
type AccountServiceInterface interface {
	Signup(ctx context.Context, username, password string) (int64, error)
	Authenticate(ctx context.Context, username, password string) (*models.Account, error)
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
}

// LedgerServiceInterface defines the interface for trade and balance operations
type LedgerServiceInterface interface {
	ApplyTrade(ctx context.Context, collectionID int64, symbol string, shares int64, actorID int64) (types.TradeOutcome, error)
	AdjustBalance(ctx context.Context, portfolioID int64, delta decimal.Decimal, actorID int64) (decimal.Decimal, error)
	GetBalance(ctx context.Context, portfolioID, actorID int64) (decimal.Decimal, error)
	ListTransactions(ctx context.Context, portfolioID, actorID int64) ([]*models.Transaction, int, error)
}

// CollectionServiceInterface defines the interface for collection operations
type CollectionServiceInterface interface {
	CreatePortfolio(ctx context.Context, name string, ownerID int64, initialBalance *decimal.Decimal) (int64, error)
	CreateStockList(ctx context.Context, name string, ownerID int64, visibility types.Visibility) (int64, error)
	Get(ctx context.Context, id, viewerID int64) (*models.Collection, error)
	Delete(ctx context.Context, id, actorID int64) error
	ListPortfolios(ctx context.Context, ownerID int64, page, limit int) ([]*models.Collection, int, error)
	ListStockLists(ctx context.Context, ownerID int64, page, limit int) ([]*models.Collection, int, error)
	ListPublicStockLists(ctx context.Context, page, limit int) ([]*models.Collection, int, error)
	ListSharedStockLists(ctx context.Context, viewerID int64, page, limit int) ([]*models.Collection, int, error)
	GetHoldings(ctx context.Context, collectionID, viewerID int64) ([]*models.HoldingQuote, error)
}

// StatisticsServiceInterface defines the interface for statistics operations
type StatisticsServiceInterface interface {
	SymbolStats(ctx context.Context, symbol string) (*models.SymbolStats, error)
	PairStats(ctx context.Context, symbolA, symbolB string) (*models.PairStats, error)
}

// SocialServiceInterface defines the interface for social-graph operations
type SocialServiceInterface interface {
	SendRequest(ctx context.Context, actorID, targetID int64) error
	RespondToRequest(ctx context.Context, actorID, requesterID int64, accept bool) error
	ListIncomingRequests(ctx context.Context, userID int64, page, limit int) ([]int64, int, error)
	ListFriends(ctx context.Context, userID int64, page, limit int) ([]int64, int, error)
	RemoveFriend(ctx context.Context, actorID int64, friendUsername string) error
}

// ReviewServiceInterface defines the interface for review operations
type ReviewServiceInterface interface {
	Create(ctx context.Context, listID, actorID int64, text string) error
	Update(ctx context.Context, listID, actorID int64, text string) error
	Delete(ctx context.Context, listID, reviewerID, actorID int64) error
	List(ctx context.Context, listID, viewerID int64) ([]*models.Review, error)
}

// Server represents the HTTP API server.
type Server struct {
	router      *mux.Router
	httpServer  *http.Server
	accounts    AccountServiceInterface
	ledger      LedgerServiceInterface
	collections CollectionServiceInterface
	statistics  StatisticsServiceInterface
	social      SocialServiceInterface
	reviews     ReviewServiceInterface
	config      *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	accounts *service.AccountService,
	ledger *service.LedgerService,
	collections *service.CollectionService,
	statistics *service.StatisticsService,
	social *service.SocialService,
	reviews *service.ReviewService,
) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		accounts:    accounts,
		ledger:      ledger,
		collections: collections,
		statistics:  statistics,
		social:      social,
		reviews:     reviews,
		config:      config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst)

	// Middleware order matters: the request id must exist before logging,
	// and rate limiting runs after CORS so preflights stay cheap.
	s.router.Use(RequestIDMiddleware)
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// User endpoints
	api.HandleFunc("/users", s.handleSignup).Methods("POST")
	api.HandleFunc("/users/signin", s.handleSignin).Methods("POST")
	api.HandleFunc("/users/me", s.handleGetMe).Methods("GET")
	api.HandleFunc("/users/{id}", s.handleGetUser).Methods("GET")

	// Portfolio endpoints
	api.HandleFunc("/portfolios", s.handleListPortfolios).Methods("GET")
	api.HandleFunc("/portfolios", s.handleCreatePortfolio).Methods("POST")
	api.HandleFunc("/portfolios/{id}", s.handleDeleteCollection).Methods("DELETE")
	api.HandleFunc("/portfolios/{id}/balance", s.handleGetBalance).Methods("GET")
	api.HandleFunc("/portfolios/{id}/balance", s.handleAdjustBalance).Methods("POST")
	api.HandleFunc("/portfolios/{id}/transactions", s.handleListTransactions).Methods("GET")
	api.HandleFunc("/portfolios/{id}/holdings", s.handleGetHoldings).Methods("GET")
	api.HandleFunc("/portfolios/{id}/holdings", s.handleTrade).Methods("POST")

	// Stock list endpoints
	api.HandleFunc("/stock-lists", s.handleListStockLists).Methods("GET")
	api.HandleFunc("/stock-lists", s.handleCreateStockList).Methods("POST")
	api.HandleFunc("/stock-lists/public", s.handleListPublicStockLists).Methods("GET")
	api.HandleFunc("/stock-lists/shared", s.handleListSharedStockLists).Methods("GET")
	api.HandleFunc("/stock-lists/{id}", s.handleDeleteCollection).Methods("DELETE")
	api.HandleFunc("/stock-lists/{id}/holdings", s.handleGetHoldings).Methods("GET")
	api.HandleFunc("/stock-lists/{id}/holdings", s.handleTrade).Methods("POST")

	// Review endpoints
	api.HandleFunc("/stock-lists/{id}/reviews", s.handleListReviews).Methods("GET")
	api.HandleFunc("/stock-lists/{id}/reviews", s.handleCreateReview).Methods("POST")
	api.HandleFunc("/stock-lists/{id}/reviews", s.handleUpdateReview).Methods("PUT")
	api.HandleFunc("/stock-lists/{id}/reviews/{reviewerId}", s.handleDeleteReview).Methods("DELETE")

	// Social endpoints
	api.HandleFunc("/requests", s.handleListRequests).Methods("GET")
	api.HandleFunc("/requests/{userId}", s.handleSendRequest).Methods("POST")
	api.HandleFunc("/requests/{userId}/respond", s.handleRespondToRequest).Methods("POST")
	api.HandleFunc("/friends", s.handleListFriends).Methods("GET")
	api.HandleFunc("/friends/{username}", s.handleRemoveFriend).Methods("DELETE")

	// Statistics endpoints
	api.HandleFunc("/stats/stat1", s.handleSymbolStats).Methods("GET")
	api.HandleFunc("/stats/stat2", s.handlePairStats).Methods("GET")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "stock-portfolio",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.GetGlobalLogger().WithField("addr", s.httpServer.Addr).Info("starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.GetGlobalLogger().Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
