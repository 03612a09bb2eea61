package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"stock-dashboard/src/interfaces"
	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"
	"stock-dashboard/src/utils"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// DashboardServer
// -----------------------------------------------------------------------------

type DashboardServer struct {
	Config *models.MConfig
	Store  interfaces.IStockStore
	Jobs   interfaces.IJobScheduler
	Market *utils.MarketStatus
	Logger *logger.Logger
	engine *gin.Engine

	httpMu sync.Mutex
	http   *http.Server

	// WebSocket clients, owned by the hub goroutine
	clients     map[*Client]struct{}
	clientCount atomic.Int64
	broadcast   chan models.MFetchResult
	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription

	hubOnce  sync.Once
	stopOnce sync.Once
	done     chan struct{}
}

var _ interfaces.IDataExchanger = (*DashboardServer)(nil)

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewDashboardServer(cfg *models.MConfig, store interfaces.IStockStore, jobs interfaces.IJobScheduler, log *logger.Logger) *DashboardServer {
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &DashboardServer{
		Config:     cfg,
		Store:      store,
		Jobs:       jobs,
		Market:     utils.NewMarketStatus(log),
		Logger:     log,
		engine:     gin.New(),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan models.MFetchResult, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan subscription),
		done:       make(chan struct{}),
	}

	s.engine.SetHTMLTemplate(dashboardTemplate)
	s.engine.Use(
		gin.Recovery(),
		RequestID(),
		AccessLog(log),
		CORS(),
	)

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *DashboardServer) setupRoutes() {
	s.engine.GET("/", s.getDashboard)
	s.engine.GET("/stock/:id", s.getStock)
	s.engine.POST("/stock", s.createStock)
	s.engine.DELETE("/stock", s.deleteStock)

	api := s.engine.Group("/api")
	api.GET("/stocks", s.listStocks)
	api.GET("/jobs", s.getJobs)
	api.GET("/health", s.getHealth)

	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------

// Handler exposes the router, mainly for httptest.
func (s *DashboardServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start serves HTTP until Stop is called.
func (s *DashboardServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	s.startHub()
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.httpMu.Lock()
	select {
	case <-s.done:
		s.httpMu.Unlock()
		return nil
	default:
	}
	s.http = httpServer
	s.httpMu.Unlock()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Stop shuts the HTTP listener down and disconnects websocket clients.
func (s *DashboardServer) Stop(ctx context.Context) error {
	s.httpMu.Lock()
	s.stopOnce.Do(func() { close(s.done) })
	httpServer := s.http
	s.httpMu.Unlock()

	if httpServer != nil {
		return httpServer.Shutdown(ctx)
	}
	return nil
}
