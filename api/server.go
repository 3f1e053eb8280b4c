// Package api serves portfolios over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/etnz/realfolio"
	"github.com/etnz/realfolio/bls"
	"github.com/etnz/realfolio/date"
	gin "github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// MarketInfo supplies the live reference data exposed by the server.
type MarketInfo interface {
	LiveRate(ctx context.Context) realfolio.Rate
	BankRate(ctx context.Context) realfolio.BankRate
	CPIPoints(ctx context.Context) []realfolio.CPIPoint
	Expected(ctx context.Context) bls.Expectation
}

// Server wires the router to the portfolio service.
type Server struct {
	R       *gin.Engine
	Service *realfolio.Service
	Info    MarketInfo
	Logger  *zap.Logger

	handler  http.Handler
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewServer wires the router, middleware and metrics. corsOrigin "*" allows any origin.
func NewServer(svc *realfolio.Service, info MarketInfo, logger *zap.Logger, corsOrigin string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		R:        gin.New(),
		Service:  svc,
		Info:     info,
		Logger:   logger,
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realfolio",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"handler", "method", "status"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realfolio",
			Name:      "rejected_transactions_total",
			Help:      "Transactions rejected by ledger validation",
		}, []string{"command", "reason"}),
	}
	s.registry.MustRegister(s.requests, s.rejected)

	g := s.R
	g.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		s.requests.WithLabelValues(c.FullPath(), c.Request.Method, strconv.Itoa(status)).Inc()
		logger.Info("http_request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		)
	})
	g.Use(gin.Recovery())

	g.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	g.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	p := g.Group("/api/portfolios/:portfolio")
	p.POST("/transactions", s.postTransaction)
	p.GET("/transactions", s.getTransactions)
	p.DELETE("/transactions/:id", s.deleteTransaction)
	p.GET("/snapshot", s.getSnapshot)
	p.GET("/pnl", s.getPnL)

	g.GET("/api/cpi", s.getCPI)
	g.GET("/api/rates", s.getRates)

	origins := []string{corsOrigin}
	s.handler = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	}).Handler(g)
	return s
}

// Handler returns the http handler, with CORS.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.Logger.Info("server started", zap.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.Logger.Info("server stopped")
	return nil
}

// --- Helpers ---

// fail writes the error with the status matching its cause.
func (s *Server) fail(c *gin.Context, where string, err error) {
	var status int
	var code string
	switch {
	case errors.Is(err, realfolio.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, realfolio.ErrInsufficientFunds), errors.Is(err, realfolio.ErrInsufficientHoldings):
		status, code = http.StatusConflict, "rejected"
	case errors.Is(err, realfolio.ErrInvalidAmount), errors.Is(err, realfolio.ErrInvalidDate):
		status, code = http.StatusBadRequest, "bad_request"
	case errors.Is(err, realfolio.ErrMissingRate):
		status, code = http.StatusServiceUnavailable, "missing_rate"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusServiceUnavailable, "unavailable"
	default:
		s.Logger.Error("internal_error", zap.String("where", where), zap.Error(err))
		c.JSON(http.StatusInternalServerError, apiError{Code: "internal_server_error", Message: "internal server error"})
		return
	}
	c.JSON(status, apiError{Code: code, Message: err.Error()})
}

func (s *Server) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, apiError{Code: "bad_request", Message: msg})
}

// reason labels a rejection for the metrics.
func reason(err error) string {
	switch {
	case errors.Is(err, realfolio.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, realfolio.ErrInsufficientHoldings):
		return "insufficient_holdings"
	case errors.Is(err, realfolio.ErrNotFound):
		return "not_found"
	case errors.Is(err, realfolio.ErrInvalidAmount), errors.Is(err, realfolio.ErrInvalidDate):
		return "invalid"
	default:
		return "other"
	}
}

// --- Handlers ---

func (s *Server) postTransaction(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}
	tx, err := realfolio.DecodeTransaction(body)
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}
	recorded, err := s.Service.Append(c.Request.Context(), c.Param("portfolio"), tx)
	if err != nil {
		s.rejected.WithLabelValues(string(tx.What()), reason(err)).Inc()
		s.fail(c, "append", err)
		return
	}
	c.JSON(http.StatusCreated, realfolio.TransactionView{Transaction: recorded})
}

func (s *Server) getTransactions(c *gin.Context) {
	limit := realfolio.DefaultListLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.badRequest(c, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}
	txs, err := s.Service.Transactions(c.Request.Context(), c.Param("portfolio"), limit)
	if err != nil {
		s.fail(c, "transactions", err)
		return
	}
	rows := make([]realfolio.TransactionView, len(txs))
	for i, tx := range txs {
		rows[i] = realfolio.TransactionView{Transaction: tx}
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

func (s *Server) deleteTransaction(c *gin.Context) {
	if err := s.Service.Delete(c.Request.Context(), c.Param("portfolio"), c.Param("id")); err != nil {
		s.rejected.WithLabelValues("delete", reason(err)).Inc()
		s.fail(c, "delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getSnapshot(c *gin.Context) {
	var on date.Date
	if v := c.Query("date"); v != "" {
		d, err := date.Parse(v)
		if err != nil {
			s.fail(c, "snapshot", fmt.Errorf("%w: %w", err, realfolio.ErrInvalidDate))
			return
		}
		on = d
	}
	view, err := s.Service.Snapshot(c.Request.Context(), c.Param("portfolio"), on)
	if err != nil {
		s.fail(c, "snapshot", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) getPnL(c *gin.Context) {
	view, err := s.Service.PeriodPnL(c.Request.Context(), c.Param("portfolio"), c.Query("period"))
	if err != nil {
		s.fail(c, "pnl", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) getCPI(c *gin.Context) {
	ctx := c.Request.Context()
	c.JSON(http.StatusOK, gin.H{
		"quarters": s.Info.CPIPoints(ctx),
		"expected": s.Info.Expected(ctx),
	})
}

func (s *Server) getRates(c *gin.Context) {
	ctx := c.Request.Context()
	c.JSON(http.StatusOK, gin.H{
		"usd_try": s.Info.LiveRate(ctx),
		"bank":    s.Info.BankRate(ctx),
	})
}
