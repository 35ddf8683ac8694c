package rpcserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"

	"anchorsvm/internal/pkg/config"
	"anchorsvm/internal/pkg/log"
	"anchorsvm/internal/pkg/metrics"
	"anchorsvm/svm"
)

const (
	apiReadTimeout  = 5 * time.Second
	apiWriteTimeout = 30 * time.Second

	statusCacheTTL     = 5 * time.Minute
	statusCacheCleanup = 10 * time.Minute

	serverShutdownTimeout = 10 * time.Second
)

// Server exposes the in-process harness over the Solana JSON-RPC wire
// protocol so standard RPC clients can drive it.
type Server struct {
	router        *echo.Echo
	metricsServer *echo.Echo
	vm            *svm.SVM
	statusCache   *cache.Cache
	cfg           config.Config

	waitGroup *sync.WaitGroup
	ctx       context.Context
	ctxCancel context.CancelFunc
}

func New(cfg config.Config, vm *svm.SVM) (*Server, error) {
	ctx, cancelFunc := context.WithCancel(context.Background())

	s := &Server{
		router:        echo.New(),
		metricsServer: echo.New(),
		vm:            vm,
		statusCache:   cache.New(statusCacheTTL, statusCacheCleanup),
		cfg:           cfg,

		waitGroup: &sync.WaitGroup{},
		ctx:       ctx,
		ctxCancel: cancelFunc,
	}

	if err := s.applyGenesis(); err != nil {
		cancelFunc()
		return nil, fmt.Errorf("applyGenesis: %s", err)
	}

	s.router.Server.ReadTimeout = apiReadTimeout
	s.router.Server.WriteTimeout = apiWriteTimeout + 2*time.Second // must be greater than apiWriteTimeout, which used for timeout middleware

	s.metricsServer.Server.ReadTimeout = apiReadTimeout
	s.metricsServer.Server.WriteTimeout = apiWriteTimeout + 2*time.Second

	s.initHandlers()

	return s, nil
}

func (s *Server) applyGenesis() error {
	for _, acc := range s.cfg.Genesis.Accounts {
		pubkey, err := solana.PublicKeyFromBase58(acc.Address)
		if err != nil {
			return fmt.Errorf("genesis account %s: %s", acc.Address, err)
		}
		s.vm.Airdrop(pubkey, acc.Lamports)
	}

	return nil
}

func (s *Server) initMetrics() {
	s.metricsServer.HideBanner = true
	s.metricsServer.Use(middleware.Recover())

	prom := prometheus.NewPrometheus("anchorsvm", nil, metrics.MetricList())
	// Scrape metrics from Main Server
	s.router.Use(prom.HandlerFunc)
	// Setup metrics endpoint at another server
	prom.SetMetricsPath(s.metricsServer)

	metrics.InitStartTime()
}

func (s *Server) initHandlers() {
	s.router.HideBanner = true
	s.router.Use(middleware.Recover())
	s.router.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		ErrorMessage: "Request Timeout",
		Timeout:      apiWriteTimeout,
	}))
	s.router.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil || v.Status >= http.StatusBadRequest {
				log.Logger.Rpc.Errorf("%d %s, latency: %d, error: %s", v.Status, v.Method, v.Latency.Milliseconds(), v.Error)
			} else {
				log.Logger.Rpc.Debugf("%d %s, latency: %d", v.Status, v.Method, v.Latency.Milliseconds())
			}

			return nil
		},
	}))

	// prometheus metrics
	s.initMetrics()

	s.router.POST("/", s.rpcHandler)
}

// rpcHandler accepts single and batch JSON-RPC requests on the root path.
func (s *Server) rpcHandler(c echo.Context) error {
	if c.Request().Header.Get(echo.HeaderContentType) != echo.MIMEApplicationJSON {
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, "expected application/json")
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusOK, errorResponse(nil, rpcError(ParseErrCode, "parse error")))
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return c.JSON(http.StatusOK, errorResponse(nil, rpcError(ParseErrCode, "parse error")))
	}

	switch body[0] {
	case '{':
		var req rpcRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return c.JSON(http.StatusOK, errorResponse(nil, rpcError(ParseErrCode, "parse error")))
		}

		return c.JSON(http.StatusOK, s.handleRequest(req))
	case '[':
		var reqs []rpcRequest
		if err := json.Unmarshal(body, &reqs); err != nil {
			return c.JSON(http.StatusOK, errorResponse(nil, rpcError(ParseErrCode, "parse error")))
		}

		responses := make([]rpcResponse, 0, len(reqs))
		for _, req := range reqs {
			responses = append(responses, s.handleRequest(req))
		}

		return c.JSON(http.StatusOK, responses)
	default:
		return c.JSON(http.StatusOK, errorResponse(nil, rpcError(InvalidRequestErrCode, "expected object or array")))
	}
}

func (s *Server) Run() (err error) {
	err = s.router.Start(fmt.Sprintf(":%d", s.cfg.RPC.Port))
	if err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) RunMetrics() (err error) {
	err = s.metricsServer.Start(fmt.Sprintf(":%d", s.cfg.Metrics.Port))
	if err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(s.ctx, serverShutdownTimeout)
	defer cancel()

	go s.metricsServer.Shutdown(ctx)
	err := s.router.Shutdown(ctx)
	if err != nil {
		log.Logger.Rpc.Errorf("router.Shutdown: %s", err)
	}
	s.ctxCancel()

	return nil
}

func (s *Server) WaitGroup() *sync.WaitGroup {
	return s.waitGroup
}
