package httpinterface

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/wager-daemon/internal/core/application"
	"github.com/tdex-network/wager-daemon/internal/interfaces"
	"github.com/tdex-network/wager-daemon/internal/interfaces/http/handler"
	"github.com/tdex-network/wager-daemon/internal/interfaces/http/middleware"
)

const shutdownTimeout = 5 * time.Second

type ServiceOpts struct {
	Address        string
	JWTSecret      string
	AllowedOrigins []string

	AppConfig *application.Config
	Ledger    handler.Ledger
	Oracles   handler.OracleAdapters
}

func (o ServiceOpts) validate() error {
	if len(o.Address) <= 0 {
		return fmt.Errorf("missing listening address")
	}
	if len(o.JWTSecret) <= 0 {
		return fmt.Errorf("missing jwt secret")
	}
	if o.AppConfig == nil {
		return fmt.Errorf("missing application config")
	}
	if o.Ledger == nil {
		return fmt.Errorf("missing custody ledger")
	}
	return nil
}

type service struct {
	opts   ServiceOpts
	server *http.Server
}

// NewService returns the HTTP JSON interface of the daemon.
func NewService(opts ServiceOpts) (interfaces.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}

	if log.GetLevel() < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	return &service{
		opts: opts,
		server: &http.Server{
			Addr:              opts.Address,
			Handler:           NewRouter(opts),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (s *service) Start() error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-time.After(100 * time.Millisecond):
	}

	log.Infof("http interface is listening on %s", s.opts.Address)
	return nil
}

func (s *service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("http interface did not shut down gracefully")
		return
	}
	log.Info("http interface stopped")
}

// NewRouter returns the handler serving every route of the API.
func NewRouter(opts ServiceOpts) *gin.Engine {
	appConfig := opts.AppConfig
	marketHandler := handler.NewMarketHandler(
		appConfig.MarketService(), appConfig.ResolutionService(),
		appConfig.OracleService(), appConfig.ClaimService(),
	)
	oracleHandler := handler.NewOracleHandler(
		appConfig.OracleService(), opts.Oracles,
	)
	webhookHandler := handler.NewWebhookHandler(appConfig.PubSubService())
	custodyHandler := handler.NewCustodyHandler(opts.Ledger)

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if allowAll(opts.AllowedOrigins) {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = opts.AllowedOrigins
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())
	router.Use(cors.New(corsConfig))
	router.Use(middleware.Auth([]byte(opts.JWTSecret)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		markets := v1.Group("/markets")
		markets.POST("", marketHandler.CreateMarket)
		markets.GET("", marketHandler.ListMarkets)
		markets.GET("/:id", marketHandler.GetMarket)
		markets.POST("/:id/accept", marketHandler.Accept)
		markets.POST("/:id/cancel", marketHandler.CancelExpired)
		markets.POST("/:id/propose", marketHandler.ProposeOutcome)
		markets.POST("/:id/challenge", marketHandler.Challenge)
		markets.POST("/:id/finalize", marketHandler.FinalizeResolution)
		markets.POST("/:id/adjudicate", marketHandler.ResolveDispute)
		markets.POST("/:id/peg", marketHandler.PegToOracleCondition)
		markets.POST("/:id/oracle-settle", marketHandler.ResolveFromOracle)
		markets.POST("/:id/claim", marketHandler.Claim)

		oracles := v1.Group("/oracles")
		oracles.GET("", oracleHandler.ListOracles)
		oracles.GET("/:oracle_id/conditions/:condition_id", oracleHandler.GetCondition)
		oracles.POST("/price/conditions", oracleHandler.AddPriceCondition)
		oracles.POST("/price/prices", oracleHandler.SetPrice)
		oracles.POST("/price/conditions/:condition_id/resolve", oracleHandler.ResolvePriceCondition)
		oracles.POST("/optimistic/conditions", oracleHandler.AddOptimisticCondition)
		oracles.POST("/optimistic/conditions/:condition_id/assert", oracleHandler.Assert)
		oracles.POST("/optimistic/conditions/:condition_id/dispute", oracleHandler.Dispute)
		oracles.POST("/optimistic/conditions/:condition_id/settle", oracleHandler.SettleAssertion)
		oracles.POST("/optimistic/conditions/:condition_id/escalation", oracleHandler.SettleEscalation)
		oracles.POST("/manual/conditions", oracleHandler.AddManualCondition)
		oracles.POST("/manual/conditions/:condition_id/attest", oracleHandler.Attest)

		webhooks := v1.Group("/webhooks")
		webhooks.GET("", webhookHandler.ListWebhooks)
		webhooks.POST("", webhookHandler.AddWebhook)
		webhooks.DELETE("/:id", webhookHandler.RemoveWebhook)

		custody := v1.Group("/custody")
		custody.POST("/credit", custodyHandler.Credit)
		custody.GET("/balances/:party", custodyHandler.GetBalance)
	}

	return router
}

func allowAll(origins []string) bool {
	if len(origins) <= 0 {
		return true
	}
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
