package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/wager-daemon/internal/config"
	"github.com/tdex-network/wager-daemon/internal/core/application"
	"github.com/tdex-network/wager-daemon/internal/core/application/oracle"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
	custodybadger "github.com/tdex-network/wager-daemon/internal/infrastructure/custody/badger"
	custodyinmemory "github.com/tdex-network/wager-daemon/internal/infrastructure/custody/inmemory"
	"github.com/tdex-network/wager-daemon/internal/infrastructure/deployer"
	"github.com/tdex-network/wager-daemon/internal/infrastructure/membership"
	"github.com/tdex-network/wager-daemon/internal/infrastructure/oracle/manual"
	"github.com/tdex-network/wager-daemon/internal/infrastructure/oracle/optimistic"
	"github.com/tdex-network/wager-daemon/internal/infrastructure/oracle/pricethreshold"
	oraclestore "github.com/tdex-network/wager-daemon/internal/infrastructure/oracle/store"
	krakenfeeder "github.com/tdex-network/wager-daemon/internal/infrastructure/price-feeder/kraken"
	webhookpubsub "github.com/tdex-network/wager-daemon/internal/infrastructure/pubsub/webhook"
	"github.com/tdex-network/wager-daemon/internal/interfaces"
	httpinterface "github.com/tdex-network/wager-daemon/internal/interfaces/http"
	"github.com/tdex-network/wager-daemon/internal/interfaces/http/handler"
	"github.com/tdex-network/wager-daemon/pkg/stats"
)

const (
	PriceThresholdOracleID = "price-threshold"
	OptimisticOracleID     = "optimistic"
	ManualOracleID         = "manual"

	deployerRequestTimeout = 30 * time.Second
)

type custodyService interface {
	ports.AssetCustody
	handler.Ledger
}

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	var (
		datadir       = config.GetDatadir()
		dbType        = config.GetString(config.DBTypeKey)
		dbDir         = filepath.Join(datadir, config.DbLocation)
		webhookDir    = filepath.Join(datadir, config.WebhookLocation)
		custodyDir    = filepath.Join(datadir, config.CustodyLocation)
		oracleDir     = filepath.Join(datadir, config.OracleLocation)
		profilerDir   = filepath.Join(datadir, config.ProfilerLocation)
		httpAddress   = fmt.Sprintf(":%d", config.GetInt(config.HTTPListeningPortKey))
		profilerOn    = config.GetBool(config.EnableProfilerKey)
		statsInterval = time.Duration(config.GetInt(config.StatsIntervalKey)) * time.Second
	)
	if dbType == application.DBInMemory {
		webhookDir = ""
		custodyDir = ""
		oracleDir = ""
	}

	custody, err := newCustody(custodyDir)
	if err != nil {
		log.WithError(err).Fatal("failed to init custody")
	}

	instrumentDeployer, err := newDeployer()
	if err != nil {
		log.WithError(err).Fatal("failed to init instrument deployer")
	}

	pubsub, err := webhookpubsub.NewWebhookPubSubService(
		webhookDir, config.GetDuration(config.WebhookTimeoutKey), log.New(),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to init webhook pubsub")
	}

	priceSource, priceFeed, err := newPriceSource()
	if err != nil {
		log.WithError(err).Fatal("failed to init price source")
	}

	oracles, registry, err := newOracles(priceSource, custody, oracleDir)
	if err != nil {
		log.WithError(err).Fatal("failed to init oracles")
	}

	appConfig := &application.Config{
		DBType:                 dbType,
		DBConfig:               dbDir,
		Custody:                custody,
		Deployer:               instrumentDeployer,
		Membership:             membership.NewAllowlist(config.GetStringSlice(config.MembershipAllowlistKey)...),
		PubSub:                 pubsub,
		Oracles:                registry,
		FallbackAuthority:      config.GetString(config.FallbackAuthorityKey),
		DefaultChallengeWindow: config.GetDuration(config.DefaultChallengeWindowKey),
		DefaultChallengeBond:   config.GetUint64(config.DefaultChallengeBondKey),
		ZeroBondChallenges:     config.GetBool(config.ZeroBondChallengesKey),
		MinOracleConfidenceBp:  uint16(config.GetInt(config.MinOracleConfidenceBpKey)),
		InstrumentLiquidity:    config.GetUint64(config.DeployerLiquidityKey),
		TradingPeriod:          config.GetDuration(config.DeployerTradingPeriodKey),
		KeeperInterval:         config.GetDuration(config.KeeperIntervalKey),
	}
	if err := appConfig.Validate(); err != nil {
		log.WithError(err).Fatal("invalid application config")
	}

	svc, err := httpinterface.NewService(httpinterface.ServiceOpts{
		Address:        httpAddress,
		JWTSecret:      config.GetString(config.JWTSecretKey),
		AllowedOrigins: config.GetStringSlice(config.CorsAllowedOriginsKey),
		AppConfig:      appConfig,
		Ledger:         custody,
		Oracles:        oracles,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to init http interface")
	}

	ctx, cancel := context.WithCancel(context.Background())
	if profilerOn {
		stats.EnableMemoryStatistics(ctx, statsInterval, profilerDir)
	}

	if priceFeed != nil {
		go func() {
			if err := priceFeed.Start(); err != nil {
				log.WithError(err).Warn("price feed stopped")
			}
		}()
	}

	keeper := appConfig.Keeper()
	keeper.Start()

	log.Debug("starting daemon")

	defer stop(
		cancel, svc, keeper, priceFeed, pubsub, appConfig.RepoManagerService(),
		custody, oracles,
	)

	if err := svc.Start(); err != nil {
		log.WithError(err).Error("failed to start http interface")
		return
	}

	log.Info("daemon started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	<-sigChan

	log.Info("shutting down daemon")
}

func stop(
	cancel context.CancelFunc,
	svc interfaces.Service,
	keeper *application.Keeper,
	priceFeed *krakenfeeder.Service,
	pubsub webhookpubsub.Service,
	repoManager ports.RepoManager,
	custody custodyService,
	oracles handler.OracleAdapters,
) {
	svc.Stop()
	log.Debug("stopped http interface")

	keeper.Stop()
	log.Debug("stopped keeper")

	if priceFeed != nil {
		priceFeed.Stop()
		log.Debug("stopped price feed")
	}

	if err := pubsub.Close(); err != nil {
		log.WithError(err).Warn("failed to close webhook db")
	}

	repoManager.Close()
	log.Debug("closed connection with db")

	if closer, ok := custody.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.WithError(err).Warn("failed to close custody db")
		}
	}

	closeOracle := func(name string, closer io.Closer) {
		if err := closer.Close(); err != nil {
			log.WithError(err).Warnf("failed to close %s oracle db", name)
		}
	}
	if oracles.PriceThreshold != nil {
		closeOracle(PriceThresholdOracleID, oracles.PriceThreshold)
	}
	if oracles.Optimistic != nil {
		closeOracle(OptimisticOracleID, oracles.Optimistic)
	}
	if oracles.Manual != nil {
		closeOracle(ManualOracleID, oracles.Manual)
	}

	cancel()
	log.Info("exiting")
}

// newCustody returns a custody persisted under the given dir, or an in-memory
// one if dir is empty.
func newCustody(dir string) (custodyService, error) {
	nativeAsset := config.GetString(config.NativeAssetKey)
	tokens := config.GetStringSlice(config.TokensKey)
	if len(dir) <= 0 {
		return custodyinmemory.NewCustody(nativeAsset, tokens...), nil
	}
	custody, err := custodybadger.NewCustody(dir, log.New(), nativeAsset, tokens...)
	if err != nil {
		return nil, err
	}
	return custody, nil
}

// newConditionStore returns the store for the conditions of the given
// oracle. Conditions are kept in memory if dir is empty.
func newConditionStore[T any](dir, oracleID string) (oraclestore.Store[T], error) {
	if len(dir) <= 0 {
		return oraclestore.NewInMemoryStore[T](), nil
	}
	return oraclestore.NewBadgerStore[T](filepath.Join(dir, oracleID), log.New())
}

func newDeployer() (ports.InstrumentDeployer, error) {
	url := config.GetString(config.DeployerURLKey)
	if url == "" {
		log.Info("no deployer url set, using local instrument deployer")
		return deployer.NewLocalDeployer(), nil
	}
	return deployer.NewHTTPDeployer(
		url, deployerRequestTimeout, config.GetInt(config.DeployerRateLimitKey),
	)
}

// newPriceSource returns the kraken price feed if enabled, otherwise a
// source whose prices are set by the operator.
func newPriceSource() (ports.PriceSource, *krakenfeeder.Service, error) {
	if !config.GetBool(config.EnablePriceFeedKey) {
		return pricethreshold.NewStaticPriceSource(), nil, nil
	}

	feed, err := krakenfeeder.NewKrakenPriceSource(
		config.GetString(config.PriceFeedURLKey),
		config.GetStringSlice(config.PriceFeedTickersKey),
		nil,
	)
	if err != nil {
		return nil, nil, err
	}
	if err := feed.Connect(); err != nil {
		return nil, nil, err
	}
	return feed, feed, nil
}

func newOracles(
	priceSource ports.PriceSource, custody ports.AssetCustody, dir string,
) (handler.OracleAdapters, *oracle.Registry, error) {
	registry := oracle.NewRegistry()
	adapters := handler.OracleAdapters{}

	priceStore, err := newConditionStore[pricethreshold.Condition](
		dir, PriceThresholdOracleID,
	)
	if err != nil {
		return adapters, nil, err
	}
	priceAdapter := pricethreshold.NewAdapterWithStore(
		priceStore, priceSource, config.GetDuration(config.PriceFeedStalenessKey), nil,
	)
	if err := registry.Register(PriceThresholdOracleID, priceAdapter); err != nil {
		return adapters, nil, err
	}
	adapters.PriceThreshold = priceAdapter
	if setter, ok := priceSource.(handler.PriceSetter); ok {
		adapters.PriceSetter = setter
	}

	optimisticStore, err := newConditionStore[optimistic.Condition](
		dir, OptimisticOracleID,
	)
	if err != nil {
		return adapters, nil, err
	}
	optimisticAdapter, err := optimistic.NewAdapter(optimistic.Config{
		Custody:                custody,
		BondAsset:              config.GetString(config.NativeAssetKey),
		Store:                  optimisticStore,
		Liveness:               config.GetDuration(config.OptimisticLivenessKey),
		MinBond:                config.GetUint64(config.OptimisticMinBondKey),
		UndisputedConfidenceBp: uint16(config.GetInt(config.OptimisticConfidenceBpKey)),
		Escalator: optimistic.EscalatorFunc(
			func(_ context.Context, c optimistic.Condition) error {
				log.WithFields(log.Fields{
					"condition": c.ID,
					"asserter":  c.Asserter,
					"disputer":  c.Disputer,
				}).Warn("assertion disputed, waiting for escalation verdict")
				return nil
			},
		),
	})
	if err != nil {
		return adapters, nil, err
	}
	if err := registry.Register(OptimisticOracleID, optimisticAdapter); err != nil {
		return adapters, nil, err
	}
	adapters.Optimistic = optimisticAdapter

	if attesters := config.GetStringSlice(config.ManualAttestersKey); len(attesters) > 0 {
		manualStore, err := newConditionStore[manual.Condition](dir, ManualOracleID)
		if err != nil {
			return adapters, nil, err
		}
		manualAdapter, err := manual.NewAdapterWithStore(
			manualStore, attesters, config.GetInt(config.ManualQuorumKey), nil,
		)
		if err != nil {
			return adapters, nil, err
		}
		if err := registry.Register(ManualOracleID, manualAdapter); err != nil {
			return adapters, nil, err
		}
		adapters.Manual = manualAdapter
	}

	return adapters, registry, nil
}
