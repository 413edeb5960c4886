package application

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
	dbbadger "github.com/tdex-network/wager-daemon/internal/infrastructure/storage/db/badger"
	dbinmemory "github.com/tdex-network/wager-daemon/internal/infrastructure/storage/db/inmemory"
)

const (
	DBBadger   = "badger"
	DBInMemory = "inmemory"

	DefaultKeeperInterval = time.Minute
)

var (
	SupportedDBType = map[string]struct{}{
		DBBadger:   {},
		DBInMemory: {},
	}
)

type Config struct {
	// RepoManager, if set, takes precedence over DBType and DBConfig.
	RepoManager ports.RepoManager
	DBType      string
	DBConfig    interface{}

	Custody    ports.AssetCustody
	Deployer   ports.InstrumentDeployer
	Membership ports.MembershipGate
	PubSub     ports.PubSub
	Oracles    ports.OracleRegistry
	Clock      func() time.Time

	FallbackAuthority      string
	DefaultChallengeWindow time.Duration
	DefaultChallengeBond   uint64
	ZeroBondChallenges     bool
	MinOracleConfidenceBp  uint16
	InstrumentLiquidity    uint64
	TradingPeriod          time.Duration
	KeeperInterval         time.Duration

	repo       ports.RepoManager
	serializer *serializer
	ledger     *stakeLedger
	pubsub     PubSubService
	market     MarketService
	resolution ResolutionService
	oracle     OracleService
	claim      ClaimService
	keeper     *Keeper
}

func (c *Config) Validate() error {
	if c.RepoManager == nil {
		if _, ok := SupportedDBType[c.DBType]; !ok {
			return ErrUnknownDBType
		}
		if c.DBType == DBBadger {
			if _, ok := c.DBConfig.(string); !ok {
				return fmt.Errorf("db config must be the datadir path for badger")
			}
		}
	}
	if c.Custody == nil {
		return ErrMissingCustody
	}
	if c.Deployer == nil {
		return ErrMissingDeployer
	}
	if c.Oracles == nil {
		return ErrMissingOracleRegistry
	}
	if c.DefaultChallengeWindow < domain.MinChallengeWindow ||
		c.DefaultChallengeWindow > domain.MaxChallengeWindow {
		return fmt.Errorf(
			"default challenge window %w", domain.ErrInvalidChallengeWindow,
		)
	}
	if c.MinOracleConfidenceBp > domain.MaxConfidenceBp {
		return fmt.Errorf(
			"min oracle confidence must be at most %d", domain.MaxConfidenceBp,
		)
	}
	if _, err := c.repoManager(); err != nil {
		return err
	}
	return nil
}

func (c *Config) RepoManagerService() ports.RepoManager {
	repo, _ := c.repoManager()
	return repo
}

func (c *Config) PubSubService() PubSubService {
	if c.pubsub == nil {
		c.pubsub = NewPubSubService(c.PubSub)
	}
	return c.pubsub
}

func (c *Config) MarketService() MarketService {
	if c.market == nil {
		repo, _ := c.repoManager()
		c.market = newMarketService(
			repo, c.stakeLedger(), c.Deployer, c.Membership, c.PubSubService(),
			c.guard(), c.clock(), c.DefaultChallengeWindow,
			c.DefaultChallengeBond, c.InstrumentLiquidity, c.TradingPeriod,
		)
	}
	return c.market
}

func (c *Config) ResolutionService() ResolutionService {
	if c.resolution == nil {
		repo, _ := c.repoManager()
		c.resolution = newResolutionService(
			repo, c.stakeLedger(), c.PubSubService(), c.guard(), c.clock(),
			c.FallbackAuthority, c.ZeroBondChallenges,
		)
	}
	return c.resolution
}

func (c *Config) OracleService() OracleService {
	if c.oracle == nil {
		repo, _ := c.repoManager()
		c.oracle = newOracleService(
			repo, c.stakeLedger(), c.Oracles, c.PubSubService(), c.guard(),
			c.clock(), c.MinOracleConfidenceBp,
		)
	}
	return c.oracle
}

func (c *Config) ClaimService() ClaimService {
	if c.claim == nil {
		repo, _ := c.repoManager()
		c.claim = newClaimService(
			repo, c.stakeLedger(), c.PubSubService(), c.guard(), c.clock(),
		)
	}
	return c.claim
}

func (c *Config) Keeper() *Keeper {
	if c.keeper == nil {
		interval := c.KeeperInterval
		if interval <= 0 {
			interval = DefaultKeeperInterval
		}
		c.keeper = newKeeper(
			c.MarketService(), c.ResolutionService(), c.OracleService(),
			c.clock(), interval,
		)
	}
	return c.keeper
}

func (c *Config) repoManager() (ports.RepoManager, error) {
	if c.repo == nil {
		if c.RepoManager != nil {
			c.repo = c.RepoManager
			return c.repo, nil
		}

		switch c.DBType {
		case DBBadger:
			datadir := c.DBConfig.(string)
			repoManager, err := dbbadger.NewRepoManager(datadir, log.New())
			if err != nil {
				return nil, err
			}
			c.repo = repoManager
		case DBInMemory:
			c.repo = dbinmemory.NewRepoManager()
		default:
			return nil, ErrMissingRepoManager
		}
	}
	return c.repo, nil
}

// guard returns the serializer shared by all services, so that no two
// state-changing operations ever interleave.
func (c *Config) guard() *serializer {
	if c.serializer == nil {
		c.serializer = newSerializer()
	}
	return c.serializer
}

func (c *Config) stakeLedger() *stakeLedger {
	if c.ledger == nil {
		repo, _ := c.repoManager()
		c.ledger = newStakeLedger(repo, c.Custody)
	}
	return c.ledger
}

func (c *Config) clock() func() time.Time {
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c.Clock
}
