package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/tdex-network/wager-daemon/internal/core/application"
	"github.com/tdex-network/wager-daemon/internal/core/domain"
)

const (
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATADIR"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// HTTPListeningPortKey is the port where the HTTP API will listen on
	HTTPListeningPortKey = "HTTP_LISTENING_PORT"
	// CorsAllowedOriginsKey is the list of origins allowed to call the API
	CorsAllowedOriginsKey = "CORS_ALLOWED_ORIGINS"
	// JWTSecretKey is the secret used to verify the caller tokens
	JWTSecretKey = "JWT_SECRET"
	// FallbackAuthorityKey is the address adjudicating disputes of markets
	// without a third-party arbitrator
	FallbackAuthorityKey = "FALLBACK_AUTHORITY"
	// DefaultChallengeWindowKey is used for markets created without window
	DefaultChallengeWindowKey = "DEFAULT_CHALLENGE_WINDOW"
	// MinChallengeWindowKey and MaxChallengeWindowKey bound the challenge
	// window of any market
	MinChallengeWindowKey = "MIN_CHALLENGE_WINDOW"
	MaxChallengeWindowKey = "MAX_CHALLENGE_WINDOW"
	// DefaultChallengeBondKey is used for markets created without bond
	DefaultChallengeBondKey = "DEFAULT_CHALLENGE_BOND"
	// ZeroBondChallengesKey allows to challenge markets with a zero bond
	ZeroBondChallengesKey = "ZERO_BOND_CHALLENGES"
	// MinOracleConfidenceBpKey is the min confidence, in basis points, for
	// an oracle outcome to settle a market
	MinOracleConfidenceBpKey = "MIN_ORACLE_CONFIDENCE_BP"
	// MaxGroupParticipantsKey caps the participants of a group market
	MaxGroupParticipantsKey = "MAX_GROUP_PARTICIPANTS"
	// KeeperIntervalKey is the interval between two deadline sweeps
	KeeperIntervalKey = "KEEPER_INTERVAL"
	// NativeAssetKey is the asset of the custody native balances
	NativeAssetKey = "NATIVE_ASSET"
	// TokensKey is the list of fungible tokens accepted as stake
	TokensKey = "TOKENS"
	// DeployerURLKey is the endpoint of the instrument deployer, a local
	// deterministic deployer is used if empty
	DeployerURLKey = "DEPLOYER_URL"
	// DeployerLiquidityKey is the initial liquidity of every instrument
	DeployerLiquidityKey = "DEPLOYER_LIQUIDITY"
	// DeployerTradingPeriodKey is the trading period of every instrument
	DeployerTradingPeriodKey = "DEPLOYER_TRADING_PERIOD"
	// DeployerRateLimitKey is the max number of deploy requests per second
	DeployerRateLimitKey = "DEPLOYER_RATE_LIMIT"
	// MembershipAllowlistKey is the list of addresses allowed to create
	// markets, everyone is allowed if empty
	MembershipAllowlistKey = "MEMBERSHIP_ALLOWLIST"
	// EnablePriceFeedKey enables the websocket price source of the
	// price-threshold oracle
	EnablePriceFeedKey = "ENABLE_PRICE_FEED"
	// PriceFeedURLKey is the websocket endpoint of the price source
	PriceFeedURLKey = "PRICE_FEED_URL"
	// PriceFeedTickersKey is the list of tickers to subscribe to
	PriceFeedTickersKey = "PRICE_FEED_TICKERS"
	// PriceFeedStalenessKey is the max age of a price used for settlement
	PriceFeedStalenessKey = "PRICE_FEED_STALENESS"
	// ManualAttestersKey is the set of addresses attesting manual conditions
	ManualAttestersKey = "MANUAL_ATTESTERS"
	// ManualQuorumKey is the number of agreeing attestations required
	ManualQuorumKey = "MANUAL_QUORUM"
	// OptimisticLivenessKey is the dispute window of an assertion
	OptimisticLivenessKey = "OPTIMISTIC_LIVENESS"
	// OptimisticMinBondKey is the min bond of an assertion
	OptimisticMinBondKey = "OPTIMISTIC_MIN_BOND"
	// OptimisticConfidenceBpKey is the confidence of undisputed assertions
	OptimisticConfidenceBpKey = "OPTIMISTIC_UNDISPUTED_CONFIDENCE_BP"
	// WebhookTimeoutKey is the timeout of a webhook notification
	WebhookTimeoutKey = "WEBHOOK_TIMEOUT"
	// EnableProfilerKey enables profiler that can be used to investigate performance issues
	EnableProfilerKey = "ENABLE_PROFILER"
	// StatsIntervalKey defines interval for printing basic daemon statistics
	StatsIntervalKey = "STATS_INTERVAL"

	DbLocation       = "db"
	WebhookLocation  = "pubsub"
	CustodyLocation  = "custody"
	OracleLocation   = "oracles"
	ProfilerLocation = "stats"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("wagerd", false)

func InitConfig() error {
	// A .env file in the working dir is optional.
	_ = godotenv.Load()

	vip = viper.New()
	vip.SetEnvPrefix("WAGER")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(DBTypeKey, application.DBBadger)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(HTTPListeningPortKey, 8080)
	vip.SetDefault(CorsAllowedOriginsKey, []string{"*"})
	vip.SetDefault(DefaultChallengeWindowKey, 24*time.Hour)
	vip.SetDefault(MinChallengeWindowKey, time.Hour)
	vip.SetDefault(MaxChallengeWindowKey, 7*24*time.Hour)
	vip.SetDefault(DefaultChallengeBondKey, 0)
	vip.SetDefault(ZeroBondChallengesKey, false)
	vip.SetDefault(MinOracleConfidenceBpKey, 9000)
	vip.SetDefault(MaxGroupParticipantsKey, 16)
	vip.SetDefault(KeeperIntervalKey, time.Minute)
	vip.SetDefault(NativeAssetKey, "lbtc")
	vip.SetDefault(DeployerLiquidityKey, 0)
	vip.SetDefault(DeployerTradingPeriodKey, 7*24*time.Hour)
	vip.SetDefault(DeployerRateLimitKey, 10)
	vip.SetDefault(EnablePriceFeedKey, false)
	vip.SetDefault(PriceFeedTickersKey, []string{"XBT/USD"})
	vip.SetDefault(PriceFeedStalenessKey, 5*time.Minute)
	vip.SetDefault(ManualQuorumKey, 1)
	vip.SetDefault(OptimisticLivenessKey, 2*time.Hour)
	vip.SetDefault(OptimisticMinBondKey, 0)
	vip.SetDefault(OptimisticConfidenceBpKey, 9500)
	vip.SetDefault(WebhookTimeoutKey, 15*time.Second)
	vip.SetDefault(EnableProfilerKey, false)
	vip.SetDefault(StatsIntervalKey, 600)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	domain.MinChallengeWindow = GetDuration(MinChallengeWindowKey)
	domain.MaxChallengeWindow = GetDuration(MaxChallengeWindowKey)
	domain.MaxGroupParticipants = GetInt(MaxGroupParticipantsKey)

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetUint64(key string) uint64 {
	return vip.GetUint64(key)
}

func GetStringSlice(key string) []string {
	return vip.GetStringSlice(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if _, ok := application.SupportedDBType[GetString(DBTypeKey)]; !ok {
		return fmt.Errorf("unsupported db type %s", GetString(DBTypeKey))
	}

	if len(GetString(JWTSecretKey)) <= 0 {
		return fmt.Errorf("missing jwt secret")
	}

	if len(GetString(FallbackAuthorityKey)) <= 0 {
		return fmt.Errorf("missing fallback authority")
	}

	minWindow := GetDuration(MinChallengeWindowKey)
	maxWindow := GetDuration(MaxChallengeWindowKey)
	if minWindow <= 0 || maxWindow < minWindow {
		return fmt.Errorf(
			"challenge window bounds must be positive with %s not lower than %s",
			MaxChallengeWindowKey, MinChallengeWindowKey,
		)
	}
	defaultWindow := GetDuration(DefaultChallengeWindowKey)
	if defaultWindow < minWindow || defaultWindow > maxWindow {
		return fmt.Errorf(
			"%s must be in range [%s, %s]",
			DefaultChallengeWindowKey, minWindow, maxWindow,
		)
	}

	for _, key := range []string{
		MinOracleConfidenceBpKey, OptimisticConfidenceBpKey,
	} {
		if bp := GetInt(key); bp < 0 || bp > domain.MaxConfidenceBp {
			return fmt.Errorf(
				"%s must be in range [0, %d]", key, domain.MaxConfidenceBp,
			)
		}
	}

	if GetInt(MaxGroupParticipantsKey) < 3 {
		return fmt.Errorf("%s must be at least 3", MaxGroupParticipantsKey)
	}

	if GetDuration(KeeperIntervalKey) <= 0 {
		return fmt.Errorf("%s must be positive", KeeperIntervalKey)
	}

	if GetInt(DeployerRateLimitKey) <= 0 {
		return fmt.Errorf("%s must be positive", DeployerRateLimitKey)
	}

	attesters := GetStringSlice(ManualAttestersKey)
	if len(attesters) > 0 {
		quorum := GetInt(ManualQuorumKey)
		if quorum <= 0 || quorum > len(attesters) {
			return fmt.Errorf(
				"%s must be in range [1, %d]", ManualQuorumKey, len(attesters),
			)
		}
	}

	if GetBool(EnablePriceFeedKey) && len(GetStringSlice(PriceFeedTickersKey)) <= 0 {
		return fmt.Errorf("price feed requires at least one ticker")
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if err := makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation)); err != nil {
		return err
	}

	if err := makeDirectoryIfNotExists(filepath.Join(datadir, WebhookLocation)); err != nil {
		return err
	}

	if err := makeDirectoryIfNotExists(filepath.Join(datadir, CustodyLocation)); err != nil {
		return err
	}

	if err := makeDirectoryIfNotExists(filepath.Join(datadir, OracleLocation)); err != nil {
		return err
	}

	profilerEnabled := GetBool(EnableProfilerKey)
	if profilerEnabled {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, ProfilerLocation)); err != nil {
			return err
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
