package httpinterface_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/wager-daemon/internal/core/application"
	"github.com/tdex-network/wager-daemon/internal/core/application/oracle"
	custodyinmemory "github.com/tdex-network/wager-daemon/internal/infrastructure/custody/inmemory"
	"github.com/tdex-network/wager-daemon/internal/infrastructure/deployer"
	"github.com/tdex-network/wager-daemon/internal/infrastructure/oracle/manual"
	httpinterface "github.com/tdex-network/wager-daemon/internal/interfaces/http"
	"github.com/tdex-network/wager-daemon/internal/interfaces/http/handler"
	"github.com/tdex-network/wager-daemon/internal/interfaces/http/permissions"
)

const (
	secret         = "s3cr3t"
	asset          = "lbtc"
	alice          = "alice"
	bob            = "bob"
	authority      = "authority"
	attester       = "attester"
	manualOracleID = "manual"
	stake          = 10
	balance        = uint64(100)
)

var start = time.Unix(1700000000, 0)

type testClock struct {
	lock sync.Mutex
	now  time.Time
}

func (c *testClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *testClock) advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

type testServer struct {
	router  *gin.Engine
	custody *custodyinmemory.Custody
	clock   *testClock
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)

	clock := &testClock{now: start}
	custody := custodyinmemory.NewCustody(asset)
	for _, party := range []string{alice, bob} {
		require.NoError(t, custody.Credit(party, asset, balance))
	}

	manualOracle, err := manual.NewAdapter([]string{attester}, 1, clock.Now)
	require.NoError(t, err)
	registry := oracle.NewRegistry()
	require.NoError(t, registry.Register(manualOracleID, manualOracle))

	appConfig := &application.Config{
		DBType:                 application.DBInMemory,
		Custody:                custody,
		Deployer:               deployer.NewLocalDeployer(),
		Oracles:                registry,
		Clock:                  clock.Now,
		FallbackAuthority:      authority,
		DefaultChallengeWindow: 2 * time.Hour,
		DefaultChallengeBond:   5,
		MinOracleConfidenceBp:  9000,
	}
	require.NoError(t, appConfig.Validate())

	router := httpinterface.NewRouter(httpinterface.ServiceOpts{
		Address:   ":0",
		JWTSecret: secret,
		AppConfig: appConfig,
		Ledger:    custody,
		Oracles:   handler.OracleAdapters{Manual: manualOracle},
	})

	return &testServer{router, custody, clock}
}

func (s *testServer) do(
	t *testing.T, method, path, token string, body interface{},
) (int, map[string]interface{}) {
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req := httptest.NewRequest(method, path, &reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	resp := make(map[string]interface{})
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	}
	return rec.Code, resp
}

func newToken(t *testing.T, address, role string) string {
	token, err := permissions.NewToken([]byte(secret), address, role, time.Hour)
	require.NoError(t, err)
	return token
}

func createMarketBody() map[string]interface{} {
	return map[string]interface{}{
		"kind": "BILATERAL",
		"participants": []map[string]interface{}{
			{"address": alice, "position": true},
			{"address": bob, "position": false},
		},
		"policy":              "EITHER",
		"stake_amount":        stake,
		"stake_asset":         asset,
		"acceptance_deadline": start.Add(time.Hour).Unix(),
		"description":         "will it rain tomorrow?",
	}
}
