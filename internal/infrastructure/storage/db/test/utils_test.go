package db_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
	dbbadger "github.com/tdex-network/wager-daemon/internal/infrastructure/storage/db/badger"
	"github.com/tdex-network/wager-daemon/internal/infrastructure/storage/db/inmemory"
)

var (
	ctx = context.Background()
	now = time.Unix(1700000000, 0)
)

type repoManager struct {
	Name    string
	Manager ports.RepoManager
}

func (r repoManager) read(
	query func(context.Context) (interface{}, error),
) (interface{}, error) {
	return r.Manager.RunTransaction(ctx, true, query)
}

func (r repoManager) write(
	query func(context.Context) (interface{}, error),
) (interface{}, error) {
	return r.Manager.RunTransaction(ctx, false, query)
}

// createRepoManagers returns a fresh instance of every RepoManager
// implementation. They're closed when the test ends.
func createRepoManagers(t *testing.T) []repoManager {
	badgerManager, err := dbbadger.NewRepoManager(t.TempDir(), nil)
	require.NoError(t, err)
	badgerInMemoryManager, err := dbbadger.NewRepoManager("", nil)
	require.NoError(t, err)

	managers := []repoManager{
		{Name: "inmemory", Manager: inmemory.NewRepoManager()},
		{Name: "badger", Manager: badgerManager},
		{Name: "badger_inmemory", Manager: badgerInMemoryManager},
	}
	t.Cleanup(func() {
		for _, m := range managers {
			m.Manager.Close()
		}
	})
	return managers
}

func makeRandomMarket(t *testing.T) *domain.Market {
	creator, counterparty := randomAddress(), randomAddress()
	market, err := domain.NewMarket(domain.MarketArgs{
		Kind:    domain.MarketKindBilateral,
		Creator: creator,
		Participants: []domain.Participant{
			{Address: creator, Position: true},
			{Address: counterparty, Position: false},
		},
		Policy:             domain.PolicyEither,
		StakeAmount:        10,
		StakeAsset:         randomHex(32),
		AcceptanceDeadline: now.Add(time.Hour),
		ChallengeWindow:    24 * time.Hour,
		ChallengeBond:      5,
		Description:        []byte("will it rain tomorrow?"),
	}, now)
	require.NoError(t, err)
	return market
}

func addMarket(
	t *testing.T, repo repoManager, market *domain.Market,
) *domain.Market {
	res, err := repo.write(func(ctx context.Context) (interface{}, error) {
		return repo.Manager.MarketRepository().AddMarket(ctx, market)
	})
	require.NoError(t, err)
	return res.(*domain.Market)
}

func randomAddress() string {
	return uuid.New().String()
}

func randomHex(len int) string {
	return hex.EncodeToString(randomBytes(len))
}

func randomBytes(len int) []byte {
	b := make([]byte, len)
	//nolint
	rand.Read(b)
	return b
}
