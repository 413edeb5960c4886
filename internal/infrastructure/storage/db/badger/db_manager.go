package dbbadger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
	"github.com/timshannon/badgerhold/v4"
)

const (
	maxTxRetries = 5
	txKey        = "tx"
)

type repoManager struct {
	store *badgerhold.Store

	marketRepository domain.MarketRepository
	escrowRepository domain.EscrowRepository
}

// NewRepoManager opens (or creates if not exists) the badger store on disk.
// An empty base data dir makes the store to be kept in memory.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	var dbDir string
	if len(baseDbDir) > 0 {
		dbDir = filepath.Join(baseDbDir, "wagers")
	}

	store, err := createDb(dbDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening wagers db: %w", err)
	}

	return &repoManager{
		store:            store,
		marketRepository: NewMarketRepositoryImpl(store),
		escrowRepository: NewEscrowRepositoryImpl(store),
	}, nil
}

func (r *repoManager) MarketRepository() domain.MarketRepository {
	return r.marketRepository
}

func (r *repoManager) EscrowRepository() domain.EscrowRepository {
	return r.escrowRepository
}

// RunTransaction runs the handler within a badger transaction, carried by
// the context passed to it. Write transactions are retried on conflict.
func (r *repoManager) RunTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	for attempt := 0; ; attempt++ {
		res, err := r.runTransaction(ctx, readOnly, handler)
		if err == nil || !errors.Is(err, badger.ErrConflict) ||
			attempt >= maxTxRetries {
			return res, err
		}
		log.Debugf("db: transaction conflict, retrying (attempt %d)", attempt+1)
	}
}

func (r *repoManager) Close() {
	r.store.Close()
}

func (r *repoManager) runTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	tx := r.store.Badger().NewTransaction(!readOnly)
	defer tx.Discard()

	res, err := handler(context.WithValue(ctx, txKey, tx))
	if err != nil {
		return nil, err
	}

	if !readOnly {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	if !isInMemory {
		ticker := time.NewTicker(30 * time.Minute)

		go func() {
			for {
				<-ticker.C
				if err := db.Badger().RunValueLogGC(0.5); err != nil &&
					err != badger.ErrNoRewrite {
					log.Error(err)
				}
			}
		}()
	}

	return db, nil
}

func txFromContext(ctx context.Context) *badger.Txn {
	if tx, ok := ctx.Value(txKey).(*badger.Txn); ok {
		return tx
	}
	return nil
}
