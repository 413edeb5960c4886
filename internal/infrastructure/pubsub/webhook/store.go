package webhookpubsub

import (
	"path/filepath"
	"sort"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/timshannon/badgerhold/v4"
)

// webhookStore persists the registered webhooks. An empty datadir makes the
// store to be kept in memory.
type webhookStore struct {
	store *badgerhold.Store
}

func newWebhookStore(datadir string, logger badger.Logger) (*webhookStore, error) {
	var dbDir string
	if len(datadir) > 0 {
		dbDir = filepath.Join(datadir, "webhooks")
	}

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger
	if len(dbDir) <= 0 {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	store, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}
	return &webhookStore{store}, nil
}

func (s *webhookStore) add(hook *Webhook) error {
	if err := s.store.Insert(hook.ID, *hook); err != nil {
		if err == badgerhold.ErrKeyExists {
			return nil
		}
		return err
	}
	return nil
}

func (s *webhookStore) remove(id string) error {
	if err := s.store.Delete(id, Webhook{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return ErrWebhookNotFound
		}
		return err
	}
	return nil
}

// listForAction returns the webhooks registered for the given action sorted
// by id.
func (s *webhookStore) listForAction(action WebhookAction) ([]Webhook, error) {
	var all []Webhook
	if err := s.store.Find(&all, nil); err != nil {
		return nil, err
	}

	hooks := make([]Webhook, 0, len(all))
	for _, h := range all {
		if h.ActionType == action {
			hooks = append(hooks, h)
		}
	}
	sort.SliceStable(hooks, func(i, j int) bool {
		return hooks[i].ID < hooks[j].ID
	})
	return hooks, nil
}

func (s *webhookStore) close() error {
	return s.store.Close()
}
