package oraclestore

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/timshannon/badgerhold/v4"
)

var (
	// ErrNotFound ...
	ErrNotFound = errors.New("condition not found in store")
	// ErrAlreadyExists ...
	ErrAlreadyExists = errors.New("condition already exists in store")
)

// Store persists the conditions of an oracle adapter by id. Adapters
// serialize the access to their store.
type Store[T any] interface {
	Add(id string, condition T) error
	Get(id string) (T, error)
	Update(id string, condition T) error
	Close() error
}

type inMemoryStore[T any] struct {
	lock       *sync.RWMutex
	conditions map[string]T
}

// NewInMemoryStore returns a store that is lost on restart.
func NewInMemoryStore[T any]() Store[T] {
	return &inMemoryStore[T]{
		lock:       &sync.RWMutex{},
		conditions: make(map[string]T),
	}
}

func (s *inMemoryStore[T]) Add(id string, condition T) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.conditions[id]; ok {
		return ErrAlreadyExists
	}
	s.conditions[id] = condition
	return nil
}

func (s *inMemoryStore[T]) Get(id string) (T, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	condition, ok := s.conditions[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return condition, nil
}

func (s *inMemoryStore[T]) Update(id string, condition T) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.conditions[id]; !ok {
		return ErrNotFound
	}
	s.conditions[id] = condition
	return nil
}

func (s *inMemoryStore[T]) Close() error {
	return nil
}

type badgerStore[T any] struct {
	store *badgerhold.Store
}

// NewBadgerStore opens (or creates if not exists) the conditions db in the
// given datadir. An empty datadir makes the store to be kept in memory.
func NewBadgerStore[T any](datadir string, logger badger.Logger) (Store[T], error) {
	var dbDir string
	if len(datadir) > 0 {
		dbDir = filepath.Join(datadir, "conditions")
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
	return &badgerStore[T]{store}, nil
}

func (s *badgerStore[T]) Add(id string, condition T) error {
	if err := s.store.Insert(id, condition); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *badgerStore[T]) Get(id string) (T, error) {
	var condition T
	if err := s.store.Get(id, &condition); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return condition, ErrNotFound
		}
		return condition, err
	}
	return condition, nil
}

func (s *badgerStore[T]) Update(id string, condition T) error {
	if err := s.store.Update(id, condition); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *badgerStore[T]) Close() error {
	return s.store.Close()
}
