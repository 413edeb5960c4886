package oracle

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
)

// Registry maps oracle ids to the adapters serving them. It satisfies
// ports.OracleRegistry.
type Registry struct {
	lock     *sync.RWMutex
	adapters map[string]ports.OracleAdapter
}

func NewRegistry() *Registry {
	return &Registry{
		lock:     &sync.RWMutex{},
		adapters: make(map[string]ports.OracleAdapter),
	}
}

// Register binds the given adapter to the oracle id. An id can be bound
// only once.
func (r *Registry) Register(oracleID string, adapter ports.OracleAdapter) error {
	if oracleID == "" {
		return fmt.Errorf("missing oracle id")
	}
	if adapter == nil {
		return fmt.Errorf("missing adapter for oracle %s", oracleID)
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.adapters[oracleID]; ok {
		return fmt.Errorf("oracle %s already registered", oracleID)
	}
	r.adapters[oracleID] = adapter
	return nil
}

func (r *Registry) Get(oracleID string) (ports.OracleAdapter, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	adapter, ok := r.adapters[oracleID]
	if !ok {
		return nil, domain.ErrOracleNotFound
	}
	return adapter, nil
}

// List returns the registered oracle ids along with their kind, sorted by id.
func (r *Registry) List() []ports.OracleInfo {
	r.lock.RLock()
	defer r.lock.RUnlock()

	list := make([]ports.OracleInfo, 0, len(r.adapters))
	for id, adapter := range r.adapters {
		list = append(list, ports.OracleInfo{ID: id, Kind: adapter.Kind()})
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}

