package membership

import (
	"context"
	"strings"
	"sync"

	"github.com/tdex-network/wager-daemon/internal/core/ports"
)

// Allowlist lets only the listed creators open markets. An empty list lets
// anyone in.
type Allowlist struct {
	lock    *sync.RWMutex
	members map[string]struct{}
}

var _ ports.MembershipGate = (*Allowlist)(nil)

func NewAllowlist(members ...string) *Allowlist {
	a := &Allowlist{
		lock:    &sync.RWMutex{},
		members: make(map[string]struct{}),
	}
	for _, m := range members {
		if m = strings.TrimSpace(m); len(m) > 0 {
			a.members[m] = struct{}{}
		}
	}
	return a
}

func (a *Allowlist) Add(member string) {
	a.lock.Lock()
	defer a.lock.Unlock()

	a.members[member] = struct{}{}
}

func (a *Allowlist) Remove(member string) {
	a.lock.Lock()
	defer a.lock.Unlock()

	delete(a.members, member)
}

func (a *Allowlist) CanCreateMarket(_ context.Context, creator string) (bool, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()

	if len(a.members) <= 0 {
		return true, nil
	}
	_, ok := a.members[creator]
	return ok, nil
}
