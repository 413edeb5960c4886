package application

import (
	"context"
	"sync"
)

type payoutCtxKey struct{}

// serializer makes state-mutating operations run one at a time. Operations
// invoked with a context derived from an ongoing payout are rejected before
// taking the lock.
type serializer struct {
	mtx sync.Mutex
}

func newSerializer() *serializer {
	return &serializer{}
}

func (s *serializer) lock(ctx context.Context) (func(), error) {
	if isPayoutContext(ctx) {
		return nil, ErrReentrantCall
	}
	s.mtx.Lock()
	return s.mtx.Unlock, nil
}

func withPayoutContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, payoutCtxKey{}, struct{}{})
}

func isPayoutContext(ctx context.Context) bool {
	return ctx.Value(payoutCtxKey{}) != nil
}
