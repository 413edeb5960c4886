package inmemory

import "github.com/tdex-network/wager-daemon/internal/core/domain"

// Stored entities must never share slices, maps or pointers with the
// instances handed to callers.

func copyMarket(m domain.Market) domain.Market {
	res := m

	if m.Participants != nil {
		res.Participants = make([]domain.Participant, len(m.Participants))
		copy(res.Participants, m.Participants)
	}
	if m.Acceptances != nil {
		res.Acceptances = make([]domain.Acceptance, len(m.Acceptances))
		copy(res.Acceptances, m.Acceptances)
	}
	if m.Description != nil {
		res.Description = make([]byte, len(m.Description))
		copy(res.Description, m.Description)
	}
	if m.Pending != nil {
		pending := *m.Pending
		res.Pending = &pending
	}
	if m.Resolution != nil {
		resolution := *m.Resolution
		if m.Resolution.Winners != nil {
			resolution.Winners = make([]string, len(m.Resolution.Winners))
			copy(resolution.Winners, m.Resolution.Winners)
		}
		res.Resolution = &resolution
	}
	if m.Peg != nil {
		peg := *m.Peg
		res.Peg = &peg
	}
	return res
}

func copyEscrow(e domain.Escrow) domain.Escrow {
	res := e
	res.Locked = copyAmounts(e.Locked)
	res.Bonds = copyAmounts(e.Bonds)
	res.Claimable = copyAmounts(e.Claimable)
	res.Claimed = make(map[string]bool, len(e.Claimed))
	for k, v := range e.Claimed {
		res.Claimed[k] = v
	}
	return res
}

func copyAmounts(m map[string]uint64) map[string]uint64 {
	res := make(map[string]uint64, len(m))
	for k, v := range m {
		res[k] = v
	}
	return res
}
