package state

import (
	"github.com/jdforsythe/bloch/foundation/blockchain/database"
)

// ProcessChain takes a chain shared by a peer and adopts it if it's longer
// than the local chain and valid. The blocks and the mempool of the winning
// chain replace the local ones. It reports whether the chain was adopted.
func (s *State) ProcessChain(chain database.Chain) bool {
	s.evHandler("state: ProcessChain: started: blocks[%d]: mempool[%d]", len(chain.Blocks), len(chain.Mempool))
	defer s.evHandler("state: ProcessChain: completed")

	s.mu.Lock()

	local := s.local()
	best := database.BestChain(local, chain)
	if len(best.Blocks) == len(local.Blocks) {
		s.mu.Unlock()

		switch {
		case len(chain.Blocks) <= len(local.Blocks):
			s.evHandler("state: ProcessChain: rejected: not longer than local chain[%d]", len(local.Blocks))
		default:
			s.evHandler("state: ProcessChain: rejected: %s", database.ValidateChain(chain.Blocks))
		}

		return false
	}

	s.setChain(best)
	s.mu.Unlock()

	s.evHandler("state: ProcessChain: adopted: blocks[%d]: head[%s]", len(best.Blocks), best.LastHash())

	// Any block being mined now builds on a stale head. The search notices
	// the new head on its own and the worker starts over.
	s.Worker().SignalStartMining()

	return true
}
