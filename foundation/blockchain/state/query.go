package state

import (
	"github.com/jdforsythe/bloch/foundation/blockchain/balance"
	"github.com/jdforsythe/bloch/foundation/blockchain/database"
)

// Snapshot returns a copy of the full chain state. This is what is shared
// with peers.
func (s *State) Snapshot() database.Chain {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.local()
}

// Head returns the hash of the last block in the chain.
func (s *State) Head() string {
	head, _ := s.head.Load().(string)
	return head
}

// Address returns the address of the node's wallet.
func (s *State) Address() string {
	return s.address
}

// Balance recomputes and returns the balance of the node's wallet.
func (s *State) Balance() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wallet.Balance = balance.Current(s.address, s.blocks)

	return s.wallet.Balance
}

// BalanceOf returns the balance of any address.
func (s *State) BalanceOf(address string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return balance.Current(address, s.blocks)
}

// Blocks returns a copy of the blocks in the chain.
func (s *State) Blocks() []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blocks := make([]database.Block, len(s.blocks))
	copy(blocks, s.blocks)

	return blocks
}

// Mempool returns a copy of the pending transactions.
func (s *State) Mempool() []database.SignedTx {
	return s.mempool.Copy()
}

// MempoolLength returns the current length of the mempool.
func (s *State) MempoolLength() int {
	return s.mempool.Count()
}
