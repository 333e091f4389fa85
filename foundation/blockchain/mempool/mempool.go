// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"sync"

	"github.com/jdforsythe/bloch/foundation/blockchain/database"
)

// Mempool represents a cache of pending transactions keyed by transaction
// id. Transactions are returned in the order they were first added.
type Mempool struct {
	mu    sync.RWMutex
	pool  map[string]database.SignedTx
	order []string
}

// New constructs a new, empty mempool.
func New() *Mempool {
	return &Mempool{
		pool: make(map[string]database.SignedTx),
	}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds or replaces a transaction in the mempool. A replaced
// transaction keeps its position.
func (mp *Mempool) Upsert(tx database.SignedTx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.pool[tx.ID]; !exists {
		mp.order = append(mp.order, tx.ID)
	}
	mp.pool[tx.ID] = tx

	return len(mp.pool)
}

// Delete removes a transaction from the mempool.
func (mp *Mempool) Delete(id string) {
	mp.DeleteIDs([]string{id})
}

// DeleteIDs removes every transaction with one of the ids from the mempool.
func (mp *Mempool) DeleteIDs(ids []string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for _, id := range ids {
		delete(mp.pool, id)
	}

	order := mp.order[:0]
	for _, id := range mp.order {
		if _, exists := mp.pool[id]; exists {
			order = append(order, id)
		}
	}
	mp.order = order
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]database.SignedTx)
	mp.order = nil
}

// Replace swaps the content of the pool for the specified transactions.
func (mp *Mempool) Replace(trans []database.SignedTx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]database.SignedTx, len(trans))
	mp.order = make([]string, 0, len(trans))

	for _, tx := range trans {
		if _, exists := mp.pool[tx.ID]; !exists {
			mp.order = append(mp.order, tx.ID)
		}
		mp.pool[tx.ID] = tx
	}
}

// Copy returns the transactions in the pool in insertion order.
func (mp *Mempool) Copy() []database.SignedTx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	trans := make([]database.SignedTx, 0, len(mp.order))
	for _, id := range mp.order {
		trans = append(trans, mp.pool[id])
	}

	return trans
}

// HasSpendFrom reports whether a pending transaction already spends from
// the address.
func (mp *Mempool) HasSpendFrom(address string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	for _, tx := range mp.pool {
		if tx.Input.Address == address {
			return true
		}
	}

	return false
}
