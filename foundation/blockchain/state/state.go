// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"crypto/ecdsa"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/jdforsythe/bloch/foundation/blockchain/balance"
	"github.com/jdforsythe/bloch/foundation/blockchain/database"
	"github.com/jdforsythe/bloch/foundation/blockchain/genesis"
	"github.com/jdforsythe/bloch/foundation/blockchain/mempool"
	"github.com/jdforsythe/bloch/foundation/blockchain/signature"
)

// EventHandler defines a function that is called when events
// occur in the processing of the blockchain.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining and transaction sharing.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
	SignalShareTx(tx database.SignedTx)
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	PrivateKey *ecdsa.PrivateKey
	Genesis    genesis.Genesis
	EvHandler  EventHandler
}

// State manages the blockchain held in memory. Every change to the blocks,
// the mempool or the wallet happens behind the mutex.
type State struct {
	mu         sync.RWMutex
	privateKey *ecdsa.PrivateKey
	address    string
	genesis    genesis.Genesis
	evHandler  EventHandler

	blocks  []database.Block
	mempool *mempool.Mempool
	wallet  database.Wallet

	// head mirrors the hash of the last block so mining can watch it
	// without taking the mutex.
	head atomic.Value

	// worker is registered after construction and read by every operation
	// that signals it, so it has its own lock.
	workerMu sync.RWMutex
	worker   Worker
}

// New constructs a new blockchain for data management. The chain starts with
// the genesis block and an empty mempool.
func New(cfg Config) (*State, error) {
	if cfg.PrivateKey == nil {
		return nil, errors.New("private key for the miner is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	address := signature.PublicKeyToAddress(cfg.PrivateKey.PublicKey)
	blocks := []database.Block{database.Genesis()}

	state := State{
		privateKey: cfg.PrivateKey,
		address:    address,
		genesis:    cfg.Genesis,
		evHandler:  ev,

		blocks:  blocks,
		mempool: mempool.New(),
		wallet: database.Wallet{
			Address: address,
			Balance: balance.Current(address, blocks),
		},

		// The worker is not set here. The call to worker.Run will register
		// itself and start everything up and running for the node.
		worker: noWorker{},
	}
	state.head.Store(blocks[len(blocks)-1].Hash)

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	s.Worker().Shutdown()

	return nil
}

// SetWorker registers the worker that mines and shares transactions for
// the state.
func (s *State) SetWorker(w Worker) {
	s.workerMu.Lock()
	defer s.workerMu.Unlock()

	s.worker = w
}

// Worker returns the registered worker.
func (s *State) Worker() Worker {
	s.workerMu.RLock()
	defer s.workerMu.RUnlock()

	return s.worker
}

// Genesis returns the settings the chain is running with.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// =============================================================================

// setChain replaces the blocks and the mempool and recomputes the wallet.
// The caller must hold the write lock.
func (s *State) setChain(chain database.Chain) {
	s.blocks = chain.Blocks
	s.mempool.Replace(chain.Mempool)
	s.wallet.Balance = balance.Current(s.address, s.blocks)
	s.head.Store(chain.LastHash())
}

// local returns a copy of the chain state. The caller must hold a lock.
func (s *State) local() database.Chain {
	blocks := make([]database.Block, len(s.blocks))
	copy(blocks, s.blocks)

	return database.Chain{
		Blocks:  blocks,
		Mempool: s.mempool.Copy(),
		Wallet:  s.wallet,
	}
}

// =============================================================================

// noWorker is used until a worker registers itself with the state.
type noWorker struct{}

func (noWorker) Shutdown()                       {}
func (noWorker) SignalStartMining()              {}
func (noWorker) SignalCancelMining()             {}
func (noWorker) SignalShareTx(database.SignedTx) {}
