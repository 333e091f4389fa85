package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jdforsythe/bloch/foundation/blockchain/signature"
)

// ErrMiningAborted is returned when the head of the chain changed while a
// block was being mined on top of the old head.
var ErrMiningAborted = errors.New("chain head changed, mining aborted")

// =============================================================================

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	MinerAddress string
	Difficulty   uint
	MiningReward int64
	LastHash     string
	Trans        []SignedTx
	Head         func() string // Returns the current head of the chain.
	EvHandler    func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle. The search stops when the context is
// cancelled or the head of the chain moves past args.LastHash.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	ev := args.EvHandler
	if ev == nil {
		ev = func(string, ...any) {}
	}

	ev("database: POW: MINING: started: prevBlk[%s]: numTrans[%d]", args.LastHash, len(args.Trans))
	defer ev("database: POW: MINING: completed")

	for _, tx := range args.Trans {
		ev("database: POW: MINING: tx[%s]", tx)
	}

	search, err := NewSearch(args)
	if err != nil {
		ev("database: POW: MINING: ERROR: %s", err)
		return Block{}, err
	}

	for {
		if search.Attempts()%1_000_000 == 0 && search.Attempts() > 0 {
			ev("database: POW: MINING: attempts[%d]", search.Attempts())
		}

		// Did we get cancelled trying to solve the problem.
		if ctx.Err() != nil {
			ev("database: POW: MINING: CANCELLED")
			return Block{}, ctx.Err()
		}

		if block, solved := search.Step(); solved {
			ev("database: POW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", block.LastHash, block.Hash, search.Attempts())
			return block, nil
		}

		// Someone else extended or replaced the chain, this work is wasted.
		if args.Head != nil && search.IsStale(args.Head()) {
			ev("database: POW: MINING: ABORTED: head moved from prevBlk[%s]", args.LastHash)
			return Block{}, ErrMiningAborted
		}
	}
}

// =============================================================================

// Search is a resumable proof of work attempt. Each call to Step tries a
// single nonce against the block template.
type Search struct {
	template UnfinishedBlock
	data     []byte
	snapshot string
	attempts uint64
}

// NewSearch constructs the block template to be mined. The coinbase reward
// for the miner is placed ahead of the transactions. The data is encoded once
// since only the nonce changes between steps.
func NewSearch(args POWArgs) (*Search, error) {
	trans := make([]SignedTx, len(args.Trans))
	copy(trans, args.Trans)

	template := UnfinishedBlock{
		Timestamp: time.Now().UnixMilli(),
		LastHash:  args.LastHash,
		Data: BlockData{
			Coinbase: NewCoinbaseTx(args.MinerAddress, args.MiningReward),
			Trans:    trans,
		},
		Nonce:      0, // Will be identified by the POW algorithm.
		Difficulty: args.Difficulty,
	}

	data, err := signature.Canonical(template.Data)
	if err != nil {
		return nil, fmt.Errorf("encoding block data: %w", err)
	}

	s := Search{
		template: template,
		data:     data,
		snapshot: args.LastHash,
	}

	return &s, nil
}

// Step hashes the template with the next nonce. If the hash solves the
// puzzle the finished block is returned.
func (s *Search) Step() (Block, bool) {
	s.attempts++

	hash := hashHeader(s.template, s.data)
	if !IsHashSolved(s.template.Difficulty, hash) {
		s.template.Nonce++
		return Block{}, false
	}

	block := Block{
		UnfinishedBlock: s.template,
		Hash:            hash,
	}

	return block, true
}

// IsStale reports whether the head no longer matches the block this search
// is building on.
func (s *Search) IsStale(head string) bool {
	return head != s.snapshot
}

// Nonce returns the next nonce to be tried.
func (s *Search) Nonce() uint64 {
	return s.template.Nonce
}

// Attempts returns the number of nonces tried so far.
func (s *Search) Attempts() uint64 {
	return s.attempts
}
