package worker_test

import (
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/jdforsythe/bloch/foundation/blockchain/database"
	"github.com/jdforsythe/bloch/foundation/blockchain/genesis"
	"github.com/jdforsythe/bloch/foundation/blockchain/state"
	"github.com/jdforsythe/bloch/foundation/blockchain/worker"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	minerKey = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
	destAddr = "04dest"
)

// network records what the worker broadcasts.
type network struct {
	mu     sync.Mutex
	chains int
	trans  []database.SignedTx
}

func (n *network) BroadcastChain() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.chains++
}

func (n *network) BroadcastTransaction(tx database.SignedTx) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.trans = append(n.trans, tx)
}

func (n *network) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.chains, len(n.trans)
}

// fundedChain returns genesis followed by a block rewarding the address.
func fundedChain(t *testing.T, address string) database.Chain {
	return extend(t, database.Chain{Blocks: []database.Block{database.Genesis()}}, address)
}

// extend returns the chain with one more block rewarding the address.
func extend(t *testing.T, chain database.Chain, address string) database.Chain {
	last := chain.Blocks[len(chain.Blocks)-1]

	ub := database.UnfinishedBlock{
		Timestamp: last.Timestamp + 1000,
		LastHash:  last.Hash,
		Data: database.BlockData{
			Coinbase: database.NewCoinbaseTx(address, 10),
			Trans:    []database.SignedTx{},
		},
		Difficulty: 1,
	}

	hash, err := database.HashBlock(ub)
	if err != nil {
		t.Errorf("Should be able to hash the block: %s", err)
	}

	blocks := make([]database.Block, len(chain.Blocks), len(chain.Blocks)+1)
	copy(blocks, chain.Blocks)

	return database.Chain{
		Blocks: append(blocks, database.Block{UnfinishedBlock: ub, Hash: hash}),
	}
}

func Test_MineSharedTransaction(t *testing.T) {
	pk, err := crypto.HexToECDSA(minerKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	st, err := state.New(state.Config{
		PrivateKey: pk,
		Genesis:    genesis.Genesis{Difficulty: 1, MiningReward: 10},
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %s", err)
	}

	st.ProcessChain(fundedChain(t, st.Address()))

	var net network
	worker.Run(worker.Config{
		State:      st,
		Net:        &net,
		RetryDelay: 50 * time.Millisecond,
		EvHandler:  func(v string, args ...any) { t.Logf(v, args...) },
	})
	defer st.Shutdown()

	t.Log("Given the need to mine and share a transaction sent from the wallet.")
	{
		tx, err := st.SendTransaction(destAddr, 4)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to send coins: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to send coins.", success)

		deadline := time.Now().Add(10 * time.Second)
		for {
			chains, trans := net.counts()
			if chains > 0 && trans > 0 && st.MempoolLength() == 0 {
				break
			}

			if time.Now().After(deadline) {
				t.Fatalf("\t%s\tShould mine and broadcast within the deadline: chains[%d] trans[%d]", failed, chains, trans)
			}
			time.Sleep(10 * time.Millisecond)
		}
		t.Logf("\t%s\tShould mine and broadcast within the deadline.", success)

		blocks := st.Blocks()
		last := blocks[len(blocks)-1]
		if len(blocks) != 3 || len(last.Data.Trans) != 1 || last.Data.Trans[0].ID != tx.ID {
			t.Fatalf("\t%s\tShould put the transaction in the next block.", failed)
		}
		t.Logf("\t%s\tShould put the transaction in the next block.", success)

		if st.BalanceOf(destAddr) != 4 || st.Balance() != 16 {
			t.Logf("\t%s\tgot: dest[%d] node[%d]", failed, st.BalanceOf(destAddr), st.Balance())
			t.Fatalf("\t%s\tShould update the balances.", failed)
		}
		t.Logf("\t%s\tShould update the balances.", success)
	}
}

func Test_RunWhileChainsArrive(t *testing.T) {
	pk, err := crypto.HexToECDSA(minerKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	st, err := state.New(state.Config{
		PrivateKey: pk,
		Genesis:    genesis.Genesis{Difficulty: 1, MiningReward: 10},
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %s", err)
	}

	const blocks = 20

	t.Log("Given the need to register the worker while peers share chains.")
	{
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()

			chain := database.Chain{Blocks: []database.Block{database.Genesis()}}
			for i := 0; i < blocks; i++ {
				chain = extend(t, chain, destAddr)
				st.ProcessChain(chain)
			}
		}()

		var net network
		worker.Run(worker.Config{
			State:      st,
			Net:        &net,
			RetryDelay: 50 * time.Millisecond,
		})
		defer st.Shutdown()

		wg.Wait()

		if _, ok := st.Worker().(*worker.Worker); !ok {
			t.Fatalf("\t%s\tShould have the worker registered with the state.", failed)
		}
		t.Logf("\t%s\tShould have the worker registered with the state.", success)

		if got := len(st.Blocks()); got != blocks+1 {
			t.Fatalf("\t%s\tShould adopt every longer chain, got %d blocks.", failed, got)
		}
		t.Logf("\t%s\tShould adopt every longer chain.", success)
	}
}
