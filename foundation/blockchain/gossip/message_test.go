package gossip_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/jdforsythe/bloch/foundation/blockchain/database"
	"github.com/jdforsythe/bloch/foundation/blockchain/gossip"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Messages(t *testing.T) {
	chain := database.Chain{
		Blocks:  []database.Block{database.Genesis()},
		Mempool: []database.SignedTx{},
		Wallet:  database.Wallet{Address: "04abc", Balance: 5},
	}

	tx := database.SignedTx{
		ID:      "tx1",
		Input:   database.SignedInput{Input: database.Input{Address: "04abc", Amount: 5, Timestamp: 1}, Signature: "30"},
		Outputs: []database.Output{{Address: "04def", Amount: 5}},
	}

	type table struct {
		name string
		msg  gossip.Message
		exp  string
	}

	tt := []table{
		{name: "chain", msg: gossip.ChainMessage{Chain: chain}, exp: `{"type":"chain","data":{"blocks":[`},
		{name: "transaction", msg: gossip.TransactionMessage{Tx: tx}, exp: `{"type":"transaction","data":{"id":"tx1",`},
		{name: "peers", msg: gossip.PeersMessage{Peers: []string{"ws://localhost:5001"}}, exp: `{"type":"peers","data":["ws://localhost:5001"]}`},
		{name: "noPeers", msg: gossip.PeersMessage{}, exp: `{"type":"peers","data":[]}`},
	}

	t.Log("Given the need to encode and decode messages.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s message.", testID, tst.name)
			{
				f := func(t *testing.T) {
					data, err := gossip.Encode(tst.msg)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to encode the message: %s", failed, testID, err)
					}

					if !strings.HasPrefix(string(data), tst.exp) {
						t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, data)
						t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.exp)
						t.Fatalf("\t%s\tTest %d:\tShould get back the wire envelope.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the wire envelope.", success, testID)

					msg, err := gossip.Decode(data)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to decode the message: %s", failed, testID, err)
					}

					if msg.Type() != tst.msg.Type() {
						t.Fatalf("\t%s\tTest %d:\tShould get back a %s message, got %s.", failed, testID, tst.msg.Type(), msg.Type())
					}
					t.Logf("\t%s\tTest %d:\tShould get back a %s message.", success, testID, tst.msg.Type())
				}

				t.Run(tst.name, f)
			}
		}
	}

	data, _ := gossip.Encode(gossip.ChainMessage{Chain: chain})
	msg, _ := gossip.Decode(data)
	if got := msg.(gossip.ChainMessage).Chain; got.LastHash() != chain.LastHash() || got.Wallet != chain.Wallet {
		t.Fatalf("Should get back the same chain.")
	}

	data, _ = gossip.Encode(gossip.TransactionMessage{Tx: tx})
	msg, _ = gossip.Decode(data)
	if got := msg.(gossip.TransactionMessage).Tx; got.ID != tx.ID || got.Input != tx.Input || got.Outputs[0] != tx.Outputs[0] {
		t.Fatalf("Should get back the same transaction.")
	}
}

func Test_DecodeErrors(t *testing.T) {
	if _, err := gossip.Decode([]byte(`{"type":"block","data":{}}`)); !errors.Is(err, gossip.ErrUnknownMessage) {
		t.Fatalf("Should get back ErrUnknownMessage, got %v", err)
	}

	if _, err := gossip.Decode([]byte(`not json`)); err == nil {
		t.Fatalf("Should reject a malformed envelope.")
	}

	if _, err := gossip.Decode([]byte(`{"type":"peers","data":{"a":1}}`)); err == nil {
		t.Fatalf("Should reject a malformed payload.")
	}
}
