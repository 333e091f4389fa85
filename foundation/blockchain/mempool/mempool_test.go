package mempool_test

import (
	"testing"

	"github.com/jdforsythe/bloch/foundation/blockchain/database"
	"github.com/jdforsythe/bloch/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func tx(id string, from string) database.SignedTx {
	return database.SignedTx{
		ID: id,
		Input: database.SignedInput{
			Input: database.Input{Address: from, Amount: 100},
		},
		Outputs: []database.Output{{Address: "dest", Amount: 100}},
	}
}

func ids(trans []database.SignedTx) []string {
	ids := make([]string, len(trans))
	for i, tx := range trans {
		ids[i] = tx.ID
	}
	return ids
}

func equal(got []string, exp []string) bool {
	if len(got) != len(exp) {
		return false
	}
	for i := range got {
		if got[i] != exp[i] {
			return false
		}
	}
	return true
}

func TestCRUD(t *testing.T) {
	type table struct {
		name string
		txs  []database.SignedTx
		exp  []string
	}

	tt := []table{
		{
			name: "basic",
			txs:  []database.SignedTx{tx("c", "a1"), tx("a", "a2"), tx("b", "a3")},
			exp:  []string{"c", "a", "b"},
		},
		{
			name: "replace",
			txs:  []database.SignedTx{tx("c", "a1"), tx("a", "a2"), tx("c", "a4")},
			exp:  []string{"c", "a"},
		},
	}

	t.Log("Given the need to validate mempool api.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a set of transaction.", testID)
			{
				f := func(t *testing.T) {
					mp := mempool.New()

					for _, tx := range tst.txs {
						mp.Upsert(tx)
						t.Logf("\t%s\tTest %d:\tShould be able to add new transaction: %s", success, testID, tx.ID)
					}

					if got := ids(mp.Copy()); !equal(got, tst.exp) {
						t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, got)
						t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, tst.exp)
						t.Fatalf("\t%s\tTest %d:\tShould get back the transactions in order.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the transactions in order.", success, testID)

					if mp.Count() != len(tst.exp) {
						t.Fatalf("\t%s\tTest %d:\tShould get back the right count, got %d.", failed, testID, mp.Count())
					}
					t.Logf("\t%s\tTest %d:\tShould get back the right count.", success, testID)

					mp.Delete(tst.exp[0])
					if got := ids(mp.Copy()); !equal(got, tst.exp[1:]) {
						t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, got)
						t.Fatalf("\t%s\tTest %d:\tShould be able to delete the first transaction.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to delete the first transaction.", success, testID)

					mp.Truncate()
					if mp.Count() != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould be able to truncate the pool.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to truncate the pool.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestReplace(t *testing.T) {
	mp := mempool.New()
	mp.Upsert(tx("old", "a1"))

	mp.Replace([]database.SignedTx{tx("x", "a1"), tx("y", "a2"), tx("x", "a3")})

	if got := ids(mp.Copy()); !equal(got, []string{"x", "y"}) {
		t.Logf("got: %v", got)
		t.Fatalf("Should replace the content of the pool.")
	}

	mp.DeleteIDs([]string{"x", "unknown"})
	if got := ids(mp.Copy()); !equal(got, []string{"y"}) {
		t.Logf("got: %v", got)
		t.Fatalf("Should delete every known id.")
	}
}

func TestHasSpendFrom(t *testing.T) {
	mp := mempool.New()
	mp.Upsert(tx("1", "alice"))

	if !mp.HasSpendFrom("alice") {
		t.Fatalf("Should find the pending spend from alice.")
	}

	if mp.HasSpendFrom("bob") {
		t.Fatalf("Should not find a pending spend from bob.")
	}
}
