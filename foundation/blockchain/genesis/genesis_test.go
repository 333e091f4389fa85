package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jdforsythe/bloch/foundation/blockchain/genesis"
)

func Test_Load(t *testing.T) {
	gen, err := genesis.Load("")
	if err != nil {
		t.Fatalf("Should be able to load the default settings: %s", err)
	}

	if gen != genesis.Default() {
		t.Logf("got: %+v", gen)
		t.Logf("exp: %+v", genesis.Default())
		t.Fatalf("Should get back the default settings.")
	}

	path := filepath.Join(t.TempDir(), "genesis.json")
	if err := os.WriteFile(path, []byte(`{"difficulty":2}`), 0600); err != nil {
		t.Fatalf("Should be able to write the genesis file: %s", err)
	}

	gen, err = genesis.Load(path)
	if err != nil {
		t.Fatalf("Should be able to load the genesis file: %s", err)
	}

	if gen.Difficulty != 2 || gen.MiningReward != 10 {
		t.Logf("got: %+v", gen)
		t.Fatalf("Should override only the settings in the file.")
	}

	if err := os.WriteFile(path, []byte(`{"difficulty":65}`), 0600); err != nil {
		t.Fatalf("Should be able to write the genesis file: %s", err)
	}

	if _, err := genesis.Load(path); err == nil {
		t.Fatalf("Should reject a difficulty longer than the hash.")
	}
}
