// Package genesis maintains access to the static chain settings.
package genesis

import (
	"encoding/json"
	"errors"
	"os"
)

// Genesis represents the static settings every node on the chain shares.
type Genesis struct {
	Difficulty   uint  `json:"difficulty"`    // Number of leading hex 0's needed to solve the hash solution.
	MiningReward int64 `json:"mining_reward"` // Reward for mining a block.
}

// Default returns the settings the chain was started with.
func Default() Genesis {
	return Genesis{
		Difficulty:   4,
		MiningReward: 10,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. An empty path returns the
// default settings.
func Load(path string) (Genesis, error) {
	if path == "" {
		return Default(), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if genesis.Difficulty > 64 {
		return Genesis{}, errors.New("difficulty can't be more than the hash length")
	}

	return genesis, nil
}
