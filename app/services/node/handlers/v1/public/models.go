package public

import "github.com/jdforsythe/bloch/foundation/blockchain/database"

type balanceResponse struct {
	Balance int64 `json:"balance"`
}

type blocksResponse struct {
	Blocks []database.Block `json:"blocks"`
}

type mempoolResponse struct {
	Pool []database.SignedTx `json:"pool"`
}

type addressResponse struct {
	Address string `json:"address"`
}

type peersResponse struct {
	Peers       []string `json:"peers"`
	Connections int      `json:"connections"`
}

type account struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Balance int64  `json:"balance"`
}

type accountsResponse struct {
	Accounts []account `json:"accounts"`
}

// newTransaction is what a client posts to spend from the node's wallet.
type newTransaction struct {
	DestAddress string `json:"destAddress" validate:"required,address"`
	Amount      int64  `json:"amount" validate:"gt=0"`
}

type transactionResponse struct {
	Success bool `json:"success"`
}
