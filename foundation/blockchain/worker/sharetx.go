package worker

import (
	"github.com/jdforsythe/bloch/foundation/blockchain/database"
)

// maxTxShareRequests represents the max number of pending tx network share
// requests that can be outstanding before share requests are dropped. To keep
// this simple, a buffered channel of this arbitrary number is being used. If
// the channel does become full, requests for new transactions to be shared
// will not be accepted.
const maxTxShareRequests = 100

// =============================================================================

// shareTxOperations handles sharing new transactions.
func (w *Worker) shareTxOperations() {
	w.evHandler("worker: shareTxOperations: G started")
	defer w.evHandler("worker: shareTxOperations: G completed")

	for {
		select {
		case tx := <-w.txSharing:
			if !w.isShutdown() {
				w.runShareTxOperation(tx)
			}
		case <-w.shut:
			w.evHandler("worker: shareTxOperations: received shut signal")
			return
		}
	}
}

// runShareTxOperation shares the transaction with the connected peers.
func (w *Worker) runShareTxOperation(tx database.SignedTx) {
	w.evHandler("worker: runShareTxOperation: started: tx[%s]", tx)
	defer w.evHandler("worker: runShareTxOperation: completed")

	w.net.BroadcastTransaction(tx)
}
