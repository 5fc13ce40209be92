package keychain

import (
	"github.com/Klingon-tech/walletkit/internal/sparsechain"
	"github.com/Klingon-tech/walletkit/internal/txgraph"
	"github.com/Klingon-tech/walletkit/pkg/tx"
	"github.com/Klingon-tech/walletkit/pkg/types"
)

func txGraphAdditions(txn tx.Transaction) txgraph.Additions {
	return txgraph.Additions{Txs: []tx.Transaction{txn}}
}

// chaingraphTxidsUpdate builds the SparseChain-Update half of a single
// InsertTx call: the chain tip never moves, only (optionally) the txid's
// position.
func chaingraphTxidsUpdate(lastValid *types.BlockId, tip types.BlockId, txn tx.Transaction, pos *types.ChainPosition) sparsechain.Update {
	u := sparsechain.Update{LastValid: lastValid, NewTip: tip}
	if pos != nil {
		u.Txids = map[types.Hash]types.ChainPosition{txn.Txid(): *pos}
	}
	return u
}
