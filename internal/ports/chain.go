package ports

import (
	"context"

	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/holiman/uint256"
)

// ChainReader lee estado on-chain de Starknet.
type ChainReader interface {
	// IsDeployed devuelve true si hay un contrato en la dirección.
	IsDeployed(ctx context.Context, address string) (bool, error)
	// OwnerOf devuelve el dueño de un NFT de posición.
	OwnerOf(ctx context.Context, nft string, tokenID *uint256.Int) (string, error)
}

// TxWatcher espera la confirmación de transacciones enviadas por la wallet.
type TxWatcher interface {
	WaitForTransaction(ctx context.Context, txHash string) (domain.TxReceipt, error)
}
