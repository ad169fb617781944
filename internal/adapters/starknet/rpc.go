package starknet

// rpc.go: lecturas on-chain por JSON-RPC de Starknet.
//
// Solo lectura: la firma y el envío de transacciones quedan en la wallet.
// Se usa para confirmar que una TSA existe, verificar el dueño de un NFT de
// posición antes de importarlo y esperar el receipt de una transacción.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
)

const (
	blockLatest = "latest"

	// Códigos de error de la API JSON-RPC de Starknet.
	codeContractNotFound = 20
	codeTxHashNotFound   = 29

	defaultPollInterval = 3 * time.Second
	defaultRPCTimeout   = 10 * time.Second
)

// RPCClient implementa ports.ChainReader y ports.TxWatcher.
type RPCClient struct {
	client       *rpc.Client
	pollInterval time.Duration
}

// RPCOption configura un RPCClient.
type RPCOption func(*RPCClient)

// WithPollInterval cambia cada cuánto se consulta el receipt.
func WithPollInterval(d time.Duration) RPCOption {
	return func(c *RPCClient) { c.pollInterval = d }
}

// DialRPC conecta con un nodo Starknet por HTTP.
func DialRPC(ctx context.Context, url string, opts ...RPCOption) (*RPCClient, error) {
	client, err := rpc.DialOptions(ctx, url, rpc.WithHTTPClient(&http.Client{Timeout: defaultRPCTimeout}))
	if err != nil {
		return nil, fmt.Errorf("starknet.DialRPC: dial %s: %w", url, err)
	}
	c := &RPCClient{client: client, pollInterval: defaultPollInterval}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Close libera la conexión.
func (c *RPCClient) Close() {
	c.client.Close()
}

// IsDeployed devuelve true si hay una clase declarada en la dirección.
func (c *RPCClient) IsDeployed(ctx context.Context, address string) (bool, error) {
	addr, err := Address(address)
	if err != nil {
		return false, fmt.Errorf("starknet.IsDeployed: %w", err)
	}

	var classHash string
	err = c.client.CallContext(ctx, &classHash, "starknet_getClassHashAt", blockLatest, addr)
	if rpcCode(err) == codeContractNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("starknet.IsDeployed: %w: %w", domain.ErrUpstreamUnavailable, err)
	}
	return classHash != "", nil
}

type functionCall struct {
	ContractAddress    string   `json:"contract_address"`
	EntryPointSelector string   `json:"entry_point_selector"`
	Calldata           []string `json:"calldata"`
}

// OwnerOf devuelve el dueño del NFT tokenID del contrato nft.
func (c *RPCClient) OwnerOf(ctx context.Context, nft string, tokenID *uint256.Int) (string, error) {
	contract, err := Address(nft)
	if err != nil {
		return "", fmt.Errorf("starknet.OwnerOf: %w", err)
	}

	var out []string
	call := functionCall{
		ContractAddress:    contract,
		EntryPointSelector: Selector(EntryOwnerOf),
		Calldata:           U256(tokenID),
	}
	if err := c.client.CallContext(ctx, &out, "starknet_call", call, blockLatest); err != nil {
		return "", fmt.Errorf("starknet.OwnerOf: %w: %w", domain.ErrUpstreamUnavailable, err)
	}
	if len(out) == 0 {
		return "", fmt.Errorf("starknet.OwnerOf: empty result: %w", domain.ErrUpstreamUnavailable)
	}
	owner, err := Address(out[0])
	if err != nil {
		return "", fmt.Errorf("starknet.OwnerOf: %w", err)
	}
	return owner, nil
}

type receiptResult struct {
	TransactionHash string `json:"transaction_hash"`
	ExecutionStatus string `json:"execution_status"`
	FinalityStatus  string `json:"finality_status"`
	RevertReason    string `json:"revert_reason"`
}

// WaitForTransaction consulta el receipt hasta que la transacción aparece o
// ctx vence. Un hash todavía desconocido para el nodo se sigue esperando.
func (c *RPCClient) WaitForTransaction(ctx context.Context, txHash string) (domain.TxReceipt, error) {
	hash, err := Address(txHash)
	if err != nil {
		return domain.TxReceipt{}, fmt.Errorf("starknet.WaitForTransaction: %w", err)
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		var res receiptResult
		err := c.client.CallContext(ctx, &res, "starknet_getTransactionReceipt", hash)
		switch {
		case err == nil && res.ExecutionStatus != "":
			r := domain.TxReceipt{
				Hash:            hash,
				ExecutionStatus: strings.ToUpper(res.ExecutionStatus),
				FinalityStatus:  res.FinalityStatus,
				RevertReason:    res.RevertReason,
			}
			slog.Debug("transaction receipt", "tx", hash, "status", r.ExecutionStatus, "finality", r.FinalityStatus)
			return r, nil
		case err != nil && rpcCode(err) != codeTxHashNotFound:
			if ctx.Err() != nil {
				return domain.TxReceipt{}, fmt.Errorf("starknet.WaitForTransaction: %w", ctx.Err())
			}
			return domain.TxReceipt{}, fmt.Errorf("starknet.WaitForTransaction: %w: %w", domain.ErrUpstreamUnavailable, err)
		}

		select {
		case <-ctx.Done():
			return domain.TxReceipt{}, fmt.Errorf("starknet.WaitForTransaction: %s: %w", hash, ctx.Err())
		case <-ticker.C:
		}
	}
}

// rpcCode devuelve el código de error JSON-RPC, o 0 si err no es uno.
func rpcCode(err error) int {
	var rerr rpc.Error
	if errors.As(err, &rerr) {
		return rerr.ErrorCode()
	}
	return 0
}
