package starknet

import (
	"fmt"

	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/holiman/uint256"
)

// Entrypoints de los contratos de Ekubo y ERC20/ERC721.
const (
	EntryTransfer       = "transfer"
	EntryMintAndDeposit = "mint_and_deposit"
	EntryClear          = "clear"
	EntryWithdraw       = "withdraw"
	EntryTransferFrom   = "transferFrom"
	EntryOwnerOf        = "owner_of"
)

// Bounds es un rango de ticks con signo.
type Bounds struct {
	Lower int64
	Upper int64
}

// TransferCall construye token.transfer(to, amount).
func TransferCall(token, to string, amount *uint256.Int) (domain.Call, error) {
	tokenAddr, err := Address(token)
	if err != nil {
		return domain.Call{}, fmt.Errorf("starknet.TransferCall: token: %w", err)
	}
	toAddr, err := Address(to)
	if err != nil {
		return domain.Call{}, fmt.Errorf("starknet.TransferCall: recipient: %w", err)
	}
	return domain.Call{
		ContractAddress: tokenAddr,
		Entrypoint:      EntryTransfer,
		Calldata:        append([]string{toAddr}, U256(amount)...),
	}, nil
}

// MintAndDepositCall construye positions.mint_and_deposit(pool_key, bounds,
// min_liquidity).
func MintAndDepositCall(positions string, key domain.PoolKey, b Bounds, minLiquidity *uint256.Int) (domain.Call, error) {
	contract, err := Address(positions)
	if err != nil {
		return domain.Call{}, fmt.Errorf("starknet.MintAndDepositCall: %w", err)
	}
	keyData, err := poolKeyCalldata(key)
	if err != nil {
		return domain.Call{}, fmt.Errorf("starknet.MintAndDepositCall: %w", err)
	}
	minLiq, err := U128(minLiquidity)
	if err != nil {
		return domain.Call{}, fmt.Errorf("starknet.MintAndDepositCall: min_liquidity: %w", err)
	}

	data := append(keyData, boundsCalldata(b)...)
	data = append(data, minLiq)
	return domain.Call{ContractAddress: contract, Entrypoint: EntryMintAndDeposit, Calldata: data}, nil
}

// ClearCall construye positions.clear(token), que devuelve al caller el
// saldo sobrante del token.
func ClearCall(positions, token string) (domain.Call, error) {
	contract, err := Address(positions)
	if err != nil {
		return domain.Call{}, fmt.Errorf("starknet.ClearCall: %w", err)
	}
	tokenAddr, err := Address(token)
	if err != nil {
		return domain.Call{}, fmt.Errorf("starknet.ClearCall: token: %w", err)
	}
	return domain.Call{ContractAddress: contract, Entrypoint: EntryClear, Calldata: []string{tokenAddr}}, nil
}

// WithdrawCall construye positions.withdraw(id, pool_key, bounds, liquidity,
// min_token0, min_token1, collect_fees). Los mínimos van en cero.
func WithdrawCall(positions string, id uint64, key domain.PoolKey, b Bounds, liquidity *uint256.Int, collectFees bool) (domain.Call, error) {
	contract, err := Address(positions)
	if err != nil {
		return domain.Call{}, fmt.Errorf("starknet.WithdrawCall: %w", err)
	}
	keyData, err := poolKeyCalldata(key)
	if err != nil {
		return domain.Call{}, fmt.Errorf("starknet.WithdrawCall: %w", err)
	}
	liq, err := U128(liquidity)
	if err != nil {
		return domain.Call{}, fmt.Errorf("starknet.WithdrawCall: liquidity: %w", err)
	}

	data := append([]string{FeltUint64(id)}, keyData...)
	data = append(data, boundsCalldata(b)...)
	data = append(data, liq, "0x0", "0x0", Bool(collectFees))
	return domain.Call{ContractAddress: contract, Entrypoint: EntryWithdraw, Calldata: data}, nil
}

// TransferFromCall construye nft.transferFrom(from, to, token_id).
func TransferFromCall(nft, from, to string, tokenID *uint256.Int) (domain.Call, error) {
	contract, err := Address(nft)
	if err != nil {
		return domain.Call{}, fmt.Errorf("starknet.TransferFromCall: %w", err)
	}
	fromAddr, err := Address(from)
	if err != nil {
		return domain.Call{}, fmt.Errorf("starknet.TransferFromCall: from: %w", err)
	}
	toAddr, err := Address(to)
	if err != nil {
		return domain.Call{}, fmt.Errorf("starknet.TransferFromCall: to: %w", err)
	}
	data := append([]string{fromAddr, toAddr}, U256(tokenID)...)
	return domain.Call{ContractAddress: contract, Entrypoint: EntryTransferFrom, Calldata: data}, nil
}

// poolKeyCalldata serializa PoolKey{token0, token1, fee: u128,
// tick_spacing: u128, extension}.
func poolKeyCalldata(key domain.PoolKey) ([]string, error) {
	t0, err := Address(key.Token0)
	if err != nil {
		return nil, fmt.Errorf("pool key token0: %w", err)
	}
	t1, err := Address(key.Token1)
	if err != nil {
		return nil, fmt.Errorf("pool key token1: %w", err)
	}
	fee, err := ParseU128(key.Fee)
	if err != nil {
		return nil, fmt.Errorf("pool key fee: %w", err)
	}
	spacing, err := ParseU128(key.TickSpacing)
	if err != nil {
		return nil, fmt.Errorf("pool key tick_spacing: %w", err)
	}
	ext := key.Extension
	if ext == "" {
		ext = "0x0"
	}
	extension, err := Address(ext)
	if err != nil {
		return nil, fmt.Errorf("pool key extension: %w", err)
	}
	return []string{t0, t1, fee, spacing, extension}, nil
}

func boundsCalldata(b Bounds) []string {
	return append(I129(b.Lower), I129(b.Upper)...)
}
