package actions

import (
	"context"
	"errors"
	"testing"

	"github.com/alejandrodnm/titan/internal/adapters/starknet"
	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/alejandrodnm/titan/internal/tickmath"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mediumPool(t *testing.T) domain.PoolCandidate {
	t.Helper()
	p, err := DefaultPool(domain.FeeMedium)
	require.NoError(t, err)
	return p
}

func addRequest(t *testing.T) AddRequest {
	return AddRequest{
		Token0:     eth,
		Token1:     usdc,
		Pool:       mediumPool(t),
		Amount0:    dec("1.5"),
		Amount1:    dec("3000"),
		LowerPrice: dec("1800.5"),
		UpperPrice: dec("2200.75"),
	}
}

func TestDefaultPool(t *testing.T) {
	p := mediumPool(t)
	assert.Equal(t, "1020847100762815390390123822295304634", p.Fee)
	assert.Equal(t, "5096", p.TickSpacing)

	_, err := DefaultPool(42)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestAddPosition_Multicall(t *testing.T) {
	svc, _, exec := newTestService()

	res, err := svc.AddPosition(context.Background(), connected, addRequest(t))
	require.NoError(t, err)
	assert.Equal(t, "0xtx", res.ID)

	require.Len(t, exec.batches, 1)
	calls := exec.batches[0]
	entries := make([]string, len(calls))
	for i, c := range calls {
		entries[i] = c.Entrypoint
	}
	assert.Equal(t, []string{
		starknet.EntryTransfer, starknet.EntryTransfer, starknet.EntryMintAndDeposit,
		starknet.EntryClear, starknet.EntryClear,
	}, entries)

	// transfer0: 1.5 ETH en wei al contrato de posiciones
	assert.Equal(t, "0x49d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7", calls[0].ContractAddress)
	assert.Equal(t, []string{"0x6a2aee84bb0ed5dded4384ddd0e40e9c1372b818668375ab8e3ec08807417e5", "0x14d1120d7b160000", "0x0"}, calls[0].Calldata)
	// transfer1: 3000 USDC con 6 decimales
	assert.Equal(t, "0xb2d05e00", calls[1].Calldata[1])
	// mint_and_deposit lleva el tick spacing del pool
	assert.Equal(t, "0x13e8", calls[2].Calldata[3])
}

func TestAddPosition_TicksAlignedOutward(t *testing.T) {
	svc, _, _ := newTestService()

	res, err := svc.AddPosition(context.Background(), connected, addRequest(t))
	require.NoError(t, err)

	rawLower, err := tickmath.PriceToTick(dec("1800.5"))
	require.NoError(t, err)
	rawUpper, err := tickmath.PriceToTick(dec("2200.75"))
	require.NoError(t, err)

	assert.Zero(t, res.Lower%5096)
	assert.Zero(t, res.Upper%5096)
	assert.LessOrEqual(t, res.Lower, rawLower)
	assert.GreaterOrEqual(t, res.Upper, rawUpper)
	assert.Less(t, rawLower-res.Lower, int64(5096))
	assert.Less(t, res.Upper-rawUpper, int64(5096))
}

func TestAddPosition_InvertedRange(t *testing.T) {
	svc, _, exec := newTestService()

	req := addRequest(t)
	req.LowerPrice, req.UpperPrice = req.UpperPrice, req.LowerPrice
	_, err := svc.AddPosition(context.Background(), connected, req)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	assert.Empty(t, exec.batches)
}

func TestAddPosition_NonPositivePrice(t *testing.T) {
	svc, _, _ := newTestService()

	req := addRequest(t)
	req.LowerPrice = decimal.Zero
	_, err := svc.AddPosition(context.Background(), connected, req)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestAddPosition_NotConnected(t *testing.T) {
	svc, _, exec := newTestService()

	_, err := svc.AddPosition(context.Background(), domain.Session{}, addRequest(t))
	assert.True(t, errors.Is(err, domain.ErrPreconditionNotMet))
	assert.Empty(t, exec.batches)
}

func TestAddPosition_ReversedTokensAreReordered(t *testing.T) {
	svc, _, _ := newTestService()

	req := addRequest(t)
	req.Token0, req.Token1 = usdc, eth
	req.Amount0, req.Amount1 = dec("3000"), dec("1.5")
	req.LowerPrice = decimal.NewFromInt(1).DivRound(dec("2200.75"), 36)
	req.UpperPrice = decimal.NewFromInt(1).DivRound(dec("1800.5"), 36)

	res, err := svc.AddPosition(context.Background(), connected, req)
	require.NoError(t, err)

	assert.Equal(t, ethAddr, res.Key.Token0)
	assert.Equal(t, usdcAddr, res.Key.Token1)
	assert.Equal(t, "0x14d1120d7b160000", res.Calls[0].Calldata[1], "el monto de ETH viaja con ETH")

	straight, err := svc.AddPosition(context.Background(), connected, addRequest(t))
	require.NoError(t, err)
	assert.Equal(t, straight.Lower, res.Lower)
	assert.Equal(t, straight.Upper, res.Upper)
}

func TestAddPosition_SameToken(t *testing.T) {
	svc, _, _ := newTestService()

	req := addRequest(t)
	req.Token1 = eth
	_, err := svc.AddPosition(context.Background(), connected, req)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestAddPosition_ExecutorError(t *testing.T) {
	svc, _, exec := newTestService()
	exec.err = errors.New("signer rejected")

	_, err := svc.AddPosition(context.Background(), connected, addRequest(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signer rejected")
}
