package starknet

import (
	"errors"
	"testing"

	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	positionsAddr = "0x06a2aee84bb0ed5dded4384ddd0e40e9c1372b818668375ab8e3ec08807417e5"
	nftAddr       = "0x04afc78d6fec3b122fc1f60276f074e557749df1a77a93416451be72c435120f"
	ethAddr       = "0x049d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7"
	usdcAddr      = "0x053c91253bc9682c04929ca02ed00b3e423f6710d2ee7e0d5ebb06f3ecf368a8"
	walletAddr    = "0x0123"
	tsaAddr       = "0x0456"
)

func testKey() domain.PoolKey {
	return domain.PoolKey{
		Token0:      ethAddr,
		Token1:      usdcAddr,
		Fee:         "1020847100762815390390123822295304634",
		TickSpacing: "5096",
		Extension:   "0x0",
	}
}

func TestTransferCall(t *testing.T) {
	c, err := TransferCall(ethAddr, positionsAddr, uint256.NewInt(1000))
	require.NoError(t, err)

	assert.Equal(t, "0x49d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7", c.ContractAddress)
	assert.Equal(t, EntryTransfer, c.Entrypoint)
	assert.Equal(t, []string{
		"0x6a2aee84bb0ed5dded4384ddd0e40e9c1372b818668375ab8e3ec08807417e5",
		"0x3e8", "0x0",
	}, c.Calldata)
}

func TestTransferCall_BadAddress(t *testing.T) {
	_, err := TransferCall("nope", positionsAddr, uint256.NewInt(1))
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestMintAndDepositCall_Layout(t *testing.T) {
	c, err := MintAndDepositCall(positionsAddr, testKey(), Bounds{Lower: -20135200, Upper: 1000}, uint256.NewInt(0))
	require.NoError(t, err)

	assert.Equal(t, EntryMintAndDeposit, c.Entrypoint)
	require.Len(t, c.Calldata, 10)
	// pool_key
	assert.Equal(t, "0x49d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7", c.Calldata[0])
	assert.Equal(t, "0x53c91253bc9682c04929ca02ed00b3e423f6710d2ee7e0d5ebb06f3ecf368a8", c.Calldata[1])
	assert.Equal(t, "0xc49ba5e353f7ced916872b020c49ba", c.Calldata[2])
	assert.Equal(t, "0x13e8", c.Calldata[3])
	assert.Equal(t, "0x0", c.Calldata[4])
	// bounds: lower {mag, sign}, upper {mag, sign}
	assert.Equal(t, []string{"0x1333d20", "0x1", "0x3e8", "0x0"}, c.Calldata[5:9])
	// min_liquidity
	assert.Equal(t, "0x0", c.Calldata[9])
}

func TestMintAndDepositCall_FeeOverflow(t *testing.T) {
	key := testKey()
	key.Fee = "0x100000000000000000000000000000000" // 2^128
	_, err := MintAndDepositCall(positionsAddr, key, Bounds{}, uint256.NewInt(0))
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestClearCall(t *testing.T) {
	c, err := ClearCall(positionsAddr, usdcAddr)
	require.NoError(t, err)
	assert.Equal(t, EntryClear, c.Entrypoint)
	assert.Equal(t, []string{"0x53c91253bc9682c04929ca02ed00b3e423f6710d2ee7e0d5ebb06f3ecf368a8"}, c.Calldata)
}

func TestWithdrawCall_Layout(t *testing.T) {
	key := testKey()
	key.Extension = ""
	c, err := WithdrawCall(positionsAddr, 1234, key, Bounds{Lower: -20135200, Upper: -19934400}, uint256.NewInt(5000), true)
	require.NoError(t, err)

	assert.Equal(t, EntryWithdraw, c.Entrypoint)
	require.Len(t, c.Calldata, 14)
	assert.Equal(t, "0x4d2", c.Calldata[0])
	assert.Equal(t, "0x0", c.Calldata[5], "extension vacía se serializa como cero")
	assert.Equal(t, []string{"0x1333d20", "0x1", "0x1302cc0", "0x1"}, c.Calldata[6:10])
	// liquidity, min_token0, min_token1, collect_fees
	assert.Equal(t, []string{"0x1388", "0x0", "0x0", "0x1"}, c.Calldata[10:])
}

func TestTransferFromCall(t *testing.T) {
	c, err := TransferFromCall(nftAddr, walletAddr, tsaAddr, uint256.NewInt(1234))
	require.NoError(t, err)
	assert.Equal(t, EntryTransferFrom, c.Entrypoint)
	assert.Equal(t, "0x4afc78d6fec3b122fc1f60276f074e557749df1a77a93416451be72c435120f", c.ContractAddress)
	assert.Equal(t, []string{"0x123", "0x456", "0x4d2", "0x0"}, c.Calldata)
}
