package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ethAddr  = "0x049d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7"
	usdcAddr = "0x053c91253bc9682c04929ca02ed00b3e423f6710d2ee7e0d5ebb06f3ecf368a8"
)

func testTokens() []Token {
	return []Token{
		{Address: ethAddr, Symbol: "ETH", Decimals: 18},
		{Address: usdcAddr, Symbol: "USDC", Decimals: 6},
	}
}

func TestAddressSuffix_Length(t *testing.T) {
	s := AddressSuffix(ethAddr)
	assert.Len(t, s, AddressSuffixLen)
	assert.Equal(t, ethAddr[len(ethAddr)-AddressSuffixLen:], s)
}

func TestAddressSuffix_PaddingIndependent(t *testing.T) {
	// Sin el cero inicial la dirección es la misma felt
	unpadded := "0x49d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7"
	assert.Equal(t, AddressSuffix(ethAddr), AddressSuffix(unpadded))
}

func TestAddressSuffix_ShortAddress(t *testing.T) {
	s := AddressSuffix("0xabc")
	assert.Len(t, s, AddressSuffixLen)
	assert.Equal(t, "abc", s[len(s)-3:])
}

func TestResolveToken_Found(t *testing.T) {
	tok, ok := ResolveToken(testTokens(), usdcAddr[len(usdcAddr)-60:])
	require.True(t, ok)
	assert.Equal(t, "USDC", tok.Symbol)
}

func TestResolveToken_CaseInsensitive(t *testing.T) {
	upper := "0x049D36570D4E46F48E99674BD3FCC84644DDD6B96F7C741B1562B82F9E004DC7"
	tok, ok := ResolveToken(testTokens(), upper)
	require.True(t, ok, "direcciones que solo difieren en mayúsculas deben resolver igual")
	assert.Equal(t, "ETH", tok.Symbol)
}

func TestResolveToken_NotFound(t *testing.T) {
	_, ok := ResolveToken(testTokens(), "0xdeadbeef")
	assert.False(t, ok)
}

func TestTokenDirectory_MatchesLinearLookup(t *testing.T) {
	dir := NewTokenDirectory(testTokens())
	assert.Equal(t, 2, dir.Len())

	for _, addr := range []string{ethAddr, usdcAddr, "0x1234"} {
		want, wantOK := ResolveToken(testTokens(), addr)
		got, gotOK := dir.Resolve(addr)
		assert.Equal(t, wantOK, gotOK, addr)
		assert.Equal(t, want, got, addr)
	}
}

func TestTokenDirectory_Lookup(t *testing.T) {
	dir := NewTokenDirectory(testTokens())

	tok, ok := dir.Lookup("usdc")
	require.True(t, ok)
	assert.Equal(t, usdcAddr, tok.Address)

	tok, ok = dir.Lookup(ethAddr)
	require.True(t, ok)
	assert.Equal(t, "ETH", tok.Symbol)
}

func TestTokenDirectory_TokensIsCopy(t *testing.T) {
	dir := NewTokenDirectory(testTokens())
	list := dir.Tokens()
	list[0].Symbol = "MUTATED"

	tok, ok := dir.Resolve(ethAddr)
	require.True(t, ok)
	assert.Equal(t, "ETH", tok.Symbol)
}

func TestTokenDirectory_Nil(t *testing.T) {
	var dir *TokenDirectory
	_, ok := dir.Resolve(ethAddr)
	assert.False(t, ok)
	assert.Equal(t, 0, dir.Len())
}
