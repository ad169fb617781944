package starknet

// calldata.go: serialización Cairo de los argumentos de las calls.
//
// Todo termina como una lista de felts en hex:
//   - felt / ContractAddress: un felt (< P = 2^251 + 17·2^192 + 1)
//   - u128: un felt (< 2^128)
//   - u256: dos felts, low y high de 128 bits
//   - i129: dos felts, mag (u128) y sign (0/1)
//   - bool: 0 o 1

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var (
	// feltPrime es el módulo del campo de Starknet.
	feltPrime = func() *uint256.Int {
		p := new(uint256.Int).Lsh(uint256.NewInt(1), 251)
		p.Add(p, new(uint256.Int).Lsh(uint256.NewInt(17), 192))
		return p.AddUint64(p, 1)
	}()

	u128Max    = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))
	low128Mask = u128Max

	// selectorMask deja los 250 bits bajos del keccak.
	selectorMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 250), big.NewInt(1))
)

// Felt serializa un entero como felt en hex.
func Felt(v *uint256.Int) string {
	return hexutil.EncodeBig(v.ToBig())
}

// FeltUint64 serializa un uint64 como felt.
func FeltUint64(v uint64) string {
	return hexutil.EncodeUint64(v)
}

// ParseFelt parsea un felt en hex (0x…) o decimal y valida que esté en el campo.
func ParseFelt(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("starknet.ParseFelt: empty value: %w", domain.ErrInvalidArgument)
	}
	b, ok := math.ParseBig256(s)
	if !ok || b.Sign() < 0 {
		return nil, fmt.Errorf("starknet.ParseFelt: invalid felt %q: %w", s, domain.ErrInvalidArgument)
	}
	v, _ := uint256.FromBig(b)
	if !v.Lt(feltPrime) {
		return nil, fmt.Errorf("starknet.ParseFelt: %q out of field: %w", s, domain.ErrInvalidArgument)
	}
	return v, nil
}

// Address normaliza una dirección a felt en hex minúsculas sin ceros a la
// izquierda.
func Address(addr string) (string, error) {
	v, err := ParseFelt(addr)
	if err != nil {
		return "", fmt.Errorf("starknet.Address: %w", err)
	}
	return Felt(v), nil
}

// U128 serializa un entero que tiene que caber en 128 bits.
func U128(v *uint256.Int) (string, error) {
	if v.Gt(u128Max) {
		return "", fmt.Errorf("starknet.U128: %s overflows u128: %w", v.Dec(), domain.ErrInvalidArgument)
	}
	return Felt(v), nil
}

// ParseU128 parsea y serializa un u128 en hex o decimal.
func ParseU128(s string) (string, error) {
	v, err := ParseFelt(s)
	if err != nil {
		return "", err
	}
	return U128(v)
}

// U256 divide v en [low, high].
func U256(v *uint256.Int) []string {
	low := new(uint256.Int).And(v, low128Mask)
	high := new(uint256.Int).Rsh(v, 128)
	return []string{Felt(low), Felt(high)}
}

// I129 serializa un entero con signo como [mag, sign].
func I129(v int64) []string {
	mag := uint64(v)
	if v < 0 {
		mag = uint64(-v)
	}
	return []string{FeltUint64(mag), Bool(v < 0)}
}

// Bool serializa un bool.
func Bool(b bool) string {
	if b {
		return "0x1"
	}
	return "0x0"
}

// Amount escala una cantidad humana por 10^decimals y trunca la parte
// fraccionaria que no representa el token.
func Amount(amount decimal.Decimal, decimals int) (*uint256.Int, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("starknet.Amount: negative amount %s: %w", amount, domain.ErrInvalidArgument)
	}
	raw := amount.Shift(int32(decimals)).Truncate(0).BigInt()
	v, overflow := uint256.FromBig(raw)
	if overflow {
		return nil, fmt.Errorf("starknet.Amount: %s overflows u256: %w", amount, domain.ErrInvalidArgument)
	}
	return v, nil
}

// Selector devuelve el selector de un entrypoint: keccak256(name) truncado a
// 250 bits.
func Selector(entrypoint string) string {
	h := new(big.Int).SetBytes(crypto.Keccak256([]byte(entrypoint)))
	return hexutil.EncodeBig(h.And(h, selectorMask))
}
