package domain

import "strings"

// AddressSuffixLen es la cantidad de caracteres hex finales que se comparan
// para identificar un token. Los atributos de los NFTs de Ekubo y la lista de
// tokens no siempre usan el mismo padding, así que solo el sufijo es estable.
const AddressSuffixLen = 60

// feltHexLen es el ancho de una dirección Starknet con padding completo.
const feltHexLen = 64

// Token es un activo fungible de Starknet tal como lo devuelve GET /tokens.
type Token struct {
	Address     string // l2_token_address, hex con 0x
	Name        string
	Symbol      string
	Decimals    int
	LogoURL     string
	SortOrder   int
	TotalSupply float64
}

// Suffix devuelve el sufijo normalizado de la dirección del token.
func (t Token) Suffix() string {
	return AddressSuffix(t.Address)
}

// AddressSuffix normaliza una dirección (minúsculas, sin 0x, padding a 64) y
// devuelve sus últimos AddressSuffixLen caracteres.
func AddressSuffix(addr string) string {
	a := strings.ToLower(strings.TrimSpace(addr))
	a = strings.TrimPrefix(a, "0x")
	if len(a) < feltHexLen {
		a = strings.Repeat("0", feltHexLen-len(a)) + a
	}
	return a[len(a)-AddressSuffixLen:]
}

// ResolveToken busca el token cuyo sufijo de dirección coincide con suffix.
// No encontrarlo no es un error: el caller descarta el registro que lo contiene.
func ResolveToken(tokens []Token, suffix string) (Token, bool) {
	want := AddressSuffix(suffix)
	for _, t := range tokens {
		if t.Suffix() == want {
			return t, true
		}
	}
	return Token{}, false
}

// TokenDirectory es un índice inmutable de tokens por sufijo de dirección.
// Se reemplaza entero en cada recarga; nunca se muta, así que puede leerse
// desde varias goroutines sin locks.
type TokenDirectory struct {
	tokens   []Token
	bySuffix map[string]Token
	bySymbol map[string]Token
}

// NewTokenDirectory construye el índice. Si dos tokens comparten sufijo gana
// el primero, igual que una búsqueda lineal.
func NewTokenDirectory(tokens []Token) *TokenDirectory {
	d := &TokenDirectory{
		tokens:   make([]Token, len(tokens)),
		bySuffix: make(map[string]Token, len(tokens)),
		bySymbol: make(map[string]Token, len(tokens)),
	}
	copy(d.tokens, tokens)
	for _, t := range tokens {
		if _, ok := d.bySuffix[t.Suffix()]; !ok {
			d.bySuffix[t.Suffix()] = t
		}
		sym := strings.ToUpper(t.Symbol)
		if _, ok := d.bySymbol[sym]; !ok && sym != "" {
			d.bySymbol[sym] = t
		}
	}
	return d
}

// Resolve busca un token por dirección o sufijo de dirección.
func (d *TokenDirectory) Resolve(addr string) (Token, bool) {
	if d == nil {
		return Token{}, false
	}
	t, ok := d.bySuffix[AddressSuffix(addr)]
	return t, ok
}

// BySymbol busca un token por símbolo, sin distinguir mayúsculas.
func (d *TokenDirectory) BySymbol(symbol string) (Token, bool) {
	if d == nil {
		return Token{}, false
	}
	t, ok := d.bySymbol[strings.ToUpper(symbol)]
	return t, ok
}

// Lookup acepta un símbolo o una dirección.
func (d *TokenDirectory) Lookup(symbolOrAddr string) (Token, bool) {
	if strings.HasPrefix(strings.ToLower(symbolOrAddr), "0x") {
		return d.Resolve(symbolOrAddr)
	}
	return d.BySymbol(symbolOrAddr)
}

// Len devuelve la cantidad de tokens del directorio.
func (d *TokenDirectory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.tokens)
}

// Tokens devuelve una copia de la lista original.
func (d *TokenDirectory) Tokens() []Token {
	if d == nil {
		return nil
	}
	out := make([]Token, len(d.tokens))
	copy(out, d.tokens)
	return out
}
