package ekubo

import (
	"bytes"
	"encoding/json"
	"net/url"
	"path"
	"strings"

	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/shopspring/decimal"
)

// mapTokens convierte los DTOs de /tokens a domain.Token. Descarta items
// sin dirección.
func mapTokens(raw []tokenDTO) []domain.Token {
	tokens := make([]domain.Token, 0, len(raw))
	for _, r := range raw {
		if r.L2TokenAddress == "" {
			continue
		}
		t := domain.Token{
			Address:   r.L2TokenAddress,
			Name:      r.Name,
			Symbol:    r.Symbol,
			Decimals:  r.Decimals,
			LogoURL:   r.LogoURL,
			SortOrder: r.SortOrder,
		}
		if r.TotalSupply != nil {
			t.TotalSupply = *r.TotalSupply
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// mapPositionRefs convierte la respuesta de /positions. Las refs sin URL se
// descartan: no hay documento que descargar.
func mapPositionRefs(raw []positionRefDTO) []domain.PositionRef {
	refs := make([]domain.PositionRef, 0, len(raw))
	for _, r := range raw {
		if r.MetadataURL == "" {
			continue
		}
		refs = append(refs, domain.PositionRef{
			ID:          string(r.ID),
			MetadataURL: r.MetadataURL,
		})
	}
	return refs
}

// mapMetadata arma el PositionMetadata usando el id de la ref o, si falta,
// el último segmento de la URL del documento.
func mapMetadata(ref domain.PositionRef, r metadataDTO) domain.PositionMetadata {
	m := domain.PositionMetadata{
		ID:          ref.ID,
		Name:        r.Name,
		Description: r.Description,
		Image:       r.Image,
		Attributes:  make([]domain.Attribute, 0, len(r.Attributes)),
	}
	if m.ID == "" {
		m.ID = idFromURL(ref.MetadataURL)
	}
	for _, a := range r.Attributes {
		m.Attributes = append(m.Attributes, domain.Attribute{
			TraitType: a.TraitType,
			Value:     string(a.Value),
		})
	}
	return m
}

func idFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	base := path.Base(strings.TrimRight(u.Path, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// coercePrice interpreta el campo price. Ausente, null, vacío o no numérico
// devuelve 0: el caller lo trata como precio desconocido.
func coercePrice(raw json.RawMessage) decimal.Decimal {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero
	}

	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero
		}
	}
	p, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return p
}

// mapPools convierte topPools a candidatos de dominio.
func mapPools(raw []poolDTO) []domain.PoolCandidate {
	pools := make([]domain.PoolCandidate, 0, len(raw))
	for _, r := range raw {
		pools = append(pools, domain.PoolCandidate{
			Fee:         string(r.Fee),
			TickSpacing: string(r.TickSpacing),
			Extension:   string(r.Extension),
		})
	}
	return pools
}
