package ekubo

import (
	"bytes"
	"encoding/json"
)

// DTOs raw de la API de Ekubo. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// flexString acepta un valor JSON string, número o null y lo guarda como
// texto. La API mezcla ambos formatos en ids, fees y atributos.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

// tokenDTO es un item de GET /tokens.
type tokenDTO struct {
	Name           string   `json:"name"`
	Symbol         string   `json:"symbol"`
	Decimals       int      `json:"decimals"`
	L2TokenAddress string   `json:"l2_token_address"`
	SortOrder      int      `json:"sort_order"`
	TotalSupply    *float64 `json:"total_supply"`
	LogoURL        string   `json:"logo_url"`
}

// positionsResponse es la respuesta de GET /positions/{owner}.
type positionsResponse struct {
	Data []positionRefDTO `json:"data"`
}

type positionRefDTO struct {
	ID          flexString `json:"id"`
	MetadataURL string     `json:"metadata_url"`
}

// metadataDTO es el documento apuntado por metadata_url.
type metadataDTO struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
	Attributes  []attributeDTO `json:"attributes"`
}

type attributeDTO struct {
	TraitType string     `json:"trait_type"`
	Value     flexString `json:"value"`
}

// priceResponse es la respuesta de GET /price/{t0}/{t1}. El precio puede
// venir como número o como string; se conserva crudo para coercionarlo.
type priceResponse struct {
	Price json.RawMessage `json:"price"`
}

// poolsResponse es la respuesta de GET /pair/{t0}/{t1}/pools.
type poolsResponse struct {
	TopPools []poolDTO `json:"topPools"`
}

type poolDTO struct {
	Fee         flexString `json:"fee"`
	TickSpacing flexString `json:"tick_spacing"`
	Extension   flexString `json:"extension"`
}
