package starknet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/ethereum/go-ethereum/crypto"
)

// Exporter implementa ports.CallExecutor sin firmar nada: escribe la
// multicall como JSON para que la firme una wallet externa.
//
// Cada multicall sale en una línea:
//
//	{"id":"0x…","created_at":"…","calls":[{"contractAddress":…}]}
//
// El id es keccak256 de las calls serializadas, así la misma multicall
// exportada dos veces tiene el mismo id.
type Exporter struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewExporter crea un exporter que escribe en w.
func NewExporter(w io.Writer) *Exporter {
	return &Exporter{w: w, now: time.Now}
}

type exportedMulticall struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Calls     []domain.Call `json:"calls"`
}

// Execute serializa las calls y devuelve su id.
func (e *Exporter) Execute(ctx context.Context, calls []domain.Call) (string, error) {
	if len(calls) == 0 {
		return "", fmt.Errorf("starknet.Exporter.Execute: empty multicall: %w", domain.ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("starknet.Exporter.Execute: %w", err)
	}

	id, err := MulticallID(calls)
	if err != nil {
		return "", fmt.Errorf("starknet.Exporter.Execute: %w", err)
	}

	line, err := json.Marshal(exportedMulticall{ID: id, CreatedAt: e.now().UTC(), Calls: calls})
	if err != nil {
		return "", fmt.Errorf("starknet.Exporter.Execute: marshal: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.w.Write(append(line, '\n')); err != nil {
		return "", fmt.Errorf("starknet.Exporter.Execute: write: %w", err)
	}

	slog.Info("multicall exported", "id", id, "calls", len(calls))
	return id, nil
}

// MulticallID devuelve keccak256 de las calls serializadas en JSON.
func MulticallID(calls []domain.Call) (string, error) {
	raw, err := json.Marshal(calls)
	if err != nil {
		return "", fmt.Errorf("marshal calls: %w", err)
	}
	return crypto.Keccak256Hash(raw).Hex(), nil
}
