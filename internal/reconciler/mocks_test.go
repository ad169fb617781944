package reconciler_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	ethAddr  = "0x049d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7"
	usdcAddr = "0x053c91253bc9682c04929ca02ed00b3e423f6710d2ee7e0d5ebb06f3ecf368a8"
	strkAddr = "0x04718f5a0fc34cc1af16a1cdee98ffb20c31f5cd61d6ab07201858f4287c938d"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testDirectory() *domain.TokenDirectory {
	return domain.NewTokenDirectory([]domain.Token{
		{Address: ethAddr, Symbol: "ETH", Decimals: 18},
		{Address: usdcAddr, Symbol: "USDC", Decimals: 6},
	})
}

// makeMeta arma un documento ETH/USDC con el nombre dado. Las direcciones de
// los atributos van sin el cero inicial, como las devuelve el indexer.
func makeMeta(id, name string) domain.PositionMetadata {
	return domain.PositionMetadata{
		ID:   id,
		Name: name,
		Attributes: []domain.Attribute{
			{TraitType: domain.TraitToken0, Value: "0x49d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7"},
			{TraitType: domain.TraitToken1, Value: "0x53c91253bc9682c04929ca02ed00b3e423f6710d2ee7e0d5ebb06f3ecf368a8"},
		},
	}
}

// --- mocks ---

type mockPriceProvider struct {
	price decimal.Decimal
	err   error
	delay time.Duration

	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (m *mockPriceProvider) FetchPrice(ctx context.Context, token0, token1 string) (decimal.Decimal, error) {
	m.calls.Add(1)
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		old := m.maxSeen.Load()
		if n <= old || m.maxSeen.CompareAndSwap(old, n) {
			break
		}
	}

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return decimal.Zero, ctx.Err()
		}
	}
	return m.price, m.err
}

type mockPositionProvider struct {
	refs    []domain.PositionRef
	refsErr error
	docs    []domain.PositionMetadata
}

func (m *mockPositionProvider) FetchPositionRefs(_ context.Context, _ string) ([]domain.PositionRef, error) {
	return m.refs, m.refsErr
}

func (m *mockPositionProvider) FetchMetadataDocuments(_ context.Context, _ []domain.PositionRef) []domain.PositionMetadata {
	return m.docs
}

func (m *mockPositionProvider) FetchPosition(_ context.Context, ref domain.PositionRef) (domain.PositionMetadata, error) {
	for _, d := range m.docs {
		if d.ID == ref.ID {
			return d, nil
		}
	}
	return domain.PositionMetadata{}, errors.New("not found")
}

type mockTokenProvider struct {
	tokens []domain.Token
	err    error
	calls  int
}

func (m *mockTokenProvider) FetchTokens(_ context.Context) ([]domain.Token, error) {
	m.calls++
	return m.tokens, m.err
}

type mockNotifier struct {
	mu    sync.Mutex
	snaps []domain.Snapshot
}

func (m *mockNotifier) Notify(_ context.Context, snap domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps = append(m.snaps, snap)
	return nil
}

func (m *mockNotifier) owners() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.snaps))
	for i, s := range m.snaps {
		out[i] = s.Owner
	}
	return out
}
