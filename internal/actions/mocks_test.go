package actions

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/holiman/uint256"
)

const (
	walletAddr    = "0x0123"
	tsaAddr       = "0x456"
	positionsAddr = "0x06a2aee84bb0ed5dded4384ddd0e40e9c1372b818668375ab8e3ec08807417e5"
	nftAddr       = "0x04afc78d6fec3b122fc1f60276f074e557749df1a77a93416451be72c435120f"
	ethAddr       = "0x049d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7"
	usdcAddr      = "0x053c91253bc9682c04929ca02ed00b3e423f6710d2ee7e0d5ebb06f3ecf368a8"
)

var (
	eth  = domain.Token{Address: ethAddr, Symbol: "ETH", Decimals: 18}
	usdc = domain.Token{Address: usdcAddr, Symbol: "USDC", Decimals: 6}

	connected = domain.Session{Address: walletAddr, Connected: true}
)

// --- mockAccountStore ---

type mockAccountStore struct {
	mu    sync.Mutex
	users map[string]domain.UserAccount
	err   error
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{users: map[string]domain.UserAccount{}}
}

func (m *mockAccountStore) UpsertUser(_ context.Context, address string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	key := strings.ToLower(address)
	if _, ok := m.users[key]; !ok {
		m.users[key] = domain.UserAccount{Address: key, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	}
	return nil
}

func (m *mockAccountStore) GetUser(_ context.Context, address string) (domain.UserAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[strings.ToLower(address)]
	if !ok {
		return domain.UserAccount{}, domain.ErrAccountNotFound
	}
	return u, nil
}

func (m *mockAccountStore) SetTSA(_ context.Context, address, tsa string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(address)
	u, ok := m.users[key]
	if !ok {
		return domain.ErrAccountNotFound
	}
	u.TSA = tsa
	m.users[key] = u
	return nil
}

// --- mockPoolProvider ---

type mockPoolProvider struct {
	pools []domain.PoolCandidate
	err   error
}

func (m *mockPoolProvider) FetchPoolCandidates(context.Context, string, string) ([]domain.PoolCandidate, error) {
	return m.pools, m.err
}

// --- mockExecutor ---

type mockExecutor struct {
	mu      sync.Mutex
	batches [][]domain.Call
	err     error
}

func (m *mockExecutor) Execute(_ context.Context, calls []domain.Call) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.batches = append(m.batches, calls)
	return "0xtx", nil
}

// --- mockChain ---

type mockChain struct {
	deployed map[string]bool
	owners   map[string]string // token id decimal → owner
	err      error
}

func (m *mockChain) IsDeployed(_ context.Context, address string) (bool, error) {
	return m.deployed[address], m.err
}

func (m *mockChain) OwnerOf(_ context.Context, _ string, tokenID *uint256.Int) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	owner, ok := m.owners[tokenID.Dec()]
	if !ok {
		return "", errors.New("token not minted")
	}
	return owner, nil
}

// --- mockTxWatcher ---

type mockTxWatcher struct {
	receipt domain.TxReceipt
	err     error
	waited  []string
}

func (m *mockTxWatcher) WaitForTransaction(_ context.Context, txHash string) (domain.TxReceipt, error) {
	m.waited = append(m.waited, txHash)
	return m.receipt, m.err
}

func newTestService(opts ...Option) (*Service, *mockAccountStore, *mockExecutor) {
	accounts := newMockAccountStore()
	exec := &mockExecutor{}
	svc := New(Contracts{Positions: positionsAddr, NFT: nftAddr}, accounts, &mockPoolProvider{}, exec, opts...)
	return svc, accounts, exec
}
