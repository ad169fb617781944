package notify_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alejandrodnm/titan/internal/adapters/notify"
	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "0x0123456789abcdef0123456789abcdef"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func makePosition(id, current string, inRange bool) domain.ReconciledPosition {
	return domain.ReconciledPosition{
		Metadata:     domain.PositionMetadata{ID: id},
		Token0:       domain.Token{Symbol: "ETH"},
		Token1:       domain.Token{Symbol: "USDC"},
		Label:        "Ekubo Position",
		FeeLabel:     "0.3% fee",
		MinPrice:     dec("1800.5"),
		MaxPrice:     dec("2200.75"),
		CurrentPrice: dec(current),
		IsInRange:    inRange,
	}
}

func snapshot(positions ...domain.ReconciledPosition) domain.Snapshot {
	return domain.Snapshot{
		Owner:      owner,
		RunID:      "3f2a9c1e-0000-0000-0000-000000000000",
		Generation: 7,
		Positions:  positions,
		UpdatedAt:  time.Now(),
	}
}

func TestConsole_Notify_Table(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	snap := snapshot(makePosition("1234", "2000", true), makePosition("99", "2300", false))
	require.NoError(t, n.Notify(context.Background(), snap))

	out := buf.String()
	assert.Contains(t, out, "2 positions, 1 in range")
	assert.Contains(t, out, "run 3f2a9c1e, gen 7")
	assert.Contains(t, out, "1234")
	assert.Contains(t, out, "ETH/USDC")
	assert.Contains(t, out, "1800.5")
	assert.Contains(t, out, "2200.75")
	assert.Contains(t, out, "IN RANGE")
	assert.Contains(t, out, "OUT")
}

func TestConsole_Notify_UnknownPrice(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	require.NoError(t, n.Notify(context.Background(), snapshot(makePosition("1", "0", false))))
	assert.Contains(t, buf.String(), "UNKNOWN")
}

func TestConsole_Notify_Compact(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	var ps []domain.ReconciledPosition
	for _, id := range []string{"1", "2", "3", "4", "5", "6"} {
		ps = append(ps, makePosition(id, "2000", true))
	}
	require.NoError(t, n.Notify(context.Background(), snapshot(ps...)))

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\n"), "el modo compacto es una sola línea")
	assert.Contains(t, out, "6 positions, in range: 6")
	assert.Contains(t, out, "#4 ETH/USDC IN RANGE")
	assert.NotContains(t, out, "#5 ")
	assert.Contains(t, out, "+2 more")
}

func TestConsole_Notify_Empty(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	require.NoError(t, n.Notify(context.Background(), snapshot()))
	assert.Contains(t, buf.String(), "no positions found")
	assert.Contains(t, buf.String(), "0x0123…cdef")
}

func TestConsole_Notify_ErrorKeepsPrevious(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	snap := snapshot(makePosition("1", "2000", true))
	snap.Err = errors.New("positions: upstream unavailable")
	require.NoError(t, n.Notify(context.Background(), snap))

	out := buf.String()
	assert.Contains(t, out, "refresh failed")
	assert.Contains(t, out, "showing previous result")
	assert.Contains(t, out, "#1 ETH/USDC")
}

func TestConsole_Notify_ErrorWithoutPrevious(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	snap := snapshot()
	snap.Err = errors.New("boom")
	require.NoError(t, n.Notify(context.Background(), snap))

	out := buf.String()
	assert.Contains(t, out, "refresh failed")
	assert.NotContains(t, out, "no positions found")
}

func TestConsole_Notify_LongLabelTruncated(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	p := makePosition("1", "2000", true)
	p.Label = strings.Repeat("A", 50)
	require.NoError(t, n.Notify(context.Background(), snapshot(p)))
	assert.Contains(t, buf.String(), "...")
}

func TestConsole_PrintPools(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	n.PrintPools(domain.Token{Symbol: "ETH"}, domain.Token{Symbol: "USDC"}, []domain.PoolCandidate{
		{Fee: "1020847100762815390390123822295304634", TickSpacing: "5096", Extension: "0x0"},
	})

	out := buf.String()
	assert.Contains(t, out, "ETH/USDC: 1 pools")
	assert.Contains(t, out, "0.3")
	assert.Contains(t, out, "5096")
	assert.Contains(t, out, "0.0051")
}

func TestConsole_PrintPools_Empty(t *testing.T) {
	var buf bytes.Buffer
	notify.NewConsoleWriter(&buf, true).PrintPools(domain.Token{Symbol: "A"}, domain.Token{Symbol: "B"}, nil)
	assert.Contains(t, buf.String(), "(none)")
}

func TestConsole_PrintCalls(t *testing.T) {
	var buf bytes.Buffer
	notify.NewConsoleWriter(&buf, true).PrintCalls("0xabc", []domain.Call{
		{ContractAddress: "0x1", Entrypoint: "transfer", Calldata: []string{"0x2", "0x3e8", "0x0"}},
	})

	out := buf.String()
	assert.Contains(t, out, "multicall 0xabc (1 calls)")
	assert.Contains(t, out, "1. 0x1.transfer(0x2, 0x3e8, 0x0)")
}

func TestConsole_PrintHistory(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	n.PrintHistory(notify.HistoryInput{
		Owner: owner,
		Runs: []domain.RunRecord{
			{RunID: "aaaaaaaa-1", Generation: 2, Positions: 3, InRange: 1, RanAt: time.Now()},
			{RunID: "bbbbbbbb-1", Generation: 1, Error: "upstream unavailable", RanAt: time.Now()},
		},
		States: []domain.PositionState{
			{PositionID: "1234", Pair: "ETH/USDC", MinPrice: dec("1800"), MaxPrice: dec("2200"), LastPrice: dec("2000"), Status: "IN RANGE", LastChange: time.Now()},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Runs (2)")
	assert.Contains(t, out, "aaaaaaaa")
	assert.Contains(t, out, "1 of 2 runs failed upstream")
	assert.Contains(t, out, "Positions (1)")
	assert.Contains(t, out, "1234")
}

type recordingNotifier struct {
	calls int
	err   error
}

func (r *recordingNotifier) Notify(context.Context, domain.Snapshot) error {
	r.calls++
	return r.err
}

func TestMulti_CallsAllAndJoinsErrors(t *testing.T) {
	errA := errors.New("a failed")
	a := &recordingNotifier{err: errA}
	b := &recordingNotifier{}

	err := notify.Multi{a, nil, b}.Notify(context.Background(), snapshot())
	assert.ErrorIs(t, err, errA)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}
