package journal_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/journal"
	"github.com/salonikashyap7899/RISK-MANAGER/internal/storage/memory"
)

func TestJournal_AppendRequiresAcceptedEntry(t *testing.T) {
	ctx := context.Background()
	j := journal.New(memory.New(), nil)

	rejected := domain.TradeRecord{ID: "x", LegStatus: domain.NewLegStatus()}
	assert.Error(t, j.Append(ctx, rejected))

	assert.Error(t, j.Append(ctx, domain.TradeRecord{LegStatus: domain.LegStatus{Entry: domain.LegPlaced}}))
}

func TestJournal_FillsDateFromTimestamp(t *testing.T) {
	ctx := context.Background()
	j := journal.New(memory.New(), nil)

	rec := domain.TradeRecord{
		ID:        "t1",
		Timestamp: time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC),
		Symbol:    "BTCUSDT",
		LegStatus: domain.LegStatus{Entry: domain.LegPlaced, StopLoss: domain.LegFailed},
	}
	require.NoError(t, j.Append(ctx, rec))

	list, err := j.List(ctx, "2024-05-01")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].IsProtected())

	got, err := j.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", got.Symbol)
}
