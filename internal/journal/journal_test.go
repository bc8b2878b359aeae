package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GophShop/internal/model"
)

func newJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "checkouts.journal"))
	require.NoError(t, err)
	return j
}

func samplePlan() Plan {
	return Plan{
		UserID:    3,
		OrderTime: 1700000000,
		Address:   "Main st 1",
		Lines:     []model.CartItem{{UserID: 3, ProductID: 7, Count: 3, Delivery: model.DeliveryExpress}},
		Products:  []Product{{ID: 7, Name: "Tea", Price: 99}},
	}
}

func TestJournal_PendingTracksSteps(t *testing.T) {
	ctx := context.Background()
	j := newJournal(t)

	id, err := j.Begin(ctx, samplePlan())
	require.NoError(t, err)
	require.NoError(t, j.Mark(ctx, id, StepCart))
	require.NoError(t, j.Mark(ctx, id, StockStep(7)))

	pending, err := j.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id, pending[0].ID)
	assert.Equal(t, samplePlan(), pending[0].Plan)
	assert.True(t, pending[0].Done[StepCart])
	assert.True(t, pending[0].Done["stock:7"])
	assert.False(t, pending[0].Done[StepOrder])
	assert.Equal(t, int64(1700000003), pending[0].Plan.OrderID())
}

func TestJournal_DoneClearsPending(t *testing.T) {
	ctx := context.Background()
	j := newJournal(t)

	first, err := j.Begin(ctx, samplePlan())
	require.NoError(t, err)
	second, err := j.Begin(ctx, samplePlan())
	require.NoError(t, err)
	require.NoError(t, j.Mark(ctx, first, StepDone))

	pending, err := j.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second, pending[0].ID)

	// пока есть незавершённое оформление, файл не сжимается
	require.NoError(t, j.Compact(ctx))
	st, err := os.Stat(j.Path())
	require.NoError(t, err)
	assert.NotZero(t, st.Size())

	require.NoError(t, j.Mark(ctx, second, StepDone))
	require.NoError(t, j.Compact(ctx))
	st, err = os.Stat(j.Path())
	require.NoError(t, err)
	assert.Zero(t, st.Size())
}

func TestJournal_TornLineIgnored(t *testing.T) {
	ctx := context.Background()
	j := newJournal(t)
	id, err := j.Begin(ctx, samplePlan())
	require.NoError(t, err)

	fh, err := os.OpenFile(j.Path(), os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = fh.WriteString(`{"id":"` + id.String() + `","step":"do`)
	require.NoError(t, err)
	require.NoError(t, fh.Close())

	pending, err := j.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Empty(t, pending[0].Done)
}

func TestJournal_MarkBeginRejected(t *testing.T) {
	j := newJournal(t)
	id, err := j.Begin(context.Background(), samplePlan())
	require.NoError(t, err)
	assert.Error(t, j.Mark(context.Background(), id, StepBegin))
}

func TestJournal_WriteAfterTornLine(t *testing.T) {
	ctx := context.Background()
	j := newJournal(t)
	id, err := j.Begin(ctx, samplePlan())
	require.NoError(t, err)

	fh, err := os.OpenFile(j.Path(), os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = fh.WriteString(`{"id":"`)
	require.NoError(t, err)
	require.NoError(t, fh.Close())

	require.NoError(t, j.Mark(ctx, id, StepDone))
	pending, err := j.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
