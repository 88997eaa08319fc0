package orders

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bagaspradana/tokoadmin-backend/pkg/enums"
	pkgerrors "github.com/bagaspradana/tokoadmin-backend/pkg/errors"
	"github.com/bagaspradana/tokoadmin-backend/pkg/livequery"
	"github.com/bagaspradana/tokoadmin-backend/pkg/logger"
)

type recordingChanges struct {
	mu          sync.Mutex
	collections []string
}

func (r *recordingChanges) PublishChange(ctx context.Context, collection string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collections = append(r.collections, collection)
	return nil
}

type serviceFixture struct {
	svc     Service
	changes *recordingChanges
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db := setupOrderTestDB(t)
	repo := NewRepository(db)
	changes := &recordingChanges{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	svc, err := NewService(repo, changes, livequery.NewLocalNotifier(), nil, logg)
	require.NoError(t, err)
	return &serviceFixture{svc: svc, changes: changes}
}

func sampleCreateInput() CreateInput {
	return CreateInput{
		CustomerName: "Budi Santoso",
		Branch:       enums.OrderBranchPusat,
		Discount:     decimal.NewFromInt(10000),
		Items: []ItemInput{
			{Name: "Indomie Goreng", Quantity: 2, UnitPrice: decimal.NewFromInt(50000)},
			{Name: "Teh Botol", Quantity: 1, UnitPrice: decimal.NewFromInt(30000)},
		},
	}
}

func TestOrderCreateRecomputesTotals(t *testing.T) {
	f := newServiceFixture(t)

	dto, err := f.svc.Create(context.Background(), sampleCreateInput())
	require.NoError(t, err)

	assert.True(t, dto.Subtotal.Equal(decimal.NewFromInt(130000)), "subtotal %s", dto.Subtotal)
	assert.True(t, dto.Total.Equal(decimal.NewFromInt(120000)), "total %s", dto.Total)
	require.Len(t, dto.Items, 2)
	assert.True(t, dto.Items[0].Subtotal.Equal(decimal.NewFromInt(100000)))
	assert.Equal(t, "pending", dto.Status)
	assert.True(t, strings.HasPrefix(dto.OrderNumber, "ORD-"))
	assert.Equal(t, []string{"orders"}, f.changes.collections)
}

func TestOrderCreateValidation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	input := sampleCreateInput()
	input.CustomerName = "  "
	_, err := f.svc.Create(ctx, input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	input = sampleCreateInput()
	input.Branch = "bekasi"
	_, err = f.svc.Create(ctx, input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	input = sampleCreateInput()
	input.Status = "refunded"
	_, err = f.svc.Create(ctx, input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	input = sampleCreateInput()
	input.Items = nil
	_, err = f.svc.Create(ctx, input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	input = sampleCreateInput()
	input.Items[0].Quantity = 0
	_, err = f.svc.Create(ctx, input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestOrderUpdateReplacesItemsAndRecomputes(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, sampleCreateInput())
	require.NoError(t, err)

	newItems := []ItemInput{
		{Name: "Kopi Susu", Quantity: 4, UnitPrice: decimal.NewFromInt(15000)},
	}
	zero := decimal.Zero
	updated, err := f.svc.Update(ctx, created.ID, UpdateInput{Items: &newItems, Discount: &zero})
	require.NoError(t, err)

	require.Len(t, updated.Items, 1)
	assert.True(t, updated.Subtotal.Equal(decimal.NewFromInt(60000)))
	assert.True(t, updated.Total.Equal(decimal.NewFromInt(60000)))
}

func TestOrderUpdateStatus(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, sampleCreateInput())
	require.NoError(t, err)

	dto, err := f.svc.UpdateStatus(ctx, created.ID, enums.OrderStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, "paid", dto.Status)

	_, err = f.svc.UpdateStatus(ctx, created.ID, "refunded")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = f.svc.UpdateStatus(ctx, uuid.New(), enums.OrderStatusPaid)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestOrderDelete(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, sampleCreateInput())
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, created.ID))
	_, err = f.svc.Get(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestOrderListFiltersByCustomerPrefix(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	for _, name := range []string{"Budi Santoso", "Budiman", "Citra Ayu"} {
		input := sampleCreateInput()
		input.CustomerName = name
		_, err := f.svc.Create(ctx, input)
		require.NoError(t, err)
	}

	result, err := f.svc.List(ctx, ListInput{Term: "Budi", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	for _, item := range result.Items {
		assert.True(t, strings.HasPrefix(item.CustomerName, "Budi"))
	}
}
