package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/Additional-Code/bazaar/internal/entity"
	"github.com/Additional-Code/bazaar/pkg/errorbank"
)

// fakeStore simulates the transactional repository: writes are staged inside
// the transaction callback and discarded when it returns an error.
type fakeStore struct {
	nextID     int64
	customers  map[int64]*entity.Customer
	order      *entity.Order
	items      []entity.OrderItem
	decrements map[int64]int64

	failInsertOrder bool
	failInsertItems bool
	failStock       error
}

func newFakeStore(customerIDs ...int64) *fakeStore {
	customers := make(map[int64]*entity.Customer, len(customerIDs))
	for _, id := range customerIDs {
		customers[id] = &entity.Customer{CustomerID: id}
	}
	return &fakeStore{customers: customers, decrements: map[int64]int64{}}
}

func (f *fakeStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		f.order = nil
		f.items = nil
		f.decrements = map[int64]int64{}
		return err
	}
	return nil
}

func (f *fakeStore) NextID(ctx context.Context, sequence string) (int64, error) {
	f.nextID++
	return f.nextID, nil
}

func (f *fakeStore) FindCustomer(ctx context.Context, customerID int64) (*entity.Customer, error) {
	c, ok := f.customers[customerID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return c, nil
}

func (f *fakeStore) InsertOrder(ctx context.Context, order *entity.Order) error {
	if f.failInsertOrder {
		return errors.New("insert order failed")
	}
	f.order = order
	return nil
}

func (f *fakeStore) InsertOrderItems(ctx context.Context, items []entity.OrderItem) error {
	if f.failInsertItems {
		return mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 121, Message: "Document failed validation"}}}
	}
	f.items = items
	return nil
}

func (f *fakeStore) DecrementStock(ctx context.Context, productID, quantity int64) error {
	if f.failStock != nil {
		return f.failStock
	}
	f.decrements[productID] += quantity
	return nil
}

func TestCreateOrderWithItems(t *testing.T) {
	store := newFakeStore(7)
	svc := newServiceWithStore(store, zap.NewNop(), nil, false)

	lines := []LineItem{
		{ProductID: 1, Quantity: 2, Price: 25},
		{ProductID: 4, Quantity: 1, Price: 349},
	}

	order, items, err := svc.Create(context.Background(), 7, lines)
	require.NoError(t, err)
	require.NotNil(t, order)
	require.Len(t, items, 2)

	assert.Equal(t, int64(7), order.CustomerID)
	assert.Equal(t, entity.OrderStatusProcessing, order.Status)
	assert.False(t, order.OrderDate.IsZero())

	// Every line item links back to the minted order and carries its own id.
	seen := map[int64]struct{}{}
	for _, item := range items {
		assert.Equal(t, order.OrderID, item.OrderID)
		assert.NotZero(t, item.OrderItemID)
		_, dup := seen[item.OrderItemID]
		assert.False(t, dup, "item ids must be unique")
		seen[item.OrderItemID] = struct{}{}
	}

	require.NotNil(t, store.order)
	assert.Len(t, store.items, 2)
	assert.Empty(t, store.decrements, "stock decrement is off by default")
}

func TestCreateDecrementsStockWhenEnabled(t *testing.T) {
	store := newFakeStore(7)
	svc := newServiceWithStore(store, zap.NewNop(), nil, true)

	lines := []LineItem{
		{ProductID: 1, Quantity: 2, Price: 25},
		{ProductID: 4, Quantity: 1, Price: 349},
	}

	_, _, err := svc.Create(context.Background(), 7, lines)
	require.NoError(t, err)

	assert.Equal(t, map[int64]int64{1: 2, 4: 1}, store.decrements)
}

func TestCreateRollsBackOnItemFailure(t *testing.T) {
	store := newFakeStore(7)
	store.failInsertItems = true
	svc := newServiceWithStore(store, zap.NewNop(), nil, false)

	order, items, err := svc.Create(context.Background(), 7, []LineItem{{ProductID: 1, Quantity: 1, Price: 25}})
	require.Error(t, err)
	assert.Nil(t, order)
	assert.Nil(t, items)

	assert.Nil(t, store.order, "aborted transaction leaves no order behind")
	assert.Nil(t, store.items)

	appErr := errorbank.From(err)
	assert.Equal(t, errorbank.KindUnprocessableEntity, appErr.Kind())
}

func TestCreateRollsBackOnOrderFailure(t *testing.T) {
	store := newFakeStore(7)
	store.failInsertOrder = true
	svc := newServiceWithStore(store, zap.NewNop(), nil, false)

	_, _, err := svc.Create(context.Background(), 7, []LineItem{{ProductID: 1, Quantity: 1, Price: 25}})
	require.Error(t, err)
	assert.Nil(t, store.order)
	assert.Nil(t, store.items)
}

func TestCreateRollsBackOnStockFailure(t *testing.T) {
	store := newFakeStore(7)
	store.failStock = errors.New("insufficient stock")
	svc := newServiceWithStore(store, zap.NewNop(), nil, true)

	_, _, err := svc.Create(context.Background(), 7, []LineItem{{ProductID: 1, Quantity: 99, Price: 25}})
	require.Error(t, err)
	assert.Nil(t, store.order)
	assert.Empty(t, store.decrements)
}

func TestCreateUnknownCustomer(t *testing.T) {
	store := newFakeStore()
	svc := newServiceWithStore(store, zap.NewNop(), nil, false)

	_, _, err := svc.Create(context.Background(), 42, []LineItem{{ProductID: 1, Quantity: 1, Price: 25}})
	require.Error(t, err)
	assert.Equal(t, errorbank.KindNotFound, errorbank.From(err).Kind())
}

func TestCreateValidation(t *testing.T) {
	store := newFakeStore(7)
	svc := newServiceWithStore(store, zap.NewNop(), nil, false)

	cases := []struct {
		name       string
		customerID int64
		lines      []LineItem
	}{
		{"missing customer id", 0, []LineItem{{ProductID: 1, Quantity: 1, Price: 10}}},
		{"no line items", 7, nil},
		{"missing product id", 7, []LineItem{{Quantity: 1, Price: 10}}},
		{"zero quantity", 7, []LineItem{{ProductID: 1, Quantity: 0, Price: 10}}},
		{"negative price", 7, []LineItem{{ProductID: 1, Quantity: 1, Price: -5}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Create(context.Background(), tc.customerID, tc.lines)
			require.Error(t, err)
			assert.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())
		})
	}
}

func TestOrderDateIsTruncatedUTC(t *testing.T) {
	store := newFakeStore(7)
	svc := newServiceWithStore(store, zap.NewNop(), nil, false)
	fixed := time.Date(2024, 6, 1, 10, 30, 45, 123456789, time.FixedZone("X", 3600))
	svc.now = func() time.Time { return fixed }

	order, _, err := svc.Create(context.Background(), 7, []LineItem{{ProductID: 1, Quantity: 1, Price: 10}})
	require.NoError(t, err)

	assert.Equal(t, time.UTC, order.OrderDate.Location())
	assert.Zero(t, order.OrderDate.Nanosecond())
	assert.Equal(t, fixed.UTC().Truncate(time.Second), order.OrderDate)
}
