package delivery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/catalogs/tank"
	"fueldepot/internal/domain/ledger"
	"fueldepot/internal/domain/orders"
	"fueldepot/pkg/numerator"
)

// --- in-memory fixture ---

// memStore backs all fake repositories so cross-aggregate reads
// (received quantities, delivery counts) see the same state the writes
// produced, like the database would.
type memStore struct {
	orders        map[id.ID]*orders.PurchaseOrder
	orderItems    map[id.ID][]orders.POItem
	deliveries    map[id.ID]*Delivery
	deliveryItems map[id.ID][]Item
	tanks         map[id.ID]*tank.Tank
	entries       []ledger.Entry
}

func newMemStore() *memStore {
	return &memStore{
		orders:        make(map[id.ID]*orders.PurchaseOrder),
		orderItems:    make(map[id.ID][]orders.POItem),
		deliveries:    make(map[id.ID]*Delivery),
		deliveryItems: make(map[id.ID][]Item),
		tanks:         make(map[id.ID]*tank.Tank),
	}
}

func (s *memStore) entriesForTank(tankID id.ID) []ledger.Entry {
	var out []ledger.Entry
	for _, e := range s.entries {
		if e.TankID == tankID {
			out = append(out, e)
		}
	}
	return out
}

type passTxManager struct{}

func (passTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeOrderRepo struct{ s *memStore }

func (r *fakeOrderRepo) Create(_ context.Context, o *orders.PurchaseOrder) error {
	cp := *o
	r.s.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, orderID id.ID) (*orders.PurchaseOrder, error) {
	o, ok := r.s.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID.String())
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) GetByNumber(_ context.Context, number string) (*orders.PurchaseOrder, error) {
	for _, o := range r.s.orders {
		if o.Number == number {
			cp := *o
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("order", number)
}

func (r *fakeOrderRepo) Update(_ context.Context, o *orders.PurchaseOrder) error {
	cp := *o
	r.s.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) GetItems(_ context.Context, orderID id.ID) ([]orders.POItem, error) {
	return append([]orders.POItem(nil), r.s.orderItems[orderID]...), nil
}

func (r *fakeOrderRepo) SaveItems(_ context.Context, orderID id.ID, items []orders.POItem) error {
	r.s.orderItems[orderID] = append([]orders.POItem(nil), items...)
	return nil
}

func (r *fakeOrderRepo) List(context.Context, orders.ListFilter) ([]*orders.PurchaseOrder, error) {
	return nil, nil
}

func (r *fakeOrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*orders.PurchaseOrder, error) {
	return r.GetByID(ctx, orderID)
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, orderID id.ID, status orders.Status) error {
	o, ok := r.s.orders[orderID]
	if !ok {
		return apperror.NewNotFound("order", orderID.String())
	}
	o.Status = status
	return nil
}

func (r *fakeOrderRepo) ReceivedQuantities(_ context.Context, orderID id.ID, excludeDeliveryID *id.ID) (map[id.ID]types.Volume, error) {
	out := make(map[id.ID]types.Volume)
	for _, d := range r.s.deliveries {
		if d.OrderID != orderID || d.Status == StatusVoided {
			continue
		}
		if excludeDeliveryID != nil && d.ID == *excludeDeliveryID {
			continue
		}
		for _, item := range r.s.deliveryItems[d.ID] {
			out[item.POItemID] = out[item.POItemID].Add(item.QuantityReceived)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) DeliveryCount(_ context.Context, orderID id.ID) (int, error) {
	count := 0
	for _, d := range r.s.deliveries {
		if d.OrderID == orderID && d.Status != StatusVoided {
			count++
		}
	}
	return count, nil
}

type fakeTankRepo struct{ s *memStore }

func (r *fakeTankRepo) Create(_ context.Context, t *tank.Tank) error {
	cp := *t
	r.s.tanks[t.ID] = &cp
	return nil
}

func (r *fakeTankRepo) GetByID(_ context.Context, tankID id.ID) (*tank.Tank, error) {
	t, ok := r.s.tanks[tankID]
	if !ok {
		return nil, apperror.NewNotFound("tank", tankID.String())
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTankRepo) GetByCode(_ context.Context, code string) (*tank.Tank, error) {
	for _, t := range r.s.tanks {
		if t.Code == code {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("tank", code)
}

func (r *fakeTankRepo) Update(_ context.Context, t *tank.Tank) error {
	cp := *t
	r.s.tanks[t.ID] = &cp
	return nil
}

func (r *fakeTankRepo) List(context.Context, tank.ListFilter) ([]*tank.Tank, error) {
	return nil, nil
}

func (r *fakeTankRepo) GetForUpdate(ctx context.Context, tankID id.ID) (*tank.Tank, error) {
	return r.GetByID(ctx, tankID)
}

func (r *fakeTankRepo) SetVolume(_ context.Context, tankID id.ID, volume types.Volume) error {
	t, ok := r.s.tanks[tankID]
	if !ok {
		return apperror.NewNotFound("tank", tankID.String())
	}
	t.CurrentVolume = volume
	return nil
}

type fakeLedgerRepo struct{ s *memStore }

func (r *fakeLedgerRepo) Append(_ context.Context, entries []ledger.Entry) error {
	r.s.entries = append(r.s.entries, entries...)
	return nil
}

func (r *fakeLedgerRepo) History(_ context.Context, tankID id.ID) ([]ledger.Entry, error) {
	return r.s.entriesForTank(tankID), nil
}

func (r *fakeLedgerRepo) ByReference(_ context.Context, referenceID id.ID) ([]ledger.Entry, error) {
	var out []ledger.Entry
	for _, e := range r.s.entries {
		if e.ReferenceID == referenceID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeDeliveryRepo struct{ s *memStore }

func (r *fakeDeliveryRepo) Create(_ context.Context, d *Delivery) error {
	cp := *d
	cp.Items = nil
	r.s.deliveries[d.ID] = &cp
	return nil
}

func (r *fakeDeliveryRepo) GetByID(_ context.Context, deliveryID id.ID) (*Delivery, error) {
	d, ok := r.s.deliveries[deliveryID]
	if !ok {
		return nil, apperror.NewNotFound("delivery", deliveryID.String())
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDeliveryRepo) Update(_ context.Context, d *Delivery) error {
	if _, ok := r.s.deliveries[d.ID]; !ok {
		return apperror.NewNotFound("delivery", d.ID.String())
	}
	cp := *d
	cp.Items = nil
	r.s.deliveries[d.ID] = &cp
	return nil
}

func (r *fakeDeliveryRepo) GetItems(_ context.Context, deliveryID id.ID) ([]Item, error) {
	return append([]Item(nil), r.s.deliveryItems[deliveryID]...), nil
}

func (r *fakeDeliveryRepo) SaveItems(_ context.Context, deliveryID id.ID, items []Item) error {
	r.s.deliveryItems[deliveryID] = append([]Item(nil), items...)
	return nil
}

func (r *fakeDeliveryRepo) ListByOrder(_ context.Context, orderID id.ID) ([]*Delivery, error) {
	var out []*Delivery
	for _, d := range r.s.deliveries {
		if d.OrderID == orderID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeDeliveryRepo) List(context.Context, ListFilter) ([]*Delivery, error) {
	return nil, nil
}

type fakeNumerator struct{ n int }

func (f *fakeNumerator) GetNextNumber(_ context.Context, cfg numerator.Config, _ time.Time) (string, error) {
	f.n++
	return fmt.Sprintf("%s-2026-%05d", cfg.Prefix, f.n), nil
}

type testEnv struct {
	store    *memStore
	recorder *Recorder
	orders   *orders.Service
	tanks    *tank.Service
	ledger   *ledger.Service

	diesel id.ID
}

func newTestEnv() *testEnv {
	store := newMemStore()
	txm := passTxManager{}

	ledgerSvc := ledger.NewService(&fakeLedgerRepo{store})
	tankSvc := tank.NewService(&fakeTankRepo{store}, ledgerSvc, txm)
	orderSvc := orders.NewService(&fakeOrderRepo{store}, &fakeNumerator{}, txm)

	return &testEnv{
		store:  store,
		orders: orderSvc,
		tanks:  tankSvc,
		ledger: ledgerSvc,
		recorder: NewRecorder(
			&fakeDeliveryRepo{store},
			orderSvc,
			tankSvc,
			ledgerSvc,
			&fakeNumerator{},
			txm,
		),
		diesel: id.New(),
	}
}

// seedOrder stores an approved order with one diesel line.
func (e *testEnv) seedOrder(t *testing.T, ordered string) *orders.PurchaseOrder {
	t.Helper()

	order := orders.New(id.New(), time.Now())
	order.Number = "PO-2026-00001"
	order.AddItem(e.diesel, types.MustVolume(ordered), types.MustVolume("1.50"))
	order.Status = orders.StatusApproved

	e.store.orders[order.ID] = order
	e.store.orderItems[order.ID] = order.Items
	return order
}

// seedTank stores an active diesel tank with the given capacity, empty.
func (e *testEnv) seedTank(t *testing.T, code, capacity string) *tank.Tank {
	t.Helper()

	tk := tank.New(code, code, e.diesel, types.MustVolume(capacity))
	e.store.tanks[tk.ID] = tk
	return tk
}

func (e *testEnv) tankVolume(t *testing.T, tankID id.ID) types.Volume {
	t.Helper()
	tk, ok := e.store.tanks[tankID]
	require.True(t, ok)
	return tk.CurrentVolume
}

func (e *testEnv) orderStatus(t *testing.T, orderID id.ID) orders.Status {
	t.Helper()
	o, ok := e.store.orders[orderID]
	require.True(t, ok)
	return o.Status
}

func alloc(poItemID, tankID id.ID, qty string) Allocation {
	return Allocation{POItemID: poItemID, TankID: tankID, Quantity: types.MustVolume(qty)}
}

// --- tests ---

func TestRecorder_FulfillmentLifecycle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	order := env.seedOrder(t, "1000")
	line := order.Items[0]
	tank1 := env.seedTank(t, "T1", "1000")
	tank2 := env.seedTank(t, "T2", "1000")

	// First receipt of 600 L into tank 1.
	delivA, warnings, err := env.recorder.Record(ctx, RecordInput{
		OrderID:     order.ID,
		Date:        time.Now(),
		Reference:   "WB-001",
		Allocations: []Allocation{alloc(line.ID, tank1.ID, "600")},
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, StatusPartial, delivA.Status)
	assert.Equal(t, orders.StatusInProgress, env.orderStatus(t, order.ID))
	assert.True(t, env.tankVolume(t, tank1.ID).Equal(types.MustVolume("600")))
	require.Len(t, env.store.entriesForTank(tank1.ID), 1)

	// Second receipt of the remaining 400 L into tank 2 completes the order.
	delivB, warnings, err := env.recorder.Record(ctx, RecordInput{
		OrderID:     order.ID,
		Date:        time.Now(),
		Reference:   "WB-002",
		Allocations: []Allocation{alloc(line.ID, tank2.ID, "400")},
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, StatusComplete, delivB.Status)
	assert.Equal(t, orders.StatusDelivered, env.orderStatus(t, order.ID))
	assert.True(t, env.tankVolume(t, tank2.ID).Equal(types.MustVolume("400")))

	// Delivery status is defined over the order's cumulative receipts, so
	// the first delivery flips to complete as well.
	assert.Equal(t, StatusComplete, env.store.deliveries[delivA.ID].Status)

	// Correcting the first delivery down to 500 L applies exactly one
	// -100 delta to tank 1 and re-opens the order.
	edited, warnings, err := env.recorder.Edit(ctx, delivA.ID, EditInput{
		Date:        delivA.Date,
		Reference:   delivA.Reference,
		Allocations: []Allocation{alloc(line.ID, tank1.ID, "500")},
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	entries := env.store.entriesForTank(tank1.ID)
	require.Len(t, entries, 2)
	assert.True(t, entries[1].ChangeAmount.Equal(types.MustVolume("-100")))
	assert.Equal(t, ledger.OperationDelivery, entries[1].OperationType)
	assert.Equal(t, delivA.ID, entries[1].ReferenceID)

	assert.True(t, env.tankVolume(t, tank1.ID).Equal(types.MustVolume("500")))
	assert.Equal(t, StatusPartial, edited.Status)
	assert.Equal(t, StatusPartial, env.store.deliveries[delivB.ID].Status)
	assert.Equal(t, orders.StatusInProgress, env.orderStatus(t, order.ID))

	// Tank 2 was not part of the edit and saw no movement.
	require.Len(t, env.store.entriesForTank(tank2.ID), 1)

	// The ledger replays to the cached volumes.
	replayed, err := ledger.Replay(env.store.entriesForTank(tank1.ID))
	require.NoError(t, err)
	assert.True(t, replayed.Equal(env.tankVolume(t, tank1.ID)))
}

func TestRecorder_NoOpEditLeavesNoTrace(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	order := env.seedOrder(t, "1000")
	line := order.Items[0]
	tank1 := env.seedTank(t, "T1", "1000")

	deliv, _, err := env.recorder.Record(ctx, RecordInput{
		OrderID:     order.ID,
		Date:        time.Now(),
		Reference:   "WB-001",
		Allocations: []Allocation{alloc(line.ID, tank1.ID, "600")},
	})
	require.NoError(t, err)

	entriesBefore := len(env.store.entries)

	_, _, err = env.recorder.Edit(ctx, deliv.ID, EditInput{
		Date:        deliv.Date,
		Reference:   deliv.Reference,
		Allocations: []Allocation{alloc(line.ID, tank1.ID, "600")},
	})
	require.NoError(t, err)

	assert.Len(t, env.store.entries, entriesBefore)
	assert.True(t, env.tankVolume(t, tank1.ID).Equal(types.MustVolume("600")))
	assert.Equal(t, orders.StatusInProgress, env.orderStatus(t, order.ID))
}

func TestRecorder_RejectsDeliveryExceedingOrdered(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	order := env.seedOrder(t, "1000")
	line := order.Items[0]
	tank1 := env.seedTank(t, "T1", "2000")

	_, _, err := env.recorder.Record(ctx, RecordInput{
		OrderID:     order.ID,
		Date:        time.Now(),
		Reference:   "WB-001",
		Allocations: []Allocation{alloc(line.ID, tank1.ID, "600")},
	})
	require.NoError(t, err)

	// 600 received + 450 proposed > 1000 ordered.
	_, _, err = env.recorder.Record(ctx, RecordInput{
		OrderID:     order.ID,
		Date:        time.Now(),
		Reference:   "WB-002",
		Allocations: []Allocation{alloc(line.ID, tank1.ID, "450")},
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeOrderQuantityExceeded, appErr.Code)

	// Nothing moved.
	assert.True(t, env.tankVolume(t, tank1.ID).Equal(types.MustVolume("600")))
	assert.Len(t, env.store.entries, 1)
	assert.Len(t, env.store.deliveries, 1)
}

func TestRecorder_EditMovesQuantityBetweenTanks(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	order := env.seedOrder(t, "1000")
	line := order.Items[0]
	tank1 := env.seedTank(t, "T1", "1000")
	tank2 := env.seedTank(t, "T2", "1000")

	deliv, _, err := env.recorder.Record(ctx, RecordInput{
		OrderID:     order.ID,
		Date:        time.Now(),
		Reference:   "WB-001",
		Allocations: []Allocation{alloc(line.ID, tank1.ID, "600")},
	})
	require.NoError(t, err)

	// Same quantity, different tank: -600 from tank 1, +600 into tank 2.
	_, _, err = env.recorder.Edit(ctx, deliv.ID, EditInput{
		Date:        deliv.Date,
		Reference:   deliv.Reference,
		Allocations: []Allocation{alloc(line.ID, tank2.ID, "600")},
	})
	require.NoError(t, err)

	assert.True(t, env.tankVolume(t, tank1.ID).Equal(types.Zero()))
	assert.True(t, env.tankVolume(t, tank2.ID).Equal(types.MustVolume("600")))

	t1 := env.store.entriesForTank(tank1.ID)
	require.Len(t, t1, 2)
	assert.True(t, t1[1].ChangeAmount.Equal(types.MustVolume("-600")))

	t2 := env.store.entriesForTank(tank2.ID)
	require.Len(t, t2, 1)
	assert.True(t, t2[0].ChangeAmount.Equal(types.MustVolume("600")))
}

func TestRecorder_Void(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	order := env.seedOrder(t, "1000")
	line := order.Items[0]
	tank1 := env.seedTank(t, "T1", "1000")

	deliv, _, err := env.recorder.Record(ctx, RecordInput{
		OrderID:     order.ID,
		Date:        time.Now(),
		Reference:   "WB-001",
		Allocations: []Allocation{alloc(line.ID, tank1.ID, "600")},
	})
	require.NoError(t, err)

	voided, err := env.recorder.Void(ctx, deliv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusVoided, voided.Status)

	// The tank is drained back and the reversal is on the ledger.
	assert.True(t, env.tankVolume(t, tank1.ID).Equal(types.Zero()))
	entries := env.store.entriesForTank(tank1.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, ledger.OperationVoid, entries[1].OperationType)
	assert.True(t, entries[1].ChangeAmount.Equal(types.MustVolume("-600")))

	// With no live deliveries left the order returns to approved.
	assert.Equal(t, orders.StatusApproved, env.orderStatus(t, order.ID))

	// Voided deliveries are frozen.
	_, _, err = env.recorder.Edit(ctx, deliv.ID, EditInput{
		Date:        deliv.Date,
		Allocations: []Allocation{alloc(line.ID, tank1.ID, "100")},
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDeliveryVoided, appErr.Code)

	_, err = env.recorder.Void(ctx, deliv.ID)
	require.Error(t, err)
}

func TestRecorder_OrderMustBeReceivable(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	order := env.seedOrder(t, "1000")
	order.Status = orders.StatusDraft
	line := order.Items[0]
	tank1 := env.seedTank(t, "T1", "1000")

	_, _, err := env.recorder.Record(ctx, RecordInput{
		OrderID:     order.ID,
		Date:        time.Now(),
		Allocations: []Allocation{alloc(line.ID, tank1.ID, "100")},
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeOrderNotReceivable, appErr.Code)
}

func TestRecorder_GeneratesReferenceWhenMissing(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	order := env.seedOrder(t, "1000")
	line := order.Items[0]
	tank1 := env.seedTank(t, "T1", "1000")

	deliv, _, err := env.recorder.Record(ctx, RecordInput{
		OrderID:     order.ID,
		Date:        time.Now(),
		Allocations: []Allocation{alloc(line.ID, tank1.ID, "100")},
	})
	require.NoError(t, err)
	assert.Equal(t, "DLV-2026-00001", deliv.Reference)
}

func TestRecorder_CapacityOverrunWarnsButCommits(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	order := env.seedOrder(t, "1000")
	line := order.Items[0]
	small := env.seedTank(t, "T1", "500")

	deliv, warnings, err := env.recorder.Record(ctx, RecordInput{
		OrderID:     order.ID,
		Date:        time.Now(),
		Reference:   "WB-001",
		Allocations: []Allocation{alloc(line.ID, small.ID, "600")},
	})
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	assert.Equal(t, small.ID, warnings[0].TankID)

	// Advisory only: the receipt still lands.
	assert.Equal(t, StatusPartial, deliv.Status)
	assert.True(t, env.tankVolume(t, small.ID).Equal(types.MustVolume("600")))
}
