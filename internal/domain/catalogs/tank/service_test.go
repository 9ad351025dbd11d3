package tank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/ledger"
)

type memTankRepo struct {
	tanks map[id.ID]*Tank
}

func newMemTankRepo() *memTankRepo {
	return &memTankRepo{tanks: make(map[id.ID]*Tank)}
}

func (r *memTankRepo) Create(_ context.Context, t *Tank) error {
	cp := *t
	r.tanks[t.ID] = &cp
	return nil
}

func (r *memTankRepo) GetByID(_ context.Context, tankID id.ID) (*Tank, error) {
	t, ok := r.tanks[tankID]
	if !ok {
		return nil, apperror.NewNotFound("tank", tankID.String())
	}
	cp := *t
	return &cp, nil
}

func (r *memTankRepo) GetByCode(_ context.Context, code string) (*Tank, error) {
	for _, t := range r.tanks {
		if t.Code == code {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("tank", code)
}

func (r *memTankRepo) Update(_ context.Context, t *Tank) error {
	cp := *t
	r.tanks[t.ID] = &cp
	return nil
}

func (r *memTankRepo) List(context.Context, ListFilter) ([]*Tank, error) {
	return nil, nil
}

func (r *memTankRepo) GetForUpdate(ctx context.Context, tankID id.ID) (*Tank, error) {
	return r.GetByID(ctx, tankID)
}

func (r *memTankRepo) SetVolume(_ context.Context, tankID id.ID, volume types.Volume) error {
	t, ok := r.tanks[tankID]
	if !ok {
		return apperror.NewNotFound("tank", tankID.String())
	}
	t.CurrentVolume = volume
	return nil
}

type memLedgerRepo struct {
	entries []ledger.Entry
}

func (r *memLedgerRepo) Append(_ context.Context, entries []ledger.Entry) error {
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *memLedgerRepo) History(_ context.Context, tankID id.ID) ([]ledger.Entry, error) {
	var out []ledger.Entry
	for _, e := range r.entries {
		if e.TankID == tankID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memLedgerRepo) ByReference(context.Context, id.ID) ([]ledger.Entry, error) {
	return nil, nil
}

type passTx struct{}

func (passTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService() (*Service, *memTankRepo, *memLedgerRepo) {
	tanks := newMemTankRepo()
	entries := &memLedgerRepo{}
	svc := NewService(tanks, ledger.NewService(entries), passTx{})
	return svc, tanks, entries
}

func TestRegister_OpeningVolumeSeedsLedger(t *testing.T) {
	svc, _, entries := newTestService()
	ctx := context.Background()

	tk := New("T1", "Main diesel", id.New(), types.MustVolume("10000"))
	require.NoError(t, svc.Register(ctx, tk, types.MustVolume("2500")))

	assert.True(t, tk.CurrentVolume.Equal(types.MustVolume("2500")))
	require.Len(t, entries.entries, 1)
	assert.Equal(t, ledger.OperationOpening, entries.entries[0].OperationType)
	assert.True(t, entries.entries[0].NewVolume.Equal(types.MustVolume("2500")))
}

func TestRegister_ZeroOpeningSkipsLedger(t *testing.T) {
	svc, _, entries := newTestService()
	ctx := context.Background()

	tk := New("T1", "Main diesel", id.New(), types.MustVolume("10000"))
	require.NoError(t, svc.Register(ctx, tk, types.Zero()))
	assert.Empty(t, entries.entries)
}

func TestApplyDelta_RejectsDrainingBelowZero(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	tk := New("T1", "Main diesel", id.New(), types.MustVolume("1000"))
	tk.CurrentVolume = types.MustVolume("100")
	repo.tanks[tk.ID] = tk

	_, _, err := svc.ApplyDelta(ctx, tk.ID, types.MustVolume("-100.5"))
	require.Error(t, err)

	// The rejection left the volume untouched.
	stored, err := repo.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.True(t, stored.CurrentVolume.Equal(types.MustVolume("100")))
}

func TestRecordAdjustment(t *testing.T) {
	svc, repo, entries := newTestService()
	ctx := context.Background()

	tk := New("T1", "Main diesel", id.New(), types.MustVolume("1000"))
	tk.CurrentVolume = types.MustVolume("500")
	repo.tanks[tk.ID] = tk

	e, err := svc.RecordAdjustment(ctx, tk.ID, types.MustVolume("-12.5"), "dip-stick reading")
	require.NoError(t, err)

	assert.Equal(t, ledger.OperationAdjustment, e.OperationType)
	assert.True(t, e.ChangeAmount.Equal(types.MustVolume("-12.5")))
	assert.True(t, e.NewVolume.Equal(types.MustVolume("487.5")))
	require.Len(t, entries.entries, 1)

	stored, err := repo.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.True(t, stored.CurrentVolume.Equal(types.MustVolume("487.5")))
}

func TestRecordAdjustment_RejectsNegligibleAmount(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	tk := New("T1", "Main diesel", id.New(), types.MustVolume("1000"))
	repo.tanks[tk.ID] = tk

	_, err := svc.RecordAdjustment(ctx, tk.ID, types.MustVolume("0.005"), "noise")
	require.Error(t, err)
}

func TestUpdate_PreservesCurrentVolume(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	tk := New("T1", "Main diesel", id.New(), types.MustVolume("1000"))
	tk.CurrentVolume = types.MustVolume("321")
	repo.tanks[tk.ID] = tk

	edited := *tk
	edited.Name = "Renamed"
	edited.CurrentVolume = types.MustVolume("9999")
	require.NoError(t, svc.Update(ctx, &edited))

	stored, err := repo.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Name)
	assert.True(t, stored.CurrentVolume.Equal(types.MustVolume("321")))
}
