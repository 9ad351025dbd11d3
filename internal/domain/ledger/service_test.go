package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
)

func entry(tankID id.ID, prev, change string) Entry {
	p := types.MustVolume(prev)
	c := types.MustVolume(change)
	return NewEntry(tankID, OperationDelivery, id.New(), p, c, p.Add(c), "tester", "")
}

func TestReplay_FoldsChain(t *testing.T) {
	tankID := id.New()

	entries := []Entry{
		entry(tankID, "0", "600"),
		entry(tankID, "600", "-100"),
		entry(tankID, "500", "250.5"),
	}

	volume, err := Replay(entries)
	require.NoError(t, err)
	assert.True(t, volume.Equal(types.MustVolume("750.5")))
}

func TestReplay_SeedsFromFirstEntry(t *testing.T) {
	tankID := id.New()

	// An opening entry may start the chain above zero.
	entries := []Entry{
		entry(tankID, "300", "200"),
	}

	volume, err := Replay(entries)
	require.NoError(t, err)
	assert.True(t, volume.Equal(types.MustVolume("500")))
}

func TestReplay_DetectsBrokenChain(t *testing.T) {
	tankID := id.New()

	entries := []Entry{
		entry(tankID, "0", "600"),
		entry(tankID, "550", "-100"),
	}

	_, err := Replay(entries)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "previous volume")
}

func TestReplay_Empty(t *testing.T) {
	volume, err := Replay(nil)
	require.NoError(t, err)
	assert.True(t, volume.IsZero())
}

func TestEntryValidate_RejectsNonReconcilingVolumes(t *testing.T) {
	e := NewEntry(
		id.New(), OperationDelivery, id.New(),
		types.MustVolume("100"), types.MustVolume("50"), types.MustVolume("151"),
		"tester", "",
	)

	err := e.Validate(context.Background())
	require.Error(t, err)
}

type recordingRepo struct {
	appended []Entry
}

func (r *recordingRepo) Append(_ context.Context, entries []Entry) error {
	r.appended = append(r.appended, entries...)
	return nil
}

func (r *recordingRepo) History(context.Context, id.ID) ([]Entry, error) {
	return r.appended, nil
}

func (r *recordingRepo) ByReference(context.Context, id.ID) ([]Entry, error) {
	return nil, nil
}

func TestService_AppendValidatesEveryEntry(t *testing.T) {
	repo := &recordingRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	tankID := id.New()
	good := entry(tankID, "0", "100")
	bad := good
	bad.NewVolume = types.MustVolume("999")

	err := svc.Append(ctx, []Entry{good, bad})
	require.Error(t, err)
	assert.Empty(t, repo.appended)

	require.NoError(t, svc.Append(ctx, []Entry{good}))
	assert.Len(t, repo.appended, 1)
}

func TestService_ReconcileDetectsDrift(t *testing.T) {
	repo := &recordingRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	tankID := id.New()
	require.NoError(t, svc.Append(ctx, []Entry{
		entry(tankID, "0", "600"),
		entry(tankID, "600", "-100"),
	}))

	replayed, err := svc.Reconcile(ctx, tankID, types.MustVolume("500"))
	require.NoError(t, err)
	assert.True(t, replayed.Equal(types.MustVolume("500")))

	_, err = svc.Reconcile(ctx, tankID, types.MustVolume("499"))
	require.Error(t, err)
}
