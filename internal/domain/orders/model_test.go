package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
)

func orderWithLines(status Status, ordered ...string) *PurchaseOrder {
	o := New(id.New(), time.Now())
	for _, qty := range ordered {
		o.AddItem(id.New(), types.MustVolume(qty), types.MustVolume("1.50"))
	}
	o.Status = status
	return o
}

func TestDeriveStatus(t *testing.T) {
	t.Run("all lines fully received means delivered", func(t *testing.T) {
		o := orderWithLines(StatusInProgress, "1000", "500")
		received := map[id.ID]types.Volume{
			o.Items[0].ID: types.MustVolume("1000"),
			o.Items[1].ID: types.MustVolume("500"),
		}
		assert.Equal(t, StatusDelivered, DeriveStatus(o, received, 2))
	})

	t.Run("received within tolerance counts as full", func(t *testing.T) {
		o := orderWithLines(StatusInProgress, "1000")
		received := map[id.ID]types.Volume{
			o.Items[0].ID: types.MustVolume("999.99"),
		}
		assert.Equal(t, StatusDelivered, DeriveStatus(o, received, 1))
	})

	t.Run("any short line means in progress", func(t *testing.T) {
		o := orderWithLines(StatusApproved, "1000", "500")
		received := map[id.ID]types.Volume{
			o.Items[0].ID: types.MustVolume("1000"),
			o.Items[1].ID: types.MustVolume("100"),
		}
		assert.Equal(t, StatusInProgress, DeriveStatus(o, received, 1))
	})

	t.Run("downward edit pulls delivered back to in progress", func(t *testing.T) {
		o := orderWithLines(StatusDelivered, "1000")
		received := map[id.ID]types.Volume{
			o.Items[0].ID: types.MustVolume("900"),
		}
		assert.Equal(t, StatusInProgress, DeriveStatus(o, received, 1))
	})

	t.Run("no deliveries left reverts to approved", func(t *testing.T) {
		o := orderWithLines(StatusDelivered, "1000")
		assert.Equal(t, StatusApproved, DeriveStatus(o, nil, 0))
	})

	t.Run("no deliveries leaves authoring statuses alone", func(t *testing.T) {
		o := orderWithLines(StatusDraft, "1000")
		assert.Equal(t, StatusDraft, DeriveStatus(o, nil, 0))
	})
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusDraft.CanTransitionTo(StatusSubmitted))
	assert.True(t, StatusSubmitted.CanTransitionTo(StatusApproved))
	assert.True(t, StatusApproved.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusInProgress.CanTransitionTo(StatusDelivered))
	assert.True(t, StatusDelivered.CanTransitionTo(StatusInProgress))

	assert.False(t, StatusDraft.CanTransitionTo(StatusApproved))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusApproved))
	assert.False(t, StatusDelivered.CanTransitionTo(StatusCancelled))
}

func TestStatusCanReceive(t *testing.T) {
	assert.True(t, StatusApproved.CanReceive())
	assert.True(t, StatusInProgress.CanReceive())
	assert.True(t, StatusDelivered.CanReceive())

	assert.False(t, StatusDraft.CanReceive())
	assert.False(t, StatusSubmitted.CanReceive())
	assert.False(t, StatusCancelled.CanReceive())
}

func TestAddItemRecalculatesTotal(t *testing.T) {
	o := New(id.New(), time.Now())
	o.AddItem(id.New(), types.MustVolume("1000"), types.MustVolume("1.50"))
	o.AddItem(id.New(), types.MustVolume("200"), types.MustVolume("2"))

	assert.True(t, o.TotalAmount.Equal(types.MustVolume("1900")))
	assert.Equal(t, 1, o.Items[0].LineNo)
	assert.Equal(t, 2, o.Items[1].LineNo)
}
