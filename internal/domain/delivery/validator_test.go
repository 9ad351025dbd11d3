package delivery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/orders"
)

func TestValidateAllocations_OrderedQuantityCeiling(t *testing.T) {
	diesel := id.New()
	tankID := id.New()

	items := []orders.POItem{
		{ID: id.New(), LineNo: 1, FuelTypeID: diesel, OrderedQuantity: types.MustVolume("1000")},
	}
	tanks := map[id.ID]TankView{
		tankID: {ID: tankID, FuelTypeID: diesel, Capacity: types.MustVolume("5000")},
	}

	tests := []struct {
		name     string
		received string
		proposed string
		wantErr  bool
	}{
		{"first receipt within ordered", "0", "600", false},
		{"tops up exactly", "600", "400", false},
		{"overshoot within tolerance", "600", "400.01", false},
		{"overshoot beyond tolerance", "600", "400.02", true},
		{"second delivery would exceed", "600", "450", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			received := map[id.ID]types.Volume{
				items[0].ID: types.MustVolume(tt.received),
			}
			allocations := []Allocation{
				{POItemID: items[0].ID, TankID: tankID, Quantity: types.MustVolume(tt.proposed)},
			}

			_, err := ValidateAllocations(items, received, allocations, tanks, nil)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeOrderQuantityExceeded, appErr.Code)
		})
	}
}

func TestValidateAllocations_FuelTypeMismatch(t *testing.T) {
	diesel := id.New()
	petrol := id.New()
	tankID := id.New()

	items := []orders.POItem{
		{ID: id.New(), LineNo: 1, FuelTypeID: diesel, OrderedQuantity: types.MustVolume("1000")},
	}
	tanks := map[id.ID]TankView{
		tankID: {ID: tankID, FuelTypeID: petrol, Capacity: types.MustVolume("5000")},
	}
	allocations := []Allocation{
		{POItemID: items[0].ID, TankID: tankID, Quantity: types.MustVolume("100")},
	}

	_, err := ValidateAllocations(items, nil, allocations, tanks, nil)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeFuelTypeMismatch, appErr.Code)
}

func TestValidateAllocations_AggregatesViolations(t *testing.T) {
	diesel := id.New()
	tankID := id.New()

	items := []orders.POItem{
		{ID: id.New(), LineNo: 1, FuelTypeID: diesel, OrderedQuantity: types.MustVolume("1000")},
	}
	tanks := map[id.ID]TankView{
		tankID: {ID: tankID, FuelTypeID: diesel, Capacity: types.MustVolume("5000")},
	}
	allocations := []Allocation{
		{POItemID: items[0].ID, TankID: tankID, Quantity: types.MustVolume("-5")},
		{POItemID: id.New(), TankID: tankID, Quantity: types.MustVolume("100")},
		{POItemID: items[0].ID, TankID: id.New(), Quantity: types.MustVolume("100")},
	}

	_, err := ValidateAllocations(items, nil, allocations, tanks, nil)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	violations, ok := appErr.Details["violations"].([]map[string]any)
	require.True(t, ok)
	assert.Len(t, violations, 3)
}

func TestValidateAllocations_EmptyDelivery(t *testing.T) {
	diesel := id.New()
	tankID := id.New()

	items := []orders.POItem{
		{ID: id.New(), LineNo: 1, FuelTypeID: diesel, OrderedQuantity: types.MustVolume("1000")},
	}
	tanks := map[id.ID]TankView{
		tankID: {ID: tankID, FuelTypeID: diesel, Capacity: types.MustVolume("5000")},
	}
	allocations := []Allocation{
		{POItemID: items[0].ID, TankID: tankID, Quantity: types.Zero()},
	}

	_, err := ValidateAllocations(items, nil, allocations, tanks, nil)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeEmptyDelivery, appErr.Code)
}

func TestValidateAllocations_CapacityWarnsButPasses(t *testing.T) {
	diesel := id.New()
	tankID := id.New()

	items := []orders.POItem{
		{ID: id.New(), LineNo: 1, FuelTypeID: diesel, OrderedQuantity: types.MustVolume("1000")},
	}
	tanks := map[id.ID]TankView{
		tankID: {
			ID:            tankID,
			FuelTypeID:    diesel,
			Capacity:      types.MustVolume("500"),
			CurrentVolume: types.MustVolume("200"),
		},
	}
	allocations := []Allocation{
		{POItemID: items[0].ID, TankID: tankID, Quantity: types.MustVolume("400")},
	}

	warnings, err := ValidateAllocations(items, nil, allocations, tanks, nil)
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	assert.Equal(t, tankID, warnings[0].TankID)
	assert.True(t, warnings[0].Headroom.Equal(types.MustVolume("300")))
	assert.True(t, warnings[0].Proposed.Equal(types.MustVolume("400")))
}

func TestValidateAllocations_SupersededRestoresHeadroom(t *testing.T) {
	diesel := id.New()
	tankID := id.New()

	items := []orders.POItem{
		{ID: id.New(), LineNo: 1, FuelTypeID: diesel, OrderedQuantity: types.MustVolume("1000")},
	}
	// The tank already holds the 400 the edit is about to replace. With the
	// superseded quantity restored, headroom is 500 and the new 450 fits.
	tanks := map[id.ID]TankView{
		tankID: {
			ID:            tankID,
			FuelTypeID:    diesel,
			Capacity:      types.MustVolume("500"),
			CurrentVolume: types.MustVolume("400"),
		},
	}
	superseded := map[id.ID]types.Volume{tankID: types.MustVolume("400")}
	allocations := []Allocation{
		{POItemID: items[0].ID, TankID: tankID, Quantity: types.MustVolume("450")},
	}

	warnings, err := ValidateAllocations(items, nil, allocations, tanks, superseded)
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestValidateAllocations_SplitAcrossTanksSumsPerLine(t *testing.T) {
	diesel := id.New()
	tank1 := id.New()
	tank2 := id.New()

	items := []orders.POItem{
		{ID: id.New(), LineNo: 1, FuelTypeID: diesel, OrderedQuantity: types.MustVolume("1000")},
	}
	tanks := map[id.ID]TankView{
		tank1: {ID: tank1, FuelTypeID: diesel, Capacity: types.MustVolume("5000")},
		tank2: {ID: tank2, FuelTypeID: diesel, Capacity: types.MustVolume("5000")},
	}
	allocations := []Allocation{
		{POItemID: items[0].ID, TankID: tank1, Quantity: types.MustVolume("600")},
		{POItemID: items[0].ID, TankID: tank2, Quantity: types.MustVolume("600")},
	}

	_, err := ValidateAllocations(items, nil, allocations, tanks, nil)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeOrderQuantityExceeded, appErr.Code)
}
