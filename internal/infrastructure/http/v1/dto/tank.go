package dto

import (
	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/catalogs/tank"
)

// RegisterTankRequest is the payload for registering a tank.
type RegisterTankRequest struct {
	Code          string  `json:"code"`
	Name          string  `json:"name" binding:"required"`
	FuelTypeID    string  `json:"fuelTypeId" binding:"required"`
	Capacity      string  `json:"capacity" binding:"required"`
	OpeningVolume string  `json:"openingVolume"`
	Location      *string `json:"location"`
}

// ToEntity converts the request into a domain tank and its opening volume.
func (r *RegisterTankRequest) ToEntity() (*tank.Tank, types.Volume, error) {
	fuelTypeID, err := id.Parse(r.FuelTypeID)
	if err != nil {
		return nil, types.Zero(), apperror.NewValidation("invalid fuel type id").
			WithDetail("value", r.FuelTypeID)
	}

	capacity, err := types.NewVolumeFromString(r.Capacity)
	if err != nil {
		return nil, types.Zero(), apperror.NewValidation("invalid capacity").
			WithDetail("value", r.Capacity)
	}

	opening := types.Zero()
	if r.OpeningVolume != "" {
		opening, err = types.NewVolumeFromString(r.OpeningVolume)
		if err != nil {
			return nil, types.Zero(), apperror.NewValidation("invalid opening volume").
				WithDetail("value", r.OpeningVolume)
		}
	}

	t := tank.New(r.Code, r.Name, fuelTypeID, capacity)
	t.Location = r.Location
	return t, opening, nil
}

// UpdateTankRequest modifies tank master data. Current volume is not
// writable through this endpoint.
type UpdateTankRequest struct {
	Code     string  `json:"code" binding:"required"`
	Name     string  `json:"name" binding:"required"`
	Capacity string  `json:"capacity" binding:"required"`
	IsActive bool    `json:"isActive"`
	Location *string `json:"location"`
}

// AdjustmentRequest is a manual volume correction outside any delivery.
type AdjustmentRequest struct {
	Amount string `json:"amount" binding:"required"`
	Notes  string `json:"notes"`
}
