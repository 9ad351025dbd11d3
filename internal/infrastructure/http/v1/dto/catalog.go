package dto

import (
	"fueldepot/internal/domain/catalogs/fueltype"
	"fueldepot/internal/domain/catalogs/supplier"
)

// CreateFuelTypeRequest is the payload for creating a fuel type.
type CreateFuelTypeRequest struct {
	Code   string `json:"code"`
	Name   string `json:"name" binding:"required"`
	Octane *int   `json:"octane"`
}

// ToEntity converts the request into a domain fuel type.
func (r *CreateFuelTypeRequest) ToEntity() *fueltype.FuelType {
	ft := fueltype.New(r.Code, r.Name)
	ft.Octane = r.Octane
	return ft
}

// CreateSupplierRequest is the payload for creating a supplier.
type CreateSupplierRequest struct {
	Code         string  `json:"code"`
	Name         string  `json:"name" binding:"required"`
	ContactPhone *string `json:"contactPhone"`
	Address      *string `json:"address"`
}

// ToEntity converts the request into a domain supplier.
func (r *CreateSupplierRequest) ToEntity() *supplier.Supplier {
	sup := supplier.New(r.Code, r.Name)
	sup.ContactPhone = r.ContactPhone
	sup.Address = r.Address
	return sup
}
