// Package fueltype provides the FuelType catalog (diesel, petrol 95, ...).
package fueltype

import (
	"context"
	"fmt"
	"time"

	"fueldepot/internal/core/entity"
	"fueldepot/internal/core/id"
	"fueldepot/pkg/numerator"
)

// FuelType represents one kind of fuel handled by the depot.
type FuelType struct {
	entity.Catalog

	// Octane is optional (nil for diesel and kerosene)
	Octane *int `db:"octane" json:"octane,omitempty"`

	IsActive bool `db:"is_active" json:"isActive"`
}

// New creates a new FuelType.
func New(code, name string) *FuelType {
	return &FuelType{
		Catalog:  entity.NewCatalog(code, name),
		IsActive: true,
	}
}

// Repository defines storage operations for fuel types.
type Repository interface {
	Create(ctx context.Context, ft *FuelType) error
	GetByID(ctx context.Context, ftID id.ID) (*FuelType, error)
	GetByCode(ctx context.Context, code string) (*FuelType, error)
	Update(ctx context.Context, ft *FuelType) error
	List(ctx context.Context, activeOnly bool) ([]*FuelType, error)
}

// Service provides business logic for the FuelType catalog.
type Service struct {
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new FuelType service.
func NewService(repo Repository, num numerator.Generator) *Service {
	return &Service{repo: repo, numerator: num}
}

// Create validates and persists a new fuel type, generating a code if empty.
func (s *Service) Create(ctx context.Context, ft *FuelType) error {
	if err := ft.Validate(ctx); err != nil {
		return err
	}

	if ft.Code == "" {
		cfg := numerator.DefaultConfig("FT")
		cfg.IncludeYear = false
		cfg.ResetPeriod = "never"
		code, err := s.numerator.GetNextNumber(ctx, cfg, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		ft.Code = code
	}

	return s.repo.Create(ctx, ft)
}

// GetByID retrieves a fuel type.
func (s *Service) GetByID(ctx context.Context, ftID id.ID) (*FuelType, error) {
	return s.repo.GetByID(ctx, ftID)
}

// Update modifies an existing fuel type.
func (s *Service) Update(ctx context.Context, ft *FuelType) error {
	if err := ft.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Update(ctx, ft)
}

// List retrieves fuel types.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]*FuelType, error) {
	return s.repo.List(ctx, activeOnly)
}
