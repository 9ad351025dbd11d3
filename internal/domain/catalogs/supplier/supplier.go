// Package supplier provides the Supplier catalog. Purchase orders reference
// a supplier; everything beyond the reference (contracts, settlement) lives
// outside this system.
package supplier

import (
	"context"
	"fmt"
	"time"

	"fueldepot/internal/core/entity"
	"fueldepot/internal/core/id"
	"fueldepot/pkg/numerator"
)

// Supplier represents a fuel supplier.
type Supplier struct {
	entity.Catalog

	ContactPhone *string `db:"contact_phone" json:"contactPhone,omitempty"`
	Address      *string `db:"address" json:"address,omitempty"`
	IsActive     bool    `db:"is_active" json:"isActive"`
}

// New creates a new Supplier.
func New(code, name string) *Supplier {
	return &Supplier{
		Catalog:  entity.NewCatalog(code, name),
		IsActive: true,
	}
}

// Repository defines storage operations for suppliers.
type Repository interface {
	Create(ctx context.Context, sup *Supplier) error
	GetByID(ctx context.Context, supID id.ID) (*Supplier, error)
	GetByCode(ctx context.Context, code string) (*Supplier, error)
	Update(ctx context.Context, sup *Supplier) error
	List(ctx context.Context, activeOnly bool) ([]*Supplier, error)
}

// Service provides business logic for the Supplier catalog.
type Service struct {
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new Supplier service.
func NewService(repo Repository, num numerator.Generator) *Service {
	return &Service{repo: repo, numerator: num}
}

// Create validates and persists a new supplier, generating a code if empty.
func (s *Service) Create(ctx context.Context, sup *Supplier) error {
	if err := sup.Validate(ctx); err != nil {
		return err
	}

	if sup.Code == "" {
		cfg := numerator.DefaultConfig("SUP")
		cfg.IncludeYear = false
		cfg.ResetPeriod = "never"
		code, err := s.numerator.GetNextNumber(ctx, cfg, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		sup.Code = code
	}

	return s.repo.Create(ctx, sup)
}

// GetByID retrieves a supplier.
func (s *Service) GetByID(ctx context.Context, supID id.ID) (*Supplier, error) {
	return s.repo.GetByID(ctx, supID)
}

// Update modifies an existing supplier.
func (s *Service) Update(ctx context.Context, sup *Supplier) error {
	if err := sup.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Update(ctx, sup)
}

// List retrieves suppliers.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]*Supplier, error) {
	return s.repo.List(ctx, activeOnly)
}
